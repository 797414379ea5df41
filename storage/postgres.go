package storage

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"headlines/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type beginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// PostgresHeadlinesDB зеркалирует опубликованный список в таблицу headlines.
// Таблица не читается при старте: она только отражает то, что сейчас на экране.
type PostgresHeadlinesDB struct {
	db    beginner
	close func()
	log   *slog.Logger
}

func NewPostgresHeadlinesDB(pool *pgxpool.Pool, log *slog.Logger) *PostgresHeadlinesDB {
	log = log.With(slog.String("component", "postgres"))
	log.Info("Initializing Postgres headlines table")
	return &PostgresHeadlinesDB{
		db:    pool,
		close: pool.Close,
		log:   log,
	}
}

func (db *PostgresHeadlinesDB) Close() {
	db.log.Info("Closing database connection pool")
	if db.close != nil {
		db.close()
	}
}

const insertHeadline = `
	INSERT INTO headlines (
	position, version, country, language, derived,
	source_id, source_name, author, title, description,
	url, url_to_image, published_at, content, updated_at
	)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15);
	`

// Replace удаляет прежний список и вставляет новый в одной транзакции.
func (db *PostgresHeadlinesDB) Replace(ctx context.Context, snap domain.Snapshot) (err error) {
	const op = "storage.postgres.Replace"
	log := db.log.With(
		slog.String("op", op),
		slog.Uint64("version", snap.Version),
	)
	tx, err := db.db.Begin(ctx)
	if err != nil {
		log.Error("Failed to begin transaction", slog.Any("error", err))
		return fmt.Errorf("%s: failed to begin transaction: %w", op, err)
	}
	defer func() {
		if err != nil {
			if rollbackErr := tx.Rollback(context.Background()); rollbackErr != nil {
				log.Error("Failed to rollback transaction", slog.Any("error", rollbackErr))
			}
		}
	}()

	if _, err = tx.Exec(ctx, "DELETE FROM headlines"); err != nil {
		log.Error("Failed to clear headlines", slog.Any("error", err))
		return fmt.Errorf("%s: failed to clear headlines: %w", op, err)
	}
	if len(snap.Articles) > 0 {
		batch := &pgx.Batch{}
		for i, a := range snap.Articles {
			batch.Queue(insertHeadline,
				i,
				int64(snap.Version),
				string(snap.Region.Country),
				string(snap.Region.Language),
				snap.Region.Derived,
				nullString(a.Source.ID),
				a.Source.Name,
				nullString(a.Author),
				a.Title,
				a.Description,
				nullString(a.URL),
				nullString(a.URLToImage),
				nullTime(a.PublishedAt),
				nullString(a.Content),
				snap.UpdatedAt,
			)
		}
		if err = tx.SendBatch(ctx, batch).Close(); err != nil {
			log.Error("Failed to execute batch", slog.Any("error", err))
			return fmt.Errorf("%s: failed to execute batch: %w", op, err)
		}
	}
	if err = tx.Commit(ctx); err != nil {
		log.Error("Failed to commit transaction", slog.Any("error", err))
		return fmt.Errorf("%s: failed to commit transaction: %w", op, err)
	}
	log.Debug("Headlines table replaced", slog.Int("count", len(snap.Articles)))
	return nil
}

func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func nullTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
