package migrations

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/jackc/pgx/v5"
)

type Migration struct {
	ID    string
	UpSQL string
}

var allMigrations = []Migration{
	{
		ID: "20240301090000_create_headlines_table",
		UpSQL: `
		CREATE TABLE headlines(
		position INTEGER PRIMARY KEY,
		version BIGINT NOT NULL,
		country CHAR(2) NOT NULL,
		language CHAR(2) NOT NULL,
		derived BOOLEAN NOT NULL,
		source_id TEXT,
		source_name TEXT NOT NULL,
		author TEXT,
		title TEXT NOT NULL,
		description TEXT NOT NULL,
		url TEXT,
		url_to_image TEXT,
		published_at TIMESTAMPTZ,
		content TEXT,
		updated_at TIMESTAMPTZ NOT NULL
		);`,
	},
	{
		ID:    "20240301090100_index_headlines_version",
		UpSQL: `CREATE INDEX headlines_version_idx ON headlines(version);`,
	},
}

// Beginner открывает транзакцию; *pgxpool.Pool удовлетворяет этому интерфейсу.
type Beginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// lockID - ключ advisory-блокировки, сериализующей миграции нескольких экземпляров.
const lockID = 7412093

// Apply применяет недостающие миграции в одной транзакции.
func Apply(ctx context.Context, log *slog.Logger, db Beginner) error {
	log = log.With(slog.String("component", "migrations"))
	log.Info("Starting database migrations check...")

	tx, err := db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, "SELECT pg_advisory_xact_lock($1)", lockID); err != nil {
		return fmt.Errorf("failed to acquire migrations lock: %w", err)
	}
	if _, err := tx.Exec(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (id TEXT PRIMARY KEY);`); err != nil {
		return fmt.Errorf("failed to create schema_migrations table: %w", err)
	}

	applied := 0
	for _, m := range Ordered() {
		tag, err := tx.Exec(ctx, "INSERT INTO schema_migrations (id) VALUES ($1) ON CONFLICT (id) DO NOTHING", m.ID)
		if err != nil {
			return fmt.Errorf("failed to record migration %s: %w", m.ID, err)
		}
		if tag.RowsAffected() == 0 {
			continue
		}
		log.Info("Applying migration", slog.String("id", m.ID))
		if _, err := tx.Exec(ctx, m.UpSQL); err != nil {
			return fmt.Errorf("failed to apply migration %s: %w", m.ID, err)
		}
		applied++
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit migrations transaction: %w", err)
	}
	if applied > 0 {
		log.Info("Database migrations applied successfully", slog.Int("count", applied))
	} else {
		log.Info("Database is up to date, no new migrations found.")
	}
	return nil
}

// Ordered возвращает миграции, отсортированные по ID.
func Ordered() []Migration {
	out := append([]Migration(nil), allMigrations...)
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
