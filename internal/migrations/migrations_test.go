package migrations

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeTx записывает выполненные запросы; schema_migrations хранится в applied.
type fakeTx struct {
	pgx.Tx
	applied   map[string]bool
	execs     []string
	failOn    string
	committed bool
}

func (tx *fakeTx) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	tx.execs = append(tx.execs, sql)
	if tx.failOn != "" && strings.Contains(sql, tx.failOn) {
		return pgconn.CommandTag{}, errors.New("syntax error")
	}
	if strings.HasPrefix(sql, "INSERT INTO schema_migrations") {
		id := args[0].(string)
		if tx.applied[id] {
			return pgconn.NewCommandTag("INSERT 0 0"), nil
		}
		tx.applied[id] = true
		return pgconn.NewCommandTag("INSERT 0 1"), nil
	}
	return pgconn.NewCommandTag("OK"), nil
}

func (tx *fakeTx) Commit(context.Context) error {
	tx.committed = true
	return nil
}

func (tx *fakeTx) Rollback(context.Context) error { return nil }

type fakeDB struct{ tx *fakeTx }

func (db fakeDB) Begin(context.Context) (pgx.Tx, error) { return db.tx, nil }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestOrdered(t *testing.T) {
	ms := Ordered()
	require.NotEmpty(t, ms)
	seen := map[string]bool{}
	for i, m := range ms {
		assert.False(t, seen[m.ID], "duplicate migration id %s", m.ID)
		seen[m.ID] = true
		if i > 0 {
			assert.Less(t, ms[i-1].ID, m.ID)
		}
	}
	assert.Contains(t, ms[0].UpSQL, "CREATE TABLE headlines")
}

func TestApply_AppliesOnlyMissing(t *testing.T) {
	first := Ordered()[0].ID
	tx := &fakeTx{applied: map[string]bool{first: true}}

	require.NoError(t, Apply(context.Background(), discardLogger(), fakeDB{tx: tx}))

	assert.True(t, tx.committed)
	joined := strings.Join(tx.execs, "\n")
	assert.NotContains(t, joined, "CREATE TABLE headlines")
	assert.Contains(t, joined, "CREATE INDEX headlines_version_idx")
	assert.Len(t, tx.applied, len(Ordered()))
}

func TestApply_FailureIsNotCommitted(t *testing.T) {
	tx := &fakeTx{applied: map[string]bool{}, failOn: "CREATE INDEX"}

	err := Apply(context.Background(), discardLogger(), fakeDB{tx: tx})

	assert.ErrorContains(t, err, "failed to apply migration")
	assert.False(t, tx.committed)
}
