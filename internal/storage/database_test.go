package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "studydeck.db")
	db, err := Open(context.Background(), DriverSQLite, dsn, Options{})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

// fixedClock pins db.now so stats dates are predictable.
func fixedClock(db *DB, ts time.Time) {
	db.now = func() time.Time { return ts }
}

func TestOpenAppliesSchemaTwice(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "twice.db")
	ctx := context.Background()

	db, err := Open(ctx, DriverSQLite, dsn, Options{})
	require.NoError(t, err)
	require.NoError(t, db.Close())

	db, err = Open(ctx, DriverSQLite, dsn, Options{})
	require.NoError(t, err)
	require.NoError(t, db.Close())
}

func TestOpenAddsMissingColumns(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "old.db")
	ctx := context.Background()

	old, err := sqlx.Open(DriverSQLite, dsn)
	require.NoError(t, err)
	_, err = old.ExecContext(ctx, `CREATE TABLE user_stats (
		user_id TEXT PRIMARY KEY,
		sessions INTEGER NOT NULL DEFAULT 0,
		cards_reviewed INTEGER NOT NULL DEFAULT 0,
		current_streak INTEGER NOT NULL DEFAULT 0,
		longest_streak INTEGER NOT NULL DEFAULT 0,
		last_study TEXT NOT NULL DEFAULT '',
		updated_at TIMESTAMP NOT NULL
	)`)
	require.NoError(t, err)
	_, err = old.ExecContext(ctx, `INSERT INTO user_stats (user_id, sessions, updated_at) VALUES ('u1', 3, ?)`, time.Now().UTC())
	require.NoError(t, err)
	require.NoError(t, old.Close())

	db, err := Open(ctx, DriverSQLite, dsn, Options{})
	require.NoError(t, err)
	defer db.Close()

	stats, err := db.GetUserStats(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Sessions)
	assert.Zero(t, stats.Points)
}
