package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"  // Registers the postgres driver
	_ "modernc.org/sqlite" // Registers the sqlite driver
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// DB represents a wrapper around the SQL database connection.
type DB struct {
	conn   *sqlx.DB
	driver string
	now    func() time.Time
}

// Options tune the connection pool. Zero values keep the driver defaults.
type Options struct {
	MaxOpenConns int
}

// Open creates a new database connection and ensures the schema is up to date.
func Open(ctx context.Context, driver, dsn string, opts Options) (*DB, error) {
	conn, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if driver == DriverSQLite {
		// SQLite allows one writer; PRAGMAs apply per connection.
		conn.SetMaxOpenConns(1)
	} else if opts.MaxOpenConns > 0 {
		conn.SetMaxOpenConns(opts.MaxOpenConns)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := conn.PingContext(pingCtx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if driver == DriverSQLite {
		if _, err := conn.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
			conn.Close()
			return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
		}
	}

	if _, err := conn.ExecContext(ctx, schema); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}
	if err := addMissingColumns(ctx, conn); err != nil {
		conn.Close()
		return nil, err
	}

	return &DB{conn: conn, driver: driver, now: func() time.Time { return time.Now().UTC() }}, nil
}

// addMissingColumns brings tables created by an older schema up to date.
// CREATE TABLE IF NOT EXISTS leaves existing tables alone.
func addMissingColumns(ctx context.Context, conn *sqlx.DB) error {
	for _, c := range addedColumns {
		check := fmt.Sprintf("SELECT %s FROM %s WHERE 1 = 0", c.column, c.table)
		if _, err := conn.ExecContext(ctx, check); err == nil {
			continue
		}
		alter := fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", c.table, c.column, c.def)
		if _, err := conn.ExecContext(ctx, alter); err != nil {
			return fmt.Errorf("failed to add column %s.%s: %w", c.table, c.column, err)
		}
	}
	return nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// q rewrites '?' placeholders for the connected driver.
func (db *DB) q(query string) string {
	return db.conn.Rebind(query)
}

// forUpdate locks the selected rows until the transaction ends. SQLite runs
// on a single connection, so its transactions are already serialised.
func (db *DB) forUpdate() string {
	if db.driver == DriverPostgres {
		return " FOR UPDATE"
	}
	return ""
}

// inTx runs fn in a transaction, rolling back when fn fails.
func (db *DB) inTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := db.conn.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return errors.Join(err, fmt.Errorf("failed to roll back: %w", rbErr))
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func notFound(err error, sentinel error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return sentinel
	}
	return err
}
