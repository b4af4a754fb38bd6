package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"jenkins-notify-bot/src/contracts"
)

const sqliteSchema = `
	CREATE TABLE IF NOT EXISTS build_status (
		job_name     TEXT PRIMARY KEY,
		last_updated TEXT NOT NULL,
		last_status  TEXT NOT NULL DEFAULT '',
		saved_at     DATETIME DEFAULT CURRENT_TIMESTAMP
	)
`

// SQLiteStore keeps statuses in a local SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the database at path.
// Pass ":memory:" for an in-memory database (used by tests).
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	// Limit to single connection to avoid "database is locked" errors.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating build_status table: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Load returns every stored job status.
func (s *SQLiteStore) Load(ctx context.Context) (map[string]contracts.BuildStatus, error) {
	return loadRows(ctx, s.db, `SELECT job_name, last_updated, last_status FROM build_status`)
}

// Save replaces all rows in a single transaction.
func (s *SQLiteStore) Save(ctx context.Context, statuses map[string]contracts.BuildStatus) error {
	return replaceRows(ctx, s.db,
		`DELETE FROM build_status`,
		`INSERT INTO build_status (job_name, last_updated, last_status) VALUES (?, ?, ?)`,
		statuses,
	)
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
