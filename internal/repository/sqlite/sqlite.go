// Package sqlite keeps the study state in a local SQLite file. The file is
// guarded by an advisory lock so only one process writes it at a time.
package sqlite

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofrs/flock"
	_ "modernc.org/sqlite"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS app_state (
	key TEXT PRIMARY KEY,
	data TEXT NOT NULL,
	updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

// DB is an open SQLite database plus the lock that guards it
type DB struct {
	*sql.DB
	lock *flock.Flock
	path string
}

// Open locks and opens the database at path, creating it and its schema if needed
func Open(path string) (*DB, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}

	lock := flock.New(path + ".lock")
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%s is in use by another vocabdeck process", path)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		_ = lock.Unlock()
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// one writer; avoids SQLITE_BUSY between pooled connections
	db.SetMaxOpenConns(1)

	if err := InitDB(db); err != nil {
		db.Close()
		_ = lock.Unlock()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &DB{DB: db, lock: lock, path: path}, nil
}

// Path returns the database file path
func (d *DB) Path() string {
	return d.path
}

// Close closes the database and releases the lock
func (d *DB) Close() error {
	err := d.DB.Close()
	if unlockErr := d.lock.Unlock(); err == nil {
		err = unlockErr
	}
	return err
}

// InitDB runs the embedded schema on db
func InitDB(db *sql.DB) error {
	for _, stmt := range strings.Split(schemaSQL, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}
