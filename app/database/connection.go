package database

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

const busyTimeoutMs = 5000

// DB wraps the SQLite handle shared by every repository. Reads go straight to
// the pool; writes are funnelled through write so concurrent pollers never
// race each other for the database lock.
type DB struct {
	*sql.DB
	path    string
	writeMu sync.Mutex
	now     func() time.Time
}

// Open opens or creates the database file at path.
func Open(path string) (*DB, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	dsn := fmt.Sprintf("%s?_pragma=busy_timeout(%d)&_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)", path, busyTimeoutMs)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return &DB{DB: db, path: path, now: time.Now}, nil
}

func (db *DB) Path() string {
	return db.path
}

// SetClock replaces the time source used for activity timestamps.
func (db *DB) SetClock(now func() time.Time) {
	db.now = now
}

func (db *DB) write(fn func() error) error {
	db.writeMu.Lock()
	defer db.writeMu.Unlock()
	return fn()
}
