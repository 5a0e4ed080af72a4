// Package sqlite implements chatflow.Store on a single SQLite file, for
// deployments that don't run PostgreSQL.
package sqlite

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteStore implements chatflow.Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// Open opens (or creates) the database at path. Use ":memory:" for a
// throwaway store.
func Open(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("chatflow: open sqlite: %w", err)
	}
	// One connection keeps ":memory:" databases alive and serialises writers.
	db.SetMaxOpenConns(1)
	return &SQLiteStore{db: db}, nil
}

// New wraps an already opened database.
func New(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// Close releases the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
