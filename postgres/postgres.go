package postgres

import (
	"github.com/jackc/pgx/v5/pgxpool"
)

// PGStore implements chatflow.Store using PostgreSQL via pgx. Each saved
// chatflow is one row in the chatflows table, with the whole canvas kept
// as a JSONB document next to its node and edge counts.
type PGStore struct {
	db *pgxpool.Pool
}

// New creates a new PGStore backed by the given pgx connection pool.
func New(db *pgxpool.Pool) *PGStore {
	return &PGStore{db: db}
}
