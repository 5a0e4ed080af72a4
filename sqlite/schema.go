package sqlite

import "context"

const schemaSQL = `
CREATE TABLE IF NOT EXISTS chatflows (
    id         TEXT PRIMARY KEY,
    name       TEXT NOT NULL,
    canvas     TEXT NOT NULL DEFAULT '{"nodes":[],"edges":[]}',
    node_count INTEGER NOT NULL DEFAULT 0,
    edge_count INTEGER NOT NULL DEFAULT 0,
    created_at TIMESTAMP NOT NULL,
    updated_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_chatflows_updated_at ON chatflows(updated_at DESC);
`

// CreateSchema creates the chatflows table if it doesn't exist.
func (s *SQLiteStore) CreateSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, schemaSQL)
	return err
}

// DropSchema drops the chatflows table.
func (s *SQLiteStore) DropSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DROP TABLE IF EXISTS chatflows;`)
	return err
}
