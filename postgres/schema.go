package postgres

import "context"

const schemaSQL = `
CREATE TABLE IF NOT EXISTS chatflows (
    id         TEXT PRIMARY KEY,
    name       TEXT NOT NULL,
    canvas     JSONB NOT NULL DEFAULT '{"nodes":[],"edges":[]}',
    node_count INT NOT NULL DEFAULT 0,
    edge_count INT NOT NULL DEFAULT 0,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_chatflows_updated_at ON chatflows(updated_at DESC);
CREATE INDEX IF NOT EXISTS idx_chatflows_name       ON chatflows(lower(name));
`

// CreateSchema creates the chatflows table if it doesn't exist.
func (s *PGStore) CreateSchema(ctx context.Context) error {
	_, err := s.db.Exec(ctx, schemaSQL)
	return err
}

// DropSchema drops the chatflows table.
func (s *PGStore) DropSchema(ctx context.Context) error {
	_, err := s.db.Exec(ctx, `DROP TABLE IF EXISTS chatflows CASCADE;`)
	return err
}
