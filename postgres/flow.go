package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/meikuraledutech/chatflow"
)

// SaveFlow inserts or replaces a saved flow.
// If f.ID is empty, a UUID is auto-generated.
// Timestamps on f are filled in from the database.
// Returns the flow ID (generated or provided).
func (s *PGStore) SaveFlow(ctx context.Context, f *chatflow.Flow) (string, error) {
	if f.ID == "" {
		f.ID = uuid.NewString()
	}
	canvas, err := encodeGraph(f.Graph)
	if err != nil {
		return "", err
	}

	err = s.db.QueryRow(ctx, `
		INSERT INTO chatflows (id, name, canvas, node_count, edge_count)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE
		SET name = EXCLUDED.name,
		    canvas = EXCLUDED.canvas,
		    node_count = EXCLUDED.node_count,
		    edge_count = EXCLUDED.edge_count,
		    updated_at = NOW()
		RETURNING created_at, updated_at`,
		f.ID, f.Name, canvas, len(f.Graph.Nodes), len(f.Graph.Edges),
	).Scan(&f.CreatedAt, &f.UpdatedAt)
	if err != nil {
		return "", fmt.Errorf("chatflow: save flow: %w", err)
	}

	return f.ID, nil
}

// GetFlow fetches a saved flow by its ID.
// Returns nil, nil if not found.
func (s *PGStore) GetFlow(ctx context.Context, flowID string) (*chatflow.Flow, error) {
	var (
		f      chatflow.Flow
		canvas []byte
	)
	err := s.db.QueryRow(ctx,
		`SELECT id, name, canvas, created_at, updated_at FROM chatflows WHERE id = $1`, flowID,
	).Scan(&f.ID, &f.Name, &canvas, &f.CreatedAt, &f.UpdatedAt)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("chatflow: get flow: %w", err)
	}

	if err := json.Unmarshal(canvas, &f.Graph); err != nil {
		return nil, fmt.Errorf("chatflow: decode flow %s: %w", flowID, err)
	}
	return &f, nil
}

// ListFlows returns saved flows whose name contains query (case-insensitive),
// newest first. An empty query lists everything.
// Returns an empty slice (not nil) if none found.
func (s *PGStore) ListFlows(ctx context.Context, query string) ([]chatflow.FlowSummary, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, name, node_count, edge_count, updated_at
		FROM chatflows
		WHERE $1 = '' OR strpos(lower(name), lower($1)) > 0
		ORDER BY updated_at DESC`, query)
	if err != nil {
		return nil, fmt.Errorf("chatflow: list flows: %w", err)
	}
	defer rows.Close()

	flows := []chatflow.FlowSummary{}
	for rows.Next() {
		var f chatflow.FlowSummary
		if err := rows.Scan(&f.ID, &f.Name, &f.NodeCount, &f.EdgeCount, &f.UpdatedAt); err != nil {
			return nil, fmt.Errorf("chatflow: scan flow: %w", err)
		}
		flows = append(flows, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("chatflow: rows flows: %w", err)
	}

	return flows, nil
}

// DeleteFlow deletes a saved flow by its ID.
// No error if the flow doesn't exist.
func (s *PGStore) DeleteFlow(ctx context.Context, flowID string) error {
	_, err := s.db.Exec(ctx, `DELETE FROM chatflows WHERE id = $1`, flowID)
	if err != nil {
		return fmt.Errorf("chatflow: delete flow: %w", err)
	}
	return nil
}

func encodeGraph(g chatflow.Graph) (json.RawMessage, error) {
	if g.Nodes == nil {
		g.Nodes = []chatflow.Node{}
	}
	if g.Edges == nil {
		g.Edges = []chatflow.Edge{}
	}
	b, err := json.Marshal(g)
	if err != nil {
		return nil, fmt.Errorf("chatflow: encode canvas: %w", err)
	}
	return b, nil
}

// isNoRows checks if the error is pgx's "no rows" error.
func isNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}
