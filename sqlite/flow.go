package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/meikuraledutech/chatflow"
)

// SaveFlow inserts or replaces a saved flow.
// If f.ID is empty, a UUID is auto-generated.
func (s *SQLiteStore) SaveFlow(ctx context.Context, f *chatflow.Flow) (string, error) {
	if f.ID == "" {
		f.ID = uuid.NewString()
	}
	g := f.Graph
	if g.Nodes == nil {
		g.Nodes = []chatflow.Node{}
	}
	if g.Edges == nil {
		g.Edges = []chatflow.Edge{}
	}
	canvas, err := json.Marshal(g)
	if err != nil {
		return "", fmt.Errorf("chatflow: encode canvas: %w", err)
	}

	now := time.Now().UTC()
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO chatflows (id, name, canvas, node_count, edge_count, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE
		SET name = excluded.name,
		    canvas = excluded.canvas,
		    node_count = excluded.node_count,
		    edge_count = excluded.edge_count,
		    updated_at = excluded.updated_at`,
		f.ID, f.Name, string(canvas), len(g.Nodes), len(g.Edges), now, now,
	)
	if err != nil {
		return "", fmt.Errorf("chatflow: save flow: %w", err)
	}

	if err := s.db.QueryRowContext(ctx,
		`SELECT created_at, updated_at FROM chatflows WHERE id = ?`, f.ID,
	).Scan(&f.CreatedAt, &f.UpdatedAt); err != nil {
		return "", fmt.Errorf("chatflow: read back flow: %w", err)
	}
	return f.ID, nil
}

// GetFlow fetches a saved flow by its ID.
// Returns nil, nil if not found.
func (s *SQLiteStore) GetFlow(ctx context.Context, flowID string) (*chatflow.Flow, error) {
	var (
		f      chatflow.Flow
		canvas string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, canvas, created_at, updated_at FROM chatflows WHERE id = ?`, flowID,
	).Scan(&f.ID, &f.Name, &canvas, &f.CreatedAt, &f.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("chatflow: get flow: %w", err)
	}
	if err := json.Unmarshal([]byte(canvas), &f.Graph); err != nil {
		return nil, fmt.Errorf("chatflow: decode flow %s: %w", flowID, err)
	}
	return &f, nil
}

// ListFlows returns saved flows whose name contains query (case-insensitive),
// newest first.
func (s *SQLiteStore) ListFlows(ctx context.Context, query string) ([]chatflow.FlowSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, node_count, edge_count, updated_at
		FROM chatflows
		WHERE ? = '' OR instr(lower(name), ?) > 0
		ORDER BY updated_at DESC, rowid DESC`, query, strings.ToLower(query))
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
func (s *SQLiteStore) DeleteFlow(ctx context.Context, flowID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM chatflows WHERE id = ?`, flowID); err != nil {
		return fmt.Errorf("chatflow: delete flow: %w", err)
	}
	return nil
}
