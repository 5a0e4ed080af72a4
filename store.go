package chatflow

import (
	"context"
	"errors"
	"time"
)

var (
	ErrUnknownKind        = errors.New("chatflow: unknown node kind")
	ErrNodeNotFound       = errors.New("chatflow: node not found")
	ErrConnectionRejected = errors.New("chatflow: connection rejected")
	ErrMalformedPayload   = errors.New("chatflow: malformed drag payload")
	ErrInvalidParameter   = errors.New("chatflow: invalid parameter")
	ErrFlowNotFound       = errors.New("chatflow: flow not found")
)

// Flow is a saved canvas.
type Flow struct {
	ID        string    `json:"id,omitempty"`
	Name      string    `json:"name"`
	Graph     Graph     `json:"canvasData"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// FlowSummary is a row of the saved-flow listing.
type FlowSummary struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	NodeCount int       `json:"nodeCount"`
	EdgeCount int       `json:"edgeCount"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Store defines the contract for persisting saved chatflows.
// The editor itself never needs one; saving is opt-in.
type Store interface {
	// Schema
	CreateSchema(ctx context.Context) error
	DropSchema(ctx context.Context) error

	// Flows
	SaveFlow(ctx context.Context, f *Flow) (string, error)
	GetFlow(ctx context.Context, flowID string) (*Flow, error)
	ListFlows(ctx context.Context, query string) ([]FlowSummary, error)
	DeleteFlow(ctx context.Context, flowID string) error
}
