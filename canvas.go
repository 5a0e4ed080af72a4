package chatflow

import (
	"errors"
	"fmt"
	"log"
	"slices"
	"sync"
)

// CopyOffset is how far a copied node is shifted from its source.
var CopyOffset = Position{X: 50, Y: 50}

// Tool parameter values are stored under toolParameterValues. Older forms
// submitted them under one of the legacy keys.
const toolParamValuesKey = "toolParameterValues"

var legacyToolParamKeys = []string{"additionalParameters", "formData"}

// Logger is the subset of *log.Logger the canvas writes diagnostics to.
type Logger interface {
	Printf(format string, v ...any)
}

// ConnectResult is the outcome of a proposed connection.
type ConnectResult struct {
	Accepted bool   `json:"accepted"`
	Reason   string `json:"reason,omitempty"`
	Edge     *Edge  `json:"edge,omitempty"`
}

// Err returns the rejection as an error, or nil when accepted.
func (r ConnectResult) Err() error {
	if r.Accepted {
		return nil
	}
	return &RejectionError{Reason: r.Reason}
}

// Canvas owns the nodes and edges of one editor session. All mutations go
// through its methods; snapshots handed out are copies.
type Canvas struct {
	mu        sync.Mutex
	nodes     []Node
	edges     []Edge
	seq       uint64
	validator *Validator
	logger    Logger
	half      Size
	defPos    Position
}

// Option configures a Canvas.
type Option func(*Canvas)

// WithValidator replaces the connection rules.
func WithValidator(v *Validator) Option {
	return func(c *Canvas) { c.validator = v }
}

// WithLogger sets where diagnostics go. Defaults to log.Default().
func WithLogger(l Logger) Option {
	return func(c *Canvas) { c.logger = l }
}

// WithNodeHalfSize sets the footprint used to centre dropped nodes.
func WithNodeHalfSize(s Size) Option {
	return func(c *Canvas) { c.half = s }
}

// WithDefaultPosition sets where nodes without a position are placed.
func WithDefaultPosition(p Position) Option {
	return func(c *Canvas) { c.defPos = p }
}

// NewCanvas creates an empty canvas.
func NewCanvas(opts ...Option) *Canvas {
	c := &Canvas{
		nodes:  []Node{},
		edges:  []Edge{},
		half:   DefaultNodeHalfSize,
		defPos: DefaultNodePosition,
	}
	for _, o := range opts {
		o(c)
	}
	if c.validator == nil {
		c.validator = NewValidator()
	}
	if c.logger == nil {
		c.logger = log.Default()
	}
	return c
}

// AddNode creates a node from t at pos (or the default position) and puts
// it on top of the z-order.
func (c *Canvas) AddNode(t Template, pos *Position) (Node, error) {
	kind, err := LookupKind(t.Type)
	if err != nil {
		return Node{}, err
	}
	data := kind.NewData(t)
	if err := kind.Validate(data); err != nil {
		return Node{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	p := c.defPos
	if pos != nil {
		p = *pos
	}
	n := Node{
		ID:       c.nextID(t.Type),
		Type:     t.Type,
		Position: p,
		Data:     data,
	}
	c.nodes = append(c.nodes, n)
	return n.Clone(), nil
}

// Drop handles a palette drag ending on the canvas. A payload that can't
// be decoded is logged and ignored: no node is added.
func (c *Canvas) Drop(raw []byte, pointer, origin Position) (Node, bool) {
	t, err := DecodeDragPayload(raw)
	if err != nil {
		c.logger.Printf("chatflow: ignoring drop: %v", err)
		return Node{}, false
	}
	pos := ComputeDropPosition(pointer, origin, c.half)
	n, err := c.AddNode(t, &pos)
	if err != nil {
		c.logger.Printf("chatflow: ignoring drop of %q: %v", t.Type, err)
		return Node{}, false
	}
	return n, true
}

// DeleteNode removes the node and every edge touching it.
// Unknown ids are ignored.
func (c *Canvas) DeleteNode(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	i := c.indexOf(id)
	if i < 0 {
		return
	}
	c.nodes = slices.Delete(c.nodes, i, i+1)
	c.edges = slices.DeleteFunc(c.edges, func(e Edge) bool {
		return e.Source == id || e.Target == id
	})
}

// CopyNode duplicates a node from its current position and data, offset
// by CopyOffset and renamed with the next free copy number. It reports
// false when id is unknown.
func (c *Canvas) CopyNode(id string) (Node, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	i := c.indexOf(id)
	if i < 0 {
		return Node{}, false
	}
	src := c.nodes[i]

	field, def := "title", "Node"
	if k := kindOf(&src); k != nil {
		field, def = k.NameField(), k.DefaultName()
	}
	name, _ := src.Data[field].(string)
	if name == "" {
		name = def
	}

	var counted, taken []string
	for _, n := range c.nodes {
		s, ok := n.Data[field].(string)
		if !ok {
			continue
		}
		taken = append(taken, s)
		if n.ID != src.ID {
			counted = append(counted, s)
		}
	}

	cp := src.Clone()
	cp.ID = c.nextID(src.ID + "-copy")
	cp.Position = Position{X: src.Position.X + CopyOffset.X, Y: src.Position.Y + CopyOffset.Y}
	cp.Data[field] = nextCopyName(BaseName(name), counted, taken)
	c.nodes = append(c.nodes, cp)
	return cp.Clone(), true
}

// PatchNodeData shallow-merges partial into the node's data. For tool
// nodes, parameter values sent under a legacy key are stored under
// toolParameterValues and the legacy keys are dropped. The merged data
// must pass its kind's validation, otherwise a *ParameterError is
// returned and the node is left as it was. Unknown ids yield
// ErrNodeNotFound.
func (c *Canvas) PatchNodeData(id string, partial map[string]any) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	i := c.indexOf(id)
	if i < 0 {
		return ErrNodeNotFound
	}
	n := &c.nodes[i]
	patch := cloneMap(partial)

	touched := false
	if IsTool(n.Type) {
		if _, ok := patch[toolParamValuesKey]; ok {
			touched = true
		}
		for _, k := range legacyToolParamKeys {
			v, ok := patch[k]
			if !ok {
				continue
			}
			if !touched {
				patch[toolParamValuesKey] = v
				touched = true
			}
			delete(patch, k)
		}
	}

	merged := mergeData(n.Data, patch)
	if touched {
		for _, k := range legacyToolParamKeys {
			delete(merged, k)
		}
	}
	if k := kindOf(n); k != nil {
		if err := k.Validate(merged); err != nil {
			return &ParameterError{NodeID: id, Err: err}
		}
	}
	n.Data = merged
	return nil
}

// MoveNode records a drag position from the rendering surface.
func (c *Canvas) MoveNode(id string, pos Position) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	i := c.indexOf(id)
	if i < 0 {
		return false
	}
	c.nodes[i].Position = pos
	return true
}

// AddEdge validates a proposed connection and stores it when accepted.
// Edge ids are derived from the endpoints, so proposing the same
// connection twice yields the existing edge.
func (c *Canvas) AddEdge(e Edge) ConnectResult {
	c.mu.Lock()
	defer c.mu.Unlock()

	si, ti := c.indexOf(e.Source), c.indexOf(e.Target)
	if si < 0 {
		return ConnectResult{Reason: fmt.Sprintf("Source node %q does not exist.", e.Source)}
	}
	if ti < 0 {
		return ConnectResult{Reason: fmt.Sprintf("Target node %q does not exist.", e.Target)}
	}
	if err := c.validator.Validate(&c.nodes[si], &c.nodes[ti], e); err != nil {
		reason := err.Error()
		var rej *RejectionError
		if errors.As(err, &rej) {
			reason = rej.Reason
		}
		return ConnectResult{Reason: reason}
	}

	e.ID = EdgeID(e)
	e.Animated = true
	for _, existing := range c.edges {
		if existing.ID == e.ID {
			dup := existing
			return ConnectResult{Accepted: true, Edge: &dup}
		}
	}
	c.edges = append(c.edges, e)
	return ConnectResult{Accepted: true, Edge: &e}
}

// RemoveEdge deletes an edge. Unknown ids are ignored.
func (c *Canvas) RemoveEdge(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.edges = slices.DeleteFunc(c.edges, func(e Edge) bool { return e.ID == id })
}

// ReplaceFromExternal reconciles a node and edge list supplied by the host,
// for example when a saved flow is loaded. A nil slice leaves that half
// untouched. Nodes with an empty or repeated id or an unregistered type
// are logged and skipped. Incoming edges replace the local ones, minus any
// whose endpoints are no longer on the canvas.
func (c *Canvas) ReplaceFromExternal(nodes []Node, edges []Edge, policy MergePolicy) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if nodes != nil {
		kept, skipped := CleanNodes(nodes)
		for _, sk := range skipped {
			c.logger.Printf("chatflow: ignoring external node %q: %s", sk.Node.ID, sk.Reason)
		}
		c.nodes = Reconcile(c.nodes, kept, policy)
	}
	if edges != nil {
		c.edges = slices.Clone(edges)
	}
	c.edges = slices.DeleteFunc(c.edges, func(e Edge) bool {
		return c.indexOf(e.Source) < 0 || c.indexOf(e.Target) < 0
	})
}

// CanvasData returns a snapshot of the whole graph.
func (c *Canvas) CanvasData() Graph {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Graph{Nodes: c.nodes, Edges: c.edges}.Clone()
}

// CurrentNodes returns a snapshot of the nodes in z-order.
func (c *Canvas) CurrentNodes() []Node {
	return c.CanvasData().Nodes
}

// Node returns a copy of the node with the given id.
func (c *Canvas) Node(id string) (Node, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	i := c.indexOf(id)
	if i < 0 {
		return Node{}, false
	}
	return c.nodes[i].Clone(), true
}

// EdgeID derives the id of a connection from its endpoints.
func EdgeID(e Edge) string {
	return "xy-edge__" + e.Source + e.SourceHandle + "-" + e.Target + e.TargetHandle
}

func (c *Canvas) indexOf(id string) int {
	return slices.IndexFunc(c.nodes, func(n Node) bool { return n.ID == id })
}

// nextID returns prefix-N for the first N not already used on the canvas.
func (c *Canvas) nextID(prefix string) string {
	for {
		c.seq++
		id := fmt.Sprintf("%s-%d", prefix, c.seq)
		if c.indexOf(id) < 0 {
			return id
		}
	}
}
