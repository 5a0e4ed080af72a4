package chatflow

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// NotificationTTL is how long a banner stays up.
const NotificationTTL = 3 * time.Second

// NotificationKind is the banner style.
type NotificationKind string

const (
	NotifySuccess NotificationKind = "success"
	NotifyError   NotificationKind = "error"
)

// Notification is a transient banner. It is never part of the graph.
type Notification struct {
	Kind      NotificationKind `json:"type"`
	Message   string           `json:"message"`
	ExpiresAt time.Time        `json:"expiresAt"`
}

// EditorState is an immutable snapshot of an editor session.
type EditorState struct {
	ProjectName  string        `json:"projectName"`
	CanvasData   Graph         `json:"canvasData"`
	Notification *Notification `json:"notification,omitempty"`
}

// NodeInfo is the read-only detail view of a node.
type NodeInfo struct {
	ID            string         `json:"id"`
	Type          string         `json:"type"`
	Title         string         `json:"title"`
	Description   string         `json:"description,omitempty"`
	MaxIterations int            `json:"maxIterations"`
	Inputs        []string       `json:"inputs"`
	Outputs       []string       `json:"outputs"`
	Position      Position       `json:"position"`
	Data          map[string]any `json:"data"`
}

// ParameterForm describes the parameter editor for one node. Agents get
// the fallback form with only MaxIterations.
type ParameterForm struct {
	NodeID        string         `json:"nodeId"`
	Schema        map[string]any `json:"schema"`
	HasFields     bool           `json:"hasFields"`
	Values        map[string]any `json:"values"`
	MaxIterations *int           `json:"maxIterations,omitempty"`
}

// Editor is one open chatflow: the canvas plus the session state around it
// (project name, notification banner).
type Editor struct {
	canvas *Canvas
	now    func() time.Time
	ttl    time.Duration

	mu     sync.Mutex
	name   string
	banner *Notification
	flowID string
}

// EditorOption configures an Editor.
type EditorOption func(*Editor)

// WithClock overrides time.Now, for banners and export stamps.
func WithClock(now func() time.Time) EditorOption {
	return func(e *Editor) { e.now = now }
}

// WithNotificationTTL overrides NotificationTTL.
func WithNotificationTTL(d time.Duration) EditorOption {
	return func(e *Editor) { e.ttl = d }
}

// NewEditor opens an empty editor around c.
func NewEditor(projectName string, c *Canvas, opts ...EditorOption) *Editor {
	if c == nil {
		c = NewCanvas()
	}
	e := &Editor{canvas: c, now: time.Now, ttl: NotificationTTL}
	for _, o := range opts {
		o(e)
	}
	e.Rename(projectName)
	return e
}

// Canvas exposes the underlying graph store.
func (e *Editor) Canvas() *Canvas { return e.canvas }

// ProjectName returns the current project name.
func (e *Editor) ProjectName() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.name
}

// Rename sets the project name. Blank names fall back to DefaultProjectName.
func (e *Editor) Rename(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		name = DefaultProjectName
	}
	e.mu.Lock()
	e.name = name
	e.mu.Unlock()
	return name
}

// FlowID is the id of the saved flow this editor was opened from or last
// saved as. Empty for unsaved sessions.
func (e *Editor) FlowID() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.flowID
}

// SetFlowID records the saved flow id.
func (e *Editor) SetFlowID(id string) {
	e.mu.Lock()
	e.flowID = id
	e.mu.Unlock()
}

// State returns a snapshot including the banner if it hasn't expired.
func (e *Editor) State() EditorState {
	return EditorState{
		ProjectName:  e.ProjectName(),
		CanvasData:   e.canvas.CanvasData(),
		Notification: e.Notification(),
	}
}

// Notification returns the live banner, or nil once it has expired.
func (e *Editor) Notification() *Notification {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.banner == nil {
		return nil
	}
	if !e.now().Before(e.banner.ExpiresAt) {
		e.banner = nil
		return nil
	}
	n := *e.banner
	return &n
}

func (e *Editor) notify(kind NotificationKind, msg string) {
	e.mu.Lock()
	e.banner = &Notification{Kind: kind, Message: msg, ExpiresAt: e.now().Add(e.ttl)}
	e.mu.Unlock()
}

// GetCanvasData returns the current nodes and edges.
func (e *Editor) GetCanvasData() Graph { return e.canvas.CanvasData() }

// GetCurrentNodes returns the current nodes in z-order.
func (e *Editor) GetCurrentNodes() []Node { return e.canvas.CurrentNodes() }

// AddNode inserts a node from the palette at the default position.
func (e *Editor) AddNode(t Template) (Node, error) {
	return e.canvas.AddNode(t, nil)
}

// Drop adds the dragged template under the pointer and announces it.
// Malformed payloads are ignored without a banner.
func (e *Editor) Drop(raw []byte, pointer, origin Position) (Node, bool) {
	n, ok := e.canvas.Drop(raw, pointer, origin)
	if !ok {
		return Node{}, false
	}
	name, _ := n.Data["name"].(string)
	if name == "" {
		name, _ = n.Data["title"].(string)
	}
	e.notify(NotifySuccess, fmt.Sprintf("%s added successfully!", name))
	return n, true
}

// Connect proposes an edge. A rejection raises an error banner and leaves
// the graph untouched.
func (e *Editor) Connect(edge Edge) ConnectResult {
	res := e.canvas.AddEdge(edge)
	if !res.Accepted {
		e.notify(NotifyError, res.Reason)
	}
	return res
}

// CopyNode duplicates a node; see Canvas.CopyNode.
func (e *Editor) CopyNode(id string) (Node, bool) { return e.canvas.CopyNode(id) }

// DeleteNode removes a node; see Canvas.DeleteNode.
func (e *Editor) DeleteNode(id string) { e.canvas.DeleteNode(id) }

// PatchNodeData merges data into a node; see Canvas.PatchNodeData.
func (e *Editor) PatchNodeData(id string, partial map[string]any) error {
	return e.canvas.PatchNodeData(id, partial)
}

// NodeInfo builds the info view for a node.
func (e *Editor) NodeInfo(id string) (NodeInfo, bool) {
	n, ok := e.canvas.Node(id)
	if !ok {
		return NodeInfo{}, false
	}
	info := NodeInfo{
		ID:       n.ID,
		Type:     n.Type,
		Inputs:   []string{},
		Outputs:  []string{},
		Position: n.Position,
		Data:     n.Data,
	}
	if k := kindOf(&n); k != nil {
		info.Title, _ = n.Data[k.NameField()].(string)
		if info.Title == "" {
			info.Title = k.DefaultName()
		}
		info.Inputs = append(info.Inputs, k.Inputs()...)
		info.Outputs = append(info.Outputs, k.Outputs()...)
	}
	info.Description, _ = n.Data["description"].(string)
	switch {
	case IsAgent(n.Type):
		if a, err := DecodeAgentData(n.Data); err == nil {
			info.MaxIterations = a.MaxIterations
		}
	case IsTool(n.Type):
		if t, err := DecodeToolData(n.Data); err == nil && t.ToolDescription != "" {
			info.Description = t.ToolDescription
		}
	}
	return info, true
}

// SubmitToolParameters validates values against the tool's parameter
// schema and stores them. On a validation failure the node is unchanged.
func (e *Editor) SubmitToolParameters(id string, values map[string]any) error {
	n, ok := e.canvas.Node(id)
	if !ok {
		return ErrNodeNotFound
	}
	if !IsTool(n.Type) {
		return fmt.Errorf("%w: node %s has no tool parameters", ErrInvalidParameter, id)
	}
	tool, err := DecodeToolData(n.Data)
	if err != nil {
		return &ParameterError{NodeID: id, Err: err}
	}
	if HasSchemaFields(tool.ToolParameters) {
		if err := ValidateParameters(tool.ToolParameters, values); err != nil {
			return &ParameterError{NodeID: id, Err: err}
		}
	}
	if values == nil {
		values = map[string]any{}
	}
	return e.canvas.PatchNodeData(id, map[string]any{toolParamValuesKey: values})
}

// SetMaxIterations stores an agent's iteration limit. n must be >= 0.
func (e *Editor) SetMaxIterations(id string, n int) error {
	node, ok := e.canvas.Node(id)
	if !ok {
		return ErrNodeNotFound
	}
	if !IsAgent(node.Type) {
		return fmt.Errorf("%w: node %s is not an agent", ErrInvalidParameter, id)
	}
	if n < 0 {
		return &ParameterError{NodeID: id, Err: fmt.Errorf("maxIterations must be >= 0, got %d", n)}
	}
	return e.canvas.PatchNodeData(id, map[string]any{"maxIterations": n})
}

// ParameterForm returns what the parameter editor needs for a node: the
// schema to render and the values stored so far.
func (e *Editor) ParameterForm(id string) (ParameterForm, bool) {
	n, ok := e.canvas.Node(id)
	if !ok {
		return ParameterForm{}, false
	}
	form := ParameterForm{NodeID: id, Values: map[string]any{}}
	if IsTool(n.Type) {
		tool, _ := DecodeToolData(n.Data)
		form.Schema = ResolveParameterSchema(tool.ToolParameters)
		if tool.ToolParameterValues != nil {
			form.Values = tool.ToolParameterValues
		}
	} else {
		form.Schema = ResolveParameterSchema(nil)
		if a, err := DecodeAgentData(n.Data); err == nil {
			form.MaxIterations = &a.MaxIterations
		}
	}
	form.HasFields = HasSchemaFields(form.Schema)
	return form, true
}

// Export snapshots the canvas into an export payload.
func (e *Editor) Export() ExportPayload {
	return Export(e.ProjectName(), e.canvas.CanvasData(), e.now())
}

// Load replaces the canvas with a saved flow. Nodes already on the canvas
// with the same id keep their local position.
func (e *Editor) Load(f *Flow) {
	nodes, edges := f.Graph.Nodes, f.Graph.Edges
	if nodes == nil {
		nodes = []Node{}
	}
	if edges == nil {
		edges = []Edge{}
	}
	e.canvas.ReplaceFromExternal(nodes, edges, PruneLocal)
	e.Rename(f.Name)
	e.SetFlowID(f.ID)
}

// Snapshot turns the session into a Flow ready to be saved.
func (e *Editor) Snapshot() *Flow {
	return &Flow{
		ID:    e.FlowID(),
		Name:  e.ProjectName(),
		Graph: e.canvas.CanvasData(),
	}
}
