// Package chatflow is the graph model behind the chatflow editor: the
// canvas nodes and edges, the rules for wiring them, and the export
// document handed back to the browser.
package chatflow

import "maps"

// Position is a point in canvas space.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Size is a width/height pair, used for node footprints.
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Node is a single agent or tool placed on the canvas.
// ID and Type never change after the node is created.
type Node struct {
	ID       string         `json:"id"`
	Type     string         `json:"type"`
	Position Position       `json:"position"`
	Data     map[string]any `json:"data"`
}

// Edge is a directed connection from a source handle to a target handle.
type Edge struct {
	ID           string `json:"id"`
	Source       string `json:"source"`
	Target       string `json:"target"`
	SourceHandle string `json:"sourceHandle,omitempty"`
	TargetHandle string `json:"targetHandle,omitempty"`
	Animated     bool   `json:"animated,omitempty"`
}

// Graph is the canvas content. Node order is z-order: later nodes render on top.
type Graph struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// Template describes a node kind as the palette hands it over, either by
// click or as a drag payload.
type Template struct {
	Type        string
	Name        string
	Description string
	// Extra holds every other palette field (toolId, toolParameters, category, ...).
	Extra map[string]any
}

// Clone returns a deep copy of n so callers can't reach into canvas state.
func (n Node) Clone() Node {
	n.Data = cloneMap(n.Data)
	return n
}

// Clone returns a deep copy of g.
func (g Graph) Clone() Graph {
	out := Graph{
		Nodes: make([]Node, len(g.Nodes)),
		Edges: make([]Edge, len(g.Edges)),
	}
	for i, n := range g.Nodes {
		out.Nodes[i] = n.Clone()
	}
	copy(out.Edges, g.Edges)
	return out
}

func cloneMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return cloneMap(t)
	case []any:
		s := make([]any, len(t))
		for i, e := range t {
			s[i] = cloneValue(e)
		}
		return s
	default:
		return v
	}
}

// mergeData shallow-merges over into base, returning a new map.
func mergeData(base, over map[string]any) map[string]any {
	out := make(map[string]any, len(base)+len(over))
	maps.Copy(out, base)
	maps.Copy(out, over)
	return out
}
