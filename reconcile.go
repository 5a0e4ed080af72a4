package chatflow

import "fmt"

// MergePolicy decides what happens to local nodes missing from an
// incoming node list.
type MergePolicy int

const (
	// PruneLocal drops local-only nodes: the incoming list defines membership.
	PruneLocal MergePolicy = iota
	// KeepLocal appends local-only nodes after the incoming ones.
	KeepLocal
)

// SkippedNode is an incoming node that could not be placed on a canvas.
type SkippedNode struct {
	Node   Node
	Reason string
}

// CleanNodes filters an externally supplied node list down to nodes a
// canvas can hold. Nodes with an empty id or an unregistered type are
// skipped, and so is every repeat of an id after its first occurrence.
func CleanNodes(nodes []Node) (kept []Node, skipped []SkippedNode) {
	kept = make([]Node, 0, len(nodes))
	seen := make(map[string]bool, len(nodes))
	for _, n := range nodes {
		switch {
		case n.ID == "":
			skipped = append(skipped, SkippedNode{Node: n, Reason: "empty id"})
		case seen[n.ID]:
			skipped = append(skipped, SkippedNode{Node: n, Reason: "duplicate id"})
		default:
			if _, err := LookupKind(n.Type); err != nil {
				skipped = append(skipped, SkippedNode{Node: n, Reason: fmt.Sprintf("unknown type %q", n.Type)})
				continue
			}
			seen[n.ID] = true
			kept = append(kept, n)
		}
	}
	return kept, skipped
}

// Reconcile merges an externally supplied node list into the local working
// copy. Nodes are matched by id; a matched node keeps its local position
// and its local data is merged over the incoming data, so an in-flight
// drag or an unsaved edit is not reverted. Unmatched incoming nodes are
// taken as-is. The result follows the incoming order. Incoming nodes
// rejected by CleanNodes are left out.
func Reconcile(local, incoming []Node, policy MergePolicy) []Node {
	incoming, _ = CleanNodes(incoming)

	byID := make(map[string]Node, len(local))
	for _, n := range local {
		byID[n.ID] = n
	}

	out := make([]Node, 0, len(incoming))
	seen := make(map[string]bool, len(incoming))
	for _, in := range incoming {
		seen[in.ID] = true
		cur, ok := byID[in.ID]
		if !ok {
			out = append(out, in.Clone())
			continue
		}
		merged := in.Clone()
		merged.Type = cur.Type
		merged.Position = cur.Position
		merged.Data = mergeData(merged.Data, cloneMap(cur.Data))
		out = append(out, merged)
	}

	if policy == KeepLocal {
		for _, n := range local {
			if !seen[n.ID] {
				out = append(out, n.Clone())
			}
		}
	}
	return out
}
