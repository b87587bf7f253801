// Package flow provides the question/answer flow graph: its nodes and
// options, the store that edits them, and the runner that presents them.
package flow

import (
	"fmt"
	"strings"
)

// NodeID identifies a node. It is assigned at creation and never changes.
type NodeID string

// OptionID identifies an option across the whole flow.
type OptionID string

// Option is a labelled answer leading from its owning node to Target.
// Target is a weak reference: it may name a node that no longer exists,
// in which case selecting the option ends the run in a dead end.
type Option struct {
	ID     OptionID `json:"id"`
	Text   string   `json:"text"`
	Target NodeID   `json:"targetNodeId"`
}

// Node is a question on the canvas. Options are kept in display order.
type Node struct {
	ID      NodeID   `json:"id"`
	X       float64  `json:"x"`
	Y       float64  `json:"y"`
	Text    string   `json:"text"`
	Options []Option `json:"options"`
}

// Option returns the option with the given id and its index, or -1.
func (n *Node) Option(id OptionID) (Option, int) {
	for i, o := range n.Options {
		if o.ID == id {
			return o, i
		}
	}
	return Option{}, -1
}

// IsLeaf reports whether the node has no options.
func (n *Node) IsLeaf() bool {
	return len(n.Options) == 0
}

func (n Node) clone() Node {
	c := n
	c.Options = make([]Option, len(n.Options))
	copy(c.Options, n.Options)
	return c
}

// Snapshot is a read-only copy of the flow in node creation order.
// Modifying a snapshot never affects the store it came from.
type Snapshot struct {
	Nodes []Node `json:"nodes"`
}

// Len returns the number of nodes.
func (s Snapshot) Len() int {
	return len(s.Nodes)
}

// Node returns the node with the given id.
func (s Snapshot) Node(id NodeID) (Node, bool) {
	for _, n := range s.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return Node{}, false
}

// Has reports whether a node with the given id exists.
func (s Snapshot) Has(id NodeID) bool {
	_, ok := s.Node(id)
	return ok
}

// Option finds an option anywhere in the flow and returns it with its owner.
func (s Snapshot) Option(id OptionID) (Option, NodeID, bool) {
	for _, n := range s.Nodes {
		if o, i := n.Option(id); i >= 0 {
			return o, n.ID, true
		}
	}
	return Option{}, "", false
}

// IDs returns the node ids in creation order.
func (s Snapshot) IDs() []NodeID {
	ids := make([]NodeID, len(s.Nodes))
	for i, n := range s.Nodes {
		ids[i] = n.ID
	}
	return ids
}

// String returns a short human-readable outline of the flow.
func (s Snapshot) String() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Flow: %d nodes\n", len(s.Nodes)))
	for _, n := range s.Nodes {
		sb.WriteString(fmt.Sprintf("  %s %q\n", n.ID, n.Text))
		for _, o := range n.Options {
			arrow := "->"
			if !s.Has(o.Target) {
				arrow = "-x"
			}
			sb.WriteString(fmt.Sprintf("    %s %q %s %s\n", o.ID, o.Text, arrow, o.Target))
		}
	}
	return sb.String()
}
