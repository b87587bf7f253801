package flow

import (
	"fmt"

	"go.uber.org/zap"
)

// Graph is the read access a Runner needs. Store and Snapshot satisfy it.
type Graph interface {
	Node(id NodeID) (Node, bool)
	First() (NodeID, bool)
}

// First returns the first node of the snapshot.
func (s Snapshot) First() (NodeID, bool) {
	if len(s.Nodes) == 0 {
		return "", false
	}
	return s.Nodes[0].ID, true
}

// State is the presentation state of a Runner.
type State int

const (
	StateInactive State = iota // not presenting
	StateActive                // showing a node
	StateDeadEnd               // chosen option led nowhere
)

func (s State) String() string {
	switch s {
	case StateInactive:
		return "inactive"
	case StateActive:
		return "active"
	case StateDeadEnd:
		return "dead-end"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Status describes where a run currently is. Node is set only when active.
// Leaf marks an active node without options: the end of its branch, shown
// in place with an exit affordance rather than as a transition.
type Status struct {
	State State  `json:"-"`
	Node  NodeID `json:"node,omitempty"`
	Leaf  bool   `json:"leaf"`
}

// Runner walks a flow one question at a time, starting from an entry node.
// Only the current and entry node ids are carried between steps.
type Runner struct {
	graph   Graph
	state   State
	current NodeID
	entry   NodeID
	log     *zap.Logger
}

// NewRunner creates an inactive runner over the given graph.
func NewRunner(g Graph, log *zap.Logger) *Runner {
	if log == nil {
		log = zap.NewNop()
	}
	return &Runner{graph: g, log: log}
}

// Start begins a run at entry, or at the graph's first node when no entry is
// given. It fails with ErrEmptyFlow when there is nothing to run and with
// ErrNodeNotFound when the given entry does not exist.
func (r *Runner) Start(entry ...NodeID) error {
	var id NodeID
	if len(entry) > 0 && entry[0] != "" {
		id = entry[0]
		if _, ok := r.graph.Node(id); !ok {
			return fmt.Errorf("run entry %s: %w", id, ErrNodeNotFound)
		}
	} else {
		first, ok := r.graph.First()
		if !ok {
			r.log.Warn("run refused", zap.Error(ErrEmptyFlow))
			return ErrEmptyFlow
		}
		id = first
	}

	r.entry = id
	r.current = id
	r.state = StateActive
	r.log.Debug("run started", zap.String("node", string(id)))
	return nil
}

// Select follows an option of the current node. A resolvable target becomes
// the current node; an unresolvable one ends the run in a dead end. Options
// that do not belong to the current node, or selecting while not active,
// change nothing.
func (r *Runner) Select(id OptionID) Status {
	if r.state != StateActive {
		return r.Status()
	}
	n, ok := r.graph.Node(r.current)
	if !ok {
		r.deadEnd()
		return r.Status()
	}
	opt, i := n.Option(id)
	if i < 0 {
		return r.Status()
	}

	if _, ok := r.graph.Node(opt.Target); ok {
		r.log.Debug("run advanced",
			zap.String("from", string(r.current)),
			zap.String("option", string(id)),
			zap.String("to", string(opt.Target)),
		)
		r.current = opt.Target
	} else {
		r.log.Debug("run reached dead end", zap.String("option", string(id)))
		r.deadEnd()
	}
	return r.Status()
}

func (r *Runner) deadEnd() {
	r.state = StateDeadEnd
	r.current = ""
}

// Restart returns a started run to its entry node.
func (r *Runner) Restart() Status {
	if r.state == StateInactive {
		return r.Status()
	}
	if _, ok := r.graph.Node(r.entry); ok {
		r.state = StateActive
		r.current = r.entry
	} else {
		r.deadEnd()
	}
	return r.Status()
}

// Exit ends the run from any state and discards its progress.
func (r *Runner) Exit() {
	r.state = StateInactive
	r.current = ""
	r.entry = ""
}

// Status reports the current state. A current node that has disappeared
// from the graph reads as a dead end.
func (r *Runner) Status() Status {
	if r.state != StateActive {
		return Status{State: r.state}
	}
	n, ok := r.graph.Node(r.current)
	if !ok {
		r.deadEnd()
		return Status{State: r.state}
	}
	return Status{State: StateActive, Node: n.ID, Leaf: n.IsLeaf()}
}

// Current returns the node being shown.
func (r *Runner) Current() (Node, bool) {
	if r.state != StateActive {
		return Node{}, false
	}
	return r.graph.Node(r.current)
}

// Running reports whether a run is in progress, dead end included.
func (r *Runner) Running() bool {
	return r.state != StateInactive
}
