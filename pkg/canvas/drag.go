package canvas

import "github.com/ha1tch/qaflow/pkg/flow"

// Mover reads node positions and writes them back. *flow.Store satisfies it.
type Mover interface {
	Node(id flow.NodeID) (flow.Node, bool)
	MoveNode(id flow.NodeID, x, y float64)
}

// Drag is the context captured when a drag begins. It does not change
// while the drag lasts.
type Drag struct {
	Node   flow.NodeID `json:"node"`
	Offset Point       `json:"offset"` // pointer minus node origin at drag start
}

// Dragger turns a begin/move/end pointer sequence into clamped node moves.
// Only the dragged node is ever moved.
type Dragger struct {
	nodes   Mover
	metrics Metrics
	bounds  Size
	drag    *Drag
}

// NewDragger creates a dragger over nodes, clamping to bounds.
func NewDragger(nodes Mover, metrics Metrics, bounds Size) *Dragger {
	return &Dragger{nodes: nodes, metrics: metrics, bounds: bounds}
}

// SetBounds changes the visible canvas size, e.g. after a resize.
func (d *Dragger) SetBounds(bounds Size) {
	d.bounds = bounds
}

// Bounds returns the visible canvas size.
func (d *Dragger) Bounds() Size {
	return d.bounds
}

// Metrics returns the card metrics used for clamping.
func (d *Dragger) Metrics() Metrics {
	return d.metrics
}

// Begin starts dragging the node under pointer. It returns false, leaving
// any drag in progress untouched, when the node does not exist.
func (d *Dragger) Begin(id flow.NodeID, pointer Point) bool {
	n, ok := d.nodes.Node(id)
	if !ok {
		return false
	}
	d.drag = &Drag{
		Node:   id,
		Offset: pointer.Sub(Point{n.X, n.Y}),
	}
	return true
}

// Move places the dragged node at pointer minus the captured offset,
// clamped so the whole card stays on the canvas, and returns the new
// position. It returns false when no drag is active or the node is gone.
func (d *Dragger) Move(pointer Point) (Point, bool) {
	if d.drag == nil {
		return Point{}, false
	}
	n, ok := d.nodes.Node(d.drag.Node)
	if !ok {
		d.drag = nil
		return Point{}, false
	}
	box := d.metrics.NodeSize(len(n.Options))
	p := Clamp(pointer.Sub(d.drag.Offset), box, d.bounds)
	d.nodes.MoveNode(n.ID, p.X, p.Y)
	return p, true
}

// End finishes the drag.
func (d *Dragger) End() {
	d.drag = nil
}

// Active returns the drag in progress.
func (d *Dragger) Active() (Drag, bool) {
	if d.drag == nil {
		return Drag{}, false
	}
	return *d.drag, true
}
