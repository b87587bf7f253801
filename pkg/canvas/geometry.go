// Package canvas holds the coordinate math behind the flow editor:
// node boxes, drag clamping and the curves drawn between options and the
// nodes they lead to.
package canvas

import "math"

// Point represents a 2D coordinate in canvas space.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Add returns p + q.
func (p Point) Add(q Point) Point {
	return Point{p.X + q.X, p.Y + q.Y}
}

// Sub returns p - q.
func (p Point) Sub(q Point) Point {
	return Point{p.X - q.X, p.Y - q.Y}
}

// Size is a width and height.
type Size struct {
	W, H float64
}

// Rect is an axis-aligned rectangle anchored at its top-left corner.
type Rect struct {
	X, Y float64
	W, H float64
}

// Contains reports whether p lies inside the rectangle, edges included.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.X && p.X <= r.X+r.W &&
		p.Y >= r.Y && p.Y <= r.Y+r.H
}

// Metrics describes how big a node card is and where its anchors sit.
// Node height is estimated from the option count rather than measured.
type Metrics struct {
	NodeWidth    float64 // card width
	BaseHeight   float64 // card height with no options
	OptionHeight float64 // height added per option

	HeaderAnchor float64 // y offset of the incoming edge anchor on the left edge
	OptionAnchor float64 // y offset of the first option's outgoing anchor
	OptionStep   float64 // y distance between consecutive option anchors
}

// DefaultMetrics returns pixel metrics for a 16rem card.
func DefaultMetrics() Metrics {
	return Metrics{
		NodeWidth:    256,
		BaseHeight:   250,
		OptionHeight: 44,
		HeaderAnchor: 21,
		OptionAnchor: 215,
		OptionStep:   46,
	}
}

// CellMetrics returns metrics in terminal cells, for the TUI editor.
func CellMetrics() Metrics {
	return Metrics{
		NodeWidth:    26,
		BaseHeight:   4,
		OptionHeight: 1,
		HeaderAnchor: 1,
		OptionAnchor: 3,
		OptionStep:   1,
	}
}

// NodeSize returns the card size for a node with the given option count.
func (m Metrics) NodeSize(options int) Size {
	return Size{W: m.NodeWidth, H: m.BaseHeight + float64(options)*m.OptionHeight}
}

// NodeRect returns the card rectangle for a node at (x, y).
func (m Metrics) NodeRect(x, y float64, options int) Rect {
	sz := m.NodeSize(options)
	return Rect{X: x, Y: y, W: sz.W, H: sz.H}
}

// Clamp keeps a box of the given size fully inside bounds by limiting its
// top-left corner to [0, bounds-size] on each axis. When the box is larger
// than the bounds the corner pins to 0.
func Clamp(p Point, box, bounds Size) Point {
	return Point{
		X: math.Max(0, math.Min(p.X, bounds.W-box.W)),
		Y: math.Max(0, math.Min(p.Y, bounds.H-box.H)),
	}
}
