package canvas

import (
	"fmt"
	"strconv"

	"github.com/ha1tch/qaflow/pkg/flow"
)

// Curve is a cubic Bézier segment: P0 start, P1 and P2 control, P3 end.
type Curve struct {
	P0 Point `json:"p0"`
	P1 Point `json:"p1"`
	P2 Point `json:"p2"`
	P3 Point `json:"p3"`
}

// EdgeCurve returns the horizontal S-curve from src to dst. Both control
// points sit at the horizontal midpoint, pinned to the source and target
// heights respectively, so the curve leaves and enters horizontally.
func EdgeCurve(src, dst Point) Curve {
	midX := src.X + (dst.X-src.X)/2
	return Curve{
		P0: src,
		P1: Point{midX, src.Y},
		P2: Point{midX, dst.Y},
		P3: dst,
	}
}

// SourceAnchor is where the edge of the option at index leaves node n:
// the card's right edge, one option step lower per preceding option.
func SourceAnchor(n flow.Node, index int, m Metrics) Point {
	return Point{
		X: n.X + m.NodeWidth,
		Y: n.Y + m.OptionAnchor + float64(index)*m.OptionStep,
	}
}

// TargetAnchor is where edges enter node n: its left edge, level with the
// header.
func TargetAnchor(n flow.Node, m Metrics) Point {
	return Point{X: n.X, Y: n.Y + m.HeaderAnchor}
}

// At evaluates the curve at t ∈ [0,1].
func (c Curve) At(t float64) Point {
	mt := 1 - t
	mt2 := mt * mt
	mt3 := mt2 * mt
	t2 := t * t
	t3 := t2 * t

	return Point{
		X: mt3*c.P0.X + 3*mt2*t*c.P1.X + 3*mt*t2*c.P2.X + t3*c.P3.X,
		Y: mt3*c.P0.Y + 3*mt2*t*c.P1.Y + 3*mt*t2*c.P2.Y + t3*c.P3.Y,
	}
}

// Tangent returns the derivative of the curve at t.
func (c Curve) Tangent(t float64) Point {
	mt := 1 - t
	mt2 := mt * mt
	t2 := t * t

	return Point{
		X: 3*mt2*(c.P1.X-c.P0.X) + 6*mt*t*(c.P2.X-c.P1.X) + 3*t2*(c.P3.X-c.P2.X),
		Y: 3*mt2*(c.P1.Y-c.P0.Y) + 6*mt*t*(c.P2.Y-c.P1.Y) + 3*t2*(c.P3.Y-c.P2.Y),
	}
}

// Sample returns n+1 evenly spaced points along the curve, ends included.
func (c Curve) Sample(n int) []Point {
	if n < 1 {
		n = 1
	}
	pts := make([]Point, n+1)
	for i := 0; i <= n; i++ {
		pts[i] = c.At(float64(i) / float64(n))
	}
	return pts
}

// PathData returns the curve as an SVG path "M x,y C x1,y1 x2,y2 x,y".
func (c Curve) PathData() string {
	return fmt.Sprintf("M %s,%s C %s,%s %s,%s %s,%s",
		num(c.P0.X), num(c.P0.Y),
		num(c.P1.X), num(c.P1.Y),
		num(c.P2.X), num(c.P2.Y),
		num(c.P3.X), num(c.P3.Y))
}

func num(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// Edge is the drawable connection for one option.
type Edge struct {
	Option flow.OptionID `json:"option"`
	From   flow.NodeID   `json:"from"`
	To     flow.NodeID   `json:"to"`
	Index  int           `json:"index"`
	Curve  Curve         `json:"curve"`
}

// Edges computes a curve for every option whose target exists. Options
// with unresolved targets have nothing to connect to and are skipped.
func Edges(s flow.Snapshot, m Metrics) []Edge {
	index := make(map[flow.NodeID]flow.Node, len(s.Nodes))
	for _, n := range s.Nodes {
		index[n.ID] = n
	}

	edges := make([]Edge, 0)
	for _, src := range s.Nodes {
		for i, o := range src.Options {
			dst, ok := index[o.Target]
			if !ok {
				continue
			}
			edges = append(edges, Edge{
				Option: o.ID,
				From:   src.ID,
				To:     dst.ID,
				Index:  i,
				Curve:  EdgeCurve(SourceAnchor(src, i, m), TargetAnchor(dst, m)),
			})
		}
	}
	return edges
}
