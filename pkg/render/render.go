// Package render draws a flow as an SVG document or a PNG image.
//
// Both renderers place node cards at their canvas positions and connect
// options to their targets with the edge curves from package canvas, so an
// exported image matches what the editor shows.
package render

import (
	"math"
	"strings"
	"unicode/utf8"

	"github.com/ha1tch/qaflow/pkg/canvas"
	"github.com/ha1tch/qaflow/pkg/flow"
)

// Options controls rendering.
type Options struct {
	Metrics   canvas.Metrics
	Width     int         // image width; 0 fits the content
	Height    int         // image height; 0 fits the content
	Padding   int         // margin around fitted content
	FontSize  int         // question and option text size
	Title     string      // drawn above the content when set
	Highlight flow.NodeID // node drawn as the one being presented
	Scale     int         // PNG supersampling factor (0 = 2)
}

// DefaultOptions returns options fitting the content with default metrics.
func DefaultOptions() Options {
	return Options{
		Metrics:  canvas.DefaultMetrics(),
		Padding:  40,
		FontSize: 14,
		Scale:    2,
	}
}

func (o *Options) normalize() {
	if o.Metrics.NodeWidth == 0 {
		o.Metrics = canvas.DefaultMetrics()
	}
	if o.FontSize == 0 {
		o.FontSize = 14
	}
	if o.Scale <= 0 {
		o.Scale = 2
	}
}

// frame is the drawing area and the translation from canvas coordinates.
type frame struct {
	width, height int
	offset        canvas.Point
}

// fit computes the image frame for s. With a fixed size the canvas origin
// is the image origin; otherwise the content is framed by the padding.
func fit(s flow.Snapshot, o Options) frame {
	titleBand := 0.0
	if o.Title != "" {
		titleBand = float64(o.FontSize) * 2.5
	}
	if o.Width > 0 && o.Height > 0 {
		return frame{width: o.Width, height: o.Height, offset: canvas.Point{Y: titleBand}}
	}

	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, n := range s.Nodes {
		r := o.Metrics.NodeRect(n.X, n.Y, len(n.Options))
		minX = math.Min(minX, r.X)
		minY = math.Min(minY, r.Y)
		maxX = math.Max(maxX, r.X+r.W)
		maxY = math.Max(maxY, r.Y+r.H)
	}
	if len(s.Nodes) == 0 {
		minX, minY, maxX, maxY = 0, 0, 0, 0
	}

	pad := float64(o.Padding)
	f := frame{
		width:  int(math.Ceil(maxX - minX + 2*pad)),
		height: int(math.Ceil(maxY - minY + 2*pad + titleBand)),
		offset: canvas.Point{X: pad - minX, Y: pad - minY + titleBand},
	}
	if o.Width > 0 {
		f.width = o.Width
	}
	if o.Height > 0 {
		f.height = o.Height
	}
	return f
}

func (f frame) point(p canvas.Point) canvas.Point {
	return p.Add(f.offset)
}

func (f frame) curve(c canvas.Curve) canvas.Curve {
	return canvas.Curve{
		P0: f.point(c.P0),
		P1: f.point(c.P1),
		P2: f.point(c.P2),
		P3: f.point(c.P3),
	}
}

// role classifies a node for styling.
type role int

const (
	rolePlain role = iota
	roleEntry
	roleLeaf
	roleCurrent
)

func nodeRole(s flow.Snapshot, n flow.Node, highlight flow.NodeID) role {
	switch {
	case highlight != "" && n.ID == highlight:
		return roleCurrent
	case len(s.Nodes) > 0 && s.Nodes[0].ID == n.ID:
		return roleEntry
	case n.IsLeaf():
		return roleLeaf
	}
	return rolePlain
}

// wrap breaks text into lines of at most width runes, splitting on spaces.
// Words longer than width are cut.
func wrap(text string, width int) []string {
	if width < 1 {
		width = 1
	}
	var lines []string
	var line strings.Builder
	for _, word := range strings.Fields(text) {
		for utf8.RuneCountInString(word) > width {
			if line.Len() > 0 {
				lines = append(lines, line.String())
				line.Reset()
			}
			r := []rune(word)
			lines = append(lines, string(r[:width]))
			word = string(r[width:])
		}
		switch {
		case line.Len() == 0:
			line.WriteString(word)
		case utf8.RuneCountInString(line.String())+1+utf8.RuneCountInString(word) <= width:
			line.WriteByte(' ')
			line.WriteString(word)
		default:
			lines = append(lines, line.String())
			line.Reset()
			line.WriteString(word)
		}
	}
	if line.Len() > 0 {
		lines = append(lines, line.String())
	}
	return lines
}

// textLayout decides how question text fits on a card: the characters per
// line and the number of lines between the header and the first option.
func textLayout(o Options) (perLine, maxLines int, lineHeight float64) {
	lineHeight = float64(o.FontSize) * 1.4
	perLine = int((o.Metrics.NodeWidth - 32) / (float64(o.FontSize) * 0.6))
	if perLine < 2 {
		perLine = 2
	}
	maxLines = int((o.Metrics.OptionAnchor - o.Metrics.HeaderAnchor - lineHeight) / lineHeight)
	if maxLines < 1 {
		maxLines = 1
	}
	return perLine, maxLines, lineHeight
}

// questionLines wraps and truncates a question to fit its card.
func questionLines(text string, o Options) []string {
	perLine, maxLines, _ := textLayout(o)
	lines := wrap(text, perLine)
	if len(lines) > maxLines {
		lines = lines[:maxLines]
		last := []rune(lines[maxLines-1])
		if len(last) >= perLine {
			last = last[:perLine-1]
		}
		lines[maxLines-1] = string(last) + "…"
	}
	return lines
}

// optionLabel fits an option label on one line.
func optionLabel(text string, o Options) string {
	perLine, _, _ := textLayout(o)
	r := []rune(text)
	if len(r) > perLine {
		return string(r[:perLine-1]) + "…"
	}
	return text
}
