package render

import (
	"fmt"
	"html"
	"io"
	"strings"

	"github.com/ha1tch/qaflow/pkg/canvas"
	"github.com/ha1tch/qaflow/pkg/flow"
)

var roleClass = map[role]string{
	rolePlain:   "node",
	roleEntry:   "node node-entry",
	roleLeaf:    "node node-leaf",
	roleCurrent: "node node-current",
}

// SVG renders s as a standalone SVG document.
func SVG(s flow.Snapshot, opts Options) string {
	opts.normalize()
	f := fit(s, opts)
	m := opts.Metrics
	_, _, lineHeight := textLayout(opts)

	var sb strings.Builder

	fmt.Fprintf(&sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<defs>
  <marker id="arrowhead" markerWidth="10" markerHeight="7" refX="9" refY="3.5" orient="auto">
    <polygon points="0 0, 10 3.5, 0 7" fill="#666"/>
  </marker>
</defs>
<style>
  .node { fill: white; stroke: #333; stroke-width: 2; }
  .node-entry { fill: #e8f5e9; stroke: #2e7d32; }
  .node-leaf { fill: #fff3e0; stroke: #e65100; }
  .node-current { fill: #e3f2fd; stroke: #1565c0; stroke-width: 3; }
  .question { font-family: sans-serif; font-size: %dpx; fill: #333; }
  .option { fill: #f5f5f5; stroke: #999; stroke-width: 1; }
  .option-label { font-family: sans-serif; font-size: %dpx; fill: #333; dominant-baseline: middle; }
  .anchor { fill: #666; }
  .edge { fill: none; stroke: #666; stroke-width: 2; marker-end: url(#arrowhead); }
  .title { font-family: sans-serif; font-size: %dpx; font-weight: bold; text-anchor: middle; }
</style>
<rect width="%d" height="%d" fill="white"/>
`, f.width, f.height, f.width, f.height, opts.FontSize, opts.FontSize-1, opts.FontSize+4, f.width, f.height)

	if opts.Title != "" {
		fmt.Fprintf(&sb, `<text x="%d" y="%d" class="title">%s</text>
`, f.width/2, opts.FontSize*2, html.EscapeString(opts.Title))
	}

	// Edges first so cards cover their ends.
	for _, e := range canvas.Edges(s, m) {
		fmt.Fprintf(&sb, `<path d="%s" class="edge" data-option="%s"/>
`, f.curve(e.Curve).PathData(), html.EscapeString(string(e.Option)))
	}

	for _, n := range s.Nodes {
		r := m.NodeRect(n.X, n.Y, len(n.Options))
		o := f.point(canvas.Point{X: r.X, Y: r.Y})

		fmt.Fprintf(&sb, `<g id="%s">
<rect x="%.1f" y="%.1f" width="%.1f" height="%.1f" rx="8" class="%s"/>
`, html.EscapeString(string(n.ID)), o.X, o.Y, r.W, r.H, roleClass[nodeRole(s, n, opts.Highlight)])

		for i, line := range questionLines(n.Text, opts) {
			fmt.Fprintf(&sb, `<text x="%.1f" y="%.1f" class="question">%s</text>
`, o.X+16, o.Y+m.HeaderAnchor+float64(i)*lineHeight+float64(opts.FontSize)*0.35, html.EscapeString(line))
		}

		for i, opt := range n.Options {
			a := f.point(canvas.SourceAnchor(n, i, m))
			rowH := m.OptionStep - 10
			if rowH < float64(opts.FontSize) {
				rowH = float64(opts.FontSize)
			}
			fmt.Fprintf(&sb, `<rect x="%.1f" y="%.1f" width="%.1f" height="%.1f" rx="4" class="option"/>
<text x="%.1f" y="%.1f" class="option-label">%s</text>
<circle cx="%.1f" cy="%.1f" r="5" class="anchor"/>
`, o.X+12, a.Y-rowH/2, r.W-24, rowH,
				o.X+24, a.Y, html.EscapeString(optionLabel(opt.Text, opts)),
				a.X, a.Y)
		}
		sb.WriteString("</g>\n")
	}

	sb.WriteString("</svg>\n")
	return sb.String()
}

// WriteSVG renders s as SVG to w.
func WriteSVG(w io.Writer, s flow.Snapshot, opts Options) error {
	_, err := io.WriteString(w, SVG(s, opts))
	return err
}
