package render

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"math"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"

	"github.com/ha1tch/qaflow/pkg/canvas"
	"github.com/ha1tch/qaflow/pkg/flow"
)

// Colours match the SVG stylesheet.
var (
	colorWhite      = color.RGBA{255, 255, 255, 255}
	colorText       = color.RGBA{51, 51, 51, 255}    // #333
	colorEdge       = color.RGBA{102, 102, 102, 255} // #666
	colorOption     = color.RGBA{245, 245, 245, 255} // #f5f5f5
	colorOptionBdr  = color.RGBA{153, 153, 153, 255} // #999
	colorEntry      = color.RGBA{232, 245, 233, 255} // #e8f5e9
	colorEntryBdr   = color.RGBA{46, 125, 50, 255}   // #2e7d32
	colorLeaf       = color.RGBA{255, 243, 224, 255} // #fff3e0
	colorLeafBdr    = color.RGBA{230, 81, 0, 255}    // #e65100
	colorCurrent    = color.RGBA{227, 242, 253, 255} // #e3f2fd
	colorCurrentBdr = color.RGBA{21, 101, 192, 255}  // #1565c0
)

var roleColors = map[role][2]color.RGBA{
	rolePlain:   {colorWhite, colorText},
	roleEntry:   {colorEntry, colorEntryBdr},
	roleLeaf:    {colorLeaf, colorLeafBdr},
	roleCurrent: {colorCurrent, colorCurrentBdr},
}

// renderContext holds the large image being drawn and its scale.
type renderContext struct {
	img       *image.RGBA
	frame     frame
	scale     float64
	lineWidth float64
	face      font.Face
	titleFace font.Face
}

func newRenderContext(f frame, opts Options) (*renderContext, error) {
	fnt, err := opentype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("parse font: %w", err)
	}
	scale := float64(opts.Scale)

	// No hinting: the image is supersampled instead.
	face, err := opentype.NewFace(fnt, &opentype.FaceOptions{
		Size:    float64(opts.FontSize) * scale,
		DPI:     72,
		Hinting: font.HintingNone,
	})
	if err != nil {
		return nil, fmt.Errorf("font face: %w", err)
	}
	titleFace, err := opentype.NewFace(fnt, &opentype.FaceOptions{
		Size:    float64(opts.FontSize+4) * scale,
		DPI:     72,
		Hinting: font.HintingNone,
	})
	if err != nil {
		return nil, fmt.Errorf("font face: %w", err)
	}

	img := image.NewRGBA(image.Rect(0, 0, f.width*opts.Scale, f.height*opts.Scale))
	draw.Draw(img, img.Bounds(), image.NewUniform(colorWhite), image.Point{}, draw.Src)

	return &renderContext{
		img:       img,
		frame:     f,
		scale:     scale,
		lineWidth: 2 * scale,
		face:      face,
		titleFace: titleFace,
	}, nil
}

// px converts a canvas point to large-image pixels.
func (ctx *renderContext) px(p canvas.Point) canvas.Point {
	p = ctx.frame.point(p)
	return canvas.Point{X: p.X * ctx.scale, Y: p.Y * ctx.scale}
}

// PNG renders s as a PNG image to w, drawing at Options.Scale times the
// final size and downsampling for smooth edges and text.
func PNG(w io.Writer, s flow.Snapshot, opts Options) error {
	opts.normalize()
	f := fit(s, opts)

	ctx, err := newRenderContext(f, opts)
	if err != nil {
		return err
	}
	ctx.draw(s, opts)

	final := image.NewRGBA(image.Rect(0, 0, f.width, f.height))
	draw.CatmullRom.Scale(final, final.Bounds(), ctx.img, ctx.img.Bounds(), draw.Over, nil)
	return png.Encode(w, final)
}

func (ctx *renderContext) draw(s flow.Snapshot, opts Options) {
	m := opts.Metrics
	_, _, lineHeight := textLayout(opts)

	if opts.Title != "" {
		w := font.MeasureString(ctx.titleFace, opts.Title).Ceil()
		drawText(ctx.img, ctx.titleFace, (int(float64(ctx.frame.width)*ctx.scale)-w)/2,
			int(float64(opts.FontSize*2)*ctx.scale), opts.Title, colorText)
	}

	for _, e := range canvas.Edges(s, m) {
		ctx.drawEdge(e.Curve)
	}

	for _, n := range s.Nodes {
		r := m.NodeRect(n.X, n.Y, len(n.Options))
		tl := ctx.px(canvas.Point{X: r.X, Y: r.Y})
		w, h := r.W*ctx.scale, r.H*ctx.scale
		c := roleColors[nodeRole(s, n, opts.Highlight)]
		ctx.fillRect(tl.X, tl.Y, w, h, c[0])
		ctx.strokeRect(tl.X, tl.Y, w, h, c[1])

		for i, line := range questionLines(n.Text, opts) {
			p := ctx.px(canvas.Point{
				X: r.X + 16,
				Y: r.Y + m.HeaderAnchor + float64(i)*lineHeight + float64(opts.FontSize)*0.35,
			})
			drawText(ctx.img, ctx.face, int(p.X), int(p.Y), line, colorText)
		}

		rowH := math.Max(m.OptionStep-10, float64(opts.FontSize))
		for i, opt := range n.Options {
			a := canvas.SourceAnchor(n, i, m)
			row := ctx.px(canvas.Point{X: r.X + 12, Y: a.Y - rowH/2})
			ctx.fillRect(row.X, row.Y, (r.W-24)*ctx.scale, rowH*ctx.scale, colorOption)
			ctx.strokeRect(row.X, row.Y, (r.W-24)*ctx.scale, rowH*ctx.scale, colorOptionBdr)

			label := ctx.px(canvas.Point{X: r.X + 24, Y: a.Y + float64(opts.FontSize)*0.35})
			drawText(ctx.img, ctx.face, int(label.X), int(label.Y), optionLabel(opt.Text, opts), colorText)

			dot := ctx.px(a)
			ctx.fillCircle(dot.X, dot.Y, 5*ctx.scale, colorEdge)
		}
	}
}

// drawEdge draws a curve as a polyline and an arrowhead along its end
// tangent.
func (ctx *renderContext) drawEdge(c canvas.Curve) {
	pts := c.Sample(64)
	for i := 1; i < len(pts); i++ {
		a, b := ctx.px(pts[i-1]), ctx.px(pts[i])
		drawLine(ctx, a.X, a.Y, b.X, b.Y, colorEdge)
	}

	tip := ctx.px(c.P3)
	dir := c.Tangent(1)
	dist := math.Hypot(dir.X, dir.Y)
	if dist < 1e-9 {
		return
	}
	nx, ny := dir.X/dist, dir.Y/dist
	arrowLen := 8.0 * ctx.scale
	arrowWidth := 4.0 * ctx.scale

	ax1 := tip.X - nx*arrowLen + ny*arrowWidth
	ay1 := tip.Y - ny*arrowLen - nx*arrowWidth
	ax2 := tip.X - nx*arrowLen - ny*arrowWidth
	ay2 := tip.Y - ny*arrowLen + nx*arrowWidth
	for t := 0.0; t <= 1.0; t += 0.05 {
		drawLine(ctx, tip.X, tip.Y, ax1+(ax2-ax1)*t, ay1+(ay2-ay1)*t, colorEdge)
	}
}

func (ctx *renderContext) fillRect(x, y, w, h float64, c color.Color) {
	r := image.Rect(int(x), int(y), int(x+w), int(y+h))
	draw.Draw(ctx.img, r, image.NewUniform(c), image.Point{}, draw.Src)
}

func (ctx *renderContext) strokeRect(x, y, w, h float64, c color.Color) {
	drawLine(ctx, x, y, x+w, y, c)
	drawLine(ctx, x+w, y, x+w, y+h, c)
	drawLine(ctx, x+w, y+h, x, y+h, c)
	drawLine(ctx, x, y+h, x, y, c)
}

func (ctx *renderContext) fillCircle(cx, cy, r float64, c color.Color) {
	for dy := -r; dy <= r; dy++ {
		dx := math.Sqrt(r*r - dy*dy)
		for x := cx - dx; x <= cx+dx; x++ {
			ctx.img.Set(int(x), int(cy+dy), c)
		}
	}
}

// drawLine draws a line with the context's thickness.
func drawLine(ctx *renderContext, x1, y1, x2, y2 float64, c color.Color) {
	dx := x2 - x1
	dy := y2 - y1
	half := ctx.lineWidth / 2

	dist := math.Hypot(dx, dy)
	if dist < 1 {
		for ty := -half; ty <= half; ty++ {
			for tx := -half; tx <= half; tx++ {
				ctx.img.Set(int(x1+tx), int(y1+ty), c)
			}
		}
		return
	}

	perpX := -dy / dist
	perpY := dx / dist
	steps := math.Max(math.Abs(dx), math.Abs(dy))
	for i := 0.0; i <= steps; i++ {
		t := i / steps
		cx := x1 + dx*t
		cy := y1 + dy*t
		for off := -half; off <= half; off += 0.5 {
			ctx.img.Set(int(cx+perpX*off), int(cy+perpY*off), c)
		}
	}
}

// drawText draws text with its baseline starting at (x, y).
func drawText(img *image.RGBA, face font.Face, x, y int, text string, c color.Color) {
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(c),
		Face: face,
		Dot:  fixed.Point26_6{X: fixed.I(x), Y: fixed.I(y)},
	}
	d.DrawString(text)
}
