// Package svgrender draws charts as SVG documents.
package svgrender

import (
	"fmt"
	"html"
	"image/color"
	"io"
	"math"
	"strings"

	svg "github.com/ajstarks/svgo"

	"git.sr.ht/~whereswaldon/plotwise/chart"
	"git.sr.ht/~whereswaldon/plotwise/scene"
	"git.sr.ht/~whereswaldon/plotwise/series"
)

// Options tune the document around the plot.
type Options struct {
	Title    string
	FontSize float64
	// Background fills the whole document. The zero value leaves it
	// transparent.
	Background color.NRGBA
}

const clipID = "plot-area"

// errWriter keeps the first write error, which svgo drops.
type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) Write(b []byte) (int, error) {
	if e.err != nil {
		return 0, e.err
	}
	n, err := e.w.Write(b)
	e.err = err
	return n, err
}

func r(v float64) int { return int(math.Round(v)) }

// Render writes the current nodes and axes of c. Call c.Update first.
func Render(w io.Writer, c *chart.Chart, opts Options) error {
	if opts.FontSize <= 0 {
		opts.FontSize = 11
	}
	ew := &errWriter{w: w}
	width, height := c.Size()
	canvas := svg.New(ew)
	canvas.Start(r(width), r(height), fmt.Sprintf(`font-size="%.6gpx" font-family="Roboto,&quot;Helvetica Neue&quot;,Helvetica,Arial,sans-serif"`, opts.FontSize))
	if opts.Title != "" {
		canvas.Title(opts.Title)
	}
	if opts.Background.A > 0 {
		canvas.Rect(0, 0, r(width), r(height), "fill:"+hex(opts.Background))
	}

	x, y, pw, ph := c.PlotArea()
	xAxis, yAxis := c.Axis(series.X), c.Axis(series.Y)
	xTicks, yTicks := xAxis.TickMarks(), yAxis.TickMarks()
	renderGrid(canvas, xTicks, yTicks, x, y, pw, ph)

	canvas.ClipPath(`id="` + clipID + `"`)
	canvas.Rect(0, 0, r(pw), r(ph))
	canvas.ClipEnd()
	canvas.Group(fmt.Sprintf(`transform="translate(%d,%d)"`, r(x), r(y)), `clip-path="url(#`+clipID+`)"`)
	for _, g := range c.Groups() {
		canvas.Group(`class="` + html.EscapeString(g.Name) + `"`)
		for _, n := range g.Nodes {
			renderNode(canvas, n)
		}
		canvas.Gend()
	}
	canvas.Gend()

	renderAxes(canvas, xTicks, yTicks, x, y, pw, ph)
	canvas.End()
	return ew.err
}

func renderGrid(canvas *svg.SVG, xTicks, yTicks []chart.Tick, x, y, w, h float64) {
	var path []string
	for _, t := range xTicks {
		path = append(path, fmt.Sprintf("M%d %dv%d", r(x+t.Position), r(y), r(h)))
	}
	for _, t := range yTicks {
		path = append(path, fmt.Sprintf("M%d %dh%d", r(x), r(y+t.Position), r(w)))
	}
	if len(path) > 0 {
		canvas.Path(strings.Join(path, ""), "stroke:#e4e4e4; stroke-width:1; fill:none")
	}
}

func renderAxes(canvas *svg.SVG, xTicks, yTicks []chart.Tick, x, y, w, h float64) {
	x0, y0, x1, y1 := r(x), r(y), r(x+w), r(y+h)
	canvas.Path(fmt.Sprintf("M%d %dV%dH%d", x0, y0, y1, x1), "stroke:#888; fill:none; stroke-width:1")
	for _, t := range xTicks {
		tx := r(x + t.Position)
		canvas.Line(tx, y1, tx, y1+4, "stroke:#888")
		canvas.Text(tx, y1+6, t.Label, `text-anchor="middle" dy="1em" fill="#666"`)
	}
	for _, t := range yTicks {
		ty := r(y + t.Position)
		canvas.Line(x0-4, ty, x0, ty, "stroke:#888")
		canvas.Text(x0-6, ty, t.Label, `text-anchor="end" dy=".3em" fill="#666"`)
	}
}

func hex(c color.NRGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// paint returns the fill and stroke declarations of st.
func paint(st *scene.Style, fill bool) string {
	var b strings.Builder
	if fill && st.Fill.A > 0 {
		fmt.Fprintf(&b, "fill:%s; fill-opacity:%.3g; ", hex(st.Fill), float64(st.Fill.A)/255*st.Opacity)
	} else {
		b.WriteString("fill:none; ")
	}
	if st.Stroke.A > 0 && st.StrokeWidth > 0 {
		fmt.Fprintf(&b, "stroke:%s; stroke-opacity:%.3g; stroke-width:%.3g", hex(st.Stroke), float64(st.Stroke.A)/255*st.Opacity, st.StrokeWidth)
	}
	return strings.TrimSpace(b.String())
}

func renderNode(canvas *svg.SVG, n scene.Node) {
	st := n.NodeStyle()
	if !st.Visible || st.Opacity <= 0 {
		return
	}
	switch n := n.(type) {
	case *scene.Rect:
		x0, y0, x1, y1 := n.Normalized()
		canvas.Rect(r(x0), r(y0), r(x1)-r(x0), r(y1)-r(y0), paint(st, true))
	case *scene.Marker:
		if n.Shape == scene.Square {
			s := r(n.Size)
			canvas.Rect(r(n.X-n.Size/2), r(n.Y-n.Size/2), s, s, paint(st, true))
			return
		}
		canvas.Circle(r(n.X), r(n.Y), max(1, r(n.Size/2)), paint(st, true))
	case *scene.Path:
		for _, seg := range n.Segments {
			if len(seg) < 2 {
				continue
			}
			xs, ys := make([]int, len(seg)), make([]int, len(seg))
			for i, p := range seg {
				xs[i], ys[i] = r(p.X), r(p.Y)
			}
			canvas.Polyline(xs, ys, paint(st, false))
		}
	case *scene.Box:
		renderBox(canvas, n, st)
	case *scene.Text:
		anchor := "start"
		switch n.Anchor {
		case scene.AnchorMiddle:
			anchor = "middle"
		case scene.AnchorEnd:
			anchor = "end"
		}
		fill := st.Fill
		if fill == (color.NRGBA{}) {
			fill = color.NRGBA{R: 0x33, G: 0x33, B: 0x33, A: 0xff}
		}
		attrs := []string{`text-anchor="` + anchor + `"`, fmt.Sprintf(`fill="%s" fill-opacity="%.3g"`, hex(fill), float64(fill.A)/255*st.Opacity)}
		if n.Size > 0 {
			attrs = append(attrs, fmt.Sprintf(`font-size="%.3g"`, n.Size))
		}
		canvas.Text(r(n.X), r(n.Y), n.Text, attrs...)
	}
}

func renderBox(canvas *svg.SVG, b *scene.Box, st *scene.Style) {
	line := paint(&scene.Style{Stroke: st.Stroke, StrokeWidth: max(st.StrokeWidth, 1), Opacity: st.Opacity}, false)
	if st.Stroke.A == 0 {
		line = paint(&scene.Style{Stroke: st.Fill, StrokeWidth: max(st.StrokeWidth, 1), Opacity: st.Opacity}, false)
	}
	cx := r(b.X + b.Width/2)
	half := b.Width * b.WhiskerWidth / 2
	lo, hi := min(b.Q1, b.Q3), max(b.Q1, b.Q3)
	// The box covers the middle of the whisker.
	canvas.Line(cx, r(b.Min), cx, r(b.Max), line)
	canvas.Line(r(b.X+b.Width/2-half), r(b.Min), r(b.X+b.Width/2+half), r(b.Min), line)
	canvas.Line(r(b.X+b.Width/2-half), r(b.Max), r(b.X+b.Width/2+half), r(b.Max), line)
	canvas.Rect(r(b.X), r(lo), r(b.X+b.Width)-r(b.X), r(hi)-r(lo), paint(st, true))
	canvas.Line(r(b.X), r(b.Median), r(b.X+b.Width), r(b.Median), line)
}
