// Package scene defines the retained visual nodes that series bind node
// data to, and the hit testing renderers and pickers rely on. It does not
// rasterize anything.
package scene

import (
	"image/color"
	"math"
)

// Point is a position in series-local coordinates.
type Point struct {
	X, Y float64
}

// Style holds the resolved paint attributes of a node.
type Style struct {
	Fill        color.NRGBA
	Stroke      color.NRGBA
	StrokeWidth float64
	// Opacity multiplies the alpha of fill and stroke.
	Opacity float64
	Visible bool
}

// Node is a retained visual node.
type Node interface {
	Bind(datum any)
	Datum() any
	NodeStyle() *Style
	// ContainsPoint reports whether p lies inside the rendered shape.
	ContainsPoint(p Point) bool
	// DistanceSquared returns the squared distance from p to the shape,
	// zero inside it.
	DistanceSquared(p Point) float64
}

type base struct {
	Style
	datum any
}

func (b *base) Bind(d any)        { b.datum = d }
func (b *base) Datum() any        { return b.datum }
func (b *base) NodeStyle() *Style { return &b.Style }

// Rect is an axis-aligned rectangle. Width and Height may be negative, in
// which case the rectangle extends left or up from X, Y.
type Rect struct {
	base
	X, Y, Width, Height float64
}

func NewRect() *Rect { return &Rect{} }

// Normalized returns the rectangle's corners with min <= max.
func (r *Rect) Normalized() (x0, y0, x1, y1 float64) {
	x0, x1 = r.X, r.X+r.Width
	y0, y1 = r.Y, r.Y+r.Height
	if x0 > x1 {
		x0, x1 = x1, x0
	}
	if y0 > y1 {
		y0, y1 = y1, y0
	}
	return
}

func (r *Rect) ContainsPoint(p Point) bool {
	x0, y0, x1, y1 := r.Normalized()
	return r.Visible && p.X >= x0 && p.X <= x1 && p.Y >= y0 && p.Y <= y1
}

func (r *Rect) DistanceSquared(p Point) float64 {
	x0, y0, x1, y1 := r.Normalized()
	dx := max(x0-p.X, 0, p.X-x1)
	dy := max(y0-p.Y, 0, p.Y-y1)
	return dx*dx + dy*dy
}

type MarkerShape uint8

const (
	Circle MarkerShape = iota
	Square
)

// Marker is a point symbol centered on X, Y.
type Marker struct {
	base
	X, Y  float64
	Size  float64
	Shape MarkerShape
}

func NewMarker() *Marker { return &Marker{} }

func (m *Marker) ContainsPoint(p Point) bool {
	return m.Visible && m.DistanceSquared(p) == 0
}

func (m *Marker) DistanceSquared(p Point) float64 {
	r := m.Size / 2
	if m.Shape == Square {
		dx := max(math.Abs(p.X-m.X)-r, 0)
		dy := max(math.Abs(p.Y-m.Y)-r, 0)
		return dx*dx + dy*dy
	}
	d := max(math.Hypot(p.X-m.X, p.Y-m.Y)-r, 0)
	return d * d
}

// Path is a set of open polylines.
type Path struct {
	base
	Segments [][]Point
}

func NewPath() *Path { return &Path{} }

// ContainsPoint reports whether p is within half the stroke width of the
// path.
func (pa *Path) ContainsPoint(p Point) bool {
	if !pa.Visible {
		return false
	}
	r := max(pa.StrokeWidth/2, 0.5)
	return pa.DistanceSquared(p) <= r*r
}

func (pa *Path) DistanceSquared(p Point) float64 {
	best := math.Inf(1)
	for _, seg := range pa.Segments {
		if len(seg) == 1 {
			best = min(best, dist2(p, seg[0]))
		}
		for i := 1; i < len(seg); i++ {
			best = min(best, segmentDistanceSquared(p, seg[i-1], seg[i]))
		}
	}
	return best
}

func dist2(a, b Point) float64 {
	dx, dy := a.X-b.X, a.Y-b.Y
	return dx*dx + dy*dy
}

func segmentDistanceSquared(p, a, b Point) float64 {
	vx, vy := b.X-a.X, b.Y-a.Y
	l2 := vx*vx + vy*vy
	if l2 == 0 {
		return dist2(p, a)
	}
	t := ((p.X-a.X)*vx + (p.Y-a.Y)*vy) / l2
	t = max(0, min(1, t))
	return dist2(p, Point{X: a.X + t*vx, Y: a.Y + t*vy})
}

// Box is a box-and-whisker glyph. X and Width span the box horizontally;
// the remaining fields are vertical positions.
type Box struct {
	base
	X, Width                 float64
	Min, Q1, Median, Q3, Max float64
	// WhiskerWidth is the fraction of Width used by the whisker caps.
	WhiskerWidth float64
}

func NewBox() *Box { return &Box{WhiskerWidth: 0.5} }

func (b *Box) bounds() (x0, y0, x1, y1 float64) {
	x0, x1 = b.X, b.X+b.Width
	y0, y1 = min(b.Min, b.Max, b.Q1, b.Q3), max(b.Min, b.Max, b.Q1, b.Q3)
	return
}

func (b *Box) ContainsPoint(p Point) bool {
	if !b.Visible {
		return false
	}
	return b.DistanceSquared(p) == 0
}

// DistanceSquared measures from the glyph's bounding box, whiskers
// included.
func (b *Box) DistanceSquared(p Point) float64 {
	x0, y0, x1, y1 := b.bounds()
	r := Rect{X: x0, Y: y0, Width: x1 - x0, Height: y1 - y0}
	return r.DistanceSquared(p)
}

type TextAnchor uint8

const (
	AnchorStart TextAnchor = iota
	AnchorMiddle
	AnchorEnd
)

// Text is a label anchored at X, Y (baseline).
type Text struct {
	base
	X, Y   float64
	Text   string
	Anchor TextAnchor
	Size   float64
}

func NewText() *Text { return &Text{} }

// Labels are not pickable.
func (t *Text) ContainsPoint(Point) bool { return false }

func (t *Text) DistanceSquared(p Point) float64 {
	return dist2(p, Point{X: t.X, Y: t.Y})
}

// Group is an ordered layer of nodes, drawn first to last.
type Group struct {
	Name  string
	Nodes []Node
}

// NearestSquared returns the visible node closest to p and its squared
// distance. ok is false when no node is visible.
func NearestSquared[N Node](nodes []N, p Point) (nearest N, d2 float64, ok bool) {
	d2 = math.Inf(1)
	for _, n := range nodes {
		if !n.NodeStyle().Visible {
			continue
		}
		if d := n.DistanceSquared(p); d < d2 {
			nearest, d2, ok = n, d, true
		}
	}
	return nearest, d2, ok
}

// PickNode returns the last visible node containing p, which is the one
// drawn on top.
func PickNode[N Node](nodes []N, p Point) (hit N, ok bool) {
	for i := len(nodes) - 1; i >= 0; i-- {
		if nodes[i].ContainsPoint(p) {
			return nodes[i], true
		}
	}
	return hit, false
}
