package series

import (
	"image/color"

	"git.sr.ht/~whereswaldon/plotwise/data"
	"git.sr.ht/~whereswaldon/plotwise/scale"
	"git.sr.ht/~whereswaldon/plotwise/scene"
)

// Direction selects an axis.
type Direction uint8

const (
	X Direction = iota
	Y
)

func (d Direction) String() string {
	if d == X {
		return "x"
	}
	return "y"
}

// BoxStats holds the five numbers of a box plot, either as data values or
// as vertical positions.
type BoxStats struct {
	Min, Q1, Median, Q3, Max float64
}

// Ordered reports whether Min <= Q1 <= Median <= Q3 <= Max.
func (b BoxStats) Ordered() bool {
	return b.Min <= b.Q1 && b.Q1 <= b.Median && b.Median <= b.Q3 && b.Q3 <= b.Max
}

func (b BoxStats) slice() []float64 {
	return []float64{b.Min, b.Q1, b.Median, b.Q3, b.Max}
}

// NodeDatum is the resolved geometry and style of one visual item. It
// is derived purely from processed data and the current scales.
type NodeDatum struct {
	SeriesID string
	// ItemID discriminates sub-series, such as one y key of a stacked bar.
	ItemID string
	// Index is the row in the processed data.
	Index  int
	Datum  data.RawDatum
	XValue any
	YValue any
	// Mid is the center of the item, used by distance based picking.
	Mid scene.Point

	// X, Y, Width and Height span the rectangle of bars, range bars and
	// the box of box plots.
	X, Y, Width, Height float64
	// Size is the marker size of line points.
	Size float64
	// Stats holds the box plot values, Box their vertical positions.
	Stats BoxStats
	Box   BoxStats
	// Low and High are the values of range bars.
	Low, High float64

	Fill        color.NRGBA
	Stroke      color.NRGBA
	StrokeWidth float64

	key nodeKey
}

type nodeKey struct {
	item string
	x    any
	n    int
}

// Key is the identity of the datum across updates: its item, its x value
// and how many earlier data of the same item share that x value.
func (d NodeDatum) Key() any {
	return d.key
}

// LabelDatum places one text label. A node datum may have several.
type LabelDatum struct {
	SeriesID string
	ItemID   string
	Index    int
	// Part tells labels of the same datum apart, such as "low" and "high".
	Part   string
	Text   string
	X, Y   float64
	Anchor scene.TextAnchor
	Fill   color.NRGBA
}

func (l LabelDatum) key() any {
	return struct {
		item, part string
		index      int
	}{l.ItemID, l.Part, l.Index}
}

// NodeDataContext is the node data one series produced in one cycle.
type NodeDataContext struct {
	SeriesID string
	NodeData []NodeDatum
	Labels   []LabelDatum
	// Segments are the polylines of line series, broken at missing data.
	Segments [][]scene.Point
}

// LegendDatum describes one legend entry.
type LegendDatum struct {
	SeriesID string
	ItemID   string
	Label    string
	Color    color.NRGBA
	Enabled  bool
}

// keyer hands out node keys, counting repeated x values per item.
type keyer map[nodeKey]int

func (k keyer) next(item string, x any) nodeKey {
	base := nodeKey{item: item, x: scale.Key(x)}
	n := k[base]
	k[base] = n + 1
	base.n = n
	return base
}
