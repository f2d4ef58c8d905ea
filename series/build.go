package series

import (
	"image/color"
	"maps"
	"math"
	"time"

	"git.sr.ht/~whereswaldon/plotwise/data"
	"git.sr.ht/~whereswaldon/plotwise/scale"
)

const (
	// intervalReducer is the reducer id of the smallest x interval.
	intervalReducer = "x-interval"
	// barPadding is the share of a continuous x slot left empty.
	barPadding = 0.2
	// fallbackSlot is the share of the x range used as slot width when
	// the x interval is unknown.
	fallbackSlot = 0.1
)

// build carries what node data generation reads. It is created under the
// series lock and never outlives one generation.
type build struct {
	id     string
	pd     *data.ProcessedData
	x, y   scale.Scale
	labels LabelOptions
	keys   keyer
	hidden map[string]bool

	fill, stroke color.NRGBA
	strokeWidth  float64
	// colorIndex is the palette position of the series' first item.
	colorIndex int
	// explicitFill is set when the series fill was configured.
	explicitFill bool
}

func (s *Series) newBuild() *build {
	return &build{
		id:           s.id,
		pd:           s.processed,
		x:            s.x,
		y:            s.y,
		labels:       s.opts.Label,
		keys:         keyer{},
		hidden:       maps.Clone(s.hidden),
		fill:         s.fill(),
		stroke:       s.stroke(),
		strokeWidth:  s.strokeWidth(),
		colorIndex:   s.color,
		explicitFill: s.opts.Fill != (color.NRGBA{}),
	}
}

// slot returns the horizontal extent of the datum at row, whose x value is
// v. Band scales give each category its band; continuous scales center a
// slot sized after the smallest interval between x values.
func (b *build) slot(row int, v any) (x0, width float64, ok bool) {
	if bd, isBand := b.x.(scale.Bander); isBand {
		x0 = b.x.Convert(v)
		return x0, bd.Bandwidth(), !math.IsNaN(x0)
	}
	xn, ok := b.pd.Number("x", row)
	if !ok {
		return 0, 0, false
	}
	center := b.convertX(xn)
	if math.IsNaN(center) {
		return 0, 0, false
	}
	width = math.NaN()
	if iv, isFloat := b.pd.Reduced[intervalReducer].(float64); isFloat && iv > 0 && !math.IsInf(iv, 0) {
		width = math.Abs(b.convertX(xn+iv) - center)
	}
	if math.IsNaN(width) || width == 0 {
		start, end := b.x.Range()
		width = math.Abs(end-start) * fallbackSlot
	}
	width *= 1 - barPadding
	return center - width/2, width, true
}

// convertX converts a numeric x value, going through time.Time for time
// scales.
func (b *build) convertX(xn float64) float64 {
	if b.x.Kind() == scale.KindTime {
		return b.x.Convert(time.UnixMilli(int64(xn)))
	}
	return b.x.Convert(xn)
}

// center returns the x position of a point datum: the value itself on
// continuous scales and the middle of the band on band scales.
func (b *build) center(v any) float64 {
	x := b.x.Convert(v)
	if bd, isBand := b.x.(scale.Bander); isBand {
		x += bd.Bandwidth() / 2
	}
	return x
}

func finite(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// keyDomain returns the x domain of the given rows: [min,max] when the x
// key is continuous, the distinct categories in order otherwise.
func keyDomain(pd *data.ProcessedData, rows []int) []any {
	col, ok := pd.Column("x")
	if !ok || len(rows) == 0 {
		return nil
	}
	if !col.Property.Continuous {
		seen := map[any]struct{}{}
		var out []any
		for _, r := range rows {
			v := col.Values[r]
			k := scale.Key(v)
			if _, dup := seen[k]; dup {
				continue
			}
			seen[k] = struct{}{}
			out = append(out, v)
		}
		return out
	}
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, r := range rows {
		lo, hi = min(lo, col.Numbers[r]), max(hi, col.Numbers[r])
	}
	return continuousValues(pd.Domain("x").Time, lo, hi)
}

// paddedKeyDomain widens a continuous x domain by half the smallest x
// interval on both sides so edge slots are not cut off.
func paddedKeyDomain(pd *data.ProcessedData, rows []int) []any {
	d := keyDomain(pd, rows)
	col, _ := pd.Column("x")
	if len(d) != 2 || col == nil || !col.Property.Continuous {
		return d
	}
	iv, isFloat := pd.Reduced[intervalReducer].(float64)
	if !isFloat || iv <= 0 || math.IsInf(iv, 0) {
		return d
	}
	lo, _ := scale.ToFloat(d[0])
	hi, _ := scale.ToFloat(d[1])
	return continuousValues(pd.Domain("x").Time, lo-iv/2, hi+iv/2)
}

func continuousValues(isTime bool, lo, hi float64) []any {
	if isTime {
		return []any{time.UnixMilli(int64(lo)), time.UnixMilli(int64(hi))}
	}
	return []any{lo, hi}
}

// validRows lists the rows of pd usable for node data.
func validRows(pd *data.ProcessedData) []int {
	rows := make([]int, 0, pd.Len()-pd.InvalidCount)
	for r := range pd.Len() {
		if pd.RowValid(r) {
			rows = append(rows, r)
		}
	}
	return rows
}
