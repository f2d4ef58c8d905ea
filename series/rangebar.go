package series

import (
	"math"

	"git.sr.ht/~whereswaldon/plotwise/data"
	"git.sr.ht/~whereswaldon/plotwise/pick"
	"git.sr.ht/~whereswaldon/plotwise/scene"
)

// RangeBarOptions configures a range bar series, one bar spanning
// [low,high] per row.
type RangeBarOptions struct {
	Options
	XKey     string
	YLowKey  string
	YHighKey string
}

var rangeBarSchema = commonRules(func(o RangeBarOptions) Options { return o.Options })

type rangeBar struct {
	RangeBarOptions
}

// NewRangeBar validates opts and returns a range bar series.
func NewRangeBar(opts RangeBarOptions) (*Series, error) {
	if err := rangeBarSchema.Validate(opts); err != nil {
		return nil, err
	}
	return newSeries(opts.Options, &rangeBar{RangeBarOptions: opts}), nil
}

func (r *rangeBar) kind() Kind { return KindRangeBar }

func (r *rangeBar) definition(xContinuous bool, _ map[string]bool) (data.Definition, bool) {
	if r.XKey == "" || r.YLowKey == "" || r.YHighKey == "" {
		return data.Definition{}, false
	}
	var xOpts []data.PropertyOption
	if xContinuous {
		xOpts = append(xOpts, data.Continuous())
	}
	def := data.Definition{
		Properties: []data.Property{
			data.Key("x", r.XKey, xOpts...),
			data.Value("low", r.YLowKey),
			data.Value("high", r.YHighKey),
		},
	}
	if xContinuous {
		def.Reducers = []data.Reducer{data.SmallestKeyInterval(intervalReducer, "x")}
	}
	return def, true
}

// span returns the low and high values of row. ok is false when low
// exceeds high.
func (r *rangeBar) span(pd *data.ProcessedData, row int) (low, high float64, ok bool) {
	low, lok := pd.Number("low", row)
	high, hok := pd.Number("high", row)
	return low, high, lok && hok && low <= high
}

func (r *rangeBar) rangeRows(pd *data.ProcessedData) []int {
	var rows []int
	for _, row := range validRows(pd) {
		if _, _, ok := r.span(pd, row); ok {
			rows = append(rows, row)
		}
	}
	return rows
}

func (r *rangeBar) domain(pd *data.ProcessedData, dir Direction) []any {
	rows := r.rangeRows(pd)
	if len(rows) == 0 {
		return nil
	}
	if dir == X {
		return paddedKeyDomain(pd, rows)
	}
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, row := range rows {
		l, h, _ := r.span(pd, row)
		lo, hi = min(lo, l), max(hi, h)
	}
	return []any{lo, hi}
}

// itemID names the single legend item after the series, falling back to
// the resolved series id.
func (r *rangeBar) itemID(bd *build) string {
	if r.ID != "" {
		return r.ID
	}
	if r.Title != "" {
		return r.Title
	}
	return bd.id
}

func (r *rangeBar) nodeData(bd *build) NodeDataContext {
	ctx := NodeDataContext{SeriesID: bd.id}
	pd := bd.pd
	item := r.itemID(bd)
	for _, row := range r.rangeRows(pd) {
		low, high, _ := r.span(pd, row)
		xv, _ := pd.Value("x", row)
		x0, w, ok := bd.slot(row, xv)
		if !ok {
			continue
		}
		ylo, yhi := bd.y.Convert(low), bd.y.Convert(high)
		if !finite(ylo, yhi) {
			continue
		}
		d := NodeDatum{
			SeriesID:    bd.id,
			ItemID:      item,
			Index:       row,
			Datum:       pd.RawData[row],
			XValue:      xv,
			YValue:      high,
			X:           x0,
			Y:           min(ylo, yhi),
			Width:       w,
			Height:      math.Abs(yhi - ylo),
			Mid:         scene.Point{X: x0 + w/2, Y: (ylo + yhi) / 2},
			Low:         low,
			High:        high,
			Fill:        bd.fill,
			Stroke:      bd.stroke,
			StrokeWidth: bd.strokeWidth,
			key:         bd.keys.next(item, xv),
		}
		ctx.NodeData = append(ctx.NodeData, d)
		if !bd.labels.Enabled {
			continue
		}
		const offset = 4
		for _, part := range []struct {
			name string
			v, y float64
			dy   float64
		}{
			{"low", low, max(ylo, yhi), offset * 3},
			{"high", high, min(ylo, yhi), -offset},
		} {
			ctx.Labels = append(ctx.Labels, LabelDatum{
				SeriesID: bd.id,
				ItemID:   item,
				Index:    row,
				Part:     part.name,
				Text:     bd.labels.format(part.v),
				X:        x0 + w/2,
				Y:        part.y + part.dy,
				Anchor:   scene.AnchorMiddle,
				Fill:     bd.labels.Color,
			})
		}
	}
	return ctx
}

func (r *rangeBar) items(bd *build) []legendItem {
	label := r.Title
	if label == "" {
		label = bd.id
	}
	return []legendItem{{id: r.itemID(bd), label: label, fill: bd.fill}}
}

func (r *rangeBar) tooltip(d NodeDatum) (string, []string) {
	return r.Title, []string{
		r.XKey + ": " + FormatValue(d.XValue),
		r.YLowKey + ": " + FormatValue(d.Low),
		r.YHighKey + ": " + FormatValue(d.High),
	}
}

func (r *rangeBar) pickModes() (supported, priority []pick.Mode) {
	return []pick.Mode{pick.ExactShapeMatch, pick.NearestNode},
		[]pick.Mode{pick.ExactShapeMatch, pick.NearestNode}
}

func (r *rangeBar) newNode() scene.Node { return scene.NewRect() }

func (r *rangeBar) geometry(d NodeDatum) []float64 {
	return []float64{d.X, d.Y, d.Width, d.Height}
}

func (r *rangeBar) setGeometry(n scene.Node, v []float64) {
	rc := n.(*scene.Rect)
	rc.X, rc.Y, rc.Width, rc.Height = v[0], v[1], v[2], v[3]
}

func (r *rangeBar) nodeGeometry(n scene.Node) []float64 {
	rc := n.(*scene.Rect)
	return []float64{rc.X, rc.Y, rc.Width, rc.Height}
}
