package series

import (
	"math"
	"slices"

	"github.com/aclements/go-moremath/stats"

	"git.sr.ht/~whereswaldon/plotwise/data"
	"git.sr.ht/~whereswaldon/plotwise/pick"
	"git.sr.ht/~whereswaldon/plotwise/scale"
	"git.sr.ht/~whereswaldon/plotwise/scene"
	"git.sr.ht/~whereswaldon/plotwise/validate"
)

// BoxPlotOptions configures a box plot series. The five numbers are read
// from MinKey through MaxKey, or computed from the raw observations in
// SamplesKey when that is set.
type BoxPlotOptions struct {
	Options
	XKey      string
	MinKey    string
	Q1Key     string
	MedianKey string
	Q3Key     string
	MaxKey    string
	// SamplesKey names a field holding a list of observations.
	SamplesKey string
}

var boxPlotSchema = append(commonRules(func(o BoxPlotOptions) Options { return o.Options }),
	validate.Func("samplesKey", func(o BoxPlotOptions) string {
		if o.SamplesKey != "" && (o.MinKey != "" || o.Q1Key != "" || o.MedianKey != "" || o.Q3Key != "" || o.MaxKey != "") {
			return "cannot be combined with quartile keys"
		}
		return ""
	}),
)

var boxProps = [...]string{"min", "q1", "median", "q3", "max"}

type boxPlot struct {
	BoxPlotOptions
}

// NewBoxPlot validates opts and returns a box plot series.
func NewBoxPlot(opts BoxPlotOptions) (*Series, error) {
	if err := boxPlotSchema.Validate(opts); err != nil {
		return nil, err
	}
	return newSeries(opts.Options, &boxPlot{BoxPlotOptions: opts}), nil
}

func (b *boxPlot) kind() Kind { return KindBoxPlot }

func (b *boxPlot) keys() []string {
	return []string{b.MinKey, b.Q1Key, b.MedianKey, b.Q3Key, b.MaxKey}
}

func (b *boxPlot) definition(xContinuous bool, _ map[string]bool) (data.Definition, bool) {
	if b.XKey == "" {
		return data.Definition{}, false
	}
	var xOpts []data.PropertyOption
	if xContinuous {
		xOpts = append(xOpts, data.Continuous())
	}
	def := data.Definition{Properties: []data.Property{data.Key("x", b.XKey, xOpts...)}}
	if b.SamplesKey != "" {
		def.Properties = append(def.Properties,
			data.Value("samples", b.SamplesKey, data.Category(), data.WithValidator(func(v any) bool {
				return len(samples(v)) > 0
			})))
	} else {
		for i, k := range b.keys() {
			if k == "" {
				return data.Definition{}, false
			}
			def.Properties = append(def.Properties, data.Value(boxProps[i], k))
		}
	}
	if xContinuous {
		def.Reducers = []data.Reducer{data.SmallestKeyInterval(intervalReducer, "x")}
	}
	return def, true
}

// samples extracts the finite observations of a list value, sorted.
func samples(v any) []float64 {
	var xs []float64
	switch v := v.(type) {
	case []float64:
		for _, x := range v {
			if finite(x) {
				xs = append(xs, x)
			}
		}
	case []any:
		for _, e := range v {
			if x, ok := scale.ToFiniteFloat(e); ok {
				xs = append(xs, x)
			}
		}
	}
	slices.Sort(xs)
	return xs
}

// stats returns the five numbers of row. ok is false for rows whose
// numbers are not ordered.
func (b *boxPlot) stats(pd *data.ProcessedData, row int) (BoxStats, bool) {
	if b.SamplesKey != "" {
		v, _ := pd.Value("samples", row)
		xs := samples(v)
		if len(xs) == 0 {
			return BoxStats{}, false
		}
		s := stats.Sample{Xs: xs, Sorted: true}
		lo, hi := stats.Bounds(xs)
		return BoxStats{
			Min:    lo,
			Q1:     s.Quantile(0.25),
			Median: s.Quantile(0.5),
			Q3:     s.Quantile(0.75),
			Max:    hi,
		}, true
	}
	var vs [5]float64
	for i, id := range boxProps {
		n, ok := pd.Number(id, row)
		if !ok {
			return BoxStats{}, false
		}
		vs[i] = n
	}
	st := BoxStats{Min: vs[0], Q1: vs[1], Median: vs[2], Q3: vs[3], Max: vs[4]}
	return st, st.Ordered()
}

// boxRows lists the valid rows with ordered numbers.
func (b *boxPlot) boxRows(pd *data.ProcessedData) []int {
	var rows []int
	for _, r := range validRows(pd) {
		if _, ok := b.stats(pd, r); ok {
			rows = append(rows, r)
		}
	}
	return rows
}

func (b *boxPlot) domain(pd *data.ProcessedData, dir Direction) []any {
	rows := b.boxRows(pd)
	if len(rows) == 0 {
		return nil
	}
	if dir == X {
		return paddedKeyDomain(pd, rows)
	}
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, r := range rows {
		st, _ := b.stats(pd, r)
		lo, hi = min(lo, st.Min), max(hi, st.Max)
	}
	return []any{lo, hi}
}

// itemID names the single legend item after the series, falling back to
// the resolved series id.
func (b *boxPlot) itemID(bd *build) string {
	if b.ID != "" {
		return b.ID
	}
	if b.Title != "" {
		return b.Title
	}
	return bd.id
}

func (b *boxPlot) nodeData(bd *build) NodeDataContext {
	ctx := NodeDataContext{SeriesID: bd.id}
	pd := bd.pd
	item := b.itemID(bd)
	for _, row := range b.boxRows(pd) {
		st, _ := b.stats(pd, row)
		xv, _ := pd.Value("x", row)
		x0, w, ok := bd.slot(row, xv)
		if !ok {
			continue
		}
		var pos [5]float64
		for i, v := range st.slice() {
			pos[i] = bd.y.Convert(v)
		}
		if !finite(pos[:]...) {
			continue
		}
		box := BoxStats{Min: pos[0], Q1: pos[1], Median: pos[2], Q3: pos[3], Max: pos[4]}
		d := NodeDatum{
			SeriesID:    bd.id,
			ItemID:      item,
			Index:       row,
			Datum:       pd.RawData[row],
			XValue:      xv,
			YValue:      st.Median,
			X:           x0,
			Y:           min(box.Q1, box.Q3),
			Width:       w,
			Height:      math.Abs(box.Q3 - box.Q1),
			Mid:         scene.Point{X: x0 + w/2, Y: box.Median},
			Stats:       st,
			Box:         box,
			Fill:        bd.fill,
			Stroke:      bd.stroke,
			StrokeWidth: bd.strokeWidth,
			key:         bd.keys.next(item, xv),
		}
		ctx.NodeData = append(ctx.NodeData, d)
		if bd.labels.Enabled {
			ctx.Labels = append(ctx.Labels, LabelDatum{
				SeriesID: bd.id,
				ItemID:   item,
				Index:    row,
				Text:     bd.labels.format(st.Median),
				X:        x0 + w + 4,
				Y:        box.Median,
				Anchor:   scene.AnchorStart,
				Fill:     bd.labels.Color,
			})
		}
	}
	return ctx
}

func (b *boxPlot) items(bd *build) []legendItem {
	label := b.Title
	if label == "" {
		label = bd.id
	}
	return []legendItem{{id: b.itemID(bd), label: label, fill: bd.fill}}
}

func (b *boxPlot) tooltip(d NodeDatum) (string, []string) {
	lines := []string{
		b.XKey + ": " + FormatValue(d.XValue),
		"max: " + FormatValue(d.Stats.Max),
		"q3: " + FormatValue(d.Stats.Q3),
		"median: " + FormatValue(d.Stats.Median),
		"q1: " + FormatValue(d.Stats.Q1),
		"min: " + FormatValue(d.Stats.Min),
	}
	if b.SamplesKey != "" {
		xs := samples(d.Datum[b.SamplesKey])
		lines = append(lines, "mean: "+FormatValue(stats.Mean(xs)), "n: "+FormatValue(float64(len(xs))))
	}
	return b.Title, lines
}

func (b *boxPlot) pickModes() (supported, priority []pick.Mode) {
	return []pick.Mode{pick.ExactShapeMatch, pick.NearestNode},
		[]pick.Mode{pick.ExactShapeMatch, pick.NearestNode}
}

func (b *boxPlot) newNode() scene.Node { return scene.NewBox() }

func (b *boxPlot) geometry(d NodeDatum) []float64 {
	return []float64{d.X, d.Width, d.Box.Min, d.Box.Q1, d.Box.Median, d.Box.Q3, d.Box.Max}
}

func (b *boxPlot) setGeometry(n scene.Node, v []float64) {
	bx := n.(*scene.Box)
	bx.X, bx.Width = v[0], v[1]
	bx.Min, bx.Q1, bx.Median, bx.Q3, bx.Max = v[2], v[3], v[4], v[5], v[6]
}

func (b *boxPlot) nodeGeometry(n scene.Node) []float64 {
	bx := n.(*scene.Box)
	return []float64{bx.X, bx.Width, bx.Min, bx.Q1, bx.Median, bx.Q3, bx.Max}
}
