package series

import (
	"image/color"
	"math"
	"slices"

	"git.sr.ht/~whereswaldon/plotwise/data"
	"git.sr.ht/~whereswaldon/plotwise/pick"
	"git.sr.ht/~whereswaldon/plotwise/scene"
	"git.sr.ht/~whereswaldon/plotwise/validate"
)

const barStack = "stack"

// BarOptions configures a stacked bar series. Every y key is one item
// stacked on top of the previous ones.
type BarOptions struct {
	Options
	XKey  string
	YKeys []string
	// YNames are the legend labels of the y keys, defaulting to the keys.
	YNames map[string]string
	// Fills are the colors of the y keys, in order. Missing entries fall
	// back to the palette.
	Fills []color.NRGBA
	// NormalizeTo rescales every stack to this total, 100 for percentage
	// stacks. Zero disables it.
	NormalizeTo float64
}

var barSchema = append(commonRules(func(o BarOptions) Options { return o.Options }),
	validate.Distinct("yKeys", func(o BarOptions) []string { return o.YKeys }),
	validate.NonNegative("normalizeTo", func(o BarOptions) float64 { return o.NormalizeTo }),
)

type bar struct {
	BarOptions
}

// NewBar validates opts and returns a bar series.
func NewBar(opts BarOptions) (*Series, error) {
	if err := barSchema.Validate(opts); err != nil {
		return nil, err
	}
	opts.YKeys = append([]string(nil), opts.YKeys...)
	return newSeries(opts.Options, &bar{BarOptions: opts}), nil
}

func (b *bar) kind() Kind { return KindBar }

func yID(key string) string { return "y:" + key }

func (b *bar) definition(xContinuous bool, hidden map[string]bool) (data.Definition, bool) {
	if b.XKey == "" || len(b.YKeys) == 0 || slices.Contains(b.YKeys, "") {
		return data.Definition{}, false
	}
	var xOpts []data.PropertyOption
	if xContinuous {
		xOpts = append(xOpts, data.Continuous())
	}
	def := data.Definition{
		Properties:  []data.Property{data.Key("x", b.XKey, xOpts...)},
		GroupByKeys: true,
	}
	stack := data.StackGroup{ID: barStack, SeparateNegative: true, NormalizeTo: b.NormalizeTo}
	for _, k := range b.YKeys {
		opts := []data.PropertyOption{data.Optional()}
		if hidden[k] {
			opts = append(opts, data.WithForceValue(0.0))
		}
		def.Properties = append(def.Properties, data.Value(yID(k), k, opts...))
		stack.Properties = append(stack.Properties, yID(k))
	}
	def.Stacks = []data.StackGroup{stack}
	if xContinuous {
		def.Reducers = []data.Reducer{data.SmallestKeyInterval(intervalReducer, "x")}
	}
	return def, true
}

// stackedRows lists the valid rows with at least one stacked value.
func (b *bar) stackedRows(pd *data.ProcessedData) []int {
	var rows []int
	for _, r := range validRows(pd) {
		for _, k := range b.YKeys {
			if _, ok := pd.StackRange(barStack, yID(k), r); ok {
				rows = append(rows, r)
				break
			}
		}
	}
	return rows
}

func (b *bar) domain(pd *data.ProcessedData, dir Direction) []any {
	rows := b.stackedRows(pd)
	if len(rows) == 0 {
		return nil
	}
	if dir == X {
		return paddedKeyDomain(pd, rows)
	}
	st, ok := pd.Stack(barStack)
	if !ok {
		return nil
	}
	return []any{st.Min, st.Max}
}

func (b *bar) fillFor(bd *build, i int) color.NRGBA {
	if i < len(b.Fills) {
		return b.Fills[i]
	}
	if bd.explicitFill && i == 0 {
		return bd.fill
	}
	return PaletteColor(bd.colorIndex + i)
}

func (b *bar) nodeData(bd *build) NodeDataContext {
	ctx := NodeDataContext{SeriesID: bd.id}
	pd := bd.pd
	for _, row := range validRows(pd) {
		xv, _ := pd.Value("x", row)
		x0, w, ok := bd.slot(row, xv)
		if !ok {
			continue
		}
		for i, k := range b.YKeys {
			if bd.hidden[k] {
				continue
			}
			r, ok := pd.StackRange(barStack, yID(k), row)
			if !ok {
				continue
			}
			y0, y1 := bd.y.Convert(r.Start), bd.y.Convert(r.End)
			if !finite(y0, y1) {
				continue
			}
			yv, _ := pd.Value(yID(k), row)
			fill := b.fillFor(bd, i)
			d := NodeDatum{
				SeriesID:    bd.id,
				ItemID:      k,
				Index:       row,
				Datum:       pd.RawData[row],
				XValue:      xv,
				YValue:      yv,
				X:           x0,
				Y:           min(y0, y1),
				Width:       w,
				Height:      math.Abs(y1 - y0),
				Mid:         scene.Point{X: x0 + w/2, Y: (y0 + y1) / 2},
				Fill:        fill,
				Stroke:      darken(fill),
				StrokeWidth: bd.strokeWidth,
				key:         bd.keys.next(k, xv),
			}
			if i == 0 && bd.explicitFill {
				d.Stroke = bd.stroke
			}
			ctx.NodeData = append(ctx.NodeData, d)
			if bd.labels.Enabled {
				ctx.Labels = append(ctx.Labels, b.label(bd, d, r.End < r.Start, y1))
			}
		}
	}
	return ctx
}

// label places the value label of d. end is the position of the end of
// the bar, which is at the bottom for negative values.
func (b *bar) label(bd *build, d NodeDatum, negative bool, end float64) LabelDatum {
	const offset = 4
	l := LabelDatum{
		SeriesID: bd.id,
		ItemID:   d.ItemID,
		Index:    d.Index,
		Text:     bd.labels.format(d.YValue),
		X:        d.X + d.Width/2,
		Anchor:   scene.AnchorMiddle,
		Fill:     bd.labels.Color,
	}
	// Screen y grows downwards, so a bar's end is its top unless the
	// value is negative.
	dir := -1.0
	if negative {
		dir = 1
	}
	if bd.labels.Placement == LabelOutside {
		l.Y = end + dir*offset
	} else {
		l.Y = end - dir*offset*3
	}
	return l
}

func (b *bar) items(bd *build) []legendItem {
	out := make([]legendItem, len(b.YKeys))
	for i, k := range b.YKeys {
		label := k
		if name, ok := b.YNames[k]; ok {
			label = name
		}
		out[i] = legendItem{id: k, label: label, fill: b.fillFor(bd, i)}
	}
	return out
}

func (b *bar) tooltip(d NodeDatum) (string, []string) {
	title := d.ItemID
	if name, ok := b.YNames[d.ItemID]; ok {
		title = name
	}
	return title, []string{
		b.XKey + ": " + FormatValue(d.XValue),
		d.ItemID + ": " + FormatValue(d.YValue),
	}
}

func (b *bar) pickModes() (supported, priority []pick.Mode) {
	return []pick.Mode{pick.ExactShapeMatch, pick.NearestByMainAxisFirst, pick.NearestByMainCategoryAxisFirst, pick.NearestNode},
		[]pick.Mode{pick.ExactShapeMatch, pick.NearestByMainCategoryAxisFirst}
}

func (b *bar) newNode() scene.Node { return scene.NewRect() }

func (b *bar) geometry(d NodeDatum) []float64 {
	return []float64{d.X, d.Y, d.Width, d.Height}
}

func (b *bar) setGeometry(n scene.Node, v []float64) {
	r := n.(*scene.Rect)
	r.X, r.Y, r.Width, r.Height = v[0], v[1], v[2], v[3]
}

func (b *bar) nodeGeometry(n scene.Node) []float64 {
	r := n.(*scene.Rect)
	return []float64{r.X, r.Y, r.Width, r.Height}
}
