package series

import (
	"git.sr.ht/~whereswaldon/plotwise/data"
	"git.sr.ht/~whereswaldon/plotwise/pick"
	"git.sr.ht/~whereswaldon/plotwise/scene"
	"git.sr.ht/~whereswaldon/plotwise/validate"
)

const defaultMarkerSize = 6

// LineOptions configures a line series with a marker on every point.
type LineOptions struct {
	Options
	XKey  string
	YKey  string
	YName string
	// MarkerSize defaults to 6. Negative sizes hide markers.
	MarkerSize float64
	// ConnectMissing draws the line across rows with missing values
	// instead of breaking it.
	ConnectMissing bool
}

var lineSchema = append(commonRules(func(o LineOptions) Options { return o.Options }),
	validate.Func("markerSize", func(o LineOptions) string {
		if !finite(o.MarkerSize) {
			return "must be finite"
		}
		return ""
	}),
)

type line struct {
	LineOptions
}

// NewLine validates opts and returns a line series.
func NewLine(opts LineOptions) (*Series, error) {
	if err := lineSchema.Validate(opts); err != nil {
		return nil, err
	}
	if opts.MarkerSize == 0 {
		opts.MarkerSize = defaultMarkerSize
	}
	return newSeries(opts.Options, &line{LineOptions: opts}), nil
}

func (l *line) kind() Kind { return KindLine }

func (l *line) definition(xContinuous bool, _ map[string]bool) (data.Definition, bool) {
	if l.XKey == "" || l.YKey == "" {
		return data.Definition{}, false
	}
	var xOpts []data.PropertyOption
	if xContinuous {
		xOpts = append(xOpts, data.Continuous())
	}
	return data.Definition{
		Properties: []data.Property{
			data.Key("x", l.XKey, xOpts...),
			data.Value("y", l.YKey),
		},
	}, true
}

func (l *line) domain(pd *data.ProcessedData, dir Direction) []any {
	if dir == X {
		return keyDomain(pd, validRows(pd))
	}
	return pd.Domain("y").Values()
}

func (l *line) itemID() string {
	return l.YKey
}

func (l *line) nodeData(bd *build) NodeDataContext {
	ctx := NodeDataContext{SeriesID: bd.id}
	pd := bd.pd
	var seg []scene.Point
	flush := func() {
		if len(seg) > 0 {
			ctx.Segments = append(ctx.Segments, seg)
			seg = nil
		}
	}
	for row := range pd.Len() {
		if !pd.RowValid(row) {
			if !l.ConnectMissing {
				flush()
			}
			continue
		}
		xv, _ := pd.Value("x", row)
		yv, _ := pd.Value("y", row)
		px, py := bd.center(xv), bd.y.Convert(yv)
		if !finite(px, py) {
			if !l.ConnectMissing {
				flush()
			}
			continue
		}
		pt := scene.Point{X: px, Y: py}
		seg = append(seg, pt)
		d := NodeDatum{
			SeriesID:    bd.id,
			ItemID:      l.itemID(),
			Index:       row,
			Datum:       pd.RawData[row],
			XValue:      xv,
			YValue:      yv,
			Mid:         pt,
			Size:        max(l.MarkerSize, 0),
			Fill:        bd.fill,
			Stroke:      bd.stroke,
			StrokeWidth: 1,
			key:         bd.keys.next(l.itemID(), xv),
		}
		ctx.NodeData = append(ctx.NodeData, d)
		if bd.labels.Enabled {
			ctx.Labels = append(ctx.Labels, LabelDatum{
				SeriesID: bd.id,
				ItemID:   d.ItemID,
				Index:    row,
				Text:     bd.labels.format(yv),
				X:        px,
				Y:        py - d.Size/2 - 4,
				Anchor:   scene.AnchorMiddle,
				Fill:     bd.labels.Color,
			})
		}
	}
	flush()
	return ctx
}

func (l *line) items(bd *build) []legendItem {
	label := l.YName
	if label == "" {
		label = l.Title
	}
	if label == "" {
		label = l.YKey
	}
	return []legendItem{{id: l.itemID(), label: label, fill: bd.fill}}
}

func (l *line) tooltip(d NodeDatum) (string, []string) {
	title := l.YName
	if title == "" {
		title = l.Title
	}
	return title, []string{
		l.XKey + ": " + FormatValue(d.XValue),
		l.YKey + ": " + FormatValue(d.YValue),
	}
}

func (l *line) pickModes() (supported, priority []pick.Mode) {
	return []pick.Mode{pick.ExactShapeMatch, pick.NearestByMainAxisFirst, pick.NearestNode},
		[]pick.Mode{pick.NearestByMainAxisFirst, pick.NearestNode, pick.ExactShapeMatch}
}

func (l *line) newNode() scene.Node { return scene.NewMarker() }

func (l *line) geometry(d NodeDatum) []float64 {
	return []float64{d.Mid.X, d.Mid.Y, d.Size}
}

func (l *line) setGeometry(n scene.Node, v []float64) {
	m := n.(*scene.Marker)
	m.X, m.Y, m.Size = v[0], v[1], v[2]
}

func (l *line) nodeGeometry(n scene.Node) []float64 {
	m := n.(*scene.Marker)
	return []float64{m.X, m.Y, m.Size}
}
