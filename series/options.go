package series

import (
	"image/color"
	"log/slog"
	"time"

	"git.sr.ht/~whereswaldon/plotwise/highlight"
	"git.sr.ht/~whereswaldon/plotwise/pick"
	"git.sr.ht/~whereswaldon/plotwise/validate"
)

// LabelPlacement positions bar labels relative to their bar.
type LabelPlacement uint8

const (
	// LabelInsideEnd places the label inside the bar near its end.
	LabelInsideEnd LabelPlacement = iota
	// LabelOutside places the label just past the end of the bar.
	LabelOutside
)

// LabelOptions configures datum labels.
type LabelOptions struct {
	Enabled   bool
	Placement LabelPlacement
	// Formatter renders the labelled value. FormatValue is used when nil.
	Formatter func(v any) string
	Color     color.NRGBA
}

func (l LabelOptions) format(v any) string {
	if l.Formatter != nil {
		return l.Formatter(v)
	}
	return FormatValue(v)
}

// TooltipParams is handed to custom tooltip renderers.
type TooltipParams struct {
	SeriesID string
	Title    string
	Datum    NodeDatum
	// Lines is the default content, one "name: value" entry per line.
	Lines []string
}

// TooltipRenderer returns the HTML of a tooltip. Its output is used as
// is, so it is responsible for escaping.
type TooltipRenderer func(TooltipParams) string

// Options are shared by every kind of series.
type Options struct {
	// ID identifies the series in highlight and pick results. One is
	// generated when empty.
	ID    string
	Title string

	// Fill and Stroke default to a palette color when zero.
	Fill        color.NRGBA
	Stroke      color.NRGBA
	StrokeWidth float64

	Highlight highlight.Style
	// PickModes overrides the kind's default pick priority.
	PickModes []pick.Mode
	Label     LabelOptions
	Tooltip   TooltipRenderer

	// KeepNodes pools the visual nodes of data that disappear so later
	// data can reuse them. By default such nodes are freed.
	KeepNodes bool
	// Animation is the length of geometry transitions between updates.
	// Zero disables them.
	Animation time.Duration

	// Invalidate is called when node data becomes dirty, at most once
	// between two node data generations.
	Invalidate func()
	Logger     *slog.Logger
}

func commonRules[T any](get func(T) Options) validate.Schema[T] {
	return validate.Schema[T]{
		validate.NonNegative("strokeWidth", func(v T) float64 { return get(v).StrokeWidth }),
		validate.OptionalBetween("highlight.series.dimOpacity", func(v T) *float64 {
			return get(v).Highlight.Series.DimOpacity
		}, 0, 1),
		validate.OptionalBetween("highlight.series.strokeWidth", func(v T) *float64 {
			return get(v).Highlight.Series.StrokeWidth
		}, 0, 1e6),
		validate.OptionalBetween("highlight.item.strokeWidth", func(v T) *float64 {
			return get(v).Highlight.Item.StrokeWidth
		}, 0, 1e6),
		validate.Each("pickModes", func(v T) []pick.Mode { return get(v).PickModes }, func(m pick.Mode) string {
			if m > pick.NearestNode {
				return "unknown pick mode " + m.String()
			}
			return ""
		}),
		validate.OneOf("label.placement", func(v T) LabelPlacement { return get(v).Label.Placement }, true, LabelInsideEnd, LabelOutside),
		validate.Func("animation", func(v T) string {
			if get(v).Animation < 0 {
				return "must not be negative"
			}
			return ""
		}),
	}
}
