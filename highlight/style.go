package highlight

import "image/color"

// State classifies a datum against the active highlight.
type State uint8

const (
	// None means nothing is highlighted.
	None State = iota
	// Highlighted is the highlighted datum itself.
	Highlighted
	// PeerHighlighted is another datum of the highlighted series.
	PeerHighlighted
	// OtherHighlighted is any datum of a different series.
	OtherHighlighted
)

func (s State) String() string {
	switch s {
	case Highlighted:
		return "highlighted"
	case PeerHighlighted:
		return "peer-highlighted"
	case OtherHighlighted:
		return "other-highlighted"
	default:
		return "no-highlight"
	}
}

// Context carries the highlight state into style resolution.
type Context struct {
	Active *Target
}

// ItemStyle overrides the style of the highlighted datum. Nil fields keep
// the datum's own style.
type ItemStyle struct {
	Fill        *color.NRGBA
	Stroke      *color.NRGBA
	StrokeWidth *float64
}

// SeriesStyle configures series-wide highlight effects.
type SeriesStyle struct {
	// DimOpacity is applied to data that are not highlighted while
	// something else is. Nil means no dimming.
	DimOpacity *float64
	// StrokeWidth replaces the stroke width of every datum of the
	// highlighted series.
	StrokeWidth *float64
}

// Style is the highlight configuration of one series.
type Style struct {
	// Enabled defaults to true when nil.
	Enabled *bool
	Item    ItemStyle
	Series  SeriesStyle
}

// IsEnabled reports whether highlighting applies to the series.
func (s Style) IsEnabled() bool {
	return s.Enabled == nil || *s.Enabled
}

// Classify returns the state of the datum at index of item itemID in
// series seriesID.
func Classify(ctx Context, seriesID, itemID string, index int) State {
	a := ctx.Active
	switch {
	case a == nil:
		return None
	case a.SeriesID != seriesID:
		return OtherHighlighted
	case a.ItemID == itemID && a.DatumIndex == index:
		return Highlighted
	default:
		return PeerHighlighted
	}
}

// Opacity returns the opacity multiplier for a datum in state.
func Opacity(style Style, state State) float64 {
	if !style.IsEnabled() || style.Series.DimOpacity == nil {
		return 1
	}
	switch state {
	case PeerHighlighted, OtherHighlighted:
		return *style.Series.DimOpacity
	default:
		return 1
	}
}

// StrokeWidth returns the effective stroke width of a datum whose own
// width is base.
func StrokeWidth(style Style, state State, base float64) float64 {
	if !style.IsEnabled() {
		return base
	}
	switch state {
	case Highlighted:
		if w := style.Item.StrokeWidth; w != nil {
			return *w
		}
		if w := style.Series.StrokeWidth; w != nil {
			return *w
		}
	case PeerHighlighted:
		if w := style.Series.StrokeWidth; w != nil {
			return *w
		}
	}
	return base
}

// Colors returns the effective fill and stroke of a datum.
func Colors(style Style, state State, fill, stroke color.NRGBA) (color.NRGBA, color.NRGBA) {
	if !style.IsEnabled() || state != Highlighted {
		return fill, stroke
	}
	if c := style.Item.Fill; c != nil {
		fill = *c
	}
	if c := style.Item.Stroke; c != nil {
		stroke = *c
	}
	return fill, stroke
}

// Affects reports whether a change from prev to cur can alter the
// styling of series seriesID. When dims is set, every series is affected
// by any change because dimming applies to unrelated series too.
func Affects(ev Event, seriesID string, dims bool) bool {
	if dims {
		return true
	}
	return (ev.Previous != nil && ev.Previous.SeriesID == seriesID) ||
		(ev.Current != nil && ev.Current.SeriesID == seriesID)
}
