package chart

import (
	"errors"
	"reflect"
	"time"

	"git.sr.ht/~whereswaldon/plotwise/scale"
	"git.sr.ht/~whereswaldon/plotwise/series"
)

// defaultTicks is the tick count targeted by axes and Nice rounding.
const defaultTicks = 6

// Axis binds a scale to one direction of the plot area.
type Axis struct {
	Direction series.Direction
	Scale     scale.Scale
	// Nice rounds continuous domains out to tick boundaries.
	Nice bool
	// Ticks is the number of ticks aimed for. Zero selects a default.
	Ticks int
}

// Tick is one labelled position along an axis.
type Tick struct {
	Value    any
	Position float64
	Label    string
}

func (a Axis) tickCount() int {
	if a.Ticks > 0 {
		return a.Ticks
	}
	return defaultTicks
}

// TickMarks returns the ticks of the axis at their range positions. Ticks
// of band scales sit in the middle of their band.
func (a Axis) TickMarks() []Tick {
	var out []Tick
	offset := 0.0
	if b, ok := a.Scale.(scale.Bander); ok {
		offset = b.Bandwidth() / 2
	}
	for v := range a.Scale.Ticks(a.tickCount()) {
		out = append(out, Tick{
			Value:    v,
			Position: a.Scale.Convert(v) + offset,
			Label:    series.FormatValue(v),
		})
	}
	return out
}

// setDomain applies domain and range to the scale and reports whether
// either changed.
func (a *Axis) setDomain(domain []any, start, end float64) (changed bool, err error) {
	prevDomain := a.Scale.Domain()
	prevStart, prevEnd := a.Scale.Range()
	if l, ok := a.Scale.(*scale.Log); ok {
		if extErr := l.SetExtent(scale.Extent(domain)); extErr != nil {
			err = extErr
		}
	} else {
		a.Scale.SetDomain(domain)
	}
	if n, ok := a.Scale.(interface{ Nice(int) }); ok && a.Nice {
		n.Nice(a.tickCount())
	}
	a.Scale.SetRange(start, end)
	changed = prevStart != start || prevEnd != end || !reflect.DeepEqual(prevDomain, a.Scale.Domain())
	return changed, err
}

// CombineDomains merges the domains several series contribute to one
// axis. Category domains are united in order of first appearance.
// Continuous domains become their overall [min,max], padded the way
// scale.FixNumericExtent pads. Instants stay instants and are left for
// the time scale to pad.
func CombineDomains(continuous bool, domains ...[]any) []any {
	if !continuous {
		seen := map[any]struct{}{}
		out := []any{}
		for _, d := range domains {
			for _, v := range d {
				k := scale.Key(v)
				if _, dup := seen[k]; dup {
					continue
				}
				seen[k] = struct{}{}
				out = append(out, v)
			}
		}
		return out
	}
	var all []any
	isTime := false
	for _, d := range domains {
		for _, v := range d {
			if _, ok := v.(time.Time); ok {
				isTime = true
			}
			all = append(all, v)
		}
	}
	ext := scale.Extent(all)
	if isTime {
		if ext[0] > ext[1] {
			return []any{}
		}
		return []any{time.UnixMilli(int64(ext[0])), time.UnixMilli(int64(ext[1]))}
	}
	fixed := scale.FixNumericExtent(ext)
	out := make([]any, len(fixed))
	for i, f := range fixed {
		out[i] = f
	}
	return out
}

// ErrUnknownSeries is returned for series ids the chart does not hold.
var ErrUnknownSeries = errors.New("unknown series")
