package scale

import (
	"iter"
	"math"
	"time"
)

// Time is a continuous scale over instants. Values are mapped through
// their Unix millisecond representation.
type Time struct {
	lin Linear
	// Unit is the padding applied around a single-instant domain.
	Unit time.Duration
}

var _ Scale = (*Time)(nil)

func NewTime() *Time {
	return &Time{lin: *NewLinear(), Unit: DefaultTimeUnit}
}

func (s *Time) Kind() Kind       { return KindTime }
func (s *Time) Continuous() bool { return true }

func (s *Time) SetDomain(values []any) {
	var lo, hi time.Time
	for _, v := range values {
		t, ok := toTime(v)
		if !ok {
			continue
		}
		if lo.IsZero() || t.Before(lo) {
			lo = t
		}
		if hi.IsZero() || t.After(hi) {
			hi = t
		}
	}
	fixed := FixTimeExtent(lo, hi, s.Unit)
	if len(fixed) == 0 {
		s.lin.SetExtent(nil)
		return
	}
	s.lin.SetExtent([]float64{float64(fixed[0].UnixMilli()), float64(fixed[1].UnixMilli())})
}

func (s *Time) Domain() []any {
	ext := s.lin.Extent()
	if ext == nil {
		return []any{}
	}
	return []any{time.UnixMilli(int64(ext[0])), time.UnixMilli(int64(ext[1]))}
}

func (s *Time) SetRange(start, end float64) { s.lin.SetRange(start, end) }

func (s *Time) Range() (start, end float64) { return s.lin.Range() }

// SetClamp restricts converted positions to the range.
func (s *Time) SetClamp(clamp bool) { s.lin.Clamp = clamp }

func (s *Time) Convert(v any) float64 {
	t, ok := toTime(v)
	if !ok {
		return math.NaN()
	}
	return s.lin.ConvertFloat(float64(t.UnixMilli()))
}

func (s *Time) Invert(position float64) any {
	ms, ok := s.lin.Invert(position).(float64)
	if !ok {
		return nil
	}
	return time.UnixMilli(int64(math.Round(ms)))
}

var tickIntervals = []time.Duration{
	time.Millisecond,
	10 * time.Millisecond,
	100 * time.Millisecond,
	time.Second,
	5 * time.Second,
	15 * time.Second,
	30 * time.Second,
	time.Minute,
	5 * time.Minute,
	15 * time.Minute,
	30 * time.Minute,
	time.Hour,
	3 * time.Hour,
	6 * time.Hour,
	12 * time.Hour,
	24 * time.Hour,
	7 * 24 * time.Hour,
	30 * 24 * time.Hour,
	365 * 24 * time.Hour,
}

// Ticks returns instants aligned to the finest calendar-like interval
// that yields at most max ticks.
func (s *Time) Ticks(max int) iter.Seq[any] {
	ext := s.lin.Extent()
	if ext == nil || max < 1 {
		return emptySeq
	}
	lo, hi := time.UnixMilli(int64(ext[0])), time.UnixMilli(int64(ext[1]))
	return func(yield func(any) bool) {
		span := hi.Sub(lo)
		interval := tickIntervals[len(tickIntervals)-1]
		for _, candidate := range tickIntervals {
			if int(span/candidate)+1 <= max {
				interval = candidate
				break
			}
		}
		t := lo.Truncate(interval)
		if t.Before(lo) {
			t = t.Add(interval)
		}
		for ; !t.After(hi); t = t.Add(interval) {
			if !yield(t) {
				return
			}
		}
	}
}

func toTime(v any) (time.Time, bool) {
	switch v := v.(type) {
	case time.Time:
		return v, !v.IsZero()
	case string:
		t, err := time.Parse(time.RFC3339, v)
		return t, err == nil
	}
	ms, ok := ToFiniteFloat(v)
	if !ok {
		return time.Time{}, false
	}
	return time.UnixMilli(int64(ms)), true
}
