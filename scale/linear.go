package scale

import (
	"iter"
	"math"

	mscale "github.com/aclements/go-moremath/scale"
)

// Linear is a continuous scale that interpolates linearly between the
// ends of its domain.
type Linear struct {
	lin        mscale.Linear
	start, end float64
	hasDomain  bool
	// Clamp restricts converted positions to the range.
	Clamp bool
}

var _ Scale = (*Linear)(nil)

func NewLinear() *Linear {
	return &Linear{
		lin: mscale.Linear{Min: 0, Max: 1},
		end: 1,
	}
}

func (s *Linear) Kind() Kind       { return KindLinear }
func (s *Linear) Continuous() bool { return true }

// SetDomain takes the extent of values as the domain. A degenerate extent
// is widened by FixNumericExtent, and an extent with no finite values
// leaves the scale without a domain.
func (s *Linear) SetDomain(values []any) {
	s.SetExtent(Extent(values))
}

// SetExtent sets the domain from a numeric [min,max] pair.
func (s *Linear) SetExtent(extent []float64) {
	fixed := FixNumericExtent(extent)
	if len(fixed) == 0 {
		s.hasDomain = false
		s.lin.Min, s.lin.Max = 0, 1
		return
	}
	s.hasDomain = true
	s.lin.Min, s.lin.Max = fixed[0], fixed[1]
}

func (s *Linear) Domain() []any {
	if !s.hasDomain {
		return []any{}
	}
	return []any{s.lin.Min, s.lin.Max}
}

// Extent returns the numeric domain, or nil if none is set.
func (s *Linear) Extent() []float64 {
	if !s.hasDomain {
		return nil
	}
	return []float64{s.lin.Min, s.lin.Max}
}

func (s *Linear) SetRange(start, end float64) {
	s.start, s.end = start, end
}

func (s *Linear) Range() (start, end float64) {
	return s.start, s.end
}

func (s *Linear) Convert(v any) float64 {
	x, ok := ToFloat(v)
	if !ok || !s.hasDomain {
		return math.NaN()
	}
	return s.ConvertFloat(x)
}

// ConvertFloat converts an already numeric domain value.
func (s *Linear) ConvertFloat(x float64) float64 {
	if !s.hasDomain {
		return math.NaN()
	}
	t := s.lin.Map(x)
	if s.Clamp {
		t = clamp(t, 0, 1)
	}
	return s.start + t*(s.end-s.start)
}

func (s *Linear) Invert(position float64) any {
	if !s.hasDomain {
		return nil
	}
	if s.end == s.start {
		return s.lin.Min
	}
	t := (position - s.start) / (s.end - s.start)
	if s.Clamp {
		t = clamp(t, 0, 1)
	}
	return s.lin.Unmap(t)
}

func (s *Linear) Ticks(max int) iter.Seq[any] {
	if !s.hasDomain || max < 1 {
		return emptySeq
	}
	lin := s.lin
	return func(yield func(any) bool) {
		for _, t := range linearTicks(lin, max) {
			if !yield(t) {
				return
			}
		}
	}
}

// Nice extends the domain outward to the nearest major tick boundaries.
func (s *Linear) Nice(max int) {
	if !s.hasDomain {
		return
	}
	s.lin.Min, s.lin.Max = niceExtent(s.lin, max)
}

func linearTicks(lin mscale.Linear, max int) []float64 {
	major, _ := lin.Ticks(mscale.TickOptions{Max: max})
	// Allow for rounding at the domain ends.
	eps := (lin.Max - lin.Min) * 1e-9
	out := major[:0:0]
	for _, t := range major {
		if t >= lin.Min-eps && t <= lin.Max+eps {
			out = append(out, t)
		}
	}
	return out
}

func niceExtent(lin mscale.Linear, max int) (lo, hi float64) {
	major, _ := lin.Ticks(mscale.TickOptions{Max: max})
	if len(major) < 2 {
		return lin.Min, lin.Max
	}
	step := major[1] - major[0]
	return math.Floor(lin.Min/step) * step, math.Ceil(lin.Max/step) * step
}
