package scale

import (
	"iter"
	"math"
)

// Band assigns each category a slot of equal width within the range.
//
// The range is divided into steps. PaddingInner is the fraction of a
// step left empty between neighbouring bands and PaddingOuter the
// fraction of a step left empty before the first and after the last
// band. Align positions any leftover space, 0 pushing the bands to the
// start of the range and 1 to the end.
type Band struct {
	categories   []any
	index        map[any]int
	start, end   float64
	PaddingInner float64
	PaddingOuter float64
	Align        float64
	// Round snaps the step to whole units.
	Round bool
}

var (
	_ Scale  = (*Band)(nil)
	_ Bander = (*Band)(nil)
)

func NewBand() *Band {
	return &Band{
		index: map[any]int{},
		end:   1,
		Align: 0.5,
	}
}

func (s *Band) Kind() Kind       { return KindBand }
func (s *Band) Continuous() bool { return false }

// SetDomain sets the categories to the distinct values, keeping the
// order of first appearance.
func (s *Band) SetDomain(values []any) {
	s.categories = s.categories[:0]
	s.index = make(map[any]int, len(values))
	for _, v := range values {
		k := Key(v)
		if _, seen := s.index[k]; seen {
			continue
		}
		s.index[k] = len(s.categories)
		s.categories = append(s.categories, v)
	}
}

func (s *Band) Domain() []any {
	out := make([]any, len(s.categories))
	copy(out, s.categories)
	return out
}

func (s *Band) SetRange(start, end float64) { s.start, s.end = start, end }

func (s *Band) Range() (start, end float64) { return s.start, s.end }

// Step is the distance between the starts of neighbouring bands.
func (s *Band) Step() float64 {
	n := float64(len(s.categories))
	if n == 0 {
		return 0
	}
	step := (s.end - s.start) / max(1, n-s.PaddingInner+2*s.PaddingOuter)
	if s.Round {
		step = math.Floor(step)
	}
	return step
}

// Bandwidth is the width of a single band.
func (s *Band) Bandwidth() float64 {
	bw := s.Step() * (1 - s.PaddingInner)
	if s.Round {
		bw = math.Round(bw)
	}
	return bw
}

func (s *Band) offset() float64 {
	n := float64(len(s.categories))
	step := s.Step()
	o := s.start + (s.end-s.start-step*(n-s.PaddingInner))*clamp(s.Align, 0, 1)
	if s.Round {
		o = math.Round(o)
	}
	return o
}

// Convert returns the start of the band for v, or NaN for categories not
// in the domain.
func (s *Band) Convert(v any) float64 {
	i, ok := s.index[Key(v)]
	if !ok {
		return math.NaN()
	}
	return s.offset() + s.Step()*float64(i)
}

// Invert returns the category whose band centre is nearest to position.
func (s *Band) Invert(position float64) any {
	if len(s.categories) == 0 {
		return nil
	}
	step := s.Step()
	if step == 0 {
		return s.categories[0]
	}
	i := math.Round((position - s.offset() - s.Bandwidth()/2) / step)
	return s.categories[int(clamp(i, 0, float64(len(s.categories)-1)))]
}

// Ticks yields the categories, skipping evenly when there are more than
// max of them.
func (s *Band) Ticks(max int) iter.Seq[any] {
	if max < 1 {
		return emptySeq
	}
	return func(yield func(any) bool) {
		n := len(s.categories)
		every := 1
		if n > max {
			every = int(math.Ceil(float64(n) / float64(max)))
		}
		for i := 0; i < n; i += every {
			if !yield(s.categories[i]) {
				return
			}
		}
	}
}
