package scale

import (
	"fmt"
	"iter"
	"math"

	mscale "github.com/aclements/go-moremath/scale"
)

// Log is a continuous scale that log-transforms values before
// interpolating. Its domain must be strictly positive.
type Log struct {
	log        mscale.Log
	start, end float64
	hasDomain  bool
	Base       int
	Clamp      bool
}

var _ Scale = (*Log)(nil)

func NewLog() *Log {
	return &Log{Base: 10, end: 1}
}

func (s *Log) Kind() Kind       { return KindLog }
func (s *Log) Continuous() bool { return true }

func (s *Log) SetDomain(values []any) {
	if err := s.SetExtent(Extent(values)); err != nil {
		s.hasDomain = false
	}
}

// SetExtent sets the domain from a numeric [min,max] pair. Extents that
// reach zero or below are rejected with ErrInvalidDomain.
func (s *Log) SetExtent(extent []float64) error {
	fixed := FixNumericExtent(extent)
	if len(fixed) == 0 {
		s.hasDomain = false
		return nil
	}
	if fixed[0] <= 0 {
		s.hasDomain = false
		return fmt.Errorf("log scale extent [%g,%g]: %w", fixed[0], fixed[1], ErrInvalidDomain)
	}
	base := s.Base
	if base < 2 {
		base = 10
	}
	l, err := mscale.NewLog(fixed[0], fixed[1], base)
	if err != nil {
		s.hasDomain = false
		return fmt.Errorf("failed building log scale: %w", err)
	}
	s.log = l
	s.hasDomain = true
	return nil
}

func (s *Log) Domain() []any {
	if !s.hasDomain {
		return []any{}
	}
	return []any{s.log.Min, s.log.Max}
}

func (s *Log) SetRange(start, end float64) { s.start, s.end = start, end }

func (s *Log) Range() (start, end float64) { return s.start, s.end }

func (s *Log) Convert(v any) float64 {
	x, ok := ToFloat(v)
	if !ok || !s.hasDomain || x <= 0 {
		return math.NaN()
	}
	t := s.log.Map(x)
	if s.Clamp {
		t = clamp(t, 0, 1)
	}
	return s.start + t*(s.end-s.start)
}

func (s *Log) Invert(position float64) any {
	if !s.hasDomain {
		return nil
	}
	if s.end == s.start {
		return s.log.Min
	}
	t := (position - s.start) / (s.end - s.start)
	if s.Clamp {
		t = clamp(t, 0, 1)
	}
	return s.log.Unmap(t)
}

func (s *Log) Ticks(max int) iter.Seq[any] {
	if !s.hasDomain || max < 1 {
		return emptySeq
	}
	l := s.log
	return func(yield func(any) bool) {
		major, _ := l.Ticks(mscale.TickOptions{Max: max})
		for _, t := range major {
			if !yield(t) {
				return
			}
		}
	}
}
