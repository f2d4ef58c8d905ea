package scale

import (
	"math"
	"time"
)

// FixNumericExtent makes a [min,max] extent usable as a continuous domain.
// A zero-length extent around 0 becomes [0,1], any other zero-length
// extent is widened by 1% of its magnitude on both sides, and an extent
// without finite bounds (such as the empty accumulator [+Inf,-Inf])
// yields an empty result.
func FixNumericExtent(extent []float64) []float64 {
	if len(extent) < 2 {
		return []float64{}
	}
	lo, hi := extent[0], extent[len(extent)-1]
	if math.IsNaN(lo) || math.IsNaN(hi) || math.IsInf(lo, 0) || math.IsInf(hi, 0) {
		return []float64{}
	}
	if lo > hi {
		lo, hi = hi, lo
	}
	if lo == hi {
		if lo == 0 {
			return []float64{0, 1}
		}
		padding := math.Abs(lo) * 0.01
		return []float64{lo - padding, hi + padding}
	}
	return []float64{lo, hi}
}

// DefaultTimeUnit is the padding applied around a single-instant time
// domain.
const DefaultTimeUnit = 24 * time.Hour

// FixTimeExtent is the time equivalent of FixNumericExtent. A single
// instant is widened by one unit on each side. A zero unit selects
// DefaultTimeUnit.
func FixTimeExtent(lo, hi time.Time, unit time.Duration) []time.Time {
	if lo.IsZero() || hi.IsZero() {
		return []time.Time{}
	}
	if unit <= 0 {
		unit = DefaultTimeUnit
	}
	if hi.Before(lo) {
		lo, hi = hi, lo
	}
	if lo.Equal(hi) {
		return []time.Time{lo.Add(-unit), hi.Add(unit)}
	}
	return []time.Time{lo, hi}
}

// Extent returns the [min,max] of the finite numeric values in vs, or the
// empty accumulator [+Inf,-Inf] when there are none.
func Extent(vs []any) []float64 {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range vs {
		f, ok := ToFiniteFloat(v)
		if !ok {
			continue
		}
		lo = min(lo, f)
		hi = max(hi, f)
	}
	return []float64{lo, hi}
}
