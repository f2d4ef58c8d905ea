// Package scale maps data domain values onto numeric range positions.
//
// Continuous scales (Linear, Log, Time) interpolate between the ends of
// their domain and extrapolate outside of it unless clamped. Band scales
// give each category a fixed-width slot within the range.
package scale

import (
	"errors"
	"fmt"
	"iter"
	"math"
	"reflect"
	"time"

	"golang.org/x/exp/constraints"
)

// ErrInvalidDomain is returned when a domain cannot be used by a scale,
// for example a non-positive bound on a logarithmic scale.
var ErrInvalidDomain = errors.New("invalid scale domain")

type Kind uint8

const (
	KindLinear Kind = iota
	KindLog
	KindTime
	KindBand
)

func (k Kind) String() string {
	switch k {
	case KindLinear:
		return "linear"
	case KindLog:
		return "log"
	case KindTime:
		return "time"
	case KindBand:
		return "band"
	default:
		return "unknown"
	}
}

// Scale converts domain values into range positions.
type Scale interface {
	Kind() Kind
	// Continuous reports whether the scale interpolates between domain
	// bounds rather than enumerating categories.
	Continuous() bool
	// SetDomain replaces the domain. Continuous scales take the extent of
	// the values provided; band scales take the distinct values in order.
	SetDomain(values []any)
	Domain() []any
	SetRange(start, end float64)
	Range() (start, end float64)
	// Convert returns the range position of v, or NaN if v cannot be
	// placed on this scale.
	Convert(v any) float64
	// Invert returns the domain value at a range position. Band scales
	// return the nearest category.
	Invert(position float64) any
	// Ticks returns representative domain values. The sequence is
	// computed lazily and may be ranged over any number of times.
	Ticks(max int) iter.Seq[any]
}

// Bander is implemented by scales with fixed-width category slots.
type Bander interface {
	Bandwidth() float64
	Step() float64
}

// ToFloat converts a numeric or time value into a float64. Times are
// expressed in Unix milliseconds. The second return is false for values
// that have no numeric interpretation.
func ToFloat(v any) (float64, bool) {
	switch v := v.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int8:
		return float64(v), true
	case int16:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint:
		return float64(v), true
	case uint8:
		return float64(v), true
	case uint16:
		return float64(v), true
	case uint32:
		return float64(v), true
	case uint64:
		return float64(v), true
	case time.Time:
		return float64(v.UnixMilli()), true
	case interface{ Float64() (float64, error) }:
		f, err := v.Float64()
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// ToFiniteFloat is like ToFloat but also rejects NaN and infinities.
func ToFiniteFloat(v any) (float64, bool) {
	f, ok := ToFloat(v)
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

type timeKey int64

// Key normalizes a category value so that equal categories compare equal
// as map keys: numbers become float64 and times become their instant.
// Values that cannot be map keys, such as slices, are keyed by their
// printed form.
func Key(v any) any {
	switch t := v.(type) {
	case time.Time:
		return timeKey(t.UnixNano())
	case string, bool, nil:
		return v
	}
	if f, ok := ToFloat(v); ok {
		return f
	}
	if !reflect.TypeOf(v).Comparable() {
		return fmt.Sprintf("%#v", v)
	}
	return v
}

func clamp[T constraints.Integer | constraints.Float](v, lo, hi T) T {
	return max(lo, min(v, hi))
}

func emptySeq(func(any) bool) {}
