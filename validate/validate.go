// Package validate checks option structs against declarative schemas.
//
// A Schema is a list of rules, each naming the field it inspects. Running
// a schema collects every failing rule into Issues instead of stopping at
// the first one.
package validate

import (
	"fmt"
	"math"
	"slices"
	"strings"
)

// Issue describes one failing rule.
type Issue struct {
	Field   string
	Message string
}

func (i Issue) String() string {
	return i.Field + ": " + i.Message
}

// Issues is the list of problems found on one value. It is used as an
// error; a nil or empty Issues means the value is valid.
type Issues []Issue

func (is Issues) Error() string {
	parts := make([]string, len(is))
	for i, issue := range is {
		parts[i] = issue.String()
	}
	return "invalid options: " + strings.Join(parts, "; ")
}

// Err returns is as an error, or nil when there are no issues.
func (is Issues) Err() error {
	if len(is) == 0 {
		return nil
	}
	return is
}

// Has reports whether any issue concerns field.
func (is Issues) Has(field string) bool {
	return slices.ContainsFunc(is, func(i Issue) bool { return i.Field == field })
}

// Rule checks one field of T. Check returns an empty string when the
// value is acceptable and a description of the problem otherwise.
type Rule[T any] struct {
	Field string
	Check func(T) string
}

// Schema is an ordered list of rules.
type Schema[T any] []Rule[T]

// Check runs every rule and returns the issues found, in rule order.
func (s Schema[T]) Check(v T) Issues {
	var out Issues
	for _, r := range s {
		if msg := r.Check(v); msg != "" {
			out = append(out, Issue{Field: r.Field, Message: msg})
		}
	}
	return out
}

// Validate is Check returning an error.
func (s Schema[T]) Validate(v T) error {
	return s.Check(v).Err()
}

// Func builds a rule from a plain check function.
func Func[T any](field string, check func(T) string) Rule[T] {
	return Rule[T]{Field: field, Check: check}
}

// Between requires get(v) to be a finite number within [lo, hi].
func Between[T any](field string, get func(T) float64, lo, hi float64) Rule[T] {
	return Rule[T]{Field: field, Check: func(v T) string {
		x := get(v)
		if math.IsNaN(x) || math.IsInf(x, 0) || x < lo || x > hi {
			return fmt.Sprintf("must be between %v and %v, got %v", lo, hi, x)
		}
		return ""
	}}
}

// OptionalBetween is Between for fields where nil means unset.
func OptionalBetween[T any](field string, get func(T) *float64, lo, hi float64) Rule[T] {
	inner := Between(field, func(v T) float64 { return *get(v) }, lo, hi)
	return Rule[T]{Field: field, Check: func(v T) string {
		if get(v) == nil {
			return ""
		}
		return inner.Check(v)
	}}
}

// NonNegative requires get(v) to be a finite number >= 0.
func NonNegative[T any](field string, get func(T) float64) Rule[T] {
	return Between(field, get, 0, math.MaxFloat64)
}

// OneOf requires get(v) to be one of allowed. The zero value is accepted
// when allowZero is set, so optional enumerations can fall back to a
// default.
func OneOf[T any, E comparable](field string, get func(T) E, allowZero bool, allowed ...E) Rule[T] {
	return Rule[T]{Field: field, Check: func(v T) string {
		x := get(v)
		var zero E
		if (allowZero && x == zero) || slices.Contains(allowed, x) {
			return ""
		}
		return fmt.Sprintf("must be one of %v, got %v", allowed, x)
	}}
}

// Distinct requires the non-empty strings returned by get to be unique.
func Distinct[T any](field string, get func(T) []string) Rule[T] {
	return Rule[T]{Field: field, Check: func(v T) string {
		seen := map[string]struct{}{}
		for _, s := range get(v) {
			if s == "" {
				continue
			}
			if _, dup := seen[s]; dup {
				return fmt.Sprintf("duplicate entry %q", s)
			}
			seen[s] = struct{}{}
		}
		return ""
	}}
}

// Each applies check to every element returned by get, reporting the
// index of the first failing element.
func Each[T, E any](field string, get func(T) []E, check func(E) string) Rule[T] {
	return Rule[T]{Field: field, Check: func(v T) string {
		for i, e := range get(v) {
			if msg := check(e); msg != "" {
				return fmt.Sprintf("[%d] %s", i, msg)
			}
		}
		return ""
	}}
}
