// Package data turns raw tabular rows into immutable ProcessedData
// snapshots: resolved columns, per-column domains, groups, stacks and
// scalar reductions.
package data

import (
	"math"
	"time"

	"git.sr.ht/~whereswaldon/plotwise/scale"
)

// RawDatum is one caller-supplied record. The pipeline never mutates it.
type RawDatum = map[string]any

type PropertyType uint8

const (
	KeyProperty PropertyType = iota
	ValueProperty
)

func (p PropertyType) String() string {
	if p == KeyProperty {
		return "key"
	}
	return "value"
}

// Property declares how one column is extracted from raw rows.
//
// Resolution of a cell happens in this order: a forced value replaces
// the raw value entirely; an absent or nil raw value is replaced by the
// missing value when one is configured; a value failing validation is
// replaced by the invalid value when one is configured. A cell that is
// still unusable after that marks its row invalid unless the property is
// optional. Rows are never dropped.
type Property struct {
	ID    string
	Field string
	Type  PropertyType
	// Continuous properties produce numeric [min,max] domains, the others
	// produce ordered category sets.
	Continuous bool
	// Optional properties never invalidate their row.
	Optional bool
	// Validate overrides the default validity check for raw values.
	Validate func(v any) bool

	MissingValue    any
	HasMissingValue bool
	InvalidValue    any
	HasInvalidValue bool
	ForceValue      any
	HasForceValue   bool
}

type PropertyOption func(*Property)

// Key declares a key column, categorical unless Continuous is given.
func Key(id, field string, opts ...PropertyOption) Property {
	p := Property{ID: id, Field: field, Type: KeyProperty}
	for _, o := range opts {
		o(&p)
	}
	return p
}

// Value declares a value column, continuous unless Category is given.
func Value(id, field string, opts ...PropertyOption) Property {
	p := Property{ID: id, Field: field, Type: ValueProperty, Continuous: true}
	for _, o := range opts {
		o(&p)
	}
	return p
}

func Continuous() PropertyOption { return func(p *Property) { p.Continuous = true } }

func Category() PropertyOption { return func(p *Property) { p.Continuous = false } }

func Optional() PropertyOption { return func(p *Property) { p.Optional = true } }

func WithValidator(fn func(any) bool) PropertyOption {
	return func(p *Property) { p.Validate = fn }
}

func WithMissingValue(v any) PropertyOption {
	return func(p *Property) { p.MissingValue, p.HasMissingValue = v, true }
}

func WithInvalidValue(v any) PropertyOption {
	return func(p *Property) { p.InvalidValue, p.HasInvalidValue = v, true }
}

func WithForceValue(v any) PropertyOption {
	return func(p *Property) { p.ForceValue, p.HasForceValue = v, true }
}

func (p *Property) valid(v any) bool {
	if p.Validate != nil {
		return p.Validate(v)
	}
	if v == nil {
		return false
	}
	if !p.Continuous {
		return true
	}
	if t, ok := v.(time.Time); ok {
		return !t.IsZero()
	}
	_, ok := scale.ToFiniteFloat(v)
	return ok
}

// resolve applies the property's policies to a raw row. The returned
// number is NaN for values without a finite numeric form.
func (p *Property) resolve(row RawDatum) (value any, number float64, ok bool) {
	if p.HasForceValue {
		value = p.ForceValue
	} else {
		raw, present := row[p.Field]
		switch {
		case !present || raw == nil:
			if !p.HasMissingValue {
				return nil, math.NaN(), false
			}
			value = p.MissingValue
		case !p.valid(raw):
			if !p.HasInvalidValue {
				return raw, math.NaN(), false
			}
			value = p.InvalidValue
		default:
			value = raw
		}
	}
	number, isNumber := scale.ToFiniteFloat(value)
	if !isNumber {
		number = math.NaN()
	}
	if value == nil || (p.Continuous && !isNumber) {
		return value, number, false
	}
	return value, number, true
}
