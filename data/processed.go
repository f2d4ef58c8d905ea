package data

import (
	"math"
	"time"
)

// Column holds the resolved values of one property, indexed by row.
type Column struct {
	Property Property
	Values   []any
	// Numbers holds the numeric form of each value, NaN where there is
	// none. Times are in Unix milliseconds.
	Numbers []float64
	Valid   []bool
}

// Domain is the extent of a column over the valid rows.
type Domain struct {
	Continuous bool
	// Time is set when the continuous values were instants.
	Time       bool
	Min, Max   float64
	Categories []any
}

func emptyDomain(continuous bool) Domain {
	return Domain{Continuous: continuous, Min: math.Inf(1), Max: math.Inf(-1)}
}

// Empty reports whether no valid value contributed to the domain.
func (d Domain) Empty() bool {
	if d.Continuous {
		return d.Min > d.Max
	}
	return len(d.Categories) == 0
}

// Extent returns [min,max] for continuous domains.
func (d Domain) Extent() []float64 {
	return []float64{d.Min, d.Max}
}

// Values returns [min,max] for continuous domains and the categories in
// order of first appearance otherwise. Empty domains return an empty
// slice.
func (d Domain) Values() []any {
	if d.Empty() {
		return []any{}
	}
	if !d.Continuous {
		out := make([]any, len(d.Categories))
		copy(out, d.Categories)
		return out
	}
	if d.Time {
		return []any{time.UnixMilli(int64(d.Min)), time.UnixMilli(int64(d.Max))}
	}
	return []any{d.Min, d.Max}
}

// Group is a partition of rows sharing the same composite key.
type Group struct {
	Keys []any
	Rows []int
}

// Range is the span one stacked value occupies.
type Range struct {
	Start, End float64
	Valid      bool
}

// Stack holds the accumulated ranges of one stack group.
type Stack struct {
	Group  StackGroup
	Ranges map[string][]Range
	Min    float64
	Max    float64
}

// ProcessedData is an immutable snapshot produced by Model.Process. It is
// never modified after construction.
type ProcessedData struct {
	// Seq is the request sequence number that produced this snapshot.
	Seq uint64
	// RawData preserves every input row in input order.
	RawData []RawDatum
	// Invalid marks rows with at least one unusable required value.
	Invalid      []bool
	InvalidCount int
	Groups       []Group
	Reduced      map[string]any

	columns map[string]*Column
	order   []string
	domains map[string]Domain
	stacks  map[string]*Stack
}

// Len returns the number of input rows.
func (p *ProcessedData) Len() int {
	if p == nil {
		return 0
	}
	return len(p.RawData)
}

// RowValid reports whether row can be used for node data.
func (p *ProcessedData) RowValid(row int) bool {
	return p != nil && row >= 0 && row < len(p.Invalid) && !p.Invalid[row]
}

// Column returns the resolved column for a property id.
func (p *ProcessedData) Column(id string) (*Column, bool) {
	if p == nil {
		return nil, false
	}
	c, ok := p.columns[id]
	return c, ok
}

// ColumnIDs returns the property ids in declaration order.
func (p *ProcessedData) ColumnIDs() []string {
	if p == nil {
		return nil
	}
	return append([]string(nil), p.order...)
}

// Value returns the resolved value of a property for a row.
func (p *ProcessedData) Value(id string, row int) (any, bool) {
	c, ok := p.Column(id)
	if !ok || row < 0 || row >= len(c.Values) {
		return nil, false
	}
	return c.Values[row], c.Valid[row]
}

// Number returns the numeric value of a property for a row.
func (p *ProcessedData) Number(id string, row int) (float64, bool) {
	c, ok := p.Column(id)
	if !ok || row < 0 || row >= len(c.Numbers) {
		return math.NaN(), false
	}
	n := c.Numbers[row]
	return n, c.Valid[row] && !math.IsNaN(n)
}

// Domain returns the domain of a property. Unknown ids yield an empty
// continuous domain.
func (p *ProcessedData) Domain(id string) Domain {
	if p == nil {
		return emptyDomain(true)
	}
	d, ok := p.domains[id]
	if !ok {
		return emptyDomain(true)
	}
	return d
}

// Stack returns the accumulated ranges of a stack group.
func (p *ProcessedData) Stack(id string) (*Stack, bool) {
	if p == nil {
		return nil, false
	}
	s, ok := p.stacks[id]
	return s, ok
}

// StackRange returns the stacked span of a value property for a row.
func (p *ProcessedData) StackRange(stackID, propID string, row int) (Range, bool) {
	s, ok := p.Stack(stackID)
	if !ok {
		return Range{}, false
	}
	rs, ok := s.Ranges[propID]
	if !ok || row < 0 || row >= len(rs) {
		return Range{}, false
	}
	return rs[row], rs[row].Valid
}
