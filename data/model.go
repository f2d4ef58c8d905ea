package data

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"git.sr.ht/~whereswaldon/plotwise/scale"
)

// checkEvery is how many rows are processed between cancellation checks.
const checkEvery = 1024

// Definition declares what a Model extracts from raw rows.
type Definition struct {
	Properties []Property
	// GroupByKeys partitions rows by the composite value of all key
	// properties.
	GroupByKeys bool
	Stacks      []StackGroup
	Reducers    []Reducer
}

// Model is a validated Definition.
type Model struct {
	def  Definition
	keys []int
}

// NewModel validates def. Property ids must be unique and non-empty,
// every property needs a field, and stack groups may only reference
// continuous value properties.
func NewModel(def Definition) (*Model, error) {
	var errs []error
	m := &Model{def: def}
	byID := map[string]Property{}
	for i, p := range def.Properties {
		switch {
		case p.ID == "":
			errs = append(errs, fmt.Errorf("property %d: empty id", i))
		case p.Field == "" && !p.HasForceValue:
			errs = append(errs, fmt.Errorf("property %q: empty field", p.ID))
		}
		if _, dup := byID[p.ID]; dup {
			errs = append(errs, fmt.Errorf("property %q: duplicate id", p.ID))
		}
		byID[p.ID] = p
		if p.Type == KeyProperty {
			m.keys = append(m.keys, i)
		}
	}
	for _, s := range def.Stacks {
		if s.ID == "" {
			errs = append(errs, errors.New("stack group: empty id"))
		}
		for _, id := range s.Properties {
			p, ok := byID[id]
			switch {
			case !ok:
				errs = append(errs, fmt.Errorf("stack group %q: unknown property %q", s.ID, id))
			case p.Type != ValueProperty || !p.Continuous:
				errs = append(errs, fmt.Errorf("stack group %q: property %q is not a continuous value", s.ID, id))
			}
		}
	}
	for _, r := range def.Reducers {
		if r.ID == "" || r.Step == nil {
			errs = append(errs, fmt.Errorf("reducer %q: missing id or step", r.ID))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return nil, fmt.Errorf("invalid data model: %w", err)
	}
	return m, nil
}

// Definition returns the definition the model was built from.
func (m *Model) Definition() Definition {
	return m.def
}

// Process resolves every row against the model. Every input row is kept
// in RawData; rows with unusable required values are flagged in
// Invalid and excluded from domains, groups, stacks and reductions.
// Process only fails when ctx is done.
func (m *Model) Process(ctx context.Context, rows []RawDatum) (*ProcessedData, error) {
	n := len(rows)
	pd := &ProcessedData{
		RawData: append([]RawDatum(nil), rows...),
		Invalid: make([]bool, n),
		Reduced: map[string]any{},
		columns: make(map[string]*Column, len(m.def.Properties)),
		domains: make(map[string]Domain, len(m.def.Properties)),
		stacks:  make(map[string]*Stack, len(m.def.Stacks)),
	}
	cols := make([]*Column, len(m.def.Properties))
	for i, p := range m.def.Properties {
		c := &Column{
			Property: p,
			Values:   make([]any, n),
			Numbers:  make([]float64, n),
			Valid:    make([]bool, n),
		}
		cols[i] = c
		pd.columns[p.ID] = c
		pd.order = append(pd.order, p.ID)
	}

	for row, raw := range rows {
		if row%checkEvery == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		for i := range m.def.Properties {
			p := &m.def.Properties[i]
			v, num, ok := p.resolve(raw)
			c := cols[i]
			c.Values[row], c.Numbers[row], c.Valid[row] = v, num, ok
			if !ok && !p.Optional {
				pd.Invalid[row] = true
			}
		}
		if pd.Invalid[row] {
			pd.InvalidCount++
		}
	}

	for _, c := range cols {
		pd.domains[c.Property.ID] = columnDomain(pd, c)
	}
	if m.def.GroupByKeys {
		pd.Groups = m.group(pd)
	}
	for _, s := range m.def.Stacks {
		pd.stacks[s.ID] = accumulate(pd, s)
	}
	reduce(pd, m.def.Reducers)
	return pd, nil
}

func columnDomain(pd *ProcessedData, c *Column) Domain {
	d := emptyDomain(c.Property.Continuous)
	seen := map[any]struct{}{}
	for row, v := range c.Values {
		if pd.Invalid[row] || !c.Valid[row] {
			continue
		}
		if d.Continuous {
			n := c.Numbers[row]
			d.Min = min(d.Min, n)
			d.Max = max(d.Max, n)
			if _, isTime := v.(time.Time); isTime {
				d.Time = true
			}
			continue
		}
		k := scale.Key(v)
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		d.Categories = append(d.Categories, v)
	}
	return d
}

func (m *Model) group(pd *ProcessedData) []Group {
	var groups []Group
	index := map[string]int{}
	keys := make([]any, len(m.keys))
	for row := range pd.RawData {
		if pd.Invalid[row] {
			continue
		}
		for i, pi := range m.keys {
			keys[i] = pd.columns[m.def.Properties[pi].ID].Values[row]
		}
		ck := compositeKey(keys)
		gi, ok := index[ck]
		if !ok {
			gi = len(groups)
			index[ck] = gi
			groups = append(groups, Group{Keys: append([]any(nil), keys...)})
		}
		groups[gi].Rows = append(groups[gi].Rows, row)
	}
	return groups
}

func compositeKey(keys []any) string {
	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteByte(0)
		}
		k = scale.Key(k)
		fmt.Fprintf(&b, "%T:%v", k, k)
	}
	return b.String()
}
