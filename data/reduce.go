package data

import "math"

// Row gives reducers access to one valid row of a snapshot being built.
type Row struct {
	pd    *ProcessedData
	Index int
}

func (r Row) Value(id string) (any, bool)      { return r.pd.Value(id, r.Index) }
func (r Row) Number(id string) (float64, bool) { return r.pd.Number(id, r.Index) }
func (r Row) Raw() RawDatum                    { return r.pd.RawData[r.Index] }

// Reducer folds every valid row into a scalar, in row order and in a
// single pass shared by all reducers of a model.
type Reducer struct {
	ID     string
	Init   func() any
	Step   func(acc any, row Row) any
	Finish func(acc any) any
}

type intervalAcc struct {
	prev    float64
	hasPrev bool
	best    float64
}

// SmallestKeyInterval reduces to the smallest non-zero distance between
// consecutive values of a continuous key, or +Inf when there is none.
func SmallestKeyInterval(id, keyID string) Reducer {
	return keyInterval(id, keyID, math.Inf(1), func(best, d float64) bool { return d < best })
}

// LargestKeyInterval reduces to the largest distance between consecutive
// values of a continuous key, or -Inf when there is none.
func LargestKeyInterval(id, keyID string) Reducer {
	return keyInterval(id, keyID, math.Inf(-1), func(best, d float64) bool { return d > best })
}

func keyInterval(id, keyID string, initial float64, better func(best, d float64) bool) Reducer {
	return Reducer{
		ID:   id,
		Init: func() any { return intervalAcc{best: initial} },
		Step: func(acc any, row Row) any {
			a := acc.(intervalAcc)
			v, ok := row.Number(keyID)
			if !ok {
				return a
			}
			if a.hasPrev {
				if d := math.Abs(v - a.prev); d > 0 && better(a.best, d) {
					a.best = d
				}
			}
			a.prev, a.hasPrev = v, true
			return a
		},
		Finish: func(acc any) any { return acc.(intervalAcc).best },
	}
}

// Sum reduces to the total of a continuous value over valid rows.
func Sum(id, valueID string) Reducer {
	return Reducer{
		ID:   id,
		Init: func() any { return 0.0 },
		Step: func(acc any, row Row) any {
			v, ok := row.Number(valueID)
			if !ok {
				return acc
			}
			return acc.(float64) + v
		},
	}
}

func reduce(pd *ProcessedData, reducers []Reducer) {
	if len(reducers) == 0 {
		return
	}
	accs := make([]any, len(reducers))
	for i, r := range reducers {
		if r.Init != nil {
			accs[i] = r.Init()
		}
	}
	for row := range pd.RawData {
		if pd.Invalid[row] {
			continue
		}
		for i, r := range reducers {
			accs[i] = r.Step(accs[i], Row{pd: pd, Index: row})
		}
	}
	for i, r := range reducers {
		if r.Finish != nil {
			accs[i] = r.Finish(accs[i])
		}
		pd.Reduced[r.ID] = accs[i]
	}
}
