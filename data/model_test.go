package data

import (
	"context"
	"errors"
	"math"
	"slices"
	"testing"
)

func mustModel(t *testing.T, def Definition) *Model {
	t.Helper()
	m, err := NewModel(def)
	if err != nil {
		t.Fatalf("failed building model: %v", err)
	}
	return m
}

func process(t *testing.T, m *Model, rows []RawDatum) *ProcessedData {
	t.Helper()
	pd, err := m.Process(context.Background(), rows)
	if err != nil {
		t.Fatalf("failed processing: %v", err)
	}
	return pd
}

func TestProcessExcludesInvalidRowsButKeepsThem(t *testing.T) {
	m := mustModel(t, Definition{
		Properties: []Property{
			Key("x", "x", Continuous()),
			Value("y", "y"),
		},
	})
	pd := process(t, m, []RawDatum{
		{"x": 1, "y": 5},
		{"x": 2, "y": nil},
		{"x": 3, "y": 7},
	})
	if pd.Len() != 3 {
		t.Fatalf("expected 3 raw rows, got %d", pd.Len())
	}
	if pd.InvalidCount != 1 || pd.RowValid(1) || !pd.RowValid(0) || !pd.RowValid(2) {
		t.Errorf("expected only row 1 invalid, got %v", pd.Invalid)
	}
	dom := pd.Domain("y")
	if dom.Min != 5 || dom.Max != 7 {
		t.Errorf("expected y domain [5,7], got [%v,%v]", dom.Min, dom.Max)
	}
	if got := pd.Domain("x").Values(); !slices.Equal(got, []any{1.0, 3.0}) {
		t.Errorf("expected invalid rows excluded from x domain, got %v", got)
	}
}

func TestProcessPolicies(t *testing.T) {
	type testcase struct {
		name         string
		prop         Property
		rows         []RawDatum
		expectValues []any
		expectValid  []bool
	}
	rows := []RawDatum{
		{"v": 1.5},
		{},
		{"v": "oops"},
		{"v": math.NaN()},
	}
	for _, tc := range []testcase{
		{
			name:         "no policy",
			prop:         Value("v", "v"),
			rows:         rows,
			expectValues: []any{1.5, nil, "oops", math.NaN()},
			expectValid:  []bool{true, false, false, false},
		},
		{
			name:         "missing value",
			prop:         Value("v", "v", WithMissingValue(0.0)),
			rows:         rows,
			expectValues: []any{1.5, 0.0, "oops", math.NaN()},
			expectValid:  []bool{true, true, false, false},
		},
		{
			name:         "invalid value",
			prop:         Value("v", "v", WithInvalidValue(-1.0)),
			rows:         rows,
			expectValues: []any{1.5, nil, -1.0, -1.0},
			expectValid:  []bool{true, false, true, true},
		},
		{
			name:         "force value",
			prop:         Value("v", "v", WithForceValue(0.0)),
			rows:         rows,
			expectValues: []any{0.0, 0.0, 0.0, 0.0},
			expectValid:  []bool{true, true, true, true},
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			pd := process(t, mustModel(t, Definition{Properties: []Property{tc.prop}}), tc.rows)
			if pd.Len() != len(tc.rows) {
				t.Fatalf("expected %d rows, got %d", len(tc.rows), pd.Len())
			}
			for i := range tc.rows {
				v, ok := pd.Value("v", i)
				if ok != tc.expectValid[i] {
					t.Errorf("[%d] expected valid %v, got %v", i, tc.expectValid[i], ok)
				}
				if f, isFloat := v.(float64); isFloat && math.IsNaN(f) {
					if e, ok := tc.expectValues[i].(float64); !ok || !math.IsNaN(e) {
						t.Errorf("[%d] expected %v, got NaN", i, tc.expectValues[i])
					}
					continue
				}
				if v != tc.expectValues[i] {
					t.Errorf("[%d] expected value %v, got %v", i, tc.expectValues[i], v)
				}
			}
		})
	}
}

func TestOptionalPropertyKeepsRowValid(t *testing.T) {
	m := mustModel(t, Definition{Properties: []Property{
		Value("y", "y"),
		Value("label", "label", Category(), Optional()),
	}})
	pd := process(t, m, []RawDatum{{"y": 1}})
	if !pd.RowValid(0) {
		t.Errorf("expected optional property to leave row valid")
	}
}

func TestCategoryDomainOrder(t *testing.T) {
	m := mustModel(t, Definition{Properties: []Property{Key("c", "c")}})
	pd := process(t, m, []RawDatum{{"c": "b"}, {"c": "a"}, {"c": "b"}, {"c": 3}, {"c": 3.0}})
	got := pd.Domain("c").Values()
	if !slices.Equal(got, []any{"b", "a", 3}) {
		t.Errorf("expected distinct categories in first-seen order, got %v", got)
	}
}

func TestNewModelValidation(t *testing.T) {
	for _, def := range []Definition{
		{Properties: []Property{Value("", "y")}},
		{Properties: []Property{Value("y", "")}},
		{Properties: []Property{Value("y", "y"), Value("y", "z")}},
		{Properties: []Property{Key("k", "k")}, Stacks: []StackGroup{{ID: "s", Properties: []string{"k"}}}},
		{Properties: []Property{Value("y", "y")}, Stacks: []StackGroup{{ID: "s", Properties: []string{"nope"}}}},
		{Reducers: []Reducer{{ID: "r"}}},
	} {
		if _, err := NewModel(def); err == nil {
			t.Errorf("expected error for %+v", def)
		}
	}
}

func TestGrouping(t *testing.T) {
	m := mustModel(t, Definition{
		Properties:  []Property{Key("x", "x"), Key("s", "s"), Value("y", "y")},
		GroupByKeys: true,
	})
	pd := process(t, m, []RawDatum{
		{"x": "a", "s": 1, "y": 1},
		{"x": "b", "s": 1, "y": 2},
		{"x": "a", "s": 1.0, "y": 3},
		{"x": "a", "s": 2, "y": 4},
		{"x": "a", "s": 2},
	})
	if len(pd.Groups) != 3 {
		t.Fatalf("expected 3 groups, got %+v", pd.Groups)
	}
	if !slices.Equal(pd.Groups[0].Rows, []int{0, 2}) {
		t.Errorf("expected rows 0 and 2 grouped, got %v", pd.Groups[0].Rows)
	}
	if !slices.Equal(pd.Groups[2].Rows, []int{3}) {
		t.Errorf("expected invalid row left out of groups, got %v", pd.Groups[2].Rows)
	}
}

func TestStacking(t *testing.T) {
	type expectation struct {
		prop       string
		row        int
		start, end float64
	}
	type testcase struct {
		name   string
		group  StackGroup
		expect []expectation
		min    float64
		max    float64
	}
	rows := []RawDatum{
		{"a": 1, "b": -2, "c": 3},
		{"a": 2, "b": 2, "c": nil},
	}
	for _, tc := range []testcase{
		{
			name:  "single baseline",
			group: StackGroup{ID: "s", Properties: []string{"a", "b", "c"}},
			expect: []expectation{
				{prop: "a", row: 0, start: 0, end: 1},
				{prop: "b", row: 0, start: 1, end: -1},
				{prop: "c", row: 0, start: -1, end: 2},
				{prop: "b", row: 1, start: 2, end: 4},
			},
			min: -1,
			max: 4,
		},
		{
			name:  "separate negative",
			group: StackGroup{ID: "s", Properties: []string{"a", "b", "c"}, SeparateNegative: true},
			expect: []expectation{
				{prop: "a", row: 0, start: 0, end: 1},
				{prop: "b", row: 0, start: 0, end: -2},
				{prop: "c", row: 0, start: 1, end: 4},
			},
			min: -2,
			max: 4,
		},
		{
			name:  "normalized",
			group: StackGroup{ID: "s", Properties: []string{"a", "b", "c"}, SeparateNegative: true, NormalizeTo: 100},
			expect: []expectation{
				{prop: "a", row: 0, start: 0, end: 100.0 / 6},
				{prop: "b", row: 0, start: 0, end: -200.0 / 6},
				{prop: "c", row: 0, start: 100.0 / 6, end: 400.0 / 6},
				{prop: "b", row: 1, start: 50, end: 100},
			},
			min: -200.0 / 6,
			max: 100,
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			m := mustModel(t, Definition{
				Properties: []Property{
					Value("a", "a"),
					Value("b", "b"),
					Value("c", "c", Optional()),
				},
				Stacks: []StackGroup{tc.group},
			})
			pd := process(t, m, rows)
			for _, e := range tc.expect {
				r, ok := pd.StackRange("s", e.prop, e.row)
				if !ok {
					t.Errorf("expected %s[%d] to be stacked", e.prop, e.row)
					continue
				}
				if math.Abs(r.Start-e.start) > 1e-9 || math.Abs(r.End-e.end) > 1e-9 {
					t.Errorf("expected %s[%d] = [%v,%v], got [%v,%v]", e.prop, e.row, e.start, e.end, r.Start, r.End)
				}
			}
			if _, ok := pd.StackRange("s", "c", 1); ok {
				t.Errorf("expected missing optional value to be unstacked")
			}
			st, _ := pd.Stack("s")
			if math.Abs(st.Min-tc.min) > 1e-9 || math.Abs(st.Max-tc.max) > 1e-9 {
				t.Errorf("expected extent [%v,%v], got [%v,%v]", tc.min, tc.max, st.Min, st.Max)
			}
		})
	}
}

func TestStackingAcrossGroupRows(t *testing.T) {
	m := mustModel(t, Definition{
		Properties:  []Property{Key("x", "x"), Value("y", "y")},
		GroupByKeys: true,
		Stacks:      []StackGroup{{ID: "s", Properties: []string{"y"}}},
	})
	pd := process(t, m, []RawDatum{
		{"x": "a", "y": 1},
		{"x": "b", "y": 5},
		{"x": "a", "y": 2},
	})
	r, _ := pd.StackRange("s", "y", 2)
	if r.Start != 1 || r.End != 3 {
		t.Errorf("expected second row of group a to stack on the first, got %+v", r)
	}
	r, _ = pd.StackRange("s", "y", 1)
	if r.Start != 0 || r.End != 5 {
		t.Errorf("expected group b to start from zero, got %+v", r)
	}
}

func TestReducers(t *testing.T) {
	m := mustModel(t, Definition{
		Properties: []Property{Key("x", "x", Continuous()), Value("y", "y")},
		Reducers: []Reducer{
			SmallestKeyInterval("smallest", "x"),
			LargestKeyInterval("largest", "x"),
			Sum("total", "y"),
		},
	})
	pd := process(t, m, []RawDatum{
		{"x": 0, "y": 1},
		{"x": 4, "y": 1},
		{"x": 4, "y": 1},
		{"x": 5, "y": nil},
		{"x": 6, "y": 2},
	})
	if got := pd.Reduced["smallest"]; got != 2.0 {
		t.Errorf("expected smallest interval 2, got %v", got)
	}
	if got := pd.Reduced["largest"]; got != 4.0 {
		t.Errorf("expected largest interval 4, got %v", got)
	}
	if got := pd.Reduced["total"]; got != 5.0 {
		t.Errorf("expected sum 5, got %v", got)
	}
}

func TestProcessCancelled(t *testing.T) {
	m := mustModel(t, Definition{Properties: []Property{Value("y", "y")}})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := m.Process(ctx, []RawDatum{{"y": 1}}); !errors.Is(err, context.Canceled) {
		t.Errorf("expected cancellation error, got %v", err)
	}
}

func TestProcessorLastRequestWins(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	slow := mustModel(t, Definition{Properties: []Property{
		Value("y", "y", WithValidator(func(v any) bool {
			if v == "slow" {
				close(started)
				<-release
			}
			return true
		}), Category()),
	}})
	fast := mustModel(t, Definition{Properties: []Property{Value("y", "y")}})

	var p Processor
	type result struct {
		pd  *ProcessedData
		err error
	}
	done := make(chan result)
	go func() {
		pd, err := p.Process(context.Background(), slow, []RawDatum{{"y": "slow"}})
		done <- result{pd, err}
	}()
	<-started

	newer, err := p.Process(context.Background(), fast, []RawDatum{{"y": 1}, {"y": 2}})
	if err != nil {
		t.Fatalf("expected newer request to succeed, got %v", err)
	}
	close(release)
	stale := <-done
	if !errors.Is(stale.err, ErrSuperseded) || stale.pd != nil {
		t.Errorf("expected stale request to be superseded, got %v", stale.err)
	}
	if p.Latest() != newer {
		t.Errorf("expected latest snapshot to be the newer request")
	}
	if newer.Seq != p.Seq() {
		t.Errorf("expected snapshot sequence %d, got %d", p.Seq(), newer.Seq)
	}
}
