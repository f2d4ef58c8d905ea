package chart

import (
	"context"
	"errors"
	"math"
	"reflect"
	"testing"
	"time"

	"gioui.org/f32"

	"git.sr.ht/~whereswaldon/plotwise/data"
	"git.sr.ht/~whereswaldon/plotwise/highlight"
	"git.sr.ht/~whereswaldon/plotwise/scene"
	"git.sr.ht/~whereswaldon/plotwise/series"
)

func TestCombineDomains(t *testing.T) {
	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	type testcase struct {
		name       string
		continuous bool
		domains    [][]any
		expected   []any
	}
	for _, tc := range []testcase{
		{
			name:     "category union",
			domains:  [][]any{{"a", "b"}, {"b", "c"}, nil},
			expected: []any{"a", "b", "c"},
		},
		{
			name:       "continuous extent",
			continuous: true,
			domains:    [][]any{{1.0, 3.0}, {2.0, 5.0}},
			expected:   []any{1.0, 5.0},
		},
		{
			name:       "single value padded",
			continuous: true,
			domains:    [][]any{{5.0, 5.0}},
			expected:   []any{4.95, 5.05},
		},
		{
			name:       "empty",
			continuous: true,
			domains:    [][]any{nil, {}},
			expected:   []any{},
		},
		{
			name:       "instants",
			continuous: true,
			domains:    [][]any{{t0, t0.Add(time.Hour)}, {t0.Add(-time.Hour), t0}},
			expected:   []any{time.UnixMilli(t0.Add(-time.Hour).UnixMilli()), time.UnixMilli(t0.Add(time.Hour).UnixMilli())},
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			got := CombineDomains(tc.continuous, tc.domains...)
			if len(got) != len(tc.expected) {
				t.Fatalf("expected %v, got %v", tc.expected, got)
			}
			for i := range got {
				switch e := tc.expected[i].(type) {
				case float64:
					if g, ok := got[i].(float64); !ok || math.Abs(g-e) > 1e-9 {
						t.Errorf("expected %v, got %v", tc.expected, got)
					}
				case time.Time:
					if g, ok := got[i].(time.Time); !ok || !g.Equal(e) {
						t.Errorf("expected %v, got %v", tc.expected, got)
					}
				default:
					if got[i] != e {
						t.Errorf("expected %v, got %v", tc.expected, got)
					}
				}
			}
		})
	}
}

// newTestChart returns a 100x100 chart without margins holding two line
// series, a below b.
func newTestChart(t *testing.T, opts ...Option) (*Chart, *series.Series, *series.Series) {
	t.Helper()
	dim := 0.2
	aOpts := series.Options{ID: "a"}
	aOpts.Highlight.Series.DimOpacity = &dim
	a, err := series.NewLine(series.LineOptions{Options: aOpts, XKey: "x", YKey: "a"})
	if err != nil {
		t.Fatal(err)
	}
	b, err := series.NewLine(series.LineOptions{Options: series.Options{ID: "b"}, XKey: "x", YKey: "b"})
	if err != nil {
		t.Fatal(err)
	}
	c := New(append([]Option{WithSize(100, 100), WithMargin(Margin{})}, opts...)...)
	c.AddSeries(a, b)
	rows := []data.RawDatum{
		{"x": 0.0, "a": 1.0, "b": 3.0},
		{"x": 10.0, "a": 2.0, "b": 9.0},
	}
	if err := c.SetData(context.Background(), rows); err != nil {
		t.Fatal(err)
	}
	c.Update(time.Now())
	return c, a, b
}

func TestChartUpdate(t *testing.T) {
	c, _, b := newTestChart(t)
	if got := c.Axis(series.X).Scale.Domain(); !reflect.DeepEqual(got, []any{0.0, 10.0}) {
		t.Errorf("expected x domain [0 10], got %v", got)
	}
	if got := c.Axis(series.Y).Scale.Domain(); !reflect.DeepEqual(got, []any{1.0, 9.0}) {
		t.Errorf("expected y domain [1 9], got %v", got)
	}
	nodes := b.Groups()[1].Nodes
	if len(nodes) != 2 {
		t.Fatalf("expected 2 nodes, got %d", len(nodes))
	}
	m := nodes[0].(*scene.Marker)
	if m.X != 0 || m.Y != 75 {
		t.Errorf("expected (0,75), got (%v,%v)", m.X, m.Y)
	}
	if n := len(c.Groups()); n != 6 {
		t.Errorf("expected 3 groups per series, got %d", n)
	}
	if ticks := c.Axis(series.X).TickMarks(); len(ticks) == 0 || ticks[0].Position != 0 {
		t.Errorf("expected ticks starting at 0, got %v", ticks)
	}
}

func TestChartPick(t *testing.T) {
	c, _, b := newTestChart(t)
	hit, ok, err := c.Pick(f32.Pt(100, 0))
	if err != nil || !ok {
		t.Fatalf("expected a hit, got %v %v", ok, err)
	}
	if hit.Series != b || hit.Datum.Index != 1 {
		t.Errorf("expected row 1 of b, got row %d of %s", hit.Datum.Index, hit.Series.ID())
	}
	if hit.Distance != 0 {
		t.Errorf("expected distance 0, got %v", hit.Distance)
	}
}

func TestChartHover(t *testing.T) {
	c, a, b := newTestChart(t)
	var events []highlight.Event
	remove := c.OnHighlight(func(ev highlight.Event) { events = append(events, ev) })
	defer remove()

	opacity := func(s *series.Series) float64 {
		return s.Groups()[1].Nodes[0].NodeStyle().Opacity
	}
	// Chart coordinates equal plot coordinates without margins.
	hit, ok := c.Hover(f32.Pt(100, 0))
	if !ok || hit.Series != b {
		t.Fatalf("expected to hover b, got %v", ok)
	}
	if h := c.Highlighted(); h == nil || h.SeriesID != "b" || h.DatumIndex != 1 {
		t.Errorf("expected row 1 of b highlighted, got %v", h)
	}
	if o := opacity(a); o != 0.2 {
		t.Errorf("expected a dimmed to 0.2, got %v", o)
	}
	if o := opacity(b); o != 1 {
		t.Errorf("expected b at full opacity, got %v", o)
	}

	// Hovering the same datum again is not a change.
	c.Hover(f32.Pt(99, 1))
	c.Leave()
	if h := c.Highlighted(); h != nil {
		t.Errorf("expected no highlight, got %v", h)
	}
	if o := opacity(a); o != 1 {
		t.Errorf("expected a restored, got %v", o)
	}
	if len(events) != 2 {
		t.Errorf("expected 2 highlight events, got %d", len(events))
	}
}

func TestChartLeaveClearsEveryHighlight(t *testing.T) {
	c, _, _ := newTestChart(t)
	c.Highlight("legend", &highlight.Target{SeriesID: "a", DatumIndex: 0})
	if _, ok := c.Hover(f32.Pt(100, 0)); !ok {
		t.Fatalf("expected to hover b")
	}
	if h := c.Highlighted(); h == nil || h.SeriesID != "b" {
		t.Errorf("expected the hover to replace the legend highlight, got %v", h)
	}
	c.Leave()
	if h := c.Highlighted(); h != nil {
		t.Errorf("expected no highlight after leaving, got %v", h)
	}

	c.Highlight("legend", &highlight.Target{SeriesID: "a", DatumIndex: 0})
	c.Highlight("legend", nil)
	if h := c.Highlighted(); h != nil {
		t.Errorf("expected a nil highlight to clear, got %v", h)
	}
}

func TestChartInvalidate(t *testing.T) {
	calls := 0
	s, _ := series.NewLine(series.LineOptions{XKey: "x", YKey: "y"})
	c := New(WithInvalidate(func() { calls++ }))
	c.AddSeries(s)
	ctx := context.Background()
	rows := []data.RawDatum{{"x": 1.0, "y": 1.0}, {"x": 2.0, "y": 2.0}}
	if err := c.SetData(ctx, rows); err != nil {
		t.Fatal(err)
	}
	s.MarkNodeDataDirty()
	if calls != 1 {
		t.Errorf("expected 1 invalidation, got %d", calls)
	}
	c.Update(time.Now())
	if calls != 1 {
		t.Errorf("expected the update not to invalidate, got %d", calls)
	}
	if err := c.SetData(ctx, rows); err != nil {
		t.Fatal(err)
	}
	if calls != 2 {
		t.Errorf("expected 2 invalidations, got %d", calls)
	}
}

func TestChartOptions(t *testing.T) {
	s, _ := series.NewBar(series.BarOptions{XKey: "x", YKeys: []string{"y"}})
	c := New(WithAnimation(time.Second), WithSize(200, 100), WithMargin(Margin{Left: 10, Top: 20}))
	c.AddSeries(s)
	if s.Animation() != time.Second {
		t.Errorf("expected the chart animation, got %v", s.Animation())
	}
	x, y, w, h := c.PlotArea()
	if x != 10 || y != 20 || w != 190 || h != 80 {
		t.Errorf("expected plot area (10,20) 190x80, got (%v,%v) %vx%v", x, y, w, h)
	}
	err := c.SetItemVisible(context.Background(), "missing", "y", false)
	if !errors.Is(err, ErrUnknownSeries) {
		t.Errorf("expected %v, got %v", ErrUnknownSeries, err)
	}
	if err := c.SetItemVisible(context.Background(), s.ID(), "y", false); err != nil {
		t.Errorf("expected no error, got %v", err)
	}
	if legend := c.Legend(); len(legend) != 1 || legend[0].Enabled {
		t.Errorf("expected one disabled entry, got %v", legend)
	}
}
