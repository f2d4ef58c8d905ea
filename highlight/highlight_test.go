package highlight

import (
	"image/color"
	"slices"
	"testing"
)

func ptr[T any](v T) *T { return &v }

func TestExclusivity(t *testing.T) {
	m := NewManager()
	x := &Target{SeriesID: "s1", ItemID: "y", DatumIndex: 0}
	y := &Target{SeriesID: "s2", ItemID: "y", DatumIndex: 3}
	m.UpdateHighlight("chart", x)
	m.UpdateHighlight("chart", y)
	if m.Active() != y {
		t.Fatalf("expected y to be active, got %+v", m.Active())
	}
	ctx := m.Context()
	if got := Classify(ctx, "s2", "y", 3); got != Highlighted {
		t.Errorf("expected y highlighted, got %v", got)
	}
	if got := Classify(ctx, "s1", "y", 0); got != OtherHighlighted {
		t.Errorf("expected x other-highlighted, got %v", got)
	}

	m.UpdateHighlight("chart", &Target{SeriesID: "s2", ItemID: "y", DatumIndex: 1})
	if got := Classify(m.Context(), "s2", "y", 3); got != PeerHighlighted {
		t.Errorf("expected previous datum in the same series to be peer-highlighted, got %v", got)
	}
}

func TestClear(t *testing.T) {
	m := NewManager()
	m.UpdateHighlight("chart", &Target{SeriesID: "s"})
	m.UpdateHighlight("chart", nil)
	if m.Active() != nil {
		t.Errorf("expected nil clear, got %+v", m.Active())
	}
	if got := Classify(m.Context(), "s", "", 0); got != None {
		t.Errorf("expected no-highlight, got %v", got)
	}

	m.UpdateHighlight("legend", &Target{SeriesID: "s"})
	m.UpdateHighlight("chart", &Target{SeriesID: "t"})
	m.UpdateHighlight("chart", nil)
	if a := m.Active(); a != nil {
		t.Errorf("expected a nil update to clear every highlight, got %+v", a)
	}
	m.UpdateHighlight("legend", &Target{SeriesID: "s"})
	m.Clear()
	if m.Active() != nil {
		t.Errorf("expected Clear to remove the highlight")
	}
}

func TestListeners(t *testing.T) {
	m := NewManager()
	var calls []string
	var events []Event
	m.AddListener(func(ev Event) {
		calls = append(calls, "first")
		events = append(events, ev)
	})
	remove := m.AddListener(func(Event) { calls = append(calls, "second") })

	a := &Target{SeriesID: "s", DatumIndex: 1}
	b := &Target{SeriesID: "s", DatumIndex: 2}
	m.UpdateHighlight("chart", a)
	m.UpdateHighlight("chart", &Target{SeriesID: "s", DatumIndex: 1})
	m.UpdateHighlight("chart", b)
	remove()
	m.UpdateHighlight("chart", nil)

	if !slices.Equal(calls, []string{"first", "second", "first", "second", "first"}) {
		t.Errorf("expected registration order and no event for an unchanged highlight, got %v", calls)
	}
	if len(events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(events))
	}
	if !events[1].Previous.Matches(a) || events[1].Current != b {
		t.Errorf("expected previous and current targets, got %+v", events[1])
	}
	if events[2].Previous != b || events[2].Current != nil {
		t.Errorf("expected clearing event, got %+v", events[2])
	}
}

func TestOpacity(t *testing.T) {
	type testcase struct {
		name   string
		style  Style
		state  State
		expect float64
	}
	dim := Style{Series: SeriesStyle{DimOpacity: ptr(0.3)}}
	for _, tc := range []testcase{
		{name: "unset dim opacity", style: Style{}, state: OtherHighlighted, expect: 1},
		{name: "highlighted", style: dim, state: Highlighted, expect: 1},
		{name: "peer", style: dim, state: PeerHighlighted, expect: 0.3},
		{name: "other", style: dim, state: OtherHighlighted, expect: 0.3},
		{name: "none", style: dim, state: None, expect: 1},
		{name: "disabled", style: Style{Enabled: ptr(false), Series: dim.Series}, state: OtherHighlighted, expect: 1},
	} {
		t.Run(tc.name, func(t *testing.T) {
			if got := Opacity(tc.style, tc.state); got != tc.expect {
				t.Errorf("expected %v, got %v", tc.expect, got)
			}
		})
	}
}

func TestStrokeAndColors(t *testing.T) {
	style := Style{
		Item:   ItemStyle{StrokeWidth: ptr(4.0), Fill: &color.NRGBA{R: 255, A: 255}},
		Series: SeriesStyle{StrokeWidth: ptr(2.0)},
	}
	if got := StrokeWidth(style, Highlighted, 1); got != 4 {
		t.Errorf("expected item stroke width, got %v", got)
	}
	if got := StrokeWidth(style, PeerHighlighted, 1); got != 2 {
		t.Errorf("expected series stroke width, got %v", got)
	}
	if got := StrokeWidth(style, OtherHighlighted, 1); got != 1 {
		t.Errorf("expected base stroke width, got %v", got)
	}
	base := color.NRGBA{B: 255, A: 255}
	fill, stroke := Colors(style, Highlighted, base, base)
	if fill.R != 255 || stroke != base {
		t.Errorf("expected highlighted fill override only, got %v %v", fill, stroke)
	}
	if fill, _ := Colors(style, PeerHighlighted, base, base); fill != base {
		t.Errorf("expected peer to keep its fill, got %v", fill)
	}
}

func TestAffects(t *testing.T) {
	ev := Event{Previous: &Target{SeriesID: "a"}, Current: &Target{SeriesID: "b"}}
	if !Affects(ev, "a", false) || !Affects(ev, "b", false) {
		t.Errorf("expected both involved series to be affected")
	}
	if Affects(ev, "c", false) {
		t.Errorf("expected uninvolved series to be unaffected")
	}
	if !Affects(ev, "c", true) {
		t.Errorf("expected dimming to affect every series")
	}
}
