package anim

import (
	"slices"
	"testing"
	"time"
)

func TestManagerInterpolates(t *testing.T) {
	m := NewManager(100 * time.Millisecond)
	start := time.Unix(0, 0)
	var got []float64
	m.Animate(start, "a", []float64{0, 10}, []float64{10, 20}, func(v []float64) { got = slices.Clone(v) })
	if !slices.Equal(got, []float64{0, 10}) {
		t.Errorf("expected start values applied, got %v", got)
	}

	type testcase struct {
		at      time.Duration
		expect  []float64
		running bool
	}
	for _, tc := range []testcase{
		{at: 50 * time.Millisecond, expect: []float64{5, 15}, running: true},
		{at: 100 * time.Millisecond, expect: []float64{10, 20}, running: false},
	} {
		running := m.Tick(start.Add(tc.at))
		if running != tc.running {
			t.Errorf("at %v expected running %v, got %v", tc.at, tc.running, running)
		}
		if !slices.Equal(got, tc.expect) {
			t.Errorf("at %v expected %v, got %v", tc.at, tc.expect, got)
		}
	}
	if m.Running("a") {
		t.Errorf("expected finished task to be dropped")
	}
}

func TestManagerStop(t *testing.T) {
	m := NewManager(time.Second)
	start := time.Unix(0, 0)
	calls := 0
	m.Animate(start, 1, []float64{0}, []float64{1}, func([]float64) { calls++ })
	m.Animate(start, 2, []float64{0}, []float64{1}, func([]float64) {})
	if !m.Stop(1) {
		t.Fatalf("expected running task to stop")
	}
	if m.Stop(1) {
		t.Errorf("expected second stop to report nothing running")
	}
	m.Tick(start.Add(2 * time.Second))
	if calls != 1 {
		t.Errorf("expected stopped task never to be applied again, got %d calls", calls)
	}
	if m.Active() != 0 {
		t.Errorf("expected no active tasks, got %d", m.Active())
	}
}

func TestManagerDisabled(t *testing.T) {
	m := NewManager(0)
	var got []float64
	m.Animate(time.Now(), "x", []float64{0}, []float64{3}, func(v []float64) { got = slices.Clone(v) })
	if !slices.Equal(got, []float64{3}) || m.Active() != 0 {
		t.Errorf("expected immediate final values, got %v", got)
	}
}

func TestManagerRetarget(t *testing.T) {
	m := NewManager(100 * time.Millisecond)
	start := time.Unix(0, 0)
	var got []float64
	apply := func(v []float64) { got = slices.Clone(v) }
	m.Animate(start, "a", []float64{0}, []float64{10}, apply)
	m.Tick(start.Add(50 * time.Millisecond))
	m.Animate(start.Add(50*time.Millisecond), "a", []float64{0}, []float64{0}, apply)
	if !slices.Equal(got, []float64{5}) {
		t.Errorf("expected retarget to continue from current value, got %v", got)
	}
	if m.Active() != 1 {
		t.Errorf("expected a single task for the id, got %d", m.Active())
	}
}
