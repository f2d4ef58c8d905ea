// Package anim runs per-node interpolation tasks keyed by stable ids.
package anim

import (
	"slices"
	"time"
)

// ApplyFunc receives interpolated values. It must not retain v.
type ApplyFunc func(v []float64)

type task struct {
	id       any
	from, to []float64
	start    time.Time
	apply    ApplyFunc
	scratch  []float64
	finished bool
}

// Manager drives interpolation tasks. Tasks advance only when Tick is
// called, so a Manager is driven by the caller's frame loop.
type Manager struct {
	// Duration of every transition. Zero disables animation: Animate
	// applies the final values at once.
	Duration time.Duration
	tasks    map[any]*task
	order    []*task
}

// NewManager returns a manager running transitions of length d.
func NewManager(d time.Duration) *Manager {
	return &Manager{Duration: d, tasks: map[any]*task{}}
}

// Animate starts interpolating from from to to for id, replacing any task
// already running for id. A running task is replaced starting from its
// current values, so transitions chain without jumps.
func (m *Manager) Animate(now time.Time, id any, from, to []float64, apply ApplyFunc) {
	if m.tasks == nil {
		m.tasks = map[any]*task{}
	}
	if old, ok := m.tasks[id]; ok {
		if len(old.scratch) == len(from) && len(old.scratch) > 0 {
			from = slices.Clone(old.scratch)
		}
		m.remove(old)
	}
	if m.Duration <= 0 || len(from) != len(to) {
		apply(to)
		return
	}
	t := &task{
		id:      id,
		from:    slices.Clone(from),
		to:      slices.Clone(to),
		start:   now,
		apply:   apply,
		scratch: slices.Clone(from),
	}
	m.tasks[id] = t
	m.order = append(m.order, t)
	apply(t.scratch)
}

// Tick advances every task to now, in the order they were started, and
// drops finished ones. It reports whether any task is still running.
func (m *Manager) Tick(now time.Time) bool {
	for _, t := range m.order {
		p := 1.0
		if elapsed := now.Sub(t.start); elapsed < m.Duration {
			p = max(0, float64(elapsed)/float64(m.Duration))
		}
		for i := range t.scratch {
			t.scratch[i] = t.from[i] + (t.to[i]-t.from[i])*p
		}
		t.apply(t.scratch)
		if p >= 1 {
			t.finished = true
			delete(m.tasks, t.id)
		}
	}
	m.order = slices.DeleteFunc(m.order, func(t *task) bool { return t.finished })
	return len(m.order) > 0
}

// Stop cancels the task for id without applying its final values. It
// reports whether a task was running.
func (m *Manager) Stop(id any) bool {
	t, ok := m.tasks[id]
	if !ok {
		return false
	}
	m.remove(t)
	return true
}

// StopAll cancels every task.
func (m *Manager) StopAll() {
	clear(m.tasks)
	m.order = m.order[:0]
}

// Running reports whether a task is in flight for id.
func (m *Manager) Running(id any) bool {
	_, ok := m.tasks[id]
	return ok
}

// Active returns the number of tasks in flight.
func (m *Manager) Active() int {
	return len(m.order)
}

func (m *Manager) remove(t *task) {
	delete(m.tasks, t.id)
	m.order = slices.DeleteFunc(m.order, func(o *task) bool { return o == t })
}
