// Package highlight tracks the single chart-wide highlighted datum and
// resolves how every other datum is styled relative to it.
package highlight

import (
	"log/slog"
	"slices"
)

// Target identifies one highlighted datum.
type Target struct {
	SeriesID   string
	ItemID     string
	DatumIndex int
	Datum      any
}

// Matches reports whether t and o identify the same datum. Two nil
// targets match.
func (t *Target) Matches(o *Target) bool {
	if t == nil || o == nil {
		return t == o
	}
	return t.SeriesID == o.SeriesID && t.ItemID == o.ItemID && t.DatumIndex == o.DatumIndex
}

// Event is delivered to listeners whenever the active highlight changes.
type Event struct {
	Previous, Current *Target
}

type Listener func(Event)

type listener struct {
	id int
	fn Listener
}

// Manager holds the single active highlight. Activating a new highlight
// replaces the previous one and a nil update clears it, whichever caller
// placed it. Listeners run synchronously in registration order.
type Manager struct {
	active    *Target
	listeners []listener
	nextID    int
	logger    *slog.Logger
}

func NewManager() *Manager {
	return &Manager{logger: slog.Default().With(slog.String("module", "highlight"))}
}

// SetLogger replaces the manager's logger.
func (m *Manager) SetLogger(l *slog.Logger) {
	if l != nil {
		m.logger = l
	}
}

// UpdateHighlight makes t the active highlight on behalf of callerID. A
// nil target clears the highlight.
func (m *Manager) UpdateHighlight(callerID string, t *Target) {
	prev := m.active
	m.active = t
	m.notify(callerID, prev)
}

// Clear removes the active highlight.
func (m *Manager) Clear() {
	prev := m.active
	m.active = nil
	m.notify("", prev)
}

// Active returns the active highlight, or nil.
func (m *Manager) Active() *Target {
	return m.active
}

// Context snapshots the active highlight for style resolution.
func (m *Manager) Context() Context {
	return Context{Active: m.Active()}
}

// AddListener registers fn and returns a function removing it.
func (m *Manager) AddListener(fn Listener) (remove func()) {
	m.nextID++
	id := m.nextID
	m.listeners = append(m.listeners, listener{id: id, fn: fn})
	return func() {
		m.listeners = slices.DeleteFunc(m.listeners, func(l listener) bool { return l.id == id })
	}
}

func (m *Manager) notify(callerID string, prev *Target) {
	cur := m.active
	if prev.Matches(cur) {
		return
	}
	m.logger.Debug("highlight changed", slog.String("caller", callerID), slog.Any("previous", prev), slog.Any("current", cur))
	ev := Event{Previous: prev, Current: cur}
	for _, l := range slices.Clone(m.listeners) {
		l.fn(ev)
	}
}
