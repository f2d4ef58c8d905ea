package selection

import (
	"slices"
	"testing"
)

type node struct {
	id    int
	datum any
}

func (n *node) Bind(d any) { n.datum = d }

type datum struct {
	key   string
	value int
}

func byKey(_ int, d datum) any { return d.key }

func newSelection(gc bool) (*Selection[datum, *node], *int) {
	created := 0
	s := New[datum](func() *node {
		created++
		return &node{id: created}
	})
	s.GarbageCollect = gc
	return s, &created
}

func data(keys ...string) []datum {
	out := make([]datum, len(keys))
	for i, k := range keys {
		out[i] = datum{key: k, value: i}
	}
	return out
}

func TestArenaStaleHandles(t *testing.T) {
	var a Arena[string]
	h1 := a.Insert("one")
	if v, ok := a.Get(h1); !ok || v != "one" {
		t.Fatalf("expected to get inserted value, got %q %v", v, ok)
	}
	if _, ok := a.Remove(h1); !ok {
		t.Fatalf("expected remove to succeed")
	}
	if _, ok := a.Get(h1); ok {
		t.Errorf("expected removed handle to be stale")
	}
	h2 := a.Insert("two")
	if h2.index != h1.index {
		t.Errorf("expected slot %d to be reused, got %d", h1.index, h2.index)
	}
	if _, ok := a.Get(h1); ok {
		t.Errorf("expected stale handle not to resolve to the reused slot")
	}
	if _, ok := a.Remove(h1); ok {
		t.Errorf("expected removing through a stale handle to fail")
	}
	if v, _ := a.Get(h2); v != "two" {
		t.Errorf("expected two, got %q", v)
	}
	if _, ok := a.Get(Handle{}); ok {
		t.Errorf("expected zero handle to be invalid")
	}
	if a.Len() != 1 {
		t.Errorf("expected 1 live node, got %d", a.Len())
	}
}

func TestUpdateReconciles(t *testing.T) {
	type testcase struct {
		name          string
		gc            bool
		expectCreated int
		expectPooled  int
	}
	for _, tc := range []testcase{
		{name: "garbage collected", gc: true, expectCreated: 4},
		{name: "pooled", gc: false, expectCreated: 3},
	} {
		t.Run(tc.name, func(t *testing.T) {
			s, created := newSelection(tc.gc)
			s.Update(data("a", "b", "c"), byKey)
			nodeA, _, _ := s.Lookup("a")
			nodeB, _, _ := s.Lookup("b")
			nodeC, _, _ := s.Lookup("c")
			handleA, _ := s.Handle("a")

			var exited []any
			s.OnExit = func(key any, _ *node) { exited = append(exited, key) }
			ch := s.Update(data("b", "c", "d"), byKey)

			if *created != tc.expectCreated {
				t.Errorf("expected %d creations, got %d", tc.expectCreated, *created)
			}
			if ch.Reused != 2 {
				t.Errorf("expected 2 reused nodes, got %d", ch.Reused)
			}
			if !slices.Equal(ch.Entered, []any{"d"}) || !slices.Equal(ch.Exited, []any{"a"}) {
				t.Errorf("expected d to enter and a to exit, got %v %v", ch.Entered, ch.Exited)
			}
			if !slices.Equal(exited, []any{"a"}) {
				t.Errorf("expected exit hook for a, got %v", exited)
			}
			if n, _, _ := s.Lookup("b"); n != nodeB {
				t.Errorf("expected node for b to be reused")
			}
			if n, d, _ := s.Lookup("c"); n != nodeC || n.datum.(datum).value != 1 || d.value != 1 {
				t.Errorf("expected node for c to be rebound to the new datum, got %+v", n.datum)
			}
			if _, _, ok := s.Lookup("a"); ok {
				t.Errorf("expected a to be gone")
			}
			nodeD, _, _ := s.Lookup("d")
			if tc.gc {
				if ch.Removed != 1 || ch.Created != 1 {
					t.Errorf("expected a removed and d created, got %+v", ch)
				}
				if _, ok := s.Resolve(handleA); ok {
					t.Errorf("expected handle of a to be stale")
				}
				if nodeA.datum != nil {
					t.Errorf("expected removed node to be detached")
				}
			} else {
				if ch.Recycled != 1 || ch.Created != 0 {
					t.Errorf("expected a's node recycled for d, got %+v", ch)
				}
				if nodeD != nodeA {
					t.Errorf("expected d to take over a's node")
				}
			}
			if !slices.Equal(s.Keys(), []any{"b", "c", "d"}) {
				t.Errorf("expected data order, got %v", s.Keys())
			}
		})
	}
}

func TestUpdateFollowsInputOrder(t *testing.T) {
	s, _ := newSelection(true)
	s.Update(data("a", "b", "c"), byKey)
	s.Update(data("c", "a", "b"), byKey)
	var got []string
	for d, n := range s.All() {
		got = append(got, d.key)
		if n.datum.(datum).key != d.key {
			t.Errorf("expected node bound to %s, got %v", d.key, n.datum)
		}
	}
	if !slices.Equal(got, []string{"c", "a", "b"}) {
		t.Errorf("expected iteration in input order, got %v", got)
	}
}

func TestDuplicateKeysLastWins(t *testing.T) {
	s, created := newSelection(true)
	in := []datum{{key: "a", value: 1}, {key: "b", value: 2}, {key: "a", value: 3}}
	ch := s.Update(in, byKey)
	if ch.Duplicates != 1 {
		t.Errorf("expected 1 duplicate, got %d", ch.Duplicates)
	}
	if *created != 2 || s.Len() != 2 {
		t.Errorf("expected 2 nodes, got %d created and %d bound", *created, s.Len())
	}
	if _, d, _ := s.Lookup("a"); d.value != 3 {
		t.Errorf("expected last datum for a to win, got %d", d.value)
	}
	if !slices.Equal(s.Keys(), []any{"b", "a"}) {
		t.Errorf("expected a at its last position, got %v", s.Keys())
	}
}

func TestIndexKeyDefault(t *testing.T) {
	s, created := newSelection(true)
	s.Update(data("a", "b"), nil)
	ch := s.Update(data("x", "y", "z"), nil)
	if ch.Reused != 2 || ch.Created != 1 || *created != 3 {
		t.Errorf("expected positional reuse, got %+v", ch)
	}
}

func TestClearAndDrain(t *testing.T) {
	s, created := newSelection(false)
	s.Update(data("a", "b"), byKey)
	s.Clear()
	if s.Len() != 0 || s.Pooled() != 2 {
		t.Fatalf("expected 2 pooled nodes, got %d bound and %d pooled", s.Len(), s.Pooled())
	}
	s.Update(data("c"), byKey)
	if *created != 2 || s.Pooled() != 1 {
		t.Errorf("expected pooled node reuse, got %d created, %d pooled", *created, s.Pooled())
	}
	if n := s.Drain(); n != 1 || s.Pooled() != 0 {
		t.Errorf("expected to drain 1 node, got %d", n)
	}
}
