package selection

import (
	"iter"
	"log/slog"
)

// Node is a retained visual node that can be pointed at a datum. Binding
// nil detaches the node from any datum.
type Node interface {
	Bind(datum any)
}

// KeyFunc returns the identity key of the datum at index i. Keys must be
// comparable.
type KeyFunc[D any] func(i int, d D) any

// IndexKey keys every datum by its position.
func IndexKey[D any](i int, _ D) any { return i }

// Changes summarizes one Update.
type Changes struct {
	// Entered and Exited list keys in the order they were seen.
	Entered []any
	Exited  []any
	// Created counts calls to the create function, Recycled counts
	// pooled nodes handed to new keys, Reused counts nodes kept under an
	// unchanged key and Removed counts nodes freed from the arena.
	Created, Recycled, Reused, Removed int
	// Duplicates counts data dropped because a later datum had the same
	// key.
	Duplicates int
}

type entry[D any] struct {
	key    any
	datum  D
	handle Handle
}

// Selection binds an ordered list of data to nodes held in an arena.
type Selection[D any, N Node] struct {
	// GarbageCollect frees the nodes of exiting keys. When unset, they are
	// detached and pooled for reuse by later entering keys.
	GarbageCollect bool
	// OnExit is called for every exiting node before it is freed or
	// pooled.
	OnExit func(key any, n N)

	create  func() N
	arena   Arena[N]
	current []entry[D]
	byKey   map[any]int
	pool    []Handle
	logger  *slog.Logger
}

// New returns an empty Selection creating nodes with create.
func New[D any, N Node](create func() N) *Selection[D, N] {
	return &Selection[D, N]{
		create: create,
		byKey:  map[any]int{},
		logger: slog.Default().With(slog.String("module", "selection")),
	}
}

// SetLogger replaces the selection's logger.
func (s *Selection[D, N]) SetLogger(l *slog.Logger) {
	if l != nil {
		s.logger = l
	}
}

// Update reconciles the selection with data.
//
// A node whose key is still present is reused and rebound. A node whose
// key is gone exits. A key without a node is given a pooled node when one
// is available, or a newly created one. When keys repeat, the last datum
// with that key wins and takes its position in the order. Afterwards the
// selection iterates in the order of data.
func (s *Selection[D, N]) Update(data []D, key KeyFunc[D]) Changes {
	if key == nil {
		key = IndexKey[D]
	}
	var ch Changes

	keys := make([]any, len(data))
	last := make(map[any]int, len(data))
	for i, d := range data {
		k := key(i, d)
		keys[i] = k
		if _, dup := last[k]; dup {
			ch.Duplicates++
		}
		last[k] = i
	}
	if ch.Duplicates > 0 {
		s.logger.Debug("duplicate join keys", slog.Int("count", ch.Duplicates))
	}

	for _, e := range s.current {
		if _, stays := last[e.key]; stays {
			continue
		}
		s.exit(e, &ch)
	}

	next := make([]entry[D], 0, len(last))
	byKey := make(map[any]int, len(last))
	for i, d := range data {
		k := keys[i]
		if last[k] != i {
			continue
		}
		var h Handle
		if old, ok := s.byKey[k]; ok {
			h = s.current[old].handle
			ch.Reused++
		} else {
			h = s.acquire(&ch)
			ch.Entered = append(ch.Entered, k)
		}
		n, _ := s.arena.Get(h)
		n.Bind(d)
		byKey[k] = len(next)
		next = append(next, entry[D]{key: k, datum: d, handle: h})
	}
	s.current = next
	s.byKey = byKey
	return ch
}

func (s *Selection[D, N]) exit(e entry[D], ch *Changes) {
	n, ok := s.arena.Get(e.handle)
	if !ok {
		return
	}
	ch.Exited = append(ch.Exited, e.key)
	if s.OnExit != nil {
		s.OnExit(e.key, n)
	}
	n.Bind(nil)
	if s.GarbageCollect {
		s.arena.Remove(e.handle)
		ch.Removed++
		return
	}
	s.pool = append(s.pool, e.handle)
}

func (s *Selection[D, N]) acquire(ch *Changes) Handle {
	if k := len(s.pool); k > 0 {
		h := s.pool[k-1]
		s.pool = s.pool[:k-1]
		ch.Recycled++
		return h
	}
	ch.Created++
	return s.arena.Insert(s.create())
}

// Clear exits every node, as an Update with no data would.
func (s *Selection[D, N]) Clear() Changes {
	return s.Update(nil, nil)
}

// Drain frees every pooled node.
func (s *Selection[D, N]) Drain() int {
	n := len(s.pool)
	for _, h := range s.pool {
		s.arena.Remove(h)
	}
	s.pool = s.pool[:0]
	return n
}

// Len returns the number of bound nodes.
func (s *Selection[D, N]) Len() int {
	return len(s.current)
}

// Pooled returns the number of detached nodes kept for reuse.
func (s *Selection[D, N]) Pooled() int {
	return len(s.pool)
}

// Lookup returns the node and datum bound to key.
func (s *Selection[D, N]) Lookup(key any) (n N, d D, ok bool) {
	i, ok := s.byKey[key]
	if !ok {
		return n, d, false
	}
	e := s.current[i]
	n, ok = s.arena.Get(e.handle)
	return n, e.datum, ok
}

// Handle returns the arena handle of the node bound to key.
func (s *Selection[D, N]) Handle(key any) (Handle, bool) {
	i, ok := s.byKey[key]
	if !ok {
		return Handle{}, false
	}
	return s.current[i].handle, true
}

// Resolve returns the node h refers to, failing for stale handles.
func (s *Selection[D, N]) Resolve(h Handle) (N, bool) {
	return s.arena.Get(h)
}

// All iterates over bound data and nodes in data order.
func (s *Selection[D, N]) All() iter.Seq2[D, N] {
	return func(yield func(D, N) bool) {
		for _, e := range s.current {
			n, ok := s.arena.Get(e.handle)
			if !ok {
				continue
			}
			if !yield(e.datum, n) {
				return
			}
		}
	}
}

// Nodes returns the bound nodes in data order.
func (s *Selection[D, N]) Nodes() []N {
	out := make([]N, 0, len(s.current))
	for _, n := range s.All() {
		out = append(out, n)
	}
	return out
}

// Keys returns the bound keys in data order.
func (s *Selection[D, N]) Keys() []any {
	out := make([]any, len(s.current))
	for i, e := range s.current {
		out[i] = e.key
	}
	return out
}
