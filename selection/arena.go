// Package selection reconciles node data against a pool of retained visual
// nodes by identity key.
package selection

// Handle refers to a node stored in an Arena. A handle whose slot has been
// freed is stale: the slot's generation no longer matches and lookups
// through it fail.
type Handle struct {
	index uint32
	gen   uint32
}

// Valid reports whether h was ever issued. The zero Handle is never valid.
func (h Handle) Valid() bool {
	return h.gen != 0
}

type slot[N any] struct {
	node N
	gen  uint32
	used bool
}

// Arena stores nodes in slots addressed by generation-checked handles.
type Arena[N any] struct {
	slots []slot[N]
	free  []uint32
	live  int
}

// Insert stores n and returns its handle, reusing a freed slot when one is
// available.
func (a *Arena[N]) Insert(n N) Handle {
	var idx uint32
	if k := len(a.free); k > 0 {
		idx = a.free[k-1]
		a.free = a.free[:k-1]
	} else {
		idx = uint32(len(a.slots))
		a.slots = append(a.slots, slot[N]{})
	}
	s := &a.slots[idx]
	s.gen++
	s.node = n
	s.used = true
	a.live++
	return Handle{index: idx, gen: s.gen}
}

// Get returns the node h refers to. ok is false for stale handles.
func (a *Arena[N]) Get(h Handle) (n N, ok bool) {
	s, ok := a.slot(h)
	if !ok {
		return n, false
	}
	return s.node, true
}

// Remove frees the slot h refers to and returns its node. Every
// outstanding copy of h becomes stale.
func (a *Arena[N]) Remove(h Handle) (n N, ok bool) {
	s, ok := a.slot(h)
	if !ok {
		return n, false
	}
	n = s.node
	var zero N
	s.node = zero
	s.used = false
	// Bump on free too, so a stale handle never matches a slot that is
	// waiting in the free list.
	s.gen++
	a.free = append(a.free, h.index)
	a.live--
	return n, true
}

// Len returns the number of live nodes.
func (a *Arena[N]) Len() int {
	return a.live
}

func (a *Arena[N]) slot(h Handle) (*slot[N], bool) {
	if !h.Valid() || int(h.index) >= len(a.slots) {
		return nil, false
	}
	s := &a.slots[h.index]
	if !s.used || s.gen != h.gen {
		return nil, false
	}
	return s, true
}
