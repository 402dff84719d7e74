package heap

import "lumen/value"

// Guard pins zero or more handles for the lifetime of a multi-step
// build that Scope's single-cell callback can't express — e.g.
// allocating several array elements before the array cell that will
// hold them exists yet. Spec.md §9 calls the scoped-root mechanism
// "the ONLY defence against a mid-construction collection"; Guard is
// the multi-value form of that same mechanism.
//
// Usage:
//
//	g := h.NewGuard()
//	defer g.Release()
//	elem := g.Pin(h.AllocString("x"))
//	arr := h.AllocArray([]value.Value{elem})
type Guard struct {
	h       *Heap
	handles []value.Handle
}

// NewGuard opens a new pin scope.
func (h *Heap) NewGuard() *Guard {
	return &Guard{h: h}
}

// Pin pins v if it is a heap pointer and returns v unchanged, so calls
// can be wrapped inline around the allocation that produced it.
func (g *Guard) Pin(v value.Value) value.Value {
	if value.TypeOf(v) == value.KindPointer {
		hdl := value.DecodePointer(v)
		g.h.Pin(hdl)
		g.handles = append(g.handles, hdl)
	}
	return v
}

// Release unpins every handle this guard pinned, in reverse order.
// Safe to call more than once; safe to defer unconditionally.
func (g *Guard) Release() {
	for i := len(g.handles) - 1; i >= 0; i-- {
		g.h.Unpin(g.handles[i])
	}
	g.handles = nil
}
