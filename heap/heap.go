package heap

import (
	"lumen/value"
	"lumen/verr"
)

// growthFactor is the geometric growth applied each time the heap
// needs a new arena (spec.md §4.2 "new arena is added with a geometric
// growth factor").
const growthFactor = 2

// Roots is implemented by the VM to let the collector walk the operand
// stack, frame chain and catch-stack without heap importing vm (which
// would create an import cycle, since vm owns a *Heap).
type Roots interface {
	// WalkRoots calls visit for every Value reachable directly from a
	// root (operand stack slots, frame-chain cells, catch-stack cells).
	// Temporaries are not walked here: the heap marks them itself (see
	// Heap.Pin).
	WalkRoots(visit func(value.Value))
}

// Heap owns every arena, the free list threaded through dead cells,
// and the temporary-root set that is the only defence against
// collecting an object mid-construction (spec.md §4.2).
//
// Heap is NOT thread-safe: spec.md §5 reserves it exclusively for the
// main loop. Worker threads never call into it.
type Heap struct {
	arenas   []*arena
	freeHead value.Handle // 0 == empty free list
	nextBase value.Handle // next arena's base handle

	temporaries map[value.Handle]int // refcount, since Pin/Unpin can nest

	roots Roots

	stats Stats

	onCollect func(collections, freed int)
}

// Stats reports allocator/collector counters, primarily for
// cmd/lumen's GC-stress benchmark and gc_stats-style introspection.
type Stats struct {
	Arenas      int
	LiveCells   int
	FreeCells   int
	Collections int
	LastFreed   int
}

// New creates an empty heap with one initial arena. roots is usually
// the owning *vm.VM; it may be nil for unit tests that only exercise
// allocation/marking against an explicit root set.
func New(roots Roots) *Heap {
	h := &Heap{
		temporaries: make(map[value.Handle]int),
		roots:       roots,
		nextBase:    1, // handle 0 reserved
	}
	h.growArena()
	return h
}

// SetRoots assigns the Roots walker after construction, letting the
// VM finish wiring itself before handing the heap a back-reference.
func (h *Heap) SetRoots(r Roots) { h.roots = r }

// SetOnCollect assigns a callback invoked at the end of every Collect
// cycle with the running collection count and the number of cells this
// cycle freed. vm.New wires this to vm.Trace.GCCycle, which prints only
// when the trace's GC category (cmd/lumen's --trace-gc flag) is on.
func (h *Heap) SetOnCollect(fn func(collections, freed int)) { h.onCollect = fn }

func (h *Heap) growArena() {
	a := newArena(h.nextBase)
	h.arenas = append(h.arenas, a)
	h.nextBase += arenaSize
	h.stats.Arenas++

	// Thread every new cell onto the free list, tail first so handles
	// are handed out in ascending order (helps trace output stay
	// readable; not load-bearing).
	for i := arenaSize - 1; i >= 0; i-- {
		cell := &a.cells[i]
		cell.freeNext = h.freeHead
		h.freeHead = cell.handle
	}
	h.stats.FreeCells += arenaSize
}

func (h *Heap) arenaFor(hdl value.Handle) *arena {
	if hdl == 0 {
		return nil
	}
	idx := int((hdl - 1) / arenaSize)
	if idx < 0 || idx >= len(h.arenas) {
		return nil
	}
	return h.arenas[idx]
}

// Get dereferences a handle to its cell. Returns nil for handle 0 or
// an out-of-range handle, which callers should treat as a malformed-
// bytecode panic (spec.md §7).
func (h *Heap) Get(hdl value.Handle) *Cell {
	a := h.arenaFor(hdl)
	if a == nil {
		return nil
	}
	return a.cellAt(hdl)
}

// allocate pops the head of the free list, triggering a collection if
// it's empty and growing the heap if the collection doesn't replenish
// it (spec.md §4.2 allocation contract). The returned cell's Kind is
// KindDead until the caller fills it in and sets Kind; callers MUST
// pin the handle as a temporary before doing any further allocation,
// since the cell is not yet reachable through any normal root.
func (h *Heap) allocate() *Cell {
	if h.freeHead == 0 {
		h.Collect()
		if h.freeHead == 0 {
			h.growArena()
		}
	}
	if h.freeHead == 0 {
		// Growth failed to produce a usable cell: fatal per spec.md §9
		// open question resolution (panic immediately rather than warn
		// and proceed into a guaranteed later crash).
		panic(verr.Panicf("heap: allocator exhausted after growth"))
	}

	hdl := h.freeHead
	cell := h.Get(hdl)
	h.freeHead = cell.freeNext
	h.stats.FreeCells--
	h.stats.LiveCells++

	*cell = Cell{Kind: KindDead, handle: hdl}
	return cell
}

// Pin registers handle as a temporary root, preventing collection from
// reclaiming it before it is reachable through the stack, a frame, or
// a container it has been stored into. Pin is reentrant: the same
// handle may be pinned more than once (e.g. nested constructors), and
// is only fully unpinned once every Pin has a matching Unpin.
func (h *Heap) Pin(hdl value.Handle) {
	if hdl == 0 {
		return
	}
	h.temporaries[hdl]++
}

// Unpin reverses one Pin call. Scope should be used instead of calling
// Pin/Unpin directly wherever possible, since it unpins on every exit
// path including panics.
func (h *Heap) Unpin(hdl value.Handle) {
	if hdl == 0 {
		return
	}
	n := h.temporaries[hdl]
	if n <= 1 {
		delete(h.temporaries, hdl)
		return
	}
	h.temporaries[hdl] = n - 1
}

// Scope allocates a fresh cell of the given kind, pins it as a
// temporary for the duration of build, and unpins it before returning
// — on every exit path, including a panic unwinding through build.
// This is the ONLY sanctioned way to allocate (spec.md §4.2, §5,
// §9 "the scoped-temporary helper is the mechanism; implementations
// must make it impossible to forget"): AllocObject, AllocArray, etc.
// are all thin wrappers around Scope.
func (h *Heap) Scope(kind Kind, build func(cell *Cell)) value.Value {
	cell := h.allocate()
	cell.Kind = kind
	h.Pin(cell.handle)
	defer h.Unpin(cell.handle)
	build(cell)
	return cell.AsValue()
}

// Stats returns a snapshot of allocator/collector counters.
func (h *Heap) Stats() Stats { return h.stats }
