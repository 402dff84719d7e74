package heap

import "lumen/value"

// Collect runs one full mark-and-sweep cycle (spec.md §4.2). It is
// normally triggered automatically by allocate() when the free list
// runs dry, but cmd/lumen's bench subcommand and tests call it
// directly to force a cycle.
func (h *Heap) Collect() {
	h.mark()
	freed := h.sweep()
	h.stats.Collections++
	h.stats.LastFreed = freed
	if h.onCollect != nil {
		h.onCollect(h.stats.Collections, freed)
	}
}

func (h *Heap) mark() {
	visit := func(v value.Value) { h.markValue(v) }

	if h.roots != nil {
		h.roots.WalkRoots(visit)
	}
	for hdl := range h.temporaries {
		h.markValue(value.EncodePointer(hdl))
	}
}

// markValue marks the cell v points to (a no-op for non-pointer
// values) and recurses into every outgoing reference the cell's Kind
// declares, per the children table in spec.md §4.2.
func (h *Heap) markValue(v value.Value) {
	if value.TypeOf(v) != value.KindPointer {
		return
	}
	cell := h.Get(value.DecodePointer(v))
	h.markCell(cell)
}

func (h *Heap) markCell(cell *Cell) {
	if cell == nil || cell.Kind == KindDead || cell.Marked {
		return
	}
	cell.Marked = true

	switch cell.Kind {
	case KindObject:
		h.markCell(cell.Class)
		for _, fv := range cell.Fields {
			h.markValue(fv)
		}

	case KindArray:
		for _, ev := range cell.Elems {
			h.markValue(ev)
		}

	case KindFunction, KindGenerator:
		h.markCell(cell.ParentEnv)
		if cell.HasBoundSelf {
			h.markValue(cell.BoundSelf)
		}
		for _, av := range cell.Attrs {
			h.markValue(av)
		}
		if cell.Kind == KindGenerator {
			h.markCell(cell.SavedFrame)
		}

	case KindCFunction:
		if cell.HasBoundSelf {
			h.markValue(cell.BoundSelf)
		}

	case KindClass:
		h.markCell(cell.Ctor)
		h.markCell(cell.Prototype)
		h.markCell(cell.Parent)

	case KindFrame:
		h.markCell(cell.FrameParent)
		h.markCell(cell.FrameEnvParent)
		h.markCell(cell.Catch)
		h.markCell(cell.Func)
		h.markValue(cell.Self)
		for _, lv := range cell.Locals {
			h.markValue(lv)
		}
		for _, c := range cell.CtorRemaining {
			h.markCell(c)
		}
		for _, av := range cell.CtorLeafArgs {
			h.markValue(av)
		}

	case KindCatchTable:
		h.markCell(cell.OwnerFrame)
		h.markCell(cell.PrevCatch)

	case KindString, KindFloat, KindCPointer:
		// no outgoing references
	}
}

// sweep unmarks every live cell and reclaims every unmarked, non-dead
// cell onto the free list, running CPointer destructors exactly once
// (spec.md §6). Returns the number of cells freed this cycle.
func (h *Heap) sweep() int {
	freed := 0
	for _, a := range h.arenas {
		for i := range a.cells {
			cell := &a.cells[i]
			switch {
			case cell.Kind == KindDead:
				continue
			case cell.Marked:
				cell.Marked = false
			default:
				h.reclaim(cell)
				freed++
			}
		}
	}
	h.stats.LiveCells -= freed
	h.stats.FreeCells += freed
	return freed
}

func (h *Heap) reclaim(cell *Cell) {
	if cell.Kind == KindCPointer && cell.Destroy != nil {
		cell.Destroy(cell.Raw)
	}
	hdl := cell.handle
	*cell = Cell{Kind: KindDead, handle: hdl, freeNext: h.freeHead}
	h.freeHead = hdl
	// defensive: a cell being swept was by definition unreached from
	// any root, but strip it from temporaries too in case a caller
	// leaked a Pin without a matching Unpin.
	delete(h.temporaries, hdl)
}
