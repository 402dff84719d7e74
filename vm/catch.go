package vm

import (
	"lumen/heap"
	"lumen/value"
	"lumen/verr"
)

// pushCatch records a new catch-table entry on the current frame: the
// resume instruction pointer, the operand-stack height to restore on
// unwind, and the frame that owns the entry (spec.md §4.3 catch-table
// unwinding). Entries stack per frame via PrevCatch, mirroring the
// teacher's per-frame ExceptStack but living as heap cells so the
// collector can keep an entry's owning frame alive through a pending
// throw.
func (vm *VM) pushCatch(handlerIP int) {
	owner := vm.Frame
	prev := owner.Catch
	entryVal := vm.Heap.Scope(heap.KindCatchTable, func(c *heap.Cell) {
		c.ResumeIP = uint32(handlerIP)
		c.StackHeight = len(vm.Stack)
		c.OwnerFrame = owner
		c.PrevCatch = prev
	})
	owner.Catch = vm.Heap.Get(value.DecodePointer(entryVal))
}

// popCatch removes the innermost catch-table entry on the current
// frame without unwinding, run when control leaves a try block
// normally.
func (vm *VM) popCatch() {
	f := vm.Frame
	if f.Catch != nil {
		f.Catch = f.Catch.PrevCatch
	}
}

// throwValue implements OpThrow: search outward from the current
// frame for the nearest catch-table entry, in frame order then
// innermost-entry-first within a frame, and resume there with the
// operand stack truncated to the height recorded at push time and
// payload on top. With no entry anywhere in scope, the payload
// becomes the error Run returns and every live frame is discarded
// (spec.md §7 unwind-exhausted).
func (vm *VM) throwValue(payload value.Value) error {
	if !vm.unwindTo(payload) {
		vm.Frame = nil
		return &verr.Error{Kind: verr.KindUnwindExhausted, Payload: payload}
	}
	return nil
}

func (vm *VM) unwindTo(payload value.Value) bool {
	for f := vm.Frame; f != nil; f = f.FrameParent {
		if f.Catch == nil {
			continue
		}
		entry := f.Catch
		f.Catch = entry.PrevCatch
		vm.Frame = entry.OwnerFrame
		vm.Frame.IP = int(entry.ResumeIP)
		vm.Stack = vm.Stack[:entry.StackHeight]
		vm.Push(payload)
		vm.Trace.Catch(vm.Frame, entry)
		return true
	}
	return false
}

// unwind converts a Go error surfaced from step() into a script-level
// throw when its Kind is recoverable, or reports it as fatal
// otherwise. Returns true if the VM should keep running (the error
// was caught), matching Run's loop contract.
func (vm *VM) unwind(err error) bool {
	ve, ok := err.(*verr.Error)
	if !ok {
		return false
	}
	if ve.Kind == verr.KindPanic || ve.Kind == verr.KindUnwindExhausted {
		return false
	}

	payload, ok := ve.Payload.(value.Value)
	if !ok {
		payload = vm.Heap.AllocString(ve.Error())
	}
	return vm.unwindTo(payload)
}
