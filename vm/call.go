package vm

import "lumen/value"

// Call invokes callee with self bound as receiver (ignored if callee
// does not take one) and args, running the dispatcher until control
// returns to whatever frame was active when Call was entered, then
// returns the callee's result.
//
// This is the entry point an embedder's event loop uses to resume a
// script-side callback after an async native completes (spec.md §5):
// the loop never pokes at vm.Frame/vm.Stack directly, it calls back in
// through this one exported seam.
func (vm *VM) Call(callee, self value.Value, args []value.Value) (value.Value, error) {
	startFrame := vm.Frame
	boundSelf := self != value.Null
	if err := vm.invoke(callee, self, args, boundSelf); err != nil {
		return value.Null, err
	}
	for vm.Frame != startFrame && vm.Frame != nil {
		if err := vm.step(); err != nil {
			if !vm.unwind(err) {
				return value.Null, err
			}
		}
	}
	if len(vm.Stack) > 0 {
		return vm.Pop(), nil
	}
	return value.Null, nil
}
