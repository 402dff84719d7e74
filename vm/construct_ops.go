package vm

import (
	"lumen/heap"
	"lumen/value"
	"lumen/verr"
)

// execPutFunction implements OpPutFunction: push a Function cell
// closing over the current frame (spec.md §4.4 op_putfunction).
// childIdx addresses the current block's Children directly, matching
// how blockOf later resolves cell.Body against cell.ParentEnv.Block.
func (vm *VM) execPutFunction(nameIdx, childIdx, arity, numLocals uint32, variadic, anonymous bool) {
	name := vm.Frame.Block.Symbols[nameIdx]
	fn := vm.Heap.AllocFunction(name, childIdx, int(arity), variadic, int(numLocals), anonymous, vm.Frame)
	vm.Push(fn)
}

// execPutCFunction implements OpPutCFunction: resolve the interned
// name at nameIdx against the VM's native registry and push a fresh
// CFunction cell wrapping it (spec.md §4.4 op_putcfunction, spec.md §6
// CFunction ABI).
func (vm *VM) execPutCFunction(nameIdx, arity uint32) error {
	sym := vm.Frame.Block.Symbols[nameIdx]
	name := vm.Interner.Name(sym)
	entry, ok := vm.Natives.Get(name)
	if !ok {
		return verr.Typef("no native registered for %q", name)
	}
	fn := vm.Heap.AllocCFunction(sym, int(arity), entry.Fn)
	cell := vm.Heap.Get(value.DecodePointer(fn))
	cell.Variadic = entry.Variadic
	vm.Push(fn)
	return nil
}

// execPutGenerator implements OpPutGenerator: like execPutFunction but
// always captures the current frame's self, since a generator's body
// runs on its own goroutine long after the defining call returns
// (spec.md §4.4 op_putgenerator).
func (vm *VM) execPutGenerator(nameIdx, childIdx, arity uint32) {
	name := vm.Frame.Block.Symbols[nameIdx]
	gen := vm.Heap.AllocGenerator(name, childIdx, int(arity), vm.Frame, vm.Frame.Self)
	vm.Push(gen)
}

// execPutClass implements OpPutClass: assembles a Class cell from the
// pieces OpPutClass's operands and preceding stack state describe
// (spec.md §4.4 op_putclass). Stack, bottom to top:
// [methodVals..., staticVals..., parent?, ctor?].
func (vm *VM) execPutClass(nameIdx uint32, members, methods, statics []value.Symbol, hasParent, hasCtor bool) error {
	var ctor *heap.Cell
	if hasCtor {
		ctorVal := vm.Pop()
		c, ok := vm.functionCell(ctorVal)
		if !ok {
			return verr.Typef("class constructor must be a function")
		}
		ctor = c
	}

	var parent *heap.Cell
	if hasParent {
		parentVal := vm.Pop()
		if value.TypeOf(parentVal) != value.KindPointer {
			return verr.Typef("class parent must be a class")
		}
		p := vm.Heap.Get(value.DecodePointer(parentVal))
		if p == nil || p.Kind != heap.KindClass {
			return verr.Typef("class parent must be a class")
		}
		parent = p
	}

	staticVals := vm.PopN(len(statics))
	methodVals := vm.PopN(len(methods))

	name := vm.Frame.Block.Symbols[nameIdx]
	guard := vm.Heap.NewGuard()
	protoVal := guard.Pin(vm.Heap.AllocObject(value.Null))
	defer guard.Release()

	proto := vm.Heap.Get(value.DecodePointer(protoVal))
	for i, sym := range methods {
		proto.Fields[sym] = methodVals[i]
	}

	clsVal := vm.Heap.AllocClass(name, ctor, members, parent, proto)
	cls := vm.Heap.Get(value.DecodePointer(clsVal))
	for i, sym := range statics {
		cls.Prototype.Fields[sym] = staticVals[i]
	}

	vm.Push(clsVal)
	return nil
}

func (vm *VM) functionCell(v value.Value) (*heap.Cell, bool) {
	if value.TypeOf(v) != value.KindPointer {
		return nil, false
	}
	cell := vm.Heap.Get(value.DecodePointer(v))
	if cell == nil || cell.Kind != heap.KindFunction {
		return nil, false
	}
	return cell, true
}
