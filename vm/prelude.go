package vm

import (
	"lumen/heap"
	"lumen/registry"
	"lumen/value"
)

// Prelude holds everything BuildPrelude wires up: the primitive class
// fallbacks installed on vm itself, plus named globals a module's top
// frame can bind before running user code (spec.md §4.6 "the
// script-side bootstrap resolves names to CFunction values").
type Prelude struct {
	Globals map[string]value.Value
}

// BuildPrelude allocates the String primitive class with Crypto::*
// installed on it, a standalone Math class exposing Math::* as static
// members, and wires vm.HeapClasses so every string value's member
// lookup falls back to the String class (spec.md §4.6). Grounded on
// the teacher's builtins.Registry bootstrap in server/scheduler.go's
// startup path, now expressed as VM-owned state rather than a
// package-level registry.
func BuildPrelude(vm *VM, in *value.Interner, reg *registry.Registry) *Prelude {
	vm.Interner = in
	vm.Natives = reg

	g := vm.Heap.NewGuard()
	defer g.Release()

	stringClass := g.Pin(vm.newPrimitiveClass())
	registry.Install(vm.Heap, in, reg, "Crypto::", stringClass)
	vm.HeapClasses[heap.KindString] = stringClass

	mathClass := g.Pin(vm.newPrimitiveClass())
	registry.Install(vm.Heap, in, reg, "Math::", mathClass)

	return &Prelude{
		Globals: map[string]value.Value{
			"Math": mathClass,
		},
	}
}

// newPrimitiveClass allocates a bare Class cell with an empty Object
// as its prototype, the shape registry.Install expects to hang
// members off.
func (vm *VM) newPrimitiveClass() value.Value {
	g := vm.Heap.NewGuard()
	defer g.Release()
	proto := g.Pin(vm.Heap.AllocObject(value.Null))
	protoCell := vm.Heap.Get(value.DecodePointer(proto))
	return vm.Heap.Scope(heap.KindClass, func(c *heap.Cell) {
		c.Prototype = protoCell
	})
}
