package vm

import (
	"lumen/heap"
	"lumen/value"
	"lumen/verr"
)

// readMember resolves receiver[sym] (spec.md §4.5): an Object checks
// its own Fields first, then walks its class's prototype chain; any
// other Kind goes straight to the prototype chain rooted at its
// registered primitive class. Classes themselves expose their own
// Fields (static members) directly. A symbol found nowhere along the
// prototype chain reads as null.
func (vm *VM) readMember(receiver value.Value, sym value.Symbol) (value.Value, error) {
	if value.TypeOf(receiver) == value.KindPointer {
		cell := vm.Heap.Get(value.DecodePointer(receiver))
		if cell == nil {
			return value.Null, verr.Panicf("vm: member access through dangling handle")
		}
		switch cell.Kind {
		case heap.KindObject:
			if v, ok := cell.Fields[sym]; ok {
				return v, nil
			}
			return vm.findInPrototypeChain(cell.Class, sym)
		case heap.KindClass:
			if v, ok := classFields(cell)[sym]; ok {
				return v, nil
			}
			return vm.findInPrototypeChain(cell.Parent, sym)
		default:
			cls := vm.HeapClasses[cell.Kind]
			if value.TypeOf(cls) != value.KindPointer {
				return value.Null, verr.Typef("no member %v on value of kind %s", sym, cell.Kind)
			}
			return vm.findInPrototypeChain(vm.Heap.Get(value.DecodePointer(cls)), sym)
		}
	}
	cls := vm.ImmediateClasses[value.TypeOf(receiver)]
	if value.TypeOf(cls) != value.KindPointer {
		return value.Null, verr.Typef("no member %v on value of kind %s", sym, value.TypeOf(receiver))
	}
	return vm.findInPrototypeChain(vm.Heap.Get(value.DecodePointer(cls)), sym)
}

func (vm *VM) findInPrototypeChain(cls *heap.Cell, sym value.Symbol) (value.Value, error) {
	for c := cls; c != nil; c = c.Parent {
		if c.Prototype != nil {
			if v, ok := c.Prototype.Fields[sym]; ok {
				return v, nil
			}
		}
	}
	return value.Null, nil
}

// classFields treats a Class cell's Prototype as the home for static
// members when accessed directly on the class (e.g. Math.Pi), reusing
// the same Fields map member lookups everywhere else read.
func classFields(cls *heap.Cell) map[value.Symbol]value.Value {
	if cls.Prototype == nil {
		return nil
	}
	return cls.Prototype.Fields
}

func (vm *VM) execGetMember(sym value.Symbol) error {
	receiver := vm.Pop()
	v, err := vm.readMember(receiver, sym)
	if err != nil {
		return err
	}
	vm.Push(v)
	return nil
}

func (vm *VM) execSetMember(sym value.Symbol) error {
	v := vm.Pop()
	receiver := vm.Pop()
	return vm.setMember(receiver, sym, v)
}

// setMember is the receiver/symbol/value assignment shared by
// OpSetMember (a compile-time-known symbol) and OpSetMemberValue (a
// dynamic key resolved at runtime).
func (vm *VM) setMember(receiver value.Value, sym value.Symbol, v value.Value) error {
	if value.TypeOf(receiver) != value.KindPointer {
		return verr.Typef("cannot set a member on a value of kind %s", value.TypeOf(receiver))
	}
	cell := vm.Heap.Get(value.DecodePointer(receiver))
	if cell == nil {
		return verr.Panicf("vm: member assignment through dangling handle")
	}
	switch cell.Kind {
	case heap.KindObject:
		cell.Fields[sym] = v
	case heap.KindClass:
		if cell.Prototype == nil {
			return verr.Typef("class has no prototype to hold static members")
		}
		cell.Prototype.Fields[sym] = v
	default:
		return verr.Typef("cannot set a member on a value of kind %s", cell.Kind)
	}
	return nil
}

// execMakeObject builds a plain Object (no declared class) from n
// key/value pairs on the stack, used for object-literal expressions.
func (vm *VM) execMakeObject(n int) error {
	pairs := vm.PopN(n * 2)
	obj := vm.Heap.AllocObject(value.Null)
	cell := vm.Heap.Get(value.DecodePointer(obj))
	for i := 0; i < n; i++ {
		key := pairs[i*2]
		val := pairs[i*2+1]
		sym, ok := symbolOf(key)
		if !ok {
			return verr.Typef("object literal keys must be symbols")
		}
		cell.Fields[sym] = val
	}
	vm.Push(obj)
	return nil
}

func symbolOf(v value.Value) (value.Symbol, bool) {
	if value.TypeOf(v) != value.KindSymbol {
		return 0, false
	}
	return value.DecodeSymbol(v), true
}
