package vm

import (
	"testing"

	"lumen/heap"
	"lumen/value"
)

func TestReadMemberObjectOwnFieldShadowsPrototype(t *testing.T) {
	machine := New()
	sym := value.Symbol(7)

	cls := machine.Heap.Scope(heap.KindClass, func(c *heap.Cell) {
		proto := machine.Heap.Get(value.DecodePointer(machine.Heap.AllocObject(value.Null)))
		proto.Fields[sym] = value.EncodeInt(1)
		c.Prototype = proto
	})
	obj := machine.Heap.AllocObject(cls)
	objCell := machine.Heap.Get(value.DecodePointer(obj))
	objCell.Fields[sym] = value.EncodeInt(99)

	got, err := machine.readMember(obj, sym)
	if err != nil {
		t.Fatalf("readMember returned error: %v", err)
	}
	if value.DecodeInt(got) != 99 {
		t.Fatalf("readMember = %v, want own field 99", got)
	}
}

func TestReadMemberFallsThroughToPrototypeChain(t *testing.T) {
	machine := New()
	sym := value.Symbol(7)

	parentCls := machine.Heap.Scope(heap.KindClass, func(c *heap.Cell) {
		proto := machine.Heap.Get(value.DecodePointer(machine.Heap.AllocObject(value.Null)))
		proto.Fields[sym] = value.EncodeInt(5)
		c.Prototype = proto
	})
	parentCell := machine.Heap.Get(value.DecodePointer(parentCls))

	childCls := machine.Heap.Scope(heap.KindClass, func(c *heap.Cell) {
		proto := machine.Heap.Get(value.DecodePointer(machine.Heap.AllocObject(value.Null)))
		c.Prototype = proto
		c.Parent = parentCell
	})
	obj := machine.Heap.AllocObject(childCls)

	got, err := machine.readMember(obj, sym)
	if err != nil {
		t.Fatalf("readMember returned error: %v", err)
	}
	if value.DecodeInt(got) != 5 {
		t.Fatalf("readMember = %v, want inherited field 5", got)
	}
}

func TestReadMemberUnknownSymbolIsNull(t *testing.T) {
	machine := New()
	cls := machine.Heap.Scope(heap.KindClass, func(c *heap.Cell) {
		proto := machine.Heap.Get(value.DecodePointer(machine.Heap.AllocObject(value.Null)))
		c.Prototype = proto
	})
	obj := machine.Heap.AllocObject(cls)

	got, err := machine.readMember(obj, value.Symbol(999))
	if err != nil {
		t.Fatalf("readMember returned error for an unresolved member: %v", err)
	}
	if got != value.Null {
		t.Fatalf("unresolved member = %v, want null", got)
	}
}

func TestSetMemberOnObjectWritesOwnField(t *testing.T) {
	machine := New()
	sym := value.Symbol(3)
	obj := machine.Heap.AllocObject(value.Null)

	machine.Push(obj)
	machine.Push(value.EncodeInt(42))
	if err := machine.execSetMember(sym); err != nil {
		t.Fatalf("execSetMember returned error: %v", err)
	}

	cell := machine.Heap.Get(value.DecodePointer(obj))
	if value.DecodeInt(cell.Fields[sym]) != 42 {
		t.Fatalf("field %v = %v, want 42", sym, cell.Fields[sym])
	}
}

func TestImmediateValueFallsBackToRegisteredPrimitiveClass(t *testing.T) {
	machine := New()
	sym := value.Symbol(11)

	cls := machine.Heap.Scope(heap.KindClass, func(c *heap.Cell) {
		proto := machine.Heap.Get(value.DecodePointer(machine.Heap.AllocObject(value.Null)))
		proto.Fields[sym] = value.EncodeInt(123)
		c.Prototype = proto
	})
	machine.ImmediateClasses[value.KindInt] = cls

	got, err := machine.readMember(value.EncodeInt(7), sym)
	if err != nil {
		t.Fatalf("readMember returned error: %v", err)
	}
	if value.DecodeInt(got) != 123 {
		t.Fatalf("readMember = %v, want 123 from the Int primitive class", got)
	}
}

func TestHeapValueFallsBackToRegisteredPrimitiveClass(t *testing.T) {
	machine := New()
	sym := value.Symbol(12)

	cls := machine.Heap.Scope(heap.KindClass, func(c *heap.Cell) {
		proto := machine.Heap.Get(value.DecodePointer(machine.Heap.AllocObject(value.Null)))
		proto.Fields[sym] = value.EncodeInt(7)
		c.Prototype = proto
	})
	machine.HeapClasses[heap.KindString] = cls

	str := machine.Heap.AllocString("hi")
	got, err := machine.readMember(str, sym)
	if err != nil {
		t.Fatalf("readMember returned error: %v", err)
	}
	if value.DecodeInt(got) != 7 {
		t.Fatalf("readMember = %v, want 7 from the String primitive class", got)
	}
}
