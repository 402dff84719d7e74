package vm

import (
	"testing"

	"lumen/value"
)

func TestExecGetIndexReadsArrayElement(t *testing.T) {
	machine := New()
	arr := machine.Heap.AllocArray([]value.Value{value.EncodeInt(10), value.EncodeInt(20)})
	machine.Push(arr)
	machine.Push(value.EncodeInt(1))
	if err := machine.execGetIndex(); err != nil {
		t.Fatalf("execGetIndex returned error: %v", err)
	}
	if got := machine.Pop(); value.DecodeInt(got) != 20 {
		t.Fatalf("arr[1] = %v, want 20", got)
	}
}

func TestExecGetIndexOutOfRangeIsNull(t *testing.T) {
	machine := New()
	arr := machine.Heap.AllocArray([]value.Value{value.EncodeInt(10)})
	machine.Push(arr)
	machine.Push(value.EncodeInt(5))
	if err := machine.execGetIndex(); err != nil {
		t.Fatalf("execGetIndex returned error: %v", err)
	}
	if got := machine.Pop(); got != value.Null {
		t.Fatalf("out-of-range index read %v, want null", got)
	}
}

func TestExecGetIndexOnNonArrayIsTypeError(t *testing.T) {
	machine := New()
	machine.Push(value.EncodeInt(1))
	machine.Push(value.EncodeInt(0))
	if err := machine.execGetIndex(); err == nil {
		t.Fatal("expected a type error indexing a non-array, got nil")
	}
}

func TestExecSetIndexGrowsArrayWithNullPadding(t *testing.T) {
	machine := New()
	arr := machine.Heap.AllocArray([]value.Value{value.EncodeInt(1)})
	machine.Push(arr)
	machine.Push(value.EncodeInt(3))
	machine.Push(value.EncodeInt(99))
	if err := machine.execSetIndex(); err != nil {
		t.Fatalf("execSetIndex returned error: %v", err)
	}
	cell := machine.Heap.Get(value.DecodePointer(arr))
	if len(cell.Elems) != 4 {
		t.Fatalf("array length = %d, want 4 after growth", len(cell.Elems))
	}
	if cell.Elems[1] != value.Null || cell.Elems[2] != value.Null {
		t.Fatalf("padding = %v, want null", cell.Elems[1:3])
	}
	if value.DecodeInt(cell.Elems[3]) != 99 {
		t.Fatalf("cell.Elems[3] = %v, want 99", cell.Elems[3])
	}
}

func TestExecGetMemberValueIndexesArrayByIntKey(t *testing.T) {
	machine := New()
	arr := machine.Heap.AllocArray([]value.Value{value.EncodeInt(7), value.EncodeInt(8)})
	machine.Push(arr)
	machine.Push(value.EncodeInt(0))
	if err := machine.execGetMemberValue(); err != nil {
		t.Fatalf("execGetMemberValue returned error: %v", err)
	}
	if got := machine.Pop(); value.DecodeInt(got) != 7 {
		t.Fatalf("arr[0] via get_member_value = %v, want 7", got)
	}
}

func TestExecGetMemberValueResolvesSymbolKeyThroughMemberChain(t *testing.T) {
	machine := New()
	sym := machine.Interner.Intern("x")
	obj := machine.Heap.AllocObject(value.Null)
	cell := machine.Heap.Get(value.DecodePointer(obj))
	cell.Fields[sym] = value.EncodeInt(42)

	machine.Push(obj)
	machine.Push(value.EncodeSymbol(sym))
	if err := machine.execGetMemberValue(); err != nil {
		t.Fatalf("execGetMemberValue returned error: %v", err)
	}
	if got := machine.Pop(); value.DecodeInt(got) != 42 {
		t.Fatalf("obj[sym] via get_member_value = %v, want 42", got)
	}
}

func TestExecSetMemberValueWritesObjectFieldByDynamicSymbol(t *testing.T) {
	machine := New()
	sym := machine.Interner.Intern("y")
	obj := machine.Heap.AllocObject(value.Null)

	machine.Push(obj)
	machine.Push(value.EncodeSymbol(sym))
	machine.Push(value.EncodeInt(5))
	if err := machine.execSetMemberValue(); err != nil {
		t.Fatalf("execSetMemberValue returned error: %v", err)
	}
	cell := machine.Heap.Get(value.DecodePointer(obj))
	if value.DecodeInt(cell.Fields[sym]) != 5 {
		t.Fatalf("field %v = %v, want 5", sym, cell.Fields[sym])
	}
}

func TestExecSetMemberValueIndexesArrayByIntKey(t *testing.T) {
	machine := New()
	arr := machine.Heap.AllocArray([]value.Value{value.EncodeInt(0), value.EncodeInt(0)})

	machine.Push(arr)
	machine.Push(value.EncodeInt(1))
	machine.Push(value.EncodeInt(77))
	if err := machine.execSetMemberValue(); err != nil {
		t.Fatalf("execSetMemberValue returned error: %v", err)
	}
	cell := machine.Heap.Get(value.DecodePointer(arr))
	if value.DecodeInt(cell.Elems[1]) != 77 {
		t.Fatalf("arr[1] = %v, want 77", cell.Elems[1])
	}
}

