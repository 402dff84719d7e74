package vm

import (
	"testing"

	"lumen/asm"
	"lumen/heap"
	"lumen/value"
)

func TestConstructRunsCtorAndReturnsSelfRegardlessOfStack(t *testing.T) {
	machine := New()

	// The ctor body leaves an unrelated int on the stack and returns it;
	// doReturn's IsConstructor override must discard that and yield the
	// constructed object instead (spec.md §4.3).
	ctorBody := asm.New()
	ctorBody.SetArity(1)
	ctorBody.SetNumLocals(1)
	ctorBody.PushInt(999)
	ctorBody.Return()

	main := asm.New()
	childIdx := main.Child(ctorBody.Build())
	mainBlock := main.Build()
	machine.pushFrame(mainBlock, nil, nil, value.Null, nil)

	clsVal := machine.Heap.Scope(heap.KindClass, func(c *heap.Cell) {
		proto := machine.Heap.Get(value.DecodePointer(machine.Heap.AllocObject(value.Null)))
		c.Prototype = proto
		ctor := machine.Heap.Get(value.DecodePointer(machine.Heap.Scope(heap.KindFunction, func(fc *heap.Cell) {
			fc.Arity = 1
			fc.Body = childIdx
			fc.ParentEnv = machine.Frame
		})))
		c.Ctor = ctor
	})
	cls := machine.Heap.Get(value.DecodePointer(clsVal))

	if err := machine.construct(cls, []value.Value{value.EncodeInt(7)}); err != nil {
		t.Fatalf("construct returned error: %v", err)
	}
	if !machine.Frame.IsConstructor {
		t.Fatal("construct did not mark the pushed frame IsConstructor")
	}
	wantSelf := machine.Frame.Self

	for machine.Frame != nil && machine.Frame.IsConstructor {
		if err := machine.step(); err != nil {
			t.Fatalf("step returned error: %v", err)
		}
	}
	result := machine.Pop()
	if result != wantSelf {
		t.Fatalf("construct result = %v, want the constructed self %v", result, wantSelf)
	}
	if value.TypeOf(result) != value.KindPointer {
		t.Fatalf("construct result = %v, want a pointer to the new object", result)
	}
}

func TestPackVariadicCollectsExtraArgsIntoArray(t *testing.T) {
	machine := New()
	args := []value.Value{value.EncodeInt(1), value.EncodeInt(2), value.EncodeInt(3)}
	packed := packVariadic(machine.Heap, 1, args)
	if len(packed) != 2 {
		t.Fatalf("packed = %v, want 2 entries (fixed + rest array)", packed)
	}
	if value.DecodeInt(packed[0]) != 1 {
		t.Fatalf("fixed arg = %v, want 1", packed[0])
	}
	restCell := machine.Heap.Get(value.DecodePointer(packed[1]))
	if len(restCell.Elems) != 2 {
		t.Fatalf("rest array length = %d, want 2", len(restCell.Elems))
	}
}

func TestPackVariadicPadsMissingArgsWithNull(t *testing.T) {
	machine := New()
	packed := packVariadic(machine.Heap, 3, []value.Value{value.EncodeInt(1)})
	if len(packed) != 3 {
		t.Fatalf("packed = %v, want 3 entries padded with null", packed)
	}
	if packed[1] != value.Null || packed[2] != value.Null {
		t.Fatalf("padded args = %v, want null", packed[1:])
	}
}

func TestInvokeCallingNonPointerIsTypeError(t *testing.T) {
	machine := New()
	block := asm.New().Build()
	machine.pushFrame(block, nil, nil, value.Null, nil)

	err := machine.invoke(value.EncodeInt(5), value.Null, nil, false)
	if err == nil {
		t.Fatal("expected a type error calling a non-pointer value")
	}
}
