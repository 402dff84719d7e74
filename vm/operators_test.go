package vm

import (
	"math"
	"testing"

	"lumen/asm"
	"lumen/bytecode"
	"lumen/value"
)

func TestBinaryArithIntFastPath(t *testing.T) {
	machine := New()
	machine.Push(value.EncodeInt(7))
	machine.Push(value.EncodeInt(3))
	if err := machine.binaryArith(bytecode.OpAdd); err != nil {
		t.Fatalf("binaryArith returned error: %v", err)
	}
	got := machine.Pop()
	if value.TypeOf(got) != value.KindInt || value.DecodeInt(got) != 10 {
		t.Fatalf("7+3 = %v, want int 10", got)
	}
}

func TestBinaryArithModByZeroIsNaN(t *testing.T) {
	machine := New()
	machine.Push(value.EncodeInt(7))
	machine.Push(value.EncodeInt(0))
	if err := machine.binaryArith(bytecode.OpMod); err != nil {
		t.Fatalf("binaryArith returned error: %v", err)
	}
	got := machine.Pop()
	f, ok := machine.Heap.NumericValue(got)
	if !ok || !math.IsNaN(f) {
		t.Fatalf("7 mod 0 = %v, want NaN", got)
	}
}

func TestBinaryArithDivAlwaysFloatPath(t *testing.T) {
	machine := New()
	machine.Push(value.EncodeInt(7))
	machine.Push(value.EncodeInt(2))
	if err := machine.binaryArith(bytecode.OpDiv); err != nil {
		t.Fatalf("binaryArith returned error: %v", err)
	}
	got := machine.Pop()
	f, ok := machine.Heap.NumericValue(got)
	if !ok || f != 3.5 {
		t.Fatalf("7/2 = %v, want 3.5", got)
	}
}

func TestIntResultWidensOnOverflow(t *testing.T) {
	machine := New()
	got := machine.intResult(value.MaxEncodableInt + 1)
	if value.TypeOf(got) == value.KindInt {
		t.Fatalf("intResult(%d) stayed an int, want a float widen", value.MaxEncodableInt+1)
	}
}

func TestCompareEqUsesHeapEqual(t *testing.T) {
	machine := New()
	a := machine.Heap.AllocString("x")
	b := machine.Heap.AllocString("x")
	machine.Push(a)
	machine.Push(b)
	if err := machine.compare(bytecode.OpEq); err != nil {
		t.Fatalf("compare returned error: %v", err)
	}
	if got := machine.Pop(); got != value.True {
		t.Fatalf("equal strings compared %v, want true", got)
	}
}

func TestCompareOrderingOnNonNumericIsFalse(t *testing.T) {
	machine := New()
	machine.Push(machine.Heap.AllocString("x"))
	machine.Push(value.EncodeInt(1))
	if err := machine.compare(bytecode.OpLt); err != nil {
		t.Fatalf("compare returned error: %v", err)
	}
	if got := machine.Pop(); got != value.False {
		t.Fatalf("non-numeric ordering compared %v, want false", got)
	}
}

func TestBitwiseShlShiftsLeft(t *testing.T) {
	machine := New()
	machine.Push(value.EncodeInt(1))
	machine.Push(value.EncodeInt(4))
	if err := machine.bitwise(bytecode.OpShl); err != nil {
		t.Fatalf("bitwise returned error: %v", err)
	}
	if got := machine.Pop(); value.DecodeInt(got) != 16 {
		t.Fatalf("1<<4 = %v, want 16", got)
	}
}

func TestOpDupNDuplicatesTopNSlots(t *testing.T) {
	machine := New()
	b := asm.New()
	b.PushInt(1).PushInt(2).PushInt(3)
	b.DupN(2)

	machine.pushFrame(b.Build(), nil, nil, value.Null, nil)
	for i := 0; i < 4; i++ { // three pushes, then the dupn itself
		if err := machine.step(); err != nil {
			t.Fatalf("step returned error: %v", err)
		}
	}
	if len(machine.Stack) != 5 {
		t.Fatalf("stack = %v, want 5 entries after dupn 2", machine.Stack)
	}
	if value.DecodeInt(machine.Stack[3]) != 2 || value.DecodeInt(machine.Stack[4]) != 3 {
		t.Fatalf("duplicated slots = %v, want [2 3]", machine.Stack[3:])
	}
}

func TestExecSwapExchangesTopTwoSlots(t *testing.T) {
	machine := New()
	machine.Push(value.EncodeInt(1))
	machine.Push(value.EncodeInt(2))
	if err := machine.execSwap(); err != nil {
		t.Fatalf("execSwap returned error: %v", err)
	}
	if got := machine.Pop(); value.DecodeInt(got) != 1 {
		t.Fatalf("top after swap = %v, want 1", got)
	}
	if got := machine.Pop(); value.DecodeInt(got) != 2 {
		t.Fatalf("second after swap = %v, want 2", got)
	}
}

func TestExecFusedBranchTakenAdvancesIP(t *testing.T) {
	machine := New()
	b := asm.New()
	b.PushInt(1).PushInt(1)
	br := b.BranchEq()
	b.PushInt(0xBAD).Return() // skipped when the branch is taken
	b.Patch(br)
	b.PushInt(7).Return()

	result, err := machine.Run(b.Build())
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if value.DecodeInt(result) != 7 {
		t.Fatalf("result = %v, want 7 (branch taken, skipping the bad path)", result)
	}
}

func TestExecFusedBranchNotTakenFallsThrough(t *testing.T) {
	machine := New()
	b := asm.New()
	b.PushInt(1).PushInt(2)
	br := b.BranchEq()
	b.PushInt(11).Return()
	b.Patch(br)
	b.PushInt(0xBAD).Return()

	result, err := machine.Run(b.Build())
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if value.DecodeInt(result) != 11 {
		t.Fatalf("result = %v, want 11 (branch not taken)", result)
	}
}

func TestUnaryNegOnNonNumericIsNaN(t *testing.T) {
	machine := New()
	machine.Push(machine.Heap.AllocString("x"))
	if err := machine.unaryNeg(); err != nil {
		t.Fatalf("unaryNeg returned error: %v", err)
	}
	got := machine.Pop()
	f, ok := machine.Heap.NumericValue(got)
	if !ok || !math.IsNaN(f) {
		t.Fatalf("-\"x\" = %v, want NaN", got)
	}
}
