package vm

import (
	"testing"

	"lumen/asm"
	"lumen/heap"
	"lumen/value"
)

// TestCallResumesScriptFunctionAndReturnsAcrossFrames exercises the
// embedder-facing seam an async native's callback uses (spec.md §5):
// Call must drive the dispatcher through a real Function push/pop, not
// just a synchronous CFunction.
func TestCallResumesScriptFunctionAndReturnsAcrossFrames(t *testing.T) {
	machine := New()

	body := asm.New()
	body.SetArity(1)
	body.SetNumLocals(1)
	body.GetLocal(0, 0)
	body.PushInt(1)
	body.Add()
	body.Return()

	main := asm.New()
	childIdx := main.Child(body.Build())
	mainBlock := main.Build()
	machine.pushFrame(mainBlock, nil, nil, value.Null, nil)

	fnVal := machine.Heap.Scope(heap.KindFunction, func(c *heap.Cell) {
		c.Arity = 1
		c.Body = childIdx
		c.ParentEnv = machine.Frame
	})

	result, err := machine.Call(fnVal, value.Null, []value.Value{value.EncodeInt(41)})
	if err != nil {
		t.Fatalf("Call returned error: %v", err)
	}
	if value.DecodeInt(result) != 42 {
		t.Fatalf("Call result = %v, want 42", result)
	}
	if machine.Frame == nil || machine.Frame.Block != mainBlock {
		t.Fatalf("Call did not return control to the original frame")
	}
}

func TestCallOnCFunctionDoesNotChangeFrame(t *testing.T) {
	machine := New()
	main := asm.New().Build()
	machine.pushFrame(main, nil, nil, value.Null, nil)
	startFrame := machine.Frame

	double := machine.Heap.AllocCFunction(value.Symbol(0), 1, func(h *heap.Heap, args []value.Value) (value.Value, error) {
		return value.EncodeInt(value.DecodeInt(args[0]) * 2), nil
	})

	result, err := machine.Call(double, value.Null, []value.Value{value.EncodeInt(5)})
	if err != nil {
		t.Fatalf("Call returned error: %v", err)
	}
	if value.DecodeInt(result) != 10 {
		t.Fatalf("Call result = %v, want 10", result)
	}
	if machine.Frame != startFrame {
		t.Fatalf("Call through a CFunction should not change the current frame")
	}
}
