package registry

import (
	"math"
	"testing"

	"lumen/heap"
	"lumen/value"
)

func TestMathUnaryFunctions(t *testing.T) {
	h := heap.New(nil)
	got, err := mathUnary(math.Sqrt)(h, []value.Value{value.EncodeInt(16)})
	if err != nil {
		t.Fatalf("sqrt(16) returned error: %v", err)
	}
	f, ok := h.NumericValue(got)
	if !ok || f != 4 {
		t.Fatalf("sqrt(16) = %v, want 4", got)
	}
}

func TestMathUnaryOnNonNumericIsTypeError(t *testing.T) {
	h := heap.New(nil)
	_, err := mathUnary(math.Sin)(h, []value.Value{h.AllocString("x")})
	if err == nil {
		t.Fatal("expected a type error for a non-numeric argument")
	}
}

func TestMathPow(t *testing.T) {
	h := heap.New(nil)
	got, err := mathPow(h, []value.Value{value.EncodeInt(2), value.EncodeInt(10)})
	if err != nil {
		t.Fatalf("pow(2, 10) returned error: %v", err)
	}
	f, ok := h.NumericValue(got)
	if !ok || f != 1024 {
		t.Fatalf("pow(2, 10) = %v, want 1024", got)
	}
}
