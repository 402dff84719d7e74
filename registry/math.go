package registry

import (
	"math"

	"lumen/heap"
	"lumen/value"
	"lumen/verr"
)

// RegisterMath wires the Math:: namespace, grounded on the teacher's
// builtins/math.go surface (sin/cos/sqrt/pow over MOO numbers) but
// operating on value.Value directly through Heap.NumericValue instead
// of a MOO-verb call.
func RegisterMath(r *Registry) {
	r.Register("Math::sin", 1, false, mathUnary(math.Sin))
	r.Register("Math::cos", 1, false, mathUnary(math.Cos))
	r.Register("Math::sqrt", 1, false, mathUnary(math.Sqrt))
	r.Register("Math::abs", 1, false, mathUnary(math.Abs))
	r.Register("Math::pow", 2, false, mathPow)
}

func mathUnary(fn func(float64) float64) heap.Native {
	return func(h *heap.Heap, args []value.Value) (value.Value, error) {
		f, ok := h.NumericValue(args[0])
		if !ok {
			return value.Null, verr.Typef("expected a number")
		}
		return boxFloat(h, fn(f)), nil
	}
}

func mathPow(h *heap.Heap, args []value.Value) (value.Value, error) {
	base, ok1 := h.NumericValue(args[0])
	exp, ok2 := h.NumericValue(args[1])
	if !ok1 || !ok2 {
		return value.Null, verr.Typef("Math::pow expects two numbers")
	}
	return boxFloat(h, math.Pow(base, exp)), nil
}

func boxFloat(h *heap.Heap, f float64) value.Value {
	if v, ok := value.EncodeFloatImmediate(f); ok {
		return v
	}
	return h.AllocFloat(f)
}
