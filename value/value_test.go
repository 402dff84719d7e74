package value

import "testing"

func TestIntRoundTrip(t *testing.T) {
	cases := []int64{0, 1, -1, 42, MaxEncodableInt, MinEncodableInt, -12345, 999999999}
	for _, n := range cases {
		v := EncodeInt(n)
		if TypeOf(v) != KindInt {
			t.Fatalf("EncodeInt(%d) did not produce KindInt", n)
		}
		if got := DecodeInt(v); got != n {
			t.Errorf("DecodeInt(EncodeInt(%d)) = %d", n, got)
		}
	}
}

func TestFloatImmediateRoundTrip(t *testing.T) {
	cases := []float64{0, 1, -1, 3.0, 100.0, -100.0}
	for _, f := range cases {
		v, ok := EncodeFloatImmediate(f)
		if !ok {
			t.Fatalf("EncodeFloatImmediate(%v) reported not encodable", f)
		}
		if TypeOf(v) != KindFloat {
			t.Fatalf("EncodeFloatImmediate(%v) did not produce KindFloat", f)
		}
		if got := DecodeFloatImmediate(v); got != f {
			t.Errorf("DecodeFloatImmediate(EncodeFloatImmediate(%v)) = %v", f, got)
		}
	}
}

func TestTruthy(t *testing.T) {
	if Truthy(False) {
		t.Error("False must be falsy")
	}
	if Truthy(Null) {
		t.Error("Null must be falsy")
	}
	if Truthy(EncodeInt(0)) {
		t.Error("integer zero must be falsy")
	}
	if v, _ := EncodeFloatImmediate(0); Truthy(v) {
		t.Error("float zero must be falsy")
	}
	if !Truthy(True) {
		t.Error("True must be truthy")
	}
	if !Truthy(EncodeInt(1)) {
		t.Error("nonzero int must be truthy")
	}
	if !Truthy(EncodeInt(-1)) {
		t.Error("negative int must be truthy")
	}
}

func TestPointerRoundTrip(t *testing.T) {
	for _, h := range []Handle{1, 2, 1000, 1 << 40} {
		v := EncodePointer(h)
		if TypeOf(v) != KindPointer {
			t.Fatalf("EncodePointer(%d) did not produce KindPointer", h)
		}
		if got := DecodePointer(v); got != h {
			t.Errorf("DecodePointer(EncodePointer(%d)) = %d", h, got)
		}
	}
}

func TestSymbolRoundTrip(t *testing.T) {
	for _, id := range []Symbol{0, 1, 42, 1 << 20} {
		v := EncodeSymbol(id)
		if TypeOf(v) != KindSymbol {
			t.Fatalf("EncodeSymbol(%d) did not produce KindSymbol", id)
		}
		if got := DecodeSymbol(v); got != id {
			t.Errorf("DecodeSymbol(EncodeSymbol(%d)) = %d", id, got)
		}
	}
}

func TestSingletonsDistinct(t *testing.T) {
	if False == True || False == Null || True == Null {
		t.Fatal("False, True, Null must be distinct encodings")
	}
	if TypeOf(False) != KindFalse {
		t.Error("TypeOf(False) != KindFalse")
	}
	if TypeOf(True) != KindTrue {
		t.Error("TypeOf(True) != KindTrue")
	}
	if TypeOf(Null) != KindNull {
		t.Error("TypeOf(Null) != KindNull")
	}
}
