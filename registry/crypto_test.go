package registry

import (
	"testing"

	"lumen/heap"
	"lumen/value"
)

func TestRipemd160IsDeterministic(t *testing.T) {
	h := heap.New(nil)
	a, err := cryptoRipemd160(h, []value.Value{h.AllocString("hello")})
	if err != nil {
		t.Fatalf("cryptoRipemd160 returned error: %v", err)
	}
	b, err := cryptoRipemd160(h, []value.Value{h.AllocString("hello")})
	if err != nil {
		t.Fatalf("cryptoRipemd160 returned error: %v", err)
	}
	sa, _ := h.StringValue(a)
	sb, _ := h.StringValue(b)
	if sa != sb || len(sa) == 0 {
		t.Fatalf("ripemd160(hello) not deterministic: %q vs %q", sa, sb)
	}
}

func TestArgon2RoundTripsThroughVerify(t *testing.T) {
	h := heap.New(nil)
	encoded, err := cryptoArgon2(h, []value.Value{h.AllocString("correct horse")})
	if err != nil {
		t.Fatalf("cryptoArgon2 returned error: %v", err)
	}

	ok, err := cryptoArgon2Verify(h, []value.Value{h.AllocString("correct horse"), encoded})
	if err != nil {
		t.Fatalf("cryptoArgon2Verify returned error: %v", err)
	}
	if ok != value.True {
		t.Fatal("argon2Verify rejected the password it was just hashed from")
	}

	bad, err := cryptoArgon2Verify(h, []value.Value{h.AllocString("wrong password"), encoded})
	if err != nil {
		t.Fatalf("cryptoArgon2Verify returned error: %v", err)
	}
	if bad != value.False {
		t.Fatal("argon2Verify accepted an incorrect password")
	}
}

func TestArgon2VerifyMalformedEncodingIsFalseNotError(t *testing.T) {
	h := heap.New(nil)
	got, err := cryptoArgon2Verify(h, []value.Value{h.AllocString("x"), h.AllocString("not-a-valid-encoding")})
	if err != nil {
		t.Fatalf("cryptoArgon2Verify returned error: %v", err)
	}
	if got != value.False {
		t.Fatalf("malformed encoding verified as %v, want false", got)
	}
}
