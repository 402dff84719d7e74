package registry

import (
	"crypto/rand"
	"encoding/hex"
	"strings"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/ripemd160"

	"lumen/heap"
	"lumen/value"
	"lumen/verr"
)

// RegisterCrypto wires the Crypto:: namespace onto r, grounded on the
// teacher's builtins/crypto.go (which reaches for the same two
// packages to hash MOO player passwords) but exposed as plain
// CFunctions instead of a MOO-verb-calling-convention builtin.
func RegisterCrypto(r *Registry) {
	r.Register("Crypto::ripemd160", 1, false, cryptoRipemd160)
	r.Register("Crypto::argon2", 1, false, cryptoArgon2)
	r.Register("Crypto::argon2Verify", 2, false, cryptoArgon2Verify)
}

func cryptoRipemd160(h *heap.Heap, args []value.Value) (value.Value, error) {
	s, ok := h.StringValue(args[0])
	if !ok {
		return value.Null, verr.Typef("Crypto::ripemd160 expects a string")
	}
	hasher := ripemd160.New()
	hasher.Write([]byte(s))
	return h.AllocString(hex.EncodeToString(hasher.Sum(nil))), nil
}

const (
	argon2Time    = 1
	argon2Memory  = 64 * 1024
	argon2Threads = 4
	argon2KeyLen  = 32
	argon2SaltLen = 16
)

func cryptoArgon2(h *heap.Heap, args []value.Value) (value.Value, error) {
	s, ok := h.StringValue(args[0])
	if !ok {
		return value.Null, verr.Typef("Crypto::argon2 expects a string")
	}
	salt := make([]byte, argon2SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return value.Null, verr.Panicf("Crypto::argon2: %v", err)
	}
	sum := argon2.IDKey([]byte(s), salt, argon2Time, argon2Memory, argon2Threads, argon2KeyLen)
	encoded := strings.Join([]string{
		hex.EncodeToString(salt),
		hex.EncodeToString(sum),
	}, "$")
	return h.AllocString(encoded), nil
}

func cryptoArgon2Verify(h *heap.Heap, args []value.Value) (value.Value, error) {
	s, ok := h.StringValue(args[0])
	if !ok {
		return value.Null, verr.Typef("Crypto::argon2Verify expects a string")
	}
	encoded, ok := h.StringValue(args[1])
	if !ok {
		return value.Null, verr.Typef("Crypto::argon2Verify expects an encoded hash string")
	}
	parts := strings.Split(encoded, "$")
	if len(parts) != 2 {
		return value.False, nil
	}
	salt, err := hex.DecodeString(parts[0])
	if err != nil {
		return value.False, nil
	}
	want, err := hex.DecodeString(parts[1])
	if err != nil {
		return value.False, nil
	}
	got := argon2.IDKey([]byte(s), salt, argon2Time, argon2Memory, argon2Threads, argon2KeyLen)
	if len(got) != len(want) {
		return value.False, nil
	}
	diff := byte(0)
	for i := range got {
		diff |= got[i] ^ want[i]
	}
	return value.FromBool(diff == 0), nil
}
