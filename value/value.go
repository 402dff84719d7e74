// Package value implements the tagged-word Value representation (C1):
// a 64-bit machine word whose low bits distinguish heap pointers from
// immediate integers, immediate floats, symbols and the singleton
// constants false/true/null.
package value

import "math"

// Value is the tagged machine word described in spec.md §3.
//
// Tag layout (low bits):
//
//	xxx0   heap pointer (low 3 bits zero after 8-byte alignment)
//	xxx1   immediate integer, 63-bit signed, shifted left by 1
//	xx10   immediate float, 62 payload bits
//	01100  symbol (interned string id)
//	00000  false
//	10100  true
//	01000  null
type Value uint64

const (
	tagIntMask = 0x1
	tagInt     = 0x1

	tagFloatMask = 0x3
	tagFloat     = 0x2

	tagNarrowMask = 0x1f
	tagSymbol     = 0b01100
	tagFalse      = 0b00000
	tagTrue       = 0b10100
	tagNull       = 0b01000
)

// False, True and Null are the three non-numeric, non-pointer singleton
// constants. They double as canonical zero-valued sentinels: the Go
// zero value of Value is False, not an invalid state.
const (
	False Value = tagFalse
	True  Value = tagTrue
	Null  Value = tagNull
)

// Kind discriminates a Value's encoding without touching the heap.
type Kind uint8

const (
	KindPointer Kind = iota
	KindInt
	KindFloat
	KindSymbol
	KindFalse
	KindTrue
	KindNull
)

func (k Kind) String() string {
	switch k {
	case KindPointer:
		return "pointer"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindSymbol:
		return "symbol"
	case KindFalse:
		return "false"
	case KindTrue:
		return "true"
	case KindNull:
		return "null"
	default:
		return "unknown"
	}
}

// TypeOf returns the encoding kind of v. Pointer values still need a
// heap lookup (see heap.Object.Kind) to learn their concrete object
// variant.
//
// Tags must be tested narrowest-first: the pointer tag is just "low bit
// zero", which every immediate float, symbol and singleton encoding
// also satisfies, so checking it first would swallow all of them.
//
// False/True/Null are fixed literal words with no payload bits, so they
// must be matched by exact equality, not by masking: False (0b00000)
// and Null (0b01000) both have their tag's low 3 bits zero, the same
// pattern a pointer's low 3 bits always have, so masking on tagNarrowMask
// would also catch pointers whose handle happens to land on one of
// those patterns. Symbol does carry payload above its 5-bit tag, and
// that tag's bit 2 is always set, a pattern no pointer (low 3 bits
// zero) can ever produce, so masking is safe there.
func TypeOf(v Value) Kind {
	if v&tagIntMask == tagInt {
		return KindInt
	}
	if v&tagFloatMask == tagFloat {
		return KindFloat
	}
	switch v {
	case False:
		return KindFalse
	case True:
		return KindTrue
	case Null:
		return KindNull
	}
	if v&tagNarrowMask == tagSymbol {
		return KindSymbol
	}
	return KindPointer
}

// IsNumeric reports whether v is an immediate int or immediate float.
// Boxed floats live on the heap and are not immediate; callers that
// need "numeric including boxed floats" should also check the heap
// object kind.
func IsNumeric(v Value) bool {
	k := TypeOf(v)
	return k == KindInt || k == KindFloat
}

// Truthy implements spec.md §4.1: false, null and numeric zero are
// falsy; everything else, including empty strings/arrays, is truthy.
// Heap-resident values (strings, arrays, objects, …) are always truthy
// here — zero-length containers are truthy per spec.
func Truthy(v Value) bool {
	switch v {
	case False, Null:
		return false
	}
	switch TypeOf(v) {
	case KindInt:
		return DecodeInt(v) != 0
	case KindFloat:
		return DecodeFloatImmediate(v) != 0
	default:
		return true
	}
}

// EncodeInt packs a 63-bit signed integer into an immediate Value.
// The low bit is fixed to 1 (tagInt); the remaining 63 bits hold the
// value shifted left by one.
func EncodeInt(n int64) Value {
	return Value(uint64(n)<<1 | tagInt)
}

// DecodeInt extracts the 63-bit signed integer carried by an
// immediate-int Value. The caller must have checked TypeOf(v) == KindInt.
func DecodeInt(v Value) int64 {
	return int64(v) >> 1
}

// MaxEncodableInt / MinEncodableInt bound the encodable 63-bit range.
const (
	MaxEncodableInt = int64(1)<<62 - 1
	MinEncodableInt = -(int64(1) << 62)
)

// EncodeFloatImmediate encodes f as an immediate float when the two
// low tag bits (xx10) can replace its two low mantissa bits without
// loss, and reports false otherwise. No rotation is applied.
//
// We use the simplest reversible scheme that satisfies spec.md's "a
// float is encoded inline when its bit pattern, after rotating so the
// tag bits fit, is reversible" rule: store the float's bits with the
// bottom two bits cleared and OR in the tag, which is lossless only
// when those two low mantissa bits were already zero.
func EncodeFloatImmediate(f float64) (Value, bool) {
	bits := math.Float64bits(f)
	if bits&tagFloatMask != 0 {
		return 0, false
	}
	return Value(bits | tagFloat), true
}

// DecodeFloatImmediate reverses EncodeFloatImmediate. The caller must
// have checked TypeOf(v) == KindFloat.
func DecodeFloatImmediate(v Value) float64 {
	return math.Float64frombits(uint64(v) &^ tagFloatMask)
}

// CanEncodeFloatImmediate reports whether f round-trips through the
// immediate encoding without loss.
func CanEncodeFloatImmediate(f float64) bool {
	_, ok := EncodeFloatImmediate(f)
	return ok
}

// Symbol is an interned-string id distinct from a heap String object.
type Symbol uint32

// EncodeSymbol packs a symbol id into the narrow 5-bit-tagged encoding.
// Symbol ids are limited to 59 bits of payload (64 - 5), far beyond any
// realistic symbol table size.
func EncodeSymbol(id Symbol) Value {
	return Value(uint64(id)<<5 | tagSymbol)
}

// DecodeSymbol extracts the interned id from a symbol Value. The
// caller must have checked TypeOf(v) == KindSymbol.
func DecodeSymbol(v Value) Symbol {
	return Symbol(uint64(v) >> 5)
}

// FromBool encodes a Go bool as the True/False singleton.
func FromBool(b bool) Value {
	if b {
		return True
	}
	return False
}

// Handle identifies a heap cell by its arena index and slot within
// that arena (see package heap). A Handle of zero is never issued by
// the allocator.
type Handle uint64

// pointerBias shifts every encoded handle up by one slot before
// tagging, so the lowest handle the allocator ever issues (1) encodes
// to 16, not 8 — which is Null's own encoding (tagNull = 0b01000). Without
// the bias, EncodePointer(1) and Null would be the same Value and
// TypeOf could never tell a live first-allocated cell from the null
// singleton.
const pointerBias = 1

// EncodePointer packs a heap Handle into a pointer-tagged Value. The
// biased handle is shifted left by 3 so the low 3 tag bits are always
// zero, matching spec.md's "low 3 bits zero after alignment" pointer
// tag, while staying clear of the singleton/symbol bit patterns (see
// pointerBias).
func EncodePointer(h Handle) Value {
	return Value((uint64(h) + pointerBias) << 3)
}

// DecodePointer extracts the heap Handle from a pointer-tagged Value.
// The caller must have checked TypeOf(v) == KindPointer.
func DecodePointer(v Value) Handle {
	return Handle(uint64(v)>>3 - pointerBias)
}
