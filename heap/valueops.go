package heap

import "lumen/value"

// Equal implements value equality (spec.md §4.4): identical encodings
// are always equal; boxed floats and strings compare by content since
// two separately allocated cells can hold the same content.
func (h *Heap) Equal(a, b value.Value) bool {
	if a == b {
		return true
	}
	if value.TypeOf(a) != value.KindPointer || value.TypeOf(b) != value.KindPointer {
		return false
	}
	ca, cb := h.Get(value.DecodePointer(a)), h.Get(value.DecodePointer(b))
	if ca == nil || cb == nil || ca.Kind != cb.Kind {
		return false
	}
	switch ca.Kind {
	case KindString:
		return ca.Str == cb.Str
	case KindFloat:
		return ca.Float == cb.Float
	default:
		// Objects, arrays, functions, classes and frames use identity
		// equality: same cell, same handle, already covered by a == b.
		return false
	}
}

// NumericValue returns a's numeric value as a float64 and true, for
// any Value that participates in arithmetic: immediate ints,
// immediate floats, and boxed (heap) floats. Non-numeric values
// return (0, false); arithmetic on them widens to NaN per spec.md
// §4.4 rather than throwing.
func (h *Heap) NumericValue(a value.Value) (float64, bool) {
	switch value.TypeOf(a) {
	case value.KindInt:
		return float64(value.DecodeInt(a)), true
	case value.KindFloat:
		return value.DecodeFloatImmediate(a), true
	case value.KindPointer:
		cell := h.Get(value.DecodePointer(a))
		if cell != nil && cell.Kind == KindFloat {
			return cell.Float, true
		}
	}
	return 0, false
}

// StringValue returns a's backing string and true if a is a String
// cell, for member-access and concatenation call sites.
func (h *Heap) StringValue(a value.Value) (string, bool) {
	if value.TypeOf(a) != value.KindPointer {
		return "", false
	}
	cell := h.Get(value.DecodePointer(a))
	if cell == nil || cell.Kind != KindString {
		return "", false
	}
	return cell.Str, true
}
