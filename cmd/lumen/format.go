package main

import (
	"fmt"

	"lumen/heap"
	"lumen/value"
	"lumen/vm"
)

// formatValue renders a Value for CLI output. It never allocates: it
// only reads whatever the VM's heap already holds.
func formatValue(machine *vm.VM, v value.Value) string {
	switch value.TypeOf(v) {
	case value.KindInt:
		return fmt.Sprintf("%d", value.DecodeInt(v))
	case value.KindFloat:
		return fmt.Sprintf("%g", value.DecodeFloatImmediate(v))
	case value.KindTrue:
		return "true"
	case value.KindFalse:
		return "false"
	case value.KindNull:
		return "null"
	case value.KindSymbol:
		return fmt.Sprintf("#%d", value.DecodeSymbol(v))
	case value.KindPointer:
		cell := machine.Heap.Get(value.DecodePointer(v))
		if cell == nil {
			return "<dangling>"
		}
		if cell.Kind == heap.KindString {
			return cell.Str
		}
		return fmt.Sprintf("<%s>", cell.Kind)
	default:
		return "<unknown>"
	}
}
