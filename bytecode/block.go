package bytecode

import "lumen/value"

// LineEntry maps a byte offset in Code to a source line, for
// tracebacks only — nothing in the runtime core re-derives source
// positions from it. Grounded on the teacher's Program.LineEntry.
type LineEntry struct {
	StartIP int
	Line    int
}

// InstructionBlock is the unit of compiled code the VM executes: one
// function body, or a module's top-level body. The compiler that
// produces these is out of scope (spec.md §1); this package only
// defines the format and the read helpers the VM's instruction
// pointer uses to walk it.
type InstructionBlock struct {
	Code []byte

	// Constants holds non-immediate-encodable literals (long strings,
	// boxed floats outside the immediate range, prebuilt heap values)
	// referenced by OpPush's u32 index. Child function bodies live in
	// Children, not here.
	Constants []value.Value

	// Symbols maps a symbol-pool index to the interned symbol it names,
	// used by OpGetMember/OpSetMember, OpCallMember and the OpPut*
	// construction opcodes.
	Symbols []value.Symbol

	// Children holds InstructionBlocks for function/generator literals
	// declared inside this block, referenced directly by index from
	// OpPutFunction/OpPutGenerator's child-block operand.
	Children []*InstructionBlock

	// Strings holds string literals referenced by OpPutString's u32
	// index, kept separate from Constants so a literal needn't be
	// boxed onto the heap until the instruction actually runs.
	Strings []string

	NumLocals int
	Arity     int
	Variadic  bool

	Lines []LineEntry
}

// LineForIP returns the source line active at byte offset ip, or 0 if
// this block carries no line table.
func (b *InstructionBlock) LineForIP(ip int) int {
	line := 0
	for _, e := range b.Lines {
		if e.StartIP > ip {
			break
		}
		line = e.Line
	}
	return line
}
