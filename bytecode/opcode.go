// Package bytecode defines the InstructionBlock wire format the VM
// executes: a flat opcode stream with fixed-width operands, a constant
// pool, child-block references (for nested function bodies) and a
// source-location map. Nothing in this package knows how to produce an
// InstructionBlock from source text — that is a compiler's job, and
// compilers are out of scope here (see asm, the hand-assembler used by
// tests to build blocks directly).
package bytecode

// OpCode identifies one instruction. Grounded on the teacher's
// vm.OpCode table, generalized from MOO-specific ops (OP_CALL_VERB,
// OP_SCATTER) to the class-based dispatch and catch-table unwinding
// this runtime needs.
type OpCode byte

const (
	// Stack
	OpPush     OpCode = iota // u32 const-pool index
	OpPushInt                // i64 immediate
	OpPop
	OpDup
	OpDupN // u32 count: duplicate the top N stack slots in place
	OpSwap // no operand: swap the top two stack slots

	// Locals: level byte (0 = current frame, N = walk N lexical parents)
	// then u32 local index.
	OpGetLocal
	OpSetLocal

	// Members: pop receiver, push receiver[symbol] where symbol is a
	// u32 const-pool index into the symbol table.
	OpGetMember
	OpSetMember // pop value, receiver; set receiver[symbol] = value

	// Array indexing: pop index, receiver (OpGetIndex) or value, index,
	// receiver (OpSetIndex); index must be an integer.
	OpGetIndex
	OpSetIndex

	// Member access with a runtime-computed key: pop key, receiver
	// (OpGetMemberValue) or value, key, receiver (OpSetMemberValue). An
	// integer key against an Array indexes it; a symbol key goes
	// through the ordinary member chain; any other key is a type error.
	OpGetMemberValue
	OpSetMemberValue

	// Arithmetic: pop b, a; push a op b. Non-numeric operands widen to
	// NaN rather than throwing (spec.md §4.4).
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpMod
	OpNeg

	// Comparison: pop b, a; push a op b as a boolean.
	OpEq
	OpNe
	OpLt
	OpLe
	OpGt
	OpGe

	// Fused compare-and-branch: pop b, a; compare a op b and, if true,
	// add the signed i32 IP delta. Used by loop back-edges to avoid a
	// separate compare/OpJumpIfFalse pair in the common case.
	OpBranchEq
	OpBranchNe
	OpBranchLt
	OpBranchLe
	OpBranchGt
	OpBranchGe

	// Logical / bitwise
	OpNot
	OpBitAnd
	OpBitOr
	OpBitXor
	OpBitNot
	OpShl
	OpShr

	// Control flow: all branch operands are signed 32-bit IP deltas,
	// relative to the start of the instruction after the operand.
	OpJump
	OpJumpIfFalse
	OpJumpIfTrue

	// Aggregates: u32 element/field count.
	OpMakeArray
	OpMakeObject

	// typeof: pop a, push its Kind tag as an integer.
	OpTypeOf

	// OpPutString pushes a heap-boxed copy of the u32-indexed string
	// literal from the block's Strings table.
	OpPutString

	// OpPutFunction pushes a closure over the current frame
	// (spec.md §4.4 op_putfunction). Operands: u32 name symbol index,
	// u32 child-block index, u32 arity, u32 local count, u8 flags
	// (bit 0 = variadic, bit 1 = anonymous).
	OpPutFunction

	// OpPutCFunction pushes the registered native bound to the u32
	// name-symbol operand (spec.md §4.4 op_putcfunction). Operands:
	// u32 name symbol index, u32 arity.
	OpPutCFunction

	// OpPutGenerator pushes a generator closure binding the current
	// frame's self (spec.md §4.4 op_putgenerator). Operands: u32 name
	// symbol index, u32 child-block index, u32 arity.
	OpPutGenerator

	// OpPutClass builds a class from pieces already on the stack
	// (spec.md §4.4 op_putclass). Operands: u32 name symbol index,
	// a member symbol-index list, a method symbol-index list, a
	// static-member symbol-index list (each list: u32 count then that
	// many u32 symbol-pool indices), u8 hasParent, u8 hasCtor. Stack,
	// bottom to top: [methodVals..., staticVals..., parent?, ctor?]
	// with parent/ctor present only when their flag is set.
	OpPutClass

	// Calls: u32 argc (OpCallMember: u32 method symbol index, then u32
	// argc). OpCall expects [callee, arg0..argN] on the
	// stack; OpCallMember expects [receiver, arg0..argN] and looks the
	// method up via the member-access chain before calling it
	// (spec.md §4.3).
	OpCall
	OpCallMember

	// Returns the top of stack from the current frame to its caller.
	OpReturn

	// Catch-table stack: OpPushCatch reads a u32 absolute resume IP
	// within the current block (an IP, not an offset from this
	// instruction) and records the current operand-stack height; OpPopCatch
	// removes the most recently pushed entry without unwinding.
	OpPushCatch
	OpPopCatch

	// OpThrow pops the top of stack and unwinds to the nearest catch
	// entry in scope, restoring the stack height it recorded; with no
	// entry in scope the current module halts (spec.md §7).
	OpThrow

	// OpHalt stops the frame immediately, independent of the return
	// opcode, used at a module's top level.
	OpHalt

	// OpYield suspends the current generator frame, handing the top of
	// stack out to whoever resumed the generator and blocking until resumed
	// (spec.md §9 design note on generator coroutines — no bytecode
	// analog in the distilled spec, added here since the runtime core
	// otherwise has no way to express "call a function that pauses").
	OpYield
)

var opNames = [...]string{
	OpPush: "push", OpPushInt: "push_int", OpPop: "pop", OpDup: "dup",
	OpDupN: "dupn", OpSwap: "swap",
	OpGetLocal: "get_local", OpSetLocal: "set_local",
	OpGetMember: "get_member", OpSetMember: "set_member",
	OpGetIndex: "get_index", OpSetIndex: "set_index",
	OpGetMemberValue: "get_member_value", OpSetMemberValue: "set_member_value",
	OpAdd: "add", OpSub: "sub", OpMul: "mul", OpDiv: "div", OpMod: "mod", OpNeg: "neg",
	OpEq: "eq", OpNe: "ne", OpLt: "lt", OpLe: "le", OpGt: "gt", OpGe: "ge",
	OpBranchEq: "branch_eq", OpBranchNe: "branch_ne", OpBranchLt: "branch_lt",
	OpBranchLe: "branch_le", OpBranchGt: "branch_gt", OpBranchGe: "branch_ge",
	OpNot: "not", OpBitAnd: "bitand", OpBitOr: "bitor", OpBitXor: "bitxor",
	OpBitNot: "bitnot", OpShl: "shl", OpShr: "shr",
	OpJump: "jump", OpJumpIfFalse: "jump_if_false", OpJumpIfTrue: "jump_if_true",
	OpMakeArray: "make_array", OpMakeObject: "make_object",
	OpTypeOf:   "typeof",
	OpPutString: "put_string", OpPutFunction: "put_function",
	OpPutCFunction: "put_cfunction", OpPutGenerator: "put_generator",
	OpPutClass: "put_class",
	OpCall: "call", OpCallMember: "call_member",
	OpReturn: "return",
	OpPushCatch: "push_catch", OpPopCatch: "pop_catch", OpThrow: "throw",
	OpHalt:  "halt",
	OpYield: "yield",
}

func (op OpCode) String() string {
	if int(op) < len(opNames) && opNames[op] != "" {
		return opNames[op]
	}
	return "unknown"
}
