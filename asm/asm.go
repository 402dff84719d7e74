// Package asm is a minimal hand-assembler for building
// bytecode.InstructionBlocks directly in tests and in cmd/lumen's
// run subcommand. It is not a compiler front-end: there is no
// lexer, parser or AST here, only a builder that appends opcodes and
// fixed-width operands (spec.md §1 explicitly keeps a real compiler
// out of scope).
package asm

import (
	"lumen/bytecode"
	"lumen/value"
)

// Builder accumulates an instruction stream and the constant/symbol
// pools it references, then produces an InstructionBlock.
type Builder struct {
	code      []byte
	constants []value.Value
	symbols   []value.Symbol
	children  []*bytecode.InstructionBlock
	strings   []string
	numLocals int
	arity     int
	variadic  bool
}

func New() *Builder { return &Builder{} }

func (b *Builder) SetArity(n int) *Builder    { b.arity = n; return b }
func (b *Builder) SetVariadic(v bool) *Builder { b.variadic = v; return b }
func (b *Builder) SetNumLocals(n int) *Builder { b.numLocals = n; return b }

// Label returns the current byte offset, for computing jump deltas
// before the jump target is known.
func (b *Builder) Label() int { return len(b.code) }

func (b *Builder) emit(op bytecode.OpCode) *Builder {
	b.code = append(b.code, byte(op))
	return b
}

func (b *Builder) u32(n uint32) *Builder {
	b.code = append(b.code, byte(n>>24), byte(n>>16), byte(n>>8), byte(n))
	return b
}

func (b *Builder) u8(n uint8) *Builder {
	b.code = append(b.code, n)
	return b
}

func (b *Builder) i64(n int64) *Builder {
	u := uint64(n)
	for i := 7; i >= 0; i-- {
		b.code = append(b.code, byte(u>>(8*uint(i))))
	}
	return b
}

// Const appends v to the constant pool and returns its index.
func (b *Builder) Const(v value.Value) uint32 {
	b.constants = append(b.constants, v)
	return uint32(len(b.constants) - 1)
}

// Symbol appends sym to the symbol pool and returns its index.
func (b *Builder) Symbol(sym value.Symbol) uint32 {
	b.symbols = append(b.symbols, sym)
	return uint32(len(b.symbols) - 1)
}

// Child appends a nested InstructionBlock (a function literal's body)
// and returns its index for use as PutFunction/PutGenerator's childIdx.
func (b *Builder) Child(block *bytecode.InstructionBlock) uint32 {
	b.children = append(b.children, block)
	return uint32(len(b.children) - 1)
}

// String appends s to the string-literal pool and returns its index,
// for use with PutString.
func (b *Builder) String(s string) uint32 {
	b.strings = append(b.strings, s)
	return uint32(len(b.strings) - 1)
}

func (b *Builder) Push(constIdx uint32) *Builder      { return b.emit(bytecode.OpPush).u32(constIdx) }
func (b *Builder) PushInt(n int64) *Builder           { return b.emit(bytecode.OpPushInt).i64(n) }
func (b *Builder) Pop() *Builder                      { return b.emit(bytecode.OpPop) }
func (b *Builder) Dup() *Builder                      { return b.emit(bytecode.OpDup) }
func (b *Builder) DupN(n uint32) *Builder             { return b.emit(bytecode.OpDupN).u32(n) }
func (b *Builder) Swap() *Builder                     { return b.emit(bytecode.OpSwap) }

func (b *Builder) GetLocal(level uint8, idx uint32) *Builder {
	b.emit(bytecode.OpGetLocal)
	b.code = append(b.code, level)
	return b.u32(idx)
}

func (b *Builder) SetLocal(level uint8, idx uint32) *Builder {
	b.emit(bytecode.OpSetLocal)
	b.code = append(b.code, level)
	return b.u32(idx)
}

func (b *Builder) GetMember(symIdx uint32) *Builder { return b.emit(bytecode.OpGetMember).u32(symIdx) }
func (b *Builder) SetMember(symIdx uint32) *Builder { return b.emit(bytecode.OpSetMember).u32(symIdx) }

func (b *Builder) GetIndex() *Builder { return b.emit(bytecode.OpGetIndex) }
func (b *Builder) SetIndex() *Builder { return b.emit(bytecode.OpSetIndex) }

func (b *Builder) GetMemberValue() *Builder { return b.emit(bytecode.OpGetMemberValue) }
func (b *Builder) SetMemberValue() *Builder { return b.emit(bytecode.OpSetMemberValue) }

func (b *Builder) Add() *Builder    { return b.emit(bytecode.OpAdd) }
func (b *Builder) Sub() *Builder    { return b.emit(bytecode.OpSub) }
func (b *Builder) Mul() *Builder    { return b.emit(bytecode.OpMul) }
func (b *Builder) Div() *Builder    { return b.emit(bytecode.OpDiv) }
func (b *Builder) Mod() *Builder    { return b.emit(bytecode.OpMod) }
func (b *Builder) Neg() *Builder    { return b.emit(bytecode.OpNeg) }
func (b *Builder) Eq() *Builder     { return b.emit(bytecode.OpEq) }
func (b *Builder) Ne() *Builder     { return b.emit(bytecode.OpNe) }
func (b *Builder) Lt() *Builder     { return b.emit(bytecode.OpLt) }
func (b *Builder) Le() *Builder     { return b.emit(bytecode.OpLe) }
func (b *Builder) Gt() *Builder     { return b.emit(bytecode.OpGt) }
func (b *Builder) Ge() *Builder     { return b.emit(bytecode.OpGe) }

// BranchEq and its siblings emit a fused compare-and-branch: pop b, a;
// if a op b, add the reserved operand's signed delta to the IP. They
// return the operand offset for Patch/PatchTo, exactly like Jump.
func (b *Builder) BranchEq() int { return b.branch(bytecode.OpBranchEq) }
func (b *Builder) BranchNe() int { return b.branch(bytecode.OpBranchNe) }
func (b *Builder) BranchLt() int { return b.branch(bytecode.OpBranchLt) }
func (b *Builder) BranchLe() int { return b.branch(bytecode.OpBranchLe) }
func (b *Builder) BranchGt() int { return b.branch(bytecode.OpBranchGt) }
func (b *Builder) BranchGe() int { return b.branch(bytecode.OpBranchGe) }
func (b *Builder) Not() *Builder    { return b.emit(bytecode.OpNot) }
func (b *Builder) BitAnd() *Builder { return b.emit(bytecode.OpBitAnd) }
func (b *Builder) BitOr() *Builder  { return b.emit(bytecode.OpBitOr) }
func (b *Builder) BitXor() *Builder { return b.emit(bytecode.OpBitXor) }
func (b *Builder) BitNot() *Builder { return b.emit(bytecode.OpBitNot) }
func (b *Builder) Shl() *Builder    { return b.emit(bytecode.OpShl) }
func (b *Builder) Shr() *Builder    { return b.emit(bytecode.OpShr) }
func (b *Builder) TypeOf() *Builder { return b.emit(bytecode.OpTypeOf) }

// PutString emits OpPutString for the strIdx'th entry of the string
// pool (see String).
func (b *Builder) PutString(strIdx uint32) *Builder {
	return b.emit(bytecode.OpPutString).u32(strIdx)
}

// PutFunction emits OpPutFunction. childIdx is a Child index; the
// name-symbol index is the symIdx returned by Symbol, and must be a
// valid symbol-pool index even for an anonymous literal, since the VM
// always resolves it.
func (b *Builder) PutFunction(nameSymIdx, childIdx, arity, numLocals uint32, variadic, anonymous bool) *Builder {
	b.emit(bytecode.OpPutFunction).u32(nameSymIdx).u32(childIdx).u32(arity).u32(numLocals)
	var flags uint8
	if variadic {
		flags |= 1
	}
	if anonymous {
		flags |= 2
	}
	return b.u8(flags)
}

// PutCFunction emits OpPutCFunction, resolving nameSymIdx's interned
// name against the VM's native registry at run time.
func (b *Builder) PutCFunction(nameSymIdx, arity uint32) *Builder {
	return b.emit(bytecode.OpPutCFunction).u32(nameSymIdx).u32(arity)
}

// PutGenerator emits OpPutGenerator, mirroring PutFunction but always
// binding the defining frame's self.
func (b *Builder) PutGenerator(nameSymIdx, childIdx, arity uint32) *Builder {
	return b.emit(bytecode.OpPutGenerator).u32(nameSymIdx).u32(childIdx).u32(arity)
}

func (b *Builder) putSymbolList(symIdxs []uint32) *Builder {
	b.u32(uint32(len(symIdxs)))
	for _, idx := range symIdxs {
		b.u32(idx)
	}
	return b
}

// PutClass emits OpPutClass. The caller must already have pushed, in
// order, methodVals, staticVals, parent (if hasParent), ctor (if
// hasCtor) — see bytecode.OpPutClass.
func (b *Builder) PutClass(nameSymIdx uint32, members, methods, statics []uint32, hasParent, hasCtor bool) *Builder {
	b.emit(bytecode.OpPutClass).u32(nameSymIdx)
	b.putSymbolList(members)
	b.putSymbolList(methods)
	b.putSymbolList(statics)
	if hasParent {
		b.u8(1)
	} else {
		b.u8(0)
	}
	if hasCtor {
		b.u8(1)
	} else {
		b.u8(0)
	}
	return b
}

// Jump emits an unconditional jump and reserves its operand, returning
// the operand's byte offset so the caller can Patch it once the
// target is known.
func (b *Builder) Jump() int        { return b.branch(bytecode.OpJump) }
func (b *Builder) JumpIfFalse() int { return b.branch(bytecode.OpJumpIfFalse) }
func (b *Builder) JumpIfTrue() int  { return b.branch(bytecode.OpJumpIfTrue) }

func (b *Builder) branch(op bytecode.OpCode) int {
	b.emit(op)
	off := len(b.code)
	b.u32(0)
	return off
}

// Patch writes the delta from the end of the operand at operandOffset
// (the start of the next instruction) to the current end of the stream.
func (b *Builder) Patch(operandOffset int) {
	delta := uint32(len(b.code) - (operandOffset + 4))
	b.code[operandOffset] = byte(delta >> 24)
	b.code[operandOffset+1] = byte(delta >> 16)
	b.code[operandOffset+2] = byte(delta >> 8)
	b.code[operandOffset+3] = byte(delta)
}

// PatchTo writes an explicit absolute IP as operandOffset's delta,
// relative to the instruction following the operand, for backward
// branches (loop edges).
func (b *Builder) PatchTo(operandOffset, targetIP int) {
	delta := int32(targetIP - (operandOffset + 4))
	u := uint32(delta)
	b.code[operandOffset] = byte(u >> 24)
	b.code[operandOffset+1] = byte(u >> 16)
	b.code[operandOffset+2] = byte(u >> 8)
	b.code[operandOffset+3] = byte(u)
}

func (b *Builder) MakeArray(count uint32) *Builder  { return b.emit(bytecode.OpMakeArray).u32(count) }
func (b *Builder) MakeObject(count uint32) *Builder { return b.emit(bytecode.OpMakeObject).u32(count) }

func (b *Builder) Call(argc uint32) *Builder { return b.emit(bytecode.OpCall).u32(argc) }

// CallMember emits OpCallMember with the method's symbol-pool index
// followed by its argument count, matching the order vm.dispatch reads
// them back in.
func (b *Builder) CallMember(symIdx, argc uint32) *Builder {
	return b.emit(bytecode.OpCallMember).u32(symIdx).u32(argc)
}
func (b *Builder) Return() *Builder                { return b.emit(bytecode.OpReturn) }
func (b *Builder) Halt() *Builder                  { return b.emit(bytecode.OpHalt) }

// PushCatch emits a catch-table entry targeting handlerIP (absolute,
// already known — catch targets are always backward-or-already-placed
// relative to the throw site in hand-assembled tests).
func (b *Builder) PushCatch(handlerIP uint32) *Builder {
	return b.emit(bytecode.OpPushCatch).u32(handlerIP)
}
func (b *Builder) PopCatch() *Builder { return b.emit(bytecode.OpPopCatch) }
func (b *Builder) Throw() *Builder    { return b.emit(bytecode.OpThrow) }

// Yield emits OpYield, suspending the current generator frame and
// handing the popped top-of-stack value out to whoever resumed the
// generator.
func (b *Builder) Yield() *Builder { return b.emit(bytecode.OpYield) }

// Build finalizes the InstructionBlock.
func (b *Builder) Build() *bytecode.InstructionBlock {
	return &bytecode.InstructionBlock{
		Code:      b.code,
		Constants: b.constants,
		Symbols:   b.symbols,
		Children:  b.children,
		Strings:   b.strings,
		NumLocals: b.numLocals,
		Arity:     b.arity,
		Variadic:  b.variadic,
	}
}
