// Package vm implements the stack-based bytecode interpreter: the
// operand stack, the dual-parent call-frame chain, catch-table
// unwinding, and the opcode dispatcher. Grounded on the teacher's
// vm.VM/vm.StackFrame bytecode path (vm.go, opcodes.go, program.go
// before this package replaced their MOO-specific content).
package vm

import (
	"lumen/bytecode"
	"lumen/heap"
	"lumen/registry"
	"lumen/value"
	"lumen/verr"
)

// VM is the runtime core: one heap, one operand stack, one active
// frame chain. Spec.md's Go-idiom design note explicitly rules out a
// package-level singleton — every piece of VM state lives on this
// struct, and nothing here is reached through a global.
type VM struct {
	Heap  *heap.Heap
	Stack []value.Value
	Frame *heap.Cell // current frame, nil whenever no frame is active (before Run and after the module returns)

	Trace *Trace

	// ImmediateClasses maps an immediate (non-pointer) value.Kind — Int,
	// Float, Symbol, True, False, Null — to the Class cell member
	// access falls back to for values of that kind (spec.md §4.5
	// "primitive classes"). HeapClasses does the same for pointer
	// values, keyed by the pointee's heap.Kind (String, Array, ...),
	// since every heap object shares the single value.KindPointer tag
	// and only the cell it points to says which primitive class
	// applies.
	ImmediateClasses map[value.Kind]value.Value
	HeapClasses      map[heap.Kind]value.Value

	loadedBlocks []*bytecode.InstructionBlock

	// generators holds one coroutine per live Generator cell, keyed by
	// its handle. coro is non-nil only on the nested *VM a generator
	// body runs on, marking it as a coroutine rather than the main VM.
	generators map[value.Handle]*genCoro
	coro       *genCoro

	// Interner and Natives resolve OpPutCFunction's symbol operand to a
	// registered native at runtime, and let the generator-result object
	// intern its `value`/`done` field names against the same table
	// compiled bytecode's member accesses use (spec.md §4.4, §4.6).
	// BuildPrelude wires both; New defaults Interner to a private
	// instance so code built directly through asm (no prelude) still
	// works.
	Interner *value.Interner
	Natives  *registry.Registry

	TickBudget int64
	ticks      int64
}

// New creates a VM with its own heap, wired so the heap's collector
// can walk this VM's roots.
func New() *VM {
	vm := &VM{
		ImmediateClasses: make(map[value.Kind]value.Value),
		HeapClasses:      make(map[heap.Kind]value.Value),
		generators:       make(map[value.Handle]*genCoro),
		Trace:            NewTrace(nil),
		Interner:         value.NewInterner(),
		TickBudget:       -1, // unlimited unless cmd/lumen sets one
	}
	vm.Heap = heap.New(vm)
	vm.Heap.SetOnCollect(vm.Trace.GCCycle)
	return vm
}

// WalkRoots implements heap.Roots: the operand stack, the live frame
// chain (and each frame's catch-table chain), and every constant held
// by a loaded InstructionBlock, recursively through its children.
func (vm *VM) WalkRoots(visit func(value.Value)) {
	for _, v := range vm.Stack {
		visit(v)
	}
	for f := vm.Frame; f != nil; f = f.FrameParent {
		visit(f.AsValue())
		if f.FrameEnvParent != nil {
			visit(f.FrameEnvParent.AsValue())
		}
		for c := f.Catch; c != nil; c = c.PrevCatch {
			visit(c.AsValue())
		}
	}
	for _, cls := range vm.ImmediateClasses {
		visit(cls)
	}
	for _, cls := range vm.HeapClasses {
		visit(cls)
	}
	for _, co := range vm.generators {
		co.walkRoots(visit)
	}
	seen := make(map[*bytecode.InstructionBlock]bool)
	for _, b := range vm.loadedBlocks {
		vm.walkBlockConstants(b, seen, visit)
	}
}

func (vm *VM) walkBlockConstants(b *bytecode.InstructionBlock, seen map[*bytecode.InstructionBlock]bool, visit func(value.Value)) {
	if b == nil || seen[b] {
		return
	}
	seen[b] = true
	for _, c := range b.Constants {
		visit(c)
	}
	for _, child := range b.Children {
		vm.walkBlockConstants(child, seen, visit)
	}
}

// Push pushes a value onto the operand stack.
func (vm *VM) Push(v value.Value) {
	vm.Stack = append(vm.Stack, v)
}

// Pop removes and returns the top of the operand stack.
func (vm *VM) Pop() value.Value {
	n := len(vm.Stack)
	if n == 0 {
		panic(verr.Panicf("vm: operand stack underflow"))
	}
	v := vm.Stack[n-1]
	vm.Stack = vm.Stack[:n-1]
	return v
}

// Peek returns the value offset slots below the top (0 = top) without
// removing it.
func (vm *VM) Peek(offset int) value.Value {
	idx := len(vm.Stack) - 1 - offset
	if idx < 0 {
		panic(verr.Panicf("vm: operand stack underflow"))
	}
	return vm.Stack[idx]
}

// PopN removes and returns the top n values, oldest first.
func (vm *VM) PopN(n int) []value.Value {
	if len(vm.Stack) < n {
		panic(verr.Panicf("vm: operand stack underflow"))
	}
	base := len(vm.Stack) - n
	out := append([]value.Value(nil), vm.Stack[base:]...)
	vm.Stack = vm.Stack[:base]
	return out
}

// PeekN returns the top n values, oldest first, without removing them
// (OpDupN, spec.md §4.4 op_dupn).
func (vm *VM) PeekN(n int) []value.Value {
	if len(vm.Stack) < n {
		panic(verr.Panicf("vm: operand stack underflow"))
	}
	base := len(vm.Stack) - n
	return append([]value.Value(nil), vm.Stack[base:]...)
}

// Run executes block as a fresh top-level module body (no caller
// frame, no lexical parent) and returns its final expression value.
func (vm *VM) Run(block *bytecode.InstructionBlock) (value.Value, error) {
	vm.loadedBlocks = append(vm.loadedBlocks, block)

	frame := vm.pushFrame(block, nil, nil, value.Null, nil)
	for vm.Frame != nil {
		if err := vm.step(); err != nil {
			if !vm.unwind(err) {
				return value.Null, err
			}
		}
		if vm.TickBudget >= 0 && vm.ticks >= vm.TickBudget {
			return value.Null, verr.Panicf("vm: tick budget exceeded")
		}
	}
	_ = frame
	if len(vm.Stack) > 0 {
		return vm.Pop(), nil
	}
	return value.Null, nil
}

func (vm *VM) step() (err error) {
	f := vm.Frame
	if f == nil {
		return nil
	}
	defer func() {
		if r := recover(); r != nil {
			if e, ok := r.(*verr.Error); ok {
				err = e
				return
			}
			err = verr.Panicf("vm: %v", r)
		}
	}()

	if f.IP >= len(f.Block.Code) {
		return vm.doReturn(value.Null)
	}

	op := bytecode.OpCode(f.Block.Code[f.IP])
	f.IP++
	vm.ticks++
	vm.Trace.Opcode(op, f.IP-1)
	return vm.dispatch(op)
}

func (vm *VM) dispatch(op bytecode.OpCode) error {
	switch op {
	case bytecode.OpPush:
		idx := vm.readU32()
		vm.Push(vm.Frame.Block.Constants[idx])
	case bytecode.OpPushInt:
		n := vm.readI64()
		vm.Push(value.EncodeInt(n))
	case bytecode.OpPop:
		vm.Pop()
	case bytecode.OpDup:
		vm.Push(vm.Peek(0))
	case bytecode.OpDupN:
		n := int(vm.readU32())
		vm.Stack = append(vm.Stack, vm.PeekN(n)...)
	case bytecode.OpSwap:
		return vm.execSwap()

	case bytecode.OpGetLocal:
		level := vm.readU8()
		idx := vm.readU32()
		vm.Push(vm.localFrame(level).Locals[idx])
	case bytecode.OpSetLocal:
		level := vm.readU8()
		idx := vm.readU32()
		vm.localFrame(level).Locals[idx] = vm.Pop()

	case bytecode.OpGetMember:
		idx := vm.readU32()
		return vm.execGetMember(vm.Frame.Block.Symbols[idx])
	case bytecode.OpSetMember:
		idx := vm.readU32()
		return vm.execSetMember(vm.Frame.Block.Symbols[idx])
	case bytecode.OpGetIndex:
		return vm.execGetIndex()
	case bytecode.OpSetIndex:
		return vm.execSetIndex()
	case bytecode.OpGetMemberValue:
		return vm.execGetMemberValue()
	case bytecode.OpSetMemberValue:
		return vm.execSetMemberValue()

	case bytecode.OpAdd:
		return vm.binaryArith(op)
	case bytecode.OpSub, bytecode.OpMul, bytecode.OpDiv, bytecode.OpMod:
		return vm.binaryArith(op)
	case bytecode.OpNeg:
		return vm.unaryNeg()

	case bytecode.OpEq, bytecode.OpNe, bytecode.OpLt, bytecode.OpLe, bytecode.OpGt, bytecode.OpGe:
		return vm.compare(op)

	case bytecode.OpBranchEq:
		return vm.execFusedBranch(bytecode.OpEq, vm.readI32())
	case bytecode.OpBranchNe:
		return vm.execFusedBranch(bytecode.OpNe, vm.readI32())
	case bytecode.OpBranchLt:
		return vm.execFusedBranch(bytecode.OpLt, vm.readI32())
	case bytecode.OpBranchLe:
		return vm.execFusedBranch(bytecode.OpLe, vm.readI32())
	case bytecode.OpBranchGt:
		return vm.execFusedBranch(bytecode.OpGt, vm.readI32())
	case bytecode.OpBranchGe:
		return vm.execFusedBranch(bytecode.OpGe, vm.readI32())

	case bytecode.OpNot:
		vm.Push(value.FromBool(!value.Truthy(vm.Pop())))
	case bytecode.OpBitAnd, bytecode.OpBitOr, bytecode.OpBitXor, bytecode.OpShl, bytecode.OpShr:
		return vm.bitwise(op)
	case bytecode.OpBitNot:
		return vm.bitNot()

	case bytecode.OpJump:
		delta := vm.readI32()
		vm.Frame.IP += int(delta)
	case bytecode.OpJumpIfFalse:
		delta := vm.readI32()
		if !value.Truthy(vm.Pop()) {
			vm.Frame.IP += int(delta)
		}
	case bytecode.OpJumpIfTrue:
		delta := vm.readI32()
		if value.Truthy(vm.Pop()) {
			vm.Frame.IP += int(delta)
		}

	case bytecode.OpMakeArray:
		n := vm.readU32()
		elems := vm.PopN(int(n))
		vm.Push(vm.Heap.AllocArray(elems))
	case bytecode.OpMakeObject:
		n := vm.readU32()
		return vm.execMakeObject(int(n))

	case bytecode.OpTypeOf:
		vm.Push(value.EncodeInt(int64(value.TypeOf(vm.Pop()))))

	case bytecode.OpPutString:
		idx := vm.readU32()
		vm.Push(vm.Heap.AllocString(vm.Frame.Block.Strings[idx]))
	case bytecode.OpPutFunction:
		nameIdx := vm.readU32()
		childIdx := vm.readU32()
		arity := vm.readU32()
		numLocals := vm.readU32()
		flags := vm.readU8()
		vm.execPutFunction(nameIdx, childIdx, arity, numLocals, flags&1 != 0, flags&2 != 0)
	case bytecode.OpPutCFunction:
		nameIdx := vm.readU32()
		arity := vm.readU32()
		return vm.execPutCFunction(nameIdx, arity)
	case bytecode.OpPutGenerator:
		nameIdx := vm.readU32()
		childIdx := vm.readU32()
		arity := vm.readU32()
		vm.execPutGenerator(nameIdx, childIdx, arity)
	case bytecode.OpPutClass:
		nameIdx := vm.readU32()
		members := vm.readSymbolList()
		methods := vm.readSymbolList()
		statics := vm.readSymbolList()
		hasParent := vm.readU8() != 0
		hasCtor := vm.readU8() != 0
		return vm.execPutClass(nameIdx, members, methods, statics, hasParent, hasCtor)

	case bytecode.OpCall:
		argc := vm.readU32()
		return vm.execCall(int(argc))
	case bytecode.OpCallMember:
		symIdx := vm.readU32()
		argc := vm.readU32()
		return vm.execCallMember(vm.Frame.Block.Symbols[symIdx], int(argc))

	case bytecode.OpReturn:
		return vm.doReturn(vm.Pop())

	case bytecode.OpPushCatch:
		handlerIP := vm.readU32()
		vm.pushCatch(int(handlerIP))
	case bytecode.OpPopCatch:
		vm.popCatch()
	case bytecode.OpThrow:
		return vm.throwValue(vm.Pop())

	case bytecode.OpHalt:
		vm.Frame = nil

	case bytecode.OpYield:
		return vm.execYield()

	default:
		return verr.Panicf("vm: unknown opcode %d at ip %d", op, vm.Frame.IP-1)
	}
	return nil
}

func (vm *VM) readU8() uint8 {
	f := vm.Frame
	b := f.Block.Code[f.IP]
	f.IP++
	return b
}

func (vm *VM) readU32() uint32 {
	f := vm.Frame
	code := f.Block.Code
	v := uint32(code[f.IP])<<24 | uint32(code[f.IP+1])<<16 | uint32(code[f.IP+2])<<8 | uint32(code[f.IP+3])
	f.IP += 4
	return v
}

func (vm *VM) readI32() int32 { return int32(vm.readU32()) }

// readSymbolList reads a u32 count followed by that many u32
// symbol-pool indices, resolving each against the current frame's
// Block.Symbols — the inline-list encoding OpPutClass uses for its
// member/method/static-member name sets (spec.md §4.4 op_putclass).
func (vm *VM) readSymbolList() []value.Symbol {
	n := vm.readU32()
	syms := make([]value.Symbol, n)
	for i := range syms {
		idx := vm.readU32()
		syms[i] = vm.Frame.Block.Symbols[idx]
	}
	return syms
}

func (vm *VM) readI64() int64 {
	f := vm.Frame
	code := f.Block.Code
	var u uint64
	for i := 0; i < 8; i++ {
		u = u<<8 | uint64(code[f.IP+i])
	}
	f.IP += 8
	return int64(u)
}

// localFrame walks level lexical parents up from the current frame,
// following FrameEnvParent rather than FrameParent — spec.md §4.3's
// distinction between the dynamic caller chain and the lexical scope
// chain a closure actually resolves locals through.
func (vm *VM) localFrame(level uint8) *heap.Cell {
	f := vm.Frame
	for i := uint8(0); i < level; i++ {
		if f.FrameEnvParent == nil {
			panic(verr.Panicf("vm: lexical parent chain exhausted at level %d", i))
		}
		f = f.FrameEnvParent
	}
	return f
}
