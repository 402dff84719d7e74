package vm

import (
	"math"

	"lumen/bytecode"
	"lumen/value"
)

// numericResult encodes f as an immediate float when possible and
// falls back to a boxed Float cell otherwise (spec.md §4.4).
func (vm *VM) numericResult(f float64) value.Value {
	if v, ok := value.EncodeFloatImmediate(f); ok {
		return v
	}
	return vm.Heap.AllocFloat(f)
}

// intResult returns an int Value when both operands were ints and the
// result fits the encodable range, otherwise a float Value — matching
// the widen-on-overflow behavior arithmetic needs once immediates
// saturate at 62/63 bits.
func (vm *VM) intResult(n int64) value.Value {
	if n <= value.MaxEncodableInt && n >= value.MinEncodableInt {
		return value.EncodeInt(n)
	}
	return vm.numericResult(float64(n))
}

// binaryArith implements Add/Sub/Mul/Div/Mod. Operands that aren't
// numeric widen the whole expression to NaN instead of throwing
// (spec.md §4.4) — mirrors JavaScript-style arithmetic rather than
// the teacher's E_TYPE-throwing MOO semantics.
func (vm *VM) binaryArith(op bytecode.OpCode) error {
	b := vm.Pop()
	a := vm.Pop()

	if value.TypeOf(a) == value.KindInt && value.TypeOf(b) == value.KindInt && op != bytecode.OpDiv {
		ai, bi := value.DecodeInt(a), value.DecodeInt(b)
		switch op {
		case bytecode.OpAdd:
			vm.Push(vm.intResult(ai + bi))
		case bytecode.OpSub:
			vm.Push(vm.intResult(ai - bi))
		case bytecode.OpMul:
			vm.Push(vm.intResult(ai * bi))
		case bytecode.OpMod:
			if bi == 0 {
				vm.Push(vm.numericResult(math.NaN()))
			} else {
				vm.Push(vm.intResult(ai % bi))
			}
		}
		return nil
	}

	af, aok := vm.Heap.NumericValue(a)
	bf, bok := vm.Heap.NumericValue(b)
	if !aok || !bok {
		vm.Push(vm.numericResult(math.NaN()))
		return nil
	}

	var r float64
	switch op {
	case bytecode.OpAdd:
		r = af + bf
	case bytecode.OpSub:
		r = af - bf
	case bytecode.OpMul:
		r = af * bf
	case bytecode.OpDiv:
		r = af / bf
	case bytecode.OpMod:
		r = math.Mod(af, bf)
	}
	vm.Push(vm.numericResult(r))
	return nil
}

func (vm *VM) unaryNeg() error {
	a := vm.Pop()
	if value.TypeOf(a) == value.KindInt {
		n := value.DecodeInt(a)
		vm.Push(vm.intResult(-n))
		return nil
	}
	f, ok := vm.Heap.NumericValue(a)
	if !ok {
		vm.Push(vm.numericResult(math.NaN()))
		return nil
	}
	vm.Push(vm.numericResult(-f))
	return nil
}

// compare implements Eq/Ne by heap.Heap.Equal (heap-aware content
// equality) and Lt/Le/Gt/Ge by numeric comparison, widening
// non-numeric operands to false rather than throwing.
func (vm *VM) compare(op bytecode.OpCode) error {
	b := vm.Pop()
	a := vm.Pop()

	switch op {
	case bytecode.OpEq:
		vm.Push(value.FromBool(vm.Heap.Equal(a, b)))
		return nil
	case bytecode.OpNe:
		vm.Push(value.FromBool(!vm.Heap.Equal(a, b)))
		return nil
	}

	af, aok := vm.Heap.NumericValue(a)
	bf, bok := vm.Heap.NumericValue(b)
	if !aok || !bok {
		vm.Push(value.False)
		return nil
	}
	var r bool
	switch op {
	case bytecode.OpLt:
		r = af < bf
	case bytecode.OpLe:
		r = af <= bf
	case bytecode.OpGt:
		r = af > bf
	case bytecode.OpGe:
		r = af >= bf
	}
	vm.Push(value.FromBool(r))
	return nil
}

// execFusedBranch implements OpBranchEq and its siblings: compare the
// top two stack values exactly as compare would, then add delta to
// the IP if the comparison held, popping the bool compare pushed so
// it never stays on the stack. Loop back-edges use these to save a separate
// OpJumpIfFalse after the comparison.
func (vm *VM) execFusedBranch(op bytecode.OpCode, delta int32) error {
	if err := vm.compare(op); err != nil {
		return err
	}
	if value.Truthy(vm.Pop()) {
		vm.Frame.IP += int(delta)
	}
	return nil
}

// execSwap implements OpSwap: exchange the top two operand stack
// slots in place.
func (vm *VM) execSwap() error {
	n := len(vm.Stack)
	vm.Stack[n-1], vm.Stack[n-2] = vm.Stack[n-2], vm.Stack[n-1]
	return nil
}

func (vm *VM) bitwise(op bytecode.OpCode) error {
	b := vm.Pop()
	a := vm.Pop()
	if value.TypeOf(a) != value.KindInt || value.TypeOf(b) != value.KindInt {
		vm.Push(vm.numericResult(math.NaN()))
		return nil
	}
	ai, bi := value.DecodeInt(a), value.DecodeInt(b)
	var r int64
	switch op {
	case bytecode.OpBitAnd:
		r = ai & bi
	case bytecode.OpBitOr:
		r = ai | bi
	case bytecode.OpBitXor:
		r = ai ^ bi
	case bytecode.OpShl:
		r = ai << uint64(bi&63)
	case bytecode.OpShr:
		r = ai >> uint64(bi&63)
	}
	vm.Push(vm.intResult(r))
	return nil
}

func (vm *VM) bitNot() error {
	a := vm.Pop()
	if value.TypeOf(a) != value.KindInt {
		vm.Push(vm.numericResult(math.NaN()))
		return nil
	}
	vm.Push(vm.intResult(^value.DecodeInt(a)))
	return nil
}
