package vm

import (
	"lumen/bytecode"
	"lumen/heap"
	"lumen/value"
	"lumen/verr"
)

// pushFrame allocates a new Frame cell for block, wires its dual
// parent links (spec.md §4.3: FrameParent is the dynamic caller,
// FrameEnvParent is the lexical/closure parent — distinct concepts
// that diverge whenever a closure is called from somewhere other than
// where it was defined), binds self and args into locals 0..argc-1,
// and makes it the VM's current frame.
func (vm *VM) pushFrame(block *bytecode.InstructionBlock, lexicalParent *heap.Cell, funcCell *heap.Cell, self value.Value, args []value.Value) *heap.Cell {
	caller := vm.Frame
	baseSP := len(vm.Stack)

	frameVal := vm.Heap.Scope(heap.KindFrame, func(c *heap.Cell) {
		c.FrameParent = caller
		c.FrameEnvParent = lexicalParent
		c.Func = funcCell
		c.Self = self
		c.Block = block
		c.Locals = make([]value.Value, block.NumLocals)
		c.BaseSP = baseSP
		for i, a := range args {
			if i >= len(c.Locals) {
				break
			}
			c.Locals[i] = a
		}
		for i := len(args); i < len(c.Locals); i++ {
			c.Locals[i] = value.Null
		}
	})

	frame := vm.Heap.Get(value.DecodePointer(frameVal))
	vm.Frame = frame
	vm.Trace.FrameEnter(frame)
	return frame
}

// doReturn pops the current frame, restores the operand stack to the
// height it had when the frame was entered, and pushes result for the
// caller — exactly the teacher's vm.Return, generalized to the
// heap-backed Frame cell.
//
// A constructor frame with CtorRemaining still to run does not return
// to its caller at all: it pops its own state and immediately pushes
// the next ancestor constructor's frame instead (spec.md §4.3
// invoke_class_constructors' root-to-leaf chain), so the dispatch loop
// drives the whole chain through ordinary step() calls with no nested
// synchronous loop anywhere.
func (vm *VM) doReturn(result value.Value) error {
	f := vm.Frame
	if f == nil {
		return nil
	}
	if f.IsConstructor {
		self := f.Self
		if len(f.CtorRemaining) > 0 {
			next := f.CtorRemaining[0]
			remaining := f.CtorRemaining[1:]
			leafArgs := f.CtorLeafArgs
			vm.Trace.FrameReturn(f, self)
			vm.Stack = vm.Stack[:f.BaseSP]
			vm.Frame = f.FrameParent
			return vm.pushCtorFrame(next, self, remaining, leafArgs)
		}
		result = self
	}
	vm.Trace.FrameReturn(f, result)
	vm.Stack = vm.Stack[:f.BaseSP]
	vm.Frame = f.FrameParent
	vm.Push(result)
	return nil
}

// execCall implements OpCall: the stack holds [callee, arg0..argN-1]
// with argc given; dispatch depends on the callee's heap Kind
// (spec.md §4.3): Function pushes a new frame sharing the function's
// captured lexical parent; CFunction runs synchronously and pushes its
// result directly; Class constructs a new Object and runs its Ctor
// with that object bound as self; Generator resumes a suspended frame
// instead of creating one. Anything else is a type error.
func (vm *VM) execCall(argc int) error {
	args := vm.PopN(argc)
	callee := vm.Pop()
	return vm.invoke(callee, value.Null, args, false)
}

// execCallMember implements OpCallMember: the stack holds
// [receiver, arg0..argN-1]; the method is resolved through the
// member-access chain (readMember) before being invoked with receiver
// bound as self.
func (vm *VM) execCallMember(sym value.Symbol, argc int) error {
	args := vm.PopN(argc)
	receiver := vm.Pop()
	method, err := vm.readMember(receiver, sym)
	if err != nil {
		return err
	}
	return vm.invoke(method, receiver, args, true)
}

func (vm *VM) invoke(callee value.Value, self value.Value, args []value.Value, boundSelf bool) error {
	if value.TypeOf(callee) != value.KindPointer {
		return verr.Typef("cannot call a value of kind %s", value.TypeOf(callee))
	}
	cell := vm.Heap.Get(value.DecodePointer(callee))
	if cell == nil {
		return verr.Panicf("vm: call through dangling handle")
	}

	switch cell.Kind {
	case heap.KindFunction:
		effectiveSelf := self
		if cell.HasBoundSelf && !boundSelf {
			effectiveSelf = cell.BoundSelf
		}
		if cell.Variadic {
			args = packVariadic(vm.Heap, cell.Arity, args)
		} else if len(args) != cell.Arity {
			return verr.Arityf("expected %d arguments, got %d", cell.Arity, len(args))
		}
		vm.pushFrame(vm.blockOf(cell), cell.ParentEnv, cell, effectiveSelf, args)
		return nil

	case heap.KindCFunction:
		if len(args) != cell.Arity {
			return verr.Arityf("expected %d arguments, got %d", cell.Arity, len(args))
		}
		result, err := cell.NativeFunc(vm.Heap, args)
		if err != nil {
			return err
		}
		vm.Push(result)
		return nil

	case heap.KindClass:
		return vm.construct(cell, args)

	case heap.KindGenerator:
		return vm.resumeGenerator(cell, args)

	default:
		return verr.Typef("value of kind %s is not callable", cell.Kind)
	}
}

// blockOf recovers the InstructionBlock a Function cell executes. The
// body is addressed by an index (cell.Body) into the Children of the
// block that declared the function literal; cell.ParentEnv's own Block
// is tried first, then the currently executing frame's Block.
func (vm *VM) blockOf(cell *heap.Cell) *bytecode.InstructionBlock {
	if cell.ParentEnv != nil && cell.ParentEnv.Block != nil {
		idx := int(cell.Body)
		if idx < len(cell.ParentEnv.Block.Children) {
			return cell.ParentEnv.Block.Children[idx]
		}
	}
	if vm.Frame != nil && vm.Frame.Block != nil {
		idx := int(cell.Body)
		if idx < len(vm.Frame.Block.Children) {
			return vm.Frame.Block.Children[idx]
		}
	}
	panic(verr.Panicf("vm: function cell has no resolvable body block"))
}

func packVariadic(h *heap.Heap, arity int, args []value.Value) []value.Value {
	if len(args) < arity {
		for len(args) < arity {
			args = append(args, value.Null)
		}
		return args
	}
	fixed := args[:arity]
	rest := h.AllocArray(args[arity:])
	return append(append([]value.Value(nil), fixed...), rest)
}

// construct implements `new ClassValue(...)`: allocates an Object
// bound to cls, zeroes every declared member property root-to-leaf
// (spec.md §4.3 initialize_member_properties), then runs the class's
// constructor chain — every ancestor with a Ctor, root first — with
// the new object as self. Only the leaf constructor (the last one in
// the chain) receives the caller's args; every ancestor above it runs
// with none, matching invoke_class_constructors.
func (vm *VM) construct(cls *heap.Cell, args []value.Value) error {
	obj := vm.Heap.AllocObject(cls.AsValue())
	objCell := vm.Heap.Get(value.DecodePointer(obj))
	initializeMemberProperties(cls, objCell)

	chain := ctorChain(cls)
	if len(chain) == 0 {
		vm.Push(obj)
		return nil
	}
	return vm.pushCtorFrame(chain[0], obj, chain[1:], args)
}

// ctorChain collects every ancestor of cls (cls included) that
// declares a constructor, in root-to-leaf order — the order
// invoke_class_constructors runs them in.
func ctorChain(cls *heap.Cell) []*heap.Cell {
	var ancestors []*heap.Cell
	for c := cls; c != nil; c = c.Parent {
		ancestors = append(ancestors, c)
	}
	var chain []*heap.Cell
	for i := len(ancestors) - 1; i >= 0; i-- {
		if ancestors[i].Ctor != nil {
			chain = append(chain, ancestors[i].Ctor)
		}
	}
	return chain
}

// initializeMemberProperties zeroes every declared instance property
// to null before any constructor runs, walking the full class chain
// root to leaf so a subclass's own Members can shadow a parent's field
// of the same name the way field declaration order would (spec.md
// §4.3 initialize_member_properties).
func initializeMemberProperties(cls *heap.Cell, obj *heap.Cell) {
	var ancestors []*heap.Cell
	for c := cls; c != nil; c = c.Parent {
		ancestors = append(ancestors, c)
	}
	for i := len(ancestors) - 1; i >= 0; i-- {
		for _, sym := range ancestors[i].Members {
			obj.Fields[sym] = value.Null
		}
	}
}

// pushCtorFrame pushes a frame for ctor and marks it as a constructor
// frame carrying the rest of the chain still to run. Only the true
// leaf of the whole chain (remaining empty) is packed against
// leafArgs; every other link runs with no arguments, so a
// multi-constructor chain requires every non-leaf ancestor's Ctor to
// take zero fixed arguments or be variadic.
func (vm *VM) pushCtorFrame(ctor *heap.Cell, self value.Value, remaining []*heap.Cell, leafArgs []value.Value) error {
	var callArgs []value.Value
	if len(remaining) == 0 {
		callArgs = leafArgs
	}
	if ctor.Variadic {
		callArgs = packVariadic(vm.Heap, ctor.Arity, callArgs)
	} else if len(callArgs) != ctor.Arity {
		return verr.Arityf("constructor expects %d arguments, got %d", ctor.Arity, len(callArgs))
	}
	vm.pushFrame(vm.blockOf(ctor), ctor.ParentEnv, ctor, self, callArgs)
	// Constructors always yield the object they initialized, not
	// whatever value their body happens to leave on the stack.
	vm.Frame.IsConstructor = true
	vm.Frame.CtorRemaining = remaining
	vm.Frame.CtorLeafArgs = leafArgs
	return nil
}
