package vm

import (
	"lumen/heap"
	"lumen/value"
	"lumen/verr"
)

// genCoro is the handoff channel pair between a generator's caller and
// the goroutine running its body. Exactly one side runs at a time —
// the caller blocks on yield while the body blocks on resume — so the
// shared *heap.Heap (not safe for concurrent use, spec.md §5) only
// ever has one goroutine touching it, even though the body executes
// on a different goroutine than Run's main loop.
//
// This mechanism has no analog in the teacher, which has no
// generators; it follows the spec's own design note that a suspended
// call needs "a second place execution can live" and a goroutine
// parked on a channel is the idiomatic Go way to express exactly that.
type genCoro struct {
	resume   chan []value.Value
	yield    chan genResult
	genVM    *VM
	finished bool
}

type genResult struct {
	value value.Value
	done  bool
	err   error
}

func (co *genCoro) walkRoots(visit func(value.Value)) {
	if co.genVM == nil {
		return
	}
	for _, v := range co.genVM.Stack {
		visit(v)
	}
	for f := co.genVM.Frame; f != nil; f = f.FrameParent {
		visit(f.AsValue())
		if f.FrameEnvParent != nil {
			visit(f.FrameEnvParent.AsValue())
		}
		for c := f.Catch; c != nil; c = c.PrevCatch {
			visit(c.AsValue())
		}
	}
}

// resumeGenerator implements invoking a Generator value as a callable:
// the first call starts its body on a fresh goroutine; every call
// after that sends args in and blocks for the next yield or the
// body's return. The result pushed is a two-field object with `value`
// and `done` fields (spec.md §9 generator design note).
func (vm *VM) resumeGenerator(cell *heap.Cell, args []value.Value) error {
	co, ok := vm.generators[cell.Handle()]
	if !ok {
		co = vm.startGenerator(cell)
		vm.generators[cell.Handle()] = co
	}
	if co.finished {
		vm.Push(vm.makeGenResult(value.Null, true))
		return nil
	}

	co.resume <- args
	res := <-co.yield
	if res.err != nil {
		delete(vm.generators, cell.Handle())
		return res.err
	}
	if res.done {
		co.finished = true
	}
	vm.Push(vm.makeGenResult(res.value, res.done))
	return nil
}

// makeGenResult interns `value`/`done` against the VM's own Interner,
// the same table compiled bytecode's member accesses resolve against,
// so a script reading result.value/result.done sees the same symbol
// ids this package just wrote.
func (vm *VM) makeGenResult(v value.Value, done bool) value.Value {
	valueSym := vm.Interner.Intern("value")
	doneSym := vm.Interner.Intern("done")
	obj := vm.Heap.AllocObject(value.Null)
	cell := vm.Heap.Get(value.DecodePointer(obj))
	cell.Fields[valueSym] = v
	cell.Fields[doneSym] = value.FromBool(done)
	return obj
}

func (vm *VM) startGenerator(cell *heap.Cell) *genCoro {
	co := &genCoro{
		resume: make(chan []value.Value),
		yield:  make(chan genResult),
	}
	genVM := &VM{
		Heap:             vm.Heap,
		Trace:            vm.Trace,
		ImmediateClasses: vm.ImmediateClasses,
		HeapClasses:      vm.HeapClasses,
		generators:       vm.generators,
		Interner:         vm.Interner,
		Natives:          vm.Natives,
		TickBudget:       vm.TickBudget,
		coro:             co,
	}
	co.genVM = genVM

	go func() {
		firstArgs := <-co.resume
		block := vm.blockOf(cell)
		genVM.pushFrame(block, cell.ParentEnv, cell, cell.BoundSelf, firstArgs)

		for genVM.Frame != nil {
			err := genVM.step()
			if err != nil {
				if genVM.unwind(err) {
					continue
				}
				co.yield <- genResult{err: err}
				return
			}
		}
		result := value.Null
		if len(genVM.Stack) > 0 {
			result = genVM.Stack[len(genVM.Stack)-1]
		}
		co.yield <- genResult{value: result, done: true}
	}()

	return co
}

// execYield implements OpYield: only valid on a coroutine VM started
// by startGenerator. It hands the popped value out through the yield
// channel and parks until resumed, pushing whatever the resumer sent.
func (vm *VM) execYield() error {
	if vm.coro == nil {
		return verr.Typef("yield used outside a generator body")
	}
	v := vm.Pop()
	vm.coro.yield <- genResult{value: v, done: false}
	resumeArgs := <-vm.coro.resume
	if len(resumeArgs) > 0 {
		vm.Push(resumeArgs[0])
	} else {
		vm.Push(value.Null)
	}
	return nil
}
