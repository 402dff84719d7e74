package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"lumen/asm"
	"lumen/bytecode"
	"lumen/heap"
	"lumen/registry"
	"lumen/sched"
	"lumen/value"
	"lumen/vm"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one of the bundled demo InstructionBlocks",
	Long: "run executes a small hand-assembled program exercising arithmetic, " +
		"a native function call, or a catch-table unwind. There is no compiler " +
		"in this build (lexer/parser/codegen are out of scope); run exists to " +
		"exercise the dispatcher end to end, not to load arbitrary source text.",
	RunE: runRun,
}

func init() {
	runCmd.Flags().String("program", "arithmetic", "bundled demo to run: arithmetic|call|catch|io")
	runCmd.Flags().String("path", "", "file path the io demo reads asynchronously")
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	which, _ := cmd.Flags().GetString("program")

	machine := newConfiguredVM(cfg)
	loop := sched.NewLoop(cfg.WorkerPoolSize)
	installPrelude(machine, loop)

	block, err := demoProgram(cmd, machine, loop, which)
	if err != nil {
		return err
	}

	result, err := machine.Run(block)
	if err != nil {
		return err
	}
	loop.Run() // drains any async native (e.g. File::readAsync) the program started
	fmt.Printf("result: %s\n", formatValue(machine, result))
	machine.Trace.DumpProfile()
	return nil
}

// newConfiguredVM wires a fresh *vm.VM's Trace flags and tick budget
// from resolved RuntimeConfig.
func newConfiguredVM(cfg RuntimeConfig) *vm.VM {
	machine := vm.New()
	machine.TickBudget = cfg.TickBudget
	machine.Trace.Opcodes = cfg.TraceOpcodes
	machine.Trace.GC = cfg.TraceGC
	machine.Trace.Frames = cfg.TraceFrames
	machine.Trace.CatchTables = cfg.TraceCatchTables
	machine.Trace.Profile = cfg.InstructionProfile
	machine.Trace.VerboseAddresses = cfg.VerboseAddresses
	return machine
}

// installPrelude registers the Math/Crypto/File namespaces and installs
// the String primitive class, the way every subcommand that actually
// runs bytecode needs before Run is called. File:: is only reachable
// through reg, never installed onto a primitive class, since it is a
// standalone native namespace rather than a method set on a value kind.
func installPrelude(machine *vm.VM, loop *sched.Loop) *vm.Prelude {
	in := value.NewInterner()
	reg := registry.New()
	registry.RegisterCrypto(reg)
	registry.RegisterMath(reg)
	registerFileNatives(reg, loop, machine)
	return vm.BuildPrelude(machine, in, reg)
}

func demoProgram(cmd *cobra.Command, machine *vm.VM, loop *sched.Loop, name string) (*bytecode.InstructionBlock, error) {
	switch name {
	case "arithmetic":
		return demoArithmetic(), nil
	case "call":
		return demoCall(machine), nil
	case "catch":
		return demoCatch(machine), nil
	case "io":
		path, _ := cmd.Flags().GetString("path")
		if path == "" {
			path = "go.mod"
		}
		return demoIO(machine, loop, path), nil
	default:
		return nil, fmt.Errorf("unknown demo program %q (want arithmetic|call|catch|io)", name)
	}
}

// demoArithmetic computes (2 + 3) * 4.
func demoArithmetic() *bytecode.InstructionBlock {
	b := asm.New()
	b.PushInt(2)
	b.PushInt(3)
	b.Add()
	b.PushInt(4)
	b.Mul()
	b.Return()
	return b.Build()
}

// demoCall pushes a native doubling CFunction as a constant, calls it
// with 21, and returns the result — exercising OpCall's CFunction path.
func demoCall(machine *vm.VM) *bytecode.InstructionBlock {
	double := machine.Heap.AllocCFunction(value.Symbol(0), 1, func(h *heap.Heap, args []value.Value) (value.Value, error) {
		n := value.DecodeInt(args[0])
		return value.EncodeInt(n * 2), nil
	})

	b := asm.New()
	idx := b.Const(double)
	b.Push(idx)
	b.PushInt(21)
	b.Call(1)
	b.Return()
	return b.Build()
}

// demoCatch throws a string payload inside a guarded region and
// resumes execution in its handler, returning the caught payload.
// PushCatch's handler target must be a known absolute IP, so the
// handler body is emitted first and the try region jumps over it.
func demoCatch(machine *vm.VM) *bytecode.InstructionBlock {
	b := asm.New()

	skipHandler := b.Jump()
	handlerIP := b.Label()
	// Handler: the unwind already pushed the thrown payload.
	b.Return()
	b.Patch(skipHandler)

	b.PushCatch(uint32(handlerIP))
	payload := b.Const(machine.Heap.AllocString("boom"))
	b.Push(payload)
	b.Throw()
	b.PopCatch()
	b.Return()
	return b.Build()
}

// demoIO calls File::readAsync(path, callback) then returns; the read
// itself happens on a worker goroutine (registerFileNatives wires it
// to loop), and the callback only runs once runRun's own loop.Run()
// call drains that worker's result — after this InstructionBlock has
// already finished, which is exactly why draining isn't folded into
// machine.Run.
func demoIO(machine *vm.VM, loop *sched.Loop, path string) *bytecode.InstructionBlock {
	read := machine.Heap.AllocCFunction(value.Symbol(0), 2, fileReadAsync(loop, machine))
	callback := machine.Heap.AllocCFunction(value.Symbol(0), 1, func(h *heap.Heap, args []value.Value) (value.Value, error) {
		text, _ := h.StringValue(args[0])
		fmt.Printf("io callback received %d bytes\n", len(text))
		return value.Null, nil
	})

	b := asm.New()
	readIdx := b.Const(read)
	pathIdx := b.Const(machine.Heap.AllocString(path))
	cbIdx := b.Const(callback)
	b.Push(readIdx)
	b.Push(pathIdx)
	b.Push(cbIdx)
	b.Call(2)
	b.Return()
	return b.Build()
}
