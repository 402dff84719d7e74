package main

import (
	"os"

	"lumen/heap"
	"lumen/registry"
	"lumen/sched"
	"lumen/value"
	"lumen/verr"
	"lumen/vm"
)

// registerFileNatives wires the File:: namespace the spec carves out as
// an external collaborator (spec.md Non-goals: "specific built-in
// method implementations... are out of scope"). It exists here, not in
// registry/, precisely to demonstrate the two pieces of plumbing a real
// blocking native needs that the runtime core itself only specifies the
// contract for: a *sched.Loop to hand blocking work to, and the main
// VM to call a script callback back through once that work finishes.
func registerFileNatives(reg *registry.Registry, loop *sched.Loop, machine *vm.VM) {
	reg.Register("File::open", 1, false, fileOpen)
	reg.Register("File::close", 1, false, fileClose)
	reg.Register("File::readAsync", 2, false, fileReadAsync(loop, machine))
}

// fileOpen returns a CPointer wrapping an *os.File. Its Destructor
// closes the file exactly once, whenever the GC sweeps the CPointer
// cell — the sanctioned way a native resource gets cleaned up without
// the script ever calling File::close (spec.md §6 CPointer/Destructor).
func fileOpen(h *heap.Heap, args []value.Value) (value.Value, error) {
	path, ok := h.StringValue(args[0])
	if !ok {
		return value.Null, verr.Typef("File::open expects a string path")
	}
	f, err := os.Open(path)
	if err != nil {
		return value.Null, verr.Thrown(h.AllocString(err.Error()))
	}
	return h.AllocCPointer(f, func(raw interface{}) {
		if file, ok := raw.(*os.File); ok {
			file.Close()
		}
	}), nil
}

// fileClose closes the wrapped file immediately; the Destructor still
// runs at sweep, but os.File.Close tolerates being called twice.
func fileClose(h *heap.Heap, args []value.Value) (value.Value, error) {
	cell := h.Get(value.DecodePointer(args[0]))
	if cell == nil || cell.Kind != heap.KindCPointer {
		return value.Null, verr.Typef("File::close expects a value returned by File::open")
	}
	if file, ok := cell.Raw.(*os.File); ok {
		file.Close()
	}
	return value.Null, nil
}

// fileReadAsync schedules a blocking os.ReadFile on the worker pool and
// calls back into the script once it completes. The worker goroutine
// never touches h or constructs a value.Value (spec.md §5); it only
// returns msgpack bytes, and the callback Call happens on the main
// loop's goroutine after sched.Loop.Run drains the worker result.
func fileReadAsync(loop *sched.Loop, machine *vm.VM) heap.Native {
	return func(h *heap.Heap, args []value.Value) (value.Value, error) {
		path, ok := h.StringValue(args[0])
		if !ok {
			return value.Null, verr.Typef("File::readAsync expects a string path")
		}
		callback := args[1]

		loop.Spawn(func() ([]byte, error) {
			data, err := os.ReadFile(path)
			if err != nil {
				return sched.EncodeError(err)
			}
			return sched.EncodeResult(string(data))
		}, func(raw []byte, spawnErr error) {
			arg := decodeFileResult(machine, raw, spawnErr)
			machine.Call(callback, value.Null, []value.Value{arg})
		})
		return value.Null, nil
	}
}

func decodeFileResult(machine *vm.VM, raw []byte, spawnErr error) value.Value {
	if spawnErr != nil {
		return machine.Heap.AllocString(spawnErr.Error())
	}
	res, err := sched.DecodeResult(raw)
	if err != nil {
		return machine.Heap.AllocString(err.Error())
	}
	if !res.OK {
		return machine.Heap.AllocString(res.ErrText)
	}
	text, _ := res.Data.(string)
	return machine.Heap.AllocString(text)
}
