package vm

import (
	"bytes"
	"strings"
	"testing"

	"lumen/bytecode"
	"lumen/value"
)

func TestTraceOpcodeTalliesWhenProfileEnabled(t *testing.T) {
	tr := NewTrace(&bytes.Buffer{})
	tr.Profile = true

	tr.Opcode(bytecode.OpAdd, 0)
	tr.Opcode(bytecode.OpAdd, 1)
	tr.Opcode(bytecode.OpPop, 2)

	if tr.counts[bytecode.OpAdd] != 2 || tr.counts[bytecode.OpPop] != 1 {
		t.Fatalf("counts = %v, want OpAdd=2 OpPop=1", tr.counts)
	}
}

func TestTraceOpcodeDoesNotTallyWhenProfileDisabled(t *testing.T) {
	tr := NewTrace(&bytes.Buffer{})
	tr.Opcode(bytecode.OpAdd, 0)
	if tr.counts != nil {
		t.Fatalf("counts = %v, want nil with Profile disabled", tr.counts)
	}
}

func TestDumpProfilePrintsDescendingFrequency(t *testing.T) {
	var buf bytes.Buffer
	tr := NewTrace(&buf)
	tr.Profile = true
	tr.Opcode(bytecode.OpPop, 0)
	tr.Opcode(bytecode.OpAdd, 1)
	tr.Opcode(bytecode.OpAdd, 2)

	tr.DumpProfile()

	out := buf.String()
	addIdx := strings.Index(out, bytecode.OpAdd.String())
	popIdx := strings.Index(out, bytecode.OpPop.String())
	if addIdx == -1 || popIdx == -1 {
		t.Fatalf("DumpProfile output missing a tally line: %q", out)
	}
	if addIdx > popIdx {
		t.Fatalf("DumpProfile did not sort by descending frequency: %q", out)
	}
}

func TestDumpProfileNoOpWhenNeverEnabled(t *testing.T) {
	var buf bytes.Buffer
	tr := NewTrace(&buf)
	tr.DumpProfile()
	if buf.Len() != 0 {
		t.Fatalf("DumpProfile wrote output %q with Profile never enabled", buf.String())
	}
}

func TestFrameEnterVerboseAddressesIncludesHandle(t *testing.T) {
	machine := New()
	block := &bytecode.InstructionBlock{NumLocals: 0}
	frame := machine.pushFrame(block, nil, nil, value.Null, nil)

	var plain, verbose bytes.Buffer
	tr := NewTrace(&plain)
	tr.Frames = true
	tr.FrameEnter(frame)

	tr2 := NewTrace(&verbose)
	tr2.Frames = true
	tr2.VerboseAddresses = true
	tr2.FrameEnter(frame)

	if strings.Contains(plain.String(), "handle=") {
		t.Fatalf("non-verbose FrameEnter included a handle: %q", plain.String())
	}
	if !strings.Contains(verbose.String(), "handle=") {
		t.Fatalf("verbose FrameEnter missing a handle: %q", verbose.String())
	}
}

func TestCatchVerboseAddressesIncludesFrameAndEntry(t *testing.T) {
	machine := New()
	block := &bytecode.InstructionBlock{NumLocals: 0}
	frame := machine.pushFrame(block, nil, nil, value.Null, nil)
	machine.pushCatch(7)
	entry := frame.Catch

	var plain, verbose bytes.Buffer
	tr := NewTrace(&plain)
	tr.CatchTables = true
	tr.Catch(frame, entry)

	tr2 := NewTrace(&verbose)
	tr2.CatchTables = true
	tr2.VerboseAddresses = true
	tr2.Catch(frame, entry)

	if strings.Contains(plain.String(), "frame=") {
		t.Fatalf("non-verbose Catch included frame/entry handles: %q", plain.String())
	}
	if !strings.Contains(verbose.String(), "frame=") || !strings.Contains(verbose.String(), "entry=") {
		t.Fatalf("verbose Catch missing frame/entry handles: %q", verbose.String())
	}
}
