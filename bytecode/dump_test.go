package bytecode

import (
	"strings"
	"testing"

	"lumen/value"
)

func TestDumpRendersInstructions(t *testing.T) {
	block := &InstructionBlock{
		Arity:     1,
		NumLocals: 2,
		Constants: []value.Value{value.EncodeInt(7)},
		Code: func() []byte {
			var code []byte
			code = append(code, byte(OpPush), 0, 0, 0, 0) // const index 0
			code = append(code, byte(OpGetLocal), 0, 0, 0, 0, 1)
			code = append(code, byte(OpReturn))
			return code
		}(),
	}

	out, err := Dump(block)
	if err != nil {
		t.Fatalf("Dump returned error: %v", err)
	}
	if !strings.Contains(out, "push") {
		t.Errorf("dump missing push mnemonic: %s", out)
	}
	if !strings.Contains(out, "return") {
		t.Errorf("dump missing return mnemonic: %s", out)
	}
	if !strings.Contains(out, "num_constants: 1") {
		t.Errorf("dump missing constant pool count: %s", out)
	}
}

func TestDumpEmptyBlock(t *testing.T) {
	out, err := Dump(&InstructionBlock{})
	if err != nil {
		t.Fatalf("Dump returned error on empty block: %v", err)
	}
	if strings.Contains(out, "instructions:\n  -") {
		t.Errorf("expected no instructions in empty block dump, got: %s", out)
	}
}
