package bytecode

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// dumpInstruction is a YAML-friendly view of one decoded instruction,
// used only by Dump for human-readable debugging output — never
// consumed by the VM itself.
type dumpInstruction struct {
	IP   int    `yaml:"ip"`
	Op   string `yaml:"op"`
	Args []int  `yaml:"args,omitempty"`
}

type dumpBlock struct {
	Arity        int               `yaml:"arity"`
	Variadic     bool              `yaml:"variadic"`
	NumLocals    int               `yaml:"num_locals"`
	NumConstants int               `yaml:"num_constants"`
	NumChildren  int               `yaml:"num_children"`
	Instructions []dumpInstruction `yaml:"instructions"`
}

// operandWidths gives the number of fixed-width operand bytes each
// opcode consumes after itself, including the level byte that
// OpGetLocal/OpSetLocal carry in addition to their u32 index.
//
// OpPutClass is deliberately absent: its variable-length symbol lists
// can't be described by a fixed width, so Dump computes its length
// from the list counts, skips those bytes and renders it with no
// decoded args (see DESIGN.md).
var operandWidths = map[OpCode]int{
	OpPush: 4, OpPushInt: 8,
	OpDupN: 4,
	OpGetLocal: 5, OpSetLocal: 5,
	OpGetMember: 4, OpSetMember: 4,
	OpJump: 4, OpJumpIfFalse: 4, OpJumpIfTrue: 4,
	OpBranchEq: 4, OpBranchNe: 4, OpBranchLt: 4, OpBranchLe: 4, OpBranchGt: 4, OpBranchGe: 4,
	OpMakeArray: 4, OpMakeObject: 4,
	OpPutString: 4, OpPutCFunction: 8, OpPutGenerator: 12, OpPutFunction: 17,
	OpCall: 4, OpCallMember: 8,
	OpPushCatch: 4,
}

// Dump renders block's opcode stream, constant pool size and metadata
// as YAML for debugging; it is not part of the execution path and
// never round-trips back into an InstructionBlock.
func Dump(block *InstructionBlock) (string, error) {
	d := dumpBlock{
		Arity:        block.Arity,
		Variadic:     block.Variadic,
		NumLocals:    block.NumLocals,
		NumConstants: len(block.Constants),
		NumChildren:  len(block.Children),
	}

	ip := 0
	for ip < len(block.Code) {
		op := OpCode(block.Code[ip])
		start := ip
		ip++
		width := operandWidths[op]
		if op == OpPutClass {
			// u32 name, three (u32 count + count*u32) lists, two u8 flags
			width = 4
			for list := 0; list < 3 && ip+width+4 <= len(block.Code); list++ {
				width += 4 + 4*int(readU32(block.Code, ip+width))
			}
			width += 2
		}
		args := decodeArgs(op, block.Code, ip, width)
		ip += width
		d.Instructions = append(d.Instructions, dumpInstruction{
			IP:   start,
			Op:   op.String(),
			Args: args,
		})
	}

	out, err := yaml.Marshal(d)
	if err != nil {
		return "", fmt.Errorf("bytecode: dump failed: %w", err)
	}
	return string(out), nil
}

func decodeArgs(op OpCode, code []byte, off, width int) []int {
	if width == 0 || off+width > len(code) {
		return nil
	}
	switch {
	case op == OpCallMember || op == OpPutCFunction:
		return []int{int(readU32(code, off)), int(readU32(code, off+4))}
	case op == OpPutGenerator:
		return []int{int(readU32(code, off)), int(readU32(code, off+4)), int(readU32(code, off+8))}
	case op == OpPutFunction:
		return []int{
			int(readU32(code, off)), int(readU32(code, off+4)),
			int(readU32(code, off+8)), int(readU32(code, off+12)),
			int(code[off+16]),
		}
	case width == 4:
		return []int{int(readU32(code, off))}
	case width == 5:
		level := int(code[off])
		idx := int(readU32(code, off+1))
		return []int{level, idx}
	case width == 8:
		return []int{int(readI64(code, off))}
	default:
		return nil
	}
}

func readU32(code []byte, off int) uint32 {
	return uint32(code[off])<<24 | uint32(code[off+1])<<16 | uint32(code[off+2])<<8 | uint32(code[off+3])
}

func readI64(code []byte, off int) int64 {
	var v uint64
	for i := 0; i < 8; i++ {
		v = v<<8 | uint64(code[off+i])
	}
	return int64(v)
}
