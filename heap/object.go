package heap

import (
	"lumen/bytecode"
	"lumen/value"
)

// Kind discriminates the heap object variant a Cell currently holds.
// KindDead marks a cell on the free list; mark never follows a dead
// cell and sweep never double-frees one (spec.md §3, §4.2).
type Kind uint8

const (
	KindDead Kind = iota
	KindObject
	KindArray
	KindString
	KindFloat
	KindFunction
	KindGenerator
	KindCFunction
	KindClass
	KindFrame
	KindCatchTable
	KindCPointer
)

func (k Kind) String() string {
	switch k {
	case KindDead:
		return "dead"
	case KindObject:
		return "object"
	case KindArray:
		return "array"
	case KindString:
		return "string"
	case KindFloat:
		return "float"
	case KindFunction:
		return "function"
	case KindGenerator:
		return "generator"
	case KindCFunction:
		return "cfunction"
	case KindClass:
		return "class"
	case KindFrame:
		return "frame"
	case KindCatchTable:
		return "catchtable"
	case KindCPointer:
		return "cpointer"
	default:
		return "unknown"
	}
}

// Native is the CFunction ABI (spec.md §6): a native function receives
// the heap (so it can allocate return values through the scoped-root
// helper) plus its declared argc arguments, and returns a single value
// or a *verr.Error built with verr.Typef/verr.Arityf.
type Native func(h *Heap, args []value.Value) (value.Value, error)

// Destructor runs exactly once, at sweep time, when a CPointer cell
// becomes unreachable (spec.md §6).
type Destructor func(raw interface{})

// Cell is the uniform heap slot every arena is built from. Exactly one
// of the variant sections below is meaningful, selected by Kind — this
// mirrors a C tagged union using a single Go struct, so every cell in
// every arena is the same size regardless of which variant it last
// held (spec.md §4.2 "all cells within the heap have identical size").
type Cell struct {
	Kind   Kind
	Marked bool

	handle   value.Handle // this cell's own handle, stable for its lifetime
	freeNext value.Handle // free-list link, valid only when Kind == KindDead

	// Object
	Class  *Cell
	Fields map[value.Symbol]value.Value

	// Array
	Elems []value.Value

	// String (both short and long strings use Str; spec.md's
	// short/long distinction is a C-level layout optimization that a Go
	// string already subsumes — see DESIGN.md)
	Str string

	// Float (boxed)
	Float float64

	// Function / Generator / CFunction (shared fields)
	Name         value.Symbol
	Arity        int
	Variadic     bool
	LVarCount    int
	ParentEnv    *Cell // captured lexical Frame, nil at module top level
	Body         uint32
	Anonymous    bool
	BoundSelf    value.Value
	HasBoundSelf bool
	Attrs        map[value.Symbol]value.Value
	NativeFunc   Native // CFunction only
	ResumeAddr   uint32 // Generator only: saved IP
	SavedFrame   *Cell  // Generator only: retained Frame, kept alive by this cell's own mark

	// Class
	Ctor      *Cell // Function or nil
	Members   []value.Symbol
	Prototype *Cell // Object used as the method table
	Parent    *Cell // Class or nil

	// Frame
	FrameParent     *Cell // dynamic caller
	FrameEnvParent  *Cell // lexical parent, may differ from FrameParent (§4.3)
	Catch           *Cell // top of this frame's catch table chain
	Func            *Cell // Function/CFunction/Generator being executed
	Locals          []value.Value
	Self            value.Value
	ReturnAddr      uint32
	HaltAfterReturn bool
	Block           *bytecode.InstructionBlock // code this frame is executing
	IP              int                        // instruction pointer within Block.Code
	BaseSP          int                        // operand-stack height when this frame was entered
	IsConstructor   bool                       // true if this frame must return Self, not its popped value
	CtorRemaining   []*Cell                    // ancestor constructors still to run, root-to-leaf, after this one returns
	CtorLeafArgs    []value.Value              // the caller's real args, applied only when CtorRemaining is empty

	// CatchTable
	ResumeIP    uint32
	StackHeight int
	OwnerFrame  *Cell
	PrevCatch   *Cell

	// CPointer
	Raw    interface{}
	Destroy Destructor
}

// Handle returns the stable handle identifying this cell.
func (c *Cell) Handle() value.Handle { return c.handle }

// AsValue wraps the cell's own handle as a pointer-tagged Value.
func (c *Cell) AsValue() value.Value { return value.EncodePointer(c.handle) }
