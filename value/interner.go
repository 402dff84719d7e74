package value

// Interner assigns a stable Symbol id to each distinct string it
// sees, used wherever a member name needs the same Symbol both when
// bytecode is assembled and when the prelude installs a native method
// under that name (spec.md §4.1 "interned symbols"). Deliberately not
// a package-level singleton (see the design note in spec.md §9):
// callers construct one explicitly and thread it through the VM, the
// assembler, and the registry together.
type Interner struct {
	ids   map[string]Symbol
	names []string
}

func NewInterner() *Interner {
	return &Interner{ids: make(map[string]Symbol)}
}

// Intern returns name's Symbol, assigning a fresh one the first time
// name is seen.
func (in *Interner) Intern(name string) Symbol {
	if id, ok := in.ids[name]; ok {
		return id
	}
	id := Symbol(len(in.names))
	in.names = append(in.names, name)
	in.ids[name] = id
	return id
}

// Name reverses Intern; it panics on an id this Interner never issued,
// since that indicates a bytecode/symbol-table mismatch rather than a
// recoverable runtime condition.
func (in *Interner) Name(id Symbol) string {
	if int(id) >= len(in.names) {
		panic("value: symbol id from a different Interner")
	}
	return in.names[id]
}
