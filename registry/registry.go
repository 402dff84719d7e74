// Package registry implements the internal-method registry (C6): the
// bridge from bytecode OpCallMember sites to native Go functions.
// Grounded on the teacher's builtins.Registry (Register/GetID/
// CallByID/Get/Has), generalized from a flat builtin-name table keyed
// by verb-call convention to the namespaced "Class::method" table
// spec.md §4.6 describes, and from installing onto a fixed MOO object
// to installing onto arbitrary primitive Class cells via setter
// internals.
package registry

import (
	"fmt"
	"sort"

	"lumen/heap"
	"lumen/value"
)

// Entry is one registered native function.
type Entry struct {
	Name     string // namespaced, e.g. "Math::sin"
	Argc     int
	Variadic bool
	Fn       heap.Native
}

// Registry is the prelude-time table of namespaced name to native
// function. It is populated once at startup (by the Go code wiring
// Crypto::*, Math::*, etc.) and then only read from, so it carries no
// locking of its own — like the heap, it is not meant for concurrent
// use from worker goroutines (spec.md §5 keeps native calls routed
// through the main loop except inside sched's worker pool, which
// never touches the registry directly).
type Registry struct {
	entries map[string]Entry
}

func New() *Registry {
	return &Registry{entries: make(map[string]Entry)}
}

// Register adds name to the table. Registering the same name twice is
// a programming error in the Go code wiring up natives, not a
// runtime condition, so it panics immediately.
func (r *Registry) Register(name string, argc int, variadic bool, fn heap.Native) {
	if _, exists := r.entries[name]; exists {
		panic(fmt.Sprintf("registry: %q already registered", name))
	}
	r.entries[name] = Entry{Name: name, Argc: argc, Variadic: variadic, Fn: fn}
}

// Get looks up name.
func (r *Registry) Get(name string) (Entry, bool) {
	e, ok := r.entries[name]
	return e, ok
}

// Has reports whether name is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.entries[name]
	return ok
}

// Names returns every registered name, sorted, primarily for
// diagnostics and tests that assert a given native was wired up.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.entries))
	for n := range r.entries {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Install wraps every entry whose Name has the given namespace prefix
// (e.g. "Math::") as a CFunction cell and sets it as a member on cls's
// prototype under its bare method name (spec.md §4.6's
// set_primitive_string / set_primitive_number setter internals,
// generalized to one function covering every primitive class since
// they all share the same installation shape).
func Install(h *heap.Heap, in *value.Interner, r *Registry, namespace string, cls value.Value) {
	if value.TypeOf(cls) != value.KindPointer {
		panic("registry: Install requires a Class value")
	}
	clsCell := h.Get(value.DecodePointer(cls))
	if clsCell == nil || clsCell.Kind != heap.KindClass {
		panic("registry: Install requires a Class value")
	}
	if clsCell.Prototype == nil {
		protoVal := h.AllocObject(value.Null)
		clsCell.Prototype = h.Get(value.DecodePointer(protoVal))
	}

	for _, name := range r.Names() {
		if len(name) <= len(namespace) || name[:len(namespace)] != namespace {
			continue
		}
		entry := r.entries[name]
		bareName := name[len(namespace):]
		fnVal := h.AllocCFunction(in.Intern(name), entry.Argc, entry.Fn)
		fnCell := h.Get(value.DecodePointer(fnVal))
		fnCell.Variadic = entry.Variadic
		sym := in.Intern(bareName)
		clsCell.Prototype.Fields[sym] = fnVal
	}
}
