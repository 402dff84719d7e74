package heap

import "lumen/value"

// AllocString boxes s as a heap String cell. Short and long strings
// are not distinguished at this layer (see DESIGN.md): a Go string
// already owns or shares its backing bytes as the runtime sees fit.
func (h *Heap) AllocString(s string) value.Value {
	return h.Scope(KindString, func(c *Cell) { c.Str = s })
}

// AllocFloat boxes f as a heap Float cell, used whenever f falls
// outside value.CanEncodeFloatImmediate's range.
func (h *Heap) AllocFloat(f float64) value.Value {
	return h.Scope(KindFloat, func(c *Cell) { c.Float = f })
}

// AllocArray copies elems into a new Array cell. Callers building an
// array from freshly allocated elements must pin each element (e.g.
// via a Guard) until this call returns.
func (h *Heap) AllocArray(elems []value.Value) value.Value {
	return h.Scope(KindArray, func(c *Cell) {
		c.Elems = append([]value.Value(nil), elems...)
	})
}

// AllocObject creates an Object cell with the given class and an
// empty field map.
func (h *Heap) AllocObject(class value.Value) value.Value {
	classCell := h.resolvePointer(class)
	return h.Scope(KindObject, func(c *Cell) {
		c.Class = classCell
		c.Fields = make(map[value.Symbol]value.Value)
	})
}

// AllocCFunction wraps a native Go function as a callable CFunction
// cell (spec.md §6 CFunction ABI).
func (h *Heap) AllocCFunction(name value.Symbol, arity int, fn Native) value.Value {
	return h.Scope(KindCFunction, func(c *Cell) {
		c.Name = name
		c.Arity = arity
		c.NativeFunc = fn
	})
}

// AllocCPointer wraps an opaque Go value with an optional destructor
// run once at sweep (spec.md §6 CPointer).
func (h *Heap) AllocCPointer(raw interface{}, destroy Destructor) value.Value {
	return h.Scope(KindCPointer, func(c *Cell) {
		c.Raw = raw
		c.Destroy = destroy
	})
}

// AllocFunction creates a Function cell closing over parentEnv, the
// frame active when the function literal was evaluated (spec.md §4.3
// dual-parent frames; spec.md §4.4 op_putfunction).
func (h *Heap) AllocFunction(name value.Symbol, body uint32, arity int, variadic bool, lvarCount int, anonymous bool, parentEnv *Cell) value.Value {
	return h.Scope(KindFunction, func(c *Cell) {
		c.Name = name
		c.Body = body
		c.Arity = arity
		c.Variadic = variadic
		c.LVarCount = lvarCount
		c.Anonymous = anonymous
		c.ParentEnv = parentEnv
	})
}

// AllocGenerator creates a Generator cell. Unlike a plain Function, a
// generator always captures the defining frame's self so the body a
// goroutine later resumes sees the same receiver the literal closed
// over (spec.md §4.4 op_putgenerator).
func (h *Heap) AllocGenerator(name value.Symbol, body uint32, arity int, parentEnv *Cell, boundSelf value.Value) value.Value {
	return h.Scope(KindGenerator, func(c *Cell) {
		c.Name = name
		c.Body = body
		c.Arity = arity
		c.ParentEnv = parentEnv
		c.BoundSelf = boundSelf
		c.HasBoundSelf = true
	})
}

// AllocClass creates a Class cell. members lists every declared
// instance property (spec.md's initialize_member_properties zeroes
// these to null on construction); prototype must already be a stable
// Object cell the caller has pinned (e.g. via a Guard) for the
// duration of this call.
func (h *Heap) AllocClass(name value.Symbol, ctor *Cell, members []value.Symbol, parent *Cell, prototype *Cell) value.Value {
	return h.Scope(KindClass, func(c *Cell) {
		c.Name = name
		c.Ctor = ctor
		c.Members = append([]value.Symbol(nil), members...)
		c.Parent = parent
		c.Prototype = prototype
	})
}

func (h *Heap) resolvePointer(v value.Value) *Cell {
	if value.TypeOf(v) != value.KindPointer {
		return nil
	}
	return h.Get(value.DecodePointer(v))
}
