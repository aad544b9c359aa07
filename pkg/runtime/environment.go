package runtime

import (
	"maps"
	"slices"
)

// Environment holds the mutable variable bindings of one program run or one
// function call. Calls receive a Clone, so callee writes never reach the caller.
type Environment struct {
	values map[string]Value
}

// NewEnvironment creates an empty environment.
func NewEnvironment() *Environment {
	return &Environment{values: make(map[string]Value)}
}

// Get retrieves a binding.
func (e *Environment) Get(name string) (Value, bool) {
	v, ok := e.values[name]
	return v, ok
}

// Set inserts or overwrites a binding.
func (e *Environment) Set(name string, value Value) {
	if value == nil {
		value = Null
	}
	e.values[name] = value
}

// Clone copies the bindings into an independent environment.
func (e *Environment) Clone() *Environment {
	return &Environment{values: maps.Clone(e.values)}
}

// Keys returns the bound names in sorted order.
func (e *Environment) Keys() []string {
	return slices.Sorted(maps.Keys(e.values))
}

// Frame is one read-only layer of special bindings.
type Frame map[string]Value

// Specials is an immutable stack of frames searched innermost first. The nil
// *Specials is the empty stack.
type Specials struct {
	frame  Frame
	parent *Specials
}

// NewSpecials starts a stack containing only frame.
func NewSpecials(frame Frame) *Specials {
	return &Specials{frame: frame}
}

// Push layers frame over s, leaving s untouched.
func (s *Specials) Push(frame Frame) *Specials {
	return &Specials{frame: frame, parent: s}
}

// Lookup resolves name against the innermost frame that binds it.
func (s *Specials) Lookup(name string) (Value, bool) {
	for cur := s; cur != nil; cur = cur.parent {
		if v, ok := cur.frame[name]; ok {
			return v, true
		}
	}
	return nil, false
}

// Depth returns the number of frames on the stack.
func (s *Specials) Depth() int {
	n := 0
	for cur := s; cur != nil; cur = cur.parent {
		n++
	}
	return n
}
