package runtime

import (
	"maps"
	"slices"

	"xmlang/interpreter-go/pkg/ast"
)

// FunctionTable maps declared function names to their bodies. It is shared
// by every call in a run.
type FunctionTable struct {
	bodies map[string][]*ast.Node
}

func NewFunctionTable() *FunctionTable {
	return &FunctionTable{bodies: make(map[string][]*ast.Node)}
}

// Declare stores a copy of body under name, replacing any earlier declaration.
func (t *FunctionTable) Declare(name string, body []*ast.Node) {
	copied := make([]*ast.Node, len(body))
	for i, node := range body {
		copied[i] = node.Clone()
	}
	t.bodies[name] = copied
}

// Lookup returns the body declared under name.
func (t *FunctionTable) Lookup(name string) ([]*ast.Node, bool) {
	body, ok := t.bodies[name]
	return body, ok
}

// Names returns the declared names in sorted order.
func (t *FunctionTable) Names() []string {
	return slices.Sorted(maps.Keys(t.bodies))
}
