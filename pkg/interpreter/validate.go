package interpreter

import (
	"xmlang/interpreter-go/pkg/ast"
)

// Validate reports elements that can never evaluate successfully: a root other
// than <program>, unknown tags, and structural tags outside their owner. It
// does not evaluate anything, so arity problems surface only at run time.
func Validate(root *ast.Node) []*RuntimeError {
	var issues []*RuntimeError
	report := func(node *ast.Node, format string, args ...any) {
		issues = append(issues, fail(node, format, args...).(*RuntimeError))
	}
	if root == nil {
		return nil
	}
	if root.Op != ast.OpProgram {
		report(root, "Root element must be <program>")
	}
	var visit func(node, parent *ast.Node)
	visit = func(node, parent *ast.Node) {
		switch {
		case node.Op == ast.OpUnknown || (node.Op == ast.OpProgram && parent != nil):
			report(node, "Unknown element: %s", node.Tag)
		case node.Op.IsStructural() && !allowedUnder(node.Op, parent):
			report(node, "<%s> is only valid inside <%s>", node.Name(), node.Op.Owner())
		}
		for _, child := range node.Children {
			visit(child, node)
		}
	}
	visit(root, nil)
	return issues
}

func allowedUnder(op ast.Opcode, parent *ast.Node) bool {
	if parent == nil {
		return false
	}
	switch op {
	case ast.OpCondition, ast.OpThen:
		return parent.Op == ast.OpIf || parent.Op == ast.OpElif
	case ast.OpElif, ast.OpElse:
		return parent.Op == ast.OpIf
	case ast.OpDo, ast.OpCatch:
		return parent.Op == ast.OpTry
	}
	return false
}
