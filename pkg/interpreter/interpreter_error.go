package interpreter

import (
	"fmt"

	"xmlang/interpreter-go/pkg/ast"
)

// RuntimeError is an ordinary evaluation failure: recoverable by <try>, fatal
// otherwise. Span and Origin locate the innermost element that failed.
type RuntimeError struct {
	Message string
	Tag     string
	Span    ast.Span
	Origin  string
	Thrown  bool
	Err     error
}

func (e *RuntimeError) Error() string {
	return e.Message
}

func (e *RuntimeError) Unwrap() error {
	return e.Err
}

func fail(node *ast.Node, format string, args ...any) error {
	return &RuntimeError{
		Message: fmt.Sprintf(format, args...),
		Tag:     node.Name(),
		Span:    node.Span,
		Origin:  node.Origin,
	}
}

// wrapFailure reports message at node, keeping err as the cause.
func wrapFailure(node *ast.Node, message string, err error) error {
	return &RuntimeError{
		Message: message,
		Tag:     node.Name(),
		Span:    node.Span,
		Origin:  node.Origin,
		Err:     err,
	}
}

// locate gives errors from the value layer the location of node. Signals and
// already located errors pass through.
func locate(err error, node *ast.Node) error {
	if isSignal(err) {
		return err
	}
	if _, ok := err.(*RuntimeError); ok {
		return err
	}
	return wrapFailure(node, err.Error(), err)
}

func expectChildren(node *ast.Node, n int) error {
	if len(node.Children) != n {
		if n == 0 {
			return fail(node, "Expected no children in <%s> element", node.Name())
		}
		return fail(node, "Expected exactly %s in <%s> element", countChildren(n), node.Name())
	}
	return nil
}

func expectAtLeast(node *ast.Node, n int) error {
	if len(node.Children) < n {
		return fail(node, "Expected at least %s in <%s> element", countChildren(n), node.Name())
	}
	return nil
}

func expectAtMost(node *ast.Node, n int) error {
	if len(node.Children) > n {
		return fail(node, "Expected at most %s in <%s> element", countChildren(n), node.Name())
	}
	return nil
}

func countChildren(n int) string {
	switch n {
	case 1:
		return "one child"
	case 2:
		return "two children"
	}
	return fmt.Sprintf("%d children", n)
}
