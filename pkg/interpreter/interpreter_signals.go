package interpreter

import (
	"xmlang/interpreter-go/pkg/ast"
	"xmlang/interpreter-go/pkg/runtime"
)

// breakSignal unwinds to the nearest program, block, if branch, call or loop.
type breakSignal struct {
	value runtime.Value
}

func (b breakSignal) Error() string {
	return "break"
}

// continueSignal unwinds to the nearest loop and starts its next pass.
type continueSignal struct {
	span   ast.Span
	origin string
}

func (c continueSignal) Error() string {
	return "continue"
}

func isSignal(err error) bool {
	switch err.(type) {
	case breakSignal, continueSignal, exitSignal:
		return true
	}
	return false
}

func (i *Interpreter) evalBreak(node *ast.Node, depth int, sc scope) (runtime.Value, error) {
	if err := expectAtMost(node, 1); err != nil {
		return nil, err
	}
	value := runtime.Null
	if len(node.Children) == 1 {
		val, err := i.eval(node.Children[0], depth+1, sc)
		if err != nil {
			return nil, err
		}
		value = val
	}
	return nil, breakSignal{value: value}
}
