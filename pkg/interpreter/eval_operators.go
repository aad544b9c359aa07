package interpreter

import (
	"strings"

	"xmlang/interpreter-go/pkg/ast"
	"xmlang/interpreter-go/pkg/runtime"
)

// evalArithmetic folds the children left to right. add and mul start from a
// null seed, which is an identity for the first step, so every operator
// effectively starts from the first child; no children yields null.
func (i *Interpreter) evalArithmetic(node *ast.Node, depth int, sc scope) (runtime.Value, error) {
	values, err := i.evalChildren(node, depth, sc)
	if err != nil {
		return nil, err
	}
	if len(values) == 0 {
		return runtime.Null, nil
	}
	acc := values[0]
	for _, val := range values[1:] {
		acc, err = applyArithmetic(node.Op, acc, val)
		if err != nil {
			return nil, err
		}
	}
	return acc, nil
}

func applyArithmetic(op ast.Opcode, a, b runtime.Value) (runtime.Value, error) {
	switch op {
	case ast.OpAdd:
		return runtime.Add(a, b), nil
	case ast.OpSub:
		return runtime.Sub(a, b)
	case ast.OpMul:
		return runtime.Mul(a, b)
	case ast.OpDiv:
		return runtime.Div(a, b)
	default:
		return runtime.Mod(a, b)
	}
}

func (i *Interpreter) evalUnary(node *ast.Node, depth int, sc scope) (runtime.Value, error) {
	val, err := i.evalOnly(node, depth, sc)
	if err != nil {
		return nil, err
	}
	switch node.Op {
	case ast.OpNeg:
		return runtime.Negate(val)
	case ast.OpNot:
		return runtime.Not(val)
	default:
		return runtime.Abs(val)
	}
}

// evalComparison requires the relation to hold for every consecutive pair.
func (i *Interpreter) evalComparison(node *ast.Node, depth int, sc scope) (runtime.Value, error) {
	if err := expectAtLeast(node, 2); err != nil {
		return nil, err
	}
	values, err := i.evalChildren(node, depth, sc)
	if err != nil {
		return nil, err
	}
	for k := 0; k+1 < len(values); k++ {
		if !holds(node.Op, values[k], values[k+1]) {
			return runtime.Bool(false), nil
		}
	}
	return runtime.Bool(true), nil
}

func holds(op ast.Opcode, a, b runtime.Value) bool {
	switch op {
	case ast.OpEq:
		return runtime.Equal(a, b)
	case ast.OpNe:
		return !runtime.Equal(a, b)
	}
	c, ok := runtime.Compare(a, b)
	if !ok {
		return false
	}
	switch op {
	case ast.OpLt:
		return c < 0
	case ast.OpLe:
		return c <= 0
	case ast.OpGt:
		return c > 0
	default:
		return c >= 0
	}
}

// evalLogical evaluates every child before combining, so side effects of all
// operands are observed.
func (i *Interpreter) evalLogical(node *ast.Node, depth int, sc scope) (runtime.Value, error) {
	if err := expectAtLeast(node, 2); err != nil {
		return nil, err
	}
	values, err := i.evalChildren(node, depth, sc)
	if err != nil {
		return nil, err
	}
	allTrue, anyTrue := true, false
	for _, val := range values {
		truthy := runtime.Truthy(val)
		allTrue = allTrue && truthy
		anyTrue = anyTrue || truthy
	}
	if node.Op == ast.OpAnd {
		return runtime.Bool(allTrue), nil
	}
	return runtime.Bool(anyTrue), nil
}

func (i *Interpreter) evalStringPredicate(node *ast.Node, depth int, sc scope) (runtime.Value, error) {
	if err := expectChildren(node, 2); err != nil {
		return nil, err
	}
	values, err := i.evalChildren(node, depth, sc)
	if err != nil {
		return nil, err
	}
	subject, needle := runtime.ToString(values[0]), runtime.ToString(values[1])
	switch node.Op {
	case ast.OpStartsWith:
		return runtime.Bool(strings.HasPrefix(subject, needle)), nil
	case ast.OpEndsWith:
		return runtime.Bool(strings.HasSuffix(subject, needle)), nil
	default:
		return runtime.Bool(strings.Contains(subject, needle)), nil
	}
}
