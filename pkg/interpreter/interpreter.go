package interpreter

import (
	"bufio"
	"errors"
	"io"
	"os"
	"time"

	"xmlang/interpreter-go/pkg/ast"
	"xmlang/interpreter-go/pkg/runtime"
)

// Interpreter evaluates program trees. Variables and declared functions live
// on the interpreter, so repeated Evaluate calls share them (the REPL relies
// on this); use a fresh Interpreter per independent run.
type Interpreter struct {
	global    *runtime.Environment
	functions *runtime.FunctionTable
	stdout    io.Writer
	stdin     *bufio.Reader
	sleep     func(time.Duration)
}

// Option configures an Interpreter.
type Option func(*Interpreter)

// WithStdout redirects <print> output.
func WithStdout(w io.Writer) Option {
	return func(i *Interpreter) { i.stdout = w }
}

// WithStdin sets the source read by <readline>.
func WithStdin(r io.Reader) Option {
	return func(i *Interpreter) { i.stdin = bufio.NewReader(r) }
}

// WithSleep replaces the function used by <delay>.
func WithSleep(fn func(time.Duration)) Option {
	return func(i *Interpreter) { i.sleep = fn }
}

// New returns an interpreter bound to the process's standard streams.
func New(opts ...Option) *Interpreter {
	i := &Interpreter{
		global:    runtime.NewEnvironment(),
		functions: runtime.NewFunctionTable(),
		stdout:    os.Stdout,
		sleep:     time.Sleep,
	}
	for _, opt := range opts {
		opt(i)
	}
	if i.stdin == nil {
		i.stdin = bufio.NewReader(os.Stdin)
	}
	return i
}

// GlobalEnvironment exposes the program-level variables.
func (i *Interpreter) GlobalEnvironment() *runtime.Environment { return i.global }

// Functions exposes the function table.
func (i *Interpreter) Functions() *runtime.FunctionTable { return i.functions }

// Evaluate runs a program rooted at a <program> element. An exit request is
// returned as an error; use ExitCodeFromError to recover the code.
func (i *Interpreter) Evaluate(root *ast.Node) (runtime.Value, error) {
	if root == nil {
		return nil, errors.New("no program to evaluate")
	}
	val, err := i.eval(root, 0, scope{env: i.global})
	if err != nil {
		if sig, ok := err.(continueSignal); ok {
			return nil, &RuntimeError{Message: "continue outside of a loop", Tag: "continue", Span: sig.span, Origin: sig.origin}
		}
		return nil, err
	}
	if val == nil {
		val = runtime.Null
	}
	return val, nil
}

// scope is the evaluation context threaded through the recursion.
type scope struct {
	env      *runtime.Environment
	specials *runtime.Specials
}

func (s scope) push(frame runtime.Frame) scope {
	return scope{env: s.env, specials: s.specials.Push(frame)}
}

func (i *Interpreter) eval(node *ast.Node, depth int, sc scope) (runtime.Value, error) {
	val, err := i.dispatch(node, depth, sc)
	if err != nil {
		return nil, locate(err, node)
	}
	return val, nil
}

func (i *Interpreter) dispatch(node *ast.Node, depth int, sc scope) (runtime.Value, error) {
	if depth == 0 {
		if node.Op != ast.OpProgram {
			return nil, fail(node, "Root element must be <program>")
		}
		return i.evalBody(node.Children, depth, sc)
	}
	switch node.Op {
	case ast.OpNull:
		return runtime.Null, nil
	case ast.OpStr:
		return i.evalStr(node, depth, sc)
	case ast.OpSpace:
		return evalSpace(node)
	case ast.OpInt, ast.OpFloat, ast.OpBool:
		return i.evalCoercion(node, depth, sc)
	case ast.OpTrue:
		return runtime.Bool(true), nil
	case ast.OpFalse:
		return runtime.Bool(false), nil
	case ast.OpType:
		return i.evalType(node, depth, sc)
	case ast.OpPrint:
		return i.evalPrint(node, depth, sc)
	case ast.OpReadline:
		return i.evalReadline(node, depth, sc)
	case ast.OpAdd, ast.OpSub, ast.OpMul, ast.OpDiv, ast.OpMod:
		return i.evalArithmetic(node, depth, sc)
	case ast.OpNeg, ast.OpNot, ast.OpAbs:
		return i.evalUnary(node, depth, sc)
	case ast.OpEq, ast.OpNe, ast.OpLt, ast.OpLe, ast.OpGt, ast.OpGe:
		return i.evalComparison(node, depth, sc)
	case ast.OpAnd, ast.OpOr:
		return i.evalLogical(node, depth, sc)
	case ast.OpStartsWith, ast.OpEndsWith, ast.OpContains:
		return i.evalStringPredicate(node, depth, sc)
	case ast.OpGet:
		return i.evalGet(node, depth, sc)
	case ast.OpSet:
		return i.evalSet(node, depth, sc)
	case ast.OpSpecial:
		return i.evalSpecial(node, depth, sc)
	case ast.OpFunction:
		return i.evalFunction(node)
	case ast.OpCall:
		return i.evalCall(node, depth, sc)
	case ast.OpBreak:
		return i.evalBreak(node, depth, sc)
	case ast.OpContinue:
		if err := expectChildren(node, 0); err != nil {
			return nil, err
		}
		return nil, continueSignal{span: node.Span, origin: node.Origin}
	case ast.OpExit:
		return evalExit(node)
	case ast.OpBlock:
		return i.evalBody(node.Children, depth, sc)
	case ast.OpIf:
		return i.evalIf(node, depth, sc)
	case ast.OpLoop:
		return i.evalLoop(node, depth, sc)
	case ast.OpTry:
		return i.evalTry(node, depth, sc)
	case ast.OpThrow:
		return i.evalThrow(node, depth, sc)
	case ast.OpUnwrap:
		return i.evalUnwrap(node, depth, sc)
	case ast.OpDelay:
		return i.evalDelay(node, depth, sc)
	}
	if node.Op.IsStructural() {
		return nil, fail(node, "<%s> is only valid inside <%s>", node.Name(), node.Op.Owner())
	}
	return nil, fail(node, "Unknown element: %s", node.Tag)
}

// evalSequence evaluates nodes in order and returns the last value. Signals
// propagate untouched.
func (i *Interpreter) evalSequence(nodes []*ast.Node, depth int, sc scope) (runtime.Value, error) {
	result := runtime.Null
	for _, child := range nodes {
		val, err := i.eval(child, depth+1, sc)
		if err != nil {
			return nil, err
		}
		result = val
	}
	return result, nil
}

// evalBody is evalSequence for constructs that absorb a break: its value
// becomes the body's result.
func (i *Interpreter) evalBody(nodes []*ast.Node, depth int, sc scope) (runtime.Value, error) {
	val, err := i.evalSequence(nodes, depth, sc)
	if err != nil {
		if sig, ok := err.(breakSignal); ok {
			return sig.value, nil
		}
		return nil, err
	}
	return val, nil
}

func (i *Interpreter) evalChildren(node *ast.Node, depth int, sc scope) ([]runtime.Value, error) {
	values := make([]runtime.Value, 0, len(node.Children))
	for _, child := range node.Children {
		val, err := i.eval(child, depth+1, sc)
		if err != nil {
			return nil, err
		}
		values = append(values, val)
	}
	return values, nil
}

// evalOnly evaluates the single child of node.
func (i *Interpreter) evalOnly(node *ast.Node, depth int, sc scope) (runtime.Value, error) {
	if err := expectChildren(node, 1); err != nil {
		return nil, err
	}
	return i.eval(node.Children[0], depth+1, sc)
}
