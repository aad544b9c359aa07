package interpreter

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"xmlang/interpreter-go/pkg/ast"
	"xmlang/interpreter-go/pkg/runtime"
)

func run(t *testing.T, root *ast.Node, opts ...Option) (runtime.Value, string, error) {
	t.Helper()
	var out bytes.Buffer
	base := []Option{WithStdout(&out), WithStdin(strings.NewReader(""))}
	interp := New(append(base, opts...)...)
	val, err := interp.Evaluate(root)
	return val, out.String(), err
}

func mustRun(t *testing.T, root *ast.Node, opts ...Option) (runtime.Value, string) {
	t.Helper()
	val, out, err := run(t, root, opts...)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return val, out
}

func expectRuntimeError(t *testing.T, err error, message string) *RuntimeError {
	t.Helper()
	var rtErr *RuntimeError
	if !errors.As(err, &rtErr) {
		t.Fatalf("expected runtime error %q, got %v", message, err)
	}
	if rtErr.Message != message {
		t.Fatalf("expected message %q, got %q", message, rtErr.Message)
	}
	return rtErr
}

func ifNode(children ...*ast.Node) *ast.Node  { return ast.El("if", children...) }
func cond(child *ast.Node) *ast.Node          { return ast.El("condition", child) }
func then(children ...*ast.Node) *ast.Node    { return ast.El("then", children...) }
func printNode(children ...*ast.Node) *ast.Node { return ast.El("print", children...) }

func TestProgramReturnsLastValue(t *testing.T) {
	val, _ := mustRun(t, ast.Program(ast.IntLit("1"), ast.Str("hello")))
	if val != runtime.Str("hello") {
		t.Fatalf("expected \"hello\", got %#v", val)
	}
	val, _ = mustRun(t, ast.Program())
	if val != runtime.Null {
		t.Fatalf("expected null for empty program, got %#v", val)
	}
}

func TestRootMustBeProgram(t *testing.T) {
	_, _, err := run(t, ast.El("block", ast.Str("x")))
	expectRuntimeError(t, err, "Root element must be <program>")
	_, _, err = run(t, ast.Program(ast.Program()))
	expectRuntimeError(t, err, "Unknown element: program")
	_, _, err = run(t, ast.Program(ast.El("widget")))
	expectRuntimeError(t, err, "Unknown element: widget")
	_, _, err = run(t, ast.Program(ast.El("then")))
	expectRuntimeError(t, err, "<then> is only valid inside <if>")
}

func TestTagsAreCaseInsensitive(t *testing.T) {
	_, out := mustRun(t, ast.El("Program", ast.El("PRINT", ast.Text("hi"))))
	if out != "hi\n" {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestLiterals(t *testing.T) {
	cases := []struct {
		name string
		node *ast.Node
		want runtime.Value
	}{
		{"str skips null", ast.El("str", ast.Text("a"), ast.El("null"), ast.Text("b")), runtime.Str("ab")},
		{"str stringifies", ast.El("string", ast.IntLit("4"), ast.El("true")), runtime.Str("4true")},
		{"space default", ast.El("space"), runtime.Str(" ")},
		{"space count", ast.El("space").With("count", "3"), runtime.Str("   ")},
		{"space bad count", ast.El("space").With("count", "-2"), runtime.Str(" ")},
		{"int", ast.IntLit("-42"), runtime.Int(-42)},
		{"integer of float", ast.El("integer", ast.FloatLit("3.9")), runtime.Int(3)},
		{"float", ast.FloatLit("2.5"), runtime.Float(2.5)},
		{"bool of text", ast.El("bool", ast.Text("Off")), runtime.Bool(false)},
		{"bool of int", ast.El("bool", ast.IntLit("2")), runtime.Bool(true)},
		{"true", ast.El("true"), runtime.Bool(true)},
		{"null", ast.El("null"), runtime.Null},
		{"type names", ast.El("type", ast.El("null"), ast.IntLit("1"), ast.FloatLit("1"), ast.El("false"), ast.Str("s")), runtime.Str("null int float bool string")},
		{"type separator", ast.El("type", ast.IntLit("1"), ast.Str("s")).With("separator", ","), runtime.Str("int,string")},
		{"type empty", ast.El("type"), runtime.Str("null")},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			val, _ := mustRun(t, ast.Program(tc.node))
			if val != tc.want {
				t.Fatalf("expected %#v, got %#v", tc.want, val)
			}
		})
	}
}

func TestCoercionFailures(t *testing.T) {
	_, _, err := run(t, ast.Program(ast.IntLit("4x")))
	rtErr := expectRuntimeError(t, err, "Failed to convert value to an integer")
	var conv *runtime.ConversionError
	if !errors.As(rtErr, &conv) {
		t.Fatalf("expected conversion cause, got %v", rtErr.Err)
	}
	_, _, err = run(t, ast.Program(ast.FloatLit("x")))
	expectRuntimeError(t, err, "Failed to convert value to a float")
	_, _, err = run(t, ast.Program(ast.El("int", ast.Text("1"), ast.Text("2"))))
	expectRuntimeError(t, err, "Expected exactly one child in <int> element")
}

func TestPrint(t *testing.T) {
	_, out := mustRun(t, ast.Program(
		printNode(ast.Str("a"), ast.IntLit("1"), ast.El("null")),
		printNode(ast.Text("no newline")).With("newline", "false"),
		printNode(ast.Text("x"), ast.Text("y")).With("separator", ", "),
	))
	if out != "a1null\nno newlinex, y\n" {
		t.Fatalf("unexpected output %q", out)
	}
}

type flushRecorder struct {
	bytes.Buffer
	flushes int
}

func (f *flushRecorder) Flush() error {
	f.flushes++
	return nil
}

func TestPrintFlushesWithoutNewline(t *testing.T) {
	var out flushRecorder
	interp := New(WithStdout(&out))
	if _, err := interp.Evaluate(ast.Program(printNode(ast.Text("> ")).With("newline", "no"))); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.flushes != 1 || out.String() != "> " {
		t.Fatalf("expected one flush and prompt output, got %d %q", out.flushes, out.String())
	}
}

func TestReadline(t *testing.T) {
	val, out := mustRun(t, ast.Program(
		ast.Set("first", ast.El("readline", ast.Text("name? "))),
		ast.Set("second", ast.El("readline")),
		ast.Set("third", ast.El("readline")),
		ast.El("str", ast.Get("first"), ast.Text("|"), ast.Get("second"), ast.Text("|"), ast.Get("third")),
	), WithStdin(strings.NewReader("line one\r\nline two")))
	if val != runtime.Str("line one|line two|") {
		t.Fatalf("unexpected value %#v", val)
	}
	if out != "name? " {
		t.Fatalf("unexpected prompt output %q", out)
	}
}

func TestArithmeticFolds(t *testing.T) {
	cases := []struct {
		name string
		node *ast.Node
		want runtime.Value
	}{
		{"sum", ast.El("add", ast.IntLit("1"), ast.IntLit("2"), ast.IntLit("3")), runtime.Int(6)},
		{"sum empty", ast.El("sum"), runtime.Null},
		{"sum mixed", ast.El("add", ast.IntLit("1"), ast.FloatLit("0.5")), runtime.Float(1.5)},
		{"sum concatenates", ast.El("add", ast.Str("n="), ast.IntLit("3")), runtime.Str("n=3")},
		{"product", ast.El("mul", ast.IntLit("2"), ast.IntLit("3"), ast.IntLit("4")), runtime.Int(24)},
		{"product empty", ast.El("product"), runtime.Null},
		{"product null", ast.El("multiply", ast.IntLit("2"), ast.El("null")), runtime.Null},
		{"repeat", ast.El("mul", ast.Str("ab"), ast.IntLit("3")), runtime.Str("ababab")},
		{"repeat reversed", ast.El("mul", ast.Str("ab"), ast.IntLit("-2")), runtime.Str("baba")},
		{"difference", ast.El("sub", ast.IntLit("10"), ast.IntLit("3"), ast.IntLit("2")), runtime.Int(5)},
		{"difference single", ast.El("subtract", ast.IntLit("10")), runtime.Int(10)},
		{"difference empty", ast.El("difference"), runtime.Null},
		{"quotient", ast.El("div", ast.IntLit("100"), ast.IntLit("5"), ast.IntLit("3")), runtime.Int(6)},
		{"float quotient", ast.El("divide", ast.FloatLit("1"), ast.IntLit("4")), runtime.Float(0.25)},
		{"remainder", ast.El("mod", ast.IntLit("17"), ast.IntLit("5")), runtime.Int(2)},
		{"neg", ast.El("neg", ast.IntLit("3")), runtime.Int(-3)},
		{"not", ast.El("not", ast.IntLit("0")), runtime.Bool(true)},
		{"abs", ast.El("absolute", ast.FloatLit("-1.5")), runtime.Float(1.5)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			val, _ := mustRun(t, ast.Program(tc.node))
			if val != tc.want {
				t.Fatalf("expected %#v, got %#v", tc.want, val)
			}
		})
	}
}

func TestArithmeticErrors(t *testing.T) {
	_, _, err := run(t, ast.Program(ast.El("div", ast.Str("x"), ast.IntLit("0"))))
	rtErr := expectRuntimeError(t, err, "Division by zero is not allowed")
	if !errors.Is(rtErr, runtime.ErrDivisionByZero) {
		t.Fatalf("expected ErrDivisionByZero cause")
	}
	_, _, err = run(t, ast.Program(ast.El("mul", ast.Str("a"), ast.Str("b"))))
	expectRuntimeError(t, err, "Can't multiply incompatible types: string and string")
	_, _, err = run(t, ast.Program(ast.El("neg", ast.El("true"))))
	expectRuntimeError(t, err, "Can't negate incompatible type: bool")
	_, _, err = run(t, ast.Program(ast.El("not")))
	expectRuntimeError(t, err, "Expected exactly one child in <not> element")
}

func TestComparisonsChain(t *testing.T) {
	cases := []struct {
		name string
		node *ast.Node
		want bool
	}{
		{"lt chain", ast.El("lt", ast.IntLit("1"), ast.IntLit("2"), ast.IntLit("3")), true},
		{"lt broken chain", ast.El("lt", ast.IntLit("1"), ast.IntLit("3"), ast.IntLit("2")), false},
		{"le equal", ast.El("le", ast.IntLit("2"), ast.FloatLit("2")), true},
		{"gt strings", ast.El("gt", ast.Str("b"), ast.Str("a")), true},
		{"ge incomparable", ast.El("ge", ast.Str("1"), ast.IntLit("1")), false},
		{"eq numeric coercion", ast.El("eq", ast.El("true"), ast.IntLit("1"), ast.FloatLit("1")), true},
		{"eq null", ast.El("eq", ast.El("null"), ast.El("null")), true},
		{"eq null string", ast.El("eq", ast.El("null"), ast.Str("")), false},
		{"ne mixed", ast.El("ne", ast.Str("1"), ast.IntLit("1")), true},
		{"ne chain", ast.El("ne", ast.IntLit("1"), ast.IntLit("2"), ast.IntLit("2")), false},
		{"starts-with", ast.El("starts-with", ast.Str("hello"), ast.Str("he")), true},
		{"ends-with", ast.El("ends-with", ast.IntLit("1234"), ast.IntLit("34")), true},
		{"contains", ast.El("contains", ast.Str("hello"), ast.Str("xyz")), false},
		{"or", ast.El("or", ast.El("false"), ast.Str("yes")), true},
		{"and", ast.El("and", ast.El("true"), ast.Str("no")), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			val, _ := mustRun(t, ast.Program(tc.node))
			if val != runtime.Bool(tc.want) {
				t.Fatalf("expected %v, got %#v", tc.want, val)
			}
		})
	}
	_, _, err := run(t, ast.Program(ast.El("eq", ast.IntLit("1"))))
	expectRuntimeError(t, err, "Expected at least two children in <eq> element")
}

func TestAndOrEvaluateEveryChild(t *testing.T) {
	val, out := mustRun(t, ast.Program(ast.El("and",
		ast.El("block", printNode(ast.Text("a")), ast.El("false")),
		ast.El("block", printNode(ast.Text("b")), ast.El("true")),
	)))
	if val != runtime.Bool(false) || out != "a\nb\n" {
		t.Fatalf("unexpected result %#v output %q", val, out)
	}
	_, out = mustRun(t, ast.Program(ast.El("or",
		ast.El("block", printNode(ast.Text("c")), ast.El("true")),
		ast.El("block", printNode(ast.Text("d")), ast.El("true")),
	)))
	if out != "c\nd\n" {
		t.Fatalf("expected both operands of <or> to run, got %q", out)
	}
}

func TestVariables(t *testing.T) {
	val, _ := mustRun(t, ast.Program(
		ast.Set("x", ast.IntLit("5")),
		ast.Set("name", ast.Str("x")),
		ast.El("add", ast.Get("x"), ast.El("get", ast.Get("name"))),
	))
	if val != runtime.Int(10) {
		t.Fatalf("expected 10, got %#v", val)
	}
	val, _ = mustRun(t, ast.Program(
		ast.El("get", ast.IntLit("9")).With("var", "missing"),
	))
	if val != runtime.Int(9) {
		t.Fatalf("expected fallback 9, got %#v", val)
	}
	interp := New(WithStdout(&bytes.Buffer{}))
	if _, err := interp.Evaluate(ast.Program(ast.El("get", ast.IntLit("9")).With("var", "missing"))); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := interp.GlobalEnvironment().Get("missing"); ok {
		t.Fatalf("fallback value must not be stored")
	}
	val, _ = mustRun(t, ast.Program(ast.Get("unbound")))
	if val != runtime.Null {
		t.Fatalf("expected null for unbound variable, got %#v", val)
	}
	_, _, err := run(t, ast.Program(ast.El("set", ast.IntLit("1"))))
	expectRuntimeError(t, err, "<set> requires a var attribute")
}

func TestBlockBreakYieldsValue(t *testing.T) {
	val, out := mustRun(t, ast.Program(ast.El("block",
		ast.El("break", ast.El("int", ast.Str("7"))),
		printNode(ast.Text("unreachable")),
	)))
	if val != runtime.Int(7) || out != "" {
		t.Fatalf("expected 7 and no output, got %#v %q", val, out)
	}
	val, _ = mustRun(t, ast.Program(ast.El("return"), ast.Str("unreachable")))
	if val != runtime.Null {
		t.Fatalf("expected bare return to yield null, got %#v", val)
	}
}

func TestLoopBoundedBySpecialCounter(t *testing.T) {
	val, out := mustRun(t, ast.Program(
		ast.El("loop", printNode(ast.Special("iteration"))).With("end", "3"),
	))
	if val != runtime.Null || out != "0\n1\n2\n" {
		t.Fatalf("unexpected result %#v output %q", val, out)
	}
	_, out = mustRun(t, ast.Program(
		ast.El("loop", printNode(ast.Get("i"))).With("end", "3"),
	))
	if out != "null\nnull\nnull\n" {
		t.Fatalf("unexpected output %q", out)
	}
	_, out = mustRun(t, ast.Program(
		ast.El("loop", printNode(ast.Special("iteration"))).With("start", "5").With("end", "5"),
	))
	if out != "" {
		t.Fatalf("expected no passes, got %q", out)
	}
}

func TestLoopContinueAndBreak(t *testing.T) {
	_, out := mustRun(t, ast.Program(ast.El("loop",
		ifNode(
			cond(ast.El("eq", ast.Special("iteration"), ast.IntLit("1"))),
			then(ast.El("continue")),
		),
		printNode(ast.Special("iteration")),
	).With("end", "3")))
	if out != "0\n2\n" {
		t.Fatalf("unexpected output %q", out)
	}
	val, _ := mustRun(t, ast.Program(
		ast.El("loop", ast.El("break", ast.Special("iteration"))).With("start", "5"),
	))
	if val != runtime.Int(5) {
		t.Fatalf("expected break value 5, got %#v", val)
	}
	_, _, err := run(t, ast.Program(ast.El("loop").With("end", "ten")))
	expectRuntimeError(t, err, "Invalid end attribute \"ten\" on <loop>")
}

func TestContinueOutsideLoop(t *testing.T) {
	node := ast.El("next")
	ast.SetSpan(node, ast.Span{Start: ast.Position{Line: 3, Column: 5}})
	_, _, err := run(t, ast.Program(ast.El("block", node)))
	rtErr := expectRuntimeError(t, err, "continue outside of a loop")
	if rtErr.Span.Start.Line != 3 {
		t.Fatalf("expected location of <next>, got %+v", rtErr.Span)
	}
}

func TestIfBranches(t *testing.T) {
	val, _ := mustRun(t, ast.Program(ifNode(
		cond(ast.IntLit("5")),
		then(ast.Special("condition")),
	)))
	if val != runtime.Int(5) {
		t.Fatalf("expected condition special 5, got %#v", val)
	}
	val, _ = mustRun(t, ast.Program(ifNode(
		cond(ast.El("false")),
		then(ast.Str("then")),
		ast.El("elif", cond(ast.El("null")), then(ast.Str("first elif"))),
		ast.El("elif", cond(ast.IntLit("2")), then(ast.Special("condition"))),
		ast.El("else", ast.Str("else")),
	)))
	if val != runtime.Int(2) {
		t.Fatalf("expected elif condition 2, got %#v", val)
	}
	val, _ = mustRun(t, ast.Program(ifNode(
		ast.El("else", ast.Special("condition")),
		cond(ast.IntLit("0")),
		then(ast.Str("then")),
	)))
	if val != runtime.Int(0) {
		t.Fatalf("expected else to see the outer condition, got %#v", val)
	}
	val, _ = mustRun(t, ast.Program(ifNode(cond(ast.El("false")), then(ast.Str("x")))))
	if val != runtime.Null {
		t.Fatalf("expected null without a matching branch, got %#v", val)
	}
}

func TestIfBranchAbsorbsBreak(t *testing.T) {
	val, out := mustRun(t, ast.Program(
		ifNode(cond(ast.El("true")), then(ast.El("break", ast.IntLit("4")), printNode(ast.Text("no")))),
		printNode(ast.Text("after")),
		ast.Str("end"),
	))
	if val != runtime.Str("end") || out != "after\n" {
		t.Fatalf("unexpected result %#v output %q", val, out)
	}
}

func TestIfValidation(t *testing.T) {
	_, _, err := run(t, ast.Program(ifNode(cond(ast.El("true")))))
	expectRuntimeError(t, err, "<if> requires a <then>")
	_, _, err = run(t, ast.Program(ifNode(cond(ast.El("true")), then(), ast.Str("x"))))
	expectRuntimeError(t, err, "Unexpected <str> in <if>")
	_, _, err = run(t, ast.Program(ifNode(cond(ast.El("true")), then(), ast.El("elif", then()))))
	expectRuntimeError(t, err, "<elif> requires a <condition>")
	_, _, err = run(t, ast.Program(ifNode(ast.El("condition"), then())))
	expectRuntimeError(t, err, "Expected exactly one child in <condition> element")
	_, _, err = run(t, ast.Program(ifNode(cond(ast.El("true")), then(), ast.El("else"), ast.El("else"))))
	expectRuntimeError(t, err, "<if> allows at most one <else>")
}

func TestTryCatchesErrors(t *testing.T) {
	val, _ := mustRun(t, ast.Program(ast.El("try",
		ast.El("do", ast.El("throw").With("message", "boom")),
		ast.El("catch", ast.Special("error")),
	)))
	if val != runtime.Str("boom") {
		t.Fatalf("expected \"boom\", got %#v", val)
	}
	val, _ = mustRun(t, ast.Program(ast.El("try",
		ast.El("catch", ast.Special("error")),
		ast.El("do", ast.El("div", ast.IntLit("1"), ast.IntLit("0"))),
	)))
	if val != runtime.Str("Division by zero is not allowed") {
		t.Fatalf("unexpected caught message %#v", val)
	}
	val, _ = mustRun(t, ast.Program(ast.El("try",
		ast.El("do", ast.Str("fine")),
		ast.El("catch", ast.Str("caught")),
	)))
	if val != runtime.Str("fine") {
		t.Fatalf("expected do value, got %#v", val)
	}
	val, _ = mustRun(t, ast.Program(ast.El("try",
		ast.El("do", ast.El("throw", ast.Text("code "), ast.IntLit("7"))),
		ast.El("catch", ast.Special("error")),
	)))
	if val != runtime.Str("code 7") {
		t.Fatalf("unexpected thrown message %#v", val)
	}
}

func TestTryDoesNotCatchSignals(t *testing.T) {
	val, out := mustRun(t, ast.Program(ast.El("block",
		ast.El("try",
			ast.El("do", ast.El("break", ast.IntLit("1"))),
			ast.El("catch", printNode(ast.Text("caught"))),
		),
		ast.Str("unreachable"),
	)))
	if val != runtime.Int(1) || out != "" {
		t.Fatalf("expected break to pass through try, got %#v %q", val, out)
	}
	_, _, err := run(t, ast.Program(ast.El("try",
		ast.El("do", ast.El("exit").With("code", "2")),
		ast.El("catch", ast.Str("caught")),
	)))
	if code, ok := ExitCodeFromError(err); !ok || code != 2 {
		t.Fatalf("expected exit 2 to pass through try, got %v", err)
	}
}

func TestExitStopsProgram(t *testing.T) {
	_, out, err := run(t, ast.Program(
		printNode(ast.Text("a")),
		ast.El("exit").With("code", "3"),
		printNode(ast.Text("b")),
	))
	code, ok := ExitCodeFromError(err)
	if !ok || code != 3 || out != "a\n" {
		t.Fatalf("expected exit 3 after first print, got %v %q", err, out)
	}
	_, _, err = run(t, ast.Program(ast.El("exit")))
	if code, ok := ExitCodeFromError(err); !ok || code != 0 {
		t.Fatalf("expected exit 0, got %v", err)
	}
}

func TestFunctionsAndCalls(t *testing.T) {
	val, _ := mustRun(t, ast.Program(
		ast.El("function",
			ast.El("add", ast.Special("child:0"), ast.Special("child:1"), ast.Special("child_count")),
		).With("name", "f"),
		ast.El("call", ast.IntLit("2"), ast.IntLit("3")).With("name", "f"),
	))
	if val != runtime.Int(7) {
		t.Fatalf("expected 2+3+2, got %#v", val)
	}
	val, _ = mustRun(t, ast.Program(
		ast.El("function", ast.El("str", ast.Text("hi "), ast.Special("who"))).With("name", "greet"),
		ast.El("call").With("name", "greet").With("who", "bob"),
	))
	if val != runtime.Str("hi bob") {
		t.Fatalf("expected attribute special, got %#v", val)
	}
}

func TestCallIsolatesVariables(t *testing.T) {
	val, _ := mustRun(t, ast.Program(
		ast.Set("x", ast.IntLit("1")),
		ast.El("function",
			ast.Set("x", ast.El("add", ast.Get("x"), ast.IntLit("100"))),
			ast.Set("y", ast.IntLit("5")),
			ast.Get("x"),
		).With("name", "bump"),
		ast.Set("inner", ast.El("call").With("name", "bump")),
		ast.El("str", ast.Get("x"), ast.Text(","), ast.Get("inner"), ast.Text(","), ast.El("type", ast.Get("y"))),
	))
	if val != runtime.Str("1,101,null") {
		t.Fatalf("expected caller state to be untouched, got %#v", val)
	}
}

func TestCallReturnAndSpecialsScope(t *testing.T) {
	val, out := mustRun(t, ast.Program(
		ast.El("function", ast.El("return", ast.Str("early")), printNode(ast.Text("late"))).With("name", "f"),
		ast.El("call").With("name", "f"),
	))
	if val != runtime.Str("early") || out != "" {
		t.Fatalf("expected early return, got %#v %q", val, out)
	}
	_, _, err := run(t, ast.Program(
		ast.El("function", ast.Special("iteration")).With("name", "peek"),
		ast.El("loop", ast.El("call").With("name", "peek")).With("end", "1"),
	))
	expectRuntimeError(t, err, "Special not found: iteration")
}

func TestCallErrors(t *testing.T) {
	_, _, err := run(t, ast.Program(ast.El("call").With("name", "later"), ast.El("function").With("name", "later")))
	expectRuntimeError(t, err, "Unknown function: later")
	_, _, err = run(t, ast.Program(ast.El("function").With("name", "")))
	expectRuntimeError(t, err, "<function> requires a non-empty name attribute")
	val, _ := mustRun(t, ast.Program(
		ast.El("function", ast.Str("one")).With("name", "f"),
		ast.El("function", ast.Str("two")).With("name", "f"),
		ast.El("call").With("name", "f"),
	))
	if val != runtime.Str("two") {
		t.Fatalf("expected redeclared body, got %#v", val)
	}
}

func TestUnwrap(t *testing.T) {
	val, _ := mustRun(t, ast.Program(ast.El("unwrap", ast.IntLit("3"))))
	if val != runtime.Int(3) {
		t.Fatalf("expected passthrough, got %#v", val)
	}
	_, _, err := run(t, ast.Program(ast.El("expect", ast.El("null")).With("message", "needed a value")))
	expectRuntimeError(t, err, "needed a value")
	_, _, err = run(t, ast.Program(ast.El("unwrap", ast.Get("nothing"))))
	expectRuntimeError(t, err, "Unwrapped a null value")
}

func TestDelayUsesSleeper(t *testing.T) {
	var slept []time.Duration
	sleeper := WithSleep(func(d time.Duration) { slept = append(slept, d) })
	mustRun(t, ast.Program(
		ast.El("delay").With("duration", "250"),
		ast.El("sleep", ast.IntLit("-5")),
	), sleeper)
	if len(slept) != 2 || slept[0] != 250*time.Millisecond || slept[1] != 0 {
		t.Fatalf("unexpected sleeps %v", slept)
	}
	_, _, err := run(t, ast.Program(ast.El("delay")), sleeper)
	expectRuntimeError(t, err, "Expected exactly one child in <delay> element")
}

func TestOutputIsFlushedBeforeDelay(t *testing.T) {
	var out flushRecorder
	var seen []string
	interp := New(WithStdout(&out), WithSleep(func(time.Duration) {
		seen = append(seen, fmt.Sprintf("%d:%s", out.flushes, out.String()))
	}))
	_, err := interp.Evaluate(ast.Program(
		printNode(ast.Text("tick")),
		ast.El("delay").With("duration", "3000"),
		printNode(ast.Text("tock")),
	))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(seen) != 1 || seen[0] != "2:tick\n" {
		t.Fatalf("expected tick flushed before sleeping, got %q", seen)
	}
	if out.flushes != 3 || out.String() != "tick\ntock\n" {
		t.Fatalf("expected a flush per print, got %d %q", out.flushes, out.String())
	}
}

func TestErrorsCarryLocation(t *testing.T) {
	bad := ast.El("mul", ast.Str("a"), ast.Str("b"))
	ast.SetSpan(bad, ast.Span{Start: ast.Position{Line: 4, Column: 9}})
	root := ast.Program(ast.El("block", bad))
	ast.AnnotateOrigins(root, "prog.xml")
	_, _, err := run(t, root)
	rtErr := expectRuntimeError(t, err, "Can't multiply incompatible types: string and string")
	if rtErr.Span.Start.Line != 4 || rtErr.Origin != "prog.xml" || rtErr.Tag != "mul" {
		t.Fatalf("unexpected location %+v", rtErr)
	}
}

func TestEvaluationIsDeterministic(t *testing.T) {
	root := ast.Program(
		ast.Set("acc", ast.Str("")),
		ast.El("loop",
			ast.Set("acc", ast.El("add", ast.Get("acc"), ast.Special("iteration"))),
		).With("end", "4"),
		ast.Get("acc"),
	)
	first, _ := mustRun(t, root)
	second, _ := mustRun(t, root)
	if first != runtime.Str("0123") || first != second {
		t.Fatalf("expected identical results, got %#v and %#v", first, second)
	}
}

func TestValidate(t *testing.T) {
	root := ast.Program(
		ast.El("widget"),
		ast.El("then"),
		ifNode(cond(ast.El("true")), then(ast.El("program"))),
		ast.El("try", ast.El("do"), ast.El("catch")),
	)
	issues := Validate(root)
	var messages []string
	for _, issue := range issues {
		messages = append(messages, issue.Message)
	}
	want := []string{"Unknown element: widget", "<then> is only valid inside <if>", "Unknown element: program"}
	if strings.Join(messages, "|") != strings.Join(want, "|") {
		t.Fatalf("unexpected issues %v", messages)
	}
	if issues := Validate(ast.El("block")); len(issues) != 1 {
		t.Fatalf("expected root issue, got %v", issues)
	}
}
