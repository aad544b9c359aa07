package interpreter

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"xmlang/interpreter-go/pkg/ast"
	"xmlang/interpreter-go/pkg/runtime"
)

func (i *Interpreter) evalStr(node *ast.Node, depth int, sc scope) (runtime.Value, error) {
	var b strings.Builder
	if text, ok := node.Attr(ast.TextAttribute); ok {
		b.WriteString(text)
	}
	for _, child := range node.Children {
		val, err := i.eval(child, depth+1, sc)
		if err != nil {
			return nil, err
		}
		if runtime.IsNull(val) {
			continue
		}
		b.WriteString(val.String())
	}
	return runtime.Str(b.String()), nil
}

func evalSpace(node *ast.Node) (runtime.Value, error) {
	count := uint64(1)
	if raw, ok := node.Attr("count"); ok {
		if n, err := strconv.ParseUint(raw, 10, 64); err == nil {
			count = n
		}
	}
	if count > runtime.MaxRepeatLength {
		return nil, fail(node, "space count %d exceeds the %d byte limit", count, runtime.MaxRepeatLength)
	}
	return runtime.Str(strings.Repeat(" ", int(count))), nil
}

func (i *Interpreter) evalCoercion(node *ast.Node, depth int, sc scope) (runtime.Value, error) {
	val, err := i.evalOnly(node, depth, sc)
	if err != nil {
		return nil, err
	}
	switch node.Op {
	case ast.OpInt:
		n, err := runtime.AsInt(val)
		if err != nil {
			return nil, wrapFailure(node, "Failed to convert value to an integer", err)
		}
		return runtime.Int(n), nil
	case ast.OpFloat:
		f, err := runtime.AsFloat(val)
		if err != nil {
			return nil, wrapFailure(node, "Failed to convert value to a float", err)
		}
		return runtime.Float(f), nil
	}
	return runtime.Bool(runtime.Truthy(val)), nil
}

func (i *Interpreter) evalType(node *ast.Node, depth int, sc scope) (runtime.Value, error) {
	if len(node.Children) == 0 {
		return runtime.Str(runtime.KindNull.String()), nil
	}
	values, err := i.evalChildren(node, depth, sc)
	if err != nil {
		return nil, err
	}
	separator := " "
	if sep, ok := node.Attr("separator"); ok {
		separator = sep
	}
	names := make([]string, len(values))
	for idx, val := range values {
		names[idx] = runtime.TypeName(val)
	}
	return runtime.Str(strings.Join(names, separator)), nil
}

type flusher interface {
	Flush() error
}

func (i *Interpreter) evalPrint(node *ast.Node, depth int, sc scope) (runtime.Value, error) {
	newline := true
	if raw, ok := node.Attr("newline"); ok {
		newline = runtime.Truthy(runtime.Str(raw))
	}
	text, err := i.joinChildren(node, depth, sc, "separator")
	if err != nil {
		return nil, err
	}
	if newline {
		text += "\n"
	}
	if _, err := io.WriteString(i.stdout, text); err != nil {
		return nil, wrapFailure(node, fmt.Sprintf("print failed: %v", err), err)
	}
	if err := i.flush(); err != nil {
		return nil, wrapFailure(node, fmt.Sprintf("print failed: %v", err), err)
	}
	return runtime.Null, nil
}

func (i *Interpreter) evalReadline(node *ast.Node, depth int, sc scope) (runtime.Value, error) {
	prompt, err := i.joinChildren(node, depth, sc, "")
	if err != nil {
		return nil, err
	}
	if prompt != "" {
		if _, err := io.WriteString(i.stdout, prompt); err != nil {
			return nil, wrapFailure(node, fmt.Sprintf("readline failed: %v", err), err)
		}
	}
	if err := i.flush(); err != nil {
		return nil, wrapFailure(node, fmt.Sprintf("readline failed: %v", err), err)
	}
	line, err := i.stdin.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, wrapFailure(node, fmt.Sprintf("readline failed: %v", err), err)
	}
	return runtime.Str(strings.TrimRight(line, "\r\n")), nil
}

// joinChildren concatenates the string forms of the children, separated by
// the named attribute when present.
func (i *Interpreter) joinChildren(node *ast.Node, depth int, sc scope, separatorAttr string) (string, error) {
	values, err := i.evalChildren(node, depth, sc)
	if err != nil {
		return "", err
	}
	separator := ""
	if separatorAttr != "" {
		separator, _ = node.Attr(separatorAttr)
	}
	parts := make([]string, len(values))
	for idx, val := range values {
		parts[idx] = runtime.ToString(val)
	}
	return strings.Join(parts, separator), nil
}

func (i *Interpreter) flush() error {
	if f, ok := i.stdout.(flusher); ok {
		return f.Flush()
	}
	return nil
}
