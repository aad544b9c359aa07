package interpreter

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"xmlang/interpreter-go/pkg/ast"
	"xmlang/interpreter-go/pkg/runtime"
)

type ifBranch struct {
	condition *ast.Node
	then      *ast.Node
}

func (i *Interpreter) evalIf(node *ast.Node, depth int, sc scope) (runtime.Value, error) {
	var elseNode *ast.Node
	var elifs []ifBranch
	primary, err := splitBranch(node, func(child *ast.Node) error {
		switch child.Op {
		case ast.OpElse:
			if elseNode != nil {
				return fail(child, "<if> allows at most one <else>")
			}
			elseNode = child
		case ast.OpElif:
			branch, err := splitBranch(child, nil)
			if err != nil {
				return err
			}
			elifs = append(elifs, branch)
		default:
			return unexpectedChild(node, child)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	cond, err := i.eval(primary.condition.Children[0], depth+1, sc)
	if err != nil {
		return nil, err
	}
	outer := sc.push(runtime.Frame{"condition": cond})
	if runtime.Truthy(cond) {
		return i.evalBody(primary.then.Children, depth, outer)
	}
	for _, branch := range elifs {
		cond, err := i.eval(branch.condition.Children[0], depth+1, outer)
		if err != nil {
			return nil, err
		}
		if runtime.Truthy(cond) {
			return i.evalBody(branch.then.Children, depth, outer.push(runtime.Frame{"condition": cond}))
		}
	}
	if elseNode != nil {
		return i.evalBody(elseNode.Children, depth, outer)
	}
	return runtime.Null, nil
}

// splitBranch finds the single <condition> and <then> children of node.
// Other children go to extra, or are rejected when extra is nil.
func splitBranch(node *ast.Node, extra func(*ast.Node) error) (ifBranch, error) {
	var branch ifBranch
	for _, child := range node.Children {
		switch child.Op {
		case ast.OpCondition:
			if branch.condition != nil {
				return branch, fail(child, "<%s> requires exactly one <condition>", node.Name())
			}
			if err := expectChildren(child, 1); err != nil {
				return branch, err
			}
			branch.condition = child
		case ast.OpThen:
			if branch.then != nil {
				return branch, fail(child, "<%s> requires exactly one <then>", node.Name())
			}
			branch.then = child
		default:
			if extra == nil {
				return branch, unexpectedChild(node, child)
			}
			if err := extra(child); err != nil {
				return branch, err
			}
		}
	}
	if branch.condition == nil {
		return branch, fail(node, "<%s> requires a <condition>", node.Name())
	}
	if branch.then == nil {
		return branch, fail(node, "<%s> requires a <then>", node.Name())
	}
	return branch, nil
}

func unexpectedChild(parent, child *ast.Node) error {
	if child.IsText() {
		return fail(child, "Unexpected text in <%s>", parent.Name())
	}
	return fail(child, "Unexpected <%s> in <%s>", child.Name(), parent.Name())
}

// evalLoop runs passes over its children until a break, an error, or the
// iteration counter reaching end.
func (i *Interpreter) evalLoop(node *ast.Node, depth int, sc scope) (runtime.Value, error) {
	start, _, err := intAttr(node, "start")
	if err != nil {
		return nil, err
	}
	end, bounded, err := intAttr(node, "end")
	if err != nil {
		return nil, err
	}
	frame := runtime.Frame{"iteration": runtime.Int(start)}
	inner := sc.push(frame)
passes:
	for iteration := start; ; iteration++ {
		if bounded && iteration >= end {
			return runtime.Null, nil
		}
		frame["iteration"] = runtime.Int(iteration)
		for _, child := range node.Children {
			_, err := i.eval(child, depth+1, inner)
			if err == nil {
				continue
			}
			switch sig := err.(type) {
			case breakSignal:
				return sig.value, nil
			case continueSignal:
				continue passes
			default:
				return nil, err
			}
		}
	}
}

func intAttr(node *ast.Node, name string) (int64, bool, error) {
	raw, ok := node.Attr(name)
	if !ok {
		return 0, false, nil
	}
	n, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0, false, wrapFailure(node, fmt.Sprintf("Invalid %s attribute %q on <%s>", name, raw, node.Name()), err)
	}
	return n, true, nil
}

func (i *Interpreter) evalTry(node *ast.Node, depth int, sc scope) (runtime.Value, error) {
	var doNode, catchNode *ast.Node
	for _, child := range node.Children {
		switch child.Op {
		case ast.OpDo:
			if doNode != nil {
				return nil, fail(child, "<try> requires exactly one <do>")
			}
			doNode = child
		case ast.OpCatch:
			if catchNode != nil {
				return nil, fail(child, "<try> requires exactly one <catch>")
			}
			catchNode = child
		default:
			return nil, unexpectedChild(node, child)
		}
	}
	if doNode == nil || catchNode == nil {
		return nil, fail(node, "<try> requires one <do> and one <catch>")
	}
	val, err := i.evalSequence(doNode.Children, depth, sc)
	if err == nil {
		return val, nil
	}
	if isSignal(err) {
		return nil, err
	}
	return i.evalSequence(catchNode.Children, depth, sc.push(runtime.Frame{"error": runtime.Str(err.Error())}))
}

func (i *Interpreter) evalThrow(node *ast.Node, depth int, sc scope) (runtime.Value, error) {
	message, ok := node.Attr("message")
	if !ok {
		text, err := i.evalStr(node, depth, sc)
		if err != nil {
			return nil, err
		}
		message = text.String()
	}
	if message == "" {
		message = "Exception thrown"
	}
	return nil, &RuntimeError{Message: message, Tag: node.Name(), Span: node.Span, Origin: node.Origin, Thrown: true}
}

func (i *Interpreter) evalUnwrap(node *ast.Node, depth int, sc scope) (runtime.Value, error) {
	val, err := i.evalOnly(node, depth, sc)
	if err != nil {
		return nil, err
	}
	if !runtime.IsNull(val) {
		return val, nil
	}
	if message, ok := node.Attr("message"); ok {
		return nil, fail(node, "%s", message)
	}
	return nil, fail(node, "Unwrapped a null value")
}

func (i *Interpreter) evalDelay(node *ast.Node, depth int, sc scope) (runtime.Value, error) {
	ms, ok, err := intAttr(node, "duration")
	if err != nil {
		return nil, err
	}
	if !ok {
		val, err := i.evalOnly(node, depth, sc)
		if err != nil {
			return nil, err
		}
		ms, err = runtime.AsInt(val)
		if err != nil {
			return nil, wrapFailure(node, "Invalid duration", err)
		}
	}
	if err := i.flush(); err != nil {
		return nil, wrapFailure(node, fmt.Sprintf("delay failed: %v", err), err)
	}
	ms = max(ms, 0)
	ms = min(ms, math.MaxInt64/int64(time.Millisecond))
	i.sleep(time.Duration(ms) * time.Millisecond)
	return runtime.Null, nil
}
