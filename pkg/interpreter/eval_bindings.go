package interpreter

import (
	"strconv"

	"xmlang/interpreter-go/pkg/ast"
	"xmlang/interpreter-go/pkg/runtime"
)

func (i *Interpreter) evalGet(node *ast.Node, depth int, sc scope) (runtime.Value, error) {
	if name, ok := node.Attr("var"); ok {
		if err := expectAtMost(node, 1); err != nil {
			return nil, err
		}
		if val, ok := sc.env.Get(name); ok {
			return val, nil
		}
		if len(node.Children) == 0 {
			return runtime.Null, nil
		}
		return i.eval(node.Children[0], depth+1, sc)
	}
	nameVal, err := i.evalOnly(node, depth, sc)
	if err != nil {
		return nil, err
	}
	if val, ok := sc.env.Get(runtime.ToString(nameVal)); ok {
		return val, nil
	}
	return runtime.Null, nil
}

func (i *Interpreter) evalSet(node *ast.Node, depth int, sc scope) (runtime.Value, error) {
	name, ok := node.Attr("var")
	if !ok {
		return nil, fail(node, "<set> requires a var attribute")
	}
	val, err := i.evalOnly(node, depth, sc)
	if err != nil {
		return nil, err
	}
	sc.env.Set(name, val)
	return val, nil
}

func (i *Interpreter) evalSpecial(node *ast.Node, depth int, sc scope) (runtime.Value, error) {
	name, ok := node.Attr("name")
	if !ok {
		nameVal, err := i.evalOnly(node, depth, sc)
		if err != nil {
			return nil, err
		}
		name = runtime.ToString(nameVal)
	}
	val, ok := sc.specials.Lookup(name)
	if !ok {
		return nil, fail(node, "Special not found: %s", name)
	}
	return val, nil
}

func (i *Interpreter) evalFunction(node *ast.Node) (runtime.Value, error) {
	name, _ := node.Attr("name")
	if name == "" {
		return nil, fail(node, "<function> requires a non-empty name attribute")
	}
	i.functions.Declare(name, node.Children)
	return runtime.Null, nil
}

// evalCall runs a declared body on a copy of the caller's variables. The
// callee sees only one specials frame: the call-site attributes, child:N for
// each argument, and child_count.
func (i *Interpreter) evalCall(node *ast.Node, depth int, sc scope) (runtime.Value, error) {
	name, ok := node.Attr("name")
	if !ok {
		return nil, fail(node, "<call> requires a name attribute")
	}
	body, ok := i.functions.Lookup(name)
	if !ok {
		return nil, fail(node, "Unknown function: %s", name)
	}
	args, err := i.evalChildren(node, depth, sc)
	if err != nil {
		return nil, err
	}
	frame := make(runtime.Frame, len(node.Attributes)+len(args)+1)
	for _, attr := range node.Attributes {
		frame[attr.Name] = runtime.Str(attr.Value)
	}
	for idx, arg := range args {
		frame["child:"+strconv.Itoa(idx)] = arg
	}
	frame["child_count"] = runtime.Int(int64(len(args)))
	callee := scope{env: sc.env.Clone(), specials: runtime.NewSpecials(frame)}
	return i.evalBody(body, depth, callee)
}
