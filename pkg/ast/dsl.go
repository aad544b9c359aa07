package ast

// Builders used by tests and embedders to assemble trees without markup.

// El builds an element with the given children.
func El(tag string, children ...*Node) *Node {
	return NewElement(tag, "", nil, children)
}

// Text builds a text node.
func Text(text string) *Node {
	return NewText(text)
}

// Program wraps children in a program element.
func Program(children ...*Node) *Node {
	return El("program", children...)
}

// With sets an attribute, replacing an existing one of the same name, and
// returns n for chaining.
func (n *Node) With(name, value string) *Node {
	for i := range n.Attributes {
		if n.Attributes[i].Name == name {
			n.Attributes[i].Value = value
			return n
		}
	}
	n.Attributes = append(n.Attributes, Attribute{Name: name, Value: value})
	return n
}

// Str builds <str>text</str>.
func Str(text string) *Node {
	return El("str", Text(text))
}

// IntLit builds <int>text</int>.
func IntLit(text string) *Node {
	return El("int", Text(text))
}

// FloatLit builds <float>text</float>.
func FloatLit(text string) *Node {
	return El("float", Text(text))
}

// Get builds <get var="name"/>.
func Get(name string) *Node {
	return El("get").With("var", name)
}

// Set builds <set var="name">value</set>.
func Set(name string, value *Node) *Node {
	return El("set", value).With("var", name)
}

// Special builds <special name="name"/>.
func Special(name string) *Node {
	return El("special").With("name", name)
}
