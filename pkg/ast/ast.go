package ast

import "strings"

// TextAttribute carries the literal content of a text node.
const TextAttribute = "_text"

type Position struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

type Span struct {
	Start Position `json:"start"`
	End   Position `json:"end"`
}

// IsZero reports whether the span carries no location.
func (s Span) IsZero() bool { return s == Span{} }

type Attribute struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Node is one element or text run of a parsed program. Tag is kept as written;
// Op is the case-insensitive dispatch key resolved when the node is built.
// Text nodes have an empty tag and carry their content in TextAttribute.
type Node struct {
	Tag        string      `json:"tag"`
	Namespace  string      `json:"namespace,omitempty"`
	Attributes []Attribute `json:"attributes,omitempty"`
	Children   []*Node     `json:"children,omitempty"`
	Span       Span        `json:"span"`
	Origin     string      `json:"origin,omitempty"`
	Op         Opcode      `json:"-"`
}

// NewElement builds a node and resolves its opcode.
func NewElement(tag, namespace string, attrs []Attribute, children []*Node) *Node {
	return &Node{
		Tag:        tag,
		Namespace:  namespace,
		Attributes: attrs,
		Children:   children,
		Op:         LookupOpcode(tag),
	}
}

// NewText builds a text node.
func NewText(text string) *Node {
	return NewElement("", "", []Attribute{{Name: TextAttribute, Value: text}}, nil)
}

// Attr returns the value of the named attribute.
func (n *Node) Attr(name string) (string, bool) {
	for _, attr := range n.Attributes {
		if attr.Name == name {
			return attr.Value, true
		}
	}
	return "", false
}

// IsText reports whether n is a text node.
func (n *Node) IsText() bool { return n.Tag == "" }

// Name returns the tag lower-cased, as used in diagnostics.
func (n *Node) Name() string { return strings.ToLower(n.Tag) }

// Clone returns a deep copy of n.
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}
	out := *n
	if n.Attributes != nil {
		out.Attributes = append([]Attribute(nil), n.Attributes...)
	}
	if n.Children != nil {
		out.Children = make([]*Node, len(n.Children))
		for i, child := range n.Children {
			out.Children[i] = child.Clone()
		}
	}
	return &out
}

// SetSpan records the source location of n.
func SetSpan(n *Node, span Span) {
	if n != nil {
		n.Span = span
	}
}
