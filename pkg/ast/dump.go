package ast

import (
	"fmt"
	"io"
	"strings"
)

// Dump writes one line per node, indented two spaces per level, in the form
// `[namespace -> ]tag[ name="value" ...]`.
func Dump(w io.Writer, root *Node) error {
	return dump(w, root, 0)
}

func dump(w io.Writer, n *Node, indent int) error {
	var b strings.Builder
	b.WriteString(strings.Repeat(" ", indent))
	if n.Namespace != "" {
		b.WriteString(n.Namespace)
		b.WriteString(" -> ")
	}
	b.WriteString(n.Tag)
	for i, attr := range n.Attributes {
		if i > 0 || n.Tag != "" {
			b.WriteByte(' ')
		}
		fmt.Fprintf(&b, "%s=%q", attr.Name, attr.Value)
	}
	b.WriteByte('\n')
	if _, err := io.WriteString(w, b.String()); err != nil {
		return err
	}
	for _, child := range n.Children {
		if err := dump(w, child, indent+2); err != nil {
			return err
		}
	}
	return nil
}
