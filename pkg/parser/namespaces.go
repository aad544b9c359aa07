package parser

import (
	"strings"

	"xmlang/interpreter-go/pkg/ast"
)

const xmlNamespace = "http://www.w3.org/XML/1998/namespace"

// namespaceScope is one level of xmlns declarations. The empty prefix holds
// the default namespace.
type namespaceScope struct {
	bindings map[string]string
	parent   *namespaceScope
}

var rootScope = &namespaceScope{bindings: map[string]string{"xml": xmlNamespace}}

// extend returns a child scope holding the xmlns declarations among attrs, or
// s itself when there are none.
func (s *namespaceScope) extend(attrs []ast.Attribute) *namespaceScope {
	var bindings map[string]string
	for _, attr := range attrs {
		var prefix string
		switch {
		case attr.Name == "xmlns":
			prefix = ""
		case strings.HasPrefix(attr.Name, "xmlns:"):
			prefix = strings.TrimPrefix(attr.Name, "xmlns:")
		default:
			continue
		}
		if bindings == nil {
			bindings = make(map[string]string)
		}
		bindings[prefix] = attr.Value
	}
	if bindings == nil {
		return s
	}
	return &namespaceScope{bindings: bindings, parent: s}
}

// resolve maps a prefix to its namespace. An unbound empty prefix resolves to
// no namespace.
func (s *namespaceScope) resolve(prefix string) (string, bool) {
	for cur := s; cur != nil; cur = cur.parent {
		if ns, ok := cur.bindings[prefix]; ok {
			return ns, true
		}
	}
	return "", prefix == ""
}

func splitQualifiedName(name string) (prefix, local string) {
	if idx := strings.IndexByte(name, ':'); idx >= 0 {
		return name[:idx], name[idx+1:]
	}
	return "", name
}
