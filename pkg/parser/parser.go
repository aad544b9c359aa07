package parser

import (
	"bytes"
	"fmt"

	sitter "github.com/tree-sitter/go-tree-sitter"

	"xmlang/interpreter-go/pkg/ast"
	"xmlang/interpreter-go/pkg/parser/language"
)

// Parser wraps a tree-sitter parser configured for xmlang markup.
type Parser struct {
	parser *sitter.Parser
}

// NewParser constructs a parser with the markup grammar loaded.
func NewParser() (*Parser, error) {
	lang := language.Markup()
	if lang == nil {
		return nil, fmt.Errorf("parser: markup language not available")
	}

	p := sitter.NewParser()
	if err := p.SetLanguage(lang); err != nil {
		return nil, fmt.Errorf("parser: %w", err)
	}

	return &Parser{parser: p}, nil
}

// Close releases parser resources.
func (p *Parser) Close() {
	if p == nil || p.parser == nil {
		return
	}
	p.parser.Close()
}

// Parse turns markup source into the root node of a program tree.
func (p *Parser) Parse(source []byte) (*ast.Node, error) {
	source = blankDeclaration(source)
	return p.parse(source, contentEnd(source))
}

// ParseFragment parses a run of elements as the body of an implicit
// <program>. Errors caused by elements left open at the end of source are
// marked Incomplete.
func (p *Parser) ParseFragment(source []byte) (*ast.Node, error) {
	wrapped := make([]byte, 0, len(fragmentOpen)+len(source)+len(fragmentClose))
	wrapped = append(wrapped, fragmentOpen...)
	wrapped = append(wrapped, source...)
	wrapped = append(wrapped, fragmentClose...)
	return p.parse(wrapped, len(fragmentOpen)+contentEnd(source))
}

const (
	fragmentOpen  = "<program>"
	fragmentClose = "</program>"
)

func contentEnd(source []byte) int {
	return len(bytes.TrimRight(source, " \t\r\n"))
}

func (p *Parser) parse(source []byte, end int) (*ast.Node, error) {
	if p == nil || p.parser == nil {
		return nil, fmt.Errorf("parser: nil parser")
	}

	tree := p.parser.Parse(maskCharData(source), nil)
	defer tree.Close()

	root := tree.RootNode()
	if root == nil || root.Kind() != "document" {
		return nil, fmt.Errorf("parser: unexpected root node")
	}
	if root.HasError() {
		return nil, syntaxError(root, end)
	}

	ctx := newParseContext(source, end)
	var program *ast.Node
	for i := uint(0); i < root.NamedChildCount(); i++ {
		node := root.NamedChild(i)
		if isIgnorableNode(node) {
			continue
		}
		if !isElementNode(node) {
			return nil, ctx.unexpected(node, "outside the root element")
		}
		if program != nil {
			return nil, errorAt(node, "multiple root elements")
		}
		el, err := ctx.parseElement(node, rootScope)
		if err != nil {
			return nil, err
		}
		program = el
	}
	if program == nil {
		return nil, &ParseError{Message: "parser: document has no root element"}
	}
	return program, nil
}

// Parse is a convenience wrapper that builds a one-shot parser.
func Parse(source []byte) (*ast.Node, error) {
	p, err := NewParser()
	if err != nil {
		return nil, err
	}
	defer p.Close()
	return p.Parse(source)
}

func (ctx *parseContext) parseElement(node *sitter.Node, scope *namespaceScope) (*ast.Node, error) {
	var open, end *sitter.Node
	closed := false
	var content []*sitter.Node
	for i := uint(0); i < node.NamedChildCount(); i++ {
		child := node.NamedChild(i)
		switch child.Kind() {
		case "start_tag":
			open = child
		case "self_closing_tag":
			open = child
			closed = true
		case "end_tag":
			end = child
			closed = true
		default:
			content = append(content, child)
		}
	}
	if open == nil {
		return nil, errorAt(node, "element without a start tag")
	}

	rawName, attrs, err := ctx.parseTag(open)
	if err != nil {
		return nil, err
	}
	if !closed {
		parseErr := errorAt(open, "element <%s> is not closed", rawName)
		parseErr.Incomplete = int(node.EndByte()) >= ctx.contentEnd
		return nil, parseErr
	}

	if end != nil {
		if name := firstNamedChild(end); name != nil && sliceContent(name, ctx.source) != rawName {
			return nil, errorAt(end, "end tag </%s> does not match <%s>", sliceContent(name, ctx.source), rawName)
		}
	}

	scope = scope.extend(attrs)
	prefix, local := splitQualifiedName(rawName)
	namespace, ok := scope.resolve(prefix)
	if !ok {
		return nil, errorAt(open, "unknown namespace prefix %q on <%s>", prefix, rawName)
	}

	children, err := ctx.parseContent(node, content, scope)
	if err != nil {
		return nil, err
	}
	el := ast.NewElement(local, namespace, attrs, children)
	annotateSpan(el, node)
	return el, nil
}

// parseContent converts element content, folding each run of text and
// entities between child elements into one trimmed text node.
func (ctx *parseContext) parseContent(parent *sitter.Node, content []*sitter.Node, scope *namespaceScope) ([]*ast.Node, error) {
	var children []*ast.Node
	var run []*sitter.Node
	flush := func() {
		if len(run) == 0 {
			return
		}
		if text := ctx.textRun(run); text != "" {
			node := ast.NewText(text)
			annotateSpanRange(node, run[0], run[len(run)-1])
			children = append(children, node)
		}
		run = run[:0]
	}
	for _, child := range content {
		switch {
		case isIgnorableNode(child):
			continue
		case isTextNode(child):
			run = append(run, child)
		case isElementNode(child):
			flush()
			el, err := ctx.parseElement(child, scope)
			if err != nil {
				return nil, err
			}
			children = append(children, el)
		default:
			return nil, ctx.unexpected(child, "inside <"+ctx.tagName(parent)+">")
		}
	}
	flush()
	return children, nil
}

func (ctx *parseContext) parseTag(tag *sitter.Node) (string, []ast.Attribute, error) {
	var name string
	var attrs []ast.Attribute
	seen := make(map[string]struct{})
	for i := uint(0); i < tag.NamedChildCount(); i++ {
		child := tag.NamedChild(i)
		switch child.Kind() {
		case "tag_name":
			name = sliceContent(child, ctx.source)
		case "attribute":
			attr := ctx.parseAttribute(child)
			if _, dup := seen[attr.Name]; dup {
				return "", nil, errorAt(child, "duplicate attribute %q", attr.Name)
			}
			seen[attr.Name] = struct{}{}
			attrs = append(attrs, attr)
		}
	}
	if name == "" {
		return "", nil, errorAt(tag, "tag without a name")
	}
	return name, attrs, nil
}

func (ctx *parseContext) parseAttribute(node *sitter.Node) ast.Attribute {
	var attr ast.Attribute
	for i := uint(0); i < node.NamedChildCount(); i++ {
		child := node.NamedChild(i)
		switch child.Kind() {
		case "attribute_name":
			attr.Name = sliceContent(child, ctx.source)
		case "attribute_value":
			attr.Value = decodeEntities(sliceContent(child, ctx.source))
		case "quoted_attribute_value":
			if value := firstNamedChild(child); value != nil {
				attr.Value = decodeEntities(sliceContent(value, ctx.source))
			}
		}
	}
	return attr
}

func (ctx *parseContext) tagName(element *sitter.Node) string {
	for i := uint(0); i < element.NamedChildCount(); i++ {
		child := element.NamedChild(i)
		if child.Kind() == "start_tag" || child.Kind() == "self_closing_tag" {
			if name := firstNamedChild(child); name != nil && name.Kind() == "tag_name" {
				return sliceContent(name, ctx.source)
			}
		}
	}
	return element.Kind()
}

func (ctx *parseContext) unexpected(node *sitter.Node, where string) *ParseError {
	switch node.Kind() {
	case "text", "entity", "raw_text":
		return errorAt(node, "unexpected text %s", where)
	case "erroneous_end_tag":
		return errorAt(node, "unexpected closing tag %s %s", sliceContent(node, ctx.source), where)
	}
	return errorAt(node, "unexpected %s %s", formatExpectedKind(node.Kind()), where)
}
