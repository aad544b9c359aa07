package parser

import (
	"bytes"
	"html"
	"strings"
	"unicode"

	sitter "github.com/tree-sitter/go-tree-sitter"

	"xmlang/interpreter-go/pkg/ast"
)

// parseContext carries the source bytes so helpers share one view of the file.
// contentEnd is the offset past which only trailing whitespace or a closing
// wrapper remains.
type parseContext struct {
	source     []byte
	contentEnd int
}

func newParseContext(source []byte, contentEnd int) *parseContext {
	return &parseContext{source: source, contentEnd: contentEnd}
}

func sliceContent(node *sitter.Node, source []byte) string {
	if node == nil {
		return ""
	}
	start := int(node.StartByte())
	end := int(node.EndByte())
	if start < 0 || end < start || end > len(source) {
		return ""
	}
	return string(source[start:end])
}

func firstNamedChild(node *sitter.Node) *sitter.Node {
	if node == nil {
		return nil
	}
	for i := uint(0); i < node.NamedChildCount(); i++ {
		child := node.NamedChild(i)
		if child != nil && !isIgnorableNode(child) {
			return child
		}
	}
	return nil
}

func isIgnorableNode(node *sitter.Node) bool {
	if node == nil {
		return true
	}
	switch node.Kind() {
	case "comment", "doctype":
		return true
	}
	return false
}

func isElementNode(node *sitter.Node) bool {
	switch node.Kind() {
	case "element", "script_element", "style_element":
		return true
	}
	return false
}

func isTextNode(node *sitter.Node) bool {
	switch node.Kind() {
	case "text", "entity", "raw_text":
		return true
	}
	return false
}

// textRun joins adjacent text nodes. Whitespace between them is kept; any
// other gap (a comment) is dropped. The result is decoded and trimmed.
func (ctx *parseContext) textRun(run []*sitter.Node) string {
	var b strings.Builder
	for i, node := range run {
		if i > 0 {
			gap := string(ctx.source[run[i-1].EndByte():node.StartByte()])
			if strings.TrimSpace(gap) == "" {
				b.WriteString(gap)
			}
		}
		b.WriteString(sliceContent(node, ctx.source))
	}
	return strings.TrimSpace(decodeEntities(b.String()))
}

func decodeEntities(raw string) string {
	if !strings.Contains(raw, "&") {
		return raw
	}
	return html.UnescapeString(raw)
}

func annotateSpan(target *ast.Node, node *sitter.Node) {
	annotateSpanRange(target, node, node)
}

func annotateSpanRange(target *ast.Node, first, last *sitter.Node) {
	start := first.StartPosition()
	end := last.EndPosition()
	ast.SetSpan(target, ast.Span{
		Start: ast.Position{Line: int(start.Row) + 1, Column: int(start.Column) + 1},
		End:   ast.Position{Line: int(end.Row) + 1, Column: int(end.Column) + 1},
	})
}

// blankDeclaration replaces a leading <?xml ...?> declaration with spaces so
// byte offsets and line numbers are preserved.
func blankDeclaration(source []byte) []byte {
	trimmed := strings.TrimLeftFunc(string(source), unicode.IsSpace)
	if !strings.HasPrefix(trimmed, "<?xml") {
		return source
	}
	start := len(source) - len(trimmed)
	end := strings.Index(trimmed, "?>")
	if end < 0 {
		return source
	}
	out := append([]byte(nil), source...)
	for i := start; i < start+end+2; i++ {
		if out[i] != '\n' {
			out[i] = ' '
		}
	}
	return out
}

// maskCharData returns a copy of source in which every '>' that appears in
// character data is replaced by a placeholder byte. The markup grammar does
// not accept a bare '>' in text; offsets are unchanged, so content is still
// sliced from the original source.
func maskCharData(source []byte) []byte {
	out := source
	copied := false
	for i := 0; i < len(source); {
		switch {
		case source[i] == '>':
			if !copied {
				out = append([]byte(nil), source...)
				copied = true
			}
			out[i] = charDataPlaceholder
			i++
		case source[i] != '<':
			i++
		case bytes.HasPrefix(source[i:], []byte("<!--")):
			i = skipPast(source, i+4, "-->")
		case bytes.HasPrefix(source[i:], []byte("<?")):
			i = skipPast(source, i+2, "?>")
		default:
			i = skipTag(source, i+1)
		}
	}
	return out
}

const charDataPlaceholder = '_'

func skipPast(source []byte, from int, terminator string) int {
	idx := bytes.Index(source[from:], []byte(terminator))
	if idx < 0 {
		return len(source)
	}
	return from + idx + len(terminator)
}

// skipTag returns the offset just past the '>' closing the tag that starts
// before from, ignoring '>' inside quoted attribute values.
func skipTag(source []byte, from int) int {
	var quote byte
	for i := from; i < len(source); i++ {
		c := source[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '"' || c == '\'':
			quote = c
		case c == '>':
			return i + 1
		}
	}
	return len(source)
}
