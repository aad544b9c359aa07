package language

import (
	sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_html "github.com/tree-sitter/tree-sitter-html/bindings/go"
)

// Markup returns the tree-sitter language used to read xmlang sources. The
// HTML grammar accepts arbitrary tag names, self-closing tags, entities and
// comments, which covers the markup subset the language is written in.
func Markup() *sitter.Language {
	return sitter.NewLanguage(tree_sitter_html.Language())
}
