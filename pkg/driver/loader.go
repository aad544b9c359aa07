package driver

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"xmlang/interpreter-go/pkg/ast"
	"xmlang/interpreter-go/pkg/parser"
)

// Program is a parsed source file ready for evaluation.
type Program struct {
	Path string
	Root *ast.Node
}

// Loader reads and parses program files, reusing one parser.
type Loader struct {
	parser *parser.Parser
}

// NewLoader constructs a loader with its own parser.
func NewLoader() (*Loader, error) {
	p, err := parser.NewParser()
	if err != nil {
		return nil, err
	}
	return &Loader{parser: p}, nil
}

// Close releases parser resources.
func (l *Loader) Close() {
	if l == nil {
		return
	}
	if l.parser != nil {
		l.parser.Close()
		l.parser = nil
	}
}

// Load reads path and parses it. Parse failures are returned as
// *ParserDiagnosticError carrying the file location.
func (l *Loader) Load(path string) (*Program, error) {
	if path == "" {
		return nil, fmt.Errorf("loader: empty entry path")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("loader: resolve %s: %w", path, err)
	}
	source, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("loader: read %s: %w", path, err)
	}
	return l.LoadSource(path, source)
}

// LoadSource parses source as if it were read from path.
func (l *Loader) LoadSource(path string, source []byte) (*Program, error) {
	if l == nil || l.parser == nil {
		return nil, fmt.Errorf("loader: closed")
	}
	root, err := l.parser.Parse(source)
	if err != nil {
		return nil, DiagnosticFromParseError(path, err)
	}
	ast.AnnotateOrigins(root, path)
	return &Program{Path: path, Root: root}, nil
}

// DiagnosticFromParseError attaches path to a parse error. Other errors are
// returned unchanged.
func DiagnosticFromParseError(path string, err error) error {
	var parseErr *parser.ParseError
	if !errors.As(err, &parseErr) {
		return err
	}
	return &ParserDiagnosticError{Diagnostic: ParserDiagnostic{
		Severity: SeverityError,
		Message:  parseErr.Message,
		Location: DiagnosticLocation{
			Path:      path,
			Line:      parseErr.Location.Line,
			Column:    parseErr.Location.Column,
			EndLine:   parseErr.Location.EndLine,
			EndColumn: parseErr.Location.EndColumn,
		},
	}}
}

// ResolveTarget returns the program file for a manifest target. Git targets
// must already be recorded in lock by a fetch.
func ResolveTarget(manifest *Manifest, lock *Lockfile, target *TargetSpec) (string, error) {
	if manifest == nil || target == nil {
		return "", fmt.Errorf("driver: no target to resolve")
	}
	if !target.IsGit() {
		if filepath.IsAbs(target.Main) {
			return target.Main, nil
		}
		return filepath.Join(manifest.Dir(), target.Main), nil
	}
	locked, ok := lock.Find(target.Name)
	if !ok || locked.Path == "" {
		return "", fmt.Errorf("driver: target %q has not been fetched; run xmlang fetch", target.OriginalName)
	}
	return filepath.Join(locked.Path, target.Main), nil
}
