package driver

import (
	"errors"
	"fmt"
	"strings"

	"xmlang/interpreter-go/pkg/interpreter"
)

// DiagnosticSeverity captures parser diagnostic levels.
type DiagnosticSeverity string

const (
	SeverityError   DiagnosticSeverity = "error"
	SeverityWarning DiagnosticSeverity = "warning"
)

// DiagnosticLocation references a source span for diagnostics.
type DiagnosticLocation struct {
	Path      string
	Line      int
	Column    int
	EndLine   int
	EndColumn int
}

// ParserDiagnostic represents a structured parser diagnostic.
type ParserDiagnostic struct {
	Severity DiagnosticSeverity
	Message  string
	Location DiagnosticLocation
}

// ParserDiagnosticError wraps a diagnostic for error handling.
type ParserDiagnosticError struct {
	Diagnostic ParserDiagnostic
}

func (e *ParserDiagnosticError) Error() string {
	return e.Diagnostic.Message
}

// DescribeParserDiagnostic formats a parser diagnostic for CLI output.
func DescribeParserDiagnostic(diag ParserDiagnostic) string {
	message := strings.TrimSpace(diag.Message)
	if strings.HasPrefix(message, "parser:") {
		message = strings.TrimSpace(strings.TrimPrefix(message, "parser:"))
	}
	location := formatDiagnosticLocation(diag.Location)
	prefix := "parser: "
	if diag.Severity == SeverityWarning {
		prefix = "warning: parser: "
	}
	if location != "" {
		return fmt.Sprintf("%s%s %s", prefix, location, message)
	}
	return fmt.Sprintf("%s%s", prefix, message)
}

// DescribeRuntimeError formats an evaluation failure for CLI output. The
// element's own origin wins over path when it is known.
func DescribeRuntimeError(path string, err error) string {
	var runtimeErr *interpreter.RuntimeError
	if !errors.As(err, &runtimeErr) {
		if path != "" {
			return fmt.Sprintf("%s: runtime error: %s", path, err.Error())
		}
		return fmt.Sprintf("runtime error: %s", err.Error())
	}
	loc := DiagnosticLocation{
		Path:   path,
		Line:   runtimeErr.Span.Start.Line,
		Column: runtimeErr.Span.Start.Column,
	}
	if runtimeErr.Origin != "" {
		loc.Path = runtimeErr.Origin
	}
	message := runtimeErr.Message
	if runtimeErr.Err != nil && runtimeErr.Err.Error() != message {
		message = fmt.Sprintf("%s: %s", message, runtimeErr.Err.Error())
	}
	if location := formatDiagnosticLocation(loc); location != "" {
		return fmt.Sprintf("%s: runtime error: %s", location, message)
	}
	return fmt.Sprintf("runtime error: %s", message)
}

func formatDiagnosticLocation(loc DiagnosticLocation) string {
	path := strings.TrimSpace(loc.Path)
	line := loc.Line
	column := loc.Column
	switch {
	case path != "" && line > 0 && column > 0:
		return fmt.Sprintf("%s:%d:%d", path, line, column)
	case path != "" && line > 0:
		return fmt.Sprintf("%s:%d", path, line)
	case path != "":
		return path
	case line > 0 && column > 0:
		return fmt.Sprintf("line %d, column %d", line, column)
	case line > 0:
		return fmt.Sprintf("line %d", line)
	default:
		return ""
	}
}
