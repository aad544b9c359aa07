package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/peterh/liner"

	"xmlang/interpreter-go/pkg/driver"
	"xmlang/interpreter-go/pkg/interpreter"
	"xmlang/interpreter-go/pkg/parser"
	"xmlang/interpreter-go/pkg/runtime"
)

const (
	replBanner   = "xmlang repl. Enter elements; a blank line submits, :help lists commands."
	promptMain   = "xmlang> "
	promptCont   = "...     "
	historyFile  = "repl_history"
	replFilename = "<repl>"
)

// replSession evaluates entries against one interpreter so variables and
// functions carry over between them.
type replSession struct {
	parser *parser.Parser
	interp *interpreter.Interpreter
}

func newReplSession(opts ...interpreter.Option) (*replSession, error) {
	p, err := parser.NewParser()
	if err != nil {
		return nil, err
	}
	return &replSession{parser: p, interp: interpreter.New(opts...)}, nil
}

func (s *replSession) Close() {
	s.parser.Close()
}

// complete reports whether source can be submitted as is.
func (s *replSession) complete(source string) bool {
	_, err := s.parser.ParseFragment([]byte(source))
	return !parser.IsIncomplete(err)
}

func (s *replSession) Eval(source string) (runtime.Value, error) {
	root, err := s.parser.ParseFragment([]byte(source))
	if err != nil {
		return nil, driver.DiagnosticFromParseError(replFilename, err)
	}
	return s.interp.Evaluate(root)
}

// command runs a ':' command and reports whether the session should end.
func (s *replSession) command(w io.Writer, input string) bool {
	switch strings.ToLower(strings.TrimSpace(input)) {
	case ":quit", ":q", ":exit":
		return true
	case ":vars":
		env := s.interp.GlobalEnvironment()
		for _, name := range env.Keys() {
			val, _ := env.Get(name)
			fmt.Fprintf(w, "%s = %s\n", name, formatReplValue(val))
		}
	case ":funcs":
		for _, name := range s.interp.Functions().Names() {
			fmt.Fprintln(w, name)
		}
	case ":help":
		fmt.Fprintln(w, ":vars   list variables")
		fmt.Fprintln(w, ":funcs  list declared functions")
		fmt.Fprintln(w, ":quit   leave the session")
	default:
		fmt.Fprintln(w, "unknown command. Type :help for a list.")
	}
	return false
}

func formatReplValue(val runtime.Value) string {
	if val == nil {
		return runtime.Null.String()
	}
	if str, ok := val.(runtime.StringValue); ok {
		return strconv.Quote(str.Val)
	}
	return val.String()
}

func describeReplError(err error) string {
	var diagErr *driver.ParserDiagnosticError
	if errors.As(err, &diagErr) {
		return driver.DescribeParserDiagnostic(diagErr.Diagnostic)
	}
	return driver.DescribeRuntimeError(replFilename, err)
}

// evalEntry evaluates one submitted entry. It returns an exit code and true
// when the program requested exit.
func (s *replSession) evalEntry(stdout, stderr io.Writer, source string) (int, bool) {
	val, err := s.Eval(source)
	if err != nil {
		if code, ok := interpreter.ExitCodeFromError(err); ok {
			return code, true
		}
		fmt.Fprintln(stderr, describeReplError(err))
		return 0, false
	}
	fmt.Fprintf(stdout, "=> %s\n", formatReplValue(val))
	return 0, false
}

func runRepl(args []string) int {
	if len(args) > 0 {
		fmt.Fprintf(os.Stderr, "xmlang repl does not take arguments (received %s)\n", strings.Join(args, " "))
		return exitUsage
	}

	session, err := newReplSession()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to start repl: %v\n", err)
		return exitFailure
	}
	defer session.Close()

	fmt.Fprintln(os.Stdout, replBanner)

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	if home, err := resolveXmlangHome(); err == nil {
		histPath := filepath.Join(home, historyFile)
		if f, err := os.Open(histPath); err == nil {
			_, _ = ln.ReadHistory(f)
			_ = f.Close()
		}
		defer func() {
			if err := os.MkdirAll(home, 0o755); err != nil {
				return
			}
			if f, err := os.Create(histPath); err == nil {
				_, _ = ln.WriteHistory(f)
				_ = f.Close()
			}
		}()
	}

	for {
		source, ok := readEntry(ln.Prompt, session.complete)
		if !ok {
			fmt.Fprintln(os.Stdout)
			return exitOK
		}
		trimmed := strings.TrimSpace(source)
		if trimmed == "" {
			continue
		}
		ln.AppendHistory(strings.ReplaceAll(trimmed, "\n", " "))
		if strings.HasPrefix(trimmed, ":") {
			if session.command(os.Stdout, trimmed) {
				return exitOK
			}
			continue
		}
		if code, exit := session.evalEntry(os.Stdout, os.Stderr, source); exit {
			return code
		}
	}
}

// readEntry collects lines until the entry parses or stops being incomplete.
// A blank line submits whatever has been typed. ok is false at end of input.
func readEntry(prompt func(string) (string, error), complete func(string) bool) (string, bool) {
	var b strings.Builder
	for {
		p := promptMain
		if b.Len() > 0 {
			p = promptCont
		}
		line, err := prompt(p)
		if errors.Is(err, io.EOF) {
			if b.Len() > 0 {
				return b.String(), true
			}
			return "", false
		}
		if errors.Is(err, liner.ErrPromptAborted) {
			return "", true
		}
		if err != nil {
			return "", false
		}

		if strings.TrimSpace(line) == "" {
			if b.Len() > 0 {
				return b.String(), true
			}
			continue
		}
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line)

		src := b.String()
		if strings.HasPrefix(strings.TrimSpace(src), ":") || complete(src) {
			return src, true
		}
	}
}
