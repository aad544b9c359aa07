// Command parse-module reads an xmlang program from stdin and writes its
// syntax tree as JSON.
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"xmlang/interpreter-go/pkg/driver"
	"xmlang/interpreter-go/pkg/parser"
)

func main() {
	os.Exit(run(os.Stdin, os.Stdout, os.Stderr))
}

func run(stdin io.Reader, stdout, stderr io.Writer) int {
	source, err := io.ReadAll(stdin)
	if err != nil {
		fmt.Fprintf(stderr, "read source: %v\n", err)
		return 1
	}

	p, err := parser.NewParser()
	if err != nil {
		fmt.Fprintf(stderr, "init parser: %v\n", err)
		return 1
	}
	defer p.Close()

	root, err := p.Parse(source)
	if err != nil {
		var diagErr *driver.ParserDiagnosticError
		if errors.As(driver.DiagnosticFromParseError("<stdin>", err), &diagErr) {
			fmt.Fprintln(stderr, driver.DescribeParserDiagnostic(diagErr.Diagnostic))
		} else {
			fmt.Fprintf(stderr, "parse: %v\n", err)
		}
		return 1
	}

	out, err := json.Marshal(root)
	if err != nil {
		fmt.Fprintf(stderr, "encode tree: %v\n", err)
		return 1
	}
	if _, err := stdout.Write(append(out, '\n')); err != nil {
		fmt.Fprintf(stderr, "write output: %v\n", err)
		return 1
	}
	return 0
}
