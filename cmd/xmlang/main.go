package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"xmlang/interpreter-go/pkg/ast"
	"xmlang/interpreter-go/pkg/driver"
	"xmlang/interpreter-go/pkg/interpreter"
)

const cliToolVersion = "xmlang 0.1.0-dev"

const (
	exitOK      = 0
	exitFailure = 1
	exitUsage   = 2
)

type executionMode int

const (
	modeRun executionMode = iota
	modeCheck
	modeTree
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if len(args) == 0 {
		printUsage()
		return exitUsage
	}

	switch args[0] {
	case "--help", "-h", "help":
		printUsage()
		return exitOK
	case "--version", "-V", "version":
		fmt.Fprintln(os.Stdout, cliToolVersion)
		return exitOK
	case "run":
		return runEntry(args[1:])
	case "check":
		return runCheck(args[1:])
	case "tree":
		return runTree(args[1:])
	case "repl":
		return runRepl(args[1:])
	case "fetch":
		return runFetch(args[1:])
	default:
		if strings.HasPrefix(args[0], "-") {
			fmt.Fprintf(os.Stderr, "unknown flag %s\n", args[0])
			printUsage()
			return exitUsage
		}
		return runEntry(args)
	}
}

func runEntry(args []string) int {
	if len(args) > 1 {
		fmt.Fprintf(os.Stderr, "unexpected arguments: %s\n", strings.Join(args[1:], " "))
		return exitUsage
	}
	entry, code := resolveEntry(args, modeRun)
	if code != exitOK {
		return code
	}
	return executeEntry(entry, modeRun)
}

func runTree(args []string) int {
	if len(args) != 1 {
		fmt.Fprintln(os.Stderr, "xmlang tree requires exactly one source file or target")
		return exitUsage
	}
	entry, code := resolveEntry(args, modeTree)
	if code != exitOK {
		return code
	}
	return executeEntry(entry, modeTree)
}

func runCheck(args []string) int {
	if len(args) <= 1 {
		entry, code := resolveEntry(args, modeCheck)
		if code != exitOK {
			return code
		}
		return executeEntry(entry, modeCheck)
	}
	status := exitOK
	for _, arg := range args {
		if code := executeEntry(arg, modeCheck); code != exitOK {
			status = code
		}
	}
	return status
}

// resolveEntry maps the command arguments to a program file: an explicit path,
// a manifest target name, or the manifest's first target when args is empty.
func resolveEntry(args []string, mode executionMode) (string, int) {
	if len(args) == 1 && looksLikePathCandidate(args[0]) {
		return args[0], exitOK
	}

	manifest, err := loadManifestFrom(".")
	if err != nil {
		switch {
		case errors.Is(err, errManifestNotFound) && len(args) == 1:
			return args[0], exitOK
		case errors.Is(err, errManifestNotFound):
			fmt.Fprintf(os.Stderr, "%s requires a manifest target or source file (%s not found)\n", modeCommandLabel(mode), driver.ManifestName)
			return "", exitUsage
		default:
			fmt.Fprintf(os.Stderr, "failed to load manifest: %v\n", err)
			return "", exitFailure
		}
	}

	var target *driver.TargetSpec
	if len(args) == 0 {
		target, err = manifest.DefaultTarget()
		if err != nil {
			fmt.Fprintf(os.Stderr, "manifest error: %v\n", err)
			return "", exitFailure
		}
	} else {
		var ok bool
		if target, ok = manifest.FindTarget(args[0]); !ok {
			// Not a target; treat the argument as a file.
			return args[0], exitOK
		}
	}

	var lock *driver.Lockfile
	if target.IsGit() {
		if lock, err = loadLockfileForManifest(manifest); err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			return "", exitFailure
		}
	}
	entry, err := driver.ResolveTarget(manifest, lock, target)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to resolve target %q: %v\n", target.OriginalName, err)
		return "", exitFailure
	}
	return entry, exitOK
}

func executeEntry(entry string, mode executionMode) int {
	entry = strings.TrimSpace(entry)
	if entry == "" {
		fmt.Fprintf(os.Stderr, "%s requires a source file\n", modeCommandLabel(mode))
		return exitUsage
	}

	loader, err := driver.NewLoader()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize loader: %v\n", err)
		return exitFailure
	}
	defer loader.Close()

	program, err := loader.Load(entry)
	if err != nil {
		var diagErr *driver.ParserDiagnosticError
		if errors.As(err, &diagErr) {
			fmt.Fprintln(os.Stderr, driver.DescribeParserDiagnostic(diagErr.Diagnostic))
			return exitFailure
		}
		fmt.Fprintf(os.Stderr, "failed to load program: %v\n", err)
		return exitFailure
	}

	switch mode {
	case modeTree:
		out := bufio.NewWriter(os.Stdout)
		err := ast.Dump(out, program.Root)
		if flushErr := out.Flush(); err == nil {
			err = flushErr
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "write tree: %v\n", err)
			return exitFailure
		}
		return exitOK
	case modeCheck:
		issues := interpreter.Validate(program.Root)
		for _, issue := range issues {
			fmt.Fprintln(os.Stderr, driver.DescribeRuntimeError(program.Path, issue))
		}
		if len(issues) > 0 {
			return exitFailure
		}
		fmt.Fprintf(os.Stdout, "check: %s ok\n", filepath.ToSlash(program.Path))
		return exitOK
	}

	out := bufio.NewWriter(os.Stdout)
	interp := interpreter.New(interpreter.WithStdout(out))
	_, err = interp.Evaluate(program.Root)
	if flushErr := out.Flush(); flushErr != nil && err == nil {
		err = flushErr
	}
	if err != nil {
		if code, ok := interpreter.ExitCodeFromError(err); ok {
			return code
		}
		fmt.Fprintln(os.Stderr, driver.DescribeRuntimeError(program.Path, err))
		return exitFailure
	}
	return exitOK
}

func modeCommandLabel(mode executionMode) string {
	switch mode {
	case modeCheck:
		return "xmlang check"
	case modeTree:
		return "xmlang tree"
	default:
		return "xmlang run"
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, `usage: xmlang <command> [arguments]

commands:
  run [file|target]     evaluate a program (default command for a file argument)
  check [file...]       parse programs and report unknown or misplaced elements
  tree <file|target>    print the parsed element tree
  repl                  start an interactive session
  fetch                 clone git targets from xmlang.yml and write xmlang.lock

flags:
  --help                show this message
  --version             print the tool version

environment:
  XMLANG_HOME           cache directory for fetched targets (default ~/.xmlang)`)
}
