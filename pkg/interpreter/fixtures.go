package interpreter

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"xmlang/interpreter-go/pkg/ast"
	"xmlang/interpreter-go/pkg/parser"
	"xmlang/interpreter-go/pkg/runtime"
)

// FixtureManifest describes one fixture directory: a program file plus the
// behaviour expected from running it.
type FixtureManifest struct {
	Description string             `yaml:"description"`
	Entry       string             `yaml:"entry"`
	Stdin       string             `yaml:"stdin"`
	Expect      FixtureExpectation `yaml:"expect"`
}

// FixtureExpectation lists the observable results of a fixture run. Unset
// fields are not checked, except Stdout, which must match exactly.
type FixtureExpectation struct {
	Stdout     []string `yaml:"stdout"`
	Result     *string  `yaml:"result"`
	ResultType string   `yaml:"result_type"`
	Error      string   `yaml:"error"`
	Thrown     *bool    `yaml:"thrown"`
	Exit       *int     `yaml:"exit"`
}

// FixtureValue is the JSON form of a program result.
type FixtureValue struct {
	Kind  string `json:"kind"`
	Value string `json:"value"`
}

// FixtureOutcome records what a fixture run produced.
type FixtureOutcome struct {
	Result *FixtureValue `json:"result,omitempty"`
	Stdout []string      `json:"stdout,omitempty"`
	Error  string        `json:"error,omitempty"`
	Thrown bool          `json:"thrown,omitempty"`
	Exit   *int          `json:"exit,omitempty"`
}

// LoadFixtureManifest reads manifest.yml from dir.
func LoadFixtureManifest(dir string) (FixtureManifest, error) {
	var manifest FixtureManifest
	manifestPath := filepath.Join(dir, "manifest.yml")
	data, err := os.ReadFile(manifestPath)
	if err != nil {
		return manifest, fmt.Errorf("read fixture manifest %s: %w", manifestPath, err)
	}
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&manifest); err != nil && !errors.Is(err, io.EOF) {
		return manifest, fmt.Errorf("decode fixture manifest %s: %w", manifestPath, err)
	}
	return manifest, nil
}

// RunFixture parses and evaluates the fixture's entry program with the
// manifest's stdin. Evaluation failures are part of the outcome; the error
// return is for fixtures that cannot be loaded at all.
func RunFixture(dir string, manifest FixtureManifest) (FixtureOutcome, error) {
	var outcome FixtureOutcome
	entry := manifest.Entry
	if entry == "" {
		entry = "main.xml"
	}
	path := filepath.Join(dir, entry)
	source, err := os.ReadFile(path)
	if err != nil {
		return outcome, fmt.Errorf("read fixture program: %w", err)
	}
	root, err := parser.Parse(source)
	if err != nil {
		return outcome, fmt.Errorf("parse %s: %w", path, err)
	}
	ast.AnnotateOrigins(root, path)

	var stdout bytes.Buffer
	out := bufio.NewWriter(&stdout)
	interp := New(WithStdout(out), WithStdin(strings.NewReader(manifest.Stdin)))
	value, runErr := interp.Evaluate(root)
	if err := out.Flush(); err != nil {
		return outcome, err
	}

	if text := strings.TrimSuffix(stdout.String(), "\n"); stdout.Len() > 0 {
		outcome.Stdout = strings.Split(text, "\n")
	}
	if code, ok := ExitCodeFromError(runErr); ok {
		outcome.Exit = &code
		return outcome, nil
	}
	if runErr != nil {
		outcome.Error = runErr.Error()
		var rtErr *RuntimeError
		outcome.Thrown = errors.As(runErr, &rtErr) && rtErr.Thrown
		return outcome, nil
	}
	outcome.Result = &FixtureValue{Kind: runtime.TypeName(value), Value: runtime.ToString(value)}
	return outcome, nil
}

// Check compares an outcome with the manifest's expectations.
func (m FixtureManifest) Check(outcome FixtureOutcome) error {
	expect := m.Expect
	if !slices.Equal(outcome.Stdout, expect.Stdout) {
		return fmt.Errorf("stdout mismatch: got %q, want %q", outcome.Stdout, expect.Stdout)
	}
	switch {
	case expect.Exit != nil:
		if outcome.Exit == nil || *outcome.Exit != *expect.Exit {
			return fmt.Errorf("expected exit %d, got %s", *expect.Exit, describeOutcome(outcome))
		}
		return nil
	case outcome.Exit != nil:
		return fmt.Errorf("unexpected exit %d", *outcome.Exit)
	}
	if expect.Error != "" {
		if !strings.Contains(outcome.Error, expect.Error) {
			return fmt.Errorf("expected error containing %q, got %s", expect.Error, describeOutcome(outcome))
		}
		if expect.Thrown != nil && outcome.Thrown != *expect.Thrown {
			return fmt.Errorf("thrown = %t, want %t", outcome.Thrown, *expect.Thrown)
		}
		return nil
	}
	if outcome.Error != "" {
		return fmt.Errorf("runtime error: %s", outcome.Error)
	}
	if expect.ResultType != "" && outcome.Result.Kind != expect.ResultType {
		return fmt.Errorf("result type = %s, want %s", outcome.Result.Kind, expect.ResultType)
	}
	if expect.Result != nil && outcome.Result.Value != *expect.Result {
		return fmt.Errorf("result = %q, want %q", outcome.Result.Value, *expect.Result)
	}
	return nil
}

func describeOutcome(outcome FixtureOutcome) string {
	switch {
	case outcome.Exit != nil:
		return fmt.Sprintf("exit %d", *outcome.Exit)
	case outcome.Thrown:
		return fmt.Sprintf("thrown %q", outcome.Error)
	case outcome.Error != "":
		return fmt.Sprintf("error %q", outcome.Error)
	case outcome.Result != nil:
		return fmt.Sprintf("%s %q", outcome.Result.Kind, outcome.Result.Value)
	}
	return "no result"
}
