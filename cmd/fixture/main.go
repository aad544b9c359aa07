// Command fixture runs one fixture directory and prints its outcome as JSON.
// With --check it also compares the outcome against the manifest.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	"xmlang/interpreter-go/pkg/interpreter"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	flags := flag.NewFlagSet("fixture", flag.ContinueOnError)
	flags.SetOutput(stderr)
	dirFlag := flags.String("dir", "", "Path to fixture directory")
	entryFlag := flags.String("entry", "", "Override manifest entry file")
	checkFlag := flags.Bool("check", false, "Compare the outcome with the manifest expectations")
	if err := flags.Parse(args); err != nil {
		return 2
	}
	if *dirFlag == "" {
		fmt.Fprintln(stderr, "--dir is required")
		return 2
	}

	manifest, err := interpreter.LoadFixtureManifest(*dirFlag)
	if err != nil {
		fmt.Fprintf(stderr, "failed to read manifest: %v\n", err)
		return 1
	}
	if *entryFlag != "" {
		manifest.Entry = *entryFlag
	}

	outcome, err := interpreter.RunFixture(*dirFlag, manifest)
	if err != nil {
		fmt.Fprintf(stderr, "fixture %s: %v\n", *dirFlag, err)
		return 1
	}
	encoder := json.NewEncoder(stdout)
	if err := encoder.Encode(outcome); err != nil {
		fmt.Fprintf(stderr, "failed to encode output: %v\n", err)
		return 1
	}
	if *checkFlag {
		if err := manifest.Check(outcome); err != nil {
			fmt.Fprintf(stderr, "fixture %s: %v\n", *dirFlag, err)
			return 1
		}
	}
	return 0
}
