package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sort"
)

// ghadapter runs a checker such as varseq or compare and copies the top
// level fields of its JSON result into $GITHUB_OUTPUT. The checker's exit
// code is passed through, so a failed comparison still publishes where it
// failed.
func main() {
	if len(os.Args) < 2 {
		os.Exit(1)
	}

	var args []string
	if len(os.Args) > 2 {
		args = os.Args[2:]
	}

	cmd := exec.Command(os.Args[1], args...)
	cmd.Stdin = os.Stdin
	cmd.Stderr = os.Stderr

	exitCode := 0
	output, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		exitCode = exitErr.ExitCode()
	}
	_, _ = os.Stdout.Write(output)

	var result map[string]json.RawMessage
	if err := json.Unmarshal(output, &result); err != nil {
		os.Exit(max(exitCode, 1))
	}

	if githubOutput := os.Getenv("GITHUB_OUTPUT"); githubOutput != "" {
		f, err := os.OpenFile(githubOutput, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			os.Exit(max(exitCode, 1))
		}
		defer f.Close()

		writeOutputs(f, result)
	}

	if exitCode != 0 {
		os.Exit(exitCode)
	}
}

// writeOutputs writes one key=value line per field in key order. Strings
// are unquoted; other values keep their compact JSON form.
func writeOutputs(w io.Writer, result map[string]json.RawMessage) {
	keys := make([]string, 0, len(result))
	for key := range result {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		value := string(result[key])
		var s string
		if err := json.Unmarshal(result[key], &s); err == nil {
			value = s
		}
		_, _ = fmt.Fprintf(w, "%s=%s\n", key, value)
	}
}
