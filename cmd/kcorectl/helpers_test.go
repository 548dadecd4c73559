package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goccy/go-json"
)

// resetFlags restores every command global to its default.
func resetFlags() {
	verbose, quiet, jsonOut, jaegerURL = false, false, false, ""

	runStrategy, runLimit, runVerify, runMapped, runBlocks = "first-fit", 16*0x1000, false, false, false

	fragStrategy, fragSeed, fragSteps, fragLimit, fragMaxSize, fragVerify = "all", 1, 200, 64*0x1000, 512, false

	pcCPUs, pcProducers, pcConsumers, pcItems, pcCapacity = 2, 2, 2, 100, 4
	pcRate, pcBurst, pcTimeout = 0, 1, 0
}

// writeScript stores body in a temporary script file.
func writeScript(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "script.txt")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("failed to write script: %v", err)
	}
	return path
}

// captureOutput captures stdout while running a function
func captureOutput(t *testing.T, fn func() error) (string, error) {
	t.Helper()

	origStdout := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("failed to create pipe: %v", err)
	}
	os.Stdout = w

	done := make(chan struct{})
	var buf bytes.Buffer
	go func() {
		_, _ = buf.ReadFrom(r)
		close(done)
	}()

	fnErr := fn()

	w.Close()
	os.Stdout = origStdout
	<-done

	return buf.String(), fnErr
}

// withStdin feeds input to os.Stdin while running a function
func withStdin(t *testing.T, input string, fn func() error) error {
	t.Helper()

	orig := os.Stdin
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("failed to create pipe: %v", err)
	}
	go func() {
		_, _ = w.WriteString(input)
		w.Close()
	}()
	os.Stdin = r
	defer func() { os.Stdin = orig }()
	return fn()
}

// assertJSON checks that output is valid JSON
func assertJSON(t *testing.T, output string) {
	t.Helper()
	if !json.Valid([]byte(output)) {
		t.Errorf("invalid JSON output\nOutput: %s", output)
	}
}

// assertContains checks that output contains all expected strings
func assertContains(t *testing.T, output string, expected []string) {
	t.Helper()
	for _, want := range expected {
		if !strings.Contains(output, want) {
			t.Errorf("output missing expected string %q\nGot: %s", want, output)
		}
	}
}
