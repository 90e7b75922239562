package commands

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/spf13/cobra"
)

// executeCommand executes a cobra command with the given args and returns
// the combined output.
func executeCommand(root *cobra.Command, args ...string) (string, error) {
	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs(args)
	err := root.Execute()
	return buf.String(), err
}

func TestNewRootCmd(t *testing.T) {
	cmd := NewRootCmd()

	if cmd == nil {
		t.Fatal("NewRootCmd returned nil")
	}
	if cmd.Use != "mcptap" {
		t.Errorf("expected Use='mcptap', got %q", cmd.Use)
	}

	wantSubcmds := []string{"version", "list", "get", "exec", "fuzz", "history"}
	subcmds := make(map[string]bool)
	for _, sub := range cmd.Commands() {
		subcmds[sub.Name()] = true
	}
	for _, want := range wantSubcmds {
		if !subcmds[want] {
			t.Errorf("missing subcommand: %s", want)
		}
	}

	wantFlags := []string{"config", "target", "verbose", "quiet"}
	for _, flag := range wantFlags {
		if cmd.PersistentFlags().Lookup(flag) == nil {
			t.Errorf("missing persistent flag: %s", flag)
		}
	}
}

func TestVersionCmd(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"full", []string{"version"}, "Version:"},
		{"short", []string{"version", "--short"}, Version},
		{"json", []string{"version", "--json"}, `"go_version"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := executeCommand(NewRootCmd(), tt.args...)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !strings.Contains(out, tt.want) {
				t.Errorf("output missing %q:\n%s", tt.want, out)
			}
		})
	}
}

func TestListNoTargetJSON(t *testing.T) {
	t.Setenv(TargetEnvVar, "")
	t.Setenv("HOME", t.TempDir())

	out, err := executeCommand(NewRootCmd(), "list", "tools", "--json")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var payload struct {
		Status string `json:"status"`
		Count  int    `json:"count"`
		Note   string `json:"note"`
	}
	if err := json.Unmarshal([]byte(out), &payload); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}
	if payload.Status != "ok" {
		t.Errorf("status = %q, want ok", payload.Status)
	}
	if payload.Count != 0 {
		t.Errorf("count = %d, want 0", payload.Count)
	}
	if !strings.Contains(payload.Note, "no target specified") {
		t.Errorf("note = %q", payload.Note)
	}
}

func TestListRemoteTargetJSON(t *testing.T) {
	t.Setenv(TargetEnvVar, "")
	t.Setenv("HOME", t.TempDir())

	out, err := executeCommand(NewRootCmd(), "-t", "https://example.com/mcp", "list", "tools", "--json")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var payload struct {
		Status string  `json:"status"`
		Target *string `json:"target"`
		Note   string  `json:"note"`
	}
	if err := json.Unmarshal([]byte(out), &payload); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}
	if payload.Status != "ok" {
		t.Errorf("status = %q, want ok", payload.Status)
	}
	if payload.Target == nil || *payload.Target != "https://example.com/mcp" {
		t.Errorf("target = %v", payload.Target)
	}
	if !strings.Contains(payload.Note, "remote") {
		t.Errorf("note = %q", payload.Note)
	}
}

func TestListPlaceholderSubjects(t *testing.T) {
	t.Setenv(TargetEnvVar, "")
	t.Setenv("HOME", t.TempDir())

	for _, subject := range []string{"resources", "prompts"} {
		out, err := executeCommand(NewRootCmd(), "list", subject, "--json")
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", subject, err)
		}
		if !strings.Contains(out, "not implemented yet") {
			t.Errorf("%s: output missing placeholder note:\n%s", subject, out)
		}
	}
}

func TestInvalidGlobalTarget(t *testing.T) {
	t.Setenv(TargetEnvVar, "")
	t.Setenv("HOME", t.TempDir())

	_, err := executeCommand(NewRootCmd(), "-t", "server 'unterminated", "list", "tools")
	if err == nil {
		t.Fatal("expected an error for an unparseable target")
	}
	var badTarget *invalidTargetError
	if !errors.As(err, &badTarget) {
		t.Errorf("error is %T, want *invalidTargetError", err)
	}
}

func TestExecValidationErrors(t *testing.T) {
	t.Setenv(TargetEnvVar, "")
	t.Setenv("HOME", t.TempDir())

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"unknown subject", []string{"exec", "widgets", "foo", "--json"}, "unknown subject"},
		{"wrong subject", []string{"exec", "resources", "foo", "--json"}, "supports only subject 'tool'"},
		{"empty tool", []string{"exec", "tool", "  ", "--json"}, "tool name cannot be empty"},
		{"no target", []string{"exec", "tool", "echo", "--json"}, "no target specified"},
		{"bad param", []string{"-t", "./server", "exec", "tool", "echo", "--param", "noequals", "--json"}, "expected KEY=VALUE"},
		{"remote target", []string{"-t", "wss://example.com/mcp", "exec", "tool", "echo", "--json"}, "remote exec not implemented"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := executeCommand(NewRootCmd(), tt.args...)
			if !errors.Is(err, errReported) {
				t.Fatalf("error = %v, want errReported", err)
			}
			if !strings.Contains(out, tt.want) {
				t.Errorf("output missing %q:\n%s", tt.want, out)
			}
			var payload struct {
				Status string `json:"status"`
			}
			if jsonErr := json.Unmarshal([]byte(out), &payload); jsonErr != nil {
				t.Fatalf("output is not JSON: %v\n%s", jsonErr, out)
			}
			if payload.Status != "error" {
				t.Errorf("status = %q, want error", payload.Status)
			}
		})
	}
}

func TestFuzzValidationErrors(t *testing.T) {
	t.Setenv(TargetEnvVar, "")
	t.Setenv("HOME", t.TempDir())

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"no target", []string{"fuzz", "tool", "echo", "-w", "words.txt", "--json"}, "no target specified"},
		{"remote target", []string{"-t", "http://example.com/mcp", "fuzz", "tool", "echo", "-w", "words.txt", "--json"}, "remote fuzz not implemented"},
		{"missing wordlist file", []string{"-t", "./server", "fuzz", "tool", "echo", "-w", "/nonexistent/words.txt", "--json"}, "wordlist"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := executeCommand(NewRootCmd(), tt.args...)
			if !errors.Is(err, errReported) {
				t.Fatalf("error = %v, want errReported", err)
			}
			if !strings.Contains(out, tt.want) {
				t.Errorf("output missing %q:\n%s", tt.want, out)
			}
		})
	}
}

func TestFuzzRequiresWordlistFlag(t *testing.T) {
	t.Setenv(TargetEnvVar, "")
	t.Setenv("HOME", t.TempDir())

	_, err := executeCommand(NewRootCmd(), "-t", "./server", "fuzz", "tool", "echo")
	if err == nil {
		t.Fatal("expected an error when --wordlist is missing")
	}
	if !strings.Contains(err.Error(), "wordlist") {
		t.Errorf("error = %v", err)
	}
}

func TestGetPlaceholderSubject(t *testing.T) {
	t.Setenv(TargetEnvVar, "")
	t.Setenv("HOME", t.TempDir())

	out, err := executeCommand(NewRootCmd(), "get", "prompts", "--json")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "not implemented yet") {
		t.Errorf("output missing placeholder note:\n%s", out)
	}
}

func TestHistoryEmpty(t *testing.T) {
	t.Setenv(TargetEnvVar, "")
	t.Setenv("HOME", t.TempDir())

	out, err := executeCommand(NewRootCmd(), "history", "--json")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var payload struct {
		Status  string            `json:"status"`
		Count   int               `json:"count"`
		Records []json.RawMessage `json:"records"`
	}
	if err := json.Unmarshal([]byte(out), &payload); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}
	if payload.Status != "ok" || payload.Count != 0 {
		t.Errorf("got status=%q count=%d, want ok/0", payload.Status, payload.Count)
	}
}
