package invoke

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/mcptap/mcptap/internal/domain/mcp"
	"github.com/mcptap/mcptap/internal/domain/param"
	"github.com/mcptap/mcptap/internal/domain/target"
)

type fakeSession struct {
	tools      []*mcp.Tool
	listErr    error
	callErr    error
	callResult json.RawMessage

	calledName string
	calledArgs map[string]any
	closed     bool
	closeErr   error
}

func (s *fakeSession) ListTools(ctx context.Context) ([]*mcp.Tool, error) {
	return s.tools, s.listErr
}

func (s *fakeSession) CallTool(ctx context.Context, name string, args map[string]any) (json.RawMessage, error) {
	s.calledName = name
	s.calledArgs = args
	if s.callErr != nil {
		return nil, s.callErr
	}
	return s.callResult, nil
}

func (s *fakeSession) Close() error {
	s.closed = true
	return s.closeErr
}

func mustTool(t *testing.T, raw string) *mcp.Tool {
	t.Helper()
	tool, err := mcp.ParseTool(json.RawMessage(raw))
	if err != nil {
		t.Fatalf("ParseTool: %v", err)
	}
	return tool
}

func mustSpec(t *testing.T, raw string) *target.Spec {
	t.Helper()
	spec, err := target.Parse(raw)
	if err != nil {
		t.Fatalf("target.Parse: %v", err)
	}
	return spec
}

func newTestRunner(session *fakeSession, dialErr error) *Runner {
	dial := func(ctx context.Context, spec *target.Spec) (Session, error) {
		if dialErr != nil {
			return nil, dialErr
		}
		return session, nil
	}
	return NewRunner(dial, nil, nil)
}

func TestRunCoercesAndCalls(t *testing.T) {
	session := &fakeSession{
		tools: []*mcp.Tool{mustTool(t, `{
			"name": "add",
			"inputSchema": {
				"type": "object",
				"properties": {"a": {"type": "integer"}, "b": {"type": "integer"}},
				"required": ["a", "b"]
			}
		}`)},
		callResult: json.RawMessage(`{"content":[{"type":"text","text":"3"}]}`),
	}
	runner := newTestRunner(session, nil)

	outcome, err := runner.Run(context.Background(), Request{
		Spec:   mustSpec(t, "./server"),
		Tool:   "ADD",
		Params: param.Map{"a": "1", "b": "2"},
	})
	if err != nil {
		t.Fatalf("Run() returned error: %v", err)
	}

	// The tool is resolved case-insensitively but called with the requested name.
	if session.calledName != "ADD" {
		t.Errorf("called name = %q, want ADD", session.calledName)
	}
	if got := session.calledArgs["a"]; got != int64(1) {
		t.Errorf("argument a = %#v, want int64(1)", got)
	}
	if outcome.RunID == "" {
		t.Error("RunID is empty")
	}
	if outcome.Elapsed < 0 {
		t.Errorf("Elapsed = %v, want non-negative", outcome.Elapsed)
	}
	if string(outcome.Result) != string(session.callResult) {
		t.Errorf("Result = %s", outcome.Result)
	}
	if !session.closed {
		t.Error("session was not closed")
	}
}

func TestRunEmptyArgumentsOmitted(t *testing.T) {
	session := &fakeSession{
		tools:      []*mcp.Tool{mustTool(t, `{"name":"ping"}`)},
		callResult: json.RawMessage(`{}`),
	}
	runner := newTestRunner(session, nil)

	outcome, err := runner.Run(context.Background(), Request{
		Spec: mustSpec(t, "./server"),
		Tool: "ping",
	})
	if err != nil {
		t.Fatalf("Run() returned error: %v", err)
	}
	if session.calledArgs != nil {
		t.Errorf("arguments = %v, want nil when no params given", session.calledArgs)
	}
	if outcome.Arguments != nil {
		t.Errorf("outcome.Arguments = %v, want nil", outcome.Arguments)
	}
}

func TestRunToolNotFound(t *testing.T) {
	session := &fakeSession{tools: []*mcp.Tool{mustTool(t, `{"name":"echo"}`)}}
	runner := newTestRunner(session, nil)

	outcome, err := runner.Run(context.Background(), Request{
		Spec: mustSpec(t, "./server"),
		Tool: "missing",
	})
	if !errors.Is(err, mcp.ErrToolNotFound) {
		t.Fatalf("Run() error = %v, want ErrToolNotFound", err)
	}
	if !session.closed {
		t.Error("session was not closed after failure")
	}
	if outcome == nil || outcome.Elapsed < 0 {
		t.Error("outcome missing elapsed time on failure")
	}
}

func TestRunMissingRequired(t *testing.T) {
	session := &fakeSession{
		tools: []*mcp.Tool{mustTool(t, `{
			"name": "greet",
			"inputSchema": {"type":"object","required":["name"]}
		}`)},
	}
	runner := newTestRunner(session, nil)

	_, err := runner.Run(context.Background(), Request{
		Spec: mustSpec(t, "./server"),
		Tool: "greet",
	})
	if !errors.Is(err, param.ErrMissingRequired) {
		t.Fatalf("Run() error = %v, want ErrMissingRequired", err)
	}
	if session.calledName != "" {
		t.Error("CallTool invoked despite missing required parameter")
	}
}

func TestRunPromptsForRequired(t *testing.T) {
	session := &fakeSession{
		tools: []*mcp.Tool{mustTool(t, `{
			"name": "greet",
			"inputSchema": {"type":"object","properties":{"name":{"type":"string"}},"required":["name"]}
		}`)},
		callResult: json.RawMessage(`{}`),
	}
	runner := newTestRunner(session, nil)

	_, err := runner.Run(context.Background(), Request{
		Spec: mustSpec(t, "./server"),
		Tool: "greet",
		Ask:  func(name, typ string) (string, error) { return "alice", nil },
	})
	if err != nil {
		t.Fatalf("Run() returned error: %v", err)
	}
	if got := session.calledArgs["name"]; got != "alice" {
		t.Errorf("argument name = %#v, want alice", got)
	}
}

func TestRunDialFailure(t *testing.T) {
	wantErr := errors.New("spawn failed")
	runner := newTestRunner(nil, wantErr)

	_, err := runner.Run(context.Background(), Request{
		Spec: mustSpec(t, "./server"),
		Tool: "echo",
	})
	if !errors.Is(err, wantErr) {
		t.Fatalf("Run() error = %v, want %v", err, wantErr)
	}
}

func TestRunCloseErrorSwallowed(t *testing.T) {
	session := &fakeSession{
		tools:      []*mcp.Tool{mustTool(t, `{"name":"echo"}`)},
		callResult: json.RawMessage(`{"ok":true}`),
		closeErr:   errors.New("process already gone"),
	}
	runner := newTestRunner(session, nil)

	if _, err := runner.Run(context.Background(), Request{
		Spec: mustSpec(t, "./server"),
		Tool: "echo",
	}); err != nil {
		t.Fatalf("Run() returned error: %v, want close failure swallowed", err)
	}
}

func TestDiscover(t *testing.T) {
	session := &fakeSession{
		tools: []*mcp.Tool{mustTool(t, `{"name":"a"}`), mustTool(t, `{"name":"b"}`)},
	}
	runner := newTestRunner(session, nil)

	catalog, err := runner.Discover(context.Background(), mustSpec(t, "./server"))
	if err != nil {
		t.Fatalf("Discover() returned error: %v", err)
	}
	if len(catalog.Tools) != 2 {
		t.Errorf("Discover() returned %d tools, want 2", len(catalog.Tools))
	}
	if !session.closed {
		t.Error("session was not closed")
	}
}

func TestDiscoverListFailure(t *testing.T) {
	session := &fakeSession{listErr: errors.New("protocol error")}
	runner := newTestRunner(session, nil)

	if _, err := runner.Discover(context.Background(), mustSpec(t, "./server")); err == nil {
		t.Fatal("Discover() = nil error, want list failure")
	}
	if !session.closed {
		t.Error("session was not closed after failure")
	}
}
