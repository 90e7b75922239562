// Package invoke orchestrates tool invocations against a target server.
package invoke

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mcptap/mcptap/internal/domain/mcp"
	"github.com/mcptap/mcptap/internal/domain/param"
	"github.com/mcptap/mcptap/internal/domain/target"
	"github.com/mcptap/mcptap/internal/infrastructure/logging"
	"github.com/mcptap/mcptap/internal/infrastructure/tracing"
)

// Session is a live connection to a tool server.
type Session interface {
	ListTools(ctx context.Context) ([]*mcp.Tool, error)
	CallTool(ctx context.Context, name string, args map[string]any) (json.RawMessage, error)
	Close() error
}

// Dialer opens a session for a resolved target.
type Dialer func(ctx context.Context, spec *target.Spec) (Session, error)

// Runner drives the full invocation lifecycle: dial, discover, collect
// arguments, call, shutdown.
type Runner struct {
	dial   Dialer
	logger *logging.Logger
	tracer *tracing.Tracer
}

// NewRunner creates a Runner. A nil logger or tracer falls back to defaults.
func NewRunner(dial Dialer, logger *logging.Logger, tracer *tracing.Tracer) *Runner {
	if logger == nil {
		logger = logging.New(logging.DefaultConfig())
	}
	if tracer == nil {
		tracer = tracing.Noop()
	}
	return &Runner{dial: dial, logger: logger, tracer: tracer}
}

// Request describes one invocation.
type Request struct {
	Spec   *target.Spec
	Tool   string
	Params param.Map

	// Ask, when non-nil, is used to prompt for missing required parameters.
	// A nil Ask leaves missing parameters to fail validation.
	Ask param.AskFunc
}

// Outcome is the result of one invocation. Elapsed covers the whole span
// from process spawn to result, and is populated even when Run fails.
type Outcome struct {
	RunID     string
	Arguments map[string]any
	Result    json.RawMessage
	Elapsed   time.Duration
}

// Catalog is the result of tool discovery.
type Catalog struct {
	Tools   []*mcp.Tool
	Elapsed time.Duration
}

// Discover connects to the target, lists its tools, and shuts down.
func (r *Runner) Discover(ctx context.Context, spec *target.Spec) (*Catalog, error) {
	ctx = logging.WithTarget(ctx, spec.String())
	start := time.Now()

	session, err := r.dial(ctx, spec)
	if err != nil {
		return nil, err
	}
	defer r.shutdown(ctx, session)

	tools, err := session.ListTools(ctx)
	if err != nil {
		return nil, err
	}

	r.logger.DebugContext(ctx, "discovered tools", "count", len(tools))
	return &Catalog{Tools: tools, Elapsed: time.Since(start)}, nil
}

// Run performs one tool invocation. The returned Outcome carries the elapsed
// time even when the invocation fails.
func (r *Runner) Run(ctx context.Context, req Request) (*Outcome, error) {
	outcome := &Outcome{RunID: uuid.NewString()}
	ctx = logging.WithRunID(ctx, outcome.RunID)
	ctx = logging.WithTarget(ctx, req.Spec.String())
	ctx = logging.WithTool(ctx, req.Tool)

	ctx, span := r.tracer.StartInvocationSpan(ctx, req.Tool, req.Spec.String())
	start := time.Now()
	fail := func(err error) (*Outcome, error) {
		outcome.Elapsed = time.Since(start)
		span.SetElapsedMillis(outcome.Elapsed.Milliseconds())
		span.EndWithError(err)
		return outcome, err
	}

	session, err := r.dial(ctx, req.Spec)
	if err != nil {
		return fail(err)
	}
	defer r.shutdown(ctx, session)

	tools, err := session.ListTools(ctx)
	if err != nil {
		return fail(err)
	}

	tool := mcp.FindTool(tools, req.Tool)
	if tool == nil {
		return fail(fmt.Errorf("%w: %s", mcp.ErrToolNotFound, req.Tool))
	}

	schema, err := tool.Schema()
	if err != nil {
		return fail(err)
	}

	provided := req.Params
	if provided == nil {
		provided = param.Map{}
	}
	if req.Ask != nil {
		if err := param.FillRequired(schema, provided, req.Ask); err != nil {
			return fail(err)
		}
	}

	args, err := param.BuildArguments(schema, provided)
	if err != nil {
		return fail(err)
	}
	outcome.Arguments = args
	span.SetArgumentCount(len(args))

	r.logger.InfoContext(ctx, "calling tool", "arguments", len(args))
	result, err := session.CallTool(ctx, req.Tool, args)
	if err != nil {
		return fail(err)
	}

	outcome.Result = result
	outcome.Elapsed = time.Since(start)
	span.SetElapsedMillis(outcome.Elapsed.Milliseconds())
	span.End()
	r.logger.InfoContext(ctx, "tool call completed", "elapsed_ms", outcome.Elapsed.Milliseconds())
	return outcome, nil
}

// shutdown closes the session. Teardown failures are logged, never surfaced;
// a dying child process must not mask a successful call.
func (r *Runner) shutdown(ctx context.Context, session Session) {
	if err := session.Close(); err != nil {
		r.logger.DebugContext(ctx, "session close failed", "error", err)
	}
}
