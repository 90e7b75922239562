package commands

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/mcptap/mcptap/internal/application/invoke"
	"github.com/mcptap/mcptap/internal/domain/param"
	"github.com/mcptap/mcptap/internal/infrastructure/storage"
	"github.com/mcptap/mcptap/internal/presentation/cli/output"
	"github.com/mcptap/mcptap/internal/presentation/cli/prompt"
)

// execOutput is the JSON shape for a successful exec.
type execOutput struct {
	Status        string          `json:"status"`
	Subject       string          `json:"subject"`
	Tool          string          `json:"tool"`
	Target        string          `json:"target"`
	ElapsedMS     int64           `json:"elapsed_ms"`
	Arguments     map[string]any  `json:"arguments"`
	ResultSummary json.RawMessage `json:"result_summary,omitempty"`
	Result        json.RawMessage `json:"result,omitempty"`
}

// NewExecCmd creates the exec command for invoking a single tool.
func NewExecCmd() *cobra.Command {
	var (
		params      []string
		paramFile   string
		interactive bool
		raw         bool
		jsonMode    bool
	)

	cmd := &cobra.Command{
		Use:   "exec <subject> <tool>",
		Short: "Invoke a tool on the target server",
		Long: `Invoke a single tool on the target server.

Parameters come from repeatable --param KEY=VALUE flags and an optional
--param-file (JSON or YAML; CLI values win on conflict). Values are coerced
to the tool's declared schema types. With -i/--interactive, missing required
parameters are prompted for.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExec(cmd, execRequest{
				subject:     args[0],
				tool:        args[1],
				params:      params,
				paramFile:   paramFile,
				interactive: interactive,
				raw:         raw,
				jsonMode:    jsonMode,
			})
		},
	}

	cmd.Flags().StringArrayVar(&params, "param", nil, "tool parameter (KEY=VALUE), repeatable")
	cmd.Flags().StringVar(&paramFile, "param-file", "", "load parameters from a JSON or YAML file")
	cmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "prompt for missing required parameters")
	cmd.Flags().BoolVar(&raw, "raw", false, "include the full call result instead of a summary")
	cmd.Flags().BoolVar(&jsonMode, "json", false, "output JSON instead of human-readable text")

	return cmd
}

type execRequest struct {
	subject     string
	tool        string
	params      []string
	paramFile   string
	interactive bool
	raw         bool
	jsonMode    bool
}

func runExec(cmd *cobra.Command, req execRequest) error {
	formatter := newCommandFormatter(cmd, req.jsonMode)

	subject, err := ParseSubject(req.subject)
	if err != nil {
		return reportError(formatter, req.jsonMode, "%s", err.Error())
	}
	switch subject {
	case SubjectTool:
	case SubjectTools:
		// Plural stays accepted for old scripts.
		warnDeprecatedSubject(cmd, req.jsonMode)
	default:
		return reportError(formatter, req.jsonMode, "exec currently supports only subject 'tool'")
	}

	toolName := strings.TrimSpace(req.tool)
	if toolName == "" {
		return reportError(formatter, req.jsonMode, "tool name cannot be empty")
	}

	spec, err := resolveTarget()
	if err != nil {
		return reportError(formatter, req.jsonMode, "failed to parse target: %s", err.Error())
	}
	if spec == nil {
		return reportError(formatter, req.jsonMode, "no target specified (use --target or %s)", TargetEnvVar)
	}
	if !spec.IsLocal() {
		return reportError(formatter, req.jsonMode, "remote exec not implemented yet")
	}

	provided, err := param.ParsePairs(req.params)
	if err != nil {
		return reportError(formatter, req.jsonMode, "%s", err.Error())
	}
	if req.paramFile != "" {
		if err := param.MergeFile(provided, req.paramFile); err != nil {
			return reportError(formatter, req.jsonMode, "%s", err.Error())
		}
	}

	var ask param.AskFunc
	if req.interactive && !req.jsonMode {
		ask = prompt.AskValue
	}

	started := time.Now()
	outcome, runErr := newRunner().Run(cmd.Context(), invoke.Request{
		Spec:   spec,
		Tool:   toolName,
		Params: provided,
		Ask:    ask,
	})

	repo := openHistory()
	if repo != nil {
		defer repo.Close()
	}

	if runErr != nil {
		runID := ""
		if outcome != nil {
			runID = outcome.RunID
		}
		recordHistory(cmd.Context(), repo, storage.Record{
			ID:        runID,
			Tool:      toolName,
			Target:    spec.String(),
			Status:    "error",
			Error:     runErr.Error(),
			ElapsedMS: elapsedOrWall(outcome, started),
			StartedAt: started,
		})
		return reportError(formatter, req.jsonMode, "%s", runErr.Error())
	}

	recordHistory(cmd.Context(), repo, storage.Record{
		ID:        outcome.RunID,
		Tool:      toolName,
		Target:    spec.String(),
		Status:    "ok",
		ElapsedMS: outcome.Elapsed.Milliseconds(),
		StartedAt: started,
	})

	if req.jsonMode {
		out := execOutput{
			Status:    "ok",
			Subject:   "tool",
			Tool:      toolName,
			Target:    spec.String(),
			ElapsedMS: outcome.Elapsed.Milliseconds(),
			Arguments: outcome.Arguments,
		}
		if req.raw {
			out.Result = outcome.Result
		} else {
			out.ResultSummary = outcome.Result
		}
		return formatter.JSON(out)
	}

	renderExecSuccess(formatter, toolName, spec.String(), outcome, req.raw)
	return nil
}

// warnDeprecatedSubject writes the 'tools' deprecation notice to stderr so
// JSON stdout stays parseable.
func warnDeprecatedSubject(cmd *cobra.Command, jsonMode bool) {
	if jsonMode {
		fmt.Fprintln(cmd.ErrOrStderr(), `{"warning":"subject 'tools' is deprecated; use 'tool'"}`)
		return
	}
	fmt.Fprintln(cmd.ErrOrStderr(), "Subject 'tools' is deprecated; use 'tool'")
}

func renderExecSuccess(f *output.Formatter, toolName, targetStr string, outcome *invoke.Outcome, raw bool) {
	f.Box(
		f.Bold(fmt.Sprintf("✓ Exec Success (%s)", toolName)),
		f.Dim(fmt.Sprintf("target=%s • %d ms", targetStr, outcome.Elapsed.Milliseconds())),
	)

	if len(outcome.Arguments) == 0 {
		f.Println("%s", f.Dim("No arguments supplied"))
	} else {
		names := make([]string, 0, len(outcome.Arguments))
		for name := range outcome.Arguments {
			names = append(names, name)
		}
		sort.Strings(names)
		rows := make([][]string, 0, len(names))
		for _, name := range names {
			rows = append(rows, []string{name, argValueString(outcome.Arguments[name])})
		}
		f.Println("%s", f.Bold("Arguments:"))
		f.Table(output.TableData{
			Columns: []output.TableColumn{{Header: "NAME"}, {Header: "VALUE"}},
			Rows:    rows,
		})
	}
	f.Println("")

	if raw {
		f.Println("%s", f.Bold("Raw Result:"))
		f.Println("%s", prettyJSON(outcome.Result))
		return
	}
	f.Println("%s", f.Bold("Result Summary:"))
	f.Println("%s", prettyJSON(outcome.Result))
	f.Println("")
	f.Println("%s", f.Dim("Use --raw to see full call result payload"))
}

// argValueString renders a coerced argument for the human table. Strings
// print bare; everything else prints as JSON.
func argValueString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(b)
}

func prettyJSON(raw json.RawMessage) string {
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return string(raw)
	}
	return buf.String()
}

// elapsedOrWall prefers the runner's measured elapsed time, falling back to
// wall clock when no outcome was produced.
func elapsedOrWall(outcome *invoke.Outcome, started time.Time) int64 {
	if outcome != nil {
		return outcome.Elapsed.Milliseconds()
	}
	return time.Since(started).Milliseconds()
}
