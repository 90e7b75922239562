package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/mcptap/mcptap/internal/application/fuzz"
	"github.com/mcptap/mcptap/internal/domain/param"
	"github.com/mcptap/mcptap/internal/infrastructure/storage"
	"github.com/mcptap/mcptap/internal/presentation/cli/output"
)

// fuzzRecord is the JSON shape for one successful fuzz iteration. Records
// are emitted one per line so the stream can be piped into jq.
type fuzzRecord struct {
	Status        string          `json:"status"`
	RequestIndex  int             `json:"request_index"`
	TotalRequests int             `json:"total_requests"`
	Word          string          `json:"word"`
	Tool          string          `json:"tool"`
	Target        string          `json:"target"`
	ElapsedMS     int64           `json:"elapsed_ms"`
	Arguments     map[string]any  `json:"arguments"`
	ResultSummary json.RawMessage `json:"result_summary,omitempty"`
	Result        json.RawMessage `json:"result,omitempty"`
}

// fuzzErrorRecord is the JSON shape for one failed fuzz iteration.
type fuzzErrorRecord struct {
	Status        string `json:"status"`
	RequestIndex  int    `json:"request_index"`
	TotalRequests int    `json:"total_requests"`
	Word          string `json:"word"`
	Error         string `json:"error"`
}

// NewFuzzCmd creates the fuzz command for wordlist-driven tool invocation.
func NewFuzzCmd() *cobra.Command {
	var (
		params      []string
		paramFile   string
		wordlist    string
		placeholder string
		raw         bool
		jsonMode    bool
	)

	cmd := &cobra.Command{
		Use:   "fuzz <subject> <tool>",
		Short: "Invoke a tool once per wordlist entry",
		Long: `Invoke a tool repeatedly, substituting each wordlist entry into the
parameter values wherever the placeholder appears.

  mcptap fuzz tool file.read --param path=FUZZ -w wordlist.txt

Entries from --param-file are merged as-is and never substituted. A failing
invocation is reported and the run continues with the next word.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFuzz(cmd, fuzzRequest{
				subject:     args[0],
				tool:        args[1],
				params:      params,
				paramFile:   paramFile,
				wordlist:    wordlist,
				placeholder: placeholder,
				raw:         raw,
				jsonMode:    jsonMode,
			})
		},
	}

	cmd.Flags().StringArrayVar(&params, "param", nil, "tool parameter (KEY=VALUE), repeatable; placeholder is substituted per word")
	cmd.Flags().StringVar(&paramFile, "param-file", "", "load parameters from a JSON or YAML file (not substituted)")
	cmd.Flags().StringVarP(&wordlist, "wordlist", "w", "", "path to the wordlist file (one word per line)")
	cmd.Flags().StringVarP(&placeholder, "placeholder", "p", fuzz.DefaultPlaceholder, "placeholder replaced by each word")
	cmd.Flags().BoolVar(&raw, "raw", false, "include the full call result instead of a summary")
	cmd.Flags().BoolVar(&jsonMode, "json", false, "output one JSON record per request")
	cmd.MarkFlagRequired("wordlist")

	return cmd
}

type fuzzRequest struct {
	subject     string
	tool        string
	params      []string
	paramFile   string
	wordlist    string
	placeholder string
	raw         bool
	jsonMode    bool
}

func runFuzz(cmd *cobra.Command, req fuzzRequest) error {
	formatter := newCommandFormatter(cmd, req.jsonMode)

	subject, err := ParseSubject(req.subject)
	if err != nil {
		return reportError(formatter, req.jsonMode, "%s", err.Error())
	}
	if subject != SubjectTool {
		return reportError(formatter, req.jsonMode, "fuzz currently supports only subject 'tool'")
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
		return reportError(formatter, req.jsonMode, "remote fuzz not implemented yet")
	}

	words, err := fuzz.LoadWordlist(req.wordlist)
	if err != nil {
		return reportError(formatter, req.jsonMode, "failed to open wordlist file %s: %s", req.wordlist, err.Error())
	}

	fileParams := param.Map{}
	if req.paramFile != "" {
		if err := param.MergeFile(fileParams, req.paramFile); err != nil {
			return reportError(formatter, req.jsonMode, "%s", err.Error())
		}
	}

	if !req.jsonMode {
		formatter.Println("Starting fuzz session: %d requests for tool '%s'", len(words), toolName)
	}

	repo := openHistory()
	if repo != nil {
		defer repo.Close()
	}

	driver := fuzz.NewDriver(newRunner())
	opts := fuzz.Options{
		Spec:        spec,
		Tool:        toolName,
		RawParams:   req.params,
		FileParams:  fileParams,
		Placeholder: req.placeholder,
	}

	reporter := func(it fuzz.Iteration) {
		reportIteration(cmd.Context(), formatter, repo, spec.String(), toolName, req, it)
	}
	if err := driver.Run(cmd.Context(), opts, reporter, words); err != nil {
		return reportError(formatter, req.jsonMode, "%s", err.Error())
	}
	return nil
}

// reportIteration renders one iteration and persists it to history.
// Individual failures are part of a normal run and never abort it.
func reportIteration(ctx context.Context, f *output.Formatter, repo *storage.HistoryRepo, targetStr, toolName string, req fuzzRequest, it fuzz.Iteration) {
	rec := storage.Record{
		Tool:      toolName,
		Target:    targetStr,
		Word:      it.Word,
		ElapsedMS: it.Elapsed.Milliseconds(),
		StartedAt: time.Now().Add(-it.Elapsed),
	}

	if it.Err != nil {
		rec.Status = "error"
		rec.Error = it.Err.Error()
		if it.Outcome != nil {
			rec.ID = it.Outcome.RunID
		}
		recordHistory(ctx, repo, rec)

		if req.jsonMode {
			f.JSONCompact(fuzzErrorRecord{
				Status:        "error",
				RequestIndex:  it.Index,
				TotalRequests: it.Total,
				Word:          it.Word,
				Error:         it.Err.Error(),
			})
			return
		}
		f.Println("✗ Request %d/%d: word='%s' -> %s", it.Index+1, it.Total, it.Word, it.Err.Error())
		return
	}

	rec.Status = "ok"
	rec.ID = it.Outcome.RunID
	rec.ElapsedMS = it.Outcome.Elapsed.Milliseconds()
	recordHistory(ctx, repo, rec)

	if req.jsonMode {
		record := fuzzRecord{
			Status:        "ok",
			RequestIndex:  it.Index,
			TotalRequests: it.Total,
			Word:          it.Word,
			Tool:          toolName,
			Target:        targetStr,
			ElapsedMS:     it.Outcome.Elapsed.Milliseconds(),
			Arguments:     it.Outcome.Arguments,
		}
		if req.raw {
			record.Result = it.Outcome.Result
		} else {
			record.ResultSummary = it.Outcome.Result
		}
		f.JSONCompact(record)
		return
	}
	f.Println("✓ Request %d/%d: word='%s' -> %s", it.Index+1, it.Total, it.Word, compactJSON(it.Outcome.Result))
}

func compactJSON(raw json.RawMessage) string {
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return string(raw)
	}
	return buf.String()
}
