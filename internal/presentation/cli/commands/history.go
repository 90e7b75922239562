package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/mcptap/mcptap/internal/infrastructure/storage"
	"github.com/mcptap/mcptap/internal/presentation/cli/output"
)

// historyEntry is one invocation record in history output.
type historyEntry struct {
	ID        string `json:"id"`
	Tool      string `json:"tool"`
	Target    string `json:"target"`
	Word      string `json:"word,omitempty"`
	Status    string `json:"status"`
	Error     string `json:"error,omitempty"`
	ElapsedMS int64  `json:"elapsed_ms"`
	StartedAt string `json:"started_at"`
}

type historyOutput struct {
	Status  string         `json:"status"`
	Count   int            `json:"count"`
	Records []historyEntry `json:"records"`
}

// NewHistoryCmd creates the history command for browsing past invocations.
func NewHistoryCmd() *cobra.Command {
	var (
		tool     string
		status   string
		limit    int
		jsonMode bool
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent tool invocations",
		Long: `Show recent tool invocations recorded in the local history database,
newest first. Fuzzing iterations are recorded with their wordlist entry.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(cmd, tool, status, limit, jsonMode)
		},
	}

	cmd.Flags().StringVar(&tool, "tool", "", "filter by tool name")
	cmd.Flags().StringVar(&status, "status", "", "filter by status (ok or error)")
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum number of records")
	cmd.Flags().BoolVar(&jsonMode, "json", false, "output JSON instead of human-readable text")

	return cmd
}

func runHistory(cmd *cobra.Command, tool, status string, limit int, jsonMode bool) error {
	formatter := newCommandFormatter(cmd, jsonMode)

	repo := openHistory()
	if repo == nil {
		return reportError(formatter, jsonMode, "history is not available (disabled in config or database unreachable)")
	}
	defer repo.Close()

	records, err := repo.Recent(cmd.Context(), storage.Filter{
		Tool:   tool,
		Status: status,
		Limit:  limit,
	})
	if err != nil {
		return reportError(formatter, jsonMode, "failed to read history: %s", err.Error())
	}

	if jsonMode {
		entries := make([]historyEntry, 0, len(records))
		for _, rec := range records {
			entries = append(entries, historyEntry{
				ID:        rec.ID,
				Tool:      rec.Tool,
				Target:    rec.Target,
				Word:      rec.Word,
				Status:    rec.Status,
				Error:     rec.Error,
				ElapsedMS: rec.ElapsedMS,
				StartedAt: rec.StartedAt.UTC().Format(time.RFC3339),
			})
		}
		return formatter.JSON(historyOutput{Status: "ok", Count: len(entries), Records: entries})
	}

	if len(records) == 0 {
		formatter.Println("No invocations recorded.")
		return nil
	}

	formatter.Box(
		formatter.Bold(fmt.Sprintf("History (%d)", len(records))),
	)
	rows := make([][]string, 0, len(records))
	for _, rec := range records {
		rows = append(rows, []string{
			shortID(rec.ID),
			rec.Tool,
			rec.Word,
			rec.Status,
			fmt.Sprintf("%d ms", rec.ElapsedMS),
			rec.StartedAt.Local().Format("2006-01-02 15:04:05"),
		})
	}
	formatter.Table(output.TableData{
		Columns: []output.TableColumn{
			{Header: "ID"},
			{Header: "TOOL"},
			{Header: "WORD"},
			{Header: "STATUS"},
			{Header: "ELAPSED", Align: output.AlignRight},
			{Header: "STARTED"},
		},
		Rows: rows,
	})
	return nil
}

// shortID trims a UUID to its first block for display.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
