package commands

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mcptap/mcptap/internal/domain/mcp"
	"github.com/mcptap/mcptap/internal/presentation/cli/output"
)

// toolSummary is one tool entry in list output.
type toolSummary struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// listOutput is the JSON shape for the list command.
type listOutput struct {
	Status    string        `json:"status"`
	Subject   string        `json:"subject"`
	Target    *string       `json:"target"`
	ElapsedMS int64         `json:"elapsed_ms,omitempty"`
	Count     int           `json:"count"`
	Tools     []toolSummary `json:"tools"`
	Note      string        `json:"note,omitempty"`
}

// NewListCmd creates the list command for enumerating server capabilities.
func NewListCmd() *cobra.Command {
	var jsonMode bool

	cmd := &cobra.Command{
		Use:   "list <subject>",
		Short: "List tools exposed by the target server",
		Long: `Enumerate a subject on the target server.

Subjects: tools (tool is accepted as an alias), resources, prompts.
Only tool listing talks to a server today; resources and prompts are
placeholders.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(cmd, args[0], jsonMode)
		},
	}

	cmd.Flags().BoolVar(&jsonMode, "json", false, "output JSON instead of human-readable text")

	return cmd
}

func runList(cmd *cobra.Command, rawSubject string, jsonMode bool) error {
	formatter := newCommandFormatter(cmd, jsonMode)

	subject, err := ParseSubject(rawSubject)
	if err != nil {
		return reportError(formatter, jsonMode, "%s", err.Error())
	}
	if subject == SubjectTool {
		subject = SubjectTools
	}
	if !subject.Implemented() {
		return listPlaceholder(formatter, subject, jsonMode)
	}

	spec, err := resolveTarget()
	if err != nil {
		return reportError(formatter, jsonMode, "failed to parse target: %s", err.Error())
	}
	if spec == nil {
		if jsonMode {
			return formatter.JSON(listOutput{
				Status:  "ok",
				Subject: subject.String(),
				Count:   0,
				Tools:   []toolSummary{},
				Note:    "no target specified; use --target or " + TargetEnvVar,
			})
		}
		formatter.Println("No target specified (use --target or set %s).", TargetEnvVar)
		formatter.Println("Tools (0)")
		return nil
	}

	targetStr := spec.String()
	if !spec.IsLocal() {
		if jsonMode {
			return formatter.JSON(listOutput{
				Status:  "ok",
				Subject: subject.String(),
				Target:  &targetStr,
				Count:   0,
				Tools:   []toolSummary{},
				Note:    "remote tool enumeration not implemented yet",
			})
		}
		formatter.Println("Tools (0) - target: %s (remote enumeration not implemented)", targetStr)
		return nil
	}

	catalog, err := newRunner().Discover(cmd.Context(), spec)
	if err != nil {
		return reportError(formatter, jsonMode, "%s", err.Error())
	}

	if jsonMode {
		items := make([]toolSummary, 0, len(catalog.Tools))
		for _, tool := range catalog.Tools {
			items = append(items, toolSummary{Name: tool.Name(), Description: tool.Description()})
		}
		return formatter.JSON(listOutput{
			Status:    "ok",
			Subject:   subject.String(),
			Target:    &targetStr,
			ElapsedMS: catalog.Elapsed.Milliseconds(),
			Count:     len(items),
			Tools:     items,
		})
	}

	renderToolTable(formatter, catalog.Tools, targetStr, catalog.Elapsed.Milliseconds())
	return nil
}

// renderToolTable prints the boxed header and tool table for human mode.
func renderToolTable(f *output.Formatter, tools []*mcp.Tool, targetStr string, elapsedMS int64) {
	f.Box(
		f.Bold(fmt.Sprintf("Tools (%d)", len(tools))),
		f.Dim(fmt.Sprintf("target=%s • %d ms", targetStr, elapsedMS)),
	)

	if len(tools) == 0 {
		f.Println("%s", f.Dim("(none)"))
		return
	}

	rows := make([][]string, 0, len(tools))
	for i, tool := range tools {
		desc := strings.ReplaceAll(tool.Description(), "\n", " ")
		if len(desc) > 90 {
			desc = desc[:87] + "..."
		}
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			tool.Name(),
			paramSummary(tool),
			desc,
		})
	}
	f.Table(output.TableData{
		Columns: []output.TableColumn{
			{Header: "#", Align: output.AlignRight},
			{Header: "NAME"},
			{Header: "PARAMS"},
			{Header: "DESCRIPTION"},
		},
		Rows: rows,
	})
}

// paramSummary renders up to eight "name:type" pairs for a tool.
func paramSummary(tool *mcp.Tool) string {
	schema, err := tool.Schema()
	if err != nil || len(schema.Properties) == 0 {
		return "-"
	}

	names := sortedPropertyNames(schema)
	pairs := make([]string, 0, len(names))
	for _, name := range names {
		if len(pairs) == 8 {
			pairs = append(pairs, "…")
			break
		}
		pairs = append(pairs, name+":"+schema.TypeOf(name))
	}
	return strings.Join(pairs, ", ")
}

func listPlaceholder(f *output.Formatter, subject Subject, jsonMode bool) error {
	if jsonMode {
		return f.JSON(listOutput{
			Status:  "ok",
			Subject: subject.String(),
			Count:   0,
			Tools:   []toolSummary{},
			Note:    fmt.Sprintf("listing %s not implemented yet", subject),
		})
	}
	f.Println("Listing %s is not implemented yet.", subject)
	return nil
}
