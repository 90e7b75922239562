package commands

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/mcptap/mcptap/internal/domain/mcp"
	"github.com/mcptap/mcptap/internal/presentation/cli/output"
	"github.com/mcptap/mcptap/internal/presentation/cli/prompt"
)

// paramInfo is one schema parameter in get output.
type paramInfo struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Required    bool   `json:"required"`
	Description string `json:"description"`
}

// toolDetail is one enriched tool entry in 'get tools' output.
type toolDetail struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Parameters  []paramInfo `json:"parameters"`
}

// getToolsOutput is the JSON shape for 'get tools'.
type getToolsOutput struct {
	Status    string       `json:"status"`
	Subject   string       `json:"subject"`
	Target    *string      `json:"target"`
	ElapsedMS int64        `json:"elapsed_ms,omitempty"`
	Count     int          `json:"count"`
	Tools     []toolDetail `json:"tools"`
	Note      string       `json:"note,omitempty"`
}

// getToolOutput is the JSON shape for 'get tool <name>'.
type getToolOutput struct {
	Status     string          `json:"status"`
	Subject    string          `json:"subject"`
	Target     *string         `json:"target"`
	ElapsedMS  int64           `json:"elapsed_ms,omitempty"`
	Name       string          `json:"name,omitempty"`
	Tool       json.RawMessage `json:"tool,omitempty"`
	Parameters []paramInfo     `json:"parameters,omitempty"`
	Note       string          `json:"note,omitempty"`
}

// getNotFoundOutput is the shape for a tool that does not exist. The command
// still completes; a missing tool is an answer, not a failure.
type getNotFoundOutput struct {
	Status    string  `json:"status"`
	Error     string  `json:"error"`
	Requested string  `json:"requested"`
	Subject   string  `json:"subject"`
	Target    *string `json:"target"`
}

// NewGetCmd creates the get command for inspecting tool schemas.
func NewGetCmd() *cobra.Command {
	var jsonMode bool

	cmd := &cobra.Command{
		Use:   "get <subject> [name]",
		Short: "Inspect tool schemas on the target server",
		Long: `Retrieve schema details for tools on the target server.

'get tools' shows every tool with its full parameter list. 'get tool <name>'
shows a single tool; when the name is omitted, an interactive selection menu
is offered.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := ""
			if len(args) == 2 {
				name = args[1]
			}
			return runGet(cmd, args[0], name, jsonMode)
		},
	}

	cmd.Flags().BoolVar(&jsonMode, "json", false, "output JSON instead of human-readable text")

	return cmd
}

func runGet(cmd *cobra.Command, rawSubject, name string, jsonMode bool) error {
	formatter := newCommandFormatter(cmd, jsonMode)

	subject, err := ParseSubject(rawSubject)
	if err != nil {
		return reportError(formatter, jsonMode, "%s", err.Error())
	}
	if !subject.Implemented() {
		if jsonMode {
			return formatter.JSON(getToolsOutput{
				Status:  "ok",
				Subject: subject.String(),
				Count:   0,
				Tools:   []toolDetail{},
				Note:    "get for this subject not implemented yet",
			})
		}
		formatter.Println("%s: detailed retrieval not implemented (0 items)", subject)
		return nil
	}

	single := subject == SubjectTool

	spec, err := resolveTarget()
	if err != nil {
		return reportError(formatter, jsonMode, "failed to parse target: %s", err.Error())
	}
	if spec == nil {
		if jsonMode {
			note := "no target specified; use --target or " + TargetEnvVar
			if single {
				return formatter.JSON(getToolOutput{Status: "ok", Subject: "tool", Note: note})
			}
			return formatter.JSON(getToolsOutput{
				Status: "ok", Subject: "tools", Count: 0, Tools: []toolDetail{}, Note: note,
			})
		}
		formatter.Println("No target specified (use --target or set %s).", TargetEnvVar)
		return nil
	}
	targetStr := spec.String()
	if !spec.IsLocal() {
		if jsonMode {
			if single {
				return formatter.JSON(getToolOutput{
					Status: "ok", Subject: "tool", Target: &targetStr,
					Note: "remote single-tool retrieval not implemented yet",
				})
			}
			return formatter.JSON(getToolsOutput{
				Status: "ok", Subject: "tools", Target: &targetStr,
				Count: 0, Tools: []toolDetail{},
				Note: "remote tool retrieval not implemented yet",
			})
		}
		formatter.Println("Remote tool retrieval not implemented (target: %s).", targetStr)
		return nil
	}

	catalog, err := newRunner().Discover(cmd.Context(), spec)
	if err != nil {
		return reportError(formatter, jsonMode, "%s", err.Error())
	}

	if single {
		return renderSingleTool(cmd, formatter, catalog.Tools, targetStr, name, catalog.Elapsed.Milliseconds(), jsonMode)
	}
	return renderAllTools(formatter, catalog.Tools, targetStr, catalog.Elapsed.Milliseconds(), jsonMode)
}

func renderAllTools(f *output.Formatter, tools []*mcp.Tool, targetStr string, elapsedMS int64, jsonMode bool) error {
	details := make([]toolDetail, 0, len(tools))
	for _, tool := range tools {
		details = append(details, describeTool(tool))
	}

	if jsonMode {
		return f.JSON(getToolsOutput{
			Status:    "ok",
			Subject:   "tools",
			Target:    &targetStr,
			ElapsedMS: elapsedMS,
			Count:     len(details),
			Tools:     details,
		})
	}

	f.Box(
		f.Bold(fmt.Sprintf("Tools Detail (%d)", len(details))),
		f.Dim(fmt.Sprintf("target=%s • %d ms", targetStr, elapsedMS)),
	)
	if len(details) == 0 {
		f.Println("(none)")
		return nil
	}
	for i, detail := range details {
		f.Println("")
		f.Println("#%d: %s", i+1, f.Bold(detail.Name))
		f.Println("  Description: %s", orNone(detail.Description))
		printParamTable(f, detail.Parameters)
	}
	return nil
}

func renderSingleTool(cmd *cobra.Command, f *output.Formatter, tools []*mcp.Tool, targetStr, name string, elapsedMS int64, jsonMode bool) error {
	if len(tools) == 0 {
		if jsonMode {
			return f.JSON(getToolOutput{
				Status:  "ok",
				Subject: "tool",
				Target:  &targetStr,
				Note:    "no tools",
			})
		}
		f.Println("The target exposes no tools.")
		return nil
	}

	if name == "" {
		// The menu goes to stderr so JSON stdout stays clean.
		selected, err := prompt.SelectTool(cmd.ErrOrStderr(), tools)
		if err != nil {
			return reportError(f, jsonMode, "%s", err.Error())
		}
		name = selected
	}

	tool := mcp.FindTool(tools, name)
	if tool == nil {
		if jsonMode {
			return f.JSON(getNotFoundOutput{
				Status:    "error",
				Error:     "tool not found",
				Requested: name,
				Subject:   "tool",
				Target:    &targetStr,
			})
		}
		f.Println("Tool '%s' not found.", name)
		return nil
	}

	detail := describeTool(tool)
	if jsonMode {
		return f.JSON(getToolOutput{
			Status:     "ok",
			Subject:    "tool",
			Target:     &targetStr,
			ElapsedMS:  elapsedMS,
			Name:       name,
			Tool:       tool.Raw(),
			Parameters: detail.Parameters,
		})
	}

	f.Box(
		f.Bold("Tool: "+detail.Name),
		f.Dim(fmt.Sprintf("target=%s • %d ms", targetStr, elapsedMS)),
	)
	f.Println("Description: %s", orNone(detail.Description))
	printParamTable(f, detail.Parameters)
	return nil
}

// describeTool flattens a tool's schema into display parameters.
func describeTool(tool *mcp.Tool) toolDetail {
	detail := toolDetail{
		Name:        tool.Name(),
		Description: tool.Description(),
		Parameters:  []paramInfo{},
	}

	schema, err := tool.Schema()
	if err != nil {
		return detail
	}

	required := make(map[string]bool, len(schema.Required))
	for _, name := range schema.Required {
		required[name] = true
	}
	for _, name := range sortedPropertyNames(schema) {
		detail.Parameters = append(detail.Parameters, paramInfo{
			Name:        name,
			Type:        schema.TypeOf(name),
			Required:    required[name],
			Description: schema.Properties[name].Description,
		})
	}
	return detail
}

// sortedPropertyNames returns schema property names in stable order.
func sortedPropertyNames(schema *mcp.InputSchema) []string {
	names := make([]string, 0, len(schema.Properties))
	for name := range schema.Properties {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func printParamTable(f *output.Formatter, params []paramInfo) {
	if len(params) == 0 {
		f.Println("  Parameters: (none)")
		return
	}

	rows := make([][]string, 0, len(params))
	for _, p := range params {
		req := "no"
		if p.Required {
			req = "yes"
		}
		desc := p.Description
		if desc == "" {
			desc = "-"
		}
		rows = append(rows, []string{p.Name, p.Type, req, desc})
	}
	f.Table(output.TableData{
		Columns: []output.TableColumn{
			{Header: "NAME"},
			{Header: "TYPE"},
			{Header: "REQ"},
			{Header: "DESCRIPTION"},
		},
		Rows: rows,
	})
}

func orNone(s string) string {
	if s == "" {
		return "<none>"
	}
	return s
}
