// Package prompt provides interactive terminal input for parameter and tool
// selection.
package prompt

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/chzyer/readline"

	"github.com/mcptap/mcptap/internal/domain/mcp"
)

// ErrInvalidSelection indicates the tool selection input was not usable.
var ErrInvalidSelection = errors.New("invalid selection")

// AskValue reads one parameter value from the terminal. Callers re-prompt on
// empty input; this only reads a single line.
func AskValue(name, typ string) (string, error) {
	rl, err := readline.New(fmt.Sprintf("Enter value for required parameter '%s' (%s): ", name, typ))
	if err != nil {
		return "", fmt.Errorf("could not create readline: %w", err)
	}
	defer rl.Close()

	line, err := rl.Readline()
	if err == io.EOF || err == readline.ErrInterrupt {
		return "", fmt.Errorf("input aborted")
	}
	if err != nil {
		return "", err
	}
	return line, nil
}

// SelectTool presents a numbered tool menu and reads a choice. The input may
// be an index into the list or a tool name.
func SelectTool(w io.Writer, tools []*mcp.Tool) (string, error) {
	if len(tools) == 0 {
		return "", fmt.Errorf("%w: no tools available", ErrInvalidSelection)
	}

	fmt.Fprintln(w, "Available tools:")
	for i, tool := range tools {
		desc := tool.Description()
		if desc != "" {
			fmt.Fprintf(w, "  %d. %s - %s\n", i+1, tool.Name(), desc)
		} else {
			fmt.Fprintf(w, "  %d. %s\n", i+1, tool.Name())
		}
	}

	rl, err := readline.New("Select a tool (number or name): ")
	if err != nil {
		return "", fmt.Errorf("could not create readline: %w", err)
	}
	defer rl.Close()

	line, err := rl.Readline()
	if err == io.EOF || err == readline.ErrInterrupt {
		return "", fmt.Errorf("input aborted")
	}
	if err != nil {
		return "", err
	}

	return ResolveSelection(tools, line)
}

// ResolveSelection maps raw selection input to a tool name.
func ResolveSelection(tools []*mcp.Tool, input string) (string, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return "", fmt.Errorf("%w: empty input", ErrInvalidSelection)
	}

	if n, err := strconv.Atoi(input); err == nil {
		if n < 1 || n > len(tools) {
			return "", fmt.Errorf("%w: %d is out of range", ErrInvalidSelection, n)
		}
		return tools[n-1].Name(), nil
	}

	if tool := mcp.FindTool(tools, input); tool != nil {
		return tool.Name(), nil
	}
	// Fall back to the literal input; resolution happens again downstream
	// and reports a proper not-found error.
	return input, nil
}
