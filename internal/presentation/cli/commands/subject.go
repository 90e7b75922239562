package commands

import (
	"fmt"
	"strings"
)

// Subject names a category of server capabilities addressed by a command.
type Subject string

const (
	SubjectTools     Subject = "tools"
	SubjectTool      Subject = "tool"
	SubjectResources Subject = "resources"
	SubjectPrompts   Subject = "prompts"
)

// ParseSubject resolves a subject argument, case-insensitively.
func ParseSubject(raw string) (Subject, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "tools":
		return SubjectTools, nil
	case "tool":
		return SubjectTool, nil
	case "resources":
		return SubjectResources, nil
	case "prompts":
		return SubjectPrompts, nil
	default:
		return "", fmt.Errorf("unknown subject %q (expected tools, tool, resources, or prompts)", raw)
	}
}

// String returns the subject's canonical name.
func (s Subject) String() string { return string(s) }

// Implemented reports whether the subject has server support today. Only
// tool listing and invocation are wired; resources and prompts are
// placeholders.
func (s Subject) Implemented() bool {
	return s == SubjectTools || s == SubjectTool
}
