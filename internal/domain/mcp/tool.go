package mcp

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Tool represents a tool advertised by an MCP server.
// It is a value object - immutable after creation.
type Tool struct {
	name        string
	description string
	inputSchema json.RawMessage
	raw         json.RawMessage
}

// NewTool creates a new Tool with validation.
func NewTool(name, description string, inputSchema json.RawMessage) (*Tool, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidTool)
	}

	return &Tool{
		name:        name,
		description: description,
		inputSchema: inputSchema,
	}, nil
}

// ParseTool decodes a raw JSON tool descriptor into a Tool. The input schema
// is accepted under either the snake_case or camelCase field name; servers in
// the wild emit both.
func ParseTool(raw json.RawMessage) (*Tool, error) {
	var def struct {
		Name        string          `json:"name"`
		Description string          `json:"description"`
		SnakeSchema json.RawMessage `json:"input_schema"`
		CamelSchema json.RawMessage `json:"inputSchema"`
	}
	if err := json.Unmarshal(raw, &def); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTool, err)
	}

	schema := def.SnakeSchema
	if schema == nil {
		schema = def.CamelSchema
	}

	tool, err := NewTool(def.Name, def.Description, schema)
	if err != nil {
		return nil, err
	}
	tool.raw = raw
	return tool, nil
}

// Name returns the tool's name.
func (t *Tool) Name() string { return t.name }

// Description returns the tool's description.
func (t *Tool) Description() string { return t.description }

// InputSchema returns the raw JSON Schema describing the tool's input.
func (t *Tool) InputSchema() json.RawMessage { return t.inputSchema }

// Raw returns the original descriptor JSON, or nil if the tool was not parsed
// from a wire descriptor.
func (t *Tool) Raw() json.RawMessage { return t.raw }

// Schema decodes the input schema into a structured form. A missing schema
// yields an empty schema; a schema whose properties are not an object is an
// error.
func (t *Tool) Schema() (*InputSchema, error) {
	if len(t.inputSchema) == 0 {
		return &InputSchema{}, nil
	}

	var schema InputSchema
	if err := json.Unmarshal(t.inputSchema, &schema); err != nil {
		return nil, fmt.Errorf("%w for tool %q: %v", ErrInvalidSchema, t.name, err)
	}
	return &schema, nil
}

// InputSchema is the decoded JSON Schema for a tool's arguments.
type InputSchema struct {
	Type       string              `json:"type,omitempty"`
	Properties map[string]Property `json:"properties,omitempty"`
	Required   []string            `json:"required,omitempty"`
}

// Property describes one schema property.
type Property struct {
	Type        string `json:"type,omitempty"`
	Description string `json:"description,omitempty"`
}

// TypeOf returns the declared type of a property, or "string" when the
// property is unknown or untyped.
func (s *InputSchema) TypeOf(name string) string {
	if p, ok := s.Properties[name]; ok && p.Type != "" {
		return p.Type
	}
	return "string"
}

// FindTool returns the tool matching name, compared case-insensitively.
// Returns nil when no tool matches.
func FindTool(tools []*Tool, name string) *Tool {
	for _, t := range tools {
		if strings.EqualFold(t.Name(), name) {
			return t
		}
	}
	return nil
}
