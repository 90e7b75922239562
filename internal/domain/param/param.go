// Package param collects and coerces tool call parameters.
package param

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/mcptap/mcptap/internal/domain/mcp"
)

// Parameter errors.
var (
	// ErrInvalidPair indicates a KEY=VALUE argument could not be split.
	ErrInvalidPair = errors.New("invalid parameter (expected KEY=VALUE)")

	// ErrEmptyKey indicates a KEY=VALUE argument had an empty key.
	ErrEmptyKey = errors.New("invalid parameter (empty key)")

	// ErrFileUnreadable indicates the parameter file could not be read.
	ErrFileUnreadable = errors.New("failed to read param file")

	// ErrFileSyntax indicates the parameter file could not be parsed.
	ErrFileSyntax = errors.New("failed to parse param file")

	// ErrFileNotObject indicates the parameter file root is not an object.
	ErrFileNotObject = errors.New("param file root must be an object")

	// ErrMissingRequired indicates a required parameter was not provided.
	ErrMissingRequired = errors.New("missing required parameter")
)

// Map holds collected parameters as raw string values, keyed by name.
type Map map[string]string

// ParsePairs splits KEY=VALUE arguments into a Map. Values are split at the
// first '=', so values may contain '='. Later duplicates overwrite earlier
// ones.
func ParsePairs(pairs []string) (Map, error) {
	m := make(Map, len(pairs))
	for _, pair := range pairs {
		key, value, err := SplitPair(pair)
		if err != nil {
			return nil, err
		}
		m[key] = value
	}
	return m, nil
}

// SplitPair splits a single KEY=VALUE argument.
func SplitPair(pair string) (key, value string, err error) {
	idx := strings.Index(pair, "=")
	if idx < 0 {
		return "", "", fmt.Errorf("%w: %s", ErrInvalidPair, pair)
	}
	key = strings.TrimSpace(pair[:idx])
	if key == "" {
		return "", "", fmt.Errorf("%w: %s", ErrEmptyKey, pair)
	}
	return key, strings.TrimSpace(pair[idx+1:]), nil
}

// MergeFile loads a JSON or YAML parameter file and merges its top-level
// entries into m. Keys already present in m win; file entries never overwrite
// them. Non-string file values are stored as their canonical JSON text.
//
// The format is chosen by extension: .yaml and .yml parse as YAML, everything
// else as JSON.
func MergeFile(m Map, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("%w %s: %v", ErrFileUnreadable, path, err)
	}

	var root any
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &root)
	default:
		err = json.Unmarshal(data, &root)
	}
	if err != nil {
		return fmt.Errorf("%w %s: %v", ErrFileSyntax, path, err)
	}

	obj, ok := root.(map[string]any)
	if !ok {
		return fmt.Errorf("%w: %s", ErrFileNotObject, path)
	}

	for key, value := range obj {
		if _, exists := m[key]; exists {
			continue
		}
		if s, isString := value.(string); isString {
			m[key] = s
			continue
		}
		text, err := json.Marshal(value)
		if err != nil {
			return fmt.Errorf("%w %s: key %q: %v", ErrFileSyntax, path, key, err)
		}
		m[key] = string(text)
	}
	return nil
}

// AskFunc prompts for one parameter value and returns the raw input.
type AskFunc func(name, typ string) (string, error)

// FillRequired prompts for every required schema parameter missing from m,
// in schema declaration order. Empty input is rejected and the prompt
// repeats.
func FillRequired(schema *mcp.InputSchema, m Map, ask AskFunc) error {
	for _, name := range schema.Required {
		if _, ok := m[name]; ok {
			continue
		}
		for {
			value, err := ask(name, schema.TypeOf(name))
			if err != nil {
				return err
			}
			value = strings.TrimSpace(value)
			if value != "" {
				m[name] = value
				break
			}
		}
	}
	return nil
}
