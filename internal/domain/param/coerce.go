package param

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/mcptap/mcptap/internal/domain/mcp"
)

// Coerce converts a raw string value according to a JSON Schema type hint.
// Values that do not parse as the hinted type are kept as the raw string so
// the server sees exactly what the user typed.
func Coerce(raw, typ string) any {
	switch typ {
	case "integer":
		if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
			return n
		}
		return raw
	case "number":
		if f, err := strconv.ParseFloat(raw, 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
			return f
		}
		return raw
	case "boolean":
		switch strings.ToLower(raw) {
		case "true", "1", "yes", "y":
			return true
		case "false", "0", "no", "n":
			return false
		}
		return raw
	case "array":
		parts := strings.Split(raw, ",")
		items := make([]any, 0, len(parts))
		for _, p := range parts {
			items = append(items, strings.TrimSpace(p))
		}
		return items
	default:
		return raw
	}
}

// BuildArguments coerces provided parameters against the schema and verifies
// every required parameter is present. Parameters without a schema property
// pass through as strings. Required parameters are checked in schema
// declaration order so the first missing one is reported deterministically;
// a required name with no declared property is ignored, matching servers
// that list stale names in required.
func BuildArguments(schema *mcp.InputSchema, provided Map) (map[string]any, error) {
	for _, name := range schema.Required {
		if _, declared := schema.Properties[name]; !declared {
			continue
		}
		if _, ok := provided[name]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingRequired, name)
		}
	}

	if len(provided) == 0 {
		return nil, nil
	}

	args := make(map[string]any, len(provided))
	for name, raw := range provided {
		args[name] = Coerce(raw, schema.TypeOf(name))
	}
	return args, nil
}
