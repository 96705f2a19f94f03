package tools

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ParseArguments decodes the raw JSON argument string emitted by the model
// into a flat string map. The model is expected to send string values, but
// providers occasionally emit numbers or booleans; scalars are coerced to
// their string form and composite values are re-encoded as JSON.
func ParseArguments(raw string) (map[string]string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return map[string]string{}, nil
	}
	var decoded map[string]interface{}
	if err := json.Unmarshal([]byte(trimmed), &decoded); err != nil {
		return nil, fmt.Errorf("parse tool arguments: %w", err)
	}
	args := make(map[string]string, len(decoded))
	for k, v := range decoded {
		switch val := v.(type) {
		case string:
			args[k] = val
		case nil:
			args[k] = ""
		case float64, bool:
			args[k] = fmt.Sprintf("%v", val)
		default:
			encoded, err := json.Marshal(val)
			if err != nil {
				return nil, fmt.Errorf("encode argument %q: %w", k, err)
			}
			args[k] = string(encoded)
		}
	}
	return args, nil
}
