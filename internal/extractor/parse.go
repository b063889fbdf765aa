package extractor

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"sales-auditor-go/internal/types"
)

// ErrIncompleteResponse means the model returned fewer fields than accepted.
var ErrIncompleteResponse = errors.New("AI returned incomplete data")

// ParseDelimited splits a '###' response into a record. A blank response or
// fewer than minFields pieces is ErrIncompleteResponse; otherwise missing
// trailing fields are filled with types.Placeholder and pieces past the 18th
// are ignored.
func ParseDelimited(raw, sourceFile string, minFields int) (*types.CallRecord, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, fmt.Errorf("%w: empty response", ErrIncompleteResponse)
	}
	parts := strings.Split(raw, Delimiter)
	if len(parts) < minFields {
		return nil, fmt.Errorf("%w: got %d fields, need at least %d", ErrIncompleteResponse, len(parts), minFields)
	}

	var fields [types.FieldCount]string
	for i := range fields {
		if i < len(parts) {
			fields[i] = strings.TrimSpace(parts[i])
		} else {
			fields[i] = types.Placeholder
		}
	}
	rec := types.NewCallRecord(fields, sourceFile)
	return &rec, nil
}

// ParseStructured reads a JSON object keyed by types.FieldNames. Missing or
// empty keys become types.Placeholder; fewer than minFields answered keys is
// ErrIncompleteResponse.
func ParseStructured(raw, sourceFile string, minFields int) (*types.CallRecord, error) {
	var obj map[string]any
	if err := json.Unmarshal([]byte(ExtractJSONObject(raw)), &obj); err != nil {
		return nil, fmt.Errorf("decode structured response: %w", err)
	}

	var fields [types.FieldCount]string
	answered := 0
	for i, name := range types.FieldNames {
		v := stringify(obj[name])
		if v == "" {
			fields[i] = types.Placeholder
			continue
		}
		fields[i] = v
		answered++
	}
	if answered < minFields {
		return nil, fmt.Errorf("%w: got %d fields, need at least %d", ErrIncompleteResponse, answered, minFields)
	}
	rec := types.NewCallRecord(fields, sourceFile)
	return &rec, nil
}

func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case bool:
		if t {
			return "Yes"
		}
		return "No"
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case []any:
		parts := make([]string, 0, len(t))
		for _, e := range t {
			if s := stringify(e); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, "; ")
	default:
		b, _ := json.Marshal(t)
		return string(b)
	}
}
