package resonance

import (
	"bytes"
	"encoding/json"
)

// DecodeBatch extracts the raw response list from a request body. The body
// is either {"responses": [...]} or a bare array; any other JSON value is an
// empty batch. Numbers are kept as json.Number.
func DecodeBatch(body []byte) ([]any, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}

	switch doc := v.(type) {
	case []any:
		return doc, nil
	case map[string]any:
		if arr, ok := doc["responses"].([]any); ok {
			return arr, nil
		}
	}
	return []any{}, nil
}
