package apiclient

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// listKeys are the envelope fields the backend uses for collections.
var listKeys = []string{"data", "items", "games", "transactions", "methods", "bonuses", "users", "levels", "content", "results"}

// decodeList accepts either a bare JSON array or an object wrapping one.
func decodeList[T any](raw json.RawMessage) ([]T, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return []T{}, nil
	}

	if raw[0] == '[' {
		var out []T
		if err := json.Unmarshal(raw, &out); err != nil {
			return nil, fmt.Errorf("decode list: %w", err)
		}
		return out, nil
	}

	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, fmt.Errorf("decode list envelope: %w", err)
	}
	for _, key := range listKeys {
		if inner, ok := envelope[key]; ok {
			return decodeList[T](inner)
		}
	}
	return []T{}, nil
}

// decodeObject accepts either the object itself or {"<key>": object} / {"data": object}.
func decodeObject[T any](raw json.RawMessage, key string) (T, error) {
	var zero T

	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return zero, fmt.Errorf("decode object: %w", err)
	}
	for _, k := range []string{key, "data"} {
		inner := bytes.TrimSpace(envelope[k])
		if len(inner) > 0 && inner[0] == '{' {
			raw = inner
			break
		}
	}

	var out T
	if err := json.Unmarshal(raw, &out); err != nil {
		return zero, fmt.Errorf("decode object: %w", err)
	}
	return out, nil
}
