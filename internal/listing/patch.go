package listing

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// mergeRecord overlays the JSON object fields of each patch onto current, in
// order, and decodes the result back into T. Patches that are not JSON
// objects (null, arrays, scalars) are skipped.
func mergeRecord[T any](current T, patches ...any) (T, error) {
	base, err := toObject(current)
	if err != nil {
		return current, fmt.Errorf("encode record: %w", err)
	}
	for _, p := range patches {
		fields, err := toObject(p)
		if err != nil {
			return current, fmt.Errorf("encode patch: %w", err)
		}
		for k, v := range fields {
			base[k] = v
		}
	}
	encoded, err := json.Marshal(base)
	if err != nil {
		return current, fmt.Errorf("encode merged record: %w", err)
	}
	var out T
	if err := json.Unmarshal(encoded, &out); err != nil {
		return current, fmt.Errorf("decode merged record: %w", err)
	}
	return out, nil
}

func toObject(v any) (map[string]json.RawMessage, error) {
	var raw []byte
	switch val := v.(type) {
	case nil:
		return map[string]json.RawMessage{}, nil
	case json.RawMessage:
		raw = val
	case []byte:
		raw = val
	default:
		encoded, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		raw = encoded
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '{' {
		return map[string]json.RawMessage{}, nil
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, err
	}
	return obj, nil
}
