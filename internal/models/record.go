package models

import (
	"encoding/json"
	"strconv"
)

// Record is a server-owned entity identified by an immutable string id.
type Record interface {
	GetID() string
}

// Document is an opaque record whose fields are not modelled; it is what the
// console and the CLI work with when a resource is picked at runtime.
type Document map[string]any

// GetID returns the record id from "id" or "_id".
func (d Document) GetID() string {
	for _, key := range []string{"id", "_id"} {
		switch v := d[key].(type) {
		case string:
			if v != "" {
				return v
			}
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64)
		case json.Number:
			return v.String()
		}
	}
	return ""
}

// Bool reads a boolean field, reporting whether it was present and boolean.
func (d Document) Bool(field string) (bool, bool) {
	v, ok := d[field].(bool)
	return v, ok
}

// String renders a field for tabular output.
func (d Document) String(field string) string {
	switch v := d[field].(type) {
	case nil:
		return ""
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		raw, err := json.Marshal(v)
		if err != nil {
			return ""
		}
		return string(raw)
	}
}
