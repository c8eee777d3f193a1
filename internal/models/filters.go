package models

import (
	"fmt"
	"maps"
	"strconv"
	"strings"
)

// SearchKey is the filter key carrying free-text search.
const SearchKey = "search"

// Filters narrows a collection fetch. Values are strings; an empty string means
// the key is unset, and tri-state booleans are "true", "false" or "".
type Filters map[string]string

// Clone returns an independent copy.
func (f Filters) Clone() Filters {
	out := make(Filters, len(f))
	maps.Copy(out, f)
	return out
}

// Merge returns f with partial shallow-merged on top. f is not modified.
func (f Filters) Merge(partial Filters) Filters {
	out := f.Clone()
	for k, v := range partial {
		out[k] = strings.TrimSpace(v)
	}
	return out
}

// Active returns only the keys carrying a value.
func (f Filters) Active() Filters {
	out := make(Filters, len(f))
	for k, v := range f {
		if strings.TrimSpace(v) != "" {
			out[k] = v
		}
	}
	return out
}

// Equal compares the active keys of two filter sets.
func (f Filters) Equal(other Filters) bool {
	return maps.Equal(f.Active(), other.Active())
}

// FiltersFrom converts loosely typed input, such as decoded JSON, into a filter
// set. nil values become unset keys.
func FiltersFrom(values map[string]any) Filters {
	out := make(Filters, len(values))
	for k, v := range values {
		switch val := v.(type) {
		case nil:
			out[k] = ""
		case string:
			out[k] = strings.TrimSpace(val)
		case bool:
			out[k] = strconv.FormatBool(val)
		case float64:
			out[k] = strconv.FormatFloat(val, 'f', -1, 64)
		default:
			out[k] = fmt.Sprint(val)
		}
	}
	return out
}

// ParseFilterPairs parses "key=value" pairs as given on a command line.
func ParseFilterPairs(pairs []string) (Filters, error) {
	out := make(Filters, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid filter %q, expected key=value", pair)
		}
		out[key] = strings.TrimSpace(value)
	}
	return out, nil
}
