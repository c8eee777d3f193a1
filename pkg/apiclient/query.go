package apiclient

import (
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
)

// BuildQuery encodes only the present parameters: nil values, nil pointers,
// blank strings and empty slices are omitted entirely rather than sent empty.
func BuildQuery(params map[string]any) url.Values {
	values := url.Values{}
	keys := make([]string, 0, len(params))
	for key := range params {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		if strings.TrimSpace(key) == "" {
			continue
		}
		switch v := params[key].(type) {
		case nil:
		case string:
			appendValue(values, key, v)
		case *string:
			if v != nil {
				appendValue(values, key, *v)
			}
		case bool:
			values.Set(key, strconv.FormatBool(v))
		case *bool:
			if v != nil {
				values.Set(key, strconv.FormatBool(*v))
			}
		case int:
			values.Set(key, strconv.Itoa(v))
		case *int:
			if v != nil {
				values.Set(key, strconv.Itoa(*v))
			}
		case int64:
			values.Set(key, strconv.FormatInt(v, 10))
		case float64:
			values.Set(key, strconv.FormatFloat(v, 'f', -1, 64))
		case []string:
			for _, item := range v {
				if normalized := strings.TrimSpace(item); normalized != "" {
					values.Add(key, normalized)
				}
			}
		case fmt.Stringer:
			appendValue(values, key, v.String())
		default:
			appendValue(values, key, fmt.Sprint(v))
		}
	}
	return values
}

func appendValue(values url.Values, key, value string) {
	normalized := strings.TrimSpace(value)
	if normalized == "" {
		return
	}
	values.Set(key, normalized)
}

// withQuery joins a path and an encoded query string.
func withQuery(path string, query url.Values) string {
	if encoded := query.Encode(); encoded != "" {
		return path + "?" + encoded
	}
	return path
}
