package apiclient

import (
	"bytes"
	"encoding/json"
	"net/http"
	"sort"
	"strings"

	appErrors "github.com/noah-isme/wellness-admin-console/pkg/errors"
)

// envelope is the platform's response wrapper. Every field is optional; bodies
// without any of the marker keys are treated as bare data.
type envelope struct {
	Success    *bool           `json:"success"`
	Data       json.RawMessage `json:"data"`
	Message    string          `json:"message"`
	Error      json.RawMessage `json:"error"`
	Errors     json.RawMessage `json:"errors"`
	Pagination json.RawMessage `json:"pagination"`
}

// parseResponse turns a status code and body into a uniform result.
func parseResponse(status int, body []byte) Result[json.RawMessage] {
	success := status >= 200 && status < 300
	trimmed := bytes.TrimSpace(body)

	if len(trimmed) == 0 {
		if success {
			return Ok[json.RawMessage](nil, nil)
		}
		return Fail[json.RawMessage](appErrors.FromStatus(status, ""))
	}

	var keys map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &keys); err != nil {
		if !success {
			return Fail[json.RawMessage](appErrors.FromStatus(status, ""))
		}
		if !json.Valid(trimmed) {
			return Fail[json.RawMessage](appErrors.Wrap(err, appErrors.ErrDecode.Code, appErrors.ErrDecode.Status, appErrors.ErrDecode.Message))
		}
		return Ok(json.RawMessage(trimmed), json.RawMessage(trimmed))
	}

	if success && !hasAny(keys, "success", "data") {
		return Ok(json.RawMessage(trimmed), json.RawMessage(trimmed))
	}

	var env envelope
	if err := json.Unmarshal(trimmed, &env); err != nil {
		return Fail[json.RawMessage](appErrors.Wrap(err, appErrors.ErrDecode.Code, appErrors.ErrDecode.Status, appErrors.ErrDecode.Message))
	}

	if !success || (env.Success != nil && !*env.Success) {
		if success {
			// a 2xx carrying success=false is a business rejection
			status = http.StatusUnprocessableEntity
		}
		return Fail[json.RawMessage](failureFrom(status, env))
	}

	data := env.Data
	if isEmptyJSON(data) {
		return Ok[json.RawMessage](nil, nil)
	}
	if !isEmptyJSON(env.Pagination) && bytes.HasPrefix(bytes.TrimSpace(data), []byte("[")) {
		folded, err := json.Marshal(map[string]json.RawMessage{"items": data, "pagination": env.Pagination})
		if err == nil {
			data = folded
		}
	}
	return Ok(data, data)
}

func failureFrom(status int, env envelope) *appErrors.Error {
	message := strings.TrimSpace(env.Message)
	var fields []appErrors.FieldError
	for _, raw := range []json.RawMessage{env.Error, env.Errors} {
		msg, f := parseErrorDetail(raw)
		if message == "" {
			message = msg
		}
		fields = append(fields, f...)
	}
	err := appErrors.FromStatus(status, message)
	if len(fields) > 0 {
		err.Fields = fields
	}
	return err
}

// parseErrorDetail understands the shapes the platform uses for failures:
// a plain string, a list of {field,message}, an object with message/fields,
// or a {field: message} map.
func parseErrorDetail(raw json.RawMessage) (string, []appErrors.FieldError) {
	if isEmptyJSON(raw) {
		return "", nil
	}
	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		return text, nil
	}
	var list []json.RawMessage
	if err := json.Unmarshal(raw, &list); err == nil {
		return "", parseFieldList(list)
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return "", nil
	}

	var message string
	if v, ok := obj["message"]; ok {
		_ = json.Unmarshal(v, &message)
	}
	for _, key := range []string{"fields", "details", "errors"} {
		if v, ok := obj[key]; ok {
			var nested []json.RawMessage
			if err := json.Unmarshal(v, &nested); err == nil {
				return message, parseFieldList(nested)
			}
		}
	}
	if message != "" || hasAny(obj, "message", "status") {
		return message, nil
	}

	fields := make([]appErrors.FieldError, 0, len(obj))
	for field, v := range obj {
		var msg string
		if err := json.Unmarshal(v, &msg); err != nil {
			var msgs []string
			if err := json.Unmarshal(v, &msgs); err != nil || len(msgs) == 0 {
				continue
			}
			msg = strings.Join(msgs, "; ")
		}
		fields = append(fields, appErrors.FieldError{Field: field, Message: msg})
	}
	sort.Slice(fields, func(i, j int) bool { return fields[i].Field < fields[j].Field })
	return "", fields
}

func parseFieldList(list []json.RawMessage) []appErrors.FieldError {
	fields := make([]appErrors.FieldError, 0, len(list))
	for _, item := range list {
		var text string
		if err := json.Unmarshal(item, &text); err == nil {
			fields = append(fields, appErrors.FieldError{Message: text})
			continue
		}
		var obj map[string]any
		if err := json.Unmarshal(item, &obj); err != nil {
			continue
		}
		fe := appErrors.FieldError{
			Field:   firstString(obj, "field", "path", "param", "property"),
			Message: firstString(obj, "message", "msg", "reason"),
		}
		if fe.Field == "" && fe.Message == "" {
			continue
		}
		fields = append(fields, fe)
	}
	return fields
}

func firstString(obj map[string]any, keys ...string) string {
	for _, key := range keys {
		if v, ok := obj[key].(string); ok && v != "" {
			return v
		}
	}
	return ""
}

func hasAny(m map[string]json.RawMessage, keys ...string) bool {
	for _, key := range keys {
		if _, ok := m[key]; ok {
			return true
		}
	}
	return false
}
