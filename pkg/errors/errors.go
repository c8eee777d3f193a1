package errors

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Kind groups error codes into the categories callers act on.
type Kind string

const (
	KindTransport  Kind = "transport"
	KindValidation Kind = "validation"
	KindNotFound   Kind = "not_found"
	KindConflict   Kind = "conflict"
	KindAuth       Kind = "auth"
	KindOther      Kind = "other"
)

// FieldError describes a single per-field validation message.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error represents a typed domain error with HTTP awareness.
type Error struct {
	Code    string       `json:"code"`
	Message string       `json:"message"`
	Status  int          `json:"status"`
	Fields  []FieldError `json:"fields,omitempty"`
	Err     error        `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is matches errors sharing the same code so errors.Is works against the predefined values.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) || e == nil || t == nil {
		return false
	}
	return e.Code == t.Code
}

// Kind classifies the error by its code.
func (e *Error) Kind() Kind {
	if e == nil {
		return KindOther
	}
	switch e.Code {
	case ErrTransport.Code, ErrDecode.Code:
		return KindTransport
	case ErrValidation.Code:
		return KindValidation
	case ErrNotFound.Code:
		return KindNotFound
	case ErrConflict.Code:
		return KindConflict
	case ErrUnauthorized.Code, ErrForbidden.Code:
		return KindAuth
	default:
		return KindOther
	}
}

// New creates a new Error instance.
func New(code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message}
}

// Wrap attaches context to an existing error.
func Wrap(err error, code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message, Err: err}
}

// Predefined errors for common scenarios.
var (
	ErrNotFound     = New("NOT_FOUND", http.StatusNotFound, "resource not found")
	ErrForbidden    = New("FORBIDDEN", http.StatusForbidden, "forbidden")
	ErrUnauthorized = New("UNAUTHORIZED", http.StatusUnauthorized, "unauthorized")
	ErrConflict     = New("CONFLICT", http.StatusConflict, "conflict")
	ErrValidation   = New("VALIDATION_ERROR", http.StatusBadRequest, "validation failed")
	ErrInternal     = New("INTERNAL_ERROR", http.StatusInternalServerError, "internal server error")
	ErrUpstream     = New("UPSTREAM_ERROR", http.StatusBadGateway, "upstream request failed")
	ErrTransport    = New("TRANSPORT_ERROR", http.StatusBadGateway, "unable to reach the server")
	ErrDecode       = New("DECODE_ERROR", http.StatusBadGateway, "unexpected response from the server")
	ErrViewClosed   = New("VIEW_CLOSED", http.StatusGone, "view is closed")
	ErrUnsupported  = New("UNSUPPORTED", http.StatusBadRequest, "operation not supported")
)

// FromError normalises any error into an *Error.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Wrap(err, ErrInternal.Code, ErrInternal.Status, ErrInternal.Message)
}

// FromStatus maps an upstream HTTP status onto a typed error. An empty message
// falls back to a generic one naming the status.
func FromStatus(status int, message string) *Error {
	var base *Error
	switch status {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		base = ErrValidation
	case http.StatusNotFound, http.StatusGone:
		base = ErrNotFound
	case http.StatusConflict:
		base = ErrConflict
	case http.StatusUnauthorized:
		base = ErrUnauthorized
	case http.StatusForbidden:
		base = ErrForbidden
	default:
		base = ErrUpstream
	}
	message = strings.TrimSpace(message)
	if message == "" {
		message = fmt.Sprintf("request failed with status %d", status)
	}
	return &Error{Code: base.Code, Status: status, Message: message}
}

// Clone returns a copy of the error allowing for message overrides.
func Clone(err *Error, message string) *Error {
	if err == nil {
		return nil
	}
	clone := *err
	if message != "" {
		clone.Message = message
	}
	if len(err.Fields) > 0 {
		clone.Fields = append([]FieldError(nil), err.Fields...)
	}
	return &clone
}

// WithFields returns a copy of err carrying the provided field messages.
func WithFields(err *Error, fields []FieldError) *Error {
	if err == nil {
		return nil
	}
	clone := Clone(err, "")
	clone.Fields = append([]FieldError(nil), fields...)
	return clone
}
