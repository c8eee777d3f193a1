package apiclient

import (
	"bytes"
	"encoding/json"

	appErrors "github.com/noah-isme/wellness-admin-console/pkg/errors"
)

// Result is the uniform outcome of every upstream operation. A Result is
// either OK with a value (and the raw JSON it was decoded from) or failed
// with a typed error. The zero value is a failure.
type Result[T any] struct {
	value T
	raw   json.RawMessage
	err   *appErrors.Error
	ok    bool
}

// Ok builds a successful result.
func Ok[T any](value T, raw json.RawMessage) Result[T] {
	return Result[T]{value: value, raw: raw, ok: true}
}

// Fail builds a failed result. A nil error is replaced by ErrInternal.
func Fail[T any](err *appErrors.Error) Result[T] {
	if err == nil {
		err = appErrors.ErrInternal
	}
	return Result[T]{err: err}
}

// OK reports whether the operation succeeded.
func (r Result[T]) OK() bool { return r.ok }

// Value returns the decoded payload; the zero value on failure.
func (r Result[T]) Value() T { return r.value }

// Raw returns the JSON payload the value was decoded from, nil when the server sent none.
func (r Result[T]) Raw() json.RawMessage { return r.raw }

// Err returns the failure, nil on success.
func (r Result[T]) Err() *appErrors.Error {
	if r.ok {
		return nil
	}
	if r.err == nil {
		return appErrors.ErrInternal
	}
	return r.err
}

// Message returns the human readable failure message, empty on success.
func (r Result[T]) Message() string {
	if err := r.Err(); err != nil {
		return err.Message
	}
	return ""
}

// FieldErrors returns structured validation detail, if the server sent any.
func (r Result[T]) FieldErrors() []appErrors.FieldError {
	if err := r.Err(); err != nil {
		return err.Fields
	}
	return nil
}

// Unwrap converts the result into Go's (value, error) pair.
func (r Result[T]) Unwrap() (T, error) {
	if r.ok {
		return r.value, nil
	}
	return r.value, r.Err()
}

// Match calls exactly one of the callbacks depending on the outcome.
func (r Result[T]) Match(onOK func(T), onErr func(*appErrors.Error)) {
	if r.ok {
		if onOK != nil {
			onOK(r.value)
		}
		return
	}
	if onErr != nil {
		onErr(r.Err())
	}
}

// Map transforms a successful value, passing failures through untouched.
func Map[A, B any](r Result[A], fn func(A) B) Result[B] {
	if !r.ok {
		return Fail[B](r.Err())
	}
	return Ok(fn(r.value), r.raw)
}

// Decode unmarshals a raw result into T. A missing or null payload yields the zero T.
func Decode[T any](r Result[json.RawMessage]) Result[T] {
	if !r.ok {
		return Fail[T](r.Err())
	}
	var out T
	if isEmptyJSON(r.value) {
		return Ok(out, nil)
	}
	if err := json.Unmarshal(r.value, &out); err != nil {
		return Fail[T](appErrors.Wrap(err, appErrors.ErrDecode.Code, appErrors.ErrDecode.Status, appErrors.ErrDecode.Message))
	}
	return Ok(out, r.value)
}

func isEmptyJSON(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}
