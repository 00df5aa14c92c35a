// Package apperr defines the typed failures returned by the pairing,
// progress and messaging services.
//
// Every service error carries a Kind so the HTTP layer can map it to a
// status code without string matching. Store-level errors are wrapped
// as KindPersistence and keep their cause for logging.
package apperr

import (
	"errors"
	"strings"
)

// Kind classifies a domain failure.
type Kind string

const (
	KindNotFound     Kind = "not_found"
	KindSelfJoin     Kind = "self_join"
	KindConflict     Kind = "conflict"
	KindPersistence  Kind = "persistence"
	KindValidation   Kind = "validation"
	KindForbidden    Kind = "forbidden"
	KindUnauthorized Kind = "unauthorized"
)

// FieldError describes a single invalid input field.
type FieldError struct {
	Field string `json:"field"`
	Error string `json:"error"`
}

// Error is a typed domain failure.
type Error struct {
	Kind   Kind
	Msg    string
	Fields []FieldError
	Err    error
}

func (e *Error) Error() string {
	if e.Msg == "" && e.Err != nil {
		return e.Err.Error()
	}
	if e.Msg == "" {
		return string(e.Kind)
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error with the same Kind, so callers can write
// errors.Is(err, apperr.ErrNotFound).
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return t.Kind == e.Kind
	}
	return false
}

// Sentinels for errors.Is checks.
var (
	ErrNotFound     = &Error{Kind: KindNotFound}
	ErrSelfJoin     = &Error{Kind: KindSelfJoin}
	ErrConflict     = &Error{Kind: KindConflict}
	ErrPersistence  = &Error{Kind: KindPersistence}
	ErrValidation   = &Error{Kind: KindValidation}
	ErrForbidden    = &Error{Kind: KindForbidden}
	ErrUnauthorized = &Error{Kind: KindUnauthorized}
)

func NotFound(msg string) error  { return &Error{Kind: KindNotFound, Msg: msg} }
func SelfJoin(msg string) error  { return &Error{Kind: KindSelfJoin, Msg: msg} }
func Conflict(msg string) error  { return &Error{Kind: KindConflict, Msg: msg} }
func Forbidden(msg string) error { return &Error{Kind: KindForbidden, Msg: msg} }

// Unauthorized reports a missing or invalid identity.
func Unauthorized(msg string) error { return &Error{Kind: KindUnauthorized, Msg: msg} }

// Persistence wraps a storage failure. The cause is kept for logs but is
// not shown to clients.
func Persistence(msg string, cause error) error {
	return &Error{Kind: KindPersistence, Msg: msg, Err: cause}
}

// Validation reports malformed input. Fields may be empty when the whole
// request is invalid.
func Validation(msg string, fields ...FieldError) error {
	return &Error{Kind: KindValidation, Msg: msg, Fields: fields}
}

// KindOf returns the Kind of err, or "" when err is not a domain error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// FieldsOf returns the field errors attached to a validation error.
func FieldsOf(err error) []FieldError {
	var e *Error
	if errors.As(err, &e) {
		return e.Fields
	}
	return nil
}

// Message returns a client-safe message for err. Persistence failures
// never leak their cause.
func Message(err error) string {
	var e *Error
	if !errors.As(err, &e) {
		return "internal error"
	}
	if e.Kind == KindPersistence {
		if strings.TrimSpace(e.Msg) == "" {
			return "storage error"
		}
		return e.Msg
	}
	return e.Error()
}
