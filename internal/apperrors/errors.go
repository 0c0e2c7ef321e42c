// Package apperrors defines the error kinds raised by the service layer.
// Handlers map a Kind to an HTTP status in one place (utils.HandleError).
package apperrors

import (
	"errors"
	"fmt"
)

// Kind classifies an application error.
type Kind string

const (
	KindNotFound      Kind = "not_found"
	KindAlreadyExists Kind = "already_exists"
	KindTimeConflict  Kind = "time_conflict"
	KindAlreadyBooked Kind = "already_booked"
	KindRateLimited   Kind = "rate_limited"
	KindInvalidInput  Kind = "invalid_input"
	KindForbidden     Kind = "forbidden"
	KindUnauthorized  Kind = "unauthorized"
	KindInternal      Kind = "internal"
)

// Error is a classified error carrying a user-facing message.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target is an *Error of the same kind, so
// errors.Is(err, apperrors.ErrNotFound) works for any not-found error.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Message == "" && t.Kind == e.Kind
}

// Sentinels for errors.Is comparisons.
var (
	ErrNotFound      = &Error{Kind: KindNotFound}
	ErrAlreadyExists = &Error{Kind: KindAlreadyExists}
	ErrTimeConflict  = &Error{Kind: KindTimeConflict}
	ErrAlreadyBooked = &Error{Kind: KindAlreadyBooked}
	ErrRateLimited   = &Error{Kind: KindRateLimited}
	ErrInvalidInput  = &Error{Kind: KindInvalidInput}
	ErrForbidden     = &Error{Kind: KindForbidden}
	ErrUnauthorized  = &Error{Kind: KindUnauthorized}
)

func newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// NotFound creates a not-found error.
func NotFound(format string, args ...any) *Error { return newf(KindNotFound, format, args...) }

// AlreadyExists creates an already-exists error.
func AlreadyExists(format string, args ...any) *Error {
	return newf(KindAlreadyExists, format, args...)
}

// TimeConflict creates a schedule overlap error.
func TimeConflict(format string, args ...any) *Error {
	return newf(KindTimeConflict, format, args...)
}

// AlreadyBooked creates a booking conflict error.
func AlreadyBooked(format string, args ...any) *Error {
	return newf(KindAlreadyBooked, format, args...)
}

// RateLimited creates a quota error.
func RateLimited(format string, args ...any) *Error {
	return newf(KindRateLimited, format, args...)
}

// InvalidInput creates a semantic validation error.
func InvalidInput(format string, args ...any) *Error {
	return newf(KindInvalidInput, format, args...)
}

// Forbidden creates an access denied error.
func Forbidden(format string, args ...any) *Error { return newf(KindForbidden, format, args...) }

// Unauthorized creates an authentication error.
func Unauthorized(format string, args ...any) *Error {
	return newf(KindUnauthorized, format, args...)
}

// Internal wraps an unexpected failure.
func Internal(cause error, format string, args ...any) *Error {
	e := newf(KindInternal, format, args...)
	e.Cause = cause
	return e
}

// KindOf returns the kind of err, or KindInternal for unclassified errors.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// MessageOf returns the user-facing message of err.
func MessageOf(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) && appErr.Kind != KindInternal {
		return appErr.Message
	}
	return "Internal server error"
}
