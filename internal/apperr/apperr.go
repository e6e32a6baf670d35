// Package apperr defines the error kinds shared by services, repositories and the HTTP layer.
package apperr

import (
	"errors"
	"fmt"
)

// Error kinds. Match them with errors.Is.
var (
	ErrNotFound     = errors.New("not_found")
	ErrForbidden    = errors.New("forbidden")
	ErrDenied       = errors.New("denied")
	ErrConflict     = errors.New("conflict")
	ErrValidation   = errors.New("validation_error")
	ErrUpstream     = errors.New("upstream_error")
	ErrUnauthorized = errors.New("unauthorized")
)

// Error carries a kind, a caller-facing message and optional details for display.
type Error struct {
	Kind    error
	Message string
	Details any
	Err     error
}

func (e *Error) Error() string {
	switch {
	case e.Message != "" && e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	case e.Message != "":
		return e.Message
	case e.Err != nil:
		return e.Err.Error()
	default:
		return e.Kind.Error()
	}
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func newf(kind error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// NotFound reports an absent entity.
func NotFound(format string, args ...any) *Error { return newf(ErrNotFound, format, args...) }

// Forbidden reports that the caller does not own the resource.
func Forbidden(format string, args ...any) *Error { return newf(ErrForbidden, format, args...) }

// Conflict reports a concurrent-state violation.
func Conflict(format string, args ...any) *Error { return newf(ErrConflict, format, args...) }

// Validation reports malformed or missing input.
func Validation(format string, args ...any) *Error { return newf(ErrValidation, format, args...) }

// Unauthorized reports a missing or invalid identity.
func Unauthorized(format string, args ...any) *Error { return newf(ErrUnauthorized, format, args...) }

// Denied reports a business-rule rejection; details are returned to the caller as-is.
func Denied(message string, details any) *Error {
	return &Error{Kind: ErrDenied, Message: message, Details: details}
}

// Upstream wraps a failure of an external collaborator.
func Upstream(message string, err error) *Error {
	return &Error{Kind: ErrUpstream, Message: message, Err: err}
}

// DetailsOf returns the details attached to the first *Error in the chain.
func DetailsOf(err error) any {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Details
	}
	return nil
}

// MessageOf returns the caller-facing message of the first *Error in the chain.
func MessageOf(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) && appErr.Message != "" {
		return appErr.Message
	}
	return ""
}
