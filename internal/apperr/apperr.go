// Package apperr defines the error taxonomy surfaced by the API.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Code classifies an error for the client.
type Code string

const (
	CodeValidation   Code = "validation"
	CodeUnauthorized Code = "unauthorized"
	CodeForbidden    Code = "forbidden"
	CodeNotFound     Code = "not_found"
	CodeConflict     Code = "conflict"
	CodeInternal     Code = "internal"
)

var statusByCode = map[Code]int{
	CodeValidation:   http.StatusBadRequest,
	CodeUnauthorized: http.StatusUnauthorized,
	CodeForbidden:    http.StatusForbidden,
	CodeNotFound:     http.StatusNotFound,
	CodeConflict:     http.StatusBadRequest,
	CodeInternal:     http.StatusInternalServerError,
}

// HTTPStatus returns the status code for c. Unknown codes map to 500.
func HTTPStatus(c Code) int {
	if s, ok := statusByCode[c]; ok {
		return s
	}
	return http.StatusInternalServerError
}

// Error is an error with a client-facing code and message.
type Error struct {
	code    Code
	message string
	details any
	cause   error
}

// New creates an Error.
func New(code Code, message string) *Error {
	return &Error{code: code, message: message}
}

// Newf creates an Error with a formatted message.
func Newf(code Code, format string, args ...any) *Error {
	return &Error{code: code, message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and message to err.
func Wrap(code Code, err error, message string) *Error {
	return &Error{code: code, message: message, cause: err}
}

// Code returns the error classification.
func (e *Error) Code() Code {
	if e == nil {
		return CodeInternal
	}
	return e.code
}

// Message returns the client-facing message.
func (e *Error) Message() string {
	if e == nil {
		return ""
	}
	return e.message
}

// Details returns structured context for the client, if any.
func (e *Error) Details() any {
	if e == nil {
		return nil
	}
	return e.details
}

// WithDetails returns a copy of e carrying details.
func (e *Error) WithDetails(details any) *Error {
	clone := *e
	clone.details = details
	return &clone
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.code, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.code, e.message)
}

func (e *Error) Unwrap() error {
	return e.cause
}

// As returns the first *Error in err's chain, or nil.
func As(err error) *Error {
	var typed *Error
	if errors.As(err, &typed) {
		return typed
	}
	return nil
}

// CodeOf returns the code of err, treating untyped errors as internal.
func CodeOf(err error) Code {
	if typed := As(err); typed != nil {
		return typed.code
	}
	return CodeInternal
}

// Validation returns a validation error.
func Validation(message string) *Error { return New(CodeValidation, message) }

// Unauthorized returns an authentication error.
func Unauthorized(message string) *Error { return New(CodeUnauthorized, message) }

// Forbidden returns an authorization error.
func Forbidden(message string) *Error { return New(CodeForbidden, message) }

// NotFound returns a not-found error for the named entity.
func NotFound(entity string) *Error { return Newf(CodeNotFound, "%s not found", entity) }

// Conflict returns a conflict error (uniqueness, illegal transition, terminal entity).
func Conflict(message string) *Error { return New(CodeConflict, message) }
