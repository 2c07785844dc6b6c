// Package apperr defines the error values handlers return to API clients.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error for clients and selects its HTTP status.
type Kind string

const (
	KindValidation           Kind = "validation"
	KindUnauthorized         Kind = "unauthorized"
	KindNotFound             Kind = "not_found"
	KindMethodNotAllowed     Kind = "method_not_allowed"
	KindConflict             Kind = "conflict"
	KindUnsupportedMediaType Kind = "unsupported_media_type"
	KindUnavailable          Kind = "unavailable"
	KindInternal             Kind = "internal"
)

var statusByKind = map[Kind]int{
	KindValidation:           http.StatusBadRequest,
	KindUnauthorized:         http.StatusUnauthorized,
	KindNotFound:             http.StatusNotFound,
	KindMethodNotAllowed:     http.StatusMethodNotAllowed,
	KindConflict:             http.StatusConflict,
	KindUnsupportedMediaType: http.StatusUnsupportedMediaType,
	KindUnavailable:          http.StatusServiceUnavailable,
	KindInternal:             http.StatusInternalServerError,
}

// FieldError describes one rejected request field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error is the body every failing endpoint writes.
type Error struct {
	Kind    Kind         `json:"kind"`
	Message string       `json:"message"`
	Details []FieldError `json:"details,omitempty"`
}

func (e *Error) Error() string {
	if len(e.Details) == 0 {
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
	return fmt.Sprintf("%s: %s (%d field errors)", e.Kind, e.Message, len(e.Details))
}

// Status returns the HTTP status code for the error kind.
func (e *Error) Status() int {
	if status, ok := statusByKind[e.Kind]; ok {
		return status
	}
	return http.StatusInternalServerError
}

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Validation builds a 400 error carrying field-level details.
func Validation(message string, details ...FieldError) *Error {
	return &Error{Kind: KindValidation, Message: message, Details: details}
}

func NotFound(message string) *Error {
	return New(KindNotFound, message)
}

func Conflict(message string) *Error {
	return New(KindConflict, message)
}

// Internal hides the underlying cause from clients.
func Internal() *Error {
	return New(KindInternal, "internal server error")
}

// As returns err as an *Error. Anything that is not already an *Error becomes Internal.
func As(err error) *Error {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return Internal()
}
