// Package errors provides structured error handling with HTTP status code mapping.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorType represents the category of error for metrics and response formatting.
type ErrorType string

const (
	// TypeSource indicates the sample source failed or produced malformed data.
	// Always recovered: the sample is skipped and the loop continues.
	TypeSource ErrorType = "source"
	// TypeWrite indicates a subscriber transport write failure. Recovered by
	// unregistering that subscriber only.
	TypeWrite ErrorType = "subscriber_write"
	// TypeBind indicates a listener could not acquire its port. Fatal.
	TypeBind ErrorType = "bind"
	// TypeUpgrade indicates a malformed WebSocket handshake (HTTP 400).
	TypeUpgrade ErrorType = "upgrade"
	// TypeCapacity indicates the server refused a connection at its limit (HTTP 503).
	TypeCapacity ErrorType = "capacity"
	// TypeRateLimited indicates a client connected too frequently (HTTP 429).
	TypeRateLimited ErrorType = "rate_limited"
	// TypeInternal indicates an unexpected server-side error (HTTP 500).
	TypeInternal ErrorType = "internal"
)

// Error represents a structured error with type, message, and context.
type Error struct {
	Type    ErrorType
	Message string
	Cause   error
	Context map[string]any
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *Error) Unwrap() error {
	return e.Cause
}

// HTTPStatus returns the appropriate HTTP status code for this error type.
func (e *Error) HTTPStatus() int {
	switch e.Type {
	case TypeUpgrade:
		return http.StatusBadRequest
	case TypeCapacity:
		return http.StatusServiceUnavailable
	case TypeRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// Fatal reports whether this error should terminate the process.
// Only bind failures are fatal; everything else is contained at the
// subscriber or listener boundary.
func (e *Error) Fatal() bool {
	return e.Type == TypeBind
}

// WithContext adds a key-value pair to the error context.
func (e *Error) WithContext(key string, value any) *Error {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}

// ToResponse returns the JSON-safe response body for this error.
// Internal causes are never exposed to clients.
func (e *Error) ToResponse() map[string]any {
	return map[string]any{
		"error": e.Message,
		"type":  string(e.Type),
	}
}

// SourceError creates a recovered source-side error.
func SourceError(message string, cause error) *Error {
	return &Error{Type: TypeSource, Message: message, Cause: cause}
}

// WriteError creates a subscriber write error.
func WriteError(message string, cause error) *Error {
	return &Error{Type: TypeWrite, Message: message, Cause: cause}
}

// BindError creates a fatal listener bind error.
func BindError(addr string, cause error) *Error {
	e := &Error{Type: TypeBind, Message: "failed to bind listener", Cause: cause}
	return e.WithContext("addr", addr)
}

// UpgradeError creates a protocol upgrade error (HTTP 400).
func UpgradeError(message string, cause error) *Error {
	return &Error{Type: TypeUpgrade, Message: message, Cause: cause}
}

// CapacityError creates a capacity rejection error (HTTP 503).
func CapacityError(message string) *Error {
	return &Error{Type: TypeCapacity, Message: message}
}

// RateLimitedError creates a rate-limit rejection error (HTTP 429).
func RateLimitedError(message string) *Error {
	return &Error{Type: TypeRateLimited, Message: message}
}

// InternalError creates an unexpected internal error (HTTP 500).
func InternalError(message string, cause error) *Error {
	return &Error{Type: TypeInternal, Message: message, Cause: cause}
}

// AsStructuredError converts any error to a structured Error. Unknown errors
// become TypeInternal with the original error preserved as the cause.
func AsStructuredError(err error) *Error {
	var structuredErr *Error
	if errors.As(err, &structuredErr) {
		return structuredErr
	}
	return InternalError("unexpected error", err)
}
