package api

import (
	"errors"
	"fmt"
	"net/http"
)

const (
	// CodeInternal is the code carried by the fallback error
	CodeInternal = "INTERNAL_ERROR"

	// MessageSessionExpired is returned for every 401 response
	MessageSessionExpired = "Session expired. Please log in again."

	// MessageFallback is returned when a failure matches no known pattern
	MessageFallback = "Something went wrong. Please check your internet connection or contact our support."
)

// Common errors
var (
	// ErrMissingParam indicates a path template references an unknown parameter
	ErrMissingParam = errors.New("missing path parameter")
)

// Error is the normalized error returned by every Client request.
//
// Exactly one of three shapes is produced:
//   - 401: only Message (session expired) and Status are set
//   - domain error: Message, Err and Status copied from the response body
//   - fallback: Code INTERNAL_ERROR, generic Message, Status 503, empty Data
type Error struct {
	Code    string         `json:"code,omitempty"`
	Message string         `json:"message"`
	Err     string         `json:"error,omitempty"`
	Status  int            `json:"status,omitempty"`
	Data    map[string]any `json:"data,omitempty"`
}

// Error implements the error interface
func (e *Error) Error() string {
	switch {
	case e.Err != "" && e.Status != 0:
		return fmt.Sprintf("api error: status %d: %s: %s", e.Status, e.Err, e.Message)
	case e.Status != 0:
		return fmt.Sprintf("api error: status %d: %s", e.Status, e.Message)
	default:
		return "api error: " + e.Message
	}
}

// IsUnauthorized checks if the error came from a 401 response
func (e *Error) IsUnauthorized() bool {
	return e.Status == http.StatusUnauthorized
}

// IsFallback checks if the error is the generic fallback
func (e *Error) IsFallback() bool {
	return e.Code == CodeInternal
}

// fallbackError returns a fresh copy of the generic error so callers can't
// mutate a shared value.
func fallbackError() *Error {
	return &Error{
		Code:    CodeInternal,
		Message: MessageFallback,
		Status:  http.StatusServiceUnavailable,
		Data:    map[string]any{},
	}
}

func sessionExpiredError() *Error {
	return &Error{
		Message: MessageSessionExpired,
		Status:  http.StatusUnauthorized,
	}
}

// AsError extracts an *Error from err, returning nil if there is none
func AsError(err error) *Error {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr
	}
	return nil
}
