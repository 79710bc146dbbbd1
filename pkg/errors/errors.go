package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error represents a typed domain error with HTTP awareness.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"status"`
	Err     error  `json:"-"`
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

// Is matches errors sharing the same code so clones and wraps of a sentinel
// still satisfy errors.Is.
func (e *Error) Is(target error) bool {
	if e == nil {
		return false
	}
	t, ok := target.(*Error)
	if !ok || t == nil {
		return false
	}
	return t.Code == e.Code
}

// New creates a new Error instance.
func New(code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message}
}

// Wrap attaches context to an existing error.
func Wrap(err error, code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message, Err: err}
}

// WrapAs wraps err using the code and status of the sentinel.
func WrapAs(err error, sentinel *Error, message string) *Error {
	if message == "" {
		message = sentinel.Message
	}
	return Wrap(err, sentinel.Code, sentinel.Status, message)
}

// Predefined errors for common scenarios.
var (
	ErrNotFound   = New("NOT_FOUND", http.StatusNotFound, "resource not found")
	ErrConflict   = New("CONFLICT", http.StatusConflict, "conflict")
	ErrValidation = New("VALIDATION_ERROR", http.StatusBadRequest, "validation failed")
	ErrInternal   = New("INTERNAL_ERROR", http.StatusInternalServerError, "internal server error")
	ErrCacheMiss  = New("CACHE_MISS", http.StatusNotFound, "cache miss")

	// Remote member service failures.
	ErrNetwork = New("NETWORK_ERROR", http.StatusBadGateway, "member service unreachable")
	ErrServer  = New("SERVER_ERROR", http.StatusBadGateway, "member service rejected the request")

	// Contract violations raised by the console itself.
	ErrInvalidState     = New("INVALID_STATE", http.StatusConflict, "transition not allowed from current state")
	ErrPackageNotFound  = New("PACKAGE_NOT_FOUND", http.StatusNotFound, "package not found")
	ErrConfiguration    = New("CONFIGURATION_ERROR", http.StatusBadRequest, "malformed query input")
	ErrStaleResponse    = New("STALE_RESPONSE", http.StatusConflict, "response superseded by a newer request")
	ErrMutationInFlight = New("MUTATION_IN_FLIGHT", http.StatusConflict, "another change for this member is still pending")
	ErrViewClosed       = New("VIEW_CLOSED", http.StatusGone, "directory view closed")
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

// Clone returns a copy of the error allowing for message overrides.
func Clone(err *Error, message string) *Error {
	if err == nil {
		return nil
	}
	clone := *err
	if message != "" {
		clone.Message = message
	}
	return &clone
}

// IsContractViolation reports errors that indicate a caller bug rather than a runtime failure.
func IsContractViolation(err error) bool {
	return errors.Is(err, ErrConfiguration) || errors.Is(err, ErrInvalidState)
}
