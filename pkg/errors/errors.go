package errors

import (
	"fmt"
	"net/http"
)

// ErrorType represents different types of errors in the system
type ErrorType string

const (
	ErrorTypeValidation     ErrorType = "validation"
	ErrorTypeMalformedInput ErrorType = "malformed_input"
	ErrorTypeRemote         ErrorType = "remote_rejection"
	ErrorTypeTransport      ErrorType = "transport"
	ErrorTypeRefresh        ErrorType = "refresh"
	ErrorTypeNotFound       ErrorType = "not_found"
	ErrorTypeUnauthorized   ErrorType = "unauthorized"
	ErrorTypeInternal       ErrorType = "internal"
)

// AppError represents a structured application error
type AppError struct {
	Type       ErrorType              `json:"type"`
	Message    string                 `json:"message"`
	Code       string                 `json:"code,omitempty"`
	StatusCode int                    `json:"status_code"`
	Cause      error                  `json:"-"`
	Context    map[string]interface{} `json:"context,omitempty"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// Error constructors
func NewValidationError(message string) *AppError {
	return &AppError{
		Type:       ErrorTypeValidation,
		Message:    message,
		StatusCode: http.StatusBadRequest,
	}
}

// NewMalformedInputError reports operator input that could not be parsed
// locally, such as invalid JSON in a claims field.
func NewMalformedInputError(message string) *AppError {
	return &AppError{
		Type:       ErrorTypeMalformedInput,
		Message:    message,
		StatusCode: http.StatusBadRequest,
	}
}

// NewRemoteError reports a non-2xx answer from the IAM backend. All statuses
// collapse into one message; the backend has no structured error envelope.
func NewRemoteError(operation string, statusCode int, statusText string) *AppError {
	return &AppError{
		Type:       ErrorTypeRemote,
		Message:    fmt.Sprintf("Failed to %s: %s", operation, statusText),
		StatusCode: http.StatusBadGateway,
		Context:    map[string]interface{}{"operation": operation, "remote_status": statusCode},
	}
}

// NewTransportError reports a backend call that never produced a response.
func NewTransportError(operation string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeTransport,
		Message:    fmt.Sprintf("Failed to %s", operation),
		StatusCode: http.StatusBadGateway,
		Cause:      cause,
		Context:    map[string]interface{}{"operation": operation},
	}
}

// NewRefreshError reports a list re-fetch that failed after the backend had
// already accepted a mutation. The mutation itself stands.
func NewRefreshError(err error) *AppError {
	refresh := &AppError{
		Type:       ErrorTypeRefresh,
		Message:    err.Error(),
		StatusCode: http.StatusBadGateway,
	}
	if appErr, ok := AsAppError(err); ok {
		refresh.Message = appErr.Message
		refresh.Context = appErr.Context
	}
	return refresh
}

func NewNotFoundError(message string) *AppError {
	return &AppError{
		Type:       ErrorTypeNotFound,
		Message:    message,
		StatusCode: http.StatusNotFound,
	}
}

func NewUnauthorizedError(message string) *AppError {
	return &AppError{
		Type:       ErrorTypeUnauthorized,
		Message:    message,
		StatusCode: http.StatusUnauthorized,
	}
}

func NewInternalError(message string) *AppError {
	return &AppError{
		Type:       ErrorTypeInternal,
		Message:    message,
		StatusCode: http.StatusInternalServerError,
	}
}

// IsAppError checks if an error is an AppError
func IsAppError(err error) bool {
	_, ok := err.(*AppError)
	return ok
}

// AsAppError attempts to cast an error to AppError
func AsAppError(err error) (*AppError, bool) {
	appErr, ok := err.(*AppError)
	return appErr, ok
}

// IsType reports whether err is an AppError of the given type.
func IsType(err error, t ErrorType) bool {
	appErr, ok := AsAppError(err)
	return ok && appErr.Type == t
}

// WrapError wraps an error as an internal AppError
func WrapError(err error, message string) *AppError {
	return &AppError{
		Type:       ErrorTypeInternal,
		Message:    message,
		StatusCode: http.StatusInternalServerError,
		Cause:      err,
	}
}
