package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// ErrorType represents different categories of errors
type ErrorType string

const (
	ErrorTypeValidation    ErrorType = "validation"
	ErrorTypeNotFound      ErrorType = "not_found"
	ErrorTypeInternal      ErrorType = "internal"
	ErrorTypeTransport     ErrorType = "transport"
	ErrorTypeConflict      ErrorType = "conflict"
	ErrorTypeParse         ErrorType = "parse"
	ErrorTypeAuthorization ErrorType = "authorization"
	ErrorTypeStorage       ErrorType = "storage"
)

// AppError represents a structured application error
type AppError struct {
	Type       ErrorType `json:"type"`
	Message    string    `json:"message"`
	Details    string    `json:"details,omitempty"`
	StatusCode int       `json:"-"`
	// Body is the raw response body for transport and conflict errors.
	Body  string `json:"-"`
	Cause error  `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Type, e.Message, e.Details)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error
func (e *AppError) Unwrap() error {
	return e.Cause
}

// NewValidationError creates a new validation error
func NewValidationError(message string, details ...string) *AppError {
	detail := ""
	if len(details) > 0 {
		detail = details[0]
	}
	return &AppError{
		Type:       ErrorTypeValidation,
		Message:    message,
		Details:    detail,
		StatusCode: http.StatusBadRequest,
	}
}

// NewNotFoundError creates a new not found error
func NewNotFoundError(message string) *AppError {
	return &AppError{
		Type:       ErrorTypeNotFound,
		Message:    message,
		StatusCode: http.StatusNotFound,
	}
}

// NewInternalError creates a new internal error
func NewInternalError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeInternal,
		Message:    message,
		StatusCode: http.StatusInternalServerError,
		Cause:      cause,
	}
}

// NewTransportError creates an error for a failed remote call. A zero status
// means the request never produced a response.
func NewTransportError(message string, statusCode int, body string, cause error) *AppError {
	details := ""
	if statusCode != 0 {
		details = fmt.Sprintf("status %d", statusCode)
	}
	return &AppError{
		Type:       ErrorTypeTransport,
		Message:    message,
		Details:    details,
		StatusCode: statusCode,
		Body:       body,
		Cause:      cause,
	}
}

// NewConflictError creates an error for a 409 response, keeping the body so
// callers can recover the existing resource.
func NewConflictError(message string, body string) *AppError {
	return &AppError{
		Type:       ErrorTypeConflict,
		Message:    message,
		StatusCode: http.StatusConflict,
		Body:       body,
	}
}

// NewParseError creates a new parse error
func NewParseError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeParse,
		Message:    message,
		StatusCode: http.StatusUnprocessableEntity,
		Cause:      cause,
	}
}

// NewAuthorizationError creates a new authorization error. reason is the
// error code reported by the provider and may be empty.
func NewAuthorizationError(reason string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeAuthorization,
		Message:    "authorization failed",
		Details:    reason,
		StatusCode: http.StatusUnauthorized,
		Cause:      cause,
	}
}

// NewStorageError creates a new storage error
func NewStorageError(message string, key string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeStorage,
		Message:    message,
		Details:    key,
		StatusCode: http.StatusInsufficientStorage,
		Cause:      cause,
	}
}

// IsType checks if the error, or any error it wraps, is of a specific type
func IsType(err error, errorType ErrorType) bool {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Type == errorType
	}
	return false
}

// GetStatusCode returns the HTTP status code for an error
func GetStatusCode(err error) int {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.StatusCode
	}
	return http.StatusInternalServerError
}

// GetBody returns the raw response body carried by a transport or conflict error.
func GetBody(err error) string {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Body
	}
	return ""
}
