package errors

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// ErrorType represents different categories of errors
type ErrorType string

const (
	ErrorTypeValidation          ErrorType = "validation"
	ErrorTypePermissionDenied    ErrorType = "permission_denied"
	ErrorTypePermissionQuery     ErrorType = "permission_query"
	ErrorTypePositionUnavailable ErrorType = "position_unavailable"
	ErrorTypeGeocoder            ErrorType = "geocoder"
	ErrorTypeStorage             ErrorType = "storage"
	ErrorTypeNotFound            ErrorType = "not_found"
	ErrorTypeTimeout             ErrorType = "timeout"
	ErrorTypeInternal            ErrorType = "internal"
)

// AppError represents a structured application error
type AppError struct {
	Type          ErrorType `json:"type"`
	Code          string    `json:"code"`
	Message       string    `json:"message"`
	Details       string    `json:"details,omitempty"`
	CorrelationID string    `json:"correlation_id,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
	Cause         error     `json:"-"` // Original error, not serialized
	HTTPStatus    int       `json:"-"` // HTTP status code for API responses
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s - %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *AppError) Unwrap() error {
	return e.Cause
}

// Retryable reports whether the caller may reasonably retry the operation.
// Denial is a terminal state, recoverable only through explicit user action.
func (e *AppError) Retryable() bool {
	switch e.Type {
	case ErrorTypePermissionQuery, ErrorTypePositionUnavailable, ErrorTypeTimeout:
		return true
	}
	return false
}

// NewAppError creates a new application error
func NewAppError(errorType ErrorType, code, message string) *AppError {
	return &AppError{
		Type:       errorType,
		Code:       code,
		Message:    message,
		Timestamp:  time.Now().UTC(),
		HTTPStatus: getDefaultHTTPStatus(errorType),
	}
}

// NewAppErrorWithCause creates a new application error with an underlying cause
func NewAppErrorWithCause(errorType ErrorType, code, message string, cause error) *AppError {
	err := NewAppError(errorType, code, message)
	err.Cause = cause
	if cause != nil {
		err.Details = cause.Error()
	}
	return err
}

// WithCorrelationID adds a correlation ID to the error
func (e *AppError) WithCorrelationID(correlationID string) *AppError {
	e.CorrelationID = correlationID
	return e
}

// WithDetails adds additional details to the error
func (e *AppError) WithDetails(details string) *AppError {
	e.Details = details
	return e
}

func getDefaultHTTPStatus(errorType ErrorType) int {
	switch errorType {
	case ErrorTypeValidation:
		return http.StatusBadRequest
	case ErrorTypePermissionDenied:
		return http.StatusForbidden
	case ErrorTypePermissionQuery:
		return http.StatusBadGateway
	case ErrorTypePositionUnavailable:
		return http.StatusServiceUnavailable
	case ErrorTypeNotFound:
		return http.StatusNotFound
	case ErrorTypeTimeout:
		return http.StatusRequestTimeout
	case ErrorTypeGeocoder, ErrorTypeStorage:
		// Absorbed internally; status only matters if one ever leaks.
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// Common error constructors

// NewPermissionDeniedError creates an error for a user-denied permission.
func NewPermissionDeniedError() *AppError {
	return NewAppError(ErrorTypePermissionDenied, "PERMISSION_DENIED",
		"Location permission denied by the user")
}

// NewPromptThrottledError creates an error for a prompt suppressed by the
// throttling policy. The permission itself has not been denied by the user.
func NewPromptThrottledError() *AppError {
	return NewAppError(ErrorTypePermissionDenied, "PROMPT_THROTTLED",
		"Location permission prompt suppressed by throttling policy")
}

// NewPermissionQueryError creates an error for a platform permission API failure.
func NewPermissionQueryError(operation string, cause error) *AppError {
	return NewAppErrorWithCause(ErrorTypePermissionQuery, "PERMISSION_QUERY_FAILED",
		fmt.Sprintf("Platform permission API failed: %s", operation), cause)
}

// NewPositionUnavailableError creates an error for a failed position fix.
func NewPositionUnavailableError(cause error) *AppError {
	return NewAppErrorWithCause(ErrorTypePositionUnavailable, "POSITION_UNAVAILABLE",
		"Could not obtain a position fix", cause)
}

// NewGeocoderError creates a reverse geocoding error
func NewGeocoderError(cause error) *AppError {
	return NewAppErrorWithCause(ErrorTypeGeocoder, "GEOCODER_ERROR",
		"Reverse geocoding failed", cause)
}

// NewStorageError creates a durable storage error
func NewStorageError(operation string, cause error) *AppError {
	return NewAppErrorWithCause(ErrorTypeStorage, "STORAGE_ERROR",
		fmt.Sprintf("Storage operation failed: %s", operation), cause)
}

// NewValidationError creates a validation error
func NewValidationError(message string) *AppError {
	return NewAppError(ErrorTypeValidation, "VALIDATION_ERROR", message)
}

// NewNotFoundError creates a not found error
func NewNotFoundError(resource string) *AppError {
	return NewAppError(ErrorTypeNotFound, "NOT_FOUND", fmt.Sprintf("%s not found", resource))
}

// NewInternalError creates an internal error
func NewInternalError(message string, cause error) *AppError {
	return NewAppErrorWithCause(ErrorTypeInternal, "INTERNAL_ERROR", message, cause)
}

// IsErrorType checks if an error is of a specific type, unwrapping as needed.
func IsErrorType(err error, errorType ErrorType) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type == errorType
	}
	return false
}

// GetErrorType returns the error type if the error is an AppError.
func GetErrorType(err error) (ErrorType, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type, true
	}
	return "", false
}
