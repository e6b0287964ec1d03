// Package errors provides the application error type returned by the launcher API.
package errors

import (
	"fmt"
	"net/http"
)

// Error codes as constants
const (
	ErrCodeNotFound           = "NOT_FOUND"
	ErrCodeBadRequest         = "BAD_REQUEST"
	ErrCodeInternalError      = "INTERNAL_ERROR"
	ErrCodeConflict           = "CONFLICT"
	ErrCodeValidationError    = "VALIDATION_ERROR"
	ErrCodeServiceUnavailable = "SERVICE_UNAVAILABLE"
	ErrCodeAlreadyLaunching   = "ALREADY_LAUNCHING"
	ErrCodeNotLaunching       = "NOT_LAUNCHING"
	ErrCodeRateLimited        = "RATE_LIMIT_EXCEEDED"
)

// AppError represents an application-specific error with additional context.
type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	HTTPStatus int    `json:"http_status"`
	Err        error  `json:"-"`
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the wrapped error for use with errors.Is and errors.As.
func (e *AppError) Unwrap() error {
	return e.Err
}

// NotFound creates a new not found error for a resource.
func NotFound(resource string, id string) *AppError {
	return &AppError{
		Code:       ErrCodeNotFound,
		Message:    fmt.Sprintf("%s with id '%s' not found", resource, id),
		HTTPStatus: http.StatusNotFound,
	}
}

// BadRequest creates a new bad request error.
func BadRequest(message string) *AppError {
	return &AppError{
		Code:       ErrCodeBadRequest,
		Message:    message,
		HTTPStatus: http.StatusBadRequest,
	}
}

// InternalError creates a new internal server error with a wrapped underlying error.
func InternalError(message string, err error) *AppError {
	return &AppError{
		Code:       ErrCodeInternalError,
		Message:    message,
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// Conflict creates a new conflict error.
func Conflict(message string) *AppError {
	return &AppError{
		Code:       ErrCodeConflict,
		Message:    message,
		HTTPStatus: http.StatusConflict,
	}
}

// ValidationError creates a new validation error for a specific field.
func ValidationError(field string, message string) *AppError {
	return &AppError{
		Code:       ErrCodeValidationError,
		Message:    fmt.Sprintf("validation failed for field '%s': %s", field, message),
		HTTPStatus: http.StatusBadRequest,
	}
}

// ServiceUnavailable creates a new service unavailable error.
func ServiceUnavailable(service string) *AppError {
	return &AppError{
		Code:       ErrCodeServiceUnavailable,
		Message:    fmt.Sprintf("service '%s' is currently unavailable", service),
		HTTPStatus: http.StatusServiceUnavailable,
	}
}

// AlreadyLaunching is returned when a profile already has an in-flight launch.
func AlreadyLaunching(profileID string, err error) *AppError {
	return &AppError{
		Code:       ErrCodeAlreadyLaunching,
		Message:    fmt.Sprintf("profile '%s' is already running", profileID),
		HTTPStatus: http.StatusConflict,
		Err:        err,
	}
}

// NotLaunching is returned when an operation needs an in-flight launch and there is none.
func NotLaunching(profileID string, err error) *AppError {
	return &AppError{
		Code:       ErrCodeNotLaunching,
		Message:    fmt.Sprintf("profile '%s' has no launch in progress", profileID),
		HTTPStatus: http.StatusNotFound,
		Err:        err,
	}
}

// RateLimited creates a too many requests error.
func RateLimited(message string) *AppError {
	return &AppError{
		Code:       ErrCodeRateLimited,
		Message:    message,
		HTTPStatus: http.StatusTooManyRequests,
	}
}
