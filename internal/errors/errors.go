package errors

import (
	"errors"
	"fmt"
)

// ErrorType represents the type of error
type ErrorType string

const (
	ErrTypeNotFound   ErrorType = "NOT_FOUND"
	ErrTypeValidation ErrorType = "VALIDATION"
	ErrTypeParsing    ErrorType = "PARSING"
	ErrTypeConfig     ErrorType = "CONFIG"
	ErrTypeInternal   ErrorType = "INTERNAL"
)

// AppError represents an application-specific error
type AppError struct {
	Type    ErrorType
	Message string
	Cause   error
	Context map[string]interface{}
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap allows errors.Is and errors.As to work with AppError
func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithContext adds context to the error
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// NewAppError creates a new application error
func NewAppError(errType ErrorType, message string, cause error) *AppError {
	return &AppError{
		Type:    errType,
		Message: message,
		Cause:   cause,
		Context: make(map[string]interface{}),
	}
}

// NewNotFoundError creates a not found error
func NewNotFoundError(resource string, cause error) *AppError {
	return NewAppError(ErrTypeNotFound, fmt.Sprintf("%s not found", resource), cause)
}

// NewAppValidationError creates a validation error for AppError type
func NewAppValidationError(message string) *AppError {
	return NewAppError(ErrTypeValidation, message, nil)
}

// NewParsingError creates a parsing-related error
func NewParsingError(message string, cause error) *AppError {
	return NewAppError(ErrTypeParsing, message, cause)
}

// NewConfigError creates a configuration error
func NewConfigError(message string, cause error) *AppError {
	return NewAppError(ErrTypeConfig, message, cause)
}

// NewInternalError creates an error for failures that fit no other type
func NewInternalError(message string, cause error) *AppError {
	return NewAppError(ErrTypeInternal, message, cause)
}

// IsType reports whether any AppError in err's chain has the given type.
func IsType(err error, errType ErrorType) bool {
	var appErr *AppError
	for err != nil {
		if !errors.As(err, &appErr) {
			return false
		}
		if appErr.Type == errType {
			return true
		}
		err = appErr.Cause
	}
	return false
}

// TypeOf returns the type of the outermost AppError in err's chain, or an
// empty ErrorType when there is none.
func TypeOf(err error) ErrorType {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type
	}
	return ""
}

// Describe returns the message without the type prefix, for user-facing output.
func Describe(err error) string {
	var appErr *AppError
	if !errors.As(err, &appErr) {
		return err.Error()
	}
	if appErr.Cause != nil {
		return fmt.Sprintf("%s: %s", appErr.Message, Describe(appErr.Cause))
	}
	return appErr.Message
}
