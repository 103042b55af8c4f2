package errors

import (
	"errors"
	"fmt"
)

// ErrorType represents the type of error
type ErrorType string

const (
	ErrTypeDataSource    ErrorType = "DATA_SOURCE"
	ErrTypeMalformedDate ErrorType = "MALFORMED_DATE"
	ErrTypeEmptyBatch    ErrorType = "EMPTY_BATCH"
	ErrTypeReferenceData ErrorType = "REFERENCE_DATA"
	ErrTypeStorage       ErrorType = "STORAGE"
	ErrTypeValidation    ErrorType = "VALIDATION"
	ErrTypeConfig        ErrorType = "CONFIG"
	ErrTypeNotFound      ErrorType = "NOT_FOUND"
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

// IsType reports whether err is (or wraps) an AppError of the given type.
func IsType(err error, errType ErrorType) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type == errType
	}
	return false
}

// Helper functions for common error types

// NewDataSourceError indicates the raw input table is missing, unreadable,
// or lacks required columns. Fatal.
func NewDataSourceError(message string, cause error) *AppError {
	return NewAppError(ErrTypeDataSource, message, cause)
}

// NewMalformedDateError indicates the reporting period could not be derived
// from the first row of the batch. Fatal.
func NewMalformedDateError(message string, cause error) *AppError {
	return NewAppError(ErrTypeMalformedDate, message, cause)
}

// NewEmptyBatchError indicates the invoice table has zero rows after
// filtering. Fatal.
func NewEmptyBatchError(message string) *AppError {
	return NewAppError(ErrTypeEmptyBatch, message, nil)
}

// NewReferenceDataError indicates the reference table is missing a required
// sentinel row. Fatal.
func NewReferenceDataError(message string) *AppError {
	return NewAppError(ErrTypeReferenceData, message, nil)
}

// NewStorageError creates a storage-related error
func NewStorageError(message string, cause error) *AppError {
	return NewAppError(ErrTypeStorage, message, cause)
}

// NewValidationError creates a validation error
func NewValidationError(message string) *AppError {
	return NewAppError(ErrTypeValidation, message, nil)
}

// NewConfigError creates a configuration error
func NewConfigError(message string, cause error) *AppError {
	return NewAppError(ErrTypeConfig, message, cause)
}

// NewNotFoundError creates a not found error
func NewNotFoundError(resource string) *AppError {
	return NewAppError(ErrTypeNotFound, fmt.Sprintf("%s not found", resource), nil)
}
