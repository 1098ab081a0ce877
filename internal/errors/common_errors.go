package errors

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorType represents the type of error
type ErrorType string

const (
	ErrTypeFormat     ErrorType = "FORMAT"
	ErrTypeSchema     ErrorType = "SCHEMA"
	ErrTypeData       ErrorType = "DATA"
	ErrTypeValidation ErrorType = "VALIDATION"
	ErrTypeNotFound   ErrorType = "NOT_FOUND"
	ErrTypeStorage    ErrorType = "STORAGE"
	ErrTypeConfig     ErrorType = "CONFIG"
)

// Error codes carried by AppError.Code and surfaced as error_code in API responses.
const (
	CodeUnsupportedFormat      = "UNSUPPORTED_FORMAT"
	CodeParseError             = "PARSE_ERROR"
	CodeMissingRequiredColumns = "MISSING_REQUIRED_COLUMNS"
	CodeEmptyOrZeroInvested    = "EMPTY_OR_ZERO_INVESTED_PORTFOLIO"
	CodeInvalidNumber          = "INVALID_NUMBER"
)

// Sentinel errors for errors.Is checks. Every AppError with a matching Code
// reports itself as the corresponding sentinel.
var (
	ErrUnsupportedFormat      = errors.New("unsupported file format")
	ErrParse                  = errors.New("unparseable holdings table")
	ErrMissingRequiredColumns = errors.New("missing required columns")
	ErrEmptyOrZeroInvested    = errors.New("empty or zero invested portfolio")
	ErrNotFound               = errors.New("not found")
)

var codeSentinels = map[string]error{
	CodeUnsupportedFormat:      ErrUnsupportedFormat,
	CodeParseError:             ErrParse,
	CodeMissingRequiredColumns: ErrMissingRequiredColumns,
	CodeEmptyOrZeroInvested:    ErrEmptyOrZeroInvested,
}

// AppError represents an application-specific error
type AppError struct {
	Type    ErrorType
	Code    string
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

// Is matches the sentinel for the error's code.
func (e *AppError) Is(target error) bool {
	if target == ErrNotFound {
		return e.Type == ErrTypeNotFound
	}
	if s, ok := codeSentinels[e.Code]; ok {
		return s == target
	}
	return false
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
func NewAppError(errType ErrorType, code, message string, cause error) *AppError {
	return &AppError{
		Type:    errType,
		Code:    code,
		Message: message,
		Cause:   cause,
		Context: make(map[string]interface{}),
	}
}

// NewUnsupportedFormatError reports a file whose kind cannot be determined.
func NewUnsupportedFormatError(filename string) *AppError {
	return NewAppError(ErrTypeFormat, CodeUnsupportedFormat,
		fmt.Sprintf("unsupported file format: %s", filename), nil).
		WithContext("filename", filename)
}

// NewParseError reports bytes that cannot be read as a table of the declared kind.
func NewParseError(message string, cause error) *AppError {
	return NewAppError(ErrTypeFormat, CodeParseError, message, cause)
}

// NewDataError reports table contents that cannot be analyzed.
func NewDataError(code, message string) *AppError {
	return NewAppError(ErrTypeData, code, message, nil)
}

// NewStorageError creates a storage-related error
func NewStorageError(message string, cause error) *AppError {
	return NewAppError(ErrTypeStorage, "STORAGE_ERROR", message, cause)
}

// NewAppValidationError creates a validation error for AppError type
func NewAppValidationError(message string) *AppError {
	return NewAppError(ErrTypeValidation, "VALIDATION_FAILED", message, nil)
}

// NewNotFoundError creates a not found error
func NewNotFoundError(resource string) *AppError {
	return NewAppError(ErrTypeNotFound, "NOT_FOUND", fmt.Sprintf("%s not found", resource), nil)
}

// NewConfigError creates a configuration error
func NewConfigError(message string, cause error) *AppError {
	return NewAppError(ErrTypeConfig, "CONFIG_ERROR", message, cause)
}

// MissingColumnsError lists the canonical columns absent after alias mapping
// together with every column name observed in the source header.
type MissingColumnsError struct {
	Missing   []string `json:"missing"`
	Available []string `json:"available"`
}

func (e *MissingColumnsError) Error() string {
	return fmt.Sprintf("missing required columns [%s]; available columns [%s]",
		strings.Join(e.Missing, ", "), strings.Join(e.Available, ", "))
}

// NewSchemaError wraps a MissingColumnsError as a SCHEMA AppError.
func NewSchemaError(missing, available []string) *AppError {
	cause := &MissingColumnsError{Missing: missing, Available: available}
	return NewAppError(ErrTypeSchema, CodeMissingRequiredColumns, "missing required columns", cause).
		WithContext("missing", missing).
		WithContext("available", available)
}

// TypeOf returns the AppError type in err's chain, or "" if there is none.
func TypeOf(err error) ErrorType {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type
	}
	return ""
}
