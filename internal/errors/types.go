// Package errors provides the structured error values used across taglint.
//
// Configuration problems, unreadable inputs and invalid arguments are all
// reported as *TaglintError so that callers can branch on Type and Code and
// render file locations consistently.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorType represents different categories of errors.
type ErrorType string

const (
	ErrorTypeValidation ErrorType = "validation"
	ErrorTypeIO         ErrorType = "io"
	ErrorTypeConfig     ErrorType = "config"
	ErrorTypeInternal   ErrorType = "internal"
)

// Common error codes.
const (
	ErrCodeConfigInvalid    = "ERR_CONFIG_INVALID"
	ErrCodePolicyMalformed  = "ERR_POLICY_MALFORMED"
	ErrCodeFileNotFound     = "ERR_FILE_NOT_FOUND"
	ErrCodeFileUnreadable   = "ERR_FILE_UNREADABLE"
	ErrCodeFileTooLarge     = "ERR_FILE_TOO_LARGE"
	ErrCodeInvalidPath      = "ERR_INVALID_PATH"
	ErrCodeInvalidArgument  = "ERR_INVALID_ARGUMENT"
	ErrCodeUnsupportedValue = "ERR_UNSUPPORTED_VALUE"
	ErrCodeInternalError    = "ERR_INTERNAL"
)

// TaglintError is a structured error type with context.
type TaglintError struct {
	Type     ErrorType
	Code     string
	Message  string
	Cause    error
	FilePath string
	Line     int
	Column   int
}

// Error implements the error interface.
func (e *TaglintError) Error() string {
	var parts []string

	if e.Code != "" {
		parts = append(parts, fmt.Sprintf("[%s]", e.Code))
	}

	if e.FilePath != "" {
		location := e.FilePath
		if e.Line > 0 {
			location += fmt.Sprintf(":%d", e.Line)
			if e.Column > 0 {
				location += fmt.Sprintf(":%d", e.Column)
			}
		}
		parts = append(parts, location)
	}

	parts = append(parts, e.Message)

	result := strings.Join(parts, " ")

	if e.Cause != nil {
		result += fmt.Sprintf(": %v", e.Cause)
	}

	return result
}

// Unwrap returns the underlying cause error.
func (e *TaglintError) Unwrap() error {
	return e.Cause
}

// Is matches another *TaglintError with the same type and code.
func (e *TaglintError) Is(target error) bool {
	var t *TaglintError
	if errors.As(target, &t) {
		return e.Type == t.Type && e.Code == t.Code
	}

	return false
}

// WithLocation adds file location information.
func (e *TaglintError) WithLocation(filePath string, line, column int) *TaglintError {
	e.FilePath = filePath
	e.Line = line
	e.Column = column

	return e
}

// WithCause attaches the underlying error.
func (e *TaglintError) WithCause(cause error) *TaglintError {
	e.Cause = cause

	return e
}

// NewValidationError creates a validation error.
func NewValidationError(code, message string) *TaglintError {
	return &TaglintError{
		Type:    ErrorTypeValidation,
		Code:    code,
		Message: message,
	}
}

// NewIOError creates an I/O error.
func NewIOError(code, message string, cause error) *TaglintError {
	return &TaglintError{
		Type:    ErrorTypeIO,
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// NewConfigError creates a configuration error.
func NewConfigError(code, message string) *TaglintError {
	return &TaglintError{
		Type:    ErrorTypeConfig,
		Code:    code,
		Message: message,
	}
}

// NewInternalError creates an internal error.
func NewInternalError(code, message string, cause error) *TaglintError {
	return &TaglintError{
		Type:    ErrorTypeInternal,
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// IsConfigError checks if an error is configuration-related.
func IsConfigError(err error) bool {
	return hasType(err, ErrorTypeConfig)
}

// IsIOError checks if an error came from reading or writing files.
func IsIOError(err error) bool {
	return hasType(err, ErrorTypeIO)
}

func hasType(err error, typ ErrorType) bool {
	var te *TaglintError
	if errors.As(err, &te) {
		return te.Type == typ
	}

	return false
}

// ErrPolicyLine reports a malformed line in a policy file.
func ErrPolicyLine(path string, line int, message string) *TaglintError {
	return NewConfigError(ErrCodePolicyMalformed, message).WithLocation(path, line, 0)
}

// ErrFileNotFound reports a path that does not exist.
func ErrFileNotFound(path string) *TaglintError {
	return NewIOError(ErrCodeFileNotFound, "confirm that the path exists", nil).WithLocation(path, 0, 0)
}

// ErrUnreadable reports an input file that could not be read.
func ErrUnreadable(path string, cause error) *TaglintError {
	return NewIOError(ErrCodeFileUnreadable, "file could not be read", cause).WithLocation(path, 0, 0)
}
