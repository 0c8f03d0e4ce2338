// Package errors provides standardized error types for festival data operations.
// IngestionError covers fatal load failures; QueryError covers rejected filter
// input. Both carry operation context and support error wrapping.
package errors

import (
	"errors"
	"fmt"
)

// IngestionError represents a fatal failure to load the source dataset.
// No partial dataset is ever returned alongside it.
type IngestionError struct {
	Op      string // Operation name (e.g., "read", "decode", "schema")
	Path    string // Source file path if known
	Column  string // Column name if applicable
	Message string // Human-readable error description
	Cause   error  // Underlying error cause
}

// Error implements the error interface
func (e *IngestionError) Error() string {
	var msg string
	if e.Column != "" {
		msg = fmt.Sprintf("ingestion %s failed on column '%s': %s", e.Op, e.Column, e.Message)
	} else {
		msg = fmt.Sprintf("ingestion %s failed: %s", e.Op, e.Message)
	}
	if e.Path != "" {
		msg = fmt.Sprintf("%s (%s)", msg, e.Path)
	}
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

// Unwrap returns the underlying cause for error wrapping support
func (e *IngestionError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is ErrIngestion or an IngestionError with the same
// operation, column and message.
func (e *IngestionError) Is(target error) bool {
	if target == ErrIngestion {
		return true
	}
	if ie, ok := target.(*IngestionError); ok {
		return e.Op == ie.Op && e.Column == ie.Column && e.Message == ie.Message
	}
	return false
}

// QueryError represents rejected filter or query input.
type QueryError struct {
	Op      string // Operation name (e.g., "filter", "season")
	Field   string // Offending field
	Message string
}

// Error implements the error interface
func (e *QueryError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: invalid %s: %s", e.Op, e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

// Is reports whether target is ErrInvalidQuery.
func (e *QueryError) Is(target error) bool {
	return target == ErrInvalidQuery
}

// Predefined sentinels for errors.Is checks.
var (
	// ErrIngestion matches every IngestionError.
	ErrIngestion = errors.New("ingestion failed")

	// ErrInvalidQuery matches every QueryError.
	ErrInvalidQuery = errors.New("invalid query")
)

// NewMissingFileError creates an error for an unreadable source file
func NewMissingFileError(path string, cause error) *IngestionError {
	return &IngestionError{
		Op:      "read",
		Path:    path,
		Message: "source file cannot be read",
		Cause:   cause,
	}
}

// NewDecodeError creates an error for input that no supported encoding accepts
func NewDecodeError(path, message string) *IngestionError {
	return &IngestionError{
		Op:      "decode",
		Path:    path,
		Message: message,
	}
}

// NewParseError creates an error for malformed delimited text
func NewParseError(path string, cause error) *IngestionError {
	return &IngestionError{
		Op:      "parse",
		Path:    path,
		Message: "malformed CSV",
		Cause:   cause,
	}
}

// NewMissingColumnError creates an error for a required column absent from the header
func NewMissingColumnError(path, column string) *IngestionError {
	return &IngestionError{
		Op:      "schema",
		Path:    path,
		Column:  column,
		Message: "required column does not exist",
	}
}

// NewInvalidFilterError creates an error for a rejected filter field
func NewInvalidFilterError(field, message string) *QueryError {
	return &QueryError{
		Op:      "filter",
		Field:   field,
		Message: message,
	}
}

// AsIngestion unwraps err into an IngestionError if it is one.
func AsIngestion(err error) (*IngestionError, bool) {
	var ie *IngestionError
	if errors.As(err, &ie) {
		return ie, true
	}
	return nil, false
}
