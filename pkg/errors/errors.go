// Package errors provides structured error types for the labeling engine.
//
// This package defines error codes and types that enable:
//   - Telling a labeling-space limit apart from a broken input snapshot
//   - Machine-readable error codes for the import layer and the CLI
//   - Error wrapping with context preservation
//
// # Error Codes
//
// Error codes follow a hierarchical naming convention:
//   - INVALID_*: Input validation failures (options, triples, URIs)
//   - HIERARCHY_*, ILLEGAL_*: Labeling failures that abort a whole pass
//   - STORAGE_*: Persistence backend failures
//   - INTERNAL_*: Violated programmer invariants
//
// # Usage
//
//	err := errors.New(errors.ErrCodeHierarchyTooDeep, "no room below %s", parent)
//	if errors.Is(err, errors.ErrCodeHierarchyTooDeep) {
//	    // Raise the slack factor or the label universe
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeStorage, origErr, "load labels for %s", kind)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Input validation errors
	ErrCodeInvalidInput  Code = "INVALID_INPUT"
	ErrCodeInvalidTriple Code = "INVALID_TRIPLE"
	ErrCodeInvalidURI    Code = "INVALID_URI"
	ErrCodeInvalidConfig Code = "INVALID_CONFIG"

	// Labeling errors. Both abort the labeling pass.
	ErrCodeHierarchyTooDeep       Code = "HIERARCHY_TOO_DEEP"
	ErrCodeIllegalPropagatedLabel Code = "ILLEGAL_PROPAGATED_LABEL"

	// Query against labels invalidated by a schema change
	ErrCodeStaleLabels Code = "STALE_LABELS"

	// Resource not found errors
	ErrCodeNotFound     Code = "NOT_FOUND"
	ErrCodeNodeNotFound Code = "NODE_NOT_FOUND"

	// Persistence errors
	ErrCodeStorage     Code = "STORAGE_ERROR"
	ErrCodeLockTimeout Code = "LOCK_TIMEOUT"

	// Internal errors
	ErrCodeInternal    Code = "INTERNAL_ERROR"
	ErrCodeUnsupported Code = "UNSUPPORTED"
)

// Error is a structured error with a code and optional cause.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Human-readable message
	Cause   error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a new Error with the given code and formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap creates a new Error wrapping an existing error.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Is reports whether err has the given error code.
// It unwraps the error chain looking for an *Error with a matching code.
// Only the outermost *Error is inspected.
func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// GetCode extracts the error code from an error, if available.
// Returns empty string if the error is not an *Error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// UserMessage returns a user-friendly message for the error.
// For *Error types, returns the message without the code prefix.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

// IsLabelingFailure reports whether err aborted a labeling pass because of
// the label space or the graph snapshot, as opposed to storage or input.
func IsLabelingFailure(err error) bool {
	switch GetCode(err) {
	case ErrCodeHierarchyTooDeep, ErrCodeIllegalPropagatedLabel:
		return true
	}
	return false
}
