// LOCATION: internal/errors/errors.go
//
// This file provides:
// - Response codes shared by the transport layer
// - Sentinel errors for all error conditions
// - StorageError, which keeps the failure kind and the backend cause together
// - Error category checking functions
// - HTTP status mapping
// - Error wrapping utilities

package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// ============================================================================
// Response codes
// ============================================================================

const (
	CodeUnknown         int32 = 1
	CodeInvalidDocument int32 = 2
	CodeInvalidRequest  int32 = 3
	CodeNotFound        int32 = 4
	CodeStorageWrite    int32 = 5
	CodeStorageRead     int32 = 6
	CodeSchema          int32 = 7
	CodeInternal        int32 = 8
)

// CodeName returns a human-readable name for an error code.
func CodeName(code int32) string {
	switch code {
	case CodeUnknown:
		return "Unknown"
	case CodeInvalidDocument:
		return "InvalidDocument"
	case CodeInvalidRequest:
		return "InvalidRequest"
	case CodeNotFound:
		return "NotFound"
	case CodeStorageWrite:
		return "StorageWriteError"
	case CodeStorageRead:
		return "StorageReadError"
	case CodeSchema:
		return "SchemaError"
	case CodeInternal:
		return "Internal"
	default:
		return fmt.Sprintf("Code(%d)", code)
	}
}

// ============================================================================
// Sentinel errors
// ============================================================================

var (
	// Not found errors
	ErrNotFound        = errors.New("not found")
	ErrVersionNotFound = errors.New("document version not found")

	// Validation errors
	ErrInvalidDocument = errors.New("invalid document")
	ErrInvalidKey      = errors.New("invalid key")
	ErrInvalidConfig   = errors.New("invalid configuration")
	ErrMissingField    = errors.New("missing required field")
	ErrInvalidBody     = errors.New("invalid request body")

	// Storage errors
	ErrStorageWrite  = errors.New("storage write failed")
	ErrStorageRead   = errors.New("storage read failed")
	ErrSchema        = errors.New("schema not confirmed")
	ErrBatchTooLarge = errors.New("batch exceeds backend limit")
	ErrClosed        = errors.New("store is closed")

	// Generic
	ErrInternal = errors.New("internal error")
)

// Is is a convenience wrapper for errors.Is
var Is = errors.Is

// As is a convenience wrapper for errors.As
var As = errors.As

// New is a convenience wrapper for errors.New
var New = errors.New

// ============================================================================
// StorageError
// ============================================================================

// StorageError reports a failed storage operation.
//
// Kind is one of ErrStorageWrite, ErrStorageRead or ErrSchema. Both Kind and
// Err are reachable through errors.Is.
type StorageError struct {
	Op   string
	Kind error
	Err  error
}

func (e *StorageError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %v", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %v: %v", e.Op, e.Kind, e.Err)
}

// Unwrap exposes the kind sentinel and the backend cause.
func (e *StorageError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// NewStorageWrite wraps a failed batch application.
func NewStorageWrite(op string, err error) error {
	return &StorageError{Op: op, Kind: ErrStorageWrite, Err: err}
}

// NewStorageRead wraps a failed query or cursor.
func NewStorageRead(op string, err error) error {
	return &StorageError{Op: op, Kind: ErrStorageRead, Err: err}
}

// NewSchema wraps a failure to confirm the storage schema.
func NewSchema(op string, err error) error {
	return &StorageError{Op: op, Kind: ErrSchema, Err: err}
}

// ============================================================================
// Helper functions for error checking
// ============================================================================

// IsNotFound returns true if err is a not-found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrVersionNotFound)
}

// IsValidation returns true if err is a validation error.
func IsValidation(err error) bool {
	return errors.Is(err, ErrInvalidDocument) ||
		errors.Is(err, ErrInvalidKey) ||
		errors.Is(err, ErrInvalidConfig) ||
		errors.Is(err, ErrMissingField) ||
		errors.Is(err, ErrInvalidBody)
}

// ============================================================================
// Error to code mapping
// ============================================================================

// ErrorToCode maps a sentinel error to its response code.
func ErrorToCode(err error) int32 {
	if err == nil {
		return CodeUnknown
	}

	switch {
	case Is(err, ErrInvalidDocument):
		return CodeInvalidDocument
	case IsValidation(err):
		return CodeInvalidRequest
	case IsNotFound(err):
		return CodeNotFound
	case Is(err, ErrStorageWrite):
		return CodeStorageWrite
	case Is(err, ErrStorageRead):
		return CodeStorageRead
	case Is(err, ErrSchema):
		return CodeSchema
	default:
		return CodeInternal
	}
}

// HTTPStatus maps an error to the HTTP status the transport should send.
func HTTPStatus(err error) int {
	switch ErrorToCode(err) {
	case CodeInvalidDocument, CodeInvalidRequest:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// ============================================================================
// Error wrapping utilities
// ============================================================================

// Wrapf wraps an error with formatted context.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// ============================================================================
// Error constructors with context
// ============================================================================

// NewInvalidDocument creates a document validation error.
func NewInvalidDocument(reason string) error {
	return fmt.Errorf("%s: %w", reason, ErrInvalidDocument)
}

// NewValidation creates a validation error with context.
func NewValidation(field, reason string) error {
	return fmt.Errorf("invalid %s: %s: %w", field, reason, ErrInvalidConfig)
}

// NewMissingField creates a missing field error.
func NewMissingField(field string) error {
	return fmt.Errorf("%s: %w", field, ErrMissingField)
}

// ============================================================================
// Validation Errors Collection
// ============================================================================

// ValidationErrors collects multiple validation errors.
type ValidationErrors struct {
	Errors []error
}

// NewValidationErrors creates a new ValidationErrors collector.
func NewValidationErrors() *ValidationErrors {
	return &ValidationErrors{}
}

// Add adds an error to the collection.
func (v *ValidationErrors) Add(err error) {
	if err != nil {
		v.Errors = append(v.Errors, err)
	}
}

// AddField adds a field validation error.
func (v *ValidationErrors) AddField(field, reason string) {
	v.Errors = append(v.Errors, NewValidation(field, reason))
}

// AddMissing adds a missing field error.
func (v *ValidationErrors) AddMissing(field string) {
	v.Errors = append(v.Errors, NewMissingField(field))
}

// HasErrors returns true if there are any errors.
func (v *ValidationErrors) HasErrors() bool {
	return len(v.Errors) > 0
}

// Error implements the error interface.
func (v *ValidationErrors) Error() string {
	if len(v.Errors) == 0 {
		return ""
	}
	if len(v.Errors) == 1 {
		return v.Errors[0].Error()
	}

	msg := fmt.Sprintf("validation failed with %d errors:", len(v.Errors))
	for _, err := range v.Errors {
		msg += "\n  - " + err.Error()
	}
	return msg
}

// Err returns nil if no errors, otherwise returns the ValidationErrors.
func (v *ValidationErrors) Err() error {
	if len(v.Errors) == 0 {
		return nil
	}
	return v
}

// Unwrap returns the collected errors for errors.Is/As support.
func (v *ValidationErrors) Unwrap() []error {
	return v.Errors
}
