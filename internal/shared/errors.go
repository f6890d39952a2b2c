package shared

import (
	"errors"
	"sort"
	"strconv"
	"strings"
)

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrValidation indicates caller data violates a precondition.
	ErrValidation = errors.New("validation failed")
	// ErrConstraint wraps storage-level uniqueness and foreign key violations.
	ErrConstraint = errors.New("constraint violation")
	// ErrInvalidCredentials indicates a PIN did not match.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// ValidationError carries per-field messages. It matches ErrValidation with errors.Is.
type ValidationError struct {
	Fields map[string]string
}

// NewValidationError builds a ValidationError with a single field message.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: message}}
}

// Add records a field message and returns the receiver for chaining.
func (e *ValidationError) Add(field, message string) *ValidationError {
	if e.Fields == nil {
		e.Fields = make(map[string]string)
	}
	e.Fields[field] = message
	return e
}

// Empty reports whether no field messages were recorded.
func (e *ValidationError) Empty() bool {
	return e == nil || len(e.Fields) == 0
}

func (e *ValidationError) Error() string {
	if e.Empty() {
		return ErrValidation.Error()
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return ErrValidation.Error() + ": " + strings.Join(parts, "; ")
}

// Is lets errors.Is(err, ErrValidation) succeed.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// NotFound wraps ErrNotFound with the missing entity for messages.
type NotFound struct {
	Entity string
	ID     int64
}

func (e *NotFound) Error() string {
	return e.Entity + " " + strconv.FormatInt(e.ID, 10) + " not found"
}

// Is lets errors.Is(err, ErrNotFound) succeed.
func (e *NotFound) Is(target error) bool {
	return target == ErrNotFound
}
