package models

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrDuplicate marks a write rejected by a uniqueness constraint.
var ErrDuplicate = errors.New("duplicate value")

// ValidationError reports a write rejected by the store, keyed by field.
type ValidationError struct {
	Fields map[string][]string
	Err    error
}

func NewValidationError(field, msg string) *ValidationError {
	return &ValidationError{Fields: map[string][]string{field: {msg}}}
}

// NewDuplicateError is the validation error for a uniqueness violation on field.
func NewDuplicateError(field string) *ValidationError {
	return &ValidationError{
		Fields: map[string][]string{field: {field + " has already been taken"}},
		Err:    ErrDuplicate,
	}
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, strings.Join(e.Fields[k], "; ")))
	}
	return "validation failed: " + strings.Join(parts, ", ")
}

func (e *ValidationError) Unwrap() error { return e.Err }
