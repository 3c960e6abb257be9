package domain

import (
	"errors"
	"sort"
	"strings"
)

// Common errors
var (
	ErrNotFound     = errors.New("record not found")
	ErrForbidden    = errors.New("access forbidden: you don't own this resource")
	ErrInvalidID    = errors.New("invalid id")
	ErrConflict     = errors.New("resource already exists")
	ErrUnauthorized = errors.New("authentication failed")
)

// ValidationError carries field level messages, keyed by the JSON field name.
// Messages without a field go under "non_field_errors".
type ValidationError struct {
	Fields map[string][]string
}

const NonFieldErrors = "non_field_errors"

// NewValidationError creates a validation error with a single message
func NewValidationError(field, message string) *ValidationError {
	v := &ValidationError{}
	v.Add(field, message)
	return v
}

// Add appends a message for a field
func (v *ValidationError) Add(field, message string) {
	if v.Fields == nil {
		v.Fields = make(map[string][]string)
	}
	if field == "" {
		field = NonFieldErrors
	}
	v.Fields[field] = append(v.Fields[field], message)
}

// Merge copies all messages of other into v
func (v *ValidationError) Merge(other *ValidationError) {
	if other == nil {
		return
	}
	for field, msgs := range other.Fields {
		for _, m := range msgs {
			v.Add(field, m)
		}
	}
}

// HasErrors reports whether any message was collected
func (v *ValidationError) HasErrors() bool {
	return v != nil && len(v.Fields) > 0
}

// OrNil returns v as an error only when it holds messages
func (v *ValidationError) OrNil() error {
	if !v.HasErrors() {
		return nil
	}
	return v
}

func (v *ValidationError) Error() string {
	keys := make([]string, 0, len(v.Fields))
	for k := range v.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+strings.Join(v.Fields[k], "; "))
	}
	return "validation failed: " + strings.Join(parts, ", ")
}

// IsValidation reports whether err is (or wraps) a ValidationError
func IsValidation(err error) (*ValidationError, bool) {
	var v *ValidationError
	if errors.As(err, &v) {
		return v, true
	}
	return nil, false
}
