package core

import (
	"errors"
	"strings"
)

// ErrNotFound covers both a missing transaction and one owned by
// somebody else: callers cannot tell the two apart.
var ErrNotFound = errors.New("transaction not found")

// FieldViolation names one violated constraint on one field.
type FieldViolation struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError collects every violated constraint of a request so
// the caller sees them all at once instead of one per round trip.
type ValidationError struct {
	Violations []FieldViolation
}

func (e *ValidationError) Error() string {
	if len(e.Violations) == 0 {
		return "validation failed"
	}
	msgs := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		msgs = append(msgs, v.Field+": "+v.Message)
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

// Add appends one violation.
func (e *ValidationError) Add(field, message string) {
	e.Violations = append(e.Violations, FieldViolation{Field: field, Message: message})
}

// Merge appends all violations from other.
func (e *ValidationError) Merge(other *ValidationError) {
	if other == nil {
		return
	}
	e.Violations = append(e.Violations, other.Violations...)
}

// OrNil returns the collector as an error, or nil when nothing was
// violated. Always use this at the boundary; a typed nil pointer
// compared against error would never be nil.
func (e *ValidationError) OrNil() error {
	if e == nil || len(e.Violations) == 0 {
		return nil
	}
	return e
}
