package domain

import (
	"errors"
	"fmt"
)

// Funding errors
var (
	// ErrInvalidAllocation indicates a call-site bug: non-positive slot count
	// or negative total cost.
	ErrInvalidAllocation = errors.New("invalid allocation: slot count must be positive and total cost non-negative")

	// ErrSlotsExhausted means a join would overfill the group.
	ErrSlotsExhausted = errors.New("group has no remaining slots")

	// ErrGroupClosed means the group stopped accepting members (deadline passed).
	ErrGroupClosed = errors.New("group is closed")

	// ErrStaleWrite means the group was modified concurrently. Callers should
	// re-read the group and retry.
	ErrStaleWrite = errors.New("group was modified concurrently")
)

// ValidationError reports an unmet step predicate or field-level rule.
// Recoverable: surfaced to the user inline, never fatal.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// NewValidationError creates a field-level validation error.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}
