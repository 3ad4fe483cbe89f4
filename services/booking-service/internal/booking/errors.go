package booking

import (
	"errors"
	"fmt"
)

var (
	ErrValidation = errors.New("validation failed")
	ErrNotFound   = errors.New("not found")
	// ErrConflict means the requested interval is taken. Callers may retry with another slot.
	ErrConflict = errors.New("time slot no longer available")
	// ErrCodeTaken is returned by stores when a confirmation code collides at insert time, which
	// happens when a concurrent booking claimed it after the existence check.
	ErrCodeTaken = errors.New("confirmation code already in use")
	// ErrCodeExhausted means no unused confirmation code was found within the retry bound.
	ErrCodeExhausted = errors.New("could not allocate a unique confirmation code")
)

// ValidationError describes a caller-fixable input problem.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}
