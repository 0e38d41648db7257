package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation marks input rejected before any network call.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound marks a missing saved posting.
	ErrNotFound = errors.New("not found")
)

// ValidationError names the offending field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// Is makes errors.Is(err, ErrValidation) match any ValidationError.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}
