package services

import (
	"errors"

	"github.com/mguerin/materiguard/validation"
)

// Sentinel errors surfaced by the entity services. They are recovered at the
// call site and shown to the user; none of them is fatal to the process, and
// nothing retries automatically.
var (
	ErrNotFound           = errors.New("not found")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrAccountDisabled    = errors.New("account disabled")
	ErrInsufficientStock  = errors.New("insufficient stock")
	ErrCapacityExceeded   = errors.New("available quantity cannot exceed total stock")
	ErrAlreadyReturned    = errors.New("already returned")
	ErrUsernameTaken      = errors.New("username already exists")
	ErrEmailTaken         = errors.New("email already exists")
	ErrValidation         = errors.New("validation failed")
)

// ValidationError carries per-field violations. errors.Is(err, ErrValidation)
// matches it, so callers can branch without unwrapping.
type ValidationError struct {
	Violations validation.Violations
}

func (e *ValidationError) Error() string { return "validation failed" }

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// invalid returns a ValidationError when v holds violations, nil otherwise.
func invalid(v validation.Violations) error {
	if v.Empty() {
		return nil
	}
	return &ValidationError{Violations: v}
}
