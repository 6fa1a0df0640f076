package record

import "errors"

// Sentinel errors for record operations.
var (
	ErrNotFound   = errors.New("record not found")
	ErrValidation = errors.New("record validation failed")
)

// MsgMissingFields is reported when a required field is absent.
const MsgMissingFields = "Missing required fields"

// ValidationError describes invalid caller input. It matches ErrValidation.
type ValidationError struct {
	message string
}

// NewValidationError creates a ValidationError with a user-facing message.
func NewValidationError(message string) *ValidationError {
	return &ValidationError{message: message}
}

// Error returns the user-facing message.
func (e *ValidationError) Error() string { return e.message }

// Is reports whether target is ErrValidation.
func (e *ValidationError) Is(target error) bool { return target == ErrValidation }
