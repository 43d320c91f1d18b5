package types

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound     = errors.New("requested item not found")
	ErrUserNotFound = errors.New("user not found")
	ErrRideNotFound = errors.New("ride not found")

	// ErrInvalidTransition: the requested lifecycle transition is not in the
	// table. Not retryable; the persisted status is unchanged.
	ErrInvalidTransition = errors.New("invalid ride status transition")

	// ErrAlreadyClaimed: lost the claim race for a pending ride. The caller
	// should poll for another ride, not retry this one.
	ErrAlreadyClaimed = errors.New("ride already claimed by another driver")

	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNotUniqueEmail     = errors.New("user with this email already exists")

	// ErrProfileNotReady: the identity exists but its profile row has not
	// appeared yet (async creation). Distinct from ErrNotFound: retryable.
	ErrProfileNotReady = errors.New("profile not ready yet")

	ErrDriverNotVerified     = errors.New("driver is not verified")
	ErrCoordinatesOutOfRange = errors.New("coordinates out of range")
)

// ValidationError reports malformed input, field by field. Caller's fault,
// not retryable without correction.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %d field(s)", len(e.Fields))
}

// NewValidation builds a ValidationError with a single field message.
func NewValidation(field, msg string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: msg}}
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
