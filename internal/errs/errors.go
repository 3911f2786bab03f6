package errs

import "errors"

// Common sentinel errors for cross-layer signaling.
var (
	ErrNotFound = errors.New("not_found")
	ErrConflict = errors.New("conflict")
	ErrInvalid  = errors.New("invalid")
	// ErrInvalidAmount is returned for non-positive monetary values.
	ErrInvalidAmount = errors.New("invalid_amount")
	// ErrInvalidReading is returned when a meter reading is negative or lower than the previous one.
	ErrInvalidReading = errors.New("invalid_reading")
	// ErrInvalidPeriod is returned when a paid/billed period count is below the allowed minimum.
	ErrInvalidPeriod = errors.New("invalid_period")
	// ErrImmutable indicates an attempt to change immutable fields
	ErrImmutable = errors.New("immutable")
)
