package shared

import "errors"

// Base errors for the service-ticket core. Module packages wrap these so
// callers can classify any failure with errors.Is while keeping messages
// specific to the operation that failed.
var (
	// ErrNotFound indicates a referenced entity is absent or out of scope.
	ErrNotFound = errors.New("not found")
	// ErrValidation indicates a rejected input (missing field, negative amount, branch mismatch).
	ErrValidation = errors.New("validation failed")
	// ErrInsufficientStock indicates an availability check or ledger guard failed.
	ErrInsufficientStock = errors.New("insufficient stock")
	// ErrInvalidState indicates an operation illegal in the current lifecycle state.
	ErrInvalidState = errors.New("invalid state transition")
)

// CodeOf returns the stable machine-readable code for an error.
func CodeOf(err error) string {
	switch {
	case errors.Is(err, ErrNotFound):
		return "NOT_FOUND"
	case errors.Is(err, ErrValidation):
		return "VALIDATION_ERROR"
	case errors.Is(err, ErrInsufficientStock):
		return "INSUFFICIENT_STOCK"
	case errors.Is(err, ErrInvalidState):
		return "INVALID_STATE_TRANSITION"
	default:
		return "INTERNAL"
	}
}
