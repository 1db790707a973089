package entity

import "errors"

// Failure taxonomy shared across the service layer. Structural violations
// are surfaced to the caller; nothing is retried.
var (
	// ErrNotFound marks a missing agreement, approval, lead or config
	ErrNotFound = errors.New("not found")

	// ErrInvalidState marks an operation attempted outside its required stage
	ErrInvalidState = errors.New("invalid state for operation")

	// ErrForbidden marks a responder who is neither the assigned approver
	// nor a holder of the required role
	ErrForbidden = errors.New("actor not authorized")

	// ErrConflict marks responding to an already-resolved approval or
	// double-initiating an approval round
	ErrConflict = errors.New("conflicting operation")

	// ErrValidation marks malformed input
	ErrValidation = errors.New("validation failed")
)
