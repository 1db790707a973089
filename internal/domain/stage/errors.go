package stage

import "errors"

var (
	// ErrInvalidTransition is returned when a stage change is not present in the transition table
	ErrInvalidTransition = errors.New("invalid stage transition")

	// ErrInvalidStage is returned when a stage value is not a known lifecycle stage
	ErrInvalidStage = errors.New("invalid stage")
)
