package audit

import "errors"

var (
	// ErrInvalidThreshold is returned when the time threshold is negative, NaN or infinite
	ErrInvalidThreshold = errors.New("invalid time threshold")

	// ErrNegativeWeight is returned when a check weight is below zero
	ErrNegativeWeight = errors.New("check weight must not be negative")
)
