package errors

import "errors"

var (
	ErrWindowNotFound = errors.New("availability window not found")

	ErrHoldNotFound = errors.New("reservation hold not found")

	ErrWindowOverlap = errors.New("window overlaps an existing availability window")

	ErrOutsideAvailability = errors.New("interval is outside published availability")

	ErrIntervalHeld = errors.New("interval overlaps an existing reservation")

	ErrInvalidToken = errors.New("invalid reservation token")
)
