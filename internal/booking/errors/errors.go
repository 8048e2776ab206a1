package errors

import "errors"

var (
	ErrAppointmentNotFound = errors.New("appointment not found")

	// ErrVersionMismatch means the conditional update matched no document
	// with the expected version: the appointment was mutated concurrently.
	ErrVersionMismatch = errors.New("appointment version mismatch")

	ErrNotParty = errors.New("actor is not a party to the appointment")

	ErrNotEnded = errors.New("appointment has not ended yet")
)
