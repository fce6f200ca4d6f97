package bookings

import "errors"

var (
	// ErrNotFound is returned when a booking does not exist.
	ErrNotFound = errors.New("booking not found")

	// ErrBadSignature is returned when a calendar callback carries the wrong secret.
	ErrBadSignature = errors.New("invalid calendar webhook secret")
)
