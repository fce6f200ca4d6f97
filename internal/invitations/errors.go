package invitations

import "errors"

var (
	// ErrNotFound is returned when a code does not exist.
	ErrNotFound = errors.New("invitation code not found")

	// ErrCodeExpired is returned when redeeming a code past its expiry.
	ErrCodeExpired = errors.New("invitation code has expired")

	// ErrCodeSpaceExhausted is returned when every generation attempt collided.
	ErrCodeSpaceExhausted = errors.New("could not generate a unique invitation code")
)
