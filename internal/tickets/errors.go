package tickets

import "errors"

var (
	ErrNotFound = errors.New("ticket not found")
	// ErrForbidden is returned when a portal user asks for someone else's ticket.
	ErrForbidden = errors.New("ticket belongs to another requester")
)
