package proposals

import "errors"

var (
	// ErrNotFound is returned when a proposal does not exist.
	ErrNotFound = errors.New("proposal not found")

	// ErrProposalExpired is returned when accepting after validUntil.
	ErrProposalExpired = errors.New("proposal has expired")
)

// ErrNotEditable is returned when editing fields of a proposal that left DRAFT.
var ErrNotEditable = errors.New("only draft proposals can be edited")
