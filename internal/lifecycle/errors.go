package lifecycle

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownAction is returned when an action is not defined for the entity kind.
	ErrUnknownAction = errors.New("unknown action")

	// ErrIllegalTransition is returned when no edge leads out of the current status for the action.
	ErrIllegalTransition = errors.New("illegal transition")

	// ErrAlreadyTerminal is returned when the entity already sits in a terminal status.
	ErrAlreadyTerminal = errors.New("already in terminal state")

	// ErrReasonRequired is returned when the transition needs a non-empty reason.
	ErrReasonRequired = errors.New("reason is required")

	// ErrActorRequired is returned when the transition needs to know who performed it.
	ErrActorRequired = errors.New("actor is required")
)

// TransitionError describes a rejected transition. It unwraps to one of the
// sentinel errors above.
type TransitionError struct {
	Kind   Kind
	From   Status
	Action Action
	Err    error
}

func (e *TransitionError) Error() string {
	if e.From == "" {
		return fmt.Sprintf("%s %s: %v", e.Kind, e.Action, e.Err)
	}
	return fmt.Sprintf("%s %s from %s: %v", e.Kind, e.Action, e.From, e.Err)
}

func (e *TransitionError) Unwrap() error {
	return e.Err
}

// IsRejection reports whether err is a transition rejection (as opposed to a
// storage or transport failure).
func IsRejection(err error) bool {
	var te *TransitionError
	return errors.As(err, &te)
}
