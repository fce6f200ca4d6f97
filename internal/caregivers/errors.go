package caregivers

import "errors"

var (
	// ErrNotFound is returned when an assignment does not exist.
	ErrNotFound = errors.New("caregiver assignment not found")

	// ErrNoActiveAssignment is returned when a patient has no current caregiver.
	ErrNoActiveAssignment = errors.New("patient has no active caregiver")

	// ErrAlreadyRevoked is returned when unassigning a revoked assignment.
	ErrAlreadyRevoked = errors.New("assignment already revoked")
)
