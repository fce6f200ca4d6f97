package inquiries

import (
	"errors"

	"github.com/wolfman30/careflow/internal/validate"
)

var (
	// ErrNotFound is returned when an inquiry does not exist.
	ErrNotFound = errors.New("inquiry not found")

	// ErrMissingContact is returned when both email and phone are missing.
	ErrMissingContact = errors.New("either email or phone is required")
)

var errEmptyPatch = validate.Field("action", "an action or at least one field is required")
