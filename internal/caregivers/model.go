package caregivers

import (
	"strings"
	"time"

	"github.com/wolfman30/careflow/internal/validate"
)

// Assignment links a caregiver to a patient. At most one assignment per
// patient is active (RevokedAt == nil); earlier ones are kept as history.
type Assignment struct {
	ID           string     `json:"id"`
	PatientRef   string     `json:"patientRef"`
	CaregiverRef string     `json:"caregiverRef"`
	Notes        string     `json:"notes,omitempty"`
	AssignedBy   string     `json:"assignedBy,omitempty"`
	AssignedAt   time.Time  `json:"assignedAt"`
	RevokedAt    *time.Time `json:"revokedAt,omitempty"`
	Version      int        `json:"version"`
}

func (a Assignment) GetID() string   { return a.ID }
func (a Assignment) GetVersion() int { return a.Version }

// Active reports whether the assignment is current.
func (a Assignment) Active() bool { return a.RevokedAt == nil }

// AssignRequest is the admin body.
type AssignRequest struct {
	PatientRef   string `json:"patientRef"`
	CaregiverRef string `json:"caregiverRef"`
	Notes        string `json:"notes"`
}

// Validate normalises and checks the request.
func (r *AssignRequest) Validate() error {
	r.PatientRef = strings.TrimSpace(r.PatientRef)
	r.CaregiverRef = strings.TrimSpace(r.CaregiverRef)
	r.Notes = strings.TrimSpace(r.Notes)
	return validate.First(
		validate.Required("patientRef", r.PatientRef),
		validate.Required("caregiverRef", r.CaregiverRef),
	)
}
