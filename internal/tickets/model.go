package tickets

import (
	"strings"
	"time"

	"github.com/wolfman30/careflow/internal/lifecycle"
	"github.com/wolfman30/careflow/internal/validate"
)

// Ticket is a support request raised from the portal.
type Ticket struct {
	ID              string           `json:"id"`
	Subject         string           `json:"subject"`
	Description     string           `json:"description"`
	RequesterRef    string           `json:"requesterRef"`
	RequesterEmail  string           `json:"requesterEmail,omitempty"`
	Status          lifecycle.Status `json:"status"`
	Assignee        string           `json:"assignee,omitempty"`
	ResolutionNotes string           `json:"resolutionNotes,omitempty"`
	ResolvedAt      *time.Time       `json:"resolvedAt,omitempty"`
	Version         int              `json:"version"`
	CreatedAt       time.Time        `json:"createdAt"`
	UpdatedAt       time.Time        `json:"updatedAt"`
}

func (t Ticket) GetID() string               { return t.ID }
func (t Ticket) GetStatus() lifecycle.Status { return t.Status }
func (t Ticket) GetVersion() int             { return t.Version }

// Recipient is the requester, told when the ticket is resolved.
func (t Ticket) Recipient() (email, name string) { return t.RequesterEmail, "" }

// Describe names the ticket in notifications.
func (t Ticket) Describe() string { return "support ticket \"" + t.Subject + "\"" }

// CreateRequest is the portal body.
type CreateRequest struct {
	Subject     string `json:"subject"`
	Description string `json:"description"`
}

// Validate normalises and checks the request.
func (r *CreateRequest) Validate() error {
	r.Subject = strings.TrimSpace(r.Subject)
	r.Description = strings.TrimSpace(r.Description)
	return validate.Required("subject", r.Subject)
}

// PatchRequest carries a status action from an admin.
type PatchRequest struct {
	Action   string `json:"action"`
	Notes    string `json:"notes"`
	Assignee string `json:"assignee"`
	Version  int    `json:"version"`
}

func applyTransition(t Ticket, res lifecycle.Result) (Ticket, error) {
	t.Status = res.To
	t.Version++
	t.UpdatedAt = res.At
	if res.Stamp == lifecycle.StampResolvedAt {
		at := res.At
		t.ResolvedAt = &at
		t.ResolutionNotes = res.Notes
	}
	return t, nil
}
