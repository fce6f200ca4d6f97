package inquiries

import (
	"strings"
	"time"

	"github.com/wolfman30/careflow/internal/lifecycle"
	"github.com/wolfman30/careflow/internal/validate"
)

// Inquiry is a contact request submitted from the public site.
type Inquiry struct {
	ID                     string           `json:"id"`
	Name                   string           `json:"name"`
	Email                  string           `json:"email"`
	Phone                  string           `json:"phone"`
	Source                 string           `json:"source"`
	Subject                string           `json:"subject"`
	Message                string           `json:"message"`
	Status                 lifecycle.Status `json:"status"`
	DisqualificationReason string           `json:"disqualificationReason,omitempty"`
	DisqualifiedAt         *time.Time       `json:"disqualifiedAt,omitempty"`
	ConvertedAt            *time.Time       `json:"convertedAt,omitempty"`
	Version                int              `json:"version"`
	CreatedAt              time.Time        `json:"createdAt"`
	UpdatedAt              time.Time        `json:"updatedAt"`
}

func (i Inquiry) GetID() string               { return i.ID }
func (i Inquiry) GetStatus() lifecycle.Status { return i.Status }
func (i Inquiry) GetVersion() int             { return i.Version }

// CreateRequest is the public submission body.
type CreateRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Source  string `json:"source"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

// Validate checks the submission.
func (r *CreateRequest) Validate() error {
	r.Name = strings.TrimSpace(r.Name)
	r.Email = strings.TrimSpace(r.Email)
	r.Phone = strings.TrimSpace(r.Phone)
	if err := validate.Required("name", r.Name); err != nil {
		return err
	}
	if r.Email == "" && r.Phone == "" {
		return validate.Field("email", ErrMissingContact.Error())
	}
	return validate.Email("email", r.Email)
}

// PatchRequest either runs a status action or edits contact fields.
type PatchRequest struct {
	Action  string  `json:"action"`
	Reason  string  `json:"reason"`
	Version int     `json:"version"`
	Name    *string `json:"name"`
	Email   *string `json:"email"`
	Phone   *string `json:"phone"`
	Subject *string `json:"subject"`
	Message *string `json:"message"`
}

// Fields extracts the field edits of a patch.
func (p PatchRequest) Fields() Update {
	return Update{Name: p.Name, Email: p.Email, Phone: p.Phone, Subject: p.Subject, Message: p.Message}
}

// Update edits the non-status fields of an inquiry. Nil fields are left as is.
type Update struct {
	Name    *string
	Email   *string
	Phone   *string
	Subject *string
	Message *string
}

// Empty reports whether the update changes nothing.
func (u Update) Empty() bool {
	return u.Name == nil && u.Email == nil && u.Phone == nil && u.Subject == nil && u.Message == nil
}

func (u Update) applyTo(inq Inquiry) (Inquiry, error) {
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = strings.TrimSpace(*src)
		}
	}
	set(&inq.Name, u.Name)
	set(&inq.Email, u.Email)
	set(&inq.Phone, u.Phone)
	set(&inq.Subject, u.Subject)
	set(&inq.Message, u.Message)

	if err := validate.Required("name", inq.Name); err != nil {
		return Inquiry{}, err
	}
	if inq.Email == "" && inq.Phone == "" {
		return Inquiry{}, validate.Field("email", ErrMissingContact.Error())
	}
	if err := validate.Email("email", inq.Email); err != nil {
		return Inquiry{}, err
	}
	return inq, nil
}

func applyTransition(inq Inquiry, res lifecycle.Result) (Inquiry, error) {
	inq.Status = res.To
	inq.Version++
	inq.UpdatedAt = res.At
	at := res.At
	switch res.Stamp {
	case lifecycle.StampDisqualifiedAt:
		inq.DisqualifiedAt = &at
		inq.DisqualificationReason = res.Reason
	case lifecycle.StampConvertedAt:
		inq.ConvertedAt = &at
	}
	return inq, nil
}
