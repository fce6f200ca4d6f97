package proposals

import (
	"regexp"
	"strings"
	"time"

	"github.com/wolfman30/careflow/internal/lifecycle"
	"github.com/wolfman30/careflow/internal/validate"
)

var currencyPattern = regexp.MustCompile(`^[A-Z]{3}$`)

// Proposal is a priced care plan offered to a client.
type Proposal struct {
	ID          string           `json:"id"`
	BookingRef  string           `json:"bookingRef,omitempty"`
	Title       string           `json:"title"`
	ClientName  string           `json:"clientName"`
	ClientEmail string           `json:"clientEmail"`
	Amount      int64            `json:"amount"` // minor currency units
	Currency    string           `json:"currency"`
	Status      lifecycle.Status `json:"status"`
	ValidUntil  *time.Time       `json:"validUntil,omitempty"`
	SentAt      *time.Time       `json:"sentAt,omitempty"`
	ViewedAt    *time.Time       `json:"viewedAt,omitempty"`
	AcceptedAt  *time.Time       `json:"acceptedAt,omitempty"`
	RejectedAt  *time.Time       `json:"rejectedAt,omitempty"`
	Version     int              `json:"version"`
	CreatedAt   time.Time        `json:"createdAt"`
	UpdatedAt   time.Time        `json:"updatedAt"`
}

func (p Proposal) GetID() string               { return p.ID }
func (p Proposal) GetStatus() lifecycle.Status { return p.Status }
func (p Proposal) GetVersion() int             { return p.Version }

// Recipient is the client the proposal is addressed to.
func (p Proposal) Recipient() (email, name string) { return p.ClientEmail, p.ClientName }

// Describe names the proposal in notifications.
func (p Proposal) Describe() string { return "proposal \"" + p.Title + "\"" }

// CreateRequest is the admin create body.
type CreateRequest struct {
	BookingRef  string     `json:"bookingRef"`
	Title       string     `json:"title"`
	ClientName  string     `json:"clientName"`
	ClientEmail string     `json:"clientEmail"`
	Amount      int64      `json:"amount"`
	Currency    string     `json:"currency"`
	ValidUntil  *time.Time `json:"validUntil"`
}

// Validate normalises and checks the request.
func (r *CreateRequest) Validate() error {
	r.Title = strings.TrimSpace(r.Title)
	r.ClientEmail = strings.TrimSpace(r.ClientEmail)
	r.Currency = strings.ToUpper(strings.TrimSpace(r.Currency))
	if r.Currency == "" {
		r.Currency = "USD"
	}
	return validate.First(
		validate.Required("title", r.Title),
		validate.Email("clientEmail", r.ClientEmail),
		checkAmount(r.Amount),
		checkCurrency(r.Currency),
	)
}

// PatchRequest runs an action or edits a DRAFT.
type PatchRequest struct {
	Action      string     `json:"action"`
	Version     int        `json:"version"`
	Title       *string    `json:"title"`
	ClientName  *string    `json:"clientName"`
	ClientEmail *string    `json:"clientEmail"`
	Amount      *int64     `json:"amount"`
	Currency    *string    `json:"currency"`
	ValidUntil  *time.Time `json:"validUntil"`
	BookingRef  *string    `json:"bookingRef"`
}

func (p PatchRequest) hasEdits() bool {
	return p.Title != nil || p.ClientName != nil || p.ClientEmail != nil || p.Amount != nil ||
		p.Currency != nil || p.ValidUntil != nil || p.BookingRef != nil
}

func (p PatchRequest) applyTo(prop Proposal) (Proposal, error) {
	if p.Title != nil {
		prop.Title = strings.TrimSpace(*p.Title)
	}
	if p.ClientName != nil {
		prop.ClientName = strings.TrimSpace(*p.ClientName)
	}
	if p.ClientEmail != nil {
		prop.ClientEmail = strings.TrimSpace(*p.ClientEmail)
	}
	if p.Amount != nil {
		prop.Amount = *p.Amount
	}
	if p.Currency != nil {
		prop.Currency = strings.ToUpper(strings.TrimSpace(*p.Currency))
	}
	if p.ValidUntil != nil {
		v := p.ValidUntil.UTC()
		prop.ValidUntil = &v
	}
	if p.BookingRef != nil {
		prop.BookingRef = strings.TrimSpace(*p.BookingRef)
	}
	return prop, validate.First(
		validate.Required("title", prop.Title),
		validate.Email("clientEmail", prop.ClientEmail),
		checkAmount(prop.Amount),
		checkCurrency(prop.Currency),
	)
}

func checkAmount(amount int64) error {
	if amount < 0 {
		return validate.Field("amount", "must not be negative")
	}
	return nil
}

func checkCurrency(code string) error {
	if !currencyPattern.MatchString(code) {
		return validate.Field("currency", "must be a three-letter ISO 4217 code")
	}
	return nil
}

func applyTransition(p Proposal, res lifecycle.Result) (Proposal, error) {
	if res.To == lifecycle.ProposalAccepted && p.ValidUntil != nil && res.At.After(*p.ValidUntil) {
		return Proposal{}, &lifecycle.TransitionError{
			Kind:   res.Kind,
			From:   res.From,
			Action: res.Action,
			Err:    ErrProposalExpired,
		}
	}
	p.Status = res.To
	p.Version++
	p.UpdatedAt = res.At
	at := res.At
	switch res.Stamp {
	case lifecycle.StampSentAt:
		p.SentAt = &at
	case lifecycle.StampViewedAt:
		p.ViewedAt = &at
	case lifecycle.StampAcceptedAt:
		p.AcceptedAt = &at
	case lifecycle.StampRejectedAt:
		p.RejectedAt = &at
	}
	return p, nil
}
