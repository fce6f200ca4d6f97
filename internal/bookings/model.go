package bookings

import (
	"strings"
	"time"

	"github.com/wolfman30/careflow/internal/lifecycle"
	"github.com/wolfman30/careflow/internal/validate"
)

// Payment states tracked next to the booking status.
const (
	PaymentUnpaid = "unpaid"
	PaymentPaid   = "paid"
)

// Booking is a scheduled care visit.
type Booking struct {
	ID            string           `json:"id"`
	ExternalRef   string           `json:"externalRef,omitempty"`
	PatientRef    string           `json:"patientRef"`
	PatientName   string           `json:"patientName"`
	PatientEmail  string           `json:"patientEmail"`
	ScheduledAt   time.Time        `json:"scheduledAt"`
	Status        lifecycle.Status `json:"status"`
	PaymentStatus string           `json:"paymentStatus"`
	CancelReason  string           `json:"cancelReason,omitempty"`
	ConfirmedAt   *time.Time       `json:"confirmedAt,omitempty"`
	PaidAt        *time.Time       `json:"paidAt,omitempty"`
	CompletedAt   *time.Time       `json:"completedAt,omitempty"`
	CancelledAt   *time.Time       `json:"cancelledAt,omitempty"`
	Version       int              `json:"version"`
	CreatedAt     time.Time        `json:"createdAt"`
	UpdatedAt     time.Time        `json:"updatedAt"`
}

func (b Booking) GetID() string               { return b.ID }
func (b Booking) GetStatus() lifecycle.Status { return b.Status }
func (b Booking) GetVersion() int             { return b.Version }

// Recipient is the patient contact for confirmations.
func (b Booking) Recipient() (email, name string) { return b.PatientEmail, b.PatientName }

// Describe names the booking in notifications.
func (b Booking) Describe() string {
	return "visit on " + b.ScheduledAt.Format("Mon Jan 2 2006 15:04 MST")
}

// CreateRequest is the body of the calendar callback and of admin creation.
type CreateRequest struct {
	ExternalRef  string    `json:"externalRef"`
	PatientRef   string    `json:"patientRef"`
	PatientName  string    `json:"patientName"`
	PatientEmail string    `json:"patientEmail"`
	ScheduledAt  time.Time `json:"scheduledAt"`
}

// Validate normalises and checks the request.
func (r *CreateRequest) Validate() error {
	r.ExternalRef = strings.TrimSpace(r.ExternalRef)
	r.PatientRef = strings.TrimSpace(r.PatientRef)
	r.PatientEmail = strings.TrimSpace(r.PatientEmail)
	if err := validate.Required("patientRef", r.PatientRef); err != nil {
		return err
	}
	if r.ScheduledAt.IsZero() {
		return validate.Field("scheduledAt", "scheduledAt is required")
	}
	return validate.Email("patientEmail", r.PatientEmail)
}

// PatchRequest carries a status action.
type PatchRequest struct {
	Action  string `json:"action"`
	Reason  string `json:"reason"`
	Version int    `json:"version"`
}

func applyTransition(b Booking, res lifecycle.Result) (Booking, error) {
	b.Status = res.To
	b.Version++
	b.UpdatedAt = res.At
	at := res.At
	switch res.Stamp {
	case lifecycle.StampConfirmedAt:
		b.ConfirmedAt = &at
	case lifecycle.StampPaidAt:
		b.PaidAt = &at
		b.PaymentStatus = PaymentPaid
	case lifecycle.StampCompletedAt:
		b.CompletedAt = &at
	case lifecycle.StampCancelledAt:
		b.CancelledAt = &at
		b.CancelReason = res.Reason
	}
	return b, nil
}
