package invitations

import (
	"strings"
	"time"

	"github.com/wolfman30/careflow/internal/lifecycle"
	"github.com/wolfman30/careflow/internal/validate"
)

// Expiry horizon bounds, in days.
const (
	MinExpiryDays = 1
	MaxExpiryDays = 365
)

// State is the derived, user-facing state of a code.
type State string

const (
	StateActive  State = "active"
	StateUsed    State = "used"
	StateExpired State = "expired"
)

// ParseState reads a status filter value; "" means no filter.
func ParseState(raw string) (State, error) {
	switch s := State(strings.ToLower(strings.TrimSpace(raw))); s {
	case "", StateActive, StateUsed, StateExpired:
		return s, nil
	}
	return "", validate.Field("status", "must be one of active, used, expired")
}

// InvitationCode lets a new user join the portal.
type InvitationCode struct {
	ID        string     `json:"id"`
	Code      string     `json:"code"`
	ExpiresAt time.Time  `json:"expiresAt"`
	IsUsed    bool       `json:"isUsed"`
	UsedBy    string     `json:"usedBy,omitempty"`
	UsedAt    *time.Time `json:"usedAt,omitempty"`
	CreatedBy string     `json:"createdBy,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
	Version   int        `json:"version"`
}

func (c InvitationCode) GetID() string   { return c.ID }
func (c InvitationCode) GetVersion() int { return c.Version }

// GetStatus maps the stored flag onto the redeem lifecycle.
func (c InvitationCode) GetStatus() lifecycle.Status {
	if c.IsUsed {
		return lifecycle.CodeUsed
	}
	return lifecycle.CodeActive
}

// Classify reports the state at now. A used code stays Used after expiry.
func Classify(c InvitationCode, now time.Time) State {
	switch {
	case c.IsUsed:
		return StateUsed
	case c.ExpiresAt.Before(now):
		return StateExpired
	default:
		return StateActive
	}
}

// View is a code plus its state at read time.
type View struct {
	InvitationCode
	State State `json:"status"`
}

func viewOf(c InvitationCode, now time.Time) View {
	return View{InvitationCode: c, State: Classify(c, now)}
}

// GenerateRequest is the admin create body.
type GenerateRequest struct {
	ExpiryDays int `json:"expiryDays"`
}

// RedeemRequest is the public redeem body.
type RedeemRequest struct {
	Code   string `json:"code"`
	UsedBy string `json:"usedBy"`
}

func checkExpiryDays(days int) error {
	if days < MinExpiryDays || days > MaxExpiryDays {
		return validate.Field("expiryDays", "must be between 1 and 365")
	}
	return nil
}

func applyRedeem(c InvitationCode, res lifecycle.Result) (InvitationCode, error) {
	if c.ExpiresAt.Before(res.At) {
		return InvitationCode{}, &lifecycle.TransitionError{
			Kind:   res.Kind,
			From:   res.From,
			Action: res.Action,
			Err:    ErrCodeExpired,
		}
	}
	at := res.At
	c.IsUsed = true
	c.UsedBy = res.Actor
	c.UsedAt = &at
	c.Version++
	return c, nil
}
