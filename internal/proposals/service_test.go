package proposals

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/careflow/internal/lifecycle"
	"github.com/wolfman30/careflow/internal/validate"
	"github.com/wolfman30/careflow/pkg/logging"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func newTestService(c *clock, obs lifecycle.Observer) *Service {
	return NewService(NewInMemoryRepository(), lifecycle.Hooks{Observer: obs, Now: c.now},
		logging.NewWithWriter(io.Discard, "error"))
}

func draft(t *testing.T, svc *Service, validUntil *time.Time) Proposal {
	t.Helper()
	p, err := svc.Create(context.Background(), CreateRequest{
		Title:       "Weekly companion care",
		ClientName:  "Ruth Byers",
		ClientEmail: "ruth@example.com",
		Amount:      125000,
		Currency:    "usd",
		ValidUntil:  validUntil,
	})
	require.NoError(t, err)
	return p
}

func TestProposalHappyPath(t *testing.T) {
	c := &clock{t: time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)}
	var sent []string
	svc := newTestService(c, lifecycle.ObserverFunc(func(_ context.Context, ev lifecycle.Event) error {
		if ev.Result.To == lifecycle.ProposalSent {
			email, _ := ev.Record.(Proposal).Recipient()
			sent = append(sent, email)
		}
		return nil
	}))
	ctx := context.Background()
	p := draft(t, svc, nil)
	assert.Equal(t, lifecycle.ProposalDraft, p.Status)
	assert.Equal(t, "USD", p.Currency)

	p, err := svc.Transition(ctx, p.ID, lifecycle.Command{Action: lifecycle.ActionSend})
	require.NoError(t, err)
	sentAt := *p.SentAt

	c.t = c.t.Add(time.Hour)
	p, err = svc.Transition(ctx, p.ID, lifecycle.Command{Action: lifecycle.ActionView})
	require.NoError(t, err)
	assert.Equal(t, lifecycle.ProposalViewed, p.Status)

	c.t = c.t.Add(time.Hour)
	p, err = svc.Transition(ctx, p.ID, lifecycle.Command{Action: lifecycle.ActionAccept})
	require.NoError(t, err)
	assert.Equal(t, lifecycle.ProposalAccepted, p.Status)
	assert.Equal(t, sentAt, *p.SentAt)
	assert.Equal(t, c.t, *p.AcceptedAt)
	assert.Equal(t, 4, p.Version)

	c.t = c.t.Add(time.Hour)
	_, err = svc.Transition(ctx, p.ID, lifecycle.Command{Action: lifecycle.ActionAccept})
	assert.ErrorIs(t, err, lifecycle.ErrAlreadyTerminal)
	_, err = svc.Transition(ctx, p.ID, lifecycle.Command{Action: lifecycle.ActionSend})
	assert.ErrorIs(t, err, lifecycle.ErrAlreadyTerminal)

	stored, err := svc.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, sentAt, *stored.SentAt)
	assert.Equal(t, []string{"ruth@example.com"}, sent)
}

func TestProposalCannotSkipSend(t *testing.T) {
	svc := newTestService(&clock{t: time.Now()}, nil)
	p := draft(t, svc, nil)

	_, err := svc.Transition(context.Background(), p.ID, lifecycle.Command{Action: lifecycle.ActionAccept})
	assert.ErrorIs(t, err, lifecycle.ErrIllegalTransition)
}

func TestAcceptAfterValidUntil(t *testing.T) {
	start := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	c := &clock{t: start}
	svc := newTestService(c, nil)
	until := start.Add(48 * time.Hour)
	p := draft(t, svc, &until)
	ctx := context.Background()

	_, err := svc.Transition(ctx, p.ID, lifecycle.Command{Action: lifecycle.ActionSend})
	require.NoError(t, err)

	c.t = until.Add(time.Minute)
	_, err = svc.Transition(ctx, p.ID, lifecycle.Command{Action: lifecycle.ActionAccept})
	assert.ErrorIs(t, err, ErrProposalExpired)
	assert.True(t, lifecycle.IsRejection(err))

	rejected, err := svc.Transition(ctx, p.ID, lifecycle.Command{Action: lifecycle.ActionReject})
	require.NoError(t, err)
	assert.Equal(t, lifecycle.ProposalRejected, rejected.Status)
}

func TestCreateValidation(t *testing.T) {
	svc := newTestService(&clock{t: time.Now()}, nil)
	ctx := context.Background()

	cases := map[string]CreateRequest{
		"title":       {Amount: 1},
		"amount":      {Title: "x", Amount: -1},
		"currency":    {Title: "x", Currency: "dollars"},
		"clientEmail": {Title: "x", ClientEmail: "nope"},
	}
	for field, req := range cases {
		_, err := svc.Create(ctx, req)
		fe, ok := validate.AsField(err)
		require.True(t, ok, field)
		assert.Equal(t, field, fe.Field)
	}
}

func TestEditOnlyWhileDraft(t *testing.T) {
	svc := newTestService(&clock{t: time.Now()}, nil)
	ctx := context.Background()
	p := draft(t, svc, nil)

	amount := int64(99000)
	edited, err := svc.Patch(ctx, p.ID, PatchRequest{Amount: &amount, Version: 1}, "admin")
	require.NoError(t, err)
	assert.Equal(t, amount, edited.Amount)
	assert.Equal(t, 2, edited.Version)

	_, err = svc.Patch(ctx, p.ID, PatchRequest{Action: "send"}, "admin")
	require.NoError(t, err)

	_, err = svc.Patch(ctx, p.ID, PatchRequest{Amount: &amount}, "admin")
	assert.ErrorIs(t, err, ErrNotEditable)
}
