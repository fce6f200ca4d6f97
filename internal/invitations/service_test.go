package invitations

import (
	"bytes"
	"context"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/careflow/internal/lifecycle"
	"github.com/wolfman30/careflow/internal/listing"
	"github.com/wolfman30/careflow/internal/validate"
	"github.com/wolfman30/careflow/pkg/logging"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func newTestService(c *clock) *Service {
	return NewService(NewInMemoryRepository(), lifecycle.Hooks{Now: c.now}, logging.NewWithWriter(io.Discard, "error"))
}

var start = time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

func TestGenerateBounds(t *testing.T) {
	svc := newTestService(&clock{t: start})
	ctx := context.Background()

	for _, days := range []int{0, -3, 366} {
		_, err := svc.Generate(ctx, days, "admin-1")
		fe, ok := validate.AsField(err)
		require.True(t, ok, days)
		assert.Equal(t, "expiryDays", fe.Field)
	}

	v, err := svc.Generate(ctx, 365, "admin-1")
	require.NoError(t, err)
	assert.Equal(t, start.AddDate(0, 0, 365), v.ExpiresAt)
	assert.False(t, v.IsUsed)
	assert.Equal(t, StateActive, v.State)

	_, err = svc.Generate(ctx, 1, "admin-1")
	require.NoError(t, err)
}

func TestGenerateRetriesOnCollision(t *testing.T) {
	svc := newTestService(&clock{t: start})
	ctx := context.Background()

	zeros := make([]byte, 10)
	ones := bytes.Repeat([]byte{0xff}, 10)
	svc.WithEntropy(bytes.NewReader(zeros))
	first, err := svc.Generate(ctx, 7, "admin")
	require.NoError(t, err)

	svc.WithEntropy(bytes.NewReader(append(append([]byte{}, zeros...), ones...)))
	second, err := svc.Generate(ctx, 7, "admin")
	require.NoError(t, err)
	assert.NotEqual(t, first.Code, second.Code)

	svc.WithEntropy(bytes.NewReader(bytes.Repeat(zeros, maxGenerateAttempts)))
	_, err = svc.Generate(ctx, 7, "admin")
	assert.ErrorIs(t, err, ErrCodeSpaceExhausted)
}

func TestClassify(t *testing.T) {
	past := start.Add(-time.Hour)
	future := start.Add(time.Hour)
	used := start.Add(-2 * time.Hour)

	assert.Equal(t, StateExpired, Classify(InvitationCode{ExpiresAt: past}, start))
	assert.Equal(t, StateActive, Classify(InvitationCode{ExpiresAt: future}, start))
	assert.Equal(t, StateUsed, Classify(InvitationCode{ExpiresAt: past, IsUsed: true, UsedAt: &used}, start))
}

func TestRedeem(t *testing.T) {
	c := &clock{t: start}
	svc := newTestService(c)
	ctx := context.Background()
	v, err := svc.Generate(ctx, 3, "admin")
	require.NoError(t, err)

	_, err = svc.Redeem(ctx, v.Code, "")
	assert.ErrorIs(t, err, validate.ErrInvalid)

	c.t = start.Add(time.Hour)
	redeemed, err := svc.Redeem(ctx, " "+v.Code+" ", "new.caregiver@example.com")
	require.NoError(t, err)
	assert.True(t, redeemed.IsUsed)
	assert.Equal(t, StateUsed, redeemed.State)
	assert.Equal(t, "new.caregiver@example.com", redeemed.UsedBy)
	usedAt := *redeemed.UsedAt

	c.t = start.Add(2 * time.Hour)
	_, err = svc.Redeem(ctx, v.Code, "someone.else@example.com")
	assert.ErrorIs(t, err, lifecycle.ErrAlreadyTerminal)

	stored, err := svc.Get(ctx, v.ID)
	require.NoError(t, err)
	assert.Equal(t, "new.caregiver@example.com", stored.UsedBy)
	assert.Equal(t, usedAt, *stored.UsedAt)

	_, err = svc.Redeem(ctx, "AAAA-BBBB-CCCC-DDDD", "x@example.com")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedeemExpired(t *testing.T) {
	c := &clock{t: start}
	svc := newTestService(c)
	ctx := context.Background()
	v, err := svc.Generate(ctx, 1, "admin")
	require.NoError(t, err)

	c.t = start.AddDate(0, 0, 2)
	_, err = svc.Redeem(ctx, v.Code, "late@example.com")
	assert.ErrorIs(t, err, ErrCodeExpired)

	got, err := svc.Get(ctx, v.ID)
	require.NoError(t, err)
	assert.False(t, got.IsUsed)
	assert.Equal(t, StateExpired, got.State)
}

func TestListByState(t *testing.T) {
	c := &clock{t: start}
	svc := newTestService(c)
	ctx := context.Background()

	short, err := svc.Generate(ctx, 1, "admin")
	require.NoError(t, err)
	long, err := svc.Generate(ctx, 30, "admin")
	require.NoError(t, err)
	toUse, err := svc.Generate(ctx, 30, "admin")
	require.NoError(t, err)
	_, err = svc.Redeem(ctx, toUse.Code, "u@example.com")
	require.NoError(t, err)

	c.t = start.AddDate(0, 0, 5)
	cases := map[string]string{"expired": short.ID, "active": long.ID, "used": toUse.ID}
	for state, id := range cases {
		page, err := svc.List(ctx, listing.Query{Status: state})
		require.NoError(t, err)
		require.Len(t, page.Data, 1, state)
		assert.Equal(t, id, page.Data[0].ID)
	}

	all, err := svc.List(ctx, listing.Query{})
	require.NoError(t, err)
	assert.Equal(t, 3, all.Pagination.Total)

	_, err = svc.List(ctx, listing.Query{Status: "revoked"})
	assert.ErrorIs(t, err, validate.ErrInvalid)
}

func TestDeleteIsHard(t *testing.T) {
	svc := newTestService(&clock{t: start})
	ctx := context.Background()
	v, err := svc.Generate(ctx, 1, "admin")
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, v.ID, "admin"))
	_, err = svc.Get(ctx, v.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, v.ID, "admin"), ErrNotFound)
}
