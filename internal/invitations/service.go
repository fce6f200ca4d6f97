package invitations

import (
	"context"
	"errors"
	"io"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"

	"github.com/wolfman30/careflow/internal/lifecycle"
	"github.com/wolfman30/careflow/internal/listing"
	"github.com/wolfman30/careflow/internal/storage"
	"github.com/wolfman30/careflow/internal/validate"
	"github.com/wolfman30/careflow/pkg/logging"
)

const maxGenerateAttempts = 5

var tracer = otel.Tracer("careflow.internal.invitations")

// Service issues, redeems and revokes invitation codes.
type Service struct {
	repo    Repository
	hooks   lifecycle.Hooks
	exec    *lifecycle.Executor[InvitationCode]
	logger  *logging.Logger
	entropy io.Reader
}

// NewService wires a service around repo.
func NewService(repo Repository, hooks lifecycle.Hooks, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{
		repo:   repo,
		hooks:  hooks,
		logger: logger,
		exec: &lifecycle.Executor[InvitationCode]{
			Machine:  lifecycle.InvitationCode,
			Load:     repo.Get,
			Apply:    applyRedeem,
			Save:     repo.Update,
			Observer: hooks.Observer,
			Metrics:  hooks.Metrics,
			Logger:   logger,
			Now:      hooks.Now,
		},
	}
}

// WithEntropy replaces the random source used for new codes.
func (s *Service) WithEntropy(r io.Reader) *Service {
	s.entropy = r
	return s
}

// Generate issues a code valid for expiryDays. Collisions with any existing
// code are retried with a fresh draw.
func (s *Service) Generate(ctx context.Context, expiryDays int, createdBy string) (View, error) {
	ctx, span := tracer.Start(ctx, "invitations.generate")
	defer span.End()

	if err := checkExpiryDays(expiryDays); err != nil {
		return View{}, err
	}
	now := s.hooks.Clock()().UTC()
	for attempt := 1; attempt <= maxGenerateAttempts; attempt++ {
		code, err := NewCode(s.entropy)
		if err != nil {
			return View{}, err
		}
		c := InvitationCode{
			ID:        uuid.New().String(),
			Code:      code,
			ExpiresAt: now.AddDate(0, 0, expiryDays),
			CreatedBy: createdBy,
			CreatedAt: now,
			Version:   1,
		}
		err = s.repo.Create(ctx, c)
		if err == nil {
			s.hooks.Metrics.ObserveCreated(string(lifecycle.KindInvitationCode), "admin")
			s.logger.Info("invitation code issued", "id", c.ID, "expires_at", c.ExpiresAt, "created_by", createdBy)
			return viewOf(c, now), nil
		}
		if !errors.Is(err, storage.ErrDuplicate) {
			span.RecordError(err)
			return View{}, err
		}
		s.logger.Warn("invitation code collision", "attempt", attempt)
	}
	return View{}, ErrCodeSpaceExhausted
}

// Get returns one code.
func (s *Service) Get(ctx context.Context, id string) (View, error) {
	c, err := s.repo.Get(ctx, id)
	if err != nil {
		return View{}, err
	}
	return viewOf(c, s.hooks.Clock()()), nil
}

// List returns one page of codes; q.Status is read as a State filter.
func (s *Service) List(ctx context.Context, q listing.Query) (listing.Page[View], error) {
	state, err := ParseState(q.Status)
	if err != nil {
		return listing.Page[View]{}, err
	}
	now := s.hooks.Clock()()
	page, err := s.repo.List(ctx, q, state, now)
	if err != nil {
		return listing.Page[View]{}, err
	}
	views := make([]View, 0, len(page.Data))
	for _, c := range page.Data {
		views = append(views, viewOf(c, now))
	}
	return listing.Page[View]{Data: views, Pagination: page.Pagination}, nil
}

// Redeem marks code used by usedBy. Expired codes fail with ErrCodeExpired
// and used codes with lifecycle.ErrAlreadyTerminal.
func (s *Service) Redeem(ctx context.Context, code, usedBy string) (View, error) {
	code = NormalizeCode(code)
	if err := validate.First(
		validate.Required("code", code),
		validate.Required("usedBy", usedBy),
	); err != nil {
		return View{}, err
	}
	c, err := s.repo.GetByCode(ctx, code)
	if err != nil {
		return View{}, err
	}
	redeemed, err := s.exec.Run(ctx, c.ID, lifecycle.Command{
		Action:          lifecycle.ActionRedeem,
		Payload:         lifecycle.Payload{Actor: usedBy},
		ExpectedVersion: c.Version,
	})
	if err != nil {
		return View{}, err
	}
	return viewOf(redeemed, *redeemed.UsedAt), nil
}

// Delete removes a code permanently.
func (s *Service) Delete(ctx context.Context, id, actor string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	if err := s.hooks.NotifyDelete(ctx, lifecycle.KindInvitationCode, id, actor); err != nil {
		s.logger.Warn("delete side effect failed", "id", id, "error", err)
	}
	s.logger.Info("invitation code deleted", "id", id, "actor", actor)
	return nil
}
