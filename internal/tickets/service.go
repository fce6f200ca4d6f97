package tickets

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/wolfman30/careflow/internal/lifecycle"
	"github.com/wolfman30/careflow/internal/listing"
	"github.com/wolfman30/careflow/internal/validate"
	"github.com/wolfman30/careflow/pkg/logging"
)

// Requester identifies the portal user raising a ticket.
type Requester struct {
	Ref   string
	Email string
}

// Service owns ticket intake and triage.
type Service struct {
	repo   Repository
	hooks  lifecycle.Hooks
	exec   *lifecycle.Executor[Ticket]
	logger *logging.Logger
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
		exec: &lifecycle.Executor[Ticket]{
			Machine:  lifecycle.Ticket,
			Load:     repo.Get,
			Apply:    applyTransition,
			Save:     repo.Update,
			Observer: hooks.Observer,
			Metrics:  hooks.Metrics,
			Logger:   logger,
			Now:      hooks.Now,
		},
	}
}

// Create opens a ticket on behalf of who.
func (s *Service) Create(ctx context.Context, who Requester, req CreateRequest) (Ticket, error) {
	if err := req.Validate(); err != nil {
		return Ticket{}, err
	}
	if err := validate.Required("requester", who.Ref); err != nil {
		return Ticket{}, err
	}
	now := s.hooks.Clock()().UTC()
	t := Ticket{
		ID:             uuid.New().String(),
		Subject:        req.Subject,
		Description:    req.Description,
		RequesterRef:   who.Ref,
		RequesterEmail: who.Email,
		Status:         lifecycle.Ticket.Initial(),
		Version:        1,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.repo.Create(ctx, t); err != nil {
		return Ticket{}, err
	}
	s.hooks.Metrics.ObserveCreated(string(lifecycle.KindTicket), "portal")
	s.logger.Info("ticket opened", "id", t.ID, "requester", who.Ref)
	return t, nil
}

// Get returns any ticket.
func (s *Service) Get(ctx context.Context, id string) (Ticket, error) {
	return s.repo.Get(ctx, id)
}

// GetOwn returns a ticket only if requester raised it.
func (s *Service) GetOwn(ctx context.Context, id, requester string) (Ticket, error) {
	t, err := s.repo.Get(ctx, id)
	if err != nil {
		return Ticket{}, err
	}
	if t.RequesterRef != requester {
		return Ticket{}, ErrForbidden
	}
	return t, nil
}

// List returns every ticket.
func (s *Service) List(ctx context.Context, q listing.Query) (listing.Page[Ticket], error) {
	return s.repo.List(ctx, q, "")
}

// ListOwn returns the requester's tickets.
func (s *Service) ListOwn(ctx context.Context, q listing.Query, requester string) (listing.Page[Ticket], error) {
	if requester == "" {
		return listing.NewPage[Ticket](q, nil, 0), nil
	}
	return s.repo.List(ctx, q, requester)
}

// Transition runs a status action. Assigning requires a non-empty assignee.
func (s *Service) Transition(ctx context.Context, id string, cmd lifecycle.Command, assignee string) (Ticket, error) {
	if cmd.Action != lifecycle.ActionAssign {
		return s.exec.Run(ctx, id, cmd)
	}
	assignee = strings.TrimSpace(assignee)
	if err := validate.Required("assignee", assignee); err != nil {
		return Ticket{}, err
	}
	exec := *s.exec
	exec.Apply = func(t Ticket, res lifecycle.Result) (Ticket, error) {
		t, err := applyTransition(t, res)
		t.Assignee = assignee
		return t, err
	}
	return exec.Run(ctx, id, cmd)
}

// Delete removes a ticket permanently.
func (s *Service) Delete(ctx context.Context, id, actor string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	if err := s.hooks.NotifyDelete(ctx, lifecycle.KindTicket, id, actor); err != nil {
		s.logger.Warn("delete side effect failed", "id", id, "error", err)
	}
	s.logger.Info("ticket deleted", "id", id, "actor", actor)
	return nil
}
