package proposals

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"

	"github.com/wolfman30/careflow/internal/lifecycle"
	"github.com/wolfman30/careflow/internal/listing"
	"github.com/wolfman30/careflow/internal/storage"
	"github.com/wolfman30/careflow/internal/validate"
	"github.com/wolfman30/careflow/pkg/logging"
)

var tracer = otel.Tracer("careflow.internal.proposals")

// Service owns proposal authoring and status transitions.
type Service struct {
	repo   Repository
	hooks  lifecycle.Hooks
	exec   *lifecycle.Executor[Proposal]
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
		exec: &lifecycle.Executor[Proposal]{
			Machine:  lifecycle.Proposal,
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

// Create stores a DRAFT proposal.
func (s *Service) Create(ctx context.Context, req CreateRequest) (Proposal, error) {
	ctx, span := tracer.Start(ctx, "proposals.create")
	defer span.End()

	if err := req.Validate(); err != nil {
		return Proposal{}, err
	}
	now := s.hooks.Clock()().UTC()
	p := Proposal{
		ID:          uuid.New().String(),
		BookingRef:  req.BookingRef,
		Title:       req.Title,
		ClientName:  req.ClientName,
		ClientEmail: req.ClientEmail,
		Amount:      req.Amount,
		Currency:    req.Currency,
		Status:      lifecycle.Proposal.Initial(),
		Version:     1,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if req.ValidUntil != nil {
		v := req.ValidUntil.UTC()
		p.ValidUntil = &v
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return Proposal{}, err
	}
	s.hooks.Metrics.ObserveCreated(string(lifecycle.KindProposal), "admin")
	s.logger.Info("proposal created", "id", p.ID, "amount", p.Amount, "currency", p.Currency)
	return p, nil
}

// Get returns one proposal.
func (s *Service) Get(ctx context.Context, id string) (Proposal, error) {
	return s.repo.Get(ctx, id)
}

// List returns one page of proposals.
func (s *Service) List(ctx context.Context, q listing.Query) (listing.Page[Proposal], error) {
	return s.repo.List(ctx, q)
}

// Transition runs a status action.
func (s *Service) Transition(ctx context.Context, id string, cmd lifecycle.Command) (Proposal, error) {
	return s.exec.Run(ctx, id, cmd)
}

// Patch runs req.Action, or edits a DRAFT proposal when no action is given.
func (s *Service) Patch(ctx context.Context, id string, req PatchRequest, actor string) (Proposal, error) {
	if req.Action != "" {
		action, err := lifecycle.ParseAction(req.Action)
		if err != nil {
			return Proposal{}, err
		}
		return s.Transition(ctx, id, lifecycle.Command{
			Action:          action,
			Payload:         lifecycle.Payload{Actor: actor},
			ExpectedVersion: req.Version,
		})
	}
	if !req.hasEdits() {
		return Proposal{}, validate.Field("action", "an action or at least one field is required")
	}

	current, err := s.repo.Get(ctx, id)
	if err != nil {
		return Proposal{}, err
	}
	if req.Version != 0 && req.Version != current.Version {
		return Proposal{}, storage.ErrVersionConflict
	}
	if current.Status != lifecycle.ProposalDraft {
		return Proposal{}, fmt.Errorf("proposals: edit %s: %w", current.Status, ErrNotEditable)
	}
	updated, err := req.applyTo(current)
	if err != nil {
		return Proposal{}, err
	}
	updated.Version++
	updated.UpdatedAt = s.hooks.Clock()().UTC()
	if err := s.repo.Update(ctx, updated, current.Version); err != nil {
		return Proposal{}, err
	}
	return updated, nil
}

// Delete removes a proposal permanently.
func (s *Service) Delete(ctx context.Context, id, actor string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	if err := s.hooks.NotifyDelete(ctx, lifecycle.KindProposal, id, actor); err != nil {
		s.logger.Warn("delete side effect failed", "id", id, "error", err)
	}
	s.logger.Info("proposal deleted", "id", id, "actor", actor)
	return nil
}
