package inquiries

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/wolfman30/careflow/internal/lifecycle"
	"github.com/wolfman30/careflow/internal/listing"
	"github.com/wolfman30/careflow/internal/storage"
	"github.com/wolfman30/careflow/pkg/logging"
)

// Service owns inquiry creation, edits and status transitions.
type Service struct {
	repo   Repository
	hooks  lifecycle.Hooks
	exec   *lifecycle.Executor[Inquiry]
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
		exec: &lifecycle.Executor[Inquiry]{
			Machine:  lifecycle.Inquiry,
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

// Create validates req and stores a NEW inquiry.
func (s *Service) Create(ctx context.Context, req CreateRequest) (Inquiry, error) {
	if err := req.Validate(); err != nil {
		return Inquiry{}, err
	}
	now := s.hooks.Clock()().UTC()
	source := req.Source
	if source == "" {
		source = "website"
	}
	inq := Inquiry{
		ID:        uuid.New().String(),
		Name:      req.Name,
		Email:     req.Email,
		Phone:     req.Phone,
		Source:    source,
		Subject:   req.Subject,
		Message:   req.Message,
		Status:    lifecycle.Inquiry.Initial(),
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Create(ctx, inq); err != nil {
		return Inquiry{}, err
	}
	s.hooks.Metrics.ObserveCreated(string(lifecycle.KindInquiry), source)
	s.logger.Info("inquiry created", "id", inq.ID, "source", source)
	return inq, nil
}

// Get returns one inquiry.
func (s *Service) Get(ctx context.Context, id string) (Inquiry, error) {
	return s.repo.Get(ctx, id)
}

// List returns one page of inquiries.
func (s *Service) List(ctx context.Context, q listing.Query) (listing.Page[Inquiry], error) {
	return s.repo.List(ctx, q)
}

// Transition runs a status action.
func (s *Service) Transition(ctx context.Context, id string, cmd lifecycle.Command) (Inquiry, error) {
	return s.exec.Run(ctx, id, cmd)
}

// Edit changes contact fields. The status is never touched here.
func (s *Service) Edit(ctx context.Context, id string, u Update, expectedVersion int) (Inquiry, error) {
	current, err := s.repo.Get(ctx, id)
	if err != nil {
		return Inquiry{}, err
	}
	if expectedVersion != 0 && expectedVersion != current.Version {
		return Inquiry{}, storage.ErrVersionConflict
	}
	updated, err := u.applyTo(current)
	if err != nil {
		return Inquiry{}, err
	}
	updated.Version++
	updated.UpdatedAt = s.hooks.Clock()().UTC()
	if err := s.repo.Update(ctx, updated, current.Version); err != nil {
		return Inquiry{}, err
	}
	return updated, nil
}

// Delete removes an inquiry permanently.
func (s *Service) Delete(ctx context.Context, id, actor string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	if err := s.hooks.NotifyDelete(ctx, lifecycle.KindInquiry, id, actor); err != nil {
		s.logger.Warn("delete side effect failed", "id", id, "error", err)
	}
	s.logger.Info("inquiry deleted", "id", id, "actor", actor)
	return nil
}

// Patch dispatches a PATCH body to Transition or Edit.
func (s *Service) Patch(ctx context.Context, id string, req PatchRequest, actor string) (Inquiry, error) {
	if req.Action != "" {
		action, err := lifecycle.ParseAction(req.Action)
		if err != nil {
			return Inquiry{}, err
		}
		return s.Transition(ctx, id, lifecycle.Command{
			Action:          action,
			Payload:         lifecycle.Payload{Reason: req.Reason, Actor: actor},
			ExpectedVersion: req.Version,
		})
	}
	fields := req.Fields()
	if fields.Empty() {
		return Inquiry{}, fmt.Errorf("inquiries: patch: %w", errEmptyPatch)
	}
	return s.Edit(ctx, id, fields, req.Version)
}
