package bookings

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/wolfman30/careflow/internal/lifecycle"
	"github.com/wolfman30/careflow/internal/listing"
	"github.com/wolfman30/careflow/internal/storage"
	"github.com/wolfman30/careflow/pkg/logging"
)

var bookingsTracer = otel.Tracer("careflow.internal.bookings")

// Sources recorded on creation.
const (
	SourceCalendar = "calendar"
	SourceAdmin    = "admin"
)

// Service owns booking intake and status transitions.
type Service struct {
	repo   Repository
	hooks  lifecycle.Hooks
	exec   *lifecycle.Executor[Booking]
	logger *logging.Logger
}

// NewService constructs a bookings service.
func NewService(repo Repository, hooks lifecycle.Hooks, logger *logging.Logger) *Service {
	if repo == nil {
		panic("bookings: repository required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{
		repo:   repo,
		hooks:  hooks,
		logger: logger,
		exec: &lifecycle.Executor[Booking]{
			Machine:  lifecycle.Booking,
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

// Create stores a PENDING, unpaid booking. Calendar callbacks are retried by
// the sender, so a repeated externalRef returns the existing booking with
// created=false.
func (s *Service) Create(ctx context.Context, req CreateRequest, source string) (b Booking, created bool, err error) {
	ctx, span := bookingsTracer.Start(ctx, "bookings.create")
	defer span.End()
	span.SetAttributes(attribute.String("careflow.source", source))

	if err := req.Validate(); err != nil {
		return Booking{}, false, err
	}
	if req.ExternalRef != "" {
		existing, err := s.repo.GetByExternalRef(ctx, req.ExternalRef)
		if err == nil {
			return existing, false, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return Booking{}, false, err
		}
	}

	now := s.hooks.Clock()().UTC()
	b = Booking{
		ID:            uuid.New().String(),
		ExternalRef:   req.ExternalRef,
		PatientRef:    req.PatientRef,
		PatientName:   req.PatientName,
		PatientEmail:  req.PatientEmail,
		ScheduledAt:   req.ScheduledAt.UTC(),
		Status:        lifecycle.Booking.Initial(),
		PaymentStatus: PaymentUnpaid,
		Version:       1,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.repo.Create(ctx, b); err != nil {
		if errors.Is(err, storage.ErrDuplicate) && req.ExternalRef != "" {
			existing, getErr := s.repo.GetByExternalRef(ctx, req.ExternalRef)
			if getErr == nil {
				return existing, false, nil
			}
		}
		span.RecordError(err)
		return Booking{}, false, err
	}
	s.hooks.Metrics.ObserveCreated(string(lifecycle.KindBooking), source)
	s.logger.Info("booking created", "id", b.ID, "patient_ref", b.PatientRef, "source", source)
	return b, true, nil
}

// Get returns one booking.
func (s *Service) Get(ctx context.Context, id string) (Booking, error) {
	return s.repo.Get(ctx, id)
}

// List returns one page of bookings.
func (s *Service) List(ctx context.Context, q listing.Query) (listing.Page[Booking], error) {
	return s.repo.List(ctx, q)
}

// Transition runs a status action.
func (s *Service) Transition(ctx context.Context, id string, cmd lifecycle.Command) (Booking, error) {
	return s.exec.Run(ctx, id, cmd)
}

// Delete removes a booking permanently.
func (s *Service) Delete(ctx context.Context, id, actor string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	if err := s.hooks.NotifyDelete(ctx, lifecycle.KindBooking, id, actor); err != nil {
		s.logger.Warn("delete side effect failed", "id", id, "error", err)
	}
	s.logger.Info("booking deleted", "id", id, "actor", actor)
	return nil
}
