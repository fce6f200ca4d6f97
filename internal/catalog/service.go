package catalog

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/wolfman30/careflow/internal/listing"
	"github.com/wolfman30/careflow/internal/storage"
	"github.com/wolfman30/careflow/pkg/logging"
)

// CatalogService owns the catalog of care offerings.
type CatalogService struct {
	repo   Repository
	now    func() time.Time
	logger *logging.Logger
}

// NewService wires a catalog service around repo.
func NewService(repo Repository, now func() time.Time, logger *logging.Logger) *CatalogService {
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &CatalogService{repo: repo, now: now, logger: logger}
}

// Create stores a new service. Services are active unless the input says otherwise.
func (s *CatalogService) Create(ctx context.Context, in Input) (Service, error) {
	if err := in.Normalize(); err != nil {
		return Service{}, err
	}
	now := s.now().UTC()
	svc := Service{
		ID:          uuid.New().String(),
		Name:        in.Name,
		Slug:        in.Slug,
		Description: in.Description,
		PriceCents:  in.PriceCents,
		Active:      in.active(),
		Version:     1,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Create(ctx, svc); err != nil {
		return Service{}, err
	}
	s.logger.Info("catalog service created", "id", svc.ID, "slug", svc.Slug)
	return svc, nil
}

func (s *CatalogService) Get(ctx context.Context, id string) (Service, error) {
	return s.repo.Get(ctx, id)
}

// GetPublished returns an active service by slug. Inactive services are hidden.
func (s *CatalogService) GetPublished(ctx context.Context, slug string) (Service, error) {
	svc, err := s.repo.GetBySlug(ctx, slug)
	if err != nil {
		return Service{}, err
	}
	if !svc.Active {
		return Service{}, ErrNotFound
	}
	return svc, nil
}

func (s *CatalogService) List(ctx context.Context, q listing.Query) (listing.Page[Service], error) {
	return s.repo.List(ctx, q, false)
}

func (s *CatalogService) ListPublished(ctx context.Context, q listing.Query) (listing.Page[Service], error) {
	return s.repo.List(ctx, q, true)
}

// Replace overwrites the editable fields of id. A non-zero in.Version must
// match the stored version.
func (s *CatalogService) Replace(ctx context.Context, id string, in Input) (Service, error) {
	if err := in.Normalize(); err != nil {
		return Service{}, err
	}
	current, err := s.repo.Get(ctx, id)
	if err != nil {
		return Service{}, err
	}
	if in.Version != 0 && in.Version != current.Version {
		return Service{}, storage.ErrVersionConflict
	}
	next := current
	next.Name = in.Name
	next.Slug = in.Slug
	next.Description = in.Description
	next.PriceCents = in.PriceCents
	if in.Active != nil {
		next.Active = *in.Active
	}
	next.Version = current.Version + 1
	next.UpdatedAt = s.now().UTC()
	if err := s.repo.Update(ctx, next, current.Version); err != nil {
		return Service{}, err
	}
	return next, nil
}

func (s *CatalogService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("catalog service deleted", "id", id)
	return nil
}
