package catalog

import (
	"cmp"
	"context"
	"fmt"

	"github.com/wolfman30/careflow/internal/listing"
	"github.com/wolfman30/careflow/internal/storage"
)

// Repository defines the interface for catalog storage.
type Repository interface {
	// Create fails with ErrSlugTaken on a duplicate slug.
	Create(ctx context.Context, s Service) error
	Get(ctx context.Context, id string) (Service, error)
	GetBySlug(ctx context.Context, slug string) (Service, error)
	// List pages through services; activeOnly hides inactive ones.
	List(ctx context.Context, q listing.Query, activeOnly bool) (listing.Page[Service], error)
	Update(ctx context.Context, s Service, prevVersion int) error
	Delete(ctx context.Context, id string) error
}

// Sort is the set of sortable fields.
var Sort = listing.SortSpec{
	Fields:  []string{"name", "priceCents", "createdAt"},
	Default: "name",
}

var accessors = listing.Accessors[Service]{
	Searchable: func(s Service) []string { return []string{s.Name, s.Slug, s.Description} },
	Status:     func(s Service) string { return visibility(s.Active) },
	Sorters: map[string]func(a, b Service) int{
		"name":       func(a, b Service) int { return listing.CompareStrings(a.Name, b.Name) },
		"priceCents": func(a, b Service) int { return cmp.Compare(a.PriceCents, b.PriceCents) },
		"createdAt":  func(a, b Service) int { return a.CreatedAt.Compare(b.CreatedAt) },
	},
}

// Status filter values accepted by List.
const (
	StatusActive   = "ACTIVE"
	StatusInactive = "INACTIVE"
)

func visibility(active bool) string {
	if active {
		return StatusActive
	}
	return StatusInactive
}

// InMemoryRepository keeps services in process memory.
type InMemoryRepository struct {
	table *storage.MemoryTable[Service]
}

// NewInMemoryRepository creates a new in-memory repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{table: storage.NewMemoryTable[Service]()}
}

func (r *InMemoryRepository) Create(_ context.Context, s Service) error {
	return r.table.Mutate(func(rows []Service) ([]Service, error) {
		for _, x := range rows {
			if x.Slug == s.Slug {
				return nil, ErrSlugTaken
			}
			if x.ID == s.ID {
				return nil, fmt.Errorf("catalog: insert: %w", storage.ErrDuplicate)
			}
		}
		return []Service{s}, nil
	})
}

func (r *InMemoryRepository) Get(_ context.Context, id string) (Service, error) {
	s, ok := r.table.Get(id)
	if !ok {
		return Service{}, ErrNotFound
	}
	return s, nil
}

func (r *InMemoryRepository) GetBySlug(_ context.Context, slug string) (Service, error) {
	s, ok := r.table.Find(func(x Service) bool { return x.Slug == slug })
	if !ok {
		return Service{}, ErrNotFound
	}
	return s, nil
}

func (r *InMemoryRepository) List(_ context.Context, q listing.Query, activeOnly bool) (listing.Page[Service], error) {
	if activeOnly {
		q.Status = StatusActive
	}
	return listing.Apply(r.table.All(), q, accessors), nil
}

func (r *InMemoryRepository) Update(_ context.Context, s Service, prevVersion int) error {
	return r.table.Mutate(func(rows []Service) ([]Service, error) {
		var current *Service
		for i, x := range rows {
			if x.ID == s.ID {
				current = &rows[i]
			} else if x.Slug == s.Slug {
				return nil, ErrSlugTaken
			}
		}
		if current == nil {
			return nil, ErrNotFound
		}
		if current.Version != prevVersion {
			return nil, storage.ErrVersionConflict
		}
		return []Service{s}, nil
	})
}

func (r *InMemoryRepository) Delete(_ context.Context, id string) error {
	if !r.table.Delete(id) {
		return ErrNotFound
	}
	return nil
}
