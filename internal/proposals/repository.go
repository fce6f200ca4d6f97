package proposals

import (
	"cmp"
	"context"
	"fmt"
	"time"

	"github.com/wolfman30/careflow/internal/listing"
	"github.com/wolfman30/careflow/internal/storage"
)

// Repository defines the interface for proposal storage.
type Repository interface {
	Create(ctx context.Context, p Proposal) error
	Get(ctx context.Context, id string) (Proposal, error)
	List(ctx context.Context, q listing.Query) (listing.Page[Proposal], error)
	Update(ctx context.Context, p Proposal, prevVersion int) error
	Delete(ctx context.Context, id string) error
}

// Sort is the set of sortable fields.
var Sort = listing.SortSpec{
	Fields:  []string{"createdAt", "title", "amount", "status", "validUntil"},
	Default: "createdAt",
}

var accessors = listing.Accessors[Proposal]{
	Searchable: func(p Proposal) []string { return []string{p.Title, p.ClientName, p.ClientEmail} },
	Status:     func(p Proposal) string { return string(p.Status) },
	Sorters: map[string]func(a, b Proposal) int{
		"createdAt":  func(a, b Proposal) int { return a.CreatedAt.Compare(b.CreatedAt) },
		"title":      func(a, b Proposal) int { return listing.CompareStrings(a.Title, b.Title) },
		"amount":     func(a, b Proposal) int { return cmp.Compare(a.Amount, b.Amount) },
		"status":     func(a, b Proposal) int { return listing.CompareStrings(string(a.Status), string(b.Status)) },
		"validUntil": func(a, b Proposal) int { return compareOptionalTime(a.ValidUntil, b.ValidUntil) },
	},
}

// InMemoryRepository keeps proposals in process memory.
type InMemoryRepository struct {
	table *storage.MemoryTable[Proposal]
}

// NewInMemoryRepository creates a new in-memory repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{table: storage.NewMemoryTable[Proposal]()}
}

func (r *InMemoryRepository) Create(_ context.Context, p Proposal) error {
	if err := r.table.Insert(p); err != nil {
		return fmt.Errorf("proposals: insert: %w", err)
	}
	return nil
}

func (r *InMemoryRepository) Get(_ context.Context, id string) (Proposal, error) {
	p, ok := r.table.Get(id)
	if !ok {
		return Proposal{}, ErrNotFound
	}
	return p, nil
}

func (r *InMemoryRepository) List(_ context.Context, q listing.Query) (listing.Page[Proposal], error) {
	return listing.Apply(r.table.All(), q, accessors), nil
}

func (r *InMemoryRepository) Update(_ context.Context, p Proposal, prevVersion int) error {
	found, err := r.table.Update(p, prevVersion)
	if !found {
		return ErrNotFound
	}
	return err
}

func (r *InMemoryRepository) Delete(_ context.Context, id string) error {
	if !r.table.Delete(id) {
		return ErrNotFound
	}
	return nil
}

func compareOptionalTime(a, b *time.Time) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}
	return a.Compare(*b)
}
