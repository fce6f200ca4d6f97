package tickets

import (
	"context"
	"fmt"

	"github.com/wolfman30/careflow/internal/listing"
	"github.com/wolfman30/careflow/internal/storage"
)

// Repository defines the interface for ticket storage.
type Repository interface {
	Create(ctx context.Context, t Ticket) error
	Get(ctx context.Context, id string) (Ticket, error)
	// List pages through tickets; a non-empty requester restricts the result
	// to that requester's tickets.
	List(ctx context.Context, q listing.Query, requester string) (listing.Page[Ticket], error)
	Update(ctx context.Context, t Ticket, prevVersion int) error
	Delete(ctx context.Context, id string) error
}

// Sort is the set of sortable fields.
var Sort = listing.SortSpec{
	Fields:  []string{"createdAt", "subject", "status"},
	Default: "createdAt",
}

var accessors = listing.Accessors[Ticket]{
	Searchable: func(t Ticket) []string { return []string{t.Subject, t.RequesterEmail, t.Assignee} },
	Status:     func(t Ticket) string { return string(t.Status) },
	Sorters: map[string]func(a, b Ticket) int{
		"createdAt": func(a, b Ticket) int { return a.CreatedAt.Compare(b.CreatedAt) },
		"subject":   func(a, b Ticket) int { return listing.CompareStrings(a.Subject, b.Subject) },
		"status":    func(a, b Ticket) int { return listing.CompareStrings(string(a.Status), string(b.Status)) },
	},
}

// InMemoryRepository keeps tickets in process memory.
type InMemoryRepository struct {
	table *storage.MemoryTable[Ticket]
}

// NewInMemoryRepository creates a new in-memory repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{table: storage.NewMemoryTable[Ticket]()}
}

func (r *InMemoryRepository) Create(_ context.Context, t Ticket) error {
	if err := r.table.Insert(t); err != nil {
		return fmt.Errorf("tickets: insert: %w", err)
	}
	return nil
}

func (r *InMemoryRepository) Get(_ context.Context, id string) (Ticket, error) {
	t, ok := r.table.Get(id)
	if !ok {
		return Ticket{}, ErrNotFound
	}
	return t, nil
}

func (r *InMemoryRepository) List(_ context.Context, q listing.Query, requester string) (listing.Page[Ticket], error) {
	rows := r.table.All()
	if requester != "" {
		own := rows[:0]
		for _, t := range rows {
			if t.RequesterRef == requester {
				own = append(own, t)
			}
		}
		rows = own
	}
	return listing.Apply(rows, q, accessors), nil
}

func (r *InMemoryRepository) Update(_ context.Context, t Ticket, prevVersion int) error {
	found, err := r.table.Update(t, prevVersion)
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
