package inquiries

import (
	"context"
	"fmt"

	"github.com/wolfman30/careflow/internal/listing"
	"github.com/wolfman30/careflow/internal/storage"
)

// Repository defines the interface for inquiry storage.
type Repository interface {
	Create(ctx context.Context, inq Inquiry) error
	Get(ctx context.Context, id string) (Inquiry, error)
	List(ctx context.Context, q listing.Query) (listing.Page[Inquiry], error)
	// Update writes inq if the stored version equals prevVersion.
	Update(ctx context.Context, inq Inquiry, prevVersion int) error
	Delete(ctx context.Context, id string) error
}

// Sort is the set of sortable fields.
var Sort = listing.SortSpec{
	Fields:  []string{"createdAt", "name", "email", "status"},
	Default: "createdAt",
}

var accessors = listing.Accessors[Inquiry]{
	Searchable: func(i Inquiry) []string { return []string{i.Name, i.Email, i.Subject} },
	Status:     func(i Inquiry) string { return string(i.Status) },
	Sorters: map[string]func(a, b Inquiry) int{
		"createdAt": func(a, b Inquiry) int { return a.CreatedAt.Compare(b.CreatedAt) },
		"name":      func(a, b Inquiry) int { return listing.CompareStrings(a.Name, b.Name) },
		"email":     func(a, b Inquiry) int { return listing.CompareStrings(a.Email, b.Email) },
		"status":    func(a, b Inquiry) int { return listing.CompareStrings(string(a.Status), string(b.Status)) },
	},
}

// InMemoryRepository keeps inquiries in process memory.
type InMemoryRepository struct {
	table *storage.MemoryTable[Inquiry]
}

// NewInMemoryRepository creates a new in-memory repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{table: storage.NewMemoryTable[Inquiry]()}
}

func (r *InMemoryRepository) Create(_ context.Context, inq Inquiry) error {
	if err := r.table.Insert(inq); err != nil {
		return fmt.Errorf("inquiries: insert: %w", err)
	}
	return nil
}

func (r *InMemoryRepository) Get(_ context.Context, id string) (Inquiry, error) {
	inq, ok := r.table.Get(id)
	if !ok {
		return Inquiry{}, ErrNotFound
	}
	return inq, nil
}

func (r *InMemoryRepository) List(_ context.Context, q listing.Query) (listing.Page[Inquiry], error) {
	return listing.Apply(r.table.All(), q, accessors), nil
}

func (r *InMemoryRepository) Update(_ context.Context, inq Inquiry, prevVersion int) error {
	found, err := r.table.Update(inq, prevVersion)
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
