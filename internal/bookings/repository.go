package bookings

import (
	"context"
	"fmt"

	"github.com/wolfman30/careflow/internal/listing"
	"github.com/wolfman30/careflow/internal/storage"
)

// Repository defines the interface for booking storage.
type Repository interface {
	Create(ctx context.Context, b Booking) error
	Get(ctx context.Context, id string) (Booking, error)
	// GetByExternalRef finds the booking created for a calendar event.
	GetByExternalRef(ctx context.Context, ref string) (Booking, error)
	List(ctx context.Context, q listing.Query) (listing.Page[Booking], error)
	Update(ctx context.Context, b Booking, prevVersion int) error
	Delete(ctx context.Context, id string) error
}

// Sort is the set of sortable fields.
var Sort = listing.SortSpec{
	Fields:  []string{"scheduledAt", "createdAt", "patientName", "status"},
	Default: "scheduledAt",
}

var accessors = listing.Accessors[Booking]{
	Searchable: func(b Booking) []string { return []string{b.PatientName, b.PatientEmail, b.PatientRef} },
	Status:     func(b Booking) string { return string(b.Status) },
	Sorters: map[string]func(a, b Booking) int{
		"scheduledAt": func(a, b Booking) int { return a.ScheduledAt.Compare(b.ScheduledAt) },
		"createdAt":   func(a, b Booking) int { return a.CreatedAt.Compare(b.CreatedAt) },
		"patientName": func(a, b Booking) int { return listing.CompareStrings(a.PatientName, b.PatientName) },
		"status":      func(a, b Booking) int { return listing.CompareStrings(string(a.Status), string(b.Status)) },
	},
}

// InMemoryRepository keeps bookings in process memory.
type InMemoryRepository struct {
	table *storage.MemoryTable[Booking]
}

// NewInMemoryRepository creates a new in-memory repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{table: storage.NewMemoryTable[Booking]()}
}

func (r *InMemoryRepository) Create(_ context.Context, b Booking) error {
	err := r.table.Mutate(func(rows []Booking) ([]Booking, error) {
		for _, x := range rows {
			if x.ID == b.ID || (b.ExternalRef != "" && x.ExternalRef == b.ExternalRef) {
				return nil, storage.ErrDuplicate
			}
		}
		return []Booking{b}, nil
	})
	if err != nil {
		return fmt.Errorf("bookings: insert: %w", err)
	}
	return nil
}

func (r *InMemoryRepository) Get(_ context.Context, id string) (Booking, error) {
	b, ok := r.table.Get(id)
	if !ok {
		return Booking{}, ErrNotFound
	}
	return b, nil
}

func (r *InMemoryRepository) GetByExternalRef(_ context.Context, ref string) (Booking, error) {
	b, ok := r.table.Find(func(x Booking) bool { return x.ExternalRef == ref })
	if !ok {
		return Booking{}, ErrNotFound
	}
	return b, nil
}

func (r *InMemoryRepository) List(_ context.Context, q listing.Query) (listing.Page[Booking], error) {
	return listing.Apply(r.table.All(), q, accessors), nil
}

func (r *InMemoryRepository) Update(_ context.Context, b Booking, prevVersion int) error {
	found, err := r.table.Update(b, prevVersion)
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
