package invitations

import (
	"context"
	"fmt"
	"time"

	"github.com/wolfman30/careflow/internal/listing"
	"github.com/wolfman30/careflow/internal/storage"
)

// Repository defines the interface for invitation code storage.
type Repository interface {
	// Create fails with storage.ErrDuplicate when the code already exists.
	Create(ctx context.Context, c InvitationCode) error
	Get(ctx context.Context, id string) (InvitationCode, error)
	GetByCode(ctx context.Context, code string) (InvitationCode, error)
	// List filters on the state at now; the query's Status is ignored.
	List(ctx context.Context, q listing.Query, state State, now time.Time) (listing.Page[InvitationCode], error)
	Update(ctx context.Context, c InvitationCode, prevVersion int) error
	Delete(ctx context.Context, id string) error
}

// Sort is the set of sortable fields.
var Sort = listing.SortSpec{
	Fields:  []string{"createdAt", "expiresAt", "code"},
	Default: "createdAt",
}

var accessors = listing.Accessors[InvitationCode]{
	Searchable: func(c InvitationCode) []string { return []string{c.Code, c.UsedBy, c.CreatedBy} },
	Sorters: map[string]func(a, b InvitationCode) int{
		"createdAt": func(a, b InvitationCode) int { return a.CreatedAt.Compare(b.CreatedAt) },
		"expiresAt": func(a, b InvitationCode) int { return a.ExpiresAt.Compare(b.ExpiresAt) },
		"code":      func(a, b InvitationCode) int { return listing.CompareStrings(a.Code, b.Code) },
	},
}

// InMemoryRepository keeps codes in process memory.
type InMemoryRepository struct {
	table *storage.MemoryTable[InvitationCode]
}

// NewInMemoryRepository creates a new in-memory repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{table: storage.NewMemoryTable[InvitationCode]()}
}

func (r *InMemoryRepository) Create(_ context.Context, c InvitationCode) error {
	err := r.table.Mutate(func(rows []InvitationCode) ([]InvitationCode, error) {
		for _, x := range rows {
			if x.ID == c.ID || x.Code == c.Code {
				return nil, storage.ErrDuplicate
			}
		}
		return []InvitationCode{c}, nil
	})
	if err != nil {
		return fmt.Errorf("invitations: insert: %w", err)
	}
	return nil
}

func (r *InMemoryRepository) Get(_ context.Context, id string) (InvitationCode, error) {
	c, ok := r.table.Get(id)
	if !ok {
		return InvitationCode{}, ErrNotFound
	}
	return c, nil
}

func (r *InMemoryRepository) GetByCode(_ context.Context, code string) (InvitationCode, error) {
	c, ok := r.table.Find(func(x InvitationCode) bool { return x.Code == code })
	if !ok {
		return InvitationCode{}, ErrNotFound
	}
	return c, nil
}

func (r *InMemoryRepository) List(_ context.Context, q listing.Query, state State, now time.Time) (listing.Page[InvitationCode], error) {
	rows := r.table.All()
	if state != "" {
		kept := rows[:0]
		for _, c := range rows {
			if Classify(c, now) == state {
				kept = append(kept, c)
			}
		}
		rows = kept
	}
	q.Status = ""
	return listing.Apply(rows, q, accessors), nil
}

func (r *InMemoryRepository) Update(_ context.Context, c InvitationCode, prevVersion int) error {
	found, err := r.table.Update(c, prevVersion)
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
