package caregivers

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/wolfman30/careflow/internal/listing"
	"github.com/wolfman30/careflow/internal/storage"
)

// Repository defines the interface for assignment storage.
type Repository interface {
	// Assign stores a, revoking the patient's active assignment at
	// a.AssignedAt in the same operation. It returns the revoked one, if any.
	Assign(ctx context.Context, a Assignment) (*Assignment, error)
	Get(ctx context.Context, id string) (Assignment, error)
	Current(ctx context.Context, patientRef string) (Assignment, error)
	// History lists every assignment of the patient, newest first.
	History(ctx context.Context, patientRef string) ([]Assignment, error)
	// List pages through assignments; the status filter is active or revoked.
	List(ctx context.Context, q listing.Query) (listing.Page[Assignment], error)
	// Revoke stamps revokedAt on an active assignment.
	Revoke(ctx context.Context, id string, at time.Time) (Assignment, error)
}

// Sort is the set of sortable fields.
var Sort = listing.SortSpec{
	Fields:  []string{"assignedAt", "patientRef", "caregiverRef"},
	Default: "assignedAt",
}

func statusOf(a Assignment) string {
	if a.Active() {
		return "active"
	}
	return "revoked"
}

var accessors = listing.Accessors[Assignment]{
	Searchable: func(a Assignment) []string { return []string{a.PatientRef, a.CaregiverRef, a.Notes} },
	Status:     statusOf,
	Sorters: map[string]func(a, b Assignment) int{
		"assignedAt":   func(a, b Assignment) int { return a.AssignedAt.Compare(b.AssignedAt) },
		"patientRef":   func(a, b Assignment) int { return listing.CompareStrings(a.PatientRef, b.PatientRef) },
		"caregiverRef": func(a, b Assignment) int { return listing.CompareStrings(a.CaregiverRef, b.CaregiverRef) },
	},
}

// InMemoryRepository keeps assignments in process memory.
type InMemoryRepository struct {
	table *storage.MemoryTable[Assignment]
}

// NewInMemoryRepository creates a new in-memory repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{table: storage.NewMemoryTable[Assignment]()}
}

func (r *InMemoryRepository) Assign(_ context.Context, a Assignment) (*Assignment, error) {
	var revoked *Assignment
	err := r.table.Mutate(func(rows []Assignment) ([]Assignment, error) {
		changed := []Assignment{a}
		for _, x := range rows {
			if x.ID == a.ID {
				return nil, storage.ErrDuplicate
			}
			if x.PatientRef == a.PatientRef && x.Active() {
				at := a.AssignedAt
				x.RevokedAt = &at
				x.Version++
				prev := x
				revoked = &prev
				changed = append(changed, x)
			}
		}
		return changed, nil
	})
	if err != nil {
		return nil, fmt.Errorf("caregivers: assign: %w", err)
	}
	return revoked, nil
}

func (r *InMemoryRepository) Get(_ context.Context, id string) (Assignment, error) {
	a, ok := r.table.Get(id)
	if !ok {
		return Assignment{}, ErrNotFound
	}
	return a, nil
}

func (r *InMemoryRepository) Current(_ context.Context, patientRef string) (Assignment, error) {
	a, ok := r.table.Find(func(x Assignment) bool { return x.PatientRef == patientRef && x.Active() })
	if !ok {
		return Assignment{}, ErrNoActiveAssignment
	}
	return a, nil
}

func (r *InMemoryRepository) History(_ context.Context, patientRef string) ([]Assignment, error) {
	var out []Assignment
	for _, a := range r.table.All() {
		if a.PatientRef == patientRef {
			out = append(out, a)
		}
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

func (r *InMemoryRepository) List(_ context.Context, q listing.Query) (listing.Page[Assignment], error) {
	q.Status = strings.ToLower(q.Status)
	return listing.Apply(r.table.All(), q, accessors), nil
}

func (r *InMemoryRepository) Revoke(_ context.Context, id string, at time.Time) (Assignment, error) {
	var out Assignment
	err := r.table.Mutate(func(rows []Assignment) ([]Assignment, error) {
		for _, x := range rows {
			if x.ID != id {
				continue
			}
			if !x.Active() {
				return nil, ErrAlreadyRevoked
			}
			x.RevokedAt = &at
			x.Version++
			out = x
			return []Assignment{x}, nil
		}
		return nil, ErrNotFound
	})
	return out, err
}
