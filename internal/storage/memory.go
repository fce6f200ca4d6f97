package storage

import (
	"errors"
	"sync"
)

// ErrDuplicate is returned by MemoryTable.Insert for an existing id.
var ErrDuplicate = errors.New("duplicate id")

// Versioned is a row that carries an id and an optimistic-lock version.
type Versioned interface {
	GetID() string
	GetVersion() int
}

// MemoryTable is the in-memory backing store used when no database is
// configured. Rows are stored by value so callers never share state.
type MemoryTable[T Versioned] struct {
	mu    sync.RWMutex
	rows  map[string]T
	order []string
}

// NewMemoryTable creates an empty table.
func NewMemoryTable[T Versioned]() *MemoryTable[T] {
	return &MemoryTable[T]{rows: make(map[string]T)}
}

// Insert adds row.
func (t *MemoryTable[T]) Insert(row T) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.rows[row.GetID()]; ok {
		return ErrDuplicate
	}
	t.rows[row.GetID()] = row
	t.order = append(t.order, row.GetID())
	return nil
}

// Get returns the row with id.
func (t *MemoryTable[T]) Get(id string) (T, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	row, ok := t.rows[id]
	return row, ok
}

// Find returns the first row, in insertion order, accepted by match.
func (t *MemoryTable[T]) Find(match func(T) bool) (T, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for _, id := range t.order {
		if row := t.rows[id]; match(row) {
			return row, true
		}
	}
	var zero T
	return zero, false
}

// Update replaces the stored row if its version still equals prevVersion.
// found is false when the id does not exist.
func (t *MemoryTable[T]) Update(row T, prevVersion int) (found bool, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	current, ok := t.rows[row.GetID()]
	if !ok {
		return false, nil
	}
	if current.GetVersion() != prevVersion {
		return true, ErrVersionConflict
	}
	t.rows[row.GetID()] = row
	return true, nil
}

// Mutate runs fn under the table lock, letting a caller update several rows
// atomically. fn receives a copy of every row and returns the rows to store.
func (t *MemoryTable[T]) Mutate(fn func(rows []T) ([]T, error)) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	snapshot := make([]T, 0, len(t.order))
	for _, id := range t.order {
		snapshot = append(snapshot, t.rows[id])
	}
	changed, err := fn(snapshot)
	if err != nil {
		return err
	}
	for _, row := range changed {
		if _, ok := t.rows[row.GetID()]; !ok {
			t.order = append(t.order, row.GetID())
		}
		t.rows[row.GetID()] = row
	}
	return nil
}

// Delete removes the row with id and reports whether it existed.
func (t *MemoryTable[T]) Delete(id string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.rows[id]; !ok {
		return false
	}
	delete(t.rows, id)
	for i, existing := range t.order {
		if existing == id {
			t.order = append(t.order[:i], t.order[i+1:]...)
			break
		}
	}
	return true
}

// All returns every row in insertion order.
func (t *MemoryTable[T]) All() []T {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]T, 0, len(t.order))
	for _, id := range t.order {
		out = append(out, t.rows[id])
	}
	return out
}
