// Package compliance keeps the append-only audit trail of record changes.
package compliance

import (
	"context"
	"database/sql"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/wolfman30/careflow/internal/lifecycle"
	"github.com/wolfman30/careflow/pkg/logging"
)

// AuditEventType represents the type of audit event.
type AuditEventType string

const (
	// EventTransition is logged when a status transition is stored.
	EventTransition AuditEventType = "lifecycle.transition"
	// EventDeleted is logged when a record is hard deleted.
	EventDeleted AuditEventType = "lifecycle.deleted"
)

// AuditEvent represents an immutable audit record.
type AuditEvent struct {
	ID         string         `json:"id"`
	EventType  AuditEventType `json:"eventType"`
	EntityKind string         `json:"entityKind"`
	EntityID   string         `json:"entityId"`
	FromStatus string         `json:"fromStatus,omitempty"`
	ToStatus   string         `json:"toStatus,omitempty"`
	Action     string         `json:"action,omitempty"`
	Actor      string         `json:"actor,omitempty"`
	Reason     string         `json:"reason,omitempty"`
	CreatedAt  time.Time      `json:"createdAt"`
}

// AuditFilter specifies criteria for querying audit events.
type AuditFilter struct {
	EntityID   string
	EntityKind string
	Limit      int
}

// Store persists audit events.
type Store interface {
	Insert(ctx context.Context, e AuditEvent) error
	Query(ctx context.Context, f AuditFilter) ([]AuditEvent, error)
}

// AuditService records lifecycle transitions and deletes. It satisfies
// lifecycle.Observer and lifecycle.DeleteObserver.
type AuditService struct {
	store  Store
	now    func() time.Time
	logger *logging.Logger
}

var (
	_ lifecycle.Observer       = (*AuditService)(nil)
	_ lifecycle.DeleteObserver = (*AuditService)(nil)
)

// NewAuditService creates a new audit service.
func NewAuditService(store Store, logger *logging.Logger) *AuditService {
	if logger == nil {
		logger = logging.Default()
	}
	return &AuditService{store: store, now: time.Now, logger: logger}
}

// LogEvent records an audit event, filling the id and timestamp when empty.
func (s *AuditService) LogEvent(ctx context.Context, event AuditEvent) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = s.now().UTC()
	}
	if err := s.store.Insert(ctx, event); err != nil {
		return fmt.Errorf("compliance: failed to log audit event: %w", err)
	}
	return nil
}

// OnTransition logs a stored transition.
func (s *AuditService) OnTransition(ctx context.Context, ev lifecycle.Event) error {
	return s.LogEvent(ctx, AuditEvent{
		EventType:  EventTransition,
		EntityKind: string(ev.Result.Kind),
		EntityID:   ev.EntityID,
		FromStatus: string(ev.Result.From),
		ToStatus:   string(ev.Result.To),
		Action:     string(ev.Result.Action),
		Actor:      ev.Result.Actor,
		Reason:     ev.Result.Reason,
		CreatedAt:  ev.Result.At,
	})
}

// OnDelete logs a hard delete.
func (s *AuditService) OnDelete(ctx context.Context, kind lifecycle.Kind, id, actor string) error {
	return s.LogEvent(ctx, AuditEvent{
		EventType:  EventDeleted,
		EntityKind: string(kind),
		EntityID:   id,
		Actor:      actor,
	})
}

// QueryEvents retrieves audit events, newest first.
func (s *AuditService) QueryEvents(ctx context.Context, filter AuditFilter) ([]AuditEvent, error) {
	if filter.Limit <= 0 || filter.Limit > maxQueryLimit {
		filter.Limit = maxQueryLimit
	}
	events, err := s.store.Query(ctx, filter)
	if err != nil {
		return nil, err
	}
	if events == nil {
		events = []AuditEvent{}
	}
	return events, nil
}

const maxQueryLimit = 200

// SQLStore writes audit events to the audit_events table.
type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db}
}

func (s *SQLStore) Insert(ctx context.Context, e AuditEvent) error {
	query := `
		INSERT INTO audit_events (
			id, event_type, entity_kind, entity_id, from_status,
			to_status, action, actor, reason, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := s.db.ExecContext(ctx, query,
		e.ID,
		e.EventType,
		e.EntityKind,
		e.EntityID,
		nullString(e.FromStatus),
		nullString(e.ToStatus),
		nullString(e.Action),
		nullString(e.Actor),
		nullString(e.Reason),
		e.CreatedAt,
	)
	return err
}

func (s *SQLStore) Query(ctx context.Context, filter AuditFilter) ([]AuditEvent, error) {
	query := `
		SELECT id, event_type, entity_kind, entity_id, from_status,
			   to_status, action, actor, reason, created_at
		FROM audit_events
		WHERE 1 = 1
	`
	var args []any
	argIdx := 1

	if filter.EntityID != "" {
		query += fmt.Sprintf(" AND entity_id = $%d", argIdx)
		args = append(args, filter.EntityID)
		argIdx++
	}
	if filter.EntityKind != "" {
		query += fmt.Sprintf(" AND entity_kind = $%d", argIdx)
		args = append(args, filter.EntityKind)
		argIdx++
	}
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d", argIdx)
	args = append(args, filter.Limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("compliance: failed to query audit events: %w", err)
	}
	defer rows.Close()

	var events []AuditEvent
	for rows.Next() {
		var e AuditEvent
		var from, to, action, actor, reason sql.NullString
		if err := rows.Scan(
			&e.ID, &e.EventType, &e.EntityKind, &e.EntityID, &from,
			&to, &action, &actor, &reason, &e.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("compliance: failed to scan audit event: %w", err)
		}
		e.FromStatus = from.String
		e.ToStatus = to.String
		e.Action = action.String
		e.Actor = actor.String
		e.Reason = reason.String
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("compliance: rows: %w", err)
	}
	return events, nil
}

// MemoryStore keeps audit events in process memory.
type MemoryStore struct {
	mu     sync.RWMutex
	events []AuditEvent
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Insert(_ context.Context, e AuditEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, e)
	return nil
}

func (m *MemoryStore) Query(_ context.Context, filter AuditFilter) ([]AuditEvent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []AuditEvent
	for _, e := range slices.Backward(m.events) {
		if filter.EntityID != "" && e.EntityID != filter.EntityID {
			continue
		}
		if filter.EntityKind != "" && e.EntityKind != filter.EntityKind {
			continue
		}
		out = append(out, e)
		if filter.Limit > 0 && len(out) == filter.Limit {
			break
		}
	}
	return out, nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
