package tickets

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/wolfman30/careflow/internal/lifecycle"
	"github.com/wolfman30/careflow/internal/listing"
	"github.com/wolfman30/careflow/internal/storage"
)

const selectColumns = `id, subject, description, requester_ref, requester_email, status, assignee,
	resolution_notes, resolved_at, version, created_at, updated_at`

var sqlSpec = listing.SQLSpec{
	SearchColumns: []string{"subject", "requester_email", "assignee"},
	StatusColumn:  "status",
	SortColumns: map[string]string{
		"createdAt": "created_at",
		"subject":   "subject",
		"status":    "status",
	},
	DefaultSort: "created_at",
}

// PostgresRepository stores tickets in the relational database.
type PostgresRepository struct {
	db storage.Querier
}

// NewPostgresRepository initializes a repo backed by a pgx pool.
func NewPostgresRepository(db storage.Querier) *PostgresRepository {
	if db == nil {
		panic("tickets: pgx pool required")
	}
	return &PostgresRepository{db: db}
}

// Create inserts a new row.
func (r *PostgresRepository) Create(ctx context.Context, t Ticket) error {
	query := `
		INSERT INTO tickets (id, subject, description, requester_ref, requester_email, status, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	if _, err := r.db.Exec(ctx, query,
		t.ID, t.Subject, t.Description, t.RequesterRef, t.RequesterEmail, string(t.Status),
		t.Version, t.CreatedAt, t.UpdatedAt,
	); err != nil {
		return fmt.Errorf("tickets: insert failed: %w", err)
	}
	return nil
}

// Get fetches one ticket.
func (r *PostgresRepository) Get(ctx context.Context, id string) (Ticket, error) {
	t, err := scanTicket(r.db.QueryRow(ctx, `SELECT `+selectColumns+` FROM tickets WHERE id = $1`, id))
	if err != nil {
		if storage.IsNoRows(err) {
			return Ticket{}, ErrNotFound
		}
		return Ticket{}, fmt.Errorf("tickets: select failed: %w", err)
	}
	return t, nil
}

// List returns one page of tickets.
func (r *PostgresRepository) List(ctx context.Context, q listing.Query, requester string) (listing.Page[Ticket], error) {
	var (
		extra []string
		args  []any
	)
	if requester != "" {
		extra = append(extra, "requester_ref = $1")
		args = append(args, requester)
	}
	clause := listing.BuildSQL(q, sqlSpec, extra, args...)

	total, err := storage.Count(ctx, r.db, `SELECT COUNT(*) FROM tickets`+clause.Where, clause.WhereArgs...)
	if err != nil {
		return listing.Page[Ticket]{}, fmt.Errorf("tickets: count failed: %w", err)
	}
	rows, err := r.db.Query(ctx, `SELECT `+selectColumns+` FROM tickets`+clause.Where+clause.Order+clause.Limit, clause.Args()...)
	if err != nil {
		return listing.Page[Ticket]{}, fmt.Errorf("tickets: list failed: %w", err)
	}
	defer rows.Close()

	var out []Ticket
	for rows.Next() {
		t, err := scanTicket(rows)
		if err != nil {
			return listing.Page[Ticket]{}, fmt.Errorf("tickets: scan failed: %w", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return listing.Page[Ticket]{}, fmt.Errorf("tickets: rows: %w", err)
	}
	return listing.NewPage(q, out, total), nil
}

// Update writes the status columns guarded by the previous version.
func (r *PostgresRepository) Update(ctx context.Context, t Ticket, prevVersion int) error {
	query := `
		UPDATE tickets
		SET status = $3, assignee = $4, resolution_notes = $5, resolved_at = $6, version = $7, updated_at = $8
		WHERE id = $1 AND version = $2
	`
	tag, err := r.db.Exec(ctx, query,
		t.ID, prevVersion, string(t.Status), t.Assignee, t.ResolutionNotes, t.ResolvedAt, t.Version, t.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("tickets: update failed: %w", err)
	}
	return storage.CheckVersioned(tag, func() (bool, error) { return r.exists(ctx, t.ID) }, ErrNotFound)
}

// Delete removes the row permanently.
func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM tickets WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("tickets: delete failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresRepository) exists(ctx context.Context, id string) (bool, error) {
	var ok bool
	if err := r.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM tickets WHERE id = $1)`, id).Scan(&ok); err != nil {
		return false, fmt.Errorf("tickets: exists failed: %w", err)
	}
	return ok, nil
}

func scanTicket(row pgx.Row) (Ticket, error) {
	var (
		t      Ticket
		status string
	)
	err := row.Scan(
		&t.ID, &t.Subject, &t.Description, &t.RequesterRef, &t.RequesterEmail, &status, &t.Assignee,
		&t.ResolutionNotes, &t.ResolvedAt, &t.Version, &t.CreatedAt, &t.UpdatedAt,
	)
	t.Status = lifecycle.Status(status)
	return t, err
}
