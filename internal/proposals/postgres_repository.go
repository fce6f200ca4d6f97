package proposals

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/wolfman30/careflow/internal/lifecycle"
	"github.com/wolfman30/careflow/internal/listing"
	"github.com/wolfman30/careflow/internal/storage"
)

const selectColumns = `id, booking_ref, title, client_name, client_email, amount, currency, status,
	valid_until, sent_at, viewed_at, accepted_at, rejected_at, version, created_at, updated_at`

var sqlSpec = listing.SQLSpec{
	SearchColumns: []string{"title", "client_name", "client_email"},
	StatusColumn:  "status",
	SortColumns: map[string]string{
		"createdAt":  "created_at",
		"title":      "title",
		"amount":     "amount",
		"status":     "status",
		"validUntil": "valid_until",
	},
	DefaultSort: "created_at",
}

// PostgresRepository stores proposals in the relational database.
type PostgresRepository struct {
	db storage.Querier
}

// NewPostgresRepository initializes a repo backed by a pgx pool.
func NewPostgresRepository(db storage.Querier) *PostgresRepository {
	if db == nil {
		panic("proposals: pgx pool required")
	}
	return &PostgresRepository{db: db}
}

// Create inserts a new row.
func (r *PostgresRepository) Create(ctx context.Context, p Proposal) error {
	query := `
		INSERT INTO proposals (id, booking_ref, title, client_name, client_email, amount, currency, status,
			valid_until, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	if _, err := r.db.Exec(ctx, query,
		p.ID, p.BookingRef, p.Title, p.ClientName, p.ClientEmail, p.Amount, p.Currency,
		string(p.Status), p.ValidUntil, p.Version, p.CreatedAt, p.UpdatedAt,
	); err != nil {
		return fmt.Errorf("proposals: insert failed: %w", err)
	}
	return nil
}

// Get fetches one proposal.
func (r *PostgresRepository) Get(ctx context.Context, id string) (Proposal, error) {
	p, err := scanProposal(r.db.QueryRow(ctx, `SELECT `+selectColumns+` FROM proposals WHERE id = $1`, id))
	if err != nil {
		if storage.IsNoRows(err) {
			return Proposal{}, ErrNotFound
		}
		return Proposal{}, fmt.Errorf("proposals: select failed: %w", err)
	}
	return p, nil
}

// List returns one page of proposals.
func (r *PostgresRepository) List(ctx context.Context, q listing.Query) (listing.Page[Proposal], error) {
	clause := listing.BuildSQL(q, sqlSpec, nil)

	total, err := storage.Count(ctx, r.db, `SELECT COUNT(*) FROM proposals`+clause.Where, clause.WhereArgs...)
	if err != nil {
		return listing.Page[Proposal]{}, fmt.Errorf("proposals: count failed: %w", err)
	}
	rows, err := r.db.Query(ctx, `SELECT `+selectColumns+` FROM proposals`+clause.Where+clause.Order+clause.Limit, clause.Args()...)
	if err != nil {
		return listing.Page[Proposal]{}, fmt.Errorf("proposals: list failed: %w", err)
	}
	defer rows.Close()

	var out []Proposal
	for rows.Next() {
		p, err := scanProposal(rows)
		if err != nil {
			return listing.Page[Proposal]{}, fmt.Errorf("proposals: scan failed: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return listing.Page[Proposal]{}, fmt.Errorf("proposals: rows: %w", err)
	}
	return listing.NewPage(q, out, total), nil
}

// Update writes every mutable column guarded by the previous version.
func (r *PostgresRepository) Update(ctx context.Context, p Proposal, prevVersion int) error {
	query := `
		UPDATE proposals
		SET booking_ref = $3, title = $4, client_name = $5, client_email = $6, amount = $7, currency = $8,
			status = $9, valid_until = $10, sent_at = $11, viewed_at = $12, accepted_at = $13, rejected_at = $14,
			version = $15, updated_at = $16
		WHERE id = $1 AND version = $2
	`
	tag, err := r.db.Exec(ctx, query,
		p.ID, prevVersion, p.BookingRef, p.Title, p.ClientName, p.ClientEmail, p.Amount, p.Currency,
		string(p.Status), p.ValidUntil, p.SentAt, p.ViewedAt, p.AcceptedAt, p.RejectedAt,
		p.Version, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("proposals: update failed: %w", err)
	}
	return storage.CheckVersioned(tag, func() (bool, error) { return r.exists(ctx, p.ID) }, ErrNotFound)
}

// Delete removes the row permanently.
func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM proposals WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("proposals: delete failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresRepository) exists(ctx context.Context, id string) (bool, error) {
	var ok bool
	if err := r.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM proposals WHERE id = $1)`, id).Scan(&ok); err != nil {
		return false, fmt.Errorf("proposals: exists failed: %w", err)
	}
	return ok, nil
}

func scanProposal(row pgx.Row) (Proposal, error) {
	var (
		p      Proposal
		status string
	)
	err := row.Scan(
		&p.ID, &p.BookingRef, &p.Title, &p.ClientName, &p.ClientEmail, &p.Amount, &p.Currency, &status,
		&p.ValidUntil, &p.SentAt, &p.ViewedAt, &p.AcceptedAt, &p.RejectedAt,
		&p.Version, &p.CreatedAt, &p.UpdatedAt,
	)
	p.Status = lifecycle.Status(status)
	return p, err
}
