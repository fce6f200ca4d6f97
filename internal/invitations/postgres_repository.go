package invitations

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/wolfman30/careflow/internal/listing"
	"github.com/wolfman30/careflow/internal/storage"
)

const selectColumns = `id, code, expires_at, is_used, used_by, used_at, created_by, created_at, version`

var sqlSpec = listing.SQLSpec{
	SearchColumns: []string{"code", "used_by", "created_by"},
	SortColumns: map[string]string{
		"createdAt": "created_at",
		"expiresAt": "expires_at",
		"code":      "code",
	},
	DefaultSort: "created_at",
}

// PostgresRepository stores invitation codes in the relational database.
type PostgresRepository struct {
	db storage.Querier
}

// NewPostgresRepository initializes a repo backed by a pgx pool.
func NewPostgresRepository(db storage.Querier) *PostgresRepository {
	if db == nil {
		panic("invitations: pgx pool required")
	}
	return &PostgresRepository{db: db}
}

// Create inserts a new row.
func (r *PostgresRepository) Create(ctx context.Context, c InvitationCode) error {
	query := `
		INSERT INTO invitation_codes (id, code, expires_at, is_used, created_by, created_at, version)
		VALUES ($1, $2, $3, false, $4, $5, $6)
	`
	if _, err := r.db.Exec(ctx, query, c.ID, c.Code, c.ExpiresAt, c.CreatedBy, c.CreatedAt, c.Version); err != nil {
		if storage.IsUniqueViolation(err) {
			return fmt.Errorf("invitations: insert: %w", storage.ErrDuplicate)
		}
		return fmt.Errorf("invitations: insert failed: %w", err)
	}
	return nil
}

// Get fetches a code by id.
func (r *PostgresRepository) Get(ctx context.Context, id string) (InvitationCode, error) {
	return r.getWhere(ctx, "id = $1", id)
}

// GetByCode fetches a code by its value.
func (r *PostgresRepository) GetByCode(ctx context.Context, code string) (InvitationCode, error) {
	return r.getWhere(ctx, "code = $1", code)
}

func (r *PostgresRepository) getWhere(ctx context.Context, cond, arg string) (InvitationCode, error) {
	c, err := scanCode(r.db.QueryRow(ctx, `SELECT `+selectColumns+` FROM invitation_codes WHERE `+cond, arg))
	if err != nil {
		if storage.IsNoRows(err) {
			return InvitationCode{}, ErrNotFound
		}
		return InvitationCode{}, fmt.Errorf("invitations: select failed: %w", err)
	}
	return c, nil
}

// List returns one page of codes in the given state.
func (r *PostgresRepository) List(ctx context.Context, q listing.Query, state State, now time.Time) (listing.Page[InvitationCode], error) {
	var (
		extra []string
		args  []any
	)
	switch state {
	case StateUsed:
		extra = []string{"is_used = true"}
	case StateActive:
		extra, args = []string{"is_used = false", "expires_at >= $1"}, []any{now}
	case StateExpired:
		extra, args = []string{"is_used = false", "expires_at < $1"}, []any{now}
	}
	q.Status = ""
	clause := listing.BuildSQL(q, sqlSpec, extra, args...)

	total, err := storage.Count(ctx, r.db, `SELECT COUNT(*) FROM invitation_codes`+clause.Where, clause.WhereArgs...)
	if err != nil {
		return listing.Page[InvitationCode]{}, fmt.Errorf("invitations: count failed: %w", err)
	}
	rows, err := r.db.Query(ctx, `SELECT `+selectColumns+` FROM invitation_codes`+clause.Where+clause.Order+clause.Limit, clause.Args()...)
	if err != nil {
		return listing.Page[InvitationCode]{}, fmt.Errorf("invitations: list failed: %w", err)
	}
	defer rows.Close()

	var out []InvitationCode
	for rows.Next() {
		c, err := scanCode(rows)
		if err != nil {
			return listing.Page[InvitationCode]{}, fmt.Errorf("invitations: scan failed: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return listing.Page[InvitationCode]{}, fmt.Errorf("invitations: rows: %w", err)
	}
	return listing.NewPage(q, out, total), nil
}

// Update marks a code used. The is_used guard keeps usedBy and usedAt
// immutable once set.
func (r *PostgresRepository) Update(ctx context.Context, c InvitationCode, prevVersion int) error {
	query := `
		UPDATE invitation_codes
		SET is_used = $3, used_by = $4, used_at = $5, version = $6
		WHERE id = $1 AND version = $2 AND is_used = false
	`
	tag, err := r.db.Exec(ctx, query, c.ID, prevVersion, c.IsUsed, c.UsedBy, c.UsedAt, c.Version)
	if err != nil {
		return fmt.Errorf("invitations: update failed: %w", err)
	}
	return storage.CheckVersioned(tag, func() (bool, error) { return r.exists(ctx, c.ID) }, ErrNotFound)
}

// Delete removes the row permanently.
func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM invitation_codes WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("invitations: delete failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresRepository) exists(ctx context.Context, id string) (bool, error) {
	var ok bool
	if err := r.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM invitation_codes WHERE id = $1)`, id).Scan(&ok); err != nil {
		return false, fmt.Errorf("invitations: exists failed: %w", err)
	}
	return ok, nil
}

func scanCode(row pgx.Row) (InvitationCode, error) {
	var c InvitationCode
	err := row.Scan(&c.ID, &c.Code, &c.ExpiresAt, &c.IsUsed, &c.UsedBy, &c.UsedAt, &c.CreatedBy, &c.CreatedAt, &c.Version)
	return c, err
}
