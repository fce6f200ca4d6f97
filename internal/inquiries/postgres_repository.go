package inquiries

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/wolfman30/careflow/internal/lifecycle"
	"github.com/wolfman30/careflow/internal/listing"
	"github.com/wolfman30/careflow/internal/storage"
)

const selectColumns = `id, name, email, phone, source, subject, message, status,
	disqualification_reason, disqualified_at, converted_at, version, created_at, updated_at`

var sqlSpec = listing.SQLSpec{
	SearchColumns: []string{"name", "email", "subject"},
	StatusColumn:  "status",
	SortColumns: map[string]string{
		"createdAt": "created_at",
		"name":      "name",
		"email":     "email",
		"status":    "status",
	},
	DefaultSort: "created_at",
}

// PostgresRepository stores inquiries in the relational database.
type PostgresRepository struct {
	db storage.Querier
}

// NewPostgresRepository initializes a repo backed by a pgx pool.
func NewPostgresRepository(db storage.Querier) *PostgresRepository {
	if db == nil {
		panic("inquiries: pgx pool required")
	}
	return &PostgresRepository{db: db}
}

// Create inserts a new row.
func (r *PostgresRepository) Create(ctx context.Context, inq Inquiry) error {
	query := `
		INSERT INTO inquiries (id, name, email, phone, source, subject, message, status, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	if _, err := r.db.Exec(ctx, query,
		inq.ID,
		inq.Name,
		inq.Email,
		inq.Phone,
		inq.Source,
		inq.Subject,
		inq.Message,
		string(inq.Status),
		inq.Version,
		inq.CreatedAt,
		inq.UpdatedAt,
	); err != nil {
		return fmt.Errorf("inquiries: insert failed: %w", err)
	}
	return nil
}

// Get fetches one inquiry.
func (r *PostgresRepository) Get(ctx context.Context, id string) (Inquiry, error) {
	row := r.db.QueryRow(ctx, `SELECT `+selectColumns+` FROM inquiries WHERE id = $1`, id)
	inq, err := scanInquiry(row)
	if err != nil {
		if storage.IsNoRows(err) {
			return Inquiry{}, ErrNotFound
		}
		return Inquiry{}, fmt.Errorf("inquiries: select failed: %w", err)
	}
	return inq, nil
}

// List returns one page of inquiries.
func (r *PostgresRepository) List(ctx context.Context, q listing.Query) (listing.Page[Inquiry], error) {
	clause := listing.BuildSQL(q, sqlSpec, nil)

	total, err := storage.Count(ctx, r.db, `SELECT COUNT(*) FROM inquiries`+clause.Where, clause.WhereArgs...)
	if err != nil {
		return listing.Page[Inquiry]{}, fmt.Errorf("inquiries: count failed: %w", err)
	}

	rows, err := r.db.Query(ctx, `SELECT `+selectColumns+` FROM inquiries`+clause.Where+clause.Order+clause.Limit, clause.Args()...)
	if err != nil {
		return listing.Page[Inquiry]{}, fmt.Errorf("inquiries: list failed: %w", err)
	}
	defer rows.Close()

	var out []Inquiry
	for rows.Next() {
		inq, err := scanInquiry(rows)
		if err != nil {
			return listing.Page[Inquiry]{}, fmt.Errorf("inquiries: scan failed: %w", err)
		}
		out = append(out, inq)
	}
	if err := rows.Err(); err != nil {
		return listing.Page[Inquiry]{}, fmt.Errorf("inquiries: rows: %w", err)
	}
	return listing.NewPage(q, out, total), nil
}

// Update writes every mutable column guarded by the previous version.
func (r *PostgresRepository) Update(ctx context.Context, inq Inquiry, prevVersion int) error {
	query := `
		UPDATE inquiries
		SET name = $3, email = $4, phone = $5, subject = $6, message = $7, status = $8,
			disqualification_reason = $9, disqualified_at = $10, converted_at = $11,
			version = $12, updated_at = $13
		WHERE id = $1 AND version = $2
	`
	tag, err := r.db.Exec(ctx, query,
		inq.ID,
		prevVersion,
		inq.Name,
		inq.Email,
		inq.Phone,
		inq.Subject,
		inq.Message,
		string(inq.Status),
		inq.DisqualificationReason,
		inq.DisqualifiedAt,
		inq.ConvertedAt,
		inq.Version,
		inq.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("inquiries: update failed: %w", err)
	}
	return storage.CheckVersioned(tag, func() (bool, error) { return r.exists(ctx, inq.ID) }, ErrNotFound)
}

// Delete removes the row permanently.
func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM inquiries WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("inquiries: delete failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresRepository) exists(ctx context.Context, id string) (bool, error) {
	var ok bool
	if err := r.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM inquiries WHERE id = $1)`, id).Scan(&ok); err != nil {
		return false, fmt.Errorf("inquiries: exists failed: %w", err)
	}
	return ok, nil
}

func scanInquiry(row pgx.Row) (Inquiry, error) {
	var (
		inq    Inquiry
		status string
	)
	err := row.Scan(
		&inq.ID,
		&inq.Name,
		&inq.Email,
		&inq.Phone,
		&inq.Source,
		&inq.Subject,
		&inq.Message,
		&status,
		&inq.DisqualificationReason,
		&inq.DisqualifiedAt,
		&inq.ConvertedAt,
		&inq.Version,
		&inq.CreatedAt,
		&inq.UpdatedAt,
	)
	inq.Status = lifecycle.Status(status)
	return inq, err
}
