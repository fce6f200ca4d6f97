package bookings

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/wolfman30/careflow/internal/lifecycle"
	"github.com/wolfman30/careflow/internal/listing"
	"github.com/wolfman30/careflow/internal/storage"
)

const selectColumns = `id, external_ref, patient_ref, patient_name, patient_email, scheduled_at, status,
	payment_status, cancel_reason, confirmed_at, paid_at, completed_at, cancelled_at, version, created_at, updated_at`

var sqlSpec = listing.SQLSpec{
	SearchColumns: []string{"patient_name", "patient_email", "patient_ref"},
	StatusColumn:  "status",
	SortColumns: map[string]string{
		"scheduledAt": "scheduled_at",
		"createdAt":   "created_at",
		"patientName": "patient_name",
		"status":      "status",
	},
	DefaultSort: "scheduled_at",
}

// PostgresRepository stores bookings in the relational database.
type PostgresRepository struct {
	db storage.Querier
}

// NewPostgresRepository initializes a repo backed by a pgx pool.
func NewPostgresRepository(db storage.Querier) *PostgresRepository {
	if db == nil {
		panic("bookings: pgx pool required")
	}
	return &PostgresRepository{db: db}
}

// Create inserts a new row. A repeated external_ref surfaces as
// storage.ErrDuplicate.
func (r *PostgresRepository) Create(ctx context.Context, b Booking) error {
	query := `
		INSERT INTO bookings (id, external_ref, patient_ref, patient_name, patient_email, scheduled_at, status,
			payment_status, version, created_at, updated_at)
		VALUES ($1, NULLIF($2, ''), $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	if _, err := r.db.Exec(ctx, query,
		b.ID, b.ExternalRef, b.PatientRef, b.PatientName, b.PatientEmail, b.ScheduledAt,
		string(b.Status), b.PaymentStatus, b.Version, b.CreatedAt, b.UpdatedAt,
	); err != nil {
		if storage.IsUniqueViolation(err) {
			return fmt.Errorf("bookings: insert: %w", storage.ErrDuplicate)
		}
		return fmt.Errorf("bookings: insert failed: %w", err)
	}
	return nil
}

// Get fetches one booking.
func (r *PostgresRepository) Get(ctx context.Context, id string) (Booking, error) {
	return r.getWhere(ctx, "id = $1", id)
}

// GetByExternalRef fetches the booking created for a calendar event.
func (r *PostgresRepository) GetByExternalRef(ctx context.Context, ref string) (Booking, error) {
	return r.getWhere(ctx, "external_ref = $1", ref)
}

func (r *PostgresRepository) getWhere(ctx context.Context, cond string, arg string) (Booking, error) {
	b, err := scanBooking(r.db.QueryRow(ctx, `SELECT `+selectColumns+` FROM bookings WHERE `+cond, arg))
	if err != nil {
		if storage.IsNoRows(err) {
			return Booking{}, ErrNotFound
		}
		return Booking{}, fmt.Errorf("bookings: select failed: %w", err)
	}
	return b, nil
}

// List returns one page of bookings.
func (r *PostgresRepository) List(ctx context.Context, q listing.Query) (listing.Page[Booking], error) {
	clause := listing.BuildSQL(q, sqlSpec, nil)

	total, err := storage.Count(ctx, r.db, `SELECT COUNT(*) FROM bookings`+clause.Where, clause.WhereArgs...)
	if err != nil {
		return listing.Page[Booking]{}, fmt.Errorf("bookings: count failed: %w", err)
	}
	rows, err := r.db.Query(ctx, `SELECT `+selectColumns+` FROM bookings`+clause.Where+clause.Order+clause.Limit, clause.Args()...)
	if err != nil {
		return listing.Page[Booking]{}, fmt.Errorf("bookings: list failed: %w", err)
	}
	defer rows.Close()

	var out []Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return listing.Page[Booking]{}, fmt.Errorf("bookings: scan failed: %w", err)
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return listing.Page[Booking]{}, fmt.Errorf("bookings: rows: %w", err)
	}
	return listing.NewPage(q, out, total), nil
}

// Update writes the status columns guarded by the previous version.
func (r *PostgresRepository) Update(ctx context.Context, b Booking, prevVersion int) error {
	query := `
		UPDATE bookings
		SET status = $3, payment_status = $4, cancel_reason = $5, confirmed_at = $6, paid_at = $7,
			completed_at = $8, cancelled_at = $9, version = $10, updated_at = $11
		WHERE id = $1 AND version = $2
	`
	tag, err := r.db.Exec(ctx, query,
		b.ID, prevVersion, string(b.Status), b.PaymentStatus, b.CancelReason,
		b.ConfirmedAt, b.PaidAt, b.CompletedAt, b.CancelledAt, b.Version, b.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("bookings: update failed: %w", err)
	}
	return storage.CheckVersioned(tag, func() (bool, error) { return r.exists(ctx, b.ID) }, ErrNotFound)
}

// Delete removes the row permanently.
func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM bookings WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("bookings: delete failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresRepository) exists(ctx context.Context, id string) (bool, error) {
	var ok bool
	if err := r.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM bookings WHERE id = $1)`, id).Scan(&ok); err != nil {
		return false, fmt.Errorf("bookings: exists failed: %w", err)
	}
	return ok, nil
}

func scanBooking(row pgx.Row) (Booking, error) {
	var (
		b           Booking
		status      string
		externalRef *string
	)
	err := row.Scan(
		&b.ID, &externalRef, &b.PatientRef, &b.PatientName, &b.PatientEmail, &b.ScheduledAt, &status,
		&b.PaymentStatus, &b.CancelReason, &b.ConfirmedAt, &b.PaidAt, &b.CompletedAt, &b.CancelledAt,
		&b.Version, &b.CreatedAt, &b.UpdatedAt,
	)
	if externalRef != nil {
		b.ExternalRef = *externalRef
	}
	b.Status = lifecycle.Status(status)
	return b, err
}
