package caregivers

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/wolfman30/careflow/internal/listing"
	"github.com/wolfman30/careflow/internal/storage"
)

const selectColumns = `id, patient_ref, caregiver_ref, notes, assigned_by, assigned_at, revoked_at, version`

var sqlSpec = listing.SQLSpec{
	SearchColumns: []string{"patient_ref", "caregiver_ref", "notes"},
	SortColumns: map[string]string{
		"assignedAt":   "assigned_at",
		"patientRef":   "patient_ref",
		"caregiverRef": "caregiver_ref",
	},
	DefaultSort: "assigned_at",
}

// PostgresRepository stores assignments in the relational database.
type PostgresRepository struct {
	db storage.TxQuerier
}

// NewPostgresRepository initializes a repo backed by a pgx pool.
func NewPostgresRepository(db storage.TxQuerier) *PostgresRepository {
	if db == nil {
		panic("caregivers: pgx pool required")
	}
	return &PostgresRepository{db: db}
}

// Assign revokes the active assignment and inserts a in one transaction. The
// partial unique index on (patient_ref) WHERE revoked_at IS NULL rejects a
// concurrent second insert.
func (r *PostgresRepository) Assign(ctx context.Context, a Assignment) (*Assignment, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("caregivers: begin: %w", err)
	}

	revokeQuery := `
		UPDATE caregiver_assignments
		SET revoked_at = $2, version = version + 1
		WHERE patient_ref = $1 AND revoked_at IS NULL
		RETURNING ` + selectColumns
	var revoked *Assignment
	prev, err := scanAssignment(tx.QueryRow(ctx, revokeQuery, a.PatientRef, a.AssignedAt))
	switch {
	case err == nil:
		revoked = &prev
	case !storage.IsNoRows(err):
		_ = tx.Rollback(ctx)
		return nil, fmt.Errorf("caregivers: revoke previous: %w", err)
	}

	insertQuery := `
		INSERT INTO caregiver_assignments (id, patient_ref, caregiver_ref, notes, assigned_by, assigned_at, version)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	if _, err := tx.Exec(ctx, insertQuery,
		a.ID, a.PatientRef, a.CaregiverRef, a.Notes, a.AssignedBy, a.AssignedAt, a.Version,
	); err != nil {
		_ = tx.Rollback(ctx)
		if storage.IsUniqueViolation(err) {
			return nil, fmt.Errorf("caregivers: assign: %w", storage.ErrVersionConflict)
		}
		return nil, fmt.Errorf("caregivers: insert failed: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("caregivers: commit: %w", err)
	}
	return revoked, nil
}

// Get fetches one assignment.
func (r *PostgresRepository) Get(ctx context.Context, id string) (Assignment, error) {
	a, err := scanAssignment(r.db.QueryRow(ctx, `SELECT `+selectColumns+` FROM caregiver_assignments WHERE id = $1`, id))
	if err != nil {
		if storage.IsNoRows(err) {
			return Assignment{}, ErrNotFound
		}
		return Assignment{}, fmt.Errorf("caregivers: select failed: %w", err)
	}
	return a, nil
}

// Current fetches the patient's active assignment.
func (r *PostgresRepository) Current(ctx context.Context, patientRef string) (Assignment, error) {
	query := `SELECT ` + selectColumns + ` FROM caregiver_assignments WHERE patient_ref = $1 AND revoked_at IS NULL`
	a, err := scanAssignment(r.db.QueryRow(ctx, query, patientRef))
	if err != nil {
		if storage.IsNoRows(err) {
			return Assignment{}, ErrNoActiveAssignment
		}
		return Assignment{}, fmt.Errorf("caregivers: current failed: %w", err)
	}
	return a, nil
}

// History lists the patient's assignments, newest first.
func (r *PostgresRepository) History(ctx context.Context, patientRef string) ([]Assignment, error) {
	query := `SELECT ` + selectColumns + ` FROM caregiver_assignments WHERE patient_ref = $1 ORDER BY assigned_at DESC, id DESC`
	rows, err := r.db.Query(ctx, query, patientRef)
	if err != nil {
		return nil, fmt.Errorf("caregivers: history failed: %w", err)
	}
	return collect(rows)
}

// List returns one page of assignments.
func (r *PostgresRepository) List(ctx context.Context, q listing.Query) (listing.Page[Assignment], error) {
	var extra []string
	switch strings.ToLower(q.Status) {
	case "active":
		extra = []string{"revoked_at IS NULL"}
	case "revoked":
		extra = []string{"revoked_at IS NOT NULL"}
	}
	q.Status = ""
	clause := listing.BuildSQL(q, sqlSpec, extra)

	total, err := storage.Count(ctx, r.db, `SELECT COUNT(*) FROM caregiver_assignments`+clause.Where, clause.WhereArgs...)
	if err != nil {
		return listing.Page[Assignment]{}, fmt.Errorf("caregivers: count failed: %w", err)
	}
	rows, err := r.db.Query(ctx, `SELECT `+selectColumns+` FROM caregiver_assignments`+clause.Where+clause.Order+clause.Limit, clause.Args()...)
	if err != nil {
		return listing.Page[Assignment]{}, fmt.Errorf("caregivers: list failed: %w", err)
	}
	out, err := collect(rows)
	if err != nil {
		return listing.Page[Assignment]{}, err
	}
	return listing.NewPage(q, out, total), nil
}

// Revoke stamps revoked_at on an active assignment.
func (r *PostgresRepository) Revoke(ctx context.Context, id string, at time.Time) (Assignment, error) {
	query := `
		UPDATE caregiver_assignments
		SET revoked_at = $2, version = version + 1
		WHERE id = $1 AND revoked_at IS NULL
		RETURNING ` + selectColumns
	a, err := scanAssignment(r.db.QueryRow(ctx, query, id, at))
	if err == nil {
		return a, nil
	}
	if !storage.IsNoRows(err) {
		return Assignment{}, fmt.Errorf("caregivers: revoke failed: %w", err)
	}
	if _, getErr := r.Get(ctx, id); getErr != nil {
		return Assignment{}, getErr
	}
	return Assignment{}, ErrAlreadyRevoked
}

func collect(rows pgx.Rows) ([]Assignment, error) {
	defer rows.Close()
	var out []Assignment
	for rows.Next() {
		a, err := scanAssignment(rows)
		if err != nil {
			return nil, fmt.Errorf("caregivers: scan failed: %w", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("caregivers: rows: %w", err)
	}
	return out, nil
}

func scanAssignment(row pgx.Row) (Assignment, error) {
	var a Assignment
	err := row.Scan(&a.ID, &a.PatientRef, &a.CaregiverRef, &a.Notes, &a.AssignedBy, &a.AssignedAt, &a.RevokedAt, &a.Version)
	return a, err
}
