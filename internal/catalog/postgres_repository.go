package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/wolfman30/careflow/internal/listing"
	"github.com/wolfman30/careflow/internal/storage"
)

const selectColumns = `id, name, slug, description, price_cents, active, version, created_at, updated_at`

var sqlSpec = listing.SQLSpec{
	SearchColumns: []string{"name", "slug", "description"},
	SortColumns: map[string]string{
		"name":       "name",
		"priceCents": "price_cents",
		"createdAt":  "created_at",
	},
	DefaultSort: "name",
}

// PostgresRepository stores catalog services in Postgres.
type PostgresRepository struct {
	db storage.Querier
}

// NewPostgresRepository initializes a repo backed by a pgx pool.
func NewPostgresRepository(db storage.Querier) *PostgresRepository {
	if db == nil {
		panic("catalog: pgx pool required")
	}
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, s Service) error {
	query := `
		INSERT INTO catalog_services (id, name, slug, description, price_cents, active, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	if _, err := r.db.Exec(ctx, query,
		s.ID, s.Name, s.Slug, s.Description, s.PriceCents, s.Active, s.Version, s.CreatedAt, s.UpdatedAt,
	); err != nil {
		if storage.IsUniqueViolation(err) {
			return ErrSlugTaken
		}
		return fmt.Errorf("catalog: insert failed: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Get(ctx context.Context, id string) (Service, error) {
	return r.getBy(ctx, "id", id)
}

func (r *PostgresRepository) GetBySlug(ctx context.Context, slug string) (Service, error) {
	return r.getBy(ctx, "slug", slug)
}

func (r *PostgresRepository) getBy(ctx context.Context, column, value string) (Service, error) {
	row := r.db.QueryRow(ctx, `SELECT `+selectColumns+` FROM catalog_services WHERE `+column+` = $1`, value)
	s, err := scanService(row)
	if err != nil {
		if storage.IsNoRows(err) {
			return Service{}, ErrNotFound
		}
		return Service{}, fmt.Errorf("catalog: select failed: %w", err)
	}
	return s, nil
}

// List renders the status filter as a boolean column condition.
func (r *PostgresRepository) List(ctx context.Context, q listing.Query, activeOnly bool) (listing.Page[Service], error) {
	var (
		extra []string
		args  []any
	)
	status := strings.ToUpper(strings.TrimSpace(q.Status))
	if activeOnly {
		status = StatusActive
	}
	switch status {
	case StatusActive:
		extra, args = []string{"active = $1"}, []any{true}
	case StatusInactive:
		extra, args = []string{"active = $1"}, []any{false}
	}
	q.Status = ""
	clause := listing.BuildSQL(q, sqlSpec, extra, args...)

	total, err := storage.Count(ctx, r.db, `SELECT COUNT(*) FROM catalog_services`+clause.Where, clause.WhereArgs...)
	if err != nil {
		return listing.Page[Service]{}, fmt.Errorf("catalog: count failed: %w", err)
	}

	rows, err := r.db.Query(ctx, `SELECT `+selectColumns+` FROM catalog_services`+clause.Where+clause.Order+clause.Limit, clause.Args()...)
	if err != nil {
		return listing.Page[Service]{}, fmt.Errorf("catalog: list failed: %w", err)
	}
	defer rows.Close()

	var out []Service
	for rows.Next() {
		s, err := scanService(rows)
		if err != nil {
			return listing.Page[Service]{}, fmt.Errorf("catalog: scan failed: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return listing.Page[Service]{}, fmt.Errorf("catalog: rows: %w", err)
	}
	return listing.NewPage(q, out, total), nil
}

func (r *PostgresRepository) Update(ctx context.Context, s Service, prevVersion int) error {
	query := `
		UPDATE catalog_services
		SET name = $3, slug = $4, description = $5, price_cents = $6, active = $7,
			version = $8, updated_at = $9
		WHERE id = $1 AND version = $2
	`
	tag, err := r.db.Exec(ctx, query,
		s.ID, prevVersion, s.Name, s.Slug, s.Description, s.PriceCents, s.Active, s.Version, s.UpdatedAt,
	)
	if err != nil {
		if storage.IsUniqueViolation(err) {
			return ErrSlugTaken
		}
		return fmt.Errorf("catalog: update failed: %w", err)
	}
	return storage.CheckVersioned(tag, func() (bool, error) { return r.exists(ctx, s.ID) }, ErrNotFound)
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM catalog_services WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("catalog: delete failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresRepository) exists(ctx context.Context, id string) (bool, error) {
	var ok bool
	if err := r.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM catalog_services WHERE id = $1)`, id).Scan(&ok); err != nil {
		return false, fmt.Errorf("catalog: exists failed: %w", err)
	}
	return ok, nil
}

func scanService(row pgx.Row) (Service, error) {
	var s Service
	err := row.Scan(&s.ID, &s.Name, &s.Slug, &s.Description, &s.PriceCents, &s.Active, &s.Version, &s.CreatedAt, &s.UpdatedAt)
	return s, err
}
