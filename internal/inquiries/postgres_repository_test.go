package inquiries

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/careflow/internal/listing"
	"github.com/wolfman30/careflow/internal/storage"
)

var inquiryColumns = []string{
	"id", "name", "email", "phone", "source", "subject", "message", "status",
	"disqualification_reason", "disqualified_at", "converted_at", "version", "created_at", "updated_at",
}

func TestPostgresGet(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	created := time.Date(2026, 1, 5, 10, 0, 0, 0, time.UTC)
	dq := created.Add(time.Hour)
	mock.ExpectQuery(regexp.QuoteMeta("FROM inquiries WHERE id = $1")).
		WithArgs("inq-1").
		WillReturnRows(pgxmock.NewRows(inquiryColumns).AddRow(
			"inq-1", "Ann", "ann@example.com", "", "website", "Care", "Hello", "DISQUALIFIED",
			"duplicate", &dq, (*time.Time)(nil), 3, created, dq,
		))

	repo := NewPostgresRepository(mock)
	inq, err := repo.Get(context.Background(), "inq-1")
	require.NoError(t, err)
	assert.Equal(t, "DISQUALIFIED", string(inq.Status))
	assert.Equal(t, "duplicate", inq.DisqualificationReason)
	require.NotNil(t, inq.DisqualifiedAt)
	assert.Nil(t, inq.ConvertedAt)
	assert.Equal(t, 3, inq.Version)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresGetNotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery("FROM inquiries").WithArgs("missing").WillReturnError(pgx.ErrNoRows)

	_, err = NewPostgresRepository(mock).Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPostgresList(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	created := time.Date(2026, 1, 5, 10, 0, 0, 0, time.UTC)
	where := " WHERE status = $1 AND (name ILIKE $2 OR email ILIKE $2 OR subject ILIKE $2)"
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM inquiries"+where)).
		WithArgs("NEW", "%ann%").
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(11)))
	mock.ExpectQuery(regexp.QuoteMeta(where+" ORDER BY name ASC, id ASC LIMIT $3 OFFSET $4")).
		WithArgs("NEW", "%ann%", 10, 10).
		WillReturnRows(pgxmock.NewRows(inquiryColumns).AddRow(
			"inq-11", "Annabel", "", "+1555", "website", "", "", "NEW",
			"", (*time.Time)(nil), (*time.Time)(nil), 1, created, created,
		))

	q := listing.Query{Page: 2, Search: "ann", Status: "new", SortBy: "name", SortOrder: listing.Asc}
	page, err := NewPostgresRepository(mock).List(context.Background(), q)
	require.NoError(t, err)
	require.Len(t, page.Data, 1)
	assert.Equal(t, "Annabel", page.Data[0].Name)
	assert.Equal(t, 11, page.Pagination.Total)
	assert.Equal(t, 2, page.Pagination.TotalPages)
	assert.False(t, page.Pagination.HasNext)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresUpdateVersionConflict(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	now := time.Date(2026, 1, 5, 10, 0, 0, 0, time.UTC)
	inq := Inquiry{ID: "inq-1", Name: "Ann", Status: "QUALIFIED", Version: 3, UpdatedAt: now}

	mock.ExpectExec("UPDATE inquiries").
		WithArgs("inq-1", 2, "Ann", "", "", "", "", "QUALIFIED", "", (*time.Time)(nil), (*time.Time)(nil), 3, now).
		WillReturnResult(pgconn.NewCommandTag("UPDATE 0"))
	mock.ExpectQuery("SELECT EXISTS").WithArgs("inq-1").
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))

	err = NewPostgresRepository(mock).Update(context.Background(), inq, 2)
	assert.ErrorIs(t, err, storage.ErrVersionConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresUpdateAndDelete(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	inq := Inquiry{ID: "inq-1", Name: "Ann", Status: "QUALIFIED", Version: 2}
	mock.ExpectExec("UPDATE inquiries").WillReturnResult(pgconn.NewCommandTag("UPDATE 1"))
	mock.ExpectExec("DELETE FROM inquiries").WithArgs("inq-1").WillReturnResult(pgconn.NewCommandTag("DELETE 1"))
	mock.ExpectExec("DELETE FROM inquiries").WithArgs("inq-1").WillReturnResult(pgconn.NewCommandTag("DELETE 0"))

	repo := NewPostgresRepository(mock)
	require.NoError(t, repo.Update(context.Background(), inq, 1))
	require.NoError(t, repo.Delete(context.Background(), "inq-1"))
	assert.ErrorIs(t, repo.Delete(context.Background(), "inq-1"), ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
