package dashboard

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/careflow/internal/inquiries"
	"github.com/wolfman30/careflow/internal/lifecycle"
)

func expectCounts(mock sqlmock.Sqlmock, table, statuses string, rows *sqlmock.Rows) {
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT status, COUNT(*) FROM ` + table + ` WHERE status = ANY($1) GROUP BY status`)).
		WithArgs(statuses).
		WillReturnRows(rows)
}

func TestPipelineSQL(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	cols := []string{"status", "count"}
	expectCounts(mock, "inquiries", `{"CONVERTED","DISQUALIFIED","NEW","QUALIFIED"}`,
		sqlmock.NewRows(cols).AddRow("NEW", 5).AddRow("QUALIFIED", 2).AddRow("CONVERTED", 3))
	expectCounts(mock, "proposals", `{"ACCEPTED","DRAFT","REJECTED","SENT","VIEWED"}`,
		sqlmock.NewRows(cols).AddRow("ACCEPTED", 2).AddRow("REJECTED", 1).AddRow("SENT", 4))
	expectCounts(mock, "bookings", `{"CANCELLED","COMPLETED","CONFIRMED","PAID","PENDING"}`,
		sqlmock.NewRows(cols))

	p, err := NewService(NewSQLCounter(db)).Pipeline(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 10, p.Inquiries.Total)
	assert.Equal(t, 0, p.Inquiries.ByStatus["DISQUALIFIED"])
	assert.Contains(t, p.Inquiries.ByStatus, "DISQUALIFIED")
	assert.Equal(t, 0.3, p.Rates.InquiryToConverted)
	assert.Equal(t, 0.6667, p.Rates.ProposalAcceptance)
	assert.Equal(t, 0.0, p.Rates.BookingCompletion)
	assert.Len(t, p.Bookings.ByStatus, 5)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPipelineSQLError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("FROM inquiries").WillReturnError(errors.New("timeout"))

	_, err = NewService(NewSQLCounter(db)).Pipeline(context.Background())
	assert.ErrorContains(t, err, "dashboard: count inquiries")
}

func TestPipelineListCounter(t *testing.T) {
	ctx := context.Background()
	repo := inquiries.NewInMemoryRepository()
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	for i, st := range []lifecycle.Status{lifecycle.InquiryNew, lifecycle.InquiryNew, lifecycle.InquiryConverted, lifecycle.InquiryQualified} {
		require.NoError(t, repo.Create(ctx, inquiries.Inquiry{
			ID: string(rune('a' + i)), Name: "n", Status: st, Version: 1, CreatedAt: now, UpdatedAt: now,
		}))
	}
	empty := func(context.Context, string) (int, error) { return 0, nil }
	counter := ListCounter{
		lifecycle.KindInquiry:  PageTotal(repo.List),
		lifecycle.KindProposal: empty,
		lifecycle.KindBooking:  empty,
	}

	p, err := NewService(counter).Pipeline(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, p.Inquiries.Total)
	assert.Equal(t, 2, p.Inquiries.ByStatus["NEW"])
	assert.Equal(t, 0.25, p.Rates.InquiryToConverted)
}

func TestListCounterUnknownKind(t *testing.T) {
	_, err := ListCounter{}.CountByStatus(context.Background(), lifecycle.KindTicket, []string{"OPEN"})
	assert.Error(t, err)
}

func TestHandlerPipeline(t *testing.T) {
	zero := func(context.Context, string) (int, error) { return 0, nil }
	svc := NewService(ListCounter{
		lifecycle.KindInquiry:  zero,
		lifecycle.KindProposal: zero,
		lifecycle.KindBooking:  zero,
	})

	rec := httptest.NewRecorder()
	NewHandler(svc, nil).Pipeline(rec, httptest.NewRequest(http.MethodGet, "/admin/dashboard/pipeline", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"conversionRates"`)
	assert.Contains(t, rec.Body.String(), `"PENDING":0`)
}
