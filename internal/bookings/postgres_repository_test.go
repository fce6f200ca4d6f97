package bookings

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/careflow/internal/storage"
)

func TestPostgresCreateDuplicateExternalRef(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec("INSERT INTO bookings").WillReturnError(&pgconn.PgError{Code: "23505"})

	err = NewPostgresRepository(mock).Create(context.Background(), Booking{ID: "b-1", ExternalRef: "evt_1"})
	assert.ErrorIs(t, err, storage.ErrDuplicate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresGetByExternalRef(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	at := time.Date(2026, 6, 3, 14, 0, 0, 0, time.UTC)
	ref := "evt_1"
	none := (*time.Time)(nil)
	mock.ExpectQuery("FROM bookings WHERE external_ref").WithArgs("evt_1").
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "external_ref", "patient_ref", "patient_name", "patient_email", "scheduled_at", "status",
			"payment_status", "cancel_reason", "confirmed_at", "paid_at", "completed_at", "cancelled_at",
			"version", "created_at", "updated_at",
		}).AddRow("b-1", &ref, "pt-1", "Joe", "", at, "PENDING", "unpaid", "", none, none, none, none, 1, at, at))

	b, err := NewPostgresRepository(mock).GetByExternalRef(context.Background(), "evt_1")
	require.NoError(t, err)
	assert.Equal(t, "evt_1", b.ExternalRef)
	assert.Equal(t, "PENDING", string(b.Status))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresDeleteError(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	boom := errors.New("connection refused")
	mock.ExpectExec("DELETE FROM bookings").WithArgs("b-1").WillReturnError(boom)

	err = NewPostgresRepository(mock).Delete(context.Background(), "b-1")
	assert.ErrorIs(t, err, boom)
}
