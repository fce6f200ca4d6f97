package bookings

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter() http.Handler {
	h := NewHandler(newTestService(), "s3cret", nil)
	r := chi.NewRouter()
	r.Post("/webhooks/calendar", h.CalendarWebhook)
	r.Mount("/admin/bookings", h.Routes())
	return r
}

func post(h http.Handler, path, body, secret string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	if secret != "" {
		req.Header.Set(WebhookSecretHeader, secret)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestCalendarWebhook(t *testing.T) {
	r := newTestRouter()
	body := `{"externalRef":"evt_1","patientRef":"pt-1","patientName":"Joe","scheduledAt":"2026-06-03T14:00:00Z"}`

	assert.Equal(t, http.StatusUnauthorized, post(r, "/webhooks/calendar", body, "").Code)
	assert.Equal(t, http.StatusUnauthorized, post(r, "/webhooks/calendar", body, "wrong").Code)

	rec := post(r, "/webhooks/calendar", body, "s3cret")
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"PENDING"`)
	assert.Contains(t, rec.Body.String(), `"paymentStatus":"unpaid"`)

	rec = post(r, "/webhooks/calendar", body, "s3cret")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = post(r, "/webhooks/calendar", `{"patientRef":"pt-1"}`, "s3cret")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestWebhookDisabledWithoutSecret(t *testing.T) {
	h := NewHandler(newTestService(), "", nil)
	rec := post(http.HandlerFunc(h.CalendarWebhook), "/webhooks/calendar", `{}`, "anything")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAdminPatchBooking(t *testing.T) {
	r := newTestRouter()
	rec := post(r, "/admin/bookings", `{"patientRef":"pt-1","scheduledAt":"2026-06-03T14:00:00Z"}`, "")
	require.Equal(t, http.StatusCreated, rec.Code)
	id := extractID(t, rec.Body.String())

	patch := func(body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPatch, "/admin/bookings/"+id, strings.NewReader(body))
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		return rec
	}
	assert.Equal(t, http.StatusConflict, patch(`{"action":"complete"}`).Code)
	assert.Equal(t, http.StatusOK, patch(`{"action":"confirm","version":1}`).Code)
	assert.Equal(t, http.StatusConflict, patch(`{"action":"mark_paid","version":1}`).Code)
	assert.Equal(t, http.StatusOK, patch(`{"action":"MARK_PAID"}`).Code)
	assert.Equal(t, http.StatusUnprocessableEntity, patch(`{"action":"launch"}`).Code)
}

func extractID(t *testing.T, body string) string {
	t.Helper()
	const key = `"id":"`
	i := strings.Index(body, key)
	require.GreaterOrEqual(t, i, 0)
	rest := body[i+len(key):]
	return rest[:strings.Index(rest, `"`)]
}
