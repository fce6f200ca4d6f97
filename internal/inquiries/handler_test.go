package inquiries

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/careflow/internal/http/respond"
	"github.com/wolfman30/careflow/internal/listing"
)

func newTestRouter() http.Handler {
	h := NewHandler(newTestService(NewInMemoryRepository(), nil), nil)
	r := chi.NewRouter()
	r.Post("/inquiries", h.Create)
	r.Mount("/admin/inquiries", h.AdminRoutes())
	return r
}

func do(t *testing.T, h http.Handler, method, path, body string, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(bytes.NewReader(rec.Body.Bytes())).Decode(&v))
	return v
}

func TestCreateInquiry(t *testing.T) {
	r := newTestRouter()
	rec := do(t, r, http.MethodPost, "/inquiries", `{"name":"John Doe","email":"john@example.com","message":"Need respite care"}`)

	require.Equal(t, http.StatusCreated, rec.Code)
	inq := decode[Inquiry](t, rec)
	assert.Equal(t, "NEW", string(inq.Status))
	assert.Equal(t, `"1"`, rec.Header().Get("ETag"))
}

func TestCreateInquiryValidation(t *testing.T) {
	r := newTestRouter()

	rec := do(t, r, http.MethodPost, "/inquiries", `{"email":"john@example.com"}`)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	body := decode[respond.ErrorBody](t, rec)
	require.NotNil(t, body.Details)
	assert.Equal(t, "name", body.Details.Field)

	rec = do(t, r, http.MethodPost, "/inquiries", `{"name":"x","email":"x@example.com","extra":1}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPatchLifecycleOverHTTP(t *testing.T) {
	r := newTestRouter()
	created := decode[Inquiry](t, do(t, r, http.MethodPost, "/inquiries", `{"name":"Ann","phone":"+15550100"}`))
	path := "/admin/inquiries/" + created.ID

	rec := do(t, r, http.MethodPatch, path, `{"action":"disqualify"}`)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "reason", decode[respond.ErrorBody](t, rec).Details.Field)

	rec = do(t, r, http.MethodPatch, path, `{"action":"qualify"}`, "If-Match", `"1"`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, `"2"`, rec.Header().Get("ETag"))

	rec = do(t, r, http.MethodPatch, path, `{"action":"convert"}`, "If-Match", `"1"`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = do(t, r, http.MethodPatch, path, `{"action":"convert","version":2}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "CONVERTED", string(decode[Inquiry](t, rec).Status))

	rec = do(t, r, http.MethodPatch, path, `{"action":"qualify"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, decode[respond.ErrorBody](t, rec).Error, "already in terminal state")

	rec = do(t, r, http.MethodPatch, path, `{"action":"send"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = do(t, r, http.MethodPatch, path, `{"action":"qualify"}`, "If-Match", "abc")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestGetListDelete(t *testing.T) {
	r := newTestRouter()
	for _, name := range []string{"Ada", "Grace", "Linus"} {
		require.Equal(t, http.StatusCreated, do(t, r, http.MethodPost, "/inquiries", `{"name":"`+name+`","phone":"1"}`).Code)
	}

	rec := do(t, r, http.MethodGet, "/admin/inquiries?page=2&pageSize=2&sortBy=name&sortOrder=asc", "")
	require.Equal(t, http.StatusOK, rec.Code)
	page := decode[listing.Page[Inquiry]](t, rec)
	require.Len(t, page.Data, 1)
	assert.Equal(t, "Linus", page.Data[0].Name)
	assert.Equal(t, 3, page.Pagination.Total)
	assert.True(t, page.Pagination.HasPrevious)
	assert.False(t, page.Pagination.HasNext)

	rec = do(t, r, http.MethodGet, "/admin/inquiries?page=9", "")
	page = decode[listing.Page[Inquiry]](t, rec)
	assert.Empty(t, page.Data)
	assert.Equal(t, 3, page.Pagination.Total)
	assert.Contains(t, rec.Body.String(), `"data":[]`)

	first := decode[listing.Page[Inquiry]](t, do(t, r, http.MethodGet, "/admin/inquiries", "")).Data[0]

	rec = do(t, r, http.MethodGet, "/admin/inquiries/"+first.ID, "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, r, http.MethodDelete, "/admin/inquiries/"+first.ID, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, r, http.MethodGet, "/admin/inquiries/"+first.ID, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "inquiry not found", decode[respond.ErrorBody](t, rec).Error)
}
