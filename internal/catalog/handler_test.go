package catalog

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/careflow/internal/listing"
)

func newTestRouter() http.Handler {
	h := NewHandler(newTestService(), nil)
	r := chi.NewRouter()
	r.Mount("/catalog/services", h.PublicRoutes())
	r.Mount("/admin/catalog/services", h.AdminRoutes())
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

func TestAdminCreateAndPublicRead(t *testing.T) {
	r := newTestRouter()

	rec := do(t, r, http.MethodPost, "/admin/catalog/services", `{"name":"Memory Care","priceCents":25000}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	var created Service
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, "memory-care", created.Slug)

	rec = do(t, r, http.MethodGet, "/catalog/services/memory-care", "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, r, http.MethodGet, "/catalog/services", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var page listing.Page[Service]
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	assert.Equal(t, 1, page.Pagination.Total)
}

func TestAdminReplaceWithIfMatch(t *testing.T) {
	r := newTestRouter()
	rec := do(t, r, http.MethodPost, "/admin/catalog/services", `{"name":"Memory Care"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	var created Service
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))

	rec = do(t, r, http.MethodPut, "/admin/catalog/services/"+created.ID, `{"name":"Memory Care","active":false}`, "If-Match", `"1"`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, `"2"`, rec.Header().Get("ETag"))

	rec = do(t, r, http.MethodPut, "/admin/catalog/services/"+created.ID, `{"name":"Memory Care"}`, "If-Match", `"1"`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = do(t, r, http.MethodGet, "/catalog/services/memory-care", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAdminErrors(t *testing.T) {
	r := newTestRouter()

	rec := do(t, r, http.MethodPost, "/admin/catalog/services", `{"name":"Memory Care","priceCents":-5}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), `"field":"priceCents"`)

	rec = do(t, r, http.MethodPost, "/admin/catalog/services", `{"name":"Memory Care"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	rec = do(t, r, http.MethodPost, "/admin/catalog/services", `{"name":"Memory care"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = do(t, r, http.MethodDelete, "/admin/catalog/services/nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
