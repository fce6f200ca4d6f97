package inquiries

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/wolfman30/careflow/internal/http/middleware"
	"github.com/wolfman30/careflow/internal/http/respond"
	"github.com/wolfman30/careflow/internal/listing"
	"github.com/wolfman30/careflow/pkg/logging"
)

// Handler handles HTTP requests for inquiries.
type Handler struct {
	svc    *Service
	logger *logging.Logger
}

// NewHandler creates a new inquiries handler.
func NewHandler(svc *Service, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{svc: svc, logger: logger}
}

// AdminRoutes mounts under /admin/inquiries.
func (h *Handler) AdminRoutes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.List)
	r.Get("/{id}", h.Get)
	r.Patch("/{id}", h.Patch)
	r.Delete("/{id}", h.Delete)
	return r
}

// Create handles the public POST /inquiries.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	inq, err := h.svc.Create(r.Context(), req)
	if err != nil {
		h.fail(w, err)
		return
	}
	respond.SetETag(w, inq.Version)
	respond.JSON(w, http.StatusCreated, inq)
}

// List handles GET /admin/inquiries.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	page, err := h.svc.List(r.Context(), listing.ParseQuery(r.URL.Query(), Sort))
	if err != nil {
		h.fail(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, page)
}

// Get handles GET /admin/inquiries/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	inq, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, err)
		return
	}
	respond.SetETag(w, inq.Version)
	respond.JSON(w, http.StatusOK, inq)
}

// Patch handles PATCH /admin/inquiries/{id}.
func (h *Handler) Patch(w http.ResponseWriter, r *http.Request) {
	var req PatchRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	version, err := respond.ExpectedVersion(r, req.Version)
	if err != nil {
		respond.Validation(w, err)
		return
	}
	req.Version = version

	inq, err := h.svc.Patch(r.Context(), chi.URLParam(r, "id"), req, middleware.ActorFromContext(r.Context()))
	if err != nil {
		h.fail(w, err)
		return
	}
	respond.SetETag(w, inq.Version)
	respond.JSON(w, http.StatusOK, inq)
}

// Delete handles DELETE /admin/inquiries/{id}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), chi.URLParam(r, "id"), middleware.ActorFromContext(r.Context())); err != nil {
		h.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) fail(w http.ResponseWriter, err error) {
	respond.Failure(w, h.logger, err, ErrNotFound)
}
