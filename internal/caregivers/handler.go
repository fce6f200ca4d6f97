package caregivers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/wolfman30/careflow/internal/http/middleware"
	"github.com/wolfman30/careflow/internal/http/respond"
	"github.com/wolfman30/careflow/internal/listing"
	"github.com/wolfman30/careflow/pkg/logging"
)

// Handler serves /admin/caregiver-assignments.
type Handler struct {
	svc    *Service
	logger *logging.Logger
}

// NewHandler creates a caregivers handler.
func NewHandler(svc *Service, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{svc: svc, logger: logger}
}

// Routes mounts under /admin/caregiver-assignments.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.List)
	r.Post("/", h.Assign)
	r.Delete("/{id}", h.Unassign)
	r.Get("/patients/{patientRef}", h.Current)
	r.Get("/patients/{patientRef}/history", h.History)
	return r
}

func (h *Handler) Assign(w http.ResponseWriter, r *http.Request) {
	var req AssignRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	a, err := h.svc.Assign(r.Context(), req, middleware.ActorFromContext(r.Context()))
	if err != nil {
		h.fail(w, err)
		return
	}
	respond.JSON(w, http.StatusCreated, a)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	page, err := h.svc.List(r.Context(), listing.ParseQuery(r.URL.Query(), Sort))
	if err != nil {
		h.fail(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, page)
}

func (h *Handler) Current(w http.ResponseWriter, r *http.Request) {
	a, err := h.svc.Current(r.Context(), chi.URLParam(r, "patientRef"))
	if err != nil {
		h.fail(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, a)
}

func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	out, err := h.svc.History(r.Context(), chi.URLParam(r, "patientRef"))
	if err != nil {
		h.fail(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, map[string]any{"data": out})
}

func (h *Handler) Unassign(w http.ResponseWriter, r *http.Request) {
	a, err := h.svc.Unassign(r.Context(), chi.URLParam(r, "id"), middleware.ActorFromContext(r.Context()))
	if err != nil {
		h.fail(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, a)
}

func (h *Handler) fail(w http.ResponseWriter, err error) {
	if errors.Is(err, ErrAlreadyRevoked) {
		respond.Error(w, http.StatusConflict, err.Error())
		return
	}
	respond.Failure(w, h.logger, err, ErrNotFound, ErrNoActiveAssignment)
}
