package tickets

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/wolfman30/careflow/internal/http/middleware"
	"github.com/wolfman30/careflow/internal/http/respond"
	"github.com/wolfman30/careflow/internal/lifecycle"
	"github.com/wolfman30/careflow/internal/listing"
	"github.com/wolfman30/careflow/pkg/logging"
)

// Handler serves /portal/tickets and /admin/tickets.
type Handler struct {
	svc    *Service
	logger *logging.Logger
}

// NewHandler creates a tickets handler.
func NewHandler(svc *Service, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{svc: svc, logger: logger}
}

// PortalRoutes mounts under /portal/tickets.
func (h *Handler) PortalRoutes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ListOwn)
	r.Post("/", h.Create)
	r.Get("/{id}", h.GetOwn)
	return r
}

// AdminRoutes mounts under /admin/tickets.
func (h *Handler) AdminRoutes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.List)
	r.Get("/{id}", h.Get)
	r.Patch("/{id}", h.Patch)
	r.Delete("/{id}", h.Delete)
	return r
}

func requester(r *http.Request) Requester {
	claims, _ := middleware.ClaimsFromContext(r.Context())
	return Requester{Ref: claims.Subject, Email: claims.Email}
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	t, err := h.svc.Create(r.Context(), requester(r), req)
	if err != nil {
		h.fail(w, err)
		return
	}
	respond.SetETag(w, t.Version)
	respond.JSON(w, http.StatusCreated, t)
}

func (h *Handler) ListOwn(w http.ResponseWriter, r *http.Request) {
	page, err := h.svc.ListOwn(r.Context(), listing.ParseQuery(r.URL.Query(), Sort), requester(r).Ref)
	if err != nil {
		h.fail(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, page)
}

func (h *Handler) GetOwn(w http.ResponseWriter, r *http.Request) {
	t, err := h.svc.GetOwn(r.Context(), chi.URLParam(r, "id"), requester(r).Ref)
	if err != nil {
		h.fail(w, err)
		return
	}
	respond.SetETag(w, t.Version)
	respond.JSON(w, http.StatusOK, t)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	page, err := h.svc.List(r.Context(), listing.ParseQuery(r.URL.Query(), Sort))
	if err != nil {
		h.fail(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, page)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	t, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, err)
		return
	}
	respond.SetETag(w, t.Version)
	respond.JSON(w, http.StatusOK, t)
}

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
	action, err := lifecycle.ParseAction(req.Action)
	if err != nil {
		h.fail(w, err)
		return
	}

	t, err := h.svc.Transition(r.Context(), chi.URLParam(r, "id"), lifecycle.Command{
		Action:          action,
		Payload:         lifecycle.Payload{Notes: req.Notes, Actor: middleware.ActorFromContext(r.Context())},
		ExpectedVersion: version,
	}, req.Assignee)
	if err != nil {
		h.fail(w, err)
		return
	}
	respond.SetETag(w, t.Version)
	respond.JSON(w, http.StatusOK, t)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), chi.URLParam(r, "id"), middleware.ActorFromContext(r.Context())); err != nil {
		h.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) fail(w http.ResponseWriter, err error) {
	if errors.Is(err, ErrForbidden) {
		respond.Error(w, http.StatusForbidden, err.Error())
		return
	}
	respond.Failure(w, h.logger, err, ErrNotFound)
}
