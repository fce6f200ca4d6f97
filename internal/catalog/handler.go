package catalog

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/wolfman30/careflow/internal/http/respond"
	"github.com/wolfman30/careflow/internal/listing"
	"github.com/wolfman30/careflow/pkg/logging"
)

// Handler serves the catalog over HTTP.
type Handler struct {
	svc    *CatalogService
	logger *logging.Logger
}

func NewHandler(svc *CatalogService, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{svc: svc, logger: logger}
}

// PublicRoutes mounts under /catalog/services.
func (h *Handler) PublicRoutes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ListPublished)
	r.Get("/{slug}", h.GetPublished)
	return r
}

// AdminRoutes mounts under /admin/catalog/services.
func (h *Handler) AdminRoutes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/{id}", h.Get)
	r.Put("/{id}", h.Replace)
	r.Patch("/{id}", h.Replace)
	r.Delete("/{id}", h.Delete)
	return r
}

func (h *Handler) ListPublished(w http.ResponseWriter, r *http.Request) {
	page, err := h.svc.ListPublished(r.Context(), listing.ParseQuery(r.URL.Query(), Sort))
	if err != nil {
		h.fail(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, page)
}

func (h *Handler) GetPublished(w http.ResponseWriter, r *http.Request) {
	svc, err := h.svc.GetPublished(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		h.fail(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, svc)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	page, err := h.svc.List(r.Context(), listing.ParseQuery(r.URL.Query(), Sort))
	if err != nil {
		h.fail(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, page)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var in Input
	if err := respond.Decode(r, &in); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	svc, err := h.svc.Create(r.Context(), in)
	if err != nil {
		h.fail(w, err)
		return
	}
	respond.SetETag(w, svc.Version)
	respond.JSON(w, http.StatusCreated, svc)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	svc, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, err)
		return
	}
	respond.SetETag(w, svc.Version)
	respond.JSON(w, http.StatusOK, svc)
}

func (h *Handler) Replace(w http.ResponseWriter, r *http.Request) {
	var in Input
	if err := respond.Decode(r, &in); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	version, err := respond.ExpectedVersion(r, in.Version)
	if err != nil {
		respond.Validation(w, err)
		return
	}
	in.Version = version

	svc, err := h.svc.Replace(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		h.fail(w, err)
		return
	}
	respond.SetETag(w, svc.Version)
	respond.JSON(w, http.StatusOK, svc)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) fail(w http.ResponseWriter, err error) {
	if errors.Is(err, ErrSlugTaken) {
		respond.Error(w, http.StatusConflict, err.Error())
		return
	}
	respond.Failure(w, h.logger, err, ErrNotFound)
}
