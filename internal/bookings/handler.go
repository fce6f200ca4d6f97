package bookings

import (
	"crypto/subtle"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/wolfman30/careflow/internal/http/middleware"
	"github.com/wolfman30/careflow/internal/http/respond"
	"github.com/wolfman30/careflow/internal/lifecycle"
	"github.com/wolfman30/careflow/internal/listing"
	"github.com/wolfman30/careflow/pkg/logging"
)

// WebhookSecretHeader carries the shared secret of the calendar provider.
const WebhookSecretHeader = "X-Calendar-Secret"

// Handler serves the calendar webhook and /admin/bookings.
type Handler struct {
	svc           *Service
	webhookSecret string
	logger        *logging.Logger
}

// NewHandler creates a bookings handler. An empty webhookSecret disables the
// calendar callback.
func NewHandler(svc *Service, webhookSecret string, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{svc: svc, webhookSecret: webhookSecret, logger: logger}
}

// Routes mounts under /admin/bookings.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/{id}", h.Get)
	r.Patch("/{id}", h.Patch)
	r.Delete("/{id}", h.Delete)
	return r
}

// CalendarWebhook handles POST /webhooks/calendar.
func (h *Handler) CalendarWebhook(w http.ResponseWriter, r *http.Request) {
	got := r.Header.Get(WebhookSecretHeader)
	if h.webhookSecret == "" || subtle.ConstantTimeCompare([]byte(got), []byte(h.webhookSecret)) != 1 {
		h.logger.Warn("calendar webhook rejected", "remote_addr", r.RemoteAddr)
		respond.Error(w, http.StatusUnauthorized, ErrBadSignature.Error())
		return
	}
	h.create(w, r, SourceCalendar)
}

// Create handles POST /admin/bookings.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	h.create(w, r, SourceAdmin)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request, source string) {
	var req CreateRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	b, created, err := h.svc.Create(r.Context(), req, source)
	if err != nil {
		h.fail(w, err)
		return
	}
	status := http.StatusCreated
	if !created {
		status = http.StatusOK
	}
	respond.SetETag(w, b.Version)
	respond.JSON(w, status, b)
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
	b, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, err)
		return
	}
	respond.SetETag(w, b.Version)
	respond.JSON(w, http.StatusOK, b)
}

// Patch handles PATCH /admin/bookings/{id}; only status actions are accepted.
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

	b, err := h.svc.Transition(r.Context(), chi.URLParam(r, "id"), lifecycle.Command{
		Action:          action,
		Payload:         lifecycle.Payload{Reason: req.Reason, Actor: middleware.ActorFromContext(r.Context())},
		ExpectedVersion: version,
	})
	if err != nil {
		h.fail(w, err)
		return
	}
	respond.SetETag(w, b.Version)
	respond.JSON(w, http.StatusOK, b)
}

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
