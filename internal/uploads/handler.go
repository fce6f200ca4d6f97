package uploads

import (
	"errors"
	"net/http"

	"github.com/wolfman30/careflow/internal/http/middleware"
	"github.com/wolfman30/careflow/internal/http/respond"
	"github.com/wolfman30/careflow/pkg/logging"
)

type Handler struct {
	svc    *Service
	logger *logging.Logger
}

func NewHandler(svc *Service, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{svc: svc, logger: logger}
}

// Create handles POST /portal/uploads.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok || claims.Subject == "" {
		respond.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req Request
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	ticket, err := h.svc.Presign(r.Context(), claims.Subject, req)
	if err != nil {
		if errors.Is(err, ErrDisabled) {
			respond.Error(w, http.StatusServiceUnavailable, "uploads are not configured")
			return
		}
		respond.Failure(w, h.logger, err)
		return
	}
	respond.JSON(w, http.StatusCreated, ticket)
}
