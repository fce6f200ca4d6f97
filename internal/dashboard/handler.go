package dashboard

import (
	"net/http"

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

// Pipeline handles GET /admin/dashboard/pipeline.
func (h *Handler) Pipeline(w http.ResponseWriter, r *http.Request) {
	p, err := h.svc.Pipeline(r.Context())
	if err != nil {
		respond.Failure(w, h.logger, err)
		return
	}
	respond.JSON(w, http.StatusOK, p)
}
