package compliance

import (
	"net/http"
	"strconv"

	"github.com/wolfman30/careflow/internal/http/respond"
	"github.com/wolfman30/careflow/pkg/logging"
)

// Handler exposes the audit trail to admins.
type Handler struct {
	svc    *AuditService
	logger *logging.Logger
}

func NewHandler(svc *AuditService, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{svc: svc, logger: logger}
}

// List handles GET /admin/audit?entityId=&entityKind=&limit=.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	events, err := h.svc.QueryEvents(r.Context(), AuditFilter{
		EntityID:   q.Get("entityId"),
		EntityKind: q.Get("entityKind"),
		Limit:      limit,
	})
	if err != nil {
		respond.Failure(w, h.logger, err)
		return
	}
	respond.JSON(w, http.StatusOK, map[string]any{"data": events})
}
