package bootstrap

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/wolfman30/careflow/internal/api/router"
	"github.com/wolfman30/careflow/internal/bookings"
	"github.com/wolfman30/careflow/internal/caregivers"
	"github.com/wolfman30/careflow/internal/catalog"
	"github.com/wolfman30/careflow/internal/compliance"
	appconfig "github.com/wolfman30/careflow/internal/config"
	"github.com/wolfman30/careflow/internal/dashboard"
	"github.com/wolfman30/careflow/internal/inquiries"
	"github.com/wolfman30/careflow/internal/invitations"
	"github.com/wolfman30/careflow/internal/lifecycle"
	"github.com/wolfman30/careflow/internal/notify"
	"github.com/wolfman30/careflow/internal/observability/metrics"
	"github.com/wolfman30/careflow/internal/proposals"
	"github.com/wolfman30/careflow/internal/tickets"
	"github.com/wolfman30/careflow/internal/uploads"
	"github.com/wolfman30/careflow/pkg/logging"
)

// Deps are the externally built collaborators of the HTTP application.
type Deps struct {
	Config   *appconfig.Config
	Logger   *logging.Logger
	Stores   *Stores
	Email    notify.EmailSender
	Uploads  *uploads.Service
	Redis    *redis.Client
	Registry *prometheus.Registry
	Now      func() time.Time
}

// NewHandler wires every service and returns the routed HTTP handler.
func NewHandler(d Deps) http.Handler {
	logger := d.Logger
	if logger == nil {
		logger = logging.Default()
	}
	cfg := d.Config
	if cfg == nil {
		cfg = appconfig.Load()
	}
	stores := d.Stores
	if stores == nil {
		stores = NewMemoryStores()
	}
	reg := d.Registry
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	upl := d.Uploads
	if upl == nil {
		upl = BuildUploads(cfg, nil, logger)
	}

	m := metrics.NewLifecycleMetrics(reg)
	audit := compliance.NewAuditService(stores.Audit, logger)
	hooks := lifecycle.Hooks{
		Observer: lifecycle.Observers{audit, notify.NewTransitionNotifier(d.Email, logger)},
		Deletes:  audit,
		Metrics:  m,
		Now:      d.Now,
	}

	return router.New(&router.Config{
		Logger:             logger,
		AuthSecret:         cfg.AdminJWTSecret,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		TrustProxyHeaders:  cfg.TrustProxyHeaders,
		MetricsHandler:     promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		IntakeLimiter:      BuildInquiryLimiter(cfg, d.Redis),
		OnRateLimited:      m.RateLimitedFunc,

		Inquiries:   inquiries.NewHandler(inquiries.NewService(stores.Inquiries, hooks, logger), logger),
		Proposals:   proposals.NewHandler(proposals.NewService(stores.Proposals, hooks, logger), logger),
		Bookings:    bookings.NewHandler(bookings.NewService(stores.Bookings, hooks, logger), cfg.CalendarWebhookSecret, logger),
		Tickets:     tickets.NewHandler(tickets.NewService(stores.Tickets, hooks, logger), logger),
		Invitations: invitations.NewHandler(invitations.NewService(stores.Invitations, hooks, logger), logger),
		Caregivers:  caregivers.NewHandler(caregivers.NewService(stores.Caregivers, hooks.Clock(), logger), logger),
		Catalog:     catalog.NewHandler(catalog.NewService(stores.Catalog, hooks.Clock(), logger), logger),
		Audit:       compliance.NewHandler(audit, logger),
		Dashboard:   dashboard.NewHandler(dashboard.NewService(stores.Pipeline), logger),
		Uploads:     uploads.NewHandler(upl, logger),
	})
}
