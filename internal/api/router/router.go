package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/wolfman30/careflow/internal/bookings"
	"github.com/wolfman30/careflow/internal/caregivers"
	"github.com/wolfman30/careflow/internal/catalog"
	"github.com/wolfman30/careflow/internal/compliance"
	"github.com/wolfman30/careflow/internal/dashboard"
	httpmiddleware "github.com/wolfman30/careflow/internal/http/middleware"
	"github.com/wolfman30/careflow/internal/http/respond"
	"github.com/wolfman30/careflow/internal/inquiries"
	"github.com/wolfman30/careflow/internal/invitations"
	"github.com/wolfman30/careflow/internal/proposals"
	"github.com/wolfman30/careflow/internal/tickets"
	"github.com/wolfman30/careflow/internal/uploads"
	"github.com/wolfman30/careflow/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger             *logging.Logger
	AuthSecret         string
	CORSAllowedOrigins []string
	MetricsHandler     http.Handler

	// TrustProxyHeaders lets X-Forwarded-For/X-Real-IP replace RemoteAddr.
	// Enable only behind a proxy that overwrites those headers.
	TrustProxyHeaders bool

	// IntakeLimiter throttles the public write endpoints. Nil disables it.
	IntakeLimiter httpmiddleware.Limiter
	OnRateLimited func(route string) func()

	Inquiries   *inquiries.Handler
	Proposals   *proposals.Handler
	Bookings    *bookings.Handler
	Tickets     *tickets.Handler
	Invitations *invitations.Handler
	Caregivers  *caregivers.Handler
	Catalog     *catalog.Handler
	Audit       *compliance.Handler
	Dashboard   *dashboard.Handler
	Uploads     *uploads.Handler
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	if cfg.TrustProxyHeaders {
		r.Use(middleware.RealIP)
	}
	r.Use(httpmiddleware.RequestLogger(logger))
	r.Use(middleware.Recoverer)
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		respond.Error(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		respond.Error(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	// Public endpoints (marketing site, calendar provider, health checks)
	r.Group(func(public chi.Router) {
		public.Get("/health", health)
		if cfg.MetricsHandler != nil {
			public.Handle("/metrics", cfg.MetricsHandler)
		}
		if cfg.Inquiries != nil {
			public.With(intakeLimit(cfg, "inquiries")).Post("/inquiries", cfg.Inquiries.Create)
		}
		if cfg.Invitations != nil {
			public.With(intakeLimit(cfg, "invitations_redeem")).Post("/invitations/redeem", cfg.Invitations.Redeem)
		}
		if cfg.Bookings != nil {
			public.Post("/webhooks/calendar", cfg.Bookings.CalendarWebhook)
		}
		if cfg.Catalog != nil {
			public.Mount("/catalog/services", cfg.Catalog.PublicRoutes())
		}
	})

	r.Route("/admin", func(admin chi.Router) {
		admin.Use(httpmiddleware.JWT(cfg.AuthSecret))
		admin.Use(httpmiddleware.RequireRole(httpmiddleware.RoleAdmin))

		if cfg.Inquiries != nil {
			admin.Mount("/inquiries", cfg.Inquiries.AdminRoutes())
		}
		if cfg.Proposals != nil {
			admin.Mount("/proposals", cfg.Proposals.Routes())
		}
		if cfg.Bookings != nil {
			admin.Mount("/bookings", cfg.Bookings.Routes())
		}
		if cfg.Tickets != nil {
			admin.Mount("/tickets", cfg.Tickets.AdminRoutes())
		}
		if cfg.Invitations != nil {
			admin.Mount("/invitations", cfg.Invitations.Routes())
		}
		if cfg.Caregivers != nil {
			admin.Mount("/caregiver-assignments", cfg.Caregivers.Routes())
		}
		if cfg.Catalog != nil {
			admin.Mount("/catalog/services", cfg.Catalog.AdminRoutes())
		}
		if cfg.Audit != nil {
			admin.Get("/audit", cfg.Audit.List)
		}
		if cfg.Dashboard != nil {
			admin.Get("/dashboard/pipeline", cfg.Dashboard.Pipeline)
		}
	})

	r.Route("/portal", func(portal chi.Router) {
		portal.Use(httpmiddleware.JWT(cfg.AuthSecret))
		portal.Use(httpmiddleware.RequireRole(
			httpmiddleware.RoleAdmin,
			httpmiddleware.RoleClient,
			httpmiddleware.RoleCaregiver,
		))

		if cfg.Tickets != nil {
			portal.Mount("/tickets", cfg.Tickets.PortalRoutes())
		}
		if cfg.Uploads != nil {
			portal.Post("/uploads", cfg.Uploads.Create)
		}
	})

	return r
}

func intakeLimit(cfg *Config, route string) func(http.Handler) http.Handler {
	if cfg.IntakeLimiter == nil {
		return func(next http.Handler) http.Handler { return next }
	}
	var onReject func()
	if cfg.OnRateLimited != nil {
		onReject = cfg.OnRateLimited(route)
	}
	return httpmiddleware.RateLimit(cfg.IntakeLimiter, cfg.Logger, onReject)
}

func health(w http.ResponseWriter, _ *http.Request) {
	respond.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
