package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/musohq/muso-ai-platform/internal/http/handlers"
	httpmiddleware "github.com/musohq/muso-ai-platform/internal/http/middleware"
	"github.com/musohq/muso-ai-platform/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger             *logging.Logger
	InboundEmail       *handlers.InboundEmailHandler
	Enquiries          *handlers.EnquiriesHandler
	Health             *handlers.HealthHandler
	MetricsHandler     http.Handler
	AdminAuthSecret    string
	CORSAllowedOrigins []string
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	// Public endpoints (webhooks, health checks)
	r.Group(func(public chi.Router) {
		if cfg.Health != nil {
			public.Get("/health", cfg.Health.Check)
		}
		if cfg.InboundEmail != nil {
			// One webhook URL per tenant; the provider is configured with
			// the org id baked into the path.
			public.Post("/webhook/inbound-email/{orgID}", cfg.InboundEmail.HandleInboundEmail)
			public.Post("/webhook/inbound-email", cfg.InboundEmail.HandleInboundEmail)
		}
		if cfg.MetricsHandler != nil {
			public.Handle("/metrics", cfg.MetricsHandler)
		}
	})

	// Tenant-scoped read API
	if cfg.Enquiries != nil {
		r.Route("/api/enquiries", func(api chi.Router) {
			api.Use(requireOrgID)
			api.Get("/", cfg.Enquiries.List)
			api.Get("/{id}", cfg.Enquiries.Get)
		})
	}

	// Admin routes (protected by JWT)
	if cfg.Enquiries != nil && cfg.AdminAuthSecret != "" {
		r.Route("/admin", func(admin chi.Router) {
			admin.Use(httpmiddleware.AdminJWT(cfg.AdminAuthSecret))
			admin.Patch("/enquiries/{id}/status", cfg.Enquiries.UpdateStatus)
		})
	}

	return r
}
