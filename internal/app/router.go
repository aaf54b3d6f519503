package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/caseguardian/nexus/internal/authz"
	"github.com/caseguardian/nexus/internal/cases"
	"github.com/caseguardian/nexus/internal/identity"
	"github.com/caseguardian/nexus/internal/messages"
	"github.com/caseguardian/nexus/internal/notifications"
	"github.com/caseguardian/nexus/internal/observability"
	"github.com/caseguardian/nexus/internal/reports"
	"github.com/caseguardian/nexus/internal/settings"
	"github.com/caseguardian/nexus/internal/shared"
	"github.com/caseguardian/nexus/internal/users"
	"github.com/caseguardian/nexus/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger         *slog.Logger
	Config         *Config
	SessionManager *shared.SessionManager
	CSRFManager    *shared.CSRFManager
	Resolver       identity.Resolver
	Guard          authz.Middleware

	AuthHandler          *identity.Handler
	CasesHandler         *cases.Handler
	MessagesHandler      *messages.Handler
	NotificationsHandler *notifications.Handler
	ReportsHandler       *reports.Handler
	SettingsHandler      *settings.Handler
	UsersHandler         *users.Handler
	JobHandler           *jobs.Handler
	Metrics              *observability.Metrics
}

// NewRouter constructs the chi.Router with console defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:         params.Logger,
		Config:         params.Config,
		SessionManager: params.SessionManager,
		CSRFManager:    params.CSRFManager,
		Metrics:        params.Metrics,
	}) {
		r.Use(mw)
	}

	// Principal resolution happens after the session middleware so the
	// stored profile is re-read on every request.
	r.Use(params.Resolver.Middleware)
	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/auth", params.AuthHandler.MountRoutes)
	r.Route("/api", func(r chi.Router) {
		if params.CasesHandler != nil {
			params.CasesHandler.MountRoutes(r, params.Guard)
		}
		if params.MessagesHandler != nil {
			params.MessagesHandler.MountRoutes(r, params.Guard)
		}
		if params.NotificationsHandler != nil {
			params.NotificationsHandler.MountRoutes(r, params.Guard)
		}
		if params.ReportsHandler != nil {
			params.ReportsHandler.MountRoutes(r, params.Guard)
		}
		if params.SettingsHandler != nil {
			params.SettingsHandler.MountRoutes(r, params.Guard)
		}
		if params.UsersHandler != nil {
			params.UsersHandler.MountRoutes(r, params.Guard)
		}
	})
	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}
