package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	analytichttp "github.com/invoicer/invoicer/internal/analytics/http"
	"github.com/invoicer/invoicer/internal/auth"
	"github.com/invoicer/invoicer/internal/clients"
	"github.com/invoicer/invoicer/internal/invoices"
	"github.com/invoicer/invoicer/internal/observability"
	"github.com/invoicer/invoicer/internal/platform/httpx"
	"github.com/invoicer/invoicer/internal/shared"
	"github.com/invoicer/invoicer/internal/templates"
	"github.com/invoicer/invoicer/internal/users"
	"github.com/invoicer/invoicer/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger         *slog.Logger
	Config         *Config
	SessionManager *shared.SessionManager
	CSRFManager    *shared.CSRFManager
	Metrics        *observability.Metrics

	AuthHandler      *auth.Handler
	UsersHandler     *users.Handler
	ClientsHandler   *clients.Handler
	InvoicesHandler  *invoices.Handler
	TemplatesHandler *templates.Handler
	AnalyticsHandler *analytichttp.Handler
	JobHandler       *jobs.Handler
}

// NewRouter constructs the chi.Router with invoicer defaults.
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

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}
	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}

	r.Route("/api", func(r chi.Router) {
		if params.AuthHandler != nil {
			params.AuthHandler.MountRoutes(r)
		}
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireUser)
			if params.UsersHandler != nil {
				params.UsersHandler.MountRoutes(r)
			}
			if params.ClientsHandler != nil {
				params.ClientsHandler.MountRoutes(r)
			}
			if params.InvoicesHandler != nil {
				params.InvoicesHandler.MountRoutes(r)
			}
			if params.TemplatesHandler != nil {
				params.TemplatesHandler.MountRoutes(r)
			}
			if params.AnalyticsHandler != nil {
				params.AnalyticsHandler.MountRoutes(r)
			}
		})
		r.NotFound(func(w http.ResponseWriter, r *http.Request) {
			httpx.Problem(w, http.StatusNotFound, "Not Found", "no route for "+r.URL.Path)
		})
	})

	return r
}
