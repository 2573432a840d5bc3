package invoices

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"

	"github.com/invoicer/invoicer/internal/platform/httpx"
	"github.com/invoicer/invoicer/internal/shared"
)

// MountRoutes registers /invoices endpoints. The caller installs the
// authentication middleware.
func (h *Handler) MountRoutes(r chi.Router) {
	limiter := httprate.Limit(h.pdfPerMin, time.Minute,
		httprate.WithKeyFuncs(shared.RateLimitKey),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			httpx.Problem(w, http.StatusTooManyRequests, "Too Many Requests", "pdf export limit reached")
		}),
	)

	r.Route("/invoices", func(r chi.Router) {
		r.Get("/", h.list)
		r.Post("/", h.create)
		r.Get("/{id}", h.show)
		r.Put("/{id}", h.update)
		r.Delete("/{id}", h.delete)
		r.Patch("/{id}/status", h.updateStatus)
		r.With(limiter).Get("/{id}/pdf", h.pdf)
	})
}
