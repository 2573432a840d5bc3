package analytichttp

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"

	"github.com/invoicer/invoicer/internal/platform/httpx"
	"github.com/invoicer/invoicer/internal/shared"
)

// MountRoutes registers analytics endpoints onto the router.
func (h *Handler) MountRoutes(r chi.Router) {
	if h == nil {
		return
	}
	limiter := httprate.Limit(h.perMin, time.Minute,
		httprate.WithKeyFuncs(shared.RateLimitKey),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			httpx.Problem(w, http.StatusTooManyRequests, "Too Many Requests", "analytics limit reached")
		}),
	)

	r.Route("/analytics", func(r chi.Router) {
		r.With(limiter).Get("/", h.handleReport)
		r.Get("/summary", h.handleSummary)
	})
}
