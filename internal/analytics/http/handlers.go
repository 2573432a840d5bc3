// Package analytichttp serves the analytics dashboard over JSON.
package analytichttp

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/invoicer/invoicer/internal/analytics"
	"github.com/invoicer/invoicer/internal/platform/httpx"
	"github.com/invoicer/invoicer/internal/shared"
)

const requestTimeout = 5 * time.Second

// AnalyticsService defines the dashboard data contract used by the handler.
type AnalyticsService interface {
	Report(ctx context.Context, userID, period string) (analytics.Report, error)
	Summary(ctx context.Context, userID string) (analytics.Summary, error)
}

// Handler coordinates HTTP requests for the analytics dashboard.
type Handler struct {
	logger  *slog.Logger
	service AnalyticsService
	perMin  int
}

// NewHandler constructs the analytics HTTP handler. perMinute caps full
// report requests per user.
func NewHandler(logger *slog.Logger, service AnalyticsService, perMinute int) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	if perMinute <= 0 {
		perMinute = 30
	}
	return &Handler{logger: logger, service: service, perMin: perMinute}
}

func (h *Handler) handleReport(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	report, err := h.service.Report(ctx, shared.UserIDFromContext(r.Context()), r.URL.Query().Get("period"))
	if err != nil {
		h.handleError(w, "load analytics report", err)
		return
	}
	httpx.JSON(w, http.StatusOK, report)
}

func (h *Handler) handleSummary(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	summary, err := h.service.Summary(ctx, shared.UserIDFromContext(r.Context()))
	if err != nil {
		h.handleError(w, "load analytics summary", err)
		return
	}
	httpx.JSON(w, http.StatusOK, summary)
}

func (h *Handler) handleError(w http.ResponseWriter, op string, err error) {
	if shared.IsUnexpected(err) {
		h.logger.Error(op, slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}
