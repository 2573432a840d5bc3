package users

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-chi/chi/v5"

	"github.com/invoicer/invoicer/internal/platform/httpx"
	"github.com/invoicer/invoicer/internal/shared"
)

// Handler serves the account settings endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers /settings routes behind the caller's auth middleware.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/settings", func(r chi.Router) {
		r.Get("/", h.show)
		r.Put("/", h.update)
		r.Post("/logo", h.uploadLogo)
		r.Delete("/logo", h.deleteLogo)
	})
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	u, err := h.service.Get(r.Context(), shared.UserIDFromContext(r.Context()))
	if err != nil {
		h.fail(w, "get settings", err)
		return
	}
	httpx.JSON(w, http.StatusOK, u)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	var in SettingsInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.RespondError(w, err)
		return
	}
	u, err := h.service.UpdateSettings(r.Context(), shared.UserIDFromContext(r.Context()), in)
	if err != nil {
		h.fail(w, "update settings", err)
		return
	}
	httpx.JSON(w, http.StatusOK, u)
}

type logoResponse struct {
	Success bool   `json:"success"`
	URL     string `json:"url,omitempty"`
	Message string `json:"message"`
}

func (h *Handler) uploadLogo(w http.ResponseWriter, r *http.Request) {
	if h.service.store == nil {
		httpx.RespondError(w, ErrStorageUnavailable)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, MaxLogoBytes+(1<<20))
	file, header, err := r.FormFile("file")
	if err != nil {
		msg := "is required"
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			msg = "must be at most 2MB"
		}
		httpx.RespondError(w, httpx.NewValidationError(map[string]string{"file": msg}))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, MaxLogoBytes+1))
	if err != nil {
		httpx.RespondError(w, httpx.NewValidationError(map[string]string{"file": "could not be read"}))
		return
	}
	contentType := header.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = mimetype.Detect(data).String()
	}

	url, err := h.service.UploadLogo(r.Context(), shared.UserIDFromContext(r.Context()), data, contentType)
	if err != nil {
		h.fail(w, "upload logo", err)
		return
	}
	httpx.JSON(w, http.StatusOK, logoResponse{Success: true, URL: url, Message: "Logo uploaded successfully"})
}

func (h *Handler) deleteLogo(w http.ResponseWriter, r *http.Request) {
	if err := h.service.RemoveLogo(r.Context(), shared.UserIDFromContext(r.Context())); err != nil {
		h.fail(w, "delete logo", err)
		return
	}
	httpx.JSON(w, http.StatusOK, logoResponse{Success: true, Message: "Logo deleted successfully"})
}

func (h *Handler) fail(w http.ResponseWriter, op string, err error) {
	if shared.IsUnexpected(err) {
		h.logger.Error(op, slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}
