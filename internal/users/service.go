package users

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-playground/validator/v10"

	"github.com/invoicer/invoicer/internal/invoices"
	"github.com/invoicer/invoicer/internal/platform/httpx"
	"github.com/invoicer/invoicer/internal/platform/storage"
	"github.com/invoicer/invoicer/internal/shared"
)

// Raster logos larger than this are rejected.
const (
	MaxLogoWidth  = 400
	MaxLogoHeight = 200
)

// LogoStore uploads logo objects.
type LogoStore interface {
	UploadLogo(ctx context.Context, userID string, r io.Reader, size int64, contentType string) (string, error)
	KeyFromURL(url string) (string, bool)
}

// LogoCleaner schedules removal of replaced logo objects.
type LogoCleaner interface {
	EnqueueLogoDelete(ctx context.Context, key string) error
}

// Service manages account settings.
type Service struct {
	repo     Repository
	store    LogoStore
	cleaner  LogoCleaner
	logger   *slog.Logger
	validate *validator.Validate
	now      func() time.Time
}

// NewService builds Service instance. store and cleaner may be nil when
// object storage is not configured.
func NewService(repo Repository, store LogoStore, cleaner LogoCleaner, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, store: store, cleaner: cleaner, logger: logger, validate: shared.NewValidator(), now: time.Now}
}

// Get returns the profile of userID.
func (s *Service) Get(ctx context.Context, userID string) (*User, error) {
	return s.repo.FindByID(ctx, userID)
}

// UpdateSettings validates and stores the profile.
func (s *Service) UpdateSettings(ctx context.Context, userID string, in SettingsInput) (*User, error) {
	in = cleanSettings(in)
	if err := shared.ValidateStruct(s.validate, in); err != nil {
		return nil, err
	}
	current, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	currency := current.DefaultCurrency
	if in.DefaultCurrency != "" {
		code, ok := invoices.NormalizeCurrency(in.DefaultCurrency)
		if !ok {
			return nil, httpx.NewValidationError(map[string]string{"defaultCurrency": "must be an ISO 4217 code"})
		}
		currency = code
	}

	u := *current
	u.Name = in.Name
	u.Email = in.Email
	u.BusinessName = in.BusinessName
	u.Phone = in.Phone
	u.Address = in.Address
	u.TaxID = in.TaxID
	u.InvoicePrefix = in.InvoicePrefix
	u.DefaultCurrency = currency
	u.UpdatedAt = s.now().UTC()
	if err := s.repo.UpdateProfile(ctx, u); err != nil {
		return nil, err
	}
	s.logger.Info("settings updated", slog.String("user_id", userID))
	return &u, nil
}

func cleanSettings(in SettingsInput) SettingsInput {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.InvoicePrefix = strings.ToUpper(strings.TrimSpace(in.InvoicePrefix))
	if in.InvoicePrefix == "" {
		in.InvoicePrefix = invoices.DefaultPrefix
	}
	in.DefaultCurrency = strings.TrimSpace(in.DefaultCurrency)
	in.BusinessName = blank(in.BusinessName)
	in.Phone = blank(in.Phone)
	in.Address = blank(in.Address)
	in.TaxID = blank(in.TaxID)
	return in
}

func blank(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

// UploadLogo stores a new logo and schedules removal of the previous one.
func (s *Service) UploadLogo(ctx context.Context, userID string, data []byte, contentType string) (string, error) {
	if s.store == nil {
		return "", ErrStorageUnavailable
	}
	if err := checkLogo(data, contentType); err != nil {
		return "", err
	}
	url, err := s.store.UploadLogo(ctx, userID, bytes.NewReader(data), int64(len(data)), contentType)
	if err != nil {
		s.logger.Error("upload logo", slog.String("user_id", userID), slog.Any("error", err))
		return "", fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	previous, err := s.repo.SetLogo(ctx, userID, &url)
	if err != nil {
		s.scheduleDelete(ctx, &url)
		return "", err
	}
	s.scheduleDelete(ctx, previous)
	s.logger.Info("logo uploaded", slog.String("user_id", userID))
	return url, nil
}

// RemoveLogo clears the logo URL and schedules the object for deletion.
func (s *Service) RemoveLogo(ctx context.Context, userID string) error {
	if s.store == nil {
		return ErrStorageUnavailable
	}
	previous, err := s.repo.SetLogo(ctx, userID, nil)
	if err != nil {
		return err
	}
	if previous == nil {
		return ErrNoLogo
	}
	s.scheduleDelete(ctx, previous)
	s.logger.Info("logo removed", slog.String("user_id", userID))
	return nil
}

func (s *Service) scheduleDelete(ctx context.Context, url *string) {
	if url == nil || s.cleaner == nil {
		return
	}
	key, ok := s.store.KeyFromURL(*url)
	if !ok {
		return
	}
	if err := s.cleaner.EnqueueLogoDelete(ctx, key); err != nil {
		s.logger.Warn("enqueue logo delete", slog.String("key", key), slog.Any("error", err))
	}
}

func checkLogo(data []byte, contentType string) error {
	switch {
	case len(data) == 0:
		return httpx.NewValidationError(map[string]string{"file": "is required"})
	case len(data) > MaxLogoBytes:
		return httpx.NewValidationError(map[string]string{"file": "must be at most 2MB"})
	case !storage.AllowedContentType(contentType):
		return httpx.NewValidationError(map[string]string{"file": "must be a PNG, JPEG, SVG or WebP image"})
	}
	if contentType == "image/svg+xml" {
		return checkSVG(data)
	}
	if !mimetype.Detect(data).Is(contentType) {
		return httpx.NewValidationError(map[string]string{"file": "content does not match " + contentType})
	}
	if contentType == "image/webp" {
		return nil
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return httpx.NewValidationError(map[string]string{"file": "could not be decoded as " + contentType})
	}
	if cfg.Width > MaxLogoWidth || cfg.Height > MaxLogoHeight {
		return httpx.NewValidationError(map[string]string{
			"file": fmt.Sprintf("must be %dx%d pixels or smaller, got %dx%d", MaxLogoWidth, MaxLogoHeight, cfg.Width, cfg.Height),
		})
	}
	return nil
}

// checkSVG requires an <svg> root and no embedded scripts.
func checkSVG(data []byte) error {
	lower := bytes.ToLower(data)
	switch {
	case !bytes.Contains(lower, []byte("<svg")):
		return httpx.NewValidationError(map[string]string{"file": "content does not match image/svg+xml"})
	case bytes.Contains(lower, []byte("<script")), bytes.Contains(lower, []byte("javascript:")):
		return httpx.NewValidationError(map[string]string{"file": "svg must not contain scripts"})
	}
	return nil
}
