package templates

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/invoicer/invoicer/internal/platform/httpx"
	"github.com/invoicer/invoicer/internal/shared"
)

// SeedResult reports what a catalogue seed inserted.
type SeedResult struct {
	Message string `json:"message"`
	Count   int    `json:"count"`
}

// Service implements template management.
type Service struct {
	repo     Repository
	logger   *slog.Logger
	validate *validator.Validate
	now      func() time.Time
}

// NewService constructs the template service.
func NewService(repo Repository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, logger: logger, validate: shared.NewValidator(), now: time.Now}
}

// List returns system templates and the user's own, default first then by name.
func (s *Service) List(ctx context.Context, userID string) ([]Template, error) {
	return s.repo.List(ctx, userID)
}

func (s *Service) Get(ctx context.Context, userID, id string) (*Template, error) {
	return s.repo.Get(ctx, userID, id)
}

// Create stores a custom template owned by userID.
func (s *Service) Create(ctx context.Context, userID string, in TemplateInput) (*Template, error) {
	if err := s.check(in); err != nil {
		return nil, err
	}
	now := s.now().UTC()
	owner := userID
	t := Template{
		ID:          uuid.NewString(),
		UserID:      &owner,
		Name:        strings.TrimSpace(in.Name),
		Category:    in.Category,
		Description: in.Description,
		PreviewURL:  in.PreviewURL,
		Styles:      in.Styles,
		SampleData:  in.SampleData,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if t.Category == "" {
		t.Category = CategoryCustom
	}
	if err := s.repo.Insert(ctx, t); err != nil {
		return nil, err
	}
	return &t, nil
}

// Update changes a custom template that no invoice references yet.
func (s *Service) Update(ctx context.Context, userID, id string, in TemplateInput) (*Template, error) {
	if err := s.check(in); err != nil {
		return nil, err
	}
	var out *Template
	err := s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		existing, err := s.mutable(ctx, repo, userID, id)
		if err != nil {
			return err
		}
		t := *existing
		t.Name = strings.TrimSpace(in.Name)
		if in.Category != "" {
			t.Category = in.Category
		}
		t.Description, t.PreviewURL, t.Styles, t.SampleData = in.Description, in.PreviewURL, in.Styles, in.SampleData
		t.UpdatedAt = s.now().UTC()
		if err := repo.Update(ctx, t); err != nil {
			return err
		}
		out = &t
		return nil
	})
	return out, err
}

// Delete removes a custom template that no invoice references.
func (s *Service) Delete(ctx context.Context, userID, id string) error {
	return s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		if _, err := s.mutable(ctx, repo, userID, id); err != nil {
			return err
		}
		return repo.Delete(ctx, id)
	})
}

// mutable loads a template and enforces the ownership and usage rules.
func (s *Service) mutable(ctx context.Context, repo Repository, userID, id string) (*Template, error) {
	t, err := repo.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if t.IsSystem {
		return nil, ErrSystemTemplate
	}
	used, err := repo.LockReferenced(ctx, id)
	if err != nil {
		return nil, err
	}
	if used {
		return nil, ErrTemplateInUse
	}
	return t, nil
}

// Seed installs the embedded system catalogue. Existing names are skipped,
// so repeated calls are harmless.
func (s *Service) Seed(ctx context.Context) (SeedResult, error) {
	entries, err := LoadCatalog()
	if err != nil {
		return SeedResult{}, err
	}
	now := s.now().UTC()
	inserted := 0
	for _, e := range entries {
		t := Template{
			ID:         uuid.NewString(),
			Name:       e.Name,
			Category:   e.Category,
			IsDefault:  e.IsDefault,
			IsSystem:   true,
			Styles:     e.Styles,
			SampleData: e.SampleData,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		if e.Description != "" {
			desc := e.Description
			t.Description = &desc
		}
		if e.PreviewURL != "" {
			preview := e.PreviewURL
			t.PreviewURL = &preview
		}
		ok, err := s.repo.InsertSystem(ctx, t)
		if err != nil {
			return SeedResult{}, err
		}
		if ok {
			inserted++
		}
	}
	s.logger.Info("system templates seeded", slog.Int("inserted", inserted), slog.Int("catalog", len(entries)))
	if inserted == 0 {
		return SeedResult{Message: "Templates already seeded", Count: 0}, nil
	}
	return SeedResult{Message: "Default templates seeded successfully", Count: inserted}, nil
}

func (s *Service) check(in TemplateInput) error {
	if err := shared.ValidateStruct(s.validate, in); err != nil {
		return err
	}
	if strings.TrimSpace(in.Name) == "" {
		return httpx.NewValidationError(map[string]string{"name": "is required"})
	}
	if in.Styles.IsZero() {
		return httpx.NewValidationError(map[string]string{"styles": "is required"})
	}
	return nil
}
