package clients

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/invoicer/invoicer/internal/shared"
)

// CacheInvalidator drops cached analytics for a user.
type CacheInvalidator interface {
	Bump(ctx context.Context, userID string) error
}

// Service implements client management.
type Service struct {
	repo     Repository
	cache    CacheInvalidator
	logger   *slog.Logger
	validate *validator.Validate
	now      func() time.Time
}

// NewService constructs the client service. cache may be nil.
func NewService(repo Repository, cache CacheInvalidator, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, cache: cache, logger: logger, validate: shared.NewValidator(), now: time.Now}
}

func (s *Service) List(ctx context.Context, userID string) ([]Client, error) {
	return s.repo.List(ctx, userID)
}

func (s *Service) Get(ctx context.Context, userID, id string) (*Client, error) {
	return s.repo.Get(ctx, userID, id)
}

func (s *Service) Create(ctx context.Context, userID string, in ClientInput) (*Client, error) {
	in = clean(in)
	if err := shared.ValidateStruct(s.validate, in); err != nil {
		return nil, err
	}
	now := s.now().UTC()
	c := Client{
		ID:        uuid.NewString(),
		UserID:    userID,
		Name:      in.Name,
		Email:     in.Email,
		Phone:     in.Phone,
		Company:   in.Company,
		Address:   in.Address,
		Notes:     in.Notes,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Insert(ctx, c); err != nil {
		return nil, err
	}
	s.bump(ctx, userID)
	return &c, nil
}

func (s *Service) Update(ctx context.Context, userID, id string, in ClientInput) (*Client, error) {
	in = clean(in)
	if err := shared.ValidateStruct(s.validate, in); err != nil {
		return nil, err
	}
	existing, err := s.repo.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	c := *existing
	c.Name, c.Email, c.Phone, c.Company, c.Address, c.Notes = in.Name, in.Email, in.Phone, in.Company, in.Address, in.Notes
	c.UpdatedAt = s.now().UTC()
	if err := s.repo.Update(ctx, c); err != nil {
		return nil, err
	}
	s.bump(ctx, userID)
	return &c, nil
}

// Delete removes a client that has no invoices.
func (s *Service) Delete(ctx context.Context, userID, id string) error {
	err := s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		count, err := repo.LockInvoiceCount(ctx, userID, id)
		if err != nil {
			return err
		}
		if count > 0 {
			return ErrClientHasInvoices
		}
		return repo.Delete(ctx, userID, id)
	})
	if err != nil {
		return err
	}
	s.bump(ctx, userID)
	return nil
}

func (s *Service) bump(ctx context.Context, userID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Bump(ctx, userID); err != nil {
		s.logger.Warn("bump analytics cache", slog.String("user_id", userID), slog.Any("error", err))
	}
}

// clean trims input and turns blank optional fields into nil.
func clean(in ClientInput) ClientInput {
	in.Name = strings.TrimSpace(in.Name)
	for _, p := range []**string{&in.Email, &in.Phone, &in.Company, &in.Address, &in.Notes} {
		if *p == nil {
			continue
		}
		v := strings.TrimSpace(**p)
		if v == "" {
			*p = nil
			continue
		}
		*p = &v
	}
	return in
}
