package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/invoicer/invoicer/internal/invoices"
	"github.com/invoicer/invoicer/internal/platform/httpx"
	"github.com/invoicer/invoicer/internal/shared"
	"github.com/invoicer/invoicer/internal/users"
)

// Service wraps authentication business rules.
type Service struct {
	repo     Repository
	accounts Accounts
	validate *validator.Validate
	cost     int
	now      func() time.Time
}

// NewService constructs a new Service.
func NewService(repo Repository, accounts Accounts) *Service {
	return &Service{
		repo:     repo,
		accounts: accounts,
		validate: shared.NewValidator(),
		cost:     bcrypt.DefaultCost,
		now:      time.Now,
	}
}

// Register creates an account with the default numbering settings.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*users.User, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if err := shared.ValidateStruct(s.validate, in); err != nil {
		return nil, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	u := users.User{
		ID:              uuid.NewString(),
		Email:           in.Email,
		PasswordHash:    string(hash),
		Name:            in.Name,
		InvoicePrefix:   invoices.DefaultPrefix,
		NextInvoiceNum:  1,
		DefaultCurrency: users.DefaultCurrency,
		IsActive:        true,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.accounts.Create(ctx, u); err != nil {
		return nil, err
	}
	return &u, nil
}

// Authenticate validates email/password credentials.
func (s *Service) Authenticate(ctx context.Context, in LoginInput) (*users.User, error) {
	if err := shared.ValidateStruct(s.validate, in); err != nil {
		return nil, err
	}
	user, err := s.accounts.FindByEmail(ctx, in.Email)
	if err != nil {
		if errors.Is(err, httpx.ErrNotFound) {
			return nil, shared.ErrInvalidCredentials
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, shared.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.Password)); err != nil {
		return nil, shared.ErrInvalidCredentials
	}
	return user, nil
}

// Current loads the user bound to a session.
func (s *Service) Current(ctx context.Context, userID string) (*users.User, error) {
	return s.accounts.FindByID(ctx, userID)
}

// RegisterSession persists the session metadata in postgres.
func (s *Service) RegisterSession(ctx context.Context, id, userID string, expiresAt time.Time, ip, ua string) error {
	return s.repo.CreateSession(ctx, id, userID, expiresAt, ip, ua)
}

// RemoveSession deletes a session record from postgres.
func (s *Service) RemoveSession(ctx context.Context, id string) error {
	return s.repo.DeleteSession(ctx, id)
}
