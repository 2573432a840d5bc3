// Package users owns the account profile: business details, invoice
// numbering prefix, default currency and logo.
package users

import (
	"fmt"
	"time"

	"github.com/invoicer/invoicer/internal/platform/httpx"
)

// DefaultCurrency is assigned to new accounts.
const DefaultCurrency = "USD"

// MaxLogoBytes caps logo uploads.
const MaxLogoBytes = 2 << 20

var (
	// ErrUserNotFound is returned for unknown and inactive accounts.
	ErrUserNotFound = fmt.Errorf("%w: user not found", httpx.ErrNotFound)
	// ErrEmailTaken is returned when another account already uses the email.
	ErrEmailTaken = fmt.Errorf("%w: email already registered", httpx.ErrDuplicate)
	// ErrNoLogo is returned when removing a logo that was never set.
	ErrNoLogo = fmt.Errorf("%w: no logo to delete", httpx.ErrNotFound)
	// ErrStorageUnavailable is returned when no logo bucket is configured.
	ErrStorageUnavailable = fmt.Errorf("%w: logo storage unavailable", httpx.ErrUpstream)
)

// User is an account and the issuer printed on its invoices.
type User struct {
	ID              string    `json:"id"`
	Email           string    `json:"email"`
	PasswordHash    string    `json:"-"`
	Name            string    `json:"name"`
	BusinessName    *string   `json:"businessName"`
	Phone           *string   `json:"phone"`
	Address         *string   `json:"address"`
	TaxID           *string   `json:"taxId"`
	InvoicePrefix   string    `json:"invoicePrefix"`
	NextInvoiceNum  int       `json:"nextInvoiceNum"`
	DefaultCurrency string    `json:"defaultCurrency"`
	LogoURL         *string   `json:"logoUrl"`
	IsActive        bool      `json:"-"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// SettingsInput is the editable part of the profile.
type SettingsInput struct {
	Name            string  `json:"name" validate:"required,min=2,max=200"`
	BusinessName    *string `json:"businessName" validate:"omitempty,max=200"`
	Email           string  `json:"email" validate:"required,email"`
	Phone           *string `json:"phone" validate:"omitempty,max=50"`
	Address         *string `json:"address" validate:"omitempty,max=1000"`
	TaxID           *string `json:"taxId" validate:"omitempty,max=100"`
	InvoicePrefix   string  `json:"invoicePrefix" validate:"max=3"`
	DefaultCurrency string  `json:"defaultCurrency"`
}
