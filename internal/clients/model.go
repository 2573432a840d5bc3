package clients

import (
	"fmt"
	"time"

	"github.com/invoicer/invoicer/internal/platform/httpx"
)

// Client is a billed party owned by a user.
type Client struct {
	ID           string    `json:"id"`
	UserID       string    `json:"userId"`
	Name         string    `json:"name"`
	Email        *string   `json:"email,omitempty"`
	Phone        *string   `json:"phone,omitempty"`
	Company      *string   `json:"company,omitempty"`
	Address      *string   `json:"address,omitempty"`
	Notes        *string   `json:"notes,omitempty"`
	InvoiceCount int       `json:"invoiceCount"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// ClientInput is the body of client create and update requests.
type ClientInput struct {
	Name    string  `json:"name" validate:"required,min=2,max=200"`
	Email   *string `json:"email,omitempty" validate:"omitempty,email"`
	Phone   *string `json:"phone,omitempty" validate:"omitempty,max=50"`
	Company *string `json:"company,omitempty" validate:"omitempty,max=200"`
	Address *string `json:"address,omitempty" validate:"omitempty,max=1000"`
	Notes   *string `json:"notes,omitempty" validate:"omitempty,max=5000"`
}

var (
	// ErrClientNotFound covers missing and foreign clients alike.
	ErrClientNotFound = fmt.Errorf("%w: client", httpx.ErrNotFound)
	// ErrClientHasInvoices blocks deleting a client that is still billed.
	ErrClientHasInvoices = fmt.Errorf("%w: client has invoices", httpx.ErrDependentRecord)
)
