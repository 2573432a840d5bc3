package invoices

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/invoicer/invoicer/internal/platform/httpx"
)

// Status is the invoice lifecycle state.
type Status string

const (
	StatusDraft     Status = "DRAFT"
	StatusSent      Status = "SENT"
	StatusPaid      Status = "PAID"
	StatusOverdue   Status = "OVERDUE"
	StatusCancelled Status = "CANCELLED"
)

// AllStatuses lists every status in lifecycle order.
var AllStatuses = []Status{StatusDraft, StatusSent, StatusPaid, StatusOverdue, StatusCancelled}

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	_, ok := transitions[s]
	return ok
}

// CanEdit reports whether items, dates and totals may still change.
func (s Status) CanEdit() bool {
	return s == StatusDraft
}

// ParseStatus reads a status literal. Unknown literals are validation errors.
func ParseStatus(raw string) (Status, error) {
	s := Status(strings.ToUpper(strings.TrimSpace(raw)))
	if !s.Valid() {
		return "", httpx.NewValidationError(map[string]string{
			"status": "must be one of DRAFT SENT PAID OVERDUE CANCELLED",
		})
	}
	return s, nil
}

// Item is one invoice line.
type Item struct {
	ID          string          `json:"id"`
	InvoiceID   string          `json:"invoiceId"`
	Description string          `json:"description"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	Total       decimal.Decimal `json:"total"`
}

// ClientSummary is the client block embedded into invoice responses.
type ClientSummary struct {
	ID      string  `json:"id"`
	Name    string  `json:"name"`
	Email   *string `json:"email,omitempty"`
	Company *string `json:"company,omitempty"`
}

// Invoice is a billing document owned by a user.
type Invoice struct {
	ID            string          `json:"id"`
	UserID        string          `json:"userId"`
	ClientID      string          `json:"clientId"`
	InvoiceNumber string          `json:"invoiceNumber"`
	Status        Status          `json:"status"`
	IssueDate     time.Time       `json:"issueDate"`
	DueDate       *time.Time      `json:"dueDate,omitempty"`
	Notes         *string         `json:"notes,omitempty"`
	Subtotal      decimal.Decimal `json:"subtotal"`
	TaxRate       decimal.Decimal `json:"taxRate"`
	TaxAmount     decimal.Decimal `json:"taxAmount"`
	Total         decimal.Decimal `json:"total"`
	Currency      string          `json:"currency"`
	TemplateID    *string         `json:"templateId,omitempty"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
	Client        *ClientSummary  `json:"client,omitempty"`
	Items         []Item          `json:"items"`
}
