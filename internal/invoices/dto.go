package invoices

import "github.com/shopspring/decimal"

// ItemInput is one line of a create or update request.
type ItemInput struct {
	Description string          `json:"description" validate:"required,max=500"`
	Quantity    int             `json:"quantity" validate:"min=1"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
}

// InvoiceInput is the body of POST /api/invoices and PUT /api/invoices/{id}.
// Dates accept YYYY-MM-DD or RFC3339.
type InvoiceInput struct {
	ClientID   string          `json:"clientId" validate:"required,uuid"`
	IssueDate  string          `json:"issueDate" validate:"required"`
	DueDate    *string         `json:"dueDate,omitempty"`
	Notes      *string         `json:"notes,omitempty" validate:"omitempty,max=5000"`
	TaxRate    decimal.Decimal `json:"taxRate"`
	TemplateID *string         `json:"templateId,omitempty" validate:"omitempty,uuid"`
	Currency   *string         `json:"currency,omitempty"`
	Items      []ItemInput     `json:"items" validate:"required,min=1,dive"`
}

// StatusInput is the body of PATCH /api/invoices/{id}/status.
type StatusInput struct {
	Status string `json:"status" validate:"required"`
}

// ListFilter narrows GET /api/invoices.
type ListFilter struct {
	Status   *Status
	ClientID *string
}
