package templates

import (
	"fmt"
	"time"

	"github.com/invoicer/invoicer/internal/platform/httpx"
	"github.com/invoicer/invoicer/report"
)

// Categories accepted for templates.
const (
	CategoryModern       = "modern"
	CategoryProfessional = "professional"
	CategoryMinimalist   = "minimalist"
	CategoryCreative     = "creative"
	CategoryCustom       = "custom"
)

// SampleItem is a preview line.
type SampleItem struct {
	Description string  `json:"description" yaml:"description"`
	Quantity    int     `json:"quantity" yaml:"quantity"`
	UnitPrice   float64 `json:"unitPrice" yaml:"unitPrice"`
}

// SampleData fills template previews.
type SampleData struct {
	Notes   string       `json:"notes,omitempty" yaml:"notes"`
	TaxRate float64      `json:"taxRate" yaml:"taxRate"`
	Items   []SampleItem `json:"items" yaml:"items"`
}

// Template is a visual descriptor for invoice PDFs. System templates have
// no owner and are shared by every user.
type Template struct {
	ID          string        `json:"id"`
	UserID      *string       `json:"userId,omitempty"`
	Name        string        `json:"name"`
	Category    string        `json:"category"`
	Description *string       `json:"description,omitempty"`
	PreviewURL  *string       `json:"previewUrl,omitempty"`
	IsDefault   bool          `json:"isDefault"`
	IsSystem    bool          `json:"isSystem"`
	Styles      report.Styles `json:"styles"`
	SampleData  *SampleData   `json:"sampleData,omitempty"`
	CreatedAt   time.Time     `json:"createdAt"`
	UpdatedAt   time.Time     `json:"updatedAt"`
}

// TemplateInput is the body of custom template create and update requests.
type TemplateInput struct {
	Name        string        `json:"name" validate:"required,max=100"`
	Description *string       `json:"description,omitempty" validate:"omitempty,max=500"`
	Category    string        `json:"category" validate:"omitempty,oneof=modern professional minimalist creative custom"`
	PreviewURL  *string       `json:"previewUrl,omitempty" validate:"omitempty,max=2048"`
	Styles      report.Styles `json:"styles"`
	SampleData  *SampleData   `json:"sampleData,omitempty"`
}

var (
	ErrTemplateNotFound = fmt.Errorf("%w: invoice template", httpx.ErrNotFound)
	// ErrSystemTemplate blocks user changes to shared templates.
	ErrSystemTemplate = fmt.Errorf("%w: system templates cannot be modified", httpx.ErrForbidden)
	// ErrTemplateInUse freezes templates referenced by invoices.
	ErrTemplateInUse = fmt.Errorf("%w: template is used by invoices", httpx.ErrDependentRecord)
)
