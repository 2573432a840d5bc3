package report

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/invoicer/invoicer/web"
)

// Party is an issuer or a recipient block on the invoice.
type Party struct {
	Name    string
	Company *string
	Email   *string
	Phone   *string
	Address *string
	TaxID   *string
	LogoURL *string
}

// DocumentItem is one rendered line.
type DocumentItem struct {
	Description string
	Quantity    int
	UnitPrice   decimal.Decimal
	Total       decimal.Decimal
}

// InvoiceDocument is the view model handed to an invoice layout.
type InvoiceDocument struct {
	Number    string
	Status    string
	Currency  string
	IssueDate time.Time
	DueDate   *time.Time
	Notes     *string
	Issuer    Party
	Client    Party
	Items     []DocumentItem
	Subtotal  decimal.Decimal
	TaxRate   decimal.Decimal
	TaxAmount decimal.Decimal
	Total     decimal.Decimal
	Styles    Styles
}

// HTMLConverter turns an HTML document into PDF bytes.
type HTMLConverter interface {
	RenderHTML(ctx context.Context, html string) ([]byte, error)
}

// InvoiceRenderer renders invoice documents with the embedded layouts.
type InvoiceRenderer struct {
	converter HTMLConverter
	layouts   map[Layout]*template.Template
	printer   *message.Printer
}

var layoutFiles = map[Layout]string{
	LayoutDefault:      "templates/pdf/default.html",
	LayoutModern:       "templates/pdf/modern.html",
	LayoutProfessional: "templates/pdf/professional.html",
}

// NewInvoiceRenderer parses every layout up front.
func NewInvoiceRenderer(converter HTMLConverter) (*InvoiceRenderer, error) {
	r := &InvoiceRenderer{
		converter: converter,
		layouts:   make(map[Layout]*template.Template, len(layoutFiles)),
		printer:   message.NewPrinter(language.English),
	}
	funcs := template.FuncMap{
		"money":  r.money,
		"date":   formatDate,
		"datep":  formatDatePtr,
		"deref":  deref,
		"font":   func(name string) template.CSS { return template.CSS(cssFont(name)) },
		"weight": cssWeight,
		"color":  cssColor,
		"pct":    func(d decimal.Decimal) string { return d.StringFixed(2) },
		"lines":  splitLines,
	}
	for layout, file := range layoutFiles {
		tmpl, err := template.New("").Funcs(funcs).ParseFS(web.Templates, "templates/pdf/base.html", file)
		if err != nil {
			return nil, fmt.Errorf("report: parse %s: %w", file, err)
		}
		r.layouts[layout] = tmpl
	}
	return r, nil
}

type layoutData struct {
	InvoiceDocument
	Layout Layout
}

// HTML executes the layout and returns the document markup.
func (r *InvoiceRenderer) HTML(layout Layout, doc InvoiceDocument) (string, error) {
	if r == nil {
		return "", errors.New("report: renderer not initialized")
	}
	tmpl, ok := r.layouts[layout]
	if !ok {
		return "", fmt.Errorf("report: unknown layout %q", layout)
	}
	doc.Styles = mergeStyles(layout, doc.Styles)
	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "invoice", layoutData{InvoiceDocument: doc, Layout: layout}); err != nil {
		return "", fmt.Errorf("report: execute %s: %w", layout, err)
	}
	return buf.String(), nil
}

// Render produces the PDF for doc in the chosen layout.
func (r *InvoiceRenderer) Render(ctx context.Context, layout Layout, doc InvoiceDocument) ([]byte, error) {
	html, err := r.HTML(layout, doc)
	if err != nil {
		return nil, err
	}
	if r.converter == nil {
		return nil, fmt.Errorf("%w: converter not configured", ErrRender)
	}
	return r.converter.RenderHTML(ctx, html)
}

// money formats an amount with the ISO code of the invoice currency and
// locale digit grouping, e.g. "USD 1,234.50".
func (r *InvoiceRenderer) money(code string, d decimal.Decimal) string {
	unit, err := currency.ParseISO(strings.ToUpper(code))
	label := unit.String()
	if err != nil {
		label = strings.ToUpper(code)
	}
	return r.printer.Sprintf("%s %.2f", label, d.Round(2).InexactFloat64())
}

var hexColor = regexp.MustCompile(`^#[0-9a-fA-F]{3,8}$`)

// cssColor passes through hex colors only; anything else renders as inherit.
func cssColor(v string) template.CSS {
	if hexColor.MatchString(v) {
		return template.CSS(v)
	}
	return template.CSS("inherit")
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("Jan 2, 2006")
}

func formatDatePtr(t *time.Time) string {
	if t == nil {
		return ""
	}
	return formatDate(*t)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func splitLines(s *string) []string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil
	}
	return strings.Split(strings.TrimSpace(*s), "\n")
}
