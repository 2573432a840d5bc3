package invoices

import (
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"

	"github.com/invoicer/invoicer/internal/platform/httpx"
	"github.com/invoicer/invoicer/internal/shared"
)

// draft is a validated InvoiceInput.
type draft struct {
	ClientID   string
	IssueDate  time.Time
	DueDate    *time.Time
	Notes      *string
	TaxRate    decimal.Decimal
	TemplateID *string
	Currency   string
	Items      []ItemInput
}

func (d draft) lines() []Line {
	out := make([]Line, len(d.Items))
	for i, it := range d.Items {
		out[i] = Line{Quantity: it.Quantity, UnitPrice: it.UnitPrice}
	}
	return out
}

// parseDate accepts a calendar date or a full RFC3339 timestamp and
// truncates to the UTC day.
func parseDate(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if t, err := time.Parse(time.DateOnly, raw); err == nil {
		return t.UTC(), true
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		t = t.UTC()
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), true
	}
	return time.Time{}, false
}

// NormalizeCurrency upper-cases an ISO 4217 code and reports whether it is known.
func NormalizeCurrency(raw string) (string, bool) {
	code := strings.ToUpper(strings.TrimSpace(raw))
	if _, err := currency.ParseISO(code); err != nil {
		return "", false
	}
	return code, true
}

func blankToNil(s *string) *string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}

// normalize runs tag validation plus the checks tags cannot express.
func normalize(v *validator.Validate, in InvoiceInput) (draft, error) {
	if err := shared.ValidateStruct(v, in); err != nil {
		return draft{}, err
	}
	fields := map[string]string{}

	d := draft{
		ClientID:   strings.TrimSpace(in.ClientID),
		Notes:      blankToNil(in.Notes),
		TaxRate:    in.TaxRate,
		TemplateID: blankToNil(in.TemplateID),
		Items:      append([]ItemInput(nil), in.Items...),
	}

	issue, ok := parseDate(in.IssueDate)
	if !ok {
		fields["issueDate"] = "must be YYYY-MM-DD or RFC3339"
	}
	d.IssueDate = issue

	if raw := blankToNil(in.DueDate); raw != nil {
		due, ok := parseDate(*raw)
		switch {
		case !ok:
			fields["dueDate"] = "must be YYYY-MM-DD or RFC3339"
		case !issue.IsZero() && due.Before(issue):
			fields["dueDate"] = "must not be before issueDate"
		default:
			d.DueDate = &due
		}
	}

	switch {
	case in.TaxRate.IsNegative() || in.TaxRate.GreaterThan(shared.Hundred()):
		fields["taxRate"] = "must be between 0 and 100"
	case exceedsScale(in.TaxRate, taxRateScale):
		fields["taxRate"] = "must have at most 2 decimal places"
	}

	if raw := blankToNil(in.Currency); raw != nil {
		code, ok := NormalizeCurrency(*raw)
		if !ok {
			fields["currency"] = "must be an ISO 4217 code"
		}
		d.Currency = code
	}

	for i, it := range in.Items {
		if strings.TrimSpace(it.Description) == "" {
			fields[itemField(i, "description")] = "is required"
		}
		switch {
		case it.UnitPrice.IsNegative():
			fields[itemField(i, "unitPrice")] = "must be at least 0"
		case exceedsScale(it.UnitPrice, unitPriceScale):
			fields[itemField(i, "unitPrice")] = "must have at most 4 decimal places"
		}
		d.Items[i].Description = strings.TrimSpace(it.Description)
	}

	if len(fields) > 0 {
		return draft{}, httpx.NewValidationError(fields)
	}
	return d, nil
}

// Column scales of invoices.tax_rate and invoice_items.unit_price. Values
// beyond them would be rounded on insert and no longer match the totals.
const (
	taxRateScale   = 2
	unitPriceScale = 4
)

func exceedsScale(d decimal.Decimal, places int32) bool {
	return !d.Equal(d.Round(places))
}

func itemField(i int, name string) string {
	return "items[" + strconv.Itoa(i) + "]." + name
}
