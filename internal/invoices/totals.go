package invoices

import (
	"github.com/shopspring/decimal"

	"github.com/invoicer/invoicer/internal/shared"
)

// Line is the priced part of an item.
type Line struct {
	Quantity  int
	UnitPrice decimal.Decimal
}

// Totals holds the computed invoice amounts, each rounded to cents.
type Totals struct {
	Subtotal  decimal.Decimal
	TaxAmount decimal.Decimal
	Total     decimal.Decimal
}

// CalculateTotals sums the lines and applies taxRate (a percentage).
// Accumulation is exact; rounding happens once per amount at the end and
// Total is the sum of the rounded parts so Total == Subtotal + TaxAmount.
func CalculateTotals(lines []Line, taxRate decimal.Decimal) Totals {
	raw := decimal.Zero
	for _, l := range lines {
		raw = raw.Add(decimal.NewFromInt(int64(l.Quantity)).Mul(l.UnitPrice))
	}
	subtotal := shared.RoundMoney(raw)
	tax := shared.RoundMoney(raw.Mul(taxRate).Div(shared.Hundred()))
	return Totals{
		Subtotal:  subtotal,
		TaxAmount: tax,
		Total:     subtotal.Add(tax),
	}
}

// LineTotal is the stored amount of a single line.
func LineTotal(l Line) decimal.Decimal {
	return shared.RoundMoney(decimal.NewFromInt(int64(l.Quantity)).Mul(l.UnitPrice))
}
