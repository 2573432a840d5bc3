package shared

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// RoundMoney rounds an amount to cents, half away from zero.
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// MoneyFloat rounds to cents and returns a float for JSON responses.
func MoneyFloat(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}

// Percent computes part/whole*100 rounded to one place. A zero whole yields 0.
func Percent(part, whole decimal.Decimal) float64 {
	if whole.IsZero() {
		return 0
	}
	return part.Div(whole).Mul(hundred).Round(1).InexactFloat64()
}

// Hundred is the decimal constant 100.
func Hundred() decimal.Decimal {
	return hundred
}
