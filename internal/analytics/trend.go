package analytics

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/invoicer/invoicer/internal/invoices"
	"github.com/invoicer/invoicer/internal/shared"
)

type monthAcc struct {
	revenue decimal.Decimal
	count   int
	clients map[string]struct{}
}

// MonthlyTrends covers the trailing 12 calendar months regardless of the
// requested period. Revenue counts PAID invoices only; counts include all.
func MonthlyTrends(list []Invoice, now time.Time) []MonthlyTrend {
	months := trailingMonths(now, 12)
	acc := make(map[string]*monthAcc, len(months))
	for _, m := range months {
		acc[m] = &monthAcc{clients: map[string]struct{}{}}
	}
	for _, inv := range list {
		a, ok := acc[inv.IssueDate.UTC().Format(monthLayout)]
		if !ok {
			continue
		}
		a.count++
		a.clients[inv.ClientID] = struct{}{}
		if inv.Status == invoices.StatusPaid {
			a.revenue = a.revenue.Add(inv.Total)
		}
	}
	out := make([]MonthlyTrend, len(months))
	for i, m := range months {
		a := acc[m]
		avg := decimal.Zero
		if a.count > 0 {
			avg = a.revenue.Div(decimal.NewFromInt(int64(a.count)))
		}
		out[i] = MonthlyTrend{
			Month:               m,
			Revenue:             shared.MoneyFloat(a.revenue),
			InvoiceCount:        a.count,
			ClientCount:         len(a.clients),
			AverageInvoiceValue: shared.MoneyFloat(avg),
		}
	}
	return out
}
