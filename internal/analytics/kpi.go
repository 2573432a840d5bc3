package analytics

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/invoicer/invoicer/internal/invoices"
	"github.com/invoicer/invoicer/internal/shared"
)

// Growth is the percent change from previous to current. A zero baseline
// yields 0 when current is also zero and 100 otherwise.
func Growth(current, previous decimal.Decimal) float64 {
	if previous.IsZero() {
		if current.IsZero() {
			return 0
		}
		return 100
	}
	return shared.Percent(current.Sub(previous), previous)
}

func overdue(inv Invoice, now time.Time) bool {
	return inv.Status == invoices.StatusSent && inv.DueDate != nil && inv.DueDate.Before(now)
}

// Metrics computes the headline numbers. Revenue, counts and conversion use
// the window; outstanding and overdue figures cover every SENT invoice.
func Metrics(list []Invoice, clientCount int, w Window) KeyMetrics {
	var (
		km                        KeyMetrics
		revenue, previous         decimal.Decimal
		outstanding, overdueTotal decimal.Decimal
	)
	for _, inv := range list {
		paid := inv.Status == invoices.StatusPaid
		if w.Contains(inv.IssueDate) {
			km.TotalInvoices++
			if paid {
				km.PaidInvoices++
				revenue = revenue.Add(inv.Total)
			}
		} else if paid && w.ContainsPrevious(inv.IssueDate) {
			previous = previous.Add(inv.Total)
		}
		if inv.Status == invoices.StatusSent {
			km.UnpaidInvoices++
			outstanding = outstanding.Add(inv.Total)
			if overdue(inv, w.End) {
				km.OverdueInvoices++
				overdueTotal = overdueTotal.Add(inv.Total)
			}
		}
	}

	km.TotalRevenue = shared.MoneyFloat(revenue)
	km.OutstandingAmount = shared.MoneyFloat(outstanding)
	km.OverdueAmount = shared.MoneyFloat(overdueTotal)
	km.TotalClients = clientCount
	if km.PaidInvoices > 0 {
		km.AverageInvoiceValue = shared.MoneyFloat(revenue.Div(decimal.NewFromInt(int64(km.PaidInvoices))))
	}
	km.ConversionRate = shared.Percent(decimal.NewFromInt(int64(km.PaidInvoices)), decimal.NewFromInt(int64(km.TotalInvoices)))
	km.RevenueGrowth = Growth(revenue, previous)
	return km
}
