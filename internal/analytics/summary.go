package analytics

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/invoicer/invoicer/internal/invoices"
	"github.com/invoicer/invoicer/internal/shared"
)

// BuildSummary compares the current calendar month with the previous one
// by issue date and totals everything else over all invoices.
func BuildSummary(list []Invoice, clientCount int, now time.Time) Summary {
	thisMonth := truncateMonth(now)
	lastMonth := thisMonth.AddDate(0, -1, 0)

	var (
		total, outstanding, overdueTotal decimal.Decimal
		thisRevenue, lastRevenue         decimal.Decimal
		thisCount, lastCount             int
	)
	counts := make(map[invoices.Status]int, len(invoices.AllStatuses))
	for _, st := range invoices.AllStatuses {
		counts[st] = 0
	}
	for _, inv := range list {
		counts[inv.Status]++
		paid := inv.Status == invoices.StatusPaid
		if paid {
			total = total.Add(inv.Total)
		}
		switch {
		case !inv.IssueDate.Before(thisMonth):
			thisCount++
			if paid {
				thisRevenue = thisRevenue.Add(inv.Total)
			}
		case !inv.IssueDate.Before(lastMonth):
			lastCount++
			if paid {
				lastRevenue = lastRevenue.Add(inv.Total)
			}
		}
		if inv.Status == invoices.StatusSent {
			outstanding = outstanding.Add(inv.Total)
			if overdue(inv, now) {
				overdueTotal = overdueTotal.Add(inv.Total)
			}
		}
	}

	s := Summary{
		TotalRevenue:        shared.MoneyFloat(total),
		TotalInvoices:       len(list),
		TotalClients:        clientCount,
		OutstandingAmount:   shared.MoneyFloat(outstanding),
		OverdueAmount:       shared.MoneyFloat(overdueTotal),
		RevenueChange:       Growth(thisRevenue, lastRevenue),
		InvoiceChange:       Growth(decimal.NewFromInt(int64(thisCount)), decimal.NewFromInt(int64(lastCount))),
		CurrentMonthRevenue: shared.MoneyFloat(thisRevenue),
		LastMonthRevenue:    shared.MoneyFloat(lastRevenue),
		StatusCounts:        counts,
		PaidInvoices:        counts[invoices.StatusPaid],
		SentInvoices:        counts[invoices.StatusSent],
		DraftInvoices:       counts[invoices.StatusDraft],
	}
	if paid := counts[invoices.StatusPaid]; paid > 0 {
		s.AverageInvoiceValue = shared.MoneyFloat(total.Div(decimal.NewFromInt(int64(paid))))
	}
	return s
}
