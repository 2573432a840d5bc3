package analytics

import (
	"github.com/shopspring/decimal"

	"github.com/invoicer/invoicer/internal/invoices"
	"github.com/invoicer/invoicer/internal/shared"
)

// RevenueOverTime sums PAID totals per bucket across the window. Every
// bucket is present, zero when nothing was paid.
func RevenueOverTime(list []Invoice, w Window) []RevenuePoint {
	keys := w.Keys()
	sums := make(map[string]decimal.Decimal, len(keys))
	for _, k := range keys {
		sums[k] = decimal.Zero
	}
	for _, inv := range list {
		if inv.Status != invoices.StatusPaid || !w.Contains(inv.IssueDate) {
			continue
		}
		k := w.key(inv.IssueDate)
		if cur, ok := sums[k]; ok {
			sums[k] = cur.Add(inv.Total)
		}
	}
	out := make([]RevenuePoint, len(keys))
	for i, k := range keys {
		out[i] = RevenuePoint{Date: k, Revenue: shared.MoneyFloat(sums[k])}
	}
	return out
}

// StatusDistribution counts and sums in-window invoices for every status.
func StatusDistribution(list []Invoice, w Window) []StatusSlice {
	counts := make(map[invoices.Status]int, len(invoices.AllStatuses))
	sums := make(map[invoices.Status]decimal.Decimal, len(invoices.AllStatuses))
	total := 0
	for _, inv := range list {
		if !w.Contains(inv.IssueDate) {
			continue
		}
		counts[inv.Status]++
		sums[inv.Status] = sums[inv.Status].Add(inv.Total)
		total++
	}
	out := make([]StatusSlice, 0, len(invoices.AllStatuses))
	for _, st := range invoices.AllStatuses {
		out = append(out, StatusSlice{
			Status:     st,
			Count:      counts[st],
			Revenue:    shared.MoneyFloat(sums[st]),
			Percentage: shared.Percent(decimal.NewFromInt(int64(counts[st])), decimal.NewFromInt(int64(total))),
		})
	}
	return out
}
