package analytics

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/invoicer/invoicer/internal/invoices"
	"github.com/invoicer/invoicer/internal/shared"
)

// TopClientLimit caps the ranking.
const TopClientLimit = 10

type clientRank struct {
	client  Client
	paid    int
	revenue decimal.Decimal
	billed  decimal.Decimal
}

// TopClients ranks clients with paid revenue, highest first. Equal revenue
// orders by client id.
func TopClients(clients []Client) []TopClient {
	ranks := make([]clientRank, 0, len(clients))
	for _, c := range clients {
		r := clientRank{client: c}
		for _, inv := range c.Invoices {
			r.billed = r.billed.Add(inv.Total)
			if inv.Status == invoices.StatusPaid {
				r.paid++
				r.revenue = r.revenue.Add(inv.Total)
			}
		}
		if r.revenue.IsPositive() {
			ranks = append(ranks, r)
		}
	}
	sort.Slice(ranks, func(i, j int) bool {
		if c := ranks[i].revenue.Cmp(ranks[j].revenue); c != 0 {
			return c > 0
		}
		return ranks[i].client.ID < ranks[j].client.ID
	})
	if len(ranks) > TopClientLimit {
		ranks = ranks[:TopClientLimit]
	}

	out := make([]TopClient, len(ranks))
	for i, r := range ranks {
		// Ranked clients have at least one paid invoice, so the count is positive.
		avg := r.billed.Div(decimal.NewFromInt(int64(len(r.client.Invoices))))
		out[i] = TopClient{
			ID:                  r.client.ID,
			Name:                r.client.Name,
			Company:             r.client.Company,
			InvoiceCount:        len(r.client.Invoices),
			PaidInvoiceCount:    r.paid,
			TotalRevenue:        shared.MoneyFloat(r.revenue),
			AverageInvoiceValue: shared.MoneyFloat(avg),
		}
	}
	return out
}

// ClientGrowth counts new clients over the trailing 12 months with a running
// total that starts at zero.
func ClientGrowth(clients []Client, now time.Time) []ClientGrowthPoint {
	months := trailingMonths(now, 12)
	created := make(map[string]int, len(months))
	for _, c := range clients {
		created[c.CreatedAt.UTC().Format(monthLayout)]++
	}
	out := make([]ClientGrowthPoint, len(months))
	running := 0
	for i, m := range months {
		running += created[m]
		out[i] = ClientGrowthPoint{Month: m, NewClients: created[m], TotalClients: running}
	}
	return out
}
