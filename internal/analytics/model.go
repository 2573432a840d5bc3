// Package analytics turns a user's invoices and clients into the dashboard
// report: revenue series, status mix, client rankings, aging, KPIs and a
// short forecast. Everything except the cache and repository is pure.
package analytics

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/invoicer/invoicer/internal/invoices"
)

// Invoice is the projection of an invoice the aggregator needs.
type Invoice struct {
	ID        string
	ClientID  string
	Status    invoices.Status
	Total     decimal.Decimal
	IssueDate time.Time
	DueDate   *time.Time
	CreatedAt time.Time
}

// InvoiceSummary is an invoice as seen from its client.
type InvoiceSummary struct {
	ID     string
	Status invoices.Status
	Total  decimal.Decimal
}

// Client carries its invoices for ranking.
type Client struct {
	ID        string
	Name      string
	Company   *string
	CreatedAt time.Time
	Invoices  []InvoiceSummary
}

// DateRange is the resolved reporting window.
type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// KeyMetrics are the headline numbers.
type KeyMetrics struct {
	TotalRevenue        float64 `json:"totalRevenue"`
	OutstandingAmount   float64 `json:"outstandingAmount"`
	OverdueAmount       float64 `json:"overdueAmount"`
	TotalInvoices       int     `json:"totalInvoices"`
	PaidInvoices        int     `json:"paidInvoices"`
	UnpaidInvoices      int     `json:"unpaidInvoices"`
	OverdueInvoices     int     `json:"overdueInvoices"`
	TotalClients        int     `json:"totalClients"`
	AverageInvoiceValue float64 `json:"averageInvoiceValue"`
	ConversionRate      float64 `json:"conversionRate"`
	RevenueGrowth       float64 `json:"revenueGrowth"`
}

// RevenuePoint is one bucket of the revenue series.
type RevenuePoint struct {
	Date    string  `json:"date"`
	Revenue float64 `json:"revenue"`
}

// StatusSlice is one status of the distribution.
type StatusSlice struct {
	Status     invoices.Status `json:"status"`
	Count      int             `json:"count"`
	Revenue    float64         `json:"revenue"`
	Percentage float64         `json:"percentage"`
}

// TopClient ranks a client by paid revenue.
type TopClient struct {
	ID                  string  `json:"id"`
	Name                string  `json:"name"`
	Company             *string `json:"company"`
	InvoiceCount        int     `json:"invoiceCount"`
	PaidInvoiceCount    int     `json:"paidInvoiceCount"`
	TotalRevenue        float64 `json:"totalRevenue"`
	AverageInvoiceValue float64 `json:"averageInvoiceValue"`
}

// MonthlyTrend summarises one calendar month.
type MonthlyTrend struct {
	Month               string  `json:"month"`
	Revenue             float64 `json:"revenue"`
	InvoiceCount        int     `json:"invoiceCount"`
	ClientCount         int     `json:"clientCount"`
	AverageInvoiceValue float64 `json:"averageInvoiceValue"`
}

// ClientGrowthPoint counts clients created in a month.
type ClientGrowthPoint struct {
	Month        string `json:"month"`
	NewClients   int    `json:"newClients"`
	TotalClients int    `json:"totalClients"`
}

// AgingBucket is a count and amount of unpaid invoices.
type AgingBucket struct {
	Count  int     `json:"count"`
	Amount float64 `json:"amount"`
}

// InvoiceAging groups SENT invoices by days past due.
type InvoiceAging struct {
	Current    AgingBucket `json:"current"`
	Days31to60 AgingBucket `json:"days31to60"`
	Days61to90 AgingBucket `json:"days61to90"`
	Over90     AgingBucket `json:"over90"`
}

// ForecastPoint is a projected revenue bucket.
type ForecastPoint struct {
	Date       string  `json:"date"`
	Revenue    float64 `json:"revenue"`
	IsForecast bool    `json:"isForecast"`
}

// Report is the full analytics response.
type Report struct {
	Period             Period              `json:"period"`
	DateRange          DateRange           `json:"dateRange"`
	KeyMetrics         KeyMetrics          `json:"keyMetrics"`
	RevenueOverTime    []RevenuePoint      `json:"revenueOverTime"`
	StatusDistribution []StatusSlice       `json:"statusDistribution"`
	TopClients         []TopClient         `json:"topClients"`
	MonthlyTrends      []MonthlyTrend      `json:"monthlyTrends"`
	ClientGrowth       []ClientGrowthPoint `json:"clientGrowth"`
	InvoiceAging       InvoiceAging        `json:"invoiceAging"`
	RevenueForecast    []ForecastPoint     `json:"revenueForecast"`
}

// Summary is the compact dashboard card set.
type Summary struct {
	TotalRevenue        float64                 `json:"totalRevenue"`
	TotalInvoices       int                     `json:"totalInvoices"`
	TotalClients        int                     `json:"totalClients"`
	OutstandingAmount   float64                 `json:"outstandingAmount"`
	OverdueAmount       float64                 `json:"overdueAmount"`
	RevenueChange       float64                 `json:"revenueChange"`
	InvoiceChange       float64                 `json:"invoiceChange"`
	CurrentMonthRevenue float64                 `json:"currentMonthRevenue"`
	LastMonthRevenue    float64                 `json:"lastMonthRevenue"`
	StatusCounts        map[invoices.Status]int `json:"statusCounts"`
	AverageInvoiceValue float64                 `json:"averageInvoiceValue"`
	PaidInvoices        int                     `json:"paidInvoices"`
	SentInvoices        int                     `json:"sentInvoices"`
	DraftInvoices       int                     `json:"draftInvoices"`
}
