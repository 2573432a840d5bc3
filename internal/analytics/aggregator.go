package analytics

import "time"

// Build assembles the full report for a period anchored at now.
func Build(list []Invoice, clients []Client, period Period, now time.Time) Report {
	w := Resolve(period, now)
	series := RevenueOverTime(list, w)
	return Report{
		Period:             w.Period,
		DateRange:          DateRange{Start: w.Start, End: w.End},
		KeyMetrics:         Metrics(list, len(clients), w),
		RevenueOverTime:    series,
		StatusDistribution: StatusDistribution(list, w),
		TopClients:         TopClients(clients),
		MonthlyTrends:      MonthlyTrends(list, w.End),
		ClientGrowth:       ClientGrowth(clients, w.End),
		InvoiceAging:       Aging(list, w.End),
		RevenueForecast:    Forecast(series, w),
	}
}
