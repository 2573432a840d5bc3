package analytics

import (
	"math"

	"github.com/shopspring/decimal"

	"github.com/invoicer/invoicer/internal/shared"
)

const (
	forecastMinPoints = 3
	forecastHorizon   = 3
)

// Forecast fits an ordinary least squares line over the series index and
// projects the next three buckets, never below zero. Fewer than three
// points yield no forecast.
func Forecast(series []RevenuePoint, w Window) []ForecastPoint {
	n := len(series)
	if n < forecastMinPoints {
		return []ForecastPoint{}
	}
	var sumX, sumY, sumXY, sumX2 float64
	for i, p := range series {
		x := float64(i)
		sumX += x
		sumY += p.Revenue
		sumXY += x * p.Revenue
		sumX2 += x * x
	}
	fn := float64(n)
	slope := (fn*sumXY - sumX*sumY) / (fn*sumX2 - sumX*sumX)
	intercept := (sumY - slope*sumX) / fn

	labels := w.nextKeys(series[n-1].Date, forecastHorizon)
	out := make([]ForecastPoint, 0, forecastHorizon)
	for i, label := range labels {
		y := math.Max(0, slope*float64(n+i)+intercept)
		out = append(out, ForecastPoint{
			Date:       label,
			Revenue:    shared.MoneyFloat(decimal.NewFromFloat(y)),
			IsForecast: true,
		})
	}
	return out
}
