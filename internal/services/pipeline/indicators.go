package pipeline

import (
	"math"

	"StockSight/internal/domain/models"
)

// Rolling window sizes for the derived indicator columns.
const (
	maShortWindow      = 7
	maLongWindow       = 20
	yearWindow         = 252 // trading days
	volatilityWindow   = 30
	volatilityMinObs   = 5
	momentumWindow     = 20
	maxDailyVolatility = 5.0 // percent; stdev of 5 maps to a score of 100
)

// ComputeMetrics derives the indicator columns over a cleaned, date-ascending
// series. Every rolling computation is trailing-only, so row i never depends
// on rows after i. Values are rounded to 2 decimal places and warm-up gaps in
// volatility/momentum/trend strength are zero-filled.
func ComputeMetrics(points []models.PricePoint) []models.MetricsRow {
	n := len(points)
	if n == 0 {
		return nil
	}

	rows := make([]models.MetricsRow, n)
	returns := make([]float64, n)

	for i, p := range points {
		rows[i].PricePoint = p

		// rounded before the volatility window sees it, same as the
		// stored daily_return column
		if p.Open != 0 {
			returns[i] = Round2((p.Close - p.Open) / p.Open * 100)
		}
		rows[i].DailyReturn = returns[i]

		rows[i].MA7 = Round2(trailingMean(points, i, maShortWindow))
		rows[i].MA20 = Round2(trailingMean(points, i, maLongWindow))

		hi, lo := trailingExtrema(points, i, yearWindow)
		rows[i].High52W = Round2(hi)
		rows[i].Low52W = Round2(lo)

		rows[i].Volatility = Round2(volatilityScore(returns, i))

		if i >= momentumWindow {
			prior := points[i-momentumWindow].Close
			if prior != 0 {
				rows[i].Momentum = Round2((p.Close - prior) / prior * 100)
			}
		}

		ma20 := trailingMean(points, i, maLongWindow)
		if ma20 != 0 {
			rows[i].TrendStrength = Round2((p.Close - ma20) / ma20 * 100)
		}
	}
	return rows
}

// trailingMean averages close over the window ending at i (min period 1).
func trailingMean(points []models.PricePoint, i, window int) float64 {
	start := i - window + 1
	if start < 0 {
		start = 0
	}
	sum := 0.0
	for j := start; j <= i; j++ {
		sum += points[j].Close
	}
	return sum / float64(i-start+1)
}

// trailingExtrema returns the 52-week high and low ending at i: the max of
// (open, high, close) and min of (open, low, close) per row in the window.
func trailingExtrema(points []models.PricePoint, i, window int) (hi, lo float64) {
	start := i - window + 1
	if start < 0 {
		start = 0
	}
	hi = math.Inf(-1)
	lo = math.Inf(1)
	for j := start; j <= i; j++ {
		p := points[j]
		hi = math.Max(hi, math.Max(p.Open, math.Max(p.High, p.Close)))
		lo = math.Min(lo, math.Min(p.Open, math.Min(p.Low, p.Close)))
	}
	return hi, lo
}

// volatilityScore is the trailing 30-period sample stdev of daily returns,
// rescaled so a 5% stdev scores 100, clamped to [0, 100]. Rows with fewer
// than 5 observations score 0.
func volatilityScore(returns []float64, i int) float64 {
	start := i - volatilityWindow + 1
	if start < 0 {
		start = 0
	}
	n := i - start + 1
	if n < volatilityMinObs {
		return 0
	}
	sum, sum2 := 0.0, 0.0
	for j := start; j <= i; j++ {
		sum += returns[j]
		sum2 += returns[j] * returns[j]
	}
	mean := sum / float64(n)
	variance := (sum2 - float64(n)*mean*mean) / float64(n-1)
	if variance < 0 {
		variance = 0
	}
	score := math.Sqrt(variance) / maxDailyVolatility * 100
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	return score
}

// Round2 rounds to 2 decimal places.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
