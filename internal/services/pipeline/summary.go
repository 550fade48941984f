package pipeline

import (
	"StockSight/internal/domain/models"
)

// Summarize reduces a metrics-annotated series to headline statistics.
// Point-in-time fields come from the last row; the 52-week extrema span the
// whole series so they match what a chart of the computed columns shows.
func Summarize(rows []models.MetricsRow) models.SummaryStats {
	if len(rows) == 0 {
		return models.SummaryStats{}
	}

	last := rows[len(rows)-1]
	s := models.SummaryStats{
		CurrentPrice:  last.Close,
		DailyReturn:   last.DailyReturn,
		High52W:       last.High52W,
		Low52W:        last.Low52W,
		Volatility:    last.Volatility,
		Momentum:      last.Momentum,
		TrendStrength: last.TrendStrength,
	}

	var closeSum, volSum float64
	for _, r := range rows {
		if r.High52W > s.High52W {
			s.High52W = r.High52W
		}
		if r.Low52W < s.Low52W {
			s.Low52W = r.Low52W
		}
		closeSum += r.Close
		volSum += r.Volume
	}
	s.AvgClose = Round2(closeSum / float64(len(rows)))
	// truncation, not rounding
	s.AvgVolume = int64(volSum / float64(len(rows)))
	return s
}
