package features

import (
	"fmt"
	"math"

	"StockSight/internal/domain/models"
)

// Engineer derives the full feature frame from a metrics-annotated series.
// Every feature at row i depends on rows <= i only. Warm-up NaNs are
// backfilled from the first computable row, then any column that never
// produced a value is zeroed.
func Engineer(rows []models.MetricsRow) *Frame {
	n := len(rows)
	f := NewFrame(n)
	if n == 0 {
		return f
	}

	open := make([]float64, n)
	high := make([]float64, n)
	low := make([]float64, n)
	cls := make([]float64, n)
	volume := make([]float64, n)
	dailyReturn := make([]float64, n)
	ma7 := make([]float64, n)
	ma20 := make([]float64, n)
	high52w := make([]float64, n)
	low52w := make([]float64, n)
	volatility := make([]float64, n)
	momentum := make([]float64, n)
	trendStrength := make([]float64, n)
	for i, r := range rows {
		open[i] = r.Open
		high[i] = r.High
		low[i] = r.Low
		cls[i] = r.Close
		volume[i] = r.Volume
		dailyReturn[i] = r.DailyReturn
		ma7[i] = r.MA7
		ma20[i] = r.MA20
		high52w[i] = r.High52W
		low52w[i] = r.Low52W
		volatility[i] = r.Volatility
		momentum[i] = r.Momentum
		trendStrength[i] = r.TrendStrength
	}
	f.Set("open", open)
	f.Set("high", high)
	f.Set("low", low)
	f.Set("close", cls)
	f.Set("volume", volume)
	f.Set("daily_return", dailyReturn)
	f.Set("ma_7", ma7)
	f.Set("ma_20", ma20)
	f.Set("high_52w", high52w)
	f.Set("low_52w", low52w)
	f.Set("volatility", volatility)
	f.Set("momentum", momentum)
	f.Set("trend_strength", trendStrength)

	addPriceFeatures(f)
	addVolumeFeatures(f)
	addCalendarFeatures(f, rows)

	addLagFeatures(f, "close", []int{1, 2, 3, 5, 7, 14})
	addLagFeatures(f, "daily_return", []int{1, 2, 3, 5})

	addRollingFeatures(f, "close", []int{5, 10, 20})
	addRollingFeatures(f, "volume", []int{5, 10})

	f.Backfill()
	f.FillZero()
	return f
}

// addPriceFeatures derives intraday range, overnight gap and where the close
// sits within the day's range. A zero-width range scores 0.5.
func addPriceFeatures(f *Frame) {
	n := f.Len()
	high, low := f.Col("high"), f.Col("low")
	open, cls := f.Col("open"), f.Col("close")

	priceRange := make([]float64, n)
	priceRangePct := make([]float64, n)
	gap := make([]float64, n)
	gapPct := make([]float64, n)
	closePosition := make([]float64, n)
	for i := 0; i < n; i++ {
		priceRange[i] = high[i] - low[i]
		priceRangePct[i] = (high[i] - low[i]) / cls[i] * 100

		if i == 0 {
			gap[i] = math.NaN()
			gapPct[i] = math.NaN()
		} else {
			gap[i] = open[i] - cls[i-1]
			gapPct[i] = gap[i] / cls[i-1] * 100
		}

		if high[i] == low[i] {
			closePosition[i] = 0.5
		} else {
			closePosition[i] = (cls[i] - low[i]) / (high[i] - low[i])
		}
	}
	f.Set("price_range", priceRange)
	f.Set("price_range_pct", priceRangePct)
	f.Set("gap", gap)
	f.Set("gap_pct", gapPct)
	f.Set("close_position", closePosition)
}

// addVolumeFeatures derives the day-over-day volume change and the ratio of
// volume to its 5-day average. The ratio defaults to 1 while the average
// is still warming up.
func addVolumeFeatures(f *Frame) {
	n := f.Len()
	volume := f.Col("volume")

	change := make([]float64, n)
	for i := 0; i < n; i++ {
		if i == 0 || volume[i-1] == 0 {
			change[i] = math.NaN()
			continue
		}
		change[i] = (volume[i] - volume[i-1]) / volume[i-1]
	}
	f.Set("volume_change", change)

	ma5 := rollingMean(volume, 5)
	f.Set("volume_ma_5", ma5)

	ratio := make([]float64, n)
	for i := 0; i < n; i++ {
		if math.IsNaN(ma5[i]) || ma5[i] == 0 {
			ratio[i] = 1
			continue
		}
		ratio[i] = volume[i] / ma5[i]
	}
	f.Set("volume_ratio", ratio)
}

// addCalendarFeatures derives day-of-week (Monday = 0), day-of-month, month
// and ISO week from the row dates.
func addCalendarFeatures(f *Frame, rows []models.MetricsRow) {
	n := f.Len()
	dayOfWeek := make([]float64, n)
	dayOfMonth := make([]float64, n)
	month := make([]float64, n)
	weekOfYear := make([]float64, n)
	for i, r := range rows {
		dayOfWeek[i] = float64((int(r.Date.Weekday()) + 6) % 7)
		dayOfMonth[i] = float64(r.Date.Day())
		month[i] = float64(int(r.Date.Month()))
		_, wk := r.Date.ISOWeek()
		weekOfYear[i] = float64(wk)
	}
	f.Set("day_of_week", dayOfWeek)
	f.Set("day_of_month", dayOfMonth)
	f.Set("month", month)
	f.Set("week_of_year", weekOfYear)
}

func addLagFeatures(f *Frame, column string, lags []int) {
	src := f.Col(column)
	n := f.Len()
	for _, lag := range lags {
		col := make([]float64, n)
		for i := 0; i < n; i++ {
			if i < lag {
				col[i] = math.NaN()
			} else {
				col[i] = src[i-lag]
			}
		}
		f.Set(fmt.Sprintf("%s_lag_%d", column, lag), col)
	}
}

func addRollingFeatures(f *Frame, column string, windows []int) {
	src := f.Col(column)
	for _, w := range windows {
		f.Set(fmt.Sprintf("%s_roll_mean_%d", column, w), rollingMean(src, w))
		f.Set(fmt.Sprintf("%s_roll_std_%d", column, w), rollingStd(src, w))
		f.Set(fmt.Sprintf("%s_roll_min_%d", column, w), rollingMin(src, w))
		f.Set(fmt.Sprintf("%s_roll_max_%d", column, w), rollingMax(src, w))
	}
}

// Rolling helpers require a full window: the first w-1 rows are NaN.

func rollingMean(src []float64, w int) []float64 {
	out := nanSlice(len(src))
	for i := w - 1; i < len(src); i++ {
		sum := 0.0
		for j := i - w + 1; j <= i; j++ {
			sum += src[j]
		}
		out[i] = sum / float64(w)
	}
	return out
}

// rollingStd is the sample standard deviation over the window.
func rollingStd(src []float64, w int) []float64 {
	out := nanSlice(len(src))
	if w < 2 {
		return out
	}
	for i := w - 1; i < len(src); i++ {
		sum := 0.0
		for j := i - w + 1; j <= i; j++ {
			sum += src[j]
		}
		mean := sum / float64(w)
		ss := 0.0
		for j := i - w + 1; j <= i; j++ {
			d := src[j] - mean
			ss += d * d
		}
		out[i] = math.Sqrt(ss / float64(w-1))
	}
	return out
}

func rollingMin(src []float64, w int) []float64 {
	out := nanSlice(len(src))
	for i := w - 1; i < len(src); i++ {
		m := src[i]
		for j := i - w + 1; j < i; j++ {
			m = math.Min(m, src[j])
		}
		out[i] = m
	}
	return out
}

func rollingMax(src []float64, w int) []float64 {
	out := nanSlice(len(src))
	for i := w - 1; i < len(src); i++ {
		m := src[i]
		for j := i - w + 1; j < i; j++ {
			m = math.Max(m, src[j])
		}
		out[i] = m
	}
	return out
}

func nanSlice(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}
