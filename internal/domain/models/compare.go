package models

import "time"

// PerformanceBlock summarizes one symbol over a compared date range.
type PerformanceBlock struct {
	TotalReturn    float64 `json:"total_return"`
	AvgDailyReturn float64 `json:"avg_daily_return"`
	Volatility     float64 `json:"volatility"`
}

// Comparison is a two-symbol correlation and performance report over the
// date-aligned overlap of both series.
type Comparison struct {
	Symbols            [2]string                   `json:"symbols"`
	PeriodStart        time.Time                   `json:"period_start"`
	PeriodEnd          time.Time                   `json:"period_end"`
	Days               int                         `json:"days"`
	PriceCorrelation   float64                     `json:"price_correlation"`
	ReturnsCorrelation float64                     `json:"returns_correlation"`
	Performance        map[string]PerformanceBlock `json:"performance"`
	ChartDates         []time.Time                 `json:"chart_dates"`
	ChartSeries        map[string][]float64        `json:"chart_series"`
}

// CorrelationMatrix is an N x N symmetric matrix of pairwise correlations.
type CorrelationMatrix struct {
	Symbols []string    `json:"symbols"`
	Matrix  [][]float64 `json:"matrix"`
}

// TopMover is one entry of the daily gainers/losers board.
type TopMover struct {
	Symbol       string  `json:"symbol"`
	CurrentPrice float64 `json:"current_price"`
	DailyChange  float64 `json:"daily_change"`
}

// TopMovers is the daily gainers/losers board.
type TopMovers struct {
	Date    time.Time  `json:"date"`
	Gainers []TopMover `json:"gainers"`
	Losers  []TopMover `json:"losers"`
}
