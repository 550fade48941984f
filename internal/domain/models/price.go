package models

import "time"

// RawPricePoint is one unvalidated daily OHLCV record as returned by a market
// data provider. Fields are pointers because upstream feeds regularly ship
// partial rows; the cleaning pipeline is the only consumer.
type RawPricePoint struct {
	Symbol string
	Date   time.Time
	Open   *float64
	High   *float64
	Low    *float64
	Close  *float64
	Volume *float64
}

// PricePoint is one cleaned trading day for a symbol.
// Invariants after cleaning: volume > 0, high >= low, (symbol, date) unique,
// dates strictly ascending within a series.
type PricePoint struct {
	Symbol string    `json:"symbol"`
	Date   time.Time `json:"date"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}

// Raw converts a cleaned point back to the raw representation.
// Used when re-running the cleaner over already-cleaned output.
func (p PricePoint) Raw() RawPricePoint {
	o, h, l, c, v := p.Open, p.High, p.Low, p.Close, p.Volume
	return RawPricePoint{
		Symbol: p.Symbol,
		Date:   p.Date,
		Open:   &o,
		High:   &h,
		Low:    &l,
		Close:  &c,
		Volume: &v,
	}
}

// MetricsRow extends a PricePoint with derived indicator columns.
// Every derived value at index i is a function of points at indices <= i only.
// Warm-up rows that lack enough history carry 0 in volatility, momentum and
// trend strength (deliberate simplification, kept for output compatibility).
type MetricsRow struct {
	PricePoint
	DailyReturn   float64 `json:"daily_return"`
	MA7           float64 `json:"ma_7"`
	MA20          float64 `json:"ma_20"`
	High52W       float64 `json:"high_52w"`
	Low52W        float64 `json:"low_52w"`
	Volatility    float64 `json:"volatility"`
	Momentum      float64 `json:"momentum"`
	TrendStrength float64 `json:"trend_strength"`
}

// SummaryStats condenses a metrics-annotated series into headline numbers.
type SummaryStats struct {
	CurrentPrice  float64 `json:"current_price"`
	DailyReturn   float64 `json:"daily_return"`
	High52W       float64 `json:"high_52w"`
	Low52W        float64 `json:"low_52w"`
	AvgClose      float64 `json:"avg_close"`
	AvgVolume     int64   `json:"avg_volume"`
	Volatility    float64 `json:"volatility"`
	Momentum      float64 `json:"momentum"`
	TrendStrength float64 `json:"trend_strength"`
}

// QualityReport describes a cleaned series for diagnostics.
type QualityReport struct {
	Status    string     `json:"status"`
	Records   int        `json:"records"`
	DateStart *time.Time `json:"date_start,omitempty"`
	DateEnd   *time.Time `json:"date_end,omitempty"`
	PriceMin  float64    `json:"price_min,omitempty"`
	PriceMax  float64    `json:"price_max,omitempty"`
}
