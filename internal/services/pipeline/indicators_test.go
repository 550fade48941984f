package pipeline

import (
	"math"
	"testing"

	"StockSight/internal/domain/models"
)

func constantSeries(n int, price, volume float64) []models.PricePoint {
	points := make([]models.PricePoint, n)
	for i := range points {
		points[i] = models.PricePoint{
			Symbol: "AAPL",
			Date:   day(i),
			Open:   price,
			High:   price,
			Low:    price,
			Close:  price,
			Volume: volume,
		}
	}
	return points
}

func trendingSeries(n int) []models.PricePoint {
	points := make([]models.PricePoint, n)
	for i := range points {
		c := 100 + float64(i) + 3*math.Sin(float64(i)/4)
		points[i] = models.PricePoint{
			Symbol: "AAPL",
			Date:   day(i),
			Open:   c - 0.5,
			High:   c + 1,
			Low:    c - 1,
			Close:  c,
			Volume: 1000 + float64(i%7)*100,
		}
	}
	return points
}

func TestComputeMetricsConstantSeries(t *testing.T) {
	rows := ComputeMetrics(constantSeries(60, 50, 1000))
	if len(rows) != 60 {
		t.Fatalf("expected 60 rows, got %d", len(rows))
	}
	for i, r := range rows {
		if r.DailyReturn != 0 || r.Volatility != 0 || r.Momentum != 0 || r.TrendStrength != 0 {
			t.Fatalf("row %d should be flat: %+v", i, r)
		}
		if r.MA7 != 50 || r.MA20 != 50 {
			t.Fatalf("row %d moving averages off: ma7=%v ma20=%v", i, r.MA7, r.MA20)
		}
		if r.High52W != 50 || r.Low52W != 50 {
			t.Fatalf("row %d extrema off: %v / %v", i, r.High52W, r.Low52W)
		}
	}
}

func TestComputeMetricsWarmupZeros(t *testing.T) {
	rows := ComputeMetrics(trendingSeries(40))
	for i := 0; i < volatilityMinObs-1; i++ {
		if rows[i].Volatility != 0 {
			t.Errorf("row %d volatility should be 0 during warm-up, got %v", i, rows[i].Volatility)
		}
	}
	for i := 0; i < momentumWindow; i++ {
		if rows[i].Momentum != 0 {
			t.Errorf("row %d momentum should be 0 during warm-up, got %v", i, rows[i].Momentum)
		}
	}
	if rows[momentumWindow].Momentum == 0 {
		t.Errorf("row %d momentum should be populated", momentumWindow)
	}
}

func TestComputeMetricsShortSeriesMinPeriods(t *testing.T) {
	points := trendingSeries(3)
	rows := ComputeMetrics(points)
	if rows[0].MA7 != Round2(points[0].Close) {
		t.Fatalf("first ma7 should equal first close: %v vs %v", rows[0].MA7, points[0].Close)
	}
	want := Round2((points[0].Close + points[1].Close + points[2].Close) / 3)
	if rows[2].MA20 != want {
		t.Fatalf("ma20 over 3 rows: got %v, want %v", rows[2].MA20, want)
	}
}

func TestComputeMetricsVolatilityBounded(t *testing.T) {
	points := trendingSeries(120)
	// inject violent swings
	for i := 50; i < 60; i++ {
		if i%2 == 0 {
			points[i].Open = 100
			points[i].Close = 180
		} else {
			points[i].Open = 180
			points[i].Close = 100
		}
		points[i].High = 185
		points[i].Low = 95
	}
	for i, r := range ComputeMetrics(points) {
		if r.Volatility < 0 || r.Volatility > 100 {
			t.Fatalf("row %d volatility out of bounds: %v", i, r.Volatility)
		}
	}
}

func TestComputeMetricsVolatilityUsesRoundedReturns(t *testing.T) {
	// swings of ±0.004% round to a flat daily_return column, so the
	// volatility window must see zeros
	points := constantSeries(12, 10000, 1000)
	for i := range points {
		if i%2 == 0 {
			points[i].Close = 10000.4
		} else {
			points[i].Close = 9999.6
		}
		points[i].High = 10001
		points[i].Low = 9999
	}
	for i, r := range ComputeMetrics(points) {
		if r.DailyReturn != 0 {
			t.Fatalf("row %d daily_return should round to 0, got %v", i, r.DailyReturn)
		}
		if r.Volatility != 0 {
			t.Fatalf("row %d volatility should be 0 over rounded returns, got %v", i, r.Volatility)
		}
	}
}

func TestComputeMetricsNoLookAhead(t *testing.T) {
	points := trendingSeries(80)
	full := ComputeMetrics(points)
	prefix := ComputeMetrics(points[:50])
	for i := range prefix {
		if full[i] != prefix[i] {
			t.Fatalf("row %d differs between prefix and full series: %+v vs %+v", i, prefix[i], full[i])
		}
	}
}

func TestComputeMetricsExtremaUseOHLC(t *testing.T) {
	points := constantSeries(10, 50, 1000)
	points[4].High = 75 // intraday spike never closed at
	points[6].Low = 30
	rows := ComputeMetrics(points)
	last := rows[len(rows)-1]
	if last.High52W != 75 {
		t.Fatalf("high_52w should track intraday high: got %v", last.High52W)
	}
	if last.Low52W != 30 {
		t.Fatalf("low_52w should track intraday low: got %v", last.Low52W)
	}
}

func TestComputeMetricsEmpty(t *testing.T) {
	if rows := ComputeMetrics(nil); rows != nil {
		t.Fatalf("expected nil for empty input, got %v", rows)
	}
}

func TestSummarize(t *testing.T) {
	rows := ComputeMetrics(trendingSeries(60))
	s := Summarize(rows)
	last := rows[len(rows)-1]
	if s.CurrentPrice != last.Close {
		t.Fatalf("current price: got %v, want %v", s.CurrentPrice, last.Close)
	}
	if s.DailyReturn != last.DailyReturn || s.Momentum != last.Momentum {
		t.Fatalf("point-in-time fields should come from the last row: %+v", s)
	}
	if s.High52W < last.High52W || s.Low52W > last.Low52W {
		t.Fatalf("series extrema narrower than last row: %+v", s)
	}

	var closeSum, volSum float64
	for _, r := range rows {
		closeSum += r.Close
		volSum += r.Volume
	}
	if s.AvgClose != Round2(closeSum/float64(len(rows))) {
		t.Fatalf("avg close: got %v", s.AvgClose)
	}
	if s.AvgVolume != int64(volSum/float64(len(rows))) {
		t.Fatalf("avg volume: got %v", s.AvgVolume)
	}
}

func TestSummarizeAvgVolumeTruncates(t *testing.T) {
	points := constantSeries(4, 50, 1000)
	for i, v := range []float64{1000, 2000, 2000, 2000} {
		points[i].Volume = v // mean 1750
	}
	s := Summarize(ComputeMetrics(points))
	if s.AvgVolume != 1750 {
		t.Fatalf("avg volume: got %v, want 1750", s.AvgVolume)
	}

	points[3].Volume = 2001 // mean 1750.25
	s = Summarize(ComputeMetrics(points))
	if s.AvgVolume != 1750 {
		t.Fatalf("avg volume should truncate, not round: got %v, want 1750", s.AvgVolume)
	}
	points[3].Volume = 2999 // mean 1999.75
	s = Summarize(ComputeMetrics(points))
	if s.AvgVolume != 1999 {
		t.Fatalf("avg volume should truncate, not round: got %v, want 1999", s.AvgVolume)
	}
}

func TestSummarizeEmpty(t *testing.T) {
	if s := Summarize(nil); s != (models.SummaryStats{}) {
		t.Fatalf("expected zero stats, got %+v", s)
	}
}
