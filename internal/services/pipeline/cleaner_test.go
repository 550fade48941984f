package pipeline

import (
	"testing"
	"time"

	"StockSight/internal/domain/models"
)

func fp(v float64) *float64 { return &v }

func day(n int) time.Time {
	return time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, n)
}

func rawRow(n int, open, high, low, close, volume float64) models.RawPricePoint {
	return models.RawPricePoint{
		Symbol: "AAPL",
		Date:   day(n),
		Open:   fp(open),
		High:   fp(high),
		Low:    fp(low),
		Close:  fp(close),
		Volume: fp(volume),
	}
}

func TestCleanDropsIncompleteRows(t *testing.T) {
	rows := []models.RawPricePoint{
		rawRow(0, 10, 11, 9, 10.5, 1000),
		{Symbol: "AAPL", Date: day(1), Open: fp(10), High: fp(11), Low: fp(9), Close: nil, Volume: fp(1000)},
		rawRow(2, 10, 11, 9, 10.5, 1000),
	}
	out := Clean(rows)
	if len(out) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(out))
	}
	if !out[0].Date.Equal(day(0)) || !out[1].Date.Equal(day(2)) {
		t.Fatalf("wrong rows survived: %v, %v", out[0].Date, out[1].Date)
	}
}

func TestCleanDeduplicatesKeepingLast(t *testing.T) {
	rows := []models.RawPricePoint{
		rawRow(0, 10, 11, 9, 10, 1000),
		rawRow(1, 20, 21, 19, 20, 2000),
		rawRow(1, 30, 31, 29, 30, 3000), // same date, later occurrence wins
	}
	out := Clean(rows)
	if len(out) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(out))
	}
	if out[1].Close != 30 || out[1].Volume != 3000 {
		t.Fatalf("dedupe kept the wrong occurrence: %+v", out[1])
	}
}

func TestCleanSortsByDate(t *testing.T) {
	rows := []models.RawPricePoint{
		rawRow(2, 12, 13, 11, 12, 1000),
		rawRow(0, 10, 11, 9, 10, 1000),
		rawRow(1, 11, 12, 10, 11, 1000),
	}
	out := Clean(rows)
	if len(out) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(out))
	}
	for i := 1; i < len(out); i++ {
		if !out[i-1].Date.Before(out[i].Date) {
			t.Fatalf("dates not ascending at %d: %v >= %v", i, out[i-1].Date, out[i].Date)
		}
	}
}

func TestCleanDropsNonPositiveVolume(t *testing.T) {
	rows := []models.RawPricePoint{
		rawRow(0, 10, 11, 9, 10, 0),
		rawRow(1, 10, 11, 9, 10, -5),
		rawRow(2, 10, 11, 9, 10, 100),
	}
	out := Clean(rows)
	if len(out) != 1 {
		t.Fatalf("expected 1 row, got %d", len(out))
	}
	if out[0].Volume != 100 {
		t.Fatalf("wrong survivor: %+v", out[0])
	}
}

func TestCleanDropsInvertedHighLowOnly(t *testing.T) {
	rows := []models.RawPricePoint{
		rawRow(0, 10, 9, 11, 10, 1000),  // high < low, dropped
		rawRow(1, 10, 11, 11, 11, 1000), // high == low, kept
		rawRow(2, 10, 12, 9, 11, 1000),
	}
	out := Clean(rows)
	if len(out) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(out))
	}
	if !out[0].Date.Equal(day(1)) {
		t.Fatalf("high == low row should survive, got %v", out[0].Date)
	}
}

func TestCleanIdempotent(t *testing.T) {
	rows := []models.RawPricePoint{
		rawRow(3, 13, 14, 12, 13, 1000),
		rawRow(0, 10, 11, 9, 10, 1000),
		rawRow(0, 10, 12, 9, 11, 1500),
		rawRow(1, 10, 9, 11, 10, 1000),
		rawRow(2, 11, 12, 10, 11, 0),
	}
	first := Clean(rows)
	second := Clean(AsRaw(first))
	if len(first) != len(second) {
		t.Fatalf("second pass changed length: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("row %d changed on second pass: %+v vs %+v", i, first[i], second[i])
		}
	}
}

func TestCleanEmptyInput(t *testing.T) {
	if out := Clean(nil); out != nil {
		t.Fatalf("expected nil for empty input, got %v", out)
	}
}

func TestQualityReport(t *testing.T) {
	out := Clean([]models.RawPricePoint{
		rawRow(0, 10, 15, 8, 12, 1000),
		rawRow(1, 12, 20, 11, 18, 1200),
	})
	rep := Quality(out)
	if rep.Status != "valid" || rep.Records != 2 {
		t.Fatalf("unexpected report: %+v", rep)
	}
	if rep.PriceMin != 8 || rep.PriceMax != 20 {
		t.Fatalf("wrong price range: [%v, %v]", rep.PriceMin, rep.PriceMax)
	}
	if rep.DateStart == nil || !rep.DateStart.Equal(day(0)) {
		t.Fatalf("wrong date start: %v", rep.DateStart)
	}

	empty := Quality(nil)
	if empty.Status != "empty" {
		t.Fatalf("expected empty status, got %q", empty.Status)
	}
}
