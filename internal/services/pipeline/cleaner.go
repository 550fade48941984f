package pipeline

import (
	"sort"

	"StockSight/internal/domain/models"
)

// Clean validates and normalizes a raw OHLCV series into a sequence that
// satisfies the PricePoint invariants. Steps run in a fixed order:
//
//  1. drop rows missing any of open/high/low/close/volume
//  2. deduplicate (symbol, date), keeping the last occurrence
//  3. sort ascending by date
//  4. drop rows with volume <= 0
//  5. drop rows with high < low
//  6. forward-fill residual nil prices from the prior row
//
// An empty result is not an error; callers check emptiness before computing.
// Clean is idempotent: re-running it over its own output changes nothing.
func Clean(raw []models.RawPricePoint) []models.PricePoint {
	if len(raw) == 0 {
		return nil
	}

	rows := make([]models.RawPricePoint, 0, len(raw))
	for _, r := range raw {
		if r.Open == nil || r.High == nil || r.Low == nil || r.Close == nil || r.Volume == nil {
			continue
		}
		rows = append(rows, r)
	}

	// keep-last dedupe by (symbol, date)
	type key struct {
		symbol string
		date   int64
	}
	seen := make(map[key]int, len(rows))
	deduped := rows[:0]
	for _, r := range rows {
		k := key{r.Symbol, r.Date.Unix()}
		if i, ok := seen[k]; ok {
			deduped[i] = r
			continue
		}
		seen[k] = len(deduped)
		deduped = append(deduped, r)
	}

	sort.SliceStable(deduped, func(i, j int) bool { return deduped[i].Date.Before(deduped[j].Date) })

	out := make([]models.PricePoint, 0, len(deduped))
	var prev *models.PricePoint
	for _, r := range deduped {
		if *r.Volume <= 0 {
			continue
		}
		if *r.High < *r.Low {
			continue
		}
		p := models.PricePoint{
			Symbol: r.Symbol,
			Date:   r.Date,
			Open:   deref(r.Open, prev, pickOpen),
			High:   deref(r.High, prev, pickHigh),
			Low:    deref(r.Low, prev, pickLow),
			Close:  deref(r.Close, prev, pickClose),
			Volume: *r.Volume,
		}
		out = append(out, p)
		prev = &out[len(out)-1]
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func pickOpen(p *models.PricePoint) float64  { return p.Open }
func pickHigh(p *models.PricePoint) float64  { return p.High }
func pickLow(p *models.PricePoint) float64   { return p.Low }
func pickClose(p *models.PricePoint) float64 { return p.Close }

// deref forward-fills a nil price from the prior row. Step 1 already removed
// fully-null rows, so a nil here only occurs on hand-built inputs.
func deref(v *float64, prev *models.PricePoint, pick func(*models.PricePoint) float64) float64 {
	if v != nil {
		return *v
	}
	if prev != nil {
		return pick(prev)
	}
	return 0
}

// AsRaw converts cleaned points back into raw rows, e.g. to re-run Clean.
func AsRaw(points []models.PricePoint) []models.RawPricePoint {
	out := make([]models.RawPricePoint, len(points))
	for i, p := range points {
		out[i] = p.Raw()
	}
	return out
}

// Quality builds a data-quality report for a cleaned series.
func Quality(points []models.PricePoint) models.QualityReport {
	if len(points) == 0 {
		return models.QualityReport{Status: "empty"}
	}
	rep := models.QualityReport{
		Status:   "valid",
		Records:  len(points),
		PriceMin: points[0].Low,
		PriceMax: points[0].High,
	}
	start, end := points[0].Date, points[len(points)-1].Date
	rep.DateStart = &start
	rep.DateEnd = &end
	for _, p := range points[1:] {
		if p.Low < rep.PriceMin {
			rep.PriceMin = p.Low
		}
		if p.High > rep.PriceMax {
			rep.PriceMax = p.High
		}
	}
	return rep
}
