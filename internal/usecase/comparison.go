package usecase

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"StockSight/internal/domain/models"
	drepo "StockSight/internal/domain/repository"
	"StockSight/internal/services/pipeline"
	"StockSight/pkg/logger"
)

// minOverlapDays is the smallest date overlap two series need before a
// correlation means anything.
const minOverlapDays = 10

// topMoversCount is how many gainers and losers the board shows.
const topMoversCount = 5

// ErrInsufficientOverlap is returned when two symbols share too few trading
// days for comparison.
var ErrInsufficientOverlap = errors.New("insufficient overlapping data")

// Comparison computes cross-symbol correlation and performance reports.
type Comparison struct {
	source  *StockMetrics
	symbols []string
	log     *logger.Logger
}

func NewComparison(source *StockMetrics, symbols []string, log *logger.Logger) *Comparison {
	return &Comparison{source: source, symbols: symbols, log: log}
}

// alignedPair is the date-aligned overlap of two series.
type alignedPair struct {
	dates            []time.Time
	close1, close2   []float64
	return1, return2 []float64
}

// Compare produces a correlation and performance report for two symbols over
// the date-aligned overlap of their histories.
func (u *Comparison) Compare(ctx context.Context, symbol1, symbol2, period string) (*models.Comparison, error) {
	p := drepo.NormalizePeriod(period)
	rows1, err := u.source.GetMetrics(ctx, symbol1, p)
	if err != nil {
		return nil, err
	}
	rows2, err := u.source.GetMetrics(ctx, symbol2, p)
	if err != nil {
		return nil, err
	}

	pair := align(rows1, rows2)
	n := len(pair.dates)
	if n < minOverlapDays {
		return nil, fmt.Errorf("%w: %s/%s share %d days", ErrInsufficientOverlap, symbol1, symbol2, n)
	}

	start1, start2 := pair.close1[0], pair.close2[0]
	norm1 := make([]float64, n)
	norm2 := make([]float64, n)
	for i := 0; i < n; i++ {
		norm1[i] = pipeline.Round2((pair.close1[i]/start1 - 1) * 100)
		norm2[i] = pipeline.Round2((pair.close2[i]/start2 - 1) * 100)
	}

	return &models.Comparison{
		Symbols:            [2]string{symbol1, symbol2},
		PeriodStart:        pair.dates[0],
		PeriodEnd:          pair.dates[n-1],
		Days:               n,
		PriceCorrelation:   round4(pearson(pair.close1, pair.close2)),
		ReturnsCorrelation: round4(pearson(pair.return1, pair.return2)),
		Performance: map[string]models.PerformanceBlock{
			symbol1: performance(pair.close1, pair.return1),
			symbol2: performance(pair.close2, pair.return2),
		},
		ChartDates: pair.dates,
		ChartSeries: map[string][]float64{
			symbol1: norm1,
			symbol2: norm2,
		},
	}, nil
}

// Matrix builds the pairwise daily-return correlation matrix over all
// configured symbols. Pairs with too little overlap score 0; a symbol whose
// history cannot be fetched scores 0 against everything.
func (u *Comparison) Matrix(ctx context.Context, period string) (*models.CorrelationMatrix, error) {
	if len(u.symbols) < 2 {
		return nil, fmt.Errorf("need at least 2 symbols for a correlation matrix")
	}
	p := drepo.NormalizePeriod(period)

	series := make(map[string][]models.MetricsRow, len(u.symbols))
	for _, symbol := range u.symbols {
		rows, err := u.source.GetMetrics(ctx, symbol, p)
		if err != nil {
			u.log.Warn("matrix skipping symbol",
				logger.String("symbol", symbol), logger.Error(err))
			continue
		}
		series[symbol] = rows
	}

	n := len(u.symbols)
	matrix := make([][]float64, n)
	for i := range matrix {
		matrix[i] = make([]float64, n)
		matrix[i][i] = 1
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			pair := align(series[u.symbols[i]], series[u.symbols[j]])
			corr := 0.0
			if len(pair.dates) >= minOverlapDays {
				corr = round4(pearson(pair.return1, pair.return2))
			}
			matrix[i][j] = corr
			matrix[j][i] = corr
		}
	}
	return &models.CorrelationMatrix{Symbols: append([]string(nil), u.symbols...), Matrix: matrix}, nil
}

// TopMovers ranks configured symbols by their latest daily return.
func (u *Comparison) TopMovers(ctx context.Context) (*models.TopMovers, error) {
	movers := make([]models.TopMover, 0, len(u.symbols))
	var latest time.Time
	for _, symbol := range u.symbols {
		rows, err := u.source.GetMetrics(ctx, symbol, drepo.Period1Mo)
		if err != nil || len(rows) == 0 {
			continue
		}
		last := rows[len(rows)-1]
		movers = append(movers, models.TopMover{
			Symbol:       symbol,
			CurrentPrice: pipeline.Round2(last.Close),
			DailyChange:  last.DailyReturn,
		})
		if last.Date.After(latest) {
			latest = last.Date
		}
	}
	if len(movers) == 0 {
		return nil, drepo.ErrUnavailable
	}

	sort.SliceStable(movers, func(i, j int) bool { return movers[i].DailyChange > movers[j].DailyChange })

	board := &models.TopMovers{Date: latest}
	for _, m := range movers {
		if m.DailyChange > 0 && len(board.Gainers) < topMoversCount {
			board.Gainers = append(board.Gainers, m)
		}
	}
	for i := len(movers) - 1; i >= 0 && len(board.Losers) < topMoversCount; i-- {
		if movers[i].DailyChange < 0 {
			board.Losers = append(board.Losers, movers[i])
		}
	}
	return board, nil
}

// align inner-joins two series on date, preserving chronological order.
func align(rows1, rows2 []models.MetricsRow) alignedPair {
	byDate := make(map[int64]models.MetricsRow, len(rows2))
	for _, r := range rows2 {
		byDate[r.Date.Unix()] = r
	}
	var pair alignedPair
	for _, r1 := range rows1 {
		r2, ok := byDate[r1.Date.Unix()]
		if !ok {
			continue
		}
		pair.dates = append(pair.dates, r1.Date)
		pair.close1 = append(pair.close1, r1.Close)
		pair.close2 = append(pair.close2, r2.Close)
		pair.return1 = append(pair.return1, r1.DailyReturn)
		pair.return2 = append(pair.return2, r2.DailyReturn)
	}
	return pair
}

func performance(closes, returns []float64) models.PerformanceBlock {
	n := len(returns)
	sum := 0.0
	for _, v := range returns {
		sum += v
	}
	mean := sum / float64(n)

	ss := 0.0
	for _, v := range returns {
		d := v - mean
		ss += d * d
	}
	vol := 0.0
	if n > 1 {
		vol = math.Sqrt(ss / float64(n-1))
	}
	return models.PerformanceBlock{
		TotalReturn:    pipeline.Round2((closes[n-1]/closes[0] - 1) * 100),
		AvgDailyReturn: round4(mean),
		Volatility:     round4(vol),
	}
}

// pearson is the sample Pearson correlation; 0 when undefined.
func pearson(x, y []float64) float64 {
	n := float64(len(x))
	if n < 2 {
		return 0
	}
	var sx, sy float64
	for i := range x {
		sx += x[i]
		sy += y[i]
	}
	mx, my := sx/n, sy/n

	var cov, vx, vy float64
	for i := range x {
		dx, dy := x[i]-mx, y[i]-my
		cov += dx * dy
		vx += dx * dx
		vy += dy * dy
	}
	if vx == 0 || vy == 0 {
		return 0
	}
	return cov / math.Sqrt(vx*vy)
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}
