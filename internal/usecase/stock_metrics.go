package usecase

import (
	"context"
	"fmt"
	"time"

	"StockSight/internal/domain/models"
	drepo "StockSight/internal/domain/repository"
	"StockSight/internal/services/pipeline"
	"StockSight/pkg/logger"
)

// storeFallbackRows bounds how much history a store read returns when the
// upstream provider is down. 504 covers two years of trading days.
const storeFallbackRows = 504

// StockMetrics produces cleaned, metrics-annotated series per symbol and
// routes the computed rows to the configured backend.
type StockMetrics struct {
	provider drepo.PriceProvider
	store    drepo.MetricsStore
	pub      drepo.Publisher
	metrics  drepo.Metrics
	backend  string
	log      *logger.Logger
}

// NewStockMetrics creates the metrics usecase. store and pub may be nil when
// the corresponding backend is not configured.
func NewStockMetrics(
	provider drepo.PriceProvider,
	store drepo.MetricsStore,
	pub drepo.Publisher,
	metrics drepo.Metrics,
	backend string,
	log *logger.Logger,
) *StockMetrics {
	return &StockMetrics{
		provider: provider,
		store:    store,
		pub:      pub,
		metrics:  metrics,
		backend:  backend,
		log:      log,
	}
}

// GetMetrics fetches, cleans and annotates a symbol's history. Computed rows
// are routed to the backend best-effort: a storage or publish failure is
// logged and counted but the caller still gets the rows. When the provider is
// down, previously stored rows are served instead.
func (u *StockMetrics) GetMetrics(ctx context.Context, symbol string, period drepo.Period) ([]models.MetricsRow, error) {
	start := time.Now()

	raw, err := u.provider.Fetch(ctx, symbol, period)
	if err != nil {
		if rows := u.readStored(ctx, symbol); len(rows) > 0 {
			u.log.Warn("provider unavailable, serving stored metrics",
				logger.String("symbol", symbol), logger.Error(err))
			return rows, nil
		}
		u.metrics.RecordError("fetch")
		return nil, err
	}

	points := pipeline.Clean(raw)
	if len(points) == 0 {
		u.metrics.RecordError("clean")
		return nil, fmt.Errorf("%w: %s has no valid rows", drepo.ErrUnavailable, symbol)
	}

	rows := pipeline.ComputeMetrics(points)
	u.routeRows(ctx, symbol, rows)

	u.metrics.RecordLastPrice(symbol, rows[len(rows)-1].Close)
	u.metrics.RecordLatency("get_metrics", time.Since(start).Seconds())
	return rows, nil
}

// GetSummary reduces a symbol's annotated series to headline statistics.
func (u *StockMetrics) GetSummary(ctx context.Context, symbol string, period drepo.Period) (models.SummaryStats, error) {
	rows, err := u.GetMetrics(ctx, symbol, period)
	if err != nil {
		return models.SummaryStats{}, err
	}
	return pipeline.Summarize(rows), nil
}

// GetQuality reports on the cleaned series underlying a symbol's metrics.
func (u *StockMetrics) GetQuality(ctx context.Context, symbol string, period drepo.Period) (models.QualityReport, error) {
	rows, err := u.GetMetrics(ctx, symbol, period)
	if err != nil {
		return models.QualityReport{}, err
	}
	points := make([]models.PricePoint, len(rows))
	for i, r := range rows {
		points[i] = r.PricePoint
	}
	return pipeline.Quality(points), nil
}

// Tail returns the last n rows of a series, or the whole series if shorter.
func Tail(rows []models.MetricsRow, n int) []models.MetricsRow {
	if n <= 0 || n >= len(rows) {
		return rows
	}
	return rows[len(rows)-n:]
}

// routeRows sends computed rows to the configured backend.
func (u *StockMetrics) routeRows(ctx context.Context, symbol string, rows []models.MetricsRow) {
	var err error
	switch u.backend {
	case "kafka":
		if u.pub == nil {
			return
		}
		err = u.pub.PublishRows(ctx, symbol, rows)
	case "clickhouse":
		if u.store == nil {
			return
		}
		err = u.store.ReplaceAll(ctx, symbol, rows)
	default:
		err = fmt.Errorf("unknown backend: %s", u.backend)
	}
	if err != nil {
		u.metrics.RecordError("route_rows")
		u.log.Warn("metrics row routing failed",
			logger.String("backend", u.backend),
			logger.String("symbol", symbol),
			logger.Error(err))
		return
	}
	u.metrics.RecordRowsStored(u.backend, symbol, len(rows))
}

func (u *StockMetrics) readStored(ctx context.Context, symbol string) []models.MetricsRow {
	if u.store == nil {
		return nil
	}
	rows, err := u.store.ReadLastN(ctx, symbol, storeFallbackRows)
	if err != nil {
		u.metrics.RecordError("store_read")
		return nil
	}
	return rows
}
