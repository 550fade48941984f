package repository

import (
	"context"
	"errors"

	"StockSight/internal/domain/models"
)

var (
	// ErrUnavailable is returned by a PriceProvider when it cannot serve a
	// symbol at all (network down, unknown symbol, empty upstream response).
	ErrUnavailable = errors.New("price history unavailable")

	// ErrModelNotFound is returned by a ModelStore when no trained artifact
	// exists for the symbol.
	ErrModelNotFound = errors.New("model not found")
)

// PriceProvider fetches raw daily OHLCV history for one symbol.
// The rows it returns are unvalidated; callers run them through the cleaning
// pipeline before any computation.
type PriceProvider interface {
	Fetch(ctx context.Context, symbol string, period Period) ([]models.RawPricePoint, error)
}

// MetricsStore persists precomputed metrics rows per symbol. It is a
// best-effort cache: a read miss or error must degrade to recomputation from
// the price provider, never to a hard failure.
type MetricsStore interface {
	ReadLastN(ctx context.Context, symbol string, n int) ([]models.MetricsRow, error)
	ReplaceAll(ctx context.Context, symbol string, rows []models.MetricsRow) error
}

// ModelStore persists trained model artifacts keyed by symbol.
// Save must overwrite atomically: a concurrent Load never observes a
// partially written artifact.
type ModelStore interface {
	Save(ctx context.Context, symbol string, m *models.TrainedModel) error
	Load(ctx context.Context, symbol string) (*models.TrainedModel, error)
}

// Publisher publishes computed metrics rows for downstream consumers.
type Publisher interface {
	PublishRows(ctx context.Context, symbol string, rows []models.MetricsRow) error
	Close() error
}

// Metrics records operational telemetry.
type Metrics interface {
	RecordRowsStored(backend, symbol string, n int)
	RecordError(kind string)
	RecordLastPrice(symbol string, price float64)
	RecordLatency(op string, seconds float64)
	RecordModelScore(symbol string, r2 float64)
}
