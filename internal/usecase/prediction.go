package usecase

import (
	"context"
	"time"

	"StockSight/internal/domain/models"
	drepo "StockSight/internal/domain/repository"
	"StockSight/internal/services/forecast"
)

// Prediction serves multi-day price forecasts from trained models.
type Prediction struct {
	source    *StockMetrics
	predictor *forecast.Predictor
	metrics   drepo.Metrics
}

func NewPrediction(source *StockMetrics, predictor *forecast.Predictor, metrics drepo.Metrics) *Prediction {
	return &Prediction{source: source, predictor: predictor, metrics: metrics}
}

// Predict forecasts the next `days` closes for a symbol.
func (u *Prediction) Predict(ctx context.Context, symbol, period string, days int) (*models.ForecastResult, error) {
	start := time.Now()
	rows, err := u.source.GetMetrics(ctx, symbol, drepo.NormalizePeriod(period))
	if err != nil {
		return nil, err
	}

	res, err := u.predictor.Predict(ctx, symbol, rows, days)
	if err != nil {
		u.metrics.RecordError("predict")
		return nil, err
	}
	u.metrics.RecordLatency("predict", time.Since(start).Seconds())
	return res, nil
}
