package forecast

import (
	"context"
	"math"

	"StockSight/internal/domain/models"
	"StockSight/internal/domain/repository"
	"StockSight/internal/services/features"
	"StockSight/internal/services/pipeline"
	"StockSight/pkg/logger"
	"StockSight/pkg/util"
)

const (
	// DefaultHorizon is the number of trading days to forecast.
	DefaultHorizon = 7

	zScore95      = 1.96
	defaultStdPct = 2.0 // fallback daily volatility when history is too short

	bullishThreshold = 2.0
	bearishThreshold = -2.0
)

// Predictor rolls a trained model forward to produce multi-day forecasts.
type Predictor struct {
	store repository.ModelStore
	log   *logger.Logger
}

func NewPredictor(store repository.ModelStore, log *logger.Logger) *Predictor {
	return &Predictor{store: store, log: log}
}

// Predict forecasts the next `days` closes for a symbol from its
// metrics-annotated history. The model sees a snapshot of the latest feature
// row at every step; uncertainty is carried by the confidence band, which
// widens with sqrt of the step index. A step failure truncates the forecast
// rather than discarding it, as long as at least one step succeeded.
func (p *Predictor) Predict(ctx context.Context, symbol string, rows []models.MetricsRow, days int) (*models.ForecastResult, error) {
	model, err := p.store.Load(ctx, symbol)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrNoData
	}
	if days <= 0 {
		days = DefaultHorizon
	}

	frame := features.Engineer(rows)
	names := frame.Present(features.FeatureColumns())
	current, err := frame.Row(frame.Len()-1, names)
	if err != nil {
		return nil, ErrFeaturePreparationFailed
	}

	last := rows[len(rows)-1]
	lastClose := last.Close
	dailyStd := sampleStd(frame.Col("daily_return"))
	if math.IsNaN(dailyStd) {
		dailyStd = defaultStdPct
	}

	predictions := make([]float64, 0, days)
	lower := make([]float64, 0, days)
	upper := make([]float64, 0, days)

	currentPrice := lastClose
	for i := 1; i <= days; i++ {
		predicted, err := model.Regressor.Predict(current)
		if err != nil {
			p.log.Error("prediction step failed",
				logger.String("symbol", symbol),
				logger.Int("step", i),
				logger.Error(err))
			break
		}

		factor := math.Sqrt(float64(i)) * (dailyStd / 100) * currentPrice
		lo := predicted - zScore95*factor
		if lo < 0 {
			lo = 0
		}
		predictions = append(predictions, pipeline.Round2(predicted))
		lower = append(lower, pipeline.Round2(lo))
		upper = append(upper, pipeline.Round2(predicted+zScore95*factor))

		currentPrice = predicted
	}
	if len(predictions) == 0 {
		return nil, ErrPredictionFailed
	}

	expectedReturn := (predictions[len(predictions)-1] - lastClose) / lastClose * 100
	trend := models.TrendNeutral
	switch {
	case expectedReturn > bullishThreshold:
		trend = models.TrendBullish
	case expectedReturn < bearishThreshold:
		trend = models.TrendBearish
	}

	minPred, maxPred := predictions[0], predictions[0]
	for _, v := range predictions[1:] {
		minPred = math.Min(minPred, v)
		maxPred = math.Max(maxPred, v)
	}

	return &models.ForecastResult{
		Symbol:          symbol,
		CurrentPrice:    pipeline.Round2(lastClose),
		PredictionDays:  days,
		Predictions:     predictions,
		ConfidenceLower: lower,
		ConfidenceUpper: upper,
		Dates:           util.NextBusinessDays(last.Date, len(predictions)),
		Summary: models.ForecastSummary{
			ExpectedPrice:  predictions[len(predictions)-1],
			ExpectedReturn: pipeline.Round2(expectedReturn),
			Trend:          trend,
			MinPrediction:  minPred,
			MaxPrediction:  maxPred,
		},
	}, nil
}

// sampleStd is the sample standard deviation; NaN for fewer than 2 values.
func sampleStd(xs []float64) float64 {
	if len(xs) < 2 {
		return math.NaN()
	}
	mean := 0.0
	for _, v := range xs {
		mean += v
	}
	mean /= float64(len(xs))
	ss := 0.0
	for _, v := range xs {
		d := v - mean
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(xs)-1))
}
