package models

import (
	"time"

	"StockSight/pkg/gbt"
)

// TrainedModel is the per-symbol model artifact. It is written wholesale by
// the trainer and read-only everywhere else; FeatureNames records the exact
// ordered columns the regressor was fitted on.
type TrainedModel struct {
	Symbol       string         `json:"symbol"`
	FeatureNames []string       `json:"feature_names"`
	Regressor    *gbt.Regressor `json:"regressor"`
	TrainedAt    time.Time      `json:"trained_at"`
}

// EvalMetrics holds held-out evaluation scores for a trained model.
type EvalMetrics struct {
	MAE  float64 `json:"mae"`
	RMSE float64 `json:"rmse"`
	R2   float64 `json:"r2"`
	MAPE float64 `json:"mape"`
}

// TrainingResult reports one completed training run.
type TrainingResult struct {
	Symbol       string      `json:"symbol"`
	Samples      int         `json:"samples"`
	TrainSamples int         `json:"train_samples"`
	TestSamples  int         `json:"test_samples"`
	Metrics      EvalMetrics `json:"metrics"`
}

// FeatureImportance pairs one feature name with its importance score.
type FeatureImportance struct {
	Feature    string  `json:"feature"`
	Importance float64 `json:"importance"`
}

// ForecastSummary is the headline block of a forecast.
type ForecastSummary struct {
	ExpectedPrice  float64 `json:"expected_price"`
	ExpectedReturn float64 `json:"expected_return"`
	Trend          string  `json:"trend"`
	MinPrediction  float64 `json:"min_prediction"`
	MaxPrediction  float64 `json:"max_prediction"`
}

// ForecastResult is a multi-day price forecast with a widening 95% band.
// All slices have equal length: the requested horizon, or fewer if a rollout
// step failed partway (partial forecasts are returned, not discarded).
type ForecastResult struct {
	Symbol          string          `json:"symbol"`
	CurrentPrice    float64         `json:"current_price"`
	PredictionDays  int             `json:"prediction_days"`
	Predictions     []float64       `json:"predictions"`
	ConfidenceLower []float64       `json:"confidence_lower"`
	ConfidenceUpper []float64       `json:"confidence_upper"`
	Dates           []time.Time     `json:"dates"`
	Summary         ForecastSummary `json:"summary"`
}

// Trend labels for the cumulative expected return classification.
const (
	TrendBullish = "bullish"
	TrendBearish = "bearish"
	TrendNeutral = "neutral"
)
