package forecast

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"StockSight/internal/domain/models"
	"StockSight/internal/domain/repository"
	"StockSight/internal/services/features"
	"StockSight/internal/services/pipeline"
	"StockSight/pkg/gbt"
	"StockSight/pkg/logger"
)

type memModelStore struct {
	artifacts map[string]*models.TrainedModel
}

func newMemModelStore() *memModelStore {
	return &memModelStore{artifacts: make(map[string]*models.TrainedModel)}
}

func (s *memModelStore) Save(_ context.Context, symbol string, m *models.TrainedModel) error {
	s.artifacts[symbol] = m
	return nil
}

func (s *memModelStore) Load(_ context.Context, symbol string) (*models.TrainedModel, error) {
	m, ok := s.artifacts[symbol]
	if !ok {
		return nil, repository.ErrModelNotFound
	}
	return m, nil
}

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New(&logger.Config{Level: "error", Format: "json", Output: "stderr"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return log
}

func history(n int) []models.MetricsRow {
	points := make([]models.PricePoint, n)
	for i := range points {
		c := 100 + 0.3*float64(i) + 2*math.Sin(float64(i)/5)
		points[i] = models.PricePoint{
			Symbol: "AAPL",
			Date:   time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC).AddDate(0, 0, i),
			Open:   c - 0.4,
			High:   c + 1,
			Low:    c - 1,
			Close:  c,
			Volume: 1000 + float64(i%11)*90,
		}
	}
	return pipeline.ComputeMetrics(points)
}

func TestTrainRejectsShortSeries(t *testing.T) {
	trainer := NewTrainer(newMemModelStore(), testLogger(t))
	_, err := trainer.Train(context.Background(), "AAPL", history(49))
	if !IsInsufficientData(err) {
		t.Fatalf("expected insufficient data error, got %v", err)
	}
}

func TestTrainAndEvaluate(t *testing.T) {
	store := newMemModelStore()
	trainer := NewTrainer(store, testLogger(t))

	rows := history(200)
	res, err := trainer.Train(context.Background(), "AAPL", rows)
	if err != nil {
		t.Fatalf("train: %v", err)
	}
	if res.Samples != 199 {
		t.Fatalf("samples: got %d, want 199", res.Samples)
	}
	if res.TrainSamples+res.TestSamples != res.Samples {
		t.Fatalf("split does not cover all samples: %d + %d != %d", res.TrainSamples, res.TestSamples, res.Samples)
	}
	if res.TrainSamples != int(float64(res.Samples)*0.8) {
		t.Fatalf("train samples: got %d", res.TrainSamples)
	}
	if res.Metrics.RMSE < res.Metrics.MAE {
		t.Fatalf("rmse %v should be >= mae %v", res.Metrics.RMSE, res.Metrics.MAE)
	}

	artifact, ok := store.artifacts["AAPL"]
	if !ok {
		t.Fatalf("artifact not saved")
	}
	if len(artifact.FeatureNames) != len(features.FeatureColumns()) {
		t.Fatalf("feature names: got %d, want %d", len(artifact.FeatureNames), len(features.FeatureColumns()))
	}
	if artifact.Regressor == nil {
		t.Fatalf("artifact has no regressor")
	}
}

func TestImportance(t *testing.T) {
	store := newMemModelStore()
	trainer := NewTrainer(store, testLogger(t))
	if _, err := trainer.Train(context.Background(), "AAPL", history(150)); err != nil {
		t.Fatalf("train: %v", err)
	}

	imp, err := trainer.Importance(context.Background(), "AAPL")
	if err != nil {
		t.Fatalf("importance: %v", err)
	}
	if len(imp) == 0 {
		t.Fatalf("no importances returned")
	}
	for i := 1; i < len(imp); i++ {
		if imp[i].Importance > imp[i-1].Importance {
			t.Fatalf("importances not sorted at %d: %v > %v", i, imp[i].Importance, imp[i-1].Importance)
		}
	}

	if _, err := trainer.Importance(context.Background(), "MSFT"); !errors.Is(err, repository.ErrModelNotFound) {
		t.Fatalf("expected model not found, got %v", err)
	}
}

// constantModel stores a tree-less regressor that always predicts base.
func constantModel(store *memModelStore, symbol string, base float64) {
	names := features.FeatureColumns()
	store.artifacts[symbol] = &models.TrainedModel{
		Symbol:       symbol,
		FeatureNames: names,
		Regressor: &gbt.Regressor{
			Base:         base,
			LearningRate: 0.1,
			NumFeatures:  len(names),
		},
		TrainedAt: time.Now().UTC(),
	}
}

func TestPredictStaticSnapshotGivesIdenticalSteps(t *testing.T) {
	store := newMemModelStore()
	trainer := NewTrainer(store, testLogger(t))
	rows := history(150)
	if _, err := trainer.Train(context.Background(), "AAPL", rows); err != nil {
		t.Fatalf("train: %v", err)
	}

	predictor := NewPredictor(store, testLogger(t))
	res, err := predictor.Predict(context.Background(), "AAPL", rows, 7)
	if err != nil {
		t.Fatalf("predict: %v", err)
	}
	if len(res.Predictions) != 7 {
		t.Fatalf("expected 7 predictions, got %d", len(res.Predictions))
	}
	for i := 1; i < len(res.Predictions); i++ {
		if res.Predictions[i] != res.Predictions[0] {
			t.Fatalf("step %d diverged: %v vs %v", i, res.Predictions[i], res.Predictions[0])
		}
	}
}

func TestPredictBandWidens(t *testing.T) {
	store := newMemModelStore()
	rows := history(100)
	constantModel(store, "AAPL", rows[len(rows)-1].Close)

	predictor := NewPredictor(store, testLogger(t))
	res, err := predictor.Predict(context.Background(), "AAPL", rows, 7)
	if err != nil {
		t.Fatalf("predict: %v", err)
	}
	prev := -1.0
	for i := range res.Predictions {
		if res.ConfidenceLower[i] > res.Predictions[i] || res.ConfidenceUpper[i] < res.Predictions[i] {
			t.Fatalf("step %d band does not bracket prediction", i)
		}
		if res.ConfidenceLower[i] < 0 {
			t.Fatalf("step %d lower bound below zero: %v", i, res.ConfidenceLower[i])
		}
		width := res.ConfidenceUpper[i] - res.ConfidenceLower[i]
		if i > 0 && width < prev {
			t.Fatalf("band narrowed at step %d: %v < %v", i, width, prev)
		}
		prev = width
	}
}

func TestPredictDatesAreBusinessDays(t *testing.T) {
	store := newMemModelStore()
	rows := history(100)
	constantModel(store, "AAPL", rows[len(rows)-1].Close)

	predictor := NewPredictor(store, testLogger(t))
	res, err := predictor.Predict(context.Background(), "AAPL", rows, 10)
	if err != nil {
		t.Fatalf("predict: %v", err)
	}
	if len(res.Dates) != len(res.Predictions) {
		t.Fatalf("dates/predictions length mismatch: %d vs %d", len(res.Dates), len(res.Predictions))
	}
	lastHist := rows[len(rows)-1].Date
	prev := lastHist
	for i, d := range res.Dates {
		if !d.After(prev) {
			t.Fatalf("date %d not after previous: %v <= %v", i, d, prev)
		}
		if wd := d.Weekday(); wd == time.Saturday || wd == time.Sunday {
			t.Fatalf("date %d lands on a weekend: %v", i, d)
		}
		prev = d
	}
}

func TestPredictTrendClassification(t *testing.T) {
	rows := history(100)
	lastClose := rows[len(rows)-1].Close

	cases := []struct {
		name string
		base float64
		want string
	}{
		{"bullish", lastClose * 1.10, models.TrendBullish},
		{"bearish", lastClose * 0.90, models.TrendBearish},
		{"neutral", lastClose * 1.01, models.TrendNeutral},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store := newMemModelStore()
			constantModel(store, "AAPL", tc.base)
			predictor := NewPredictor(store, testLogger(t))
			res, err := predictor.Predict(context.Background(), "AAPL", rows, 5)
			if err != nil {
				t.Fatalf("predict: %v", err)
			}
			if res.Summary.Trend != tc.want {
				t.Fatalf("trend: got %q, want %q (return %v)", res.Summary.Trend, tc.want, res.Summary.ExpectedReturn)
			}
		})
	}
}

func TestPredictErrors(t *testing.T) {
	store := newMemModelStore()
	predictor := NewPredictor(store, testLogger(t))
	rows := history(100)

	if _, err := predictor.Predict(context.Background(), "AAPL", rows, 7); !errors.Is(err, repository.ErrModelNotFound) {
		t.Fatalf("expected model not found, got %v", err)
	}

	constantModel(store, "AAPL", 100)
	if _, err := predictor.Predict(context.Background(), "AAPL", nil, 7); !errors.Is(err, ErrNoData) {
		t.Fatalf("expected no data error, got %v", err)
	}

	// a model with the wrong input width fails every rollout step
	store.artifacts["AAPL"].Regressor.NumFeatures = 3
	if _, err := predictor.Predict(context.Background(), "AAPL", rows, 7); !errors.Is(err, ErrPredictionFailed) {
		t.Fatalf("expected prediction failed, got %v", err)
	}
}
