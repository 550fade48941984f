package forecast

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"StockSight/internal/domain/models"
	"StockSight/internal/domain/repository"
	"StockSight/internal/services/features"
	"StockSight/pkg/gbt"
	"StockSight/pkg/logger"
)

const (
	minTrainingRows    = 50
	minTrainingSamples = 30
	testFraction       = 0.2
	targetHorizon      = 1 // predict the next trading day's close
)

// Trainer fits per-symbol price models and persists the artifacts.
type Trainer struct {
	store repository.ModelStore
	log   *logger.Logger
}

func NewTrainer(store repository.ModelStore, log *logger.Logger) *Trainer {
	return &Trainer{store: store, log: log}
}

// Train fits a model on a metrics-annotated series and saves the artifact.
// The split is chronological: the most recent fraction of samples is held
// out for evaluation, never shuffled.
func (t *Trainer) Train(ctx context.Context, symbol string, rows []models.MetricsRow) (*models.TrainingResult, error) {
	if len(rows) < minTrainingRows {
		return nil, &InsufficientDataError{Symbol: symbol, Reason: "insufficient data for training"}
	}

	frame := features.Engineer(rows)
	x, y, names, err := features.TrainingData(frame, targetHorizon)
	if err != nil || len(x) < minTrainingSamples {
		return nil, &InsufficientDataError{Symbol: symbol, Reason: "insufficient samples after feature preparation"}
	}

	split := int(float64(len(x)) * (1 - testFraction))
	xTrain, xTest := x[:split], x[split:]
	yTrain, yTest := y[:split], y[split:]

	model, err := gbt.Train(xTrain, yTrain, gbt.DefaultParams())
	if err != nil {
		return nil, fmt.Errorf("train %s: %w", symbol, err)
	}

	yPred, err := model.PredictBatch(xTest)
	if err != nil {
		return nil, fmt.Errorf("evaluate %s: %w", symbol, err)
	}
	metrics := evaluate(yTest, yPred)

	artifact := &models.TrainedModel{
		Symbol:       symbol,
		FeatureNames: names,
		Regressor:    model,
		TrainedAt:    time.Now().UTC(),
	}
	if err := t.store.Save(ctx, symbol, artifact); err != nil {
		return nil, fmt.Errorf("save model %s: %w", symbol, err)
	}

	t.log.Info("model trained",
		logger.String("symbol", symbol),
		logger.Int("samples", len(x)),
		logger.Int("train_samples", len(xTrain)),
		logger.Int("test_samples", len(xTest)),
		logger.Any("r2", metrics.R2))

	return &models.TrainingResult{
		Symbol:       symbol,
		Samples:      len(x),
		TrainSamples: len(xTrain),
		TestSamples:  len(xTest),
		Metrics:      metrics,
	}, nil
}

// Importance loads a symbol's model and returns its per-feature split gains,
// sorted descending. Name/score lists are zipped up to the shorter length so
// an artifact trained on an older column set still reports cleanly.
func (t *Trainer) Importance(ctx context.Context, symbol string) ([]models.FeatureImportance, error) {
	m, err := t.store.Load(ctx, symbol)
	if err != nil {
		return nil, err
	}

	scores := m.Regressor.FeatureImportances()
	n := len(m.FeatureNames)
	if len(scores) < n {
		n = len(scores)
	}
	out := make([]models.FeatureImportance, n)
	for i := 0; i < n; i++ {
		out[i] = models.FeatureImportance{Feature: m.FeatureNames[i], Importance: scores[i]}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Importance > out[j].Importance })
	return out, nil
}

func evaluate(yTrue, yPred []float64) models.EvalMetrics {
	n := float64(len(yTrue))
	if n == 0 {
		return models.EvalMetrics{}
	}

	var absSum, sqSum, apeSum, meanTrue float64
	for _, v := range yTrue {
		meanTrue += v
	}
	meanTrue /= n

	var ssTot float64
	for i := range yTrue {
		d := yTrue[i] - yPred[i]
		absSum += math.Abs(d)
		sqSum += d * d
		if yTrue[i] != 0 {
			apeSum += math.Abs(d / yTrue[i])
		}
		dt := yTrue[i] - meanTrue
		ssTot += dt * dt
	}

	r2 := 0.0
	if ssTot > 0 {
		r2 = 1 - sqSum/ssTot
	}
	return models.EvalMetrics{
		MAE:  absSum / n,
		RMSE: math.Sqrt(sqSum / n),
		R2:   r2,
		MAPE: apeSum / n * 100,
	}
}
