package usecase

import (
	"context"
	"fmt"
	"time"

	"StockSight/internal/domain/models"
	drepo "StockSight/internal/domain/repository"
	"StockSight/internal/services/forecast"
	"StockSight/pkg/logger"
	"StockSight/pkg/queue"
)

// TrainJobType is the queue message type for asynchronous training.
const TrainJobType = "train_symbol"

// TrainJobPayload is the queued request to train one symbol.
type TrainJobPayload struct {
	Symbol string `json:"symbol"`
	Period string `json:"period"`
}

// Training orchestrates model training over fresh metrics series.
type Training struct {
	source  *StockMetrics
	trainer *forecast.Trainer
	metrics drepo.Metrics
	queue   queue.QueueService
	symbols []string
	log     *logger.Logger
}

// NewTraining creates the training usecase. q may be nil, in which case
// TrainAll runs synchronously instead of fanning out to queue workers.
func NewTraining(
	source *StockMetrics,
	trainer *forecast.Trainer,
	metrics drepo.Metrics,
	q queue.QueueService,
	symbols []string,
	log *logger.Logger,
) *Training {
	return &Training{
		source:  source,
		trainer: trainer,
		metrics: metrics,
		queue:   q,
		symbols: symbols,
		log:     log,
	}
}

// Train fetches a symbol's annotated history and fits a fresh model.
func (u *Training) Train(ctx context.Context, symbol, period string) (*models.TrainingResult, error) {
	start := time.Now()
	rows, err := u.source.GetMetrics(ctx, symbol, drepo.NormalizePeriod(period))
	if err != nil {
		return nil, err
	}

	res, err := u.trainer.Train(ctx, symbol, rows)
	if err != nil {
		u.metrics.RecordError("train")
		return nil, err
	}

	u.metrics.RecordModelScore(symbol, res.Metrics.R2)
	u.metrics.RecordLatency("train", time.Since(start).Seconds())
	return res, nil
}

// TrainAll schedules training for every configured symbol. With a queue the
// jobs run on workers and the call returns immediately; without one the
// symbols are trained inline and individual failures are logged, not fatal.
func (u *Training) TrainAll(ctx context.Context, period string) (int, error) {
	if len(u.symbols) == 0 {
		return 0, fmt.Errorf("no symbols configured")
	}

	if u.queue != nil {
		queued := 0
		for _, symbol := range u.symbols {
			payload := TrainJobPayload{Symbol: symbol, Period: period}
			if err := u.queue.PublishMessage(ctx, TrainJobType, payload); err != nil {
				u.log.Error("enqueue training failed",
					logger.String("symbol", symbol), logger.Error(err))
				continue
			}
			queued++
		}
		return queued, nil
	}

	trained := 0
	for _, symbol := range u.symbols {
		if _, err := u.Train(ctx, symbol, period); err != nil {
			u.log.Warn("training failed",
				logger.String("symbol", symbol), logger.Error(err))
			continue
		}
		trained++
	}
	u.log.Info("batch training complete",
		logger.Int("trained", trained), logger.Int("total", len(u.symbols)))
	return trained, nil
}

// Importance returns the top feature importances of a symbol's model.
func (u *Training) Importance(ctx context.Context, symbol string, top int) ([]models.FeatureImportance, error) {
	imp, err := u.trainer.Importance(ctx, symbol)
	if err != nil {
		return nil, err
	}
	if top > 0 && top < len(imp) {
		imp = imp[:top]
	}
	return imp, nil
}

// TrainSymbolJob is the queue worker side of TrainAll.
type TrainSymbolJob struct {
	training *Training
}

func NewTrainSymbolJob(training *Training) *TrainSymbolJob {
	return &TrainSymbolJob{training: training}
}

func (j *TrainSymbolJob) Name() string { return "train-symbol" }
func (j *TrainSymbolJob) Type() string { return TrainJobType }

func (j *TrainSymbolJob) Handle(ctx context.Context, payload interface{}) error {
	p, err := queue.ParsePayload[TrainJobPayload](payload)
	if err != nil {
		return fmt.Errorf("parse train payload: %w", err)
	}
	_, err = j.training.Train(ctx, p.Symbol, p.Period)
	if forecast.IsInsufficientData(err) {
		// retrying will not create more history
		j.training.log.Warn("skipping symbol with too little history",
			logger.String("symbol", p.Symbol), logger.Error(err))
		return nil
	}
	return err
}

var _ queue.Job = (*TrainSymbolJob)(nil)
