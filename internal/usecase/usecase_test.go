package usecase

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"StockSight/internal/domain/models"
	drepo "StockSight/internal/domain/repository"
	"StockSight/internal/services/forecast"
	"StockSight/internal/services/pipeline"
	"StockSight/pkg/logger"
)

// --- fakes ---

type fakeProvider struct {
	series map[string][]models.RawPricePoint
	err    error
}

func (p *fakeProvider) Fetch(_ context.Context, symbol string, _ drepo.Period) ([]models.RawPricePoint, error) {
	if p.err != nil {
		return nil, p.err
	}
	rows, ok := p.series[symbol]
	if !ok {
		return nil, drepo.ErrUnavailable
	}
	return rows, nil
}

type fakeMetricsStore struct {
	rows     map[string][]models.MetricsRow
	replaced int
}

func newFakeMetricsStore() *fakeMetricsStore {
	return &fakeMetricsStore{rows: make(map[string][]models.MetricsRow)}
}

func (s *fakeMetricsStore) ReadLastN(_ context.Context, symbol string, n int) ([]models.MetricsRow, error) {
	rows := s.rows[symbol]
	if len(rows) > n {
		rows = rows[len(rows)-n:]
	}
	return rows, nil
}

func (s *fakeMetricsStore) ReplaceAll(_ context.Context, symbol string, rows []models.MetricsRow) error {
	s.rows[symbol] = rows
	s.replaced++
	return nil
}

type fakePublisher struct {
	published map[string]int
}

func (p *fakePublisher) PublishRows(_ context.Context, symbol string, rows []models.MetricsRow) error {
	if p.published == nil {
		p.published = make(map[string]int)
	}
	p.published[symbol] += len(rows)
	return nil
}

func (p *fakePublisher) Close() error { return nil }

type fakeModelStore struct {
	artifacts map[string]*models.TrainedModel
}

func (s *fakeModelStore) Save(_ context.Context, symbol string, m *models.TrainedModel) error {
	if s.artifacts == nil {
		s.artifacts = make(map[string]*models.TrainedModel)
	}
	s.artifacts[symbol] = m
	return nil
}

func (s *fakeModelStore) Load(_ context.Context, symbol string) (*models.TrainedModel, error) {
	m, ok := s.artifacts[symbol]
	if !ok {
		return nil, drepo.ErrModelNotFound
	}
	return m, nil
}

type noopMetrics struct{}

func (noopMetrics) RecordRowsStored(string, string, int) {}
func (noopMetrics) RecordError(string)                   {}
func (noopMetrics) RecordLastPrice(string, float64)      {}
func (noopMetrics) RecordLatency(string, float64)        {}
func (noopMetrics) RecordModelScore(string, float64)     {}

// --- helpers ---

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New(&logger.Config{Level: "error", Format: "json", Output: "stderr"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return log
}

func fp(v float64) *float64 { return &v }

func rawSeries(symbol string, n int, drift float64) []models.RawPricePoint {
	out := make([]models.RawPricePoint, n)
	for i := 0; i < n; i++ {
		c := 100 + drift*float64(i) + 2*math.Sin(float64(i)/4)
		out[i] = models.RawPricePoint{
			Symbol: symbol,
			Date:   time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC).AddDate(0, 0, i),
			Open:   fp(c - 0.4),
			High:   fp(c + 1),
			Low:    fp(c - 1),
			Close:  fp(c),
			Volume: fp(1000 + float64(i%7)*50),
		}
	}
	return out
}

func metricsUsecase(t *testing.T, provider *fakeProvider, store *fakeMetricsStore, pub *fakePublisher, backend string) *StockMetrics {
	t.Helper()
	return NewStockMetrics(provider, store, pub, noopMetrics{}, backend, testLogger(t))
}

// --- tests ---

func TestGetMetricsStoresToClickHouse(t *testing.T) {
	provider := &fakeProvider{series: map[string][]models.RawPricePoint{"AAPL": rawSeries("AAPL", 60, 0.3)}}
	store := newFakeMetricsStore()
	u := metricsUsecase(t, provider, store, nil, "clickhouse")

	rows, err := u.GetMetrics(context.Background(), "AAPL", drepo.Period1Y)
	if err != nil {
		t.Fatalf("get metrics: %v", err)
	}
	if len(rows) != 60 {
		t.Fatalf("expected 60 rows, got %d", len(rows))
	}
	if store.replaced != 1 || len(store.rows["AAPL"]) != 60 {
		t.Fatalf("rows not routed to store: replaced=%d stored=%d", store.replaced, len(store.rows["AAPL"]))
	}
}

func TestGetMetricsPublishesToKafka(t *testing.T) {
	provider := &fakeProvider{series: map[string][]models.RawPricePoint{"AAPL": rawSeries("AAPL", 40, 0.2)}}
	pub := &fakePublisher{}
	u := metricsUsecase(t, provider, nil, pub, "kafka")

	if _, err := u.GetMetrics(context.Background(), "AAPL", drepo.Period1Y); err != nil {
		t.Fatalf("get metrics: %v", err)
	}
	if pub.published["AAPL"] != 40 {
		t.Fatalf("expected 40 published rows, got %d", pub.published["AAPL"])
	}
}

func TestGetMetricsFallsBackToStore(t *testing.T) {
	store := newFakeMetricsStore()
	store.rows["AAPL"] = pipeline.ComputeMetrics(pipeline.Clean(rawSeries("AAPL", 30, 0.1)))

	provider := &fakeProvider{err: drepo.ErrUnavailable}
	u := metricsUsecase(t, provider, store, nil, "clickhouse")

	rows, err := u.GetMetrics(context.Background(), "AAPL", drepo.Period1Y)
	if err != nil {
		t.Fatalf("expected stored fallback, got error: %v", err)
	}
	if len(rows) != 30 {
		t.Fatalf("expected 30 stored rows, got %d", len(rows))
	}
}

func TestGetMetricsFailsWhenNothingStored(t *testing.T) {
	provider := &fakeProvider{err: drepo.ErrUnavailable}
	u := metricsUsecase(t, provider, newFakeMetricsStore(), nil, "clickhouse")

	if _, err := u.GetMetrics(context.Background(), "AAPL", drepo.Period1Y); !errors.Is(err, drepo.ErrUnavailable) {
		t.Fatalf("expected unavailable, got %v", err)
	}
}

func TestTail(t *testing.T) {
	rows := pipeline.ComputeMetrics(pipeline.Clean(rawSeries("AAPL", 20, 0.1)))
	if got := Tail(rows, 5); len(got) != 5 || !got[0].Date.Equal(rows[15].Date) {
		t.Fatalf("tail(5) wrong: len=%d", len(got))
	}
	if got := Tail(rows, 50); len(got) != 20 {
		t.Fatalf("tail beyond length should return all rows, got %d", len(got))
	}
}

func TestTrainingSynchronous(t *testing.T) {
	provider := &fakeProvider{series: map[string][]models.RawPricePoint{
		"AAPL": rawSeries("AAPL", 150, 0.3),
		"MSFT": rawSeries("MSFT", 5, 0.3), // too short, must be skipped
	}}
	source := metricsUsecase(t, provider, newFakeMetricsStore(), nil, "clickhouse")
	modelStore := &fakeModelStore{}
	trainer := forecast.NewTrainer(modelStore, testLogger(t))
	training := NewTraining(source, trainer, noopMetrics{}, nil, []string{"AAPL", "MSFT"}, testLogger(t))

	trained, err := training.TrainAll(context.Background(), "1y")
	if err != nil {
		t.Fatalf("train all: %v", err)
	}
	if trained != 1 {
		t.Fatalf("expected 1 trained symbol, got %d", trained)
	}
	if _, ok := modelStore.artifacts["AAPL"]; !ok {
		t.Fatalf("AAPL model not saved")
	}

	imp, err := training.Importance(context.Background(), "AAPL", 10)
	if err != nil {
		t.Fatalf("importance: %v", err)
	}
	if len(imp) > 10 {
		t.Fatalf("importance not truncated: %d", len(imp))
	}
}

func TestPredictionRoundTrip(t *testing.T) {
	provider := &fakeProvider{series: map[string][]models.RawPricePoint{"AAPL": rawSeries("AAPL", 150, 0.3)}}
	source := metricsUsecase(t, provider, newFakeMetricsStore(), nil, "clickhouse")
	modelStore := &fakeModelStore{}
	trainer := forecast.NewTrainer(modelStore, testLogger(t))
	training := NewTraining(source, trainer, noopMetrics{}, nil, []string{"AAPL"}, testLogger(t))
	if _, err := training.Train(context.Background(), "AAPL", "1y"); err != nil {
		t.Fatalf("train: %v", err)
	}

	prediction := NewPrediction(source, forecast.NewPredictor(modelStore, testLogger(t)), noopMetrics{})
	res, err := prediction.Predict(context.Background(), "AAPL", "1y", 7)
	if err != nil {
		t.Fatalf("predict: %v", err)
	}
	if len(res.Predictions) != 7 || res.Symbol != "AAPL" {
		t.Fatalf("unexpected forecast: %+v", res)
	}
}

func TestCompareIdenticalSeriesFullyCorrelated(t *testing.T) {
	provider := &fakeProvider{series: map[string][]models.RawPricePoint{
		"AAPL": rawSeries("AAPL", 60, 0.3),
		"MSFT": rawSeries("MSFT", 60, 0.3),
	}}
	source := metricsUsecase(t, provider, newFakeMetricsStore(), nil, "clickhouse")
	cmp := NewComparison(source, []string{"AAPL", "MSFT"}, testLogger(t))

	res, err := cmp.Compare(context.Background(), "AAPL", "MSFT", "1y")
	if err != nil {
		t.Fatalf("compare: %v", err)
	}
	if res.Days != 60 {
		t.Fatalf("expected 60 overlapping days, got %d", res.Days)
	}
	if math.Abs(res.PriceCorrelation-1) > 1e-6 {
		t.Fatalf("identical series should correlate at 1, got %v", res.PriceCorrelation)
	}
	if len(res.ChartSeries["AAPL"]) != res.Days {
		t.Fatalf("chart series length mismatch")
	}
	if res.ChartSeries["AAPL"][0] != 0 {
		t.Fatalf("normalized series should start at 0, got %v", res.ChartSeries["AAPL"][0])
	}
	perf := res.Performance["AAPL"]
	if perf.TotalReturn <= 0 {
		t.Fatalf("upward drift should yield positive total return, got %v", perf.TotalReturn)
	}
}

func TestCompareInsufficientOverlap(t *testing.T) {
	a := rawSeries("AAPL", 20, 0.1)
	b := rawSeries("MSFT", 20, 0.1)
	for i := range b {
		b[i].Date = b[i].Date.AddDate(1, 0, 0) // disjoint year
	}
	provider := &fakeProvider{series: map[string][]models.RawPricePoint{"AAPL": a, "MSFT": b}}
	source := metricsUsecase(t, provider, newFakeMetricsStore(), nil, "clickhouse")
	cmp := NewComparison(source, []string{"AAPL", "MSFT"}, testLogger(t))

	if _, err := cmp.Compare(context.Background(), "AAPL", "MSFT", "1y"); !errors.Is(err, ErrInsufficientOverlap) {
		t.Fatalf("expected overlap error, got %v", err)
	}
}

func TestCorrelationMatrix(t *testing.T) {
	provider := &fakeProvider{series: map[string][]models.RawPricePoint{
		"AAPL": rawSeries("AAPL", 60, 0.3),
		"MSFT": rawSeries("MSFT", 60, 0.3),
		"GOOG": rawSeries("GOOG", 60, -0.3),
	}}
	source := metricsUsecase(t, provider, newFakeMetricsStore(), nil, "clickhouse")
	cmp := NewComparison(source, []string{"AAPL", "MSFT", "GOOG"}, testLogger(t))

	m, err := cmp.Matrix(context.Background(), "1y")
	if err != nil {
		t.Fatalf("matrix: %v", err)
	}
	if len(m.Matrix) != 3 {
		t.Fatalf("expected 3x3 matrix")
	}
	for i := 0; i < 3; i++ {
		if m.Matrix[i][i] != 1 {
			t.Fatalf("diagonal must be 1, got %v", m.Matrix[i][i])
		}
		for j := 0; j < 3; j++ {
			if m.Matrix[i][j] != m.Matrix[j][i] {
				t.Fatalf("matrix not symmetric at (%d,%d)", i, j)
			}
		}
	}
}

func TestTopMovers(t *testing.T) {
	up := rawSeries("AAPL", 30, 0.5)
	down := rawSeries("MSFT", 30, 0.5)
	// force last-day direction
	last := len(up) - 1
	*up[last].Open = 100
	*up[last].Close = 105
	*up[last].High = 106
	*up[last].Low = 99
	*down[last].Open = 100
	*down[last].Close = 95
	*down[last].High = 101
	*down[last].Low = 94

	provider := &fakeProvider{series: map[string][]models.RawPricePoint{"AAPL": up, "MSFT": down}}
	source := metricsUsecase(t, provider, newFakeMetricsStore(), nil, "clickhouse")
	cmp := NewComparison(source, []string{"AAPL", "MSFT"}, testLogger(t))

	board, err := cmp.TopMovers(context.Background())
	if err != nil {
		t.Fatalf("top movers: %v", err)
	}
	if len(board.Gainers) != 1 || board.Gainers[0].Symbol != "AAPL" {
		t.Fatalf("unexpected gainers: %+v", board.Gainers)
	}
	if len(board.Losers) != 1 || board.Losers[0].Symbol != "MSFT" {
		t.Fatalf("unexpected losers: %+v", board.Losers)
	}
	if board.Gainers[0].DailyChange <= 0 || board.Losers[0].DailyChange >= 0 {
		t.Fatalf("mover signs wrong: %+v", board)
	}
}
