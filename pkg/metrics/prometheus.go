package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	rowsStored  *prometheus.CounterVec
	errorsTotal *prometheus.CounterVec
	lastPrice   *prometheus.GaugeVec
	latency     *prometheus.HistogramVec
	modelScore  *prometheus.GaugeVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		rowsStored: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stocksight_metrics_rows_stored_total",
				Help: "Total number of metrics rows written to a backend",
			},
			[]string{"backend", "symbol"},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stocksight_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		lastPrice: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "stocksight_last_price",
				Help: "Last cleaned closing price for a symbol",
			},
			[]string{"symbol"},
		),
		latency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "stocksight_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		modelScore: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "stocksight_model_r2_score",
				Help: "Held-out R2 of the most recent training run per symbol",
			},
			[]string{"symbol"},
		),
	}
}

// RecordRowsStored records metrics rows written to a backend.
func (r *Recorder) RecordRowsStored(backend, symbol string, n int) {
	r.rowsStored.WithLabelValues(backend, symbol).Add(float64(n))
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLastPrice records the last price for a symbol.
func (r *Recorder) RecordLastPrice(symbol string, price float64) {
	r.lastPrice.WithLabelValues(symbol).Set(price)
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}

// RecordModelScore records the evaluation R2 of a freshly trained model.
func (r *Recorder) RecordModelScore(symbol string, r2 float64) {
	r.modelScore.WithLabelValues(symbol).Set(r2)
}
