package usecase

import (
	"context"
	"encoding/json"
	"time"

	"StockSight/internal/domain/models"
	domrepo "StockSight/internal/domain/repository"
	pkgkafka "StockSight/pkg/kafka"
)

// KafkaMetricsRowsHandler consumes published metrics rows and writes them to
// the metrics store. This is the ingest half of the kafka backend: producers
// publish rows per symbol, this handler lands them in ClickHouse.
type KafkaMetricsRowsHandler struct {
	topic   string
	store   domrepo.MetricsStore
	metrics domrepo.Metrics
}

func NewKafkaMetricsRowsHandler(topic string, store domrepo.MetricsStore, metrics domrepo.Metrics) *KafkaMetricsRowsHandler {
	return &KafkaMetricsRowsHandler{topic: topic, store: store, metrics: metrics}
}

func (h *KafkaMetricsRowsHandler) Topic() string { return h.topic }

func (h *KafkaMetricsRowsHandler) Handle(ctx context.Context, b []byte) error {
	var row models.MetricsRow
	if err := json.Unmarshal(b, &row); err != nil {
		h.metrics.RecordError("consumer_unmarshal")
		return err
	}

	start := time.Now()
	err := h.store.ReplaceAll(ctx, row.Symbol, []models.MetricsRow{row})
	h.metrics.RecordLatency("ch_insert_seconds", time.Since(start).Seconds())
	if err != nil {
		h.metrics.RecordError("consumer_store")
		return err
	}
	h.metrics.RecordRowsStored("clickhouse", row.Symbol, 1)
	return nil
}

var _ pkgkafka.MessageHandler = (*KafkaMetricsRowsHandler)(nil)
