package repository

import (
	"context"

	"StockSight/internal/domain/models"
	"StockSight/internal/domain/repository"
	pkgkafka "StockSight/pkg/kafka"
)

// KafkaMetricsPublisher implements Publisher for Kafka. Rows are keyed by
// symbol so one symbol's series stays ordered within a partition.
type KafkaMetricsPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

// NewKafkaMetricsPublisher creates a Kafka publisher for metrics rows.
func NewKafkaMetricsPublisher(producer *pkgkafka.Producer, topic string) repository.Publisher {
	return &KafkaMetricsPublisher{producer: producer, topic: topic}
}

func (p *KafkaMetricsPublisher) PublishRows(ctx context.Context, symbol string, rows []models.MetricsRow) error {
	if len(rows) == 0 {
		return nil
	}
	msgs := make([]pkgkafka.Message, len(rows))
	for i, r := range rows {
		msgs[i] = pkgkafka.Message{
			Key:   []byte(symbol),
			Value: r,
		}
	}
	return p.producer.PublishBatch(ctx, p.topic, msgs)
}

func (p *KafkaMetricsPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}
