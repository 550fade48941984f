package di

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"StockSight/internal/domain/repository"
	"StockSight/internal/handler/api"
	internalrepo "StockSight/internal/repository"
	"StockSight/internal/service/marketdata"
	"StockSight/internal/services/forecast"
	"StockSight/internal/usecase"
	pkgcache "StockSight/pkg/cache"
	pkgch "StockSight/pkg/clickhouse"
	"StockSight/pkg/config"
	pkgkafka "StockSight/pkg/kafka"
	"StockSight/pkg/logger"
	"StockSight/pkg/metrics"
	"StockSight/pkg/queue"
	"StockSight/pkg/server"
)

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*logger.Logger, error) {
	return logger.New(&logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideClickHouseClient creates a ClickHouse client and applies the
// metrics schema.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, cfg.ClickHouse.WaitForAsync),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := client.InitSchema(ctx, internalrepo.MetricsSchema); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}

	return client, nil
}

// ProvideMetricsStore creates the ClickHouse metrics store.
func ProvideMetricsStore(chClient *pkgch.Client) repository.MetricsStore {
	return internalrepo.NewClickHouseMetricsStore(chClient.DB())
}

// ProvideKafkaProducer creates a Kafka producer for the kafka backend.
// Returns nil when the backend is clickhouse.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	if cfg.Backend.Type != "kafka" {
		return nil, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatchSize(cfg.Kafka.Producer.BatchSize),
		pkgkafka.WithBatchBytes(cfg.Kafka.Producer.BatchBytes),
		pkgkafka.WithBatchTimeout(cfg.Kafka.Producer.Linger),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvidePublisher creates the metrics row publisher, nil when no producer.
func ProvidePublisher(producer *pkgkafka.Producer, cfg *config.Config) repository.Publisher {
	if producer == nil {
		return nil
	}
	return internalrepo.NewKafkaMetricsPublisher(producer, cfg.Kafka.Topic)
}

// ProvideKafkaConsumer creates the consumer that lands published rows in
// ClickHouse. Returns nil when the backend is clickhouse.
func ProvideKafkaConsumer(cfg *config.Config) (*pkgkafka.Consumer, error) {
	if cfg.Backend.Type != "kafka" {
		return nil, nil
	}
	consumer, err := pkgkafka.NewConsumer(
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(cfg.Kafka.Consumer.GroupID),
		pkgkafka.WithConsumerWorkers(cfg.Kafka.Consumer.Workers),
		pkgkafka.WithConsumerBufferSize(cfg.Kafka.Consumer.BufferSize),
		pkgkafka.WithConsumerRetry(cfg.Kafka.Consumer.RetryMax, cfg.Kafka.Consumer.BackoffMin, cfg.Kafka.Consumer.BackoffMax),
		pkgkafka.WithConsumerDLQ(cfg.Kafka.Consumer.DLQTopic),
		pkgkafka.WithConsumerFetch(cfg.Kafka.Consumer.MinBytes, cfg.Kafka.Consumer.MaxBytes),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	return consumer, nil
}

// ProvideRowsHandler creates the consumer-side handler for metrics rows.
func ProvideRowsHandler(cfg *config.Config, store repository.MetricsStore, m repository.Metrics) *usecase.KafkaMetricsRowsHandler {
	return usecase.NewKafkaMetricsRowsHandler(cfg.Kafka.Topic, store, m)
}

// ProvideRedisCache creates the Redis cache, nil when Redis is disabled.
func ProvideRedisCache(cfg *config.Config) (*pkgcache.RedisCache, error) {
	if !cfg.Redis.Enabled {
		return nil, nil
	}
	host, portStr, err := net.SplitHostPort(cfg.Redis.Addr)
	if err != nil {
		return nil, fmt.Errorf("redis addr: %w", err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, fmt.Errorf("redis port: %w", err)
	}
	return pkgcache.NewRedisCache(
		pkgcache.WithRedisHost(host),
		pkgcache.WithRedisPort(port),
		pkgcache.WithRedisPassword(cfg.Redis.Password),
		pkgcache.WithRedisDB(cfg.Redis.DB),
	)
}

// ProvideCacheService picks the model artifact cache. Memory-fronted Redis
// when enabled, in-process memory otherwise.
func ProvideCacheService(rc *pkgcache.RedisCache) pkgcache.Service {
	if rc == nil {
		return pkgcache.NewMemoryCache()
	}
	return pkgcache.NewLayeredCache(rc)
}

// ProvideModelStore creates the trained model store.
func ProvideModelStore(cs pkgcache.Service) repository.ModelStore {
	return internalrepo.NewRedisModelStore(cs)
}

// ProvideRedisQueue creates the training work queue, nil without Redis.
// Jobs are registered in ProvideApp once the training usecase exists.
func ProvideRedisQueue(cfg *config.Config, log *logger.Logger, rc *pkgcache.RedisCache) *queue.RedisQueue {
	if rc == nil {
		return nil
	}
	qc := &queue.QueueConfig{
		Workers:    cfg.ML.TrainWorkers,
		QueueSize:  256,
		RetryLimit: 3,
		RetryDelay: 30 * time.Second,
	}
	return queue.NewRedisQueue(log, qc, rc.Client(), queue.ModeProducerConsumer)
}

// ProvideQueueService exposes the queue as its publish interface.
func ProvideQueueService(q *queue.RedisQueue) queue.QueueService {
	if q == nil {
		return nil
	}
	return q
}

// ProvidePriceProvider creates the OHLCV market data client.
func ProvidePriceProvider(cfg *config.Config, log *logger.Logger) repository.PriceProvider {
	return marketdata.New(cfg.Provider.BaseURL, cfg.Provider.APIKey, log,
		marketdata.WithRateLimit(cfg.Provider.RatePerSecond, cfg.Provider.RateBurst),
		marketdata.WithTimeout(cfg.Provider.Timeout),
	)
}

// ProvideStockMetrics creates the metrics usecase.
func ProvideStockMetrics(
	provider repository.PriceProvider,
	store repository.MetricsStore,
	pub repository.Publisher,
	m repository.Metrics,
	cfg *config.Config,
	log *logger.Logger,
) *usecase.StockMetrics {
	return usecase.NewStockMetrics(provider, store, pub, m, cfg.Backend.Type, log)
}

// ProvideTrainer creates the model trainer.
func ProvideTrainer(ms repository.ModelStore, log *logger.Logger) *forecast.Trainer {
	return forecast.NewTrainer(ms, log)
}

// ProvidePredictor creates the forecaster.
func ProvidePredictor(ms repository.ModelStore, log *logger.Logger) *forecast.Predictor {
	return forecast.NewPredictor(ms, log)
}

// ProvideTraining creates the training usecase.
func ProvideTraining(
	source *usecase.StockMetrics,
	trainer *forecast.Trainer,
	m repository.Metrics,
	qs queue.QueueService,
	cfg *config.Config,
	log *logger.Logger,
) *usecase.Training {
	return usecase.NewTraining(source, trainer, m, qs, cfg.Symbols, log)
}

// ProvidePrediction creates the prediction usecase.
func ProvidePrediction(source *usecase.StockMetrics, predictor *forecast.Predictor, m repository.Metrics) *usecase.Prediction {
	return usecase.NewPrediction(source, predictor, m)
}

// ProvideComparison creates the cross-symbol comparison usecase.
func ProvideComparison(source *usecase.StockMetrics, cfg *config.Config, log *logger.Logger) *usecase.Comparison {
	return usecase.NewComparison(source, cfg.Symbols, log)
}

// ProvideStocksHandler creates the HTTP API handler.
func ProvideStocksHandler(
	metricsUC *usecase.StockMetrics,
	training *usecase.Training,
	prediction *usecase.Prediction,
	comparison *usecase.Comparison,
	cfg *config.Config,
	log *logger.Logger,
) *api.StocksHandler {
	return api.NewStocksHandler(metricsUC, training, prediction, comparison, cfg.Cache.ResponseTTL, log)
}

// ProvideApp assembles the application server and hooks the training job
// onto the queue workers.
func ProvideApp(
	cfg *config.Config,
	handler *api.StocksHandler,
	consumer *pkgkafka.Consumer,
	rowsHandler *usecase.KafkaMetricsRowsHandler,
	chClient *pkgch.Client,
	q *queue.RedisQueue,
	training *usecase.Training,
	pub repository.Publisher,
	rc *pkgcache.RedisCache,
	log *logger.Logger,
) *server.App {
	if q != nil {
		q.RegisterJob(usecase.NewTrainSymbolJob(training))
	}
	return server.New(cfg, handler, consumer, rowsHandler, chClient, q, pub, rc, log)
}
