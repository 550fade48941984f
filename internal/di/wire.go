//go:build wireinject
// +build wireinject

package di

import (
	"StockSight/pkg/config"
	"StockSight/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire generates the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure clients
		ProvideClickHouseClient,
		ProvideKafkaProducer,
		ProvideKafkaConsumer,
		ProvideRedisCache,
		ProvideCacheService,
		ProvideRedisQueue,
		ProvideQueueService,

		// Repositories
		ProvideMetricsStore,
		ProvidePublisher,
		ProvideModelStore,
		ProvidePriceProvider,

		// Use cases
		ProvideStockMetrics,
		ProvideTrainer,
		ProvidePredictor,
		ProvideTraining,
		ProvidePrediction,
		ProvideComparison,
		ProvideRowsHandler,

		// HTTP and application server
		ProvideStocksHandler,
		ProvideApp,
	)
	return &server.App{}, nil
}
