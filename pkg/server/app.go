package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"StockSight/internal/domain/repository"
	pkgcache "StockSight/pkg/cache"
	pkgch "StockSight/pkg/clickhouse"
	"StockSight/pkg/config"
	xhttp "StockSight/pkg/http"
	pkgkafka "StockSight/pkg/kafka"
	applogger "StockSight/pkg/logger"
	"StockSight/pkg/queue"
)

// App encapsulates the application lifecycle: the HTTP API, the optional
// Kafka ingest consumer and the optional Redis training queue.
type App struct {
	cfg        *config.Config
	handler    xhttp.Handler
	consumer   *pkgkafka.Consumer
	kh         pkgkafka.MessageHandler
	chClient   *pkgch.Client
	queue      *queue.RedisQueue
	publisher  repository.Publisher
	redisCache *pkgcache.RedisCache
	log        *applogger.Logger

	httpServer *xhttp.Server
}

// New creates an App. consumer, queue, publisher and redisCache may be nil
// depending on the configured backend.
func New(
	cfg *config.Config,
	handler xhttp.Handler,
	consumer *pkgkafka.Consumer,
	kh pkgkafka.MessageHandler,
	chClient *pkgch.Client,
	q *queue.RedisQueue,
	publisher repository.Publisher,
	redisCache *pkgcache.RedisCache,
	log *applogger.Logger,
) *App {
	return &App{
		cfg:        cfg,
		handler:    handler,
		consumer:   consumer,
		kh:         kh,
		chClient:   chClient,
		queue:      q,
		publisher:  publisher,
		redisCache: redisCache,
		log:        log,
	}
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a.httpServer = xhttp.NewServer(a.handler,
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
		xhttp.WithHTTPMetrics(a.log, time.Second),
	)

	if a.queue != nil {
		if err := a.queue.Start(); err != nil {
			a.log.Error("training queue start error", applogger.Error(err))
			return err
		}
		a.log.Info("training queue started",
			applogger.Int("workers", a.cfg.ML.TrainWorkers))

		// aggregate repeated error logs through the queue instead of
		// flooding the log stream
		a.log.AddCollector(&applogger.CollectionConfig{
			TimeInterval:   30 * time.Second,
			CountThreshold: 100,
			Topic:          "log_aggregates",
			Publisher:      a.queue,
		})
	}

	if a.consumer != nil && a.kh != nil {
		a.consumer.RegisterHandler(a.kh)
		go func() {
			if err := a.consumer.Start(); err != nil {
				a.log.Error("kafka consumer error", applogger.Error(err))
			}
		}()
		a.log.Info("kafka consumer started", applogger.String("topic", a.kh.Topic()))
	}

	if err := a.httpServer.Start(); err != nil {
		a.log.Error("http server start error", applogger.Error(err))
		return err
	}
	a.log.Info("http server started",
		applogger.Int("port", a.cfg.Server.Port),
		applogger.String("backend", a.cfg.Backend.Type),
		applogger.Strings("symbols", a.cfg.Symbols))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	a.log.Info("shutdown signal received")
	return a.shutdown(ctx)
}

// shutdown gracefully stops all services.
func (a *App) shutdown(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, a.cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		a.log.Error("http shutdown error", applogger.Error(err))
	}

	if a.consumer != nil {
		if err := a.consumer.Stop(shutdownCtx); err != nil {
			a.log.Warn("kafka consumer stop error", applogger.Error(err))
		}
	}

	if a.queue != nil {
		a.log.RemoveCollector()
		if err := a.queue.Stop(shutdownCtx); err != nil {
			a.log.Warn("training queue stop error", applogger.Error(err))
		}
	}

	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			a.log.Warn("publisher close error", applogger.Error(err))
		}
	}

	if a.chClient != nil {
		if err := a.chClient.Close(); err != nil {
			a.log.Warn("clickhouse close error", applogger.Error(err))
		}
	}

	if a.redisCache != nil {
		if err := a.redisCache.Close(); err != nil {
			a.log.Warn("redis close error", applogger.Error(err))
		}
	}

	a.log.Info("shutdown complete")
	return nil
}
