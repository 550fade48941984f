package api

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"StockSight/internal/domain/models"
	drepo "StockSight/internal/domain/repository"
	icache "StockSight/internal/service/cache"
	smetrics "StockSight/internal/service/metrics"
	"StockSight/internal/service/ratelimit"
	"StockSight/internal/services/forecast"
	"StockSight/internal/usecase"
	xhttp "StockSight/pkg/http"
	"StockSight/pkg/logger"
)

const (
	rateLimitCapacity = 30
	rateLimitRefill   = 10 // tokens per second, per client IP
)

// StocksHandler exposes the stock analytics API over echo.
type StocksHandler struct {
	metricsUC  *usecase.StockMetrics
	training   *usecase.Training
	prediction *usecase.Prediction
	comparison *usecase.Comparison

	respCache *icache.TTLCache
	cacheTTL  time.Duration
	limiter   *ratelimit.Limiter
	logger    *logger.Logger
}

func NewStocksHandler(
	metricsUC *usecase.StockMetrics,
	training *usecase.Training,
	prediction *usecase.Prediction,
	comparison *usecase.Comparison,
	cacheTTL time.Duration,
	log *logger.Logger,
) *StocksHandler {
	return &StocksHandler{
		metricsUC:  metricsUC,
		training:   training,
		prediction: prediction,
		comparison: comparison,
		respCache:  icache.NewTTLCache(),
		cacheTTL:   cacheTTL,
		limiter:    ratelimit.New(),
		logger:     log,
	}
}

func (h *StocksHandler) RegisterRoutes(e *echo.Echo) {
	smetrics.Register()

	e.GET("/health", h.Health)

	g := e.Group("/api", h.rateLimit)
	g.GET("/stocks/:symbol/metrics", h.GetMetrics)
	g.GET("/stocks/:symbol/summary", h.GetSummary)
	g.GET("/stocks/:symbol/quality", h.GetQuality)
	g.POST("/train", h.Train)
	g.POST("/predict", h.Predict)
	g.GET("/features/importance", h.Importance)
	g.GET("/compare", h.Compare)
	g.GET("/compare/matrix", h.CorrelationMatrix)
	g.GET("/top-movers", h.TopMovers)
}

// Health is the liveness probe.
func (h *StocksHandler) Health(c echo.Context) error {
	return xhttp.SuccessResponse(c, map[string]string{"status": "ok"})
}

// rateLimit applies a per-IP token bucket to every API route.
func (h *StocksHandler) rateLimit(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if !h.limiter.Allow(c.RealIP(), rateLimitCapacity, rateLimitRefill) {
			smetrics.APIErrors.WithLabelValues("rate_limit").Inc()
			return xhttp.AppErrorResponse(c,
				xhttp.NewAppError("ERR_RATE_LIMITED", "", "too many requests", http.StatusTooManyRequests))
		}
		return next(c)
	}
}

// GetMetrics returns the last N metrics-annotated rows for a symbol.
func (h *StocksHandler) GetMetrics(c echo.Context) error {
	req := new(models.MetricsRequest)
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	key := fmt.Sprintf("metrics:%s:%s:%d", req.Symbol, req.Period, req.Days)
	if v, ok := h.respCache.Get(key); ok {
		return xhttp.SuccessResponse(c, v)
	}

	endpoint := "get_metrics"
	start := time.Now()
	rows, err := h.metricsUC.GetMetrics(c.Request().Context(), req.Symbol, drepo.NormalizePeriod(req.Period))
	if err != nil {
		return h.fail(c, endpoint, req.Symbol, err)
	}
	smetrics.APILatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())

	res := map[string]interface{}{
		"symbol": req.Symbol,
		"period": string(drepo.NormalizePeriod(req.Period)),
		"rows":   usecase.Tail(rows, req.Days),
	}
	h.respCache.Set(key, res, h.cacheTTL)
	return xhttp.SuccessResponse(c, res)
}

// GetSummary returns headline statistics for a symbol's history.
func (h *StocksHandler) GetSummary(c echo.Context) error {
	req := new(models.SummaryRequest)
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	key := fmt.Sprintf("summary:%s:%s", req.Symbol, req.Period)
	if v, ok := h.respCache.Get(key); ok {
		return xhttp.SuccessResponse(c, v)
	}

	endpoint := "get_summary"
	start := time.Now()
	stats, err := h.metricsUC.GetSummary(c.Request().Context(), req.Symbol, drepo.NormalizePeriod(req.Period))
	if err != nil {
		return h.fail(c, endpoint, req.Symbol, err)
	}
	smetrics.APILatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())

	h.respCache.Set(key, stats, h.cacheTTL)
	return xhttp.SuccessResponse(c, stats)
}

// GetQuality reports on the cleaned series behind a symbol's metrics.
func (h *StocksHandler) GetQuality(c echo.Context) error {
	req := new(models.SummaryRequest)
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	endpoint := "get_quality"
	start := time.Now()
	report, err := h.metricsUC.GetQuality(c.Request().Context(), req.Symbol, drepo.NormalizePeriod(req.Period))
	if err != nil {
		return h.fail(c, endpoint, req.Symbol, err)
	}
	smetrics.APILatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	return xhttp.SuccessResponse(c, report)
}

// Train fits a model for one symbol, or schedules training for all of them.
func (h *StocksHandler) Train(c echo.Context) error {
	req := new(models.TrainRequest)
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	endpoint := "train"
	start := time.Now()

	if req.All {
		count, err := h.training.TrainAll(c.Request().Context(), req.Period)
		if err != nil {
			return h.fail(c, endpoint, "all", err)
		}
		smetrics.APILatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
		return xhttp.SuccessResponse(c, map[string]interface{}{
			"scheduled": count,
			"period":    req.Period,
		})
	}

	res, err := h.training.Train(c.Request().Context(), req.Symbol, req.Period)
	if err != nil {
		return h.fail(c, endpoint, req.Symbol, err)
	}
	smetrics.APILatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	return xhttp.SuccessResponse(c, res)
}

// Predict forecasts the next closes for a symbol from its trained model.
func (h *StocksHandler) Predict(c echo.Context) error {
	req := new(models.PredictRequest)
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	endpoint := "predict"
	start := time.Now()
	res, err := h.prediction.Predict(c.Request().Context(), req.Symbol, req.Period, req.Days)
	if err != nil {
		return h.fail(c, endpoint, req.Symbol, err)
	}
	smetrics.APILatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	return xhttp.SuccessResponse(c, res)
}

// Importance returns the top feature importances of a symbol's model.
func (h *StocksHandler) Importance(c echo.Context) error {
	req := new(models.ImportanceRequest)
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	endpoint := "importance"
	start := time.Now()
	imp, err := h.training.Importance(c.Request().Context(), req.Symbol, req.Top)
	if err != nil {
		return h.fail(c, endpoint, req.Symbol, err)
	}
	smetrics.APILatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	return xhttp.SuccessResponse(c, map[string]interface{}{
		"symbol":   req.Symbol,
		"features": imp,
	})
}

// Compare builds a correlation and performance report for two symbols.
func (h *StocksHandler) Compare(c echo.Context) error {
	req := new(models.CompareRequest)
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	key := fmt.Sprintf("compare:%s:%s:%s", req.Symbol1, req.Symbol2, req.Period)
	if v, ok := h.respCache.Get(key); ok {
		return xhttp.SuccessResponse(c, v)
	}

	endpoint := "compare"
	start := time.Now()
	res, err := h.comparison.Compare(c.Request().Context(), req.Symbol1, req.Symbol2, req.Period)
	if err != nil {
		return h.fail(c, endpoint, req.Symbol1+"/"+req.Symbol2, err)
	}
	smetrics.APILatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())

	h.respCache.Set(key, res, h.cacheTTL)
	return xhttp.SuccessResponse(c, res)
}

// CorrelationMatrix returns pairwise return correlations over all configured
// symbols.
func (h *StocksHandler) CorrelationMatrix(c echo.Context) error {
	period := c.QueryParam("period")

	key := "compare-matrix:" + string(drepo.NormalizePeriod(period))
	if v, ok := h.respCache.Get(key); ok {
		return xhttp.SuccessResponse(c, v)
	}

	endpoint := "correlation_matrix"
	start := time.Now()
	res, err := h.comparison.Matrix(c.Request().Context(), period)
	if err != nil {
		return h.fail(c, endpoint, "", err)
	}
	smetrics.APILatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())

	h.respCache.Set(key, res, h.cacheTTL)
	return xhttp.SuccessResponse(c, res)
}

// TopMovers ranks configured symbols by their latest daily return.
func (h *StocksHandler) TopMovers(c echo.Context) error {
	const key = "top-movers"
	if v, ok := h.respCache.Get(key); ok {
		return xhttp.SuccessResponse(c, v)
	}

	endpoint := "top_movers"
	start := time.Now()
	res, err := h.comparison.TopMovers(c.Request().Context())
	if err != nil {
		return h.fail(c, endpoint, "", err)
	}
	smetrics.APILatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())

	h.respCache.Set(key, res, h.cacheTTL)
	return xhttp.SuccessResponse(c, res)
}

// fail maps domain errors to HTTP status codes and records the failure.
func (h *StocksHandler) fail(c echo.Context, endpoint, subject string, err error) error {
	smetrics.APIErrors.WithLabelValues(endpoint).Inc()
	h.logger.Error("request failed",
		logger.String("endpoint", endpoint),
		logger.String("subject", subject),
		logger.Error(err))
	return xhttp.AppErrorResponse(c, h.toAppError(subject, err))
}

func (h *StocksHandler) toAppError(subject string, err error) error {
	switch {
	case errors.Is(err, drepo.ErrModelNotFound):
		return xhttp.NotFoundErrorf("no trained model for %s", subject).WithError(err)
	case forecast.IsInsufficientData(err),
		errors.Is(err, usecase.ErrInsufficientOverlap),
		errors.Is(err, forecast.ErrNoData):
		return xhttp.BadRequestError(err.Error()).WithError(err)
	case errors.Is(err, drepo.ErrUnavailable):
		return xhttp.NotFoundErrorf("no data for %s", subject).WithError(err)
	}
	return err
}

var _ xhttp.Handler = (*StocksHandler)(nil)
