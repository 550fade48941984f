package marketdata

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"StockSight/internal/domain/models"
	drepo "StockSight/internal/domain/repository"
	"StockSight/internal/service/ratelimit"
	xhttp "StockSight/pkg/http"
	"StockSight/pkg/logger"
)

// Client fetches daily OHLCV candles from a REST market data API.
type Client struct {
	baseURL string
	apiKey  string
	http    *xhttp.Client
	limiter *ratelimit.Limiter
	rate    float64
	burst   float64
	log     *logger.Logger
}

// Option configures Client.
type Option func(*Client)

// WithRateLimit caps upstream requests to refillPerSec with the given burst.
func WithRateLimit(refillPerSec float64, burst int) Option {
	return func(c *Client) {
		c.rate = refillPerSec
		c.burst = float64(burst)
	}
}

// WithTimeout sets the HTTP timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.http = xhttp.NewClient(xhttp.WithTimeout(d))
	}
}

// New creates a candle API client implementing PriceProvider.
func New(baseURL, apiKey string, log *logger.Logger, opts ...Option) drepo.PriceProvider {
	c := &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    xhttp.NewClient(),
		limiter: ratelimit.New(),
		rate:    5,
		burst:   10,
		log:     log,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// candleResponse is the upstream column-oriented daily candle payload.
type candleResponse struct {
	Status string    `json:"s"`
	Times  []int64   `json:"t"`
	Open   []float64 `json:"o"`
	High   []float64 `json:"h"`
	Low    []float64 `json:"l"`
	Close  []float64 `json:"c"`
	Volume []float64 `json:"v"`
}

// Fetch downloads daily history for one symbol over the given period.
// Rows come back unvalidated; rows the upstream only partially filled keep
// their nil fields for the cleaning pipeline to handle.
func (c *Client) Fetch(ctx context.Context, symbol string, period drepo.Period) ([]models.RawPricePoint, error) {
	if !c.limiter.Allow("candles", c.burst, c.rate) {
		return nil, fmt.Errorf("%w: rate limited", drepo.ErrUnavailable)
	}

	to := time.Now().UTC()
	from := to.Add(-period.Duration())

	var cr candleResponse
	err := c.http.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    c.baseURL + "/stock/candle",
		QueryParams: map[string][]string{
			"symbol":     {symbol},
			"resolution": {"D"},
			"from":       {strconv.FormatInt(from.Unix(), 10)},
			"to":         {strconv.FormatInt(to.Unix(), 10)},
			"token":      {c.apiKey},
		},
	}, &cr)
	if err != nil {
		c.log.Warn("candle fetch failed", logger.String("symbol", symbol), logger.Error(err))
		return nil, fmt.Errorf("%w: %s", drepo.ErrUnavailable, symbol)
	}
	if cr.Status != "ok" || len(cr.Times) == 0 {
		return nil, fmt.Errorf("%w: %s (status %q)", drepo.ErrUnavailable, symbol, cr.Status)
	}

	rows := make([]models.RawPricePoint, len(cr.Times))
	for i, ts := range cr.Times {
		rows[i] = models.RawPricePoint{
			Symbol: symbol,
			Date:   time.Unix(ts, 0).UTC().Truncate(24 * time.Hour),
			Open:   at(cr.Open, i),
			High:   at(cr.High, i),
			Low:    at(cr.Low, i),
			Close:  at(cr.Close, i),
			Volume: at(cr.Volume, i),
		}
	}
	c.log.Debug("candles fetched", logger.String("symbol", symbol), logger.Int("rows", len(rows)))
	return rows, nil
}

// at copies one value out of a column, or nil when the column is short.
func at(col []float64, i int) *float64 {
	if i >= len(col) {
		return nil
	}
	v := col[i]
	return &v
}
