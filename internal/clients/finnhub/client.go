// Package finnhub provides a client for the Finnhub basic-financials API
package finnhub

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/bobmcallan/scorecard/internal/common"
	"github.com/bobmcallan/scorecard/internal/interfaces"
	"github.com/bobmcallan/scorecard/internal/models"
)

const (
	DefaultBaseURL         = "https://finnhub.io/api/v1"
	DefaultTimeout         = 10 * time.Second
	DefaultRateLimit       = 1 // requests per second, free tier allows 60/min
	DefaultBreakerFailures = 5
	DefaultBreakerCooldown = time.Minute

	tokenHeader = "X-Finnhub-Token"
)

// ErrBreakerOpen is returned while the circuit breaker short-circuits calls
var ErrBreakerOpen = errors.New("finnhub circuit breaker open")

// Client implements interfaces.MetricsClient
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *common.Logger
	limiter    *rate.Limiter
	breaker    *gobreaker.CircuitBreaker

	breakerFailures uint32
	breakerCooldown time.Duration
}

// ClientOption configures the client
type ClientOption func(*Client)

// WithBaseURL sets the base URL
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithLogger sets the logger
func WithLogger(logger *common.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithRateLimit sets the rate limit
func WithRateLimit(requestsPerSecond int) ClientOption {
	return func(c *Client) {
		if requestsPerSecond > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond)
		}
	}
}

// WithTimeout sets the HTTP timeout
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithBreaker sets how many consecutive failures open the circuit breaker
// and how long it stays open. A zero failure count disables tripping.
func WithBreaker(failures int, cooldown time.Duration) ClientOption {
	return func(c *Client) {
		if failures >= 0 {
			c.breakerFailures = uint32(failures)
		}
		if cooldown > 0 {
			c.breakerCooldown = cooldown
		}
	}
}

// NewClient creates a new Finnhub client
func NewClient(apiKey string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		limiter:         rate.NewLimiter(rate.Limit(DefaultRateLimit), DefaultRateLimit),
		logger:          common.NewSilentLogger(),
		breakerFailures: DefaultBreakerFailures,
		breakerCooldown: DefaultBreakerCooldown,
	}

	for _, opt := range opts {
		opt(c)
	}

	c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "finnhub",
		Timeout: c.breakerCooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return c.breakerFailures > 0 && counts.ConsecutiveFailures >= c.breakerFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			c.logger.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("Circuit breaker state changed")
		},
	})

	return c
}

// APIError represents an API error
type APIError struct {
	StatusCode int
	Message    string
	Endpoint   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("Finnhub API error: %s (status: %d, endpoint: %s)", e.Message, e.StatusCode, e.Endpoint)
}

// get performs a rate-limited GET request through the circuit breaker
func (c *Client) get(ctx context.Context, path string, params url.Values, result interface{}) error {
	_, err := c.breaker.Execute(func() (interface{}, error) {
		return nil, c.do(ctx, path, params, result)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%w: %v", ErrBreakerOpen, err)
	}
	return err
}

func (c *Client) do(ctx context.Context, path string, params url.Values, result interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	reqURL := fmt.Sprintf("%s%s?%s", c.baseURL, path, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set(tokenHeader, c.apiKey)

	c.logger.Debug().Str("url", c.baseURL+path).Msg("Finnhub API request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &APIError{
			StatusCode: resp.StatusCode,
			Message:    string(body),
			Endpoint:   path,
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}

type metricResponse struct {
	Metric map[string]json.RawMessage `json:"metric"`
}

// number decodes a metric value, treating absent, null and non-numeric
// values as unknown.
func number(m map[string]json.RawMessage, key string) models.NullFloat {
	raw, ok := m[key]
	if !ok {
		return models.Null()
	}
	var v *float64
	if err := json.Unmarshal(raw, &v); err != nil {
		return models.Null()
	}
	return models.FloatPtr(v)
}

// GetGrowthMetrics retrieves the growth and profitability block of the
// basic-financials endpoint. Values are returned as reported.
func (c *Client) GetGrowthMetrics(ctx context.Context, ticker string) (*models.GrowthMetrics, error) {
	params := url.Values{}
	params.Set("symbol", ticker)
	params.Set("metric", "all")

	var resp metricResponse
	if err := c.get(ctx, "/stock/metric", params, &resp); err != nil {
		return nil, err
	}

	m := resp.Metric
	return &models.GrowthMetrics{
		RevenueGrowth5Y:       number(m, "revenueGrowth5Y"),
		RevenueGrowthLastYear: number(m, "revenueGrowthTTMYoy"),
		FreeCashFlowCAGR5Y:    number(m, "focfCagr5Y"),
		EPSGrowth5Y:           number(m, "epsGrowth5Y"),
		EPSGrowth3Y:           number(m, "epsGrowth3Y"),
		ROIC5Y:                number(m, "roi5Y"),
		ROIAnnual:             number(m, "roiAnnual"),
		GrossMargin5Y:         number(m, "grossMargin5Y"),
		GrossMarginAnnual:     number(m, "grossMarginAnnual"),
	}, nil
}

// BreakerState reports the circuit breaker state ("closed", "open", "half-open")
func (c *Client) BreakerState() string {
	return c.breaker.State().String()
}

// Ensure Client implements MetricsClient
var _ interfaces.MetricsClient = (*Client)(nil)
