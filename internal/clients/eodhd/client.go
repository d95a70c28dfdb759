// Package eodhd provides a client for the EODHD API
package eodhd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/bobmcallan/scorecard/internal/common"
	"github.com/bobmcallan/scorecard/internal/interfaces"
	"github.com/bobmcallan/scorecard/internal/models"
)

// flexFloat handles JSON values that may be a number, a numeric string or
// null. Unparseable and empty values are treated as missing.
type flexFloat struct {
	value float64
	ok    bool
}

func (f *flexFloat) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*f = flexFloat{}
		return nil
	}
	var num float64
	if err := json.Unmarshal(data, &num); err == nil {
		*f = flexFloat{value: num, ok: true}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		num, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			*f = flexFloat{}
			return nil
		}
		*f = flexFloat{value: num, ok: true}
		return nil
	}
	return fmt.Errorf("cannot unmarshal %s into float64", string(data))
}

func (f flexFloat) null() models.NullFloat {
	if !f.ok {
		return models.Null()
	}
	return models.Float(f.value)
}

const (
	DefaultBaseURL   = "https://eodhd.com/api"
	DefaultTimeout   = 30 * time.Second
	DefaultRateLimit = 10 // requests per second
)

// Client implements interfaces.MarketDataClient against EODHD
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *common.Logger
	limiter    *rate.Limiter
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

// NewClient creates a new EODHD client
func NewClient(apiKey string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		limiter: rate.NewLimiter(rate.Limit(DefaultRateLimit), DefaultRateLimit),
		logger:  common.NewSilentLogger(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// APIError represents an API error
type APIError struct {
	StatusCode int
	Message    string
	Endpoint   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("EODHD API error: %s (status: %d, endpoint: %s)", e.Message, e.StatusCode, e.Endpoint)
}

// get performs a rate-limited GET request
func (c *Client) get(ctx context.Context, path string, params url.Values, result interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	if params == nil {
		params = url.Values{}
	}
	params.Set("api_token", c.apiKey)
	params.Set("fmt", "json")

	reqURL := fmt.Sprintf("%s%s?%s", c.baseURL, path, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	c.logger.Debug().Str("url", c.baseURL+path).Msg("EODHD API request")

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

// eodBarResponse represents the API response for EOD data
type eodBarResponse struct {
	Date          string    `json:"date"`
	Close         flexFloat `json:"close"`
	AdjustedClose flexFloat `json:"adjusted_close"`
}

type dividendResponse struct {
	Date  string    `json:"date"`
	Value flexFloat `json:"value"`
}

// GetPriceHistory retrieves adjusted daily closes and dividends in [from, to).
// EODHD treats "to" as inclusive, so the request ends the day before.
func (c *Client) GetPriceHistory(ctx context.Context, ticker string, from, to time.Time) (*models.PriceSeries, error) {
	params := url.Values{}
	params.Set("period", "d")
	params.Set("order", "a")
	params.Set("from", from.Format(models.DateLayout))
	params.Set("to", to.AddDate(0, 0, -1).Format(models.DateLayout))

	var bars []eodBarResponse
	if err := c.get(ctx, "/eod/"+ticker, params, &bars); err != nil {
		return nil, err
	}

	series := &models.PriceSeries{Ticker: ticker}
	for _, bar := range bars {
		date, err := time.Parse(models.DateLayout, bar.Date)
		if err != nil {
			continue
		}
		price := bar.AdjustedClose
		if !price.ok {
			price = bar.Close
		}
		if !price.ok {
			continue
		}
		series.Bars = append(series.Bars, models.PriceBar{Date: date, AdjClose: price.value})
	}
	sort.SliceStable(series.Bars, func(i, j int) bool {
		return series.Bars[i].Date.Before(series.Bars[j].Date)
	})

	divParams := url.Values{}
	divParams.Set("from", from.Format(models.DateLayout))
	divParams.Set("to", to.AddDate(0, 0, -1).Format(models.DateLayout))

	var divs []dividendResponse
	if err := c.get(ctx, "/div/"+ticker, divParams, &divs); err != nil {
		return nil, fmt.Errorf("dividends: %w", err)
	}
	for _, d := range divs {
		date, err := time.Parse(models.DateLayout, d.Date)
		if err != nil || !d.Value.ok {
			continue
		}
		series.Dividends = append(series.Dividends, models.Dividend{Date: date, Amount: d.Value.value})
	}

	return series, nil
}

// fundamentalsResponse holds the subset of /fundamentals used for scoring
type fundamentalsResponse struct {
	Highlights struct {
		EBITDA flexFloat `json:"EBITDA"`
	} `json:"Highlights"`
	Financials struct {
		CashFlow struct {
			Yearly map[string]struct {
				Date                   string    `json:"date"`
				StockBasedCompensation flexFloat `json:"stockBasedCompensation"`
				FreeCashFlow           flexFloat `json:"freeCashFlow"`
			} `json:"yearly"`
		} `json:"Cash_Flow"`
		BalanceSheet struct {
			Quarterly map[string]struct {
				Date                        string    `json:"date"`
				ShortLongTermDebtTotal      flexFloat `json:"shortLongTermDebtTotal"`
				CashAndShortTermInvestments flexFloat `json:"cashAndShortTermInvestments"`
				Cash                        flexFloat `json:"cash"`
			} `json:"quarterly"`
		} `json:"Balance_Sheet"`
	} `json:"Financials"`
}

func (c *Client) getFundamentals(ctx context.Context, ticker string) (*fundamentalsResponse, error) {
	var resp fundamentalsResponse
	if err := c.get(ctx, "/fundamentals/"+ticker, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// latestKey returns the greatest date key of a statement map
func latestKey[V any](m map[string]V) string {
	latest := ""
	for k := range m {
		if k > latest {
			latest = k
		}
	}
	return latest
}

// GetCashFlow retrieves the most recent annual cash-flow statement
func (c *Client) GetCashFlow(ctx context.Context, ticker string) (*models.CashFlowStatement, error) {
	resp, err := c.getFundamentals(ctx, ticker)
	if err != nil {
		return nil, err
	}

	stmt := &models.CashFlowStatement{Ticker: ticker}
	key := latestKey(resp.Financials.CashFlow.Yearly)
	if key == "" {
		return stmt, nil
	}
	row := resp.Financials.CashFlow.Yearly[key]
	stmt.PeriodEnd, _ = time.Parse(models.DateLayout, key)
	stmt.StockBasedCompensation = row.StockBasedCompensation.null()
	stmt.FreeCashFlow = row.FreeCashFlow.null()

	return stmt, nil
}

// GetSummary retrieves total debt and cash from the latest quarterly balance
// sheet, and EBITDA from the highlights block.
func (c *Client) GetSummary(ctx context.Context, ticker string) (*models.SummaryInfo, error) {
	resp, err := c.getFundamentals(ctx, ticker)
	if err != nil {
		return nil, err
	}

	info := &models.SummaryInfo{
		Ticker: ticker,
		EBITDA: resp.Highlights.EBITDA.null(),
	}
	if key := latestKey(resp.Financials.BalanceSheet.Quarterly); key != "" {
		row := resp.Financials.BalanceSheet.Quarterly[key]
		info.TotalDebt = row.ShortLongTermDebtTotal.null()
		cash := row.CashAndShortTermInvestments
		if !cash.ok {
			cash = row.Cash
		}
		info.TotalCash = cash.null()
	}

	return info, nil
}

// Ensure Client implements MarketDataClient
var _ interfaces.MarketDataClient = (*Client)(nil)
