package yahoo

import (
	"context"
	"net/url"
	"sort"
	"strconv"
	"time"

	"github.com/bobmcallan/scorecard/internal/models"
)

type chartResponse struct {
	Chart struct {
		Result []struct {
			Timestamp []int64 `json:"timestamp"`
			Events    struct {
				Dividends map[string]struct {
					Amount float64 `json:"amount"`
					Date   int64   `json:"date"`
				} `json:"dividends"`
			} `json:"events"`
			Indicators struct {
				AdjClose []struct {
					AdjClose []*float64 `json:"adjclose"`
				} `json:"adjclose"`
			} `json:"indicators"`
		} `json:"result"`
		Error *yahooError `json:"error"`
	} `json:"chart"`
}

// GetPriceHistory retrieves adjusted daily closes and dividends in [from, to).
// Days without an adjusted close are skipped.
func (c *Client) GetPriceHistory(ctx context.Context, ticker string, from, to time.Time) (*models.PriceSeries, error) {
	path := "/v8/finance/chart/" + url.PathEscape(ticker)

	params := url.Values{}
	params.Set("period1", strconv.FormatInt(from.Unix(), 10))
	params.Set("period2", strconv.FormatInt(to.Unix(), 10))
	params.Set("interval", "1d")
	params.Set("events", "div")
	params.Set("includeAdjustedClose", "true")

	var resp chartResponse
	if err := c.get(ctx, path, params, false, &resp); err != nil {
		return nil, err
	}
	if err := resp.Chart.Error.err(path); err != nil {
		return nil, err
	}

	series := &models.PriceSeries{Ticker: ticker}
	if len(resp.Chart.Result) == 0 {
		return series, nil
	}
	data := resp.Chart.Result[0]

	var adj []*float64
	if len(data.Indicators.AdjClose) > 0 {
		adj = data.Indicators.AdjClose[0].AdjClose
	}

	for i, ts := range data.Timestamp {
		if i >= len(adj) || adj[i] == nil {
			continue
		}
		price := adj[i]
		series.Bars = append(series.Bars, models.PriceBar{
			Date:     time.Unix(ts, 0).UTC(),
			AdjClose: *price,
		})
	}

	for _, d := range data.Events.Dividends {
		date := time.Unix(d.Date, 0).UTC()
		if date.Before(from) || !date.Before(to) {
			continue
		}
		series.Dividends = append(series.Dividends, models.Dividend{Date: date, Amount: d.Amount})
	}
	sort.Slice(series.Dividends, func(i, j int) bool {
		return series.Dividends[i].Date.Before(series.Dividends[j].Date)
	})

	c.logger.Debug().
		Str("ticker", ticker).
		Int("bars", len(series.Bars)).
		Int("dividends", len(series.Dividends)).
		Msg("Fetched price history")

	return series, nil
}

