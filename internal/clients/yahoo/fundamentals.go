package yahoo

import (
	"context"
	"encoding/json"
	"net/url"
	"strconv"
	"time"

	"github.com/bobmcallan/scorecard/internal/models"
)

const (
	seriesSBC = "annualStockBasedCompensation"
	seriesFCF = "annualFreeCashFlow"
)

// timeseriesLookback bounds the fundamentals-timeseries query
const timeseriesLookback = 10 * 365 * 24 * time.Hour

type timeseriesResponse struct {
	Timeseries struct {
		Result []map[string]json.RawMessage `json:"result"`
		Error  *yahooError                  `json:"error"`
	} `json:"timeseries"`
}

type timeseriesMeta struct {
	Type []string `json:"type"`
}

type timeseriesPoint struct {
	AsOfDate      string   `json:"asOfDate"`
	ReportedValue rawValue `json:"reportedValue"`
}

// GetCashFlow retrieves stock-based compensation and free cash flow for the
// most recent annual period reported by either series. A series with no
// value for that period yields null.
func (c *Client) GetCashFlow(ctx context.Context, ticker string) (*models.CashFlowStatement, error) {
	path := "/ws/fundamentals-timeseries/v1/finance/timeseries/" + url.PathEscape(ticker)

	now := time.Now()
	params := url.Values{}
	params.Set("symbol", ticker)
	params.Set("type", seriesSBC+","+seriesFCF)
	params.Set("period1", strconv.FormatInt(now.Add(-timeseriesLookback).Unix(), 10))
	params.Set("period2", strconv.FormatInt(now.Unix(), 10))

	var resp timeseriesResponse
	if err := c.get(ctx, path, params, true, &resp); err != nil {
		return nil, err
	}
	if err := resp.Timeseries.Error.err(path); err != nil {
		return nil, err
	}

	byType := make(map[string]map[string]float64)
	latest := ""
	for _, item := range resp.Timeseries.Result {
		var meta timeseriesMeta
		if raw, ok := item["meta"]; !ok || json.Unmarshal(raw, &meta) != nil || len(meta.Type) == 0 {
			continue
		}
		name := meta.Type[0]
		raw, ok := item[name]
		if !ok {
			continue
		}
		var points []*timeseriesPoint
		if err := json.Unmarshal(raw, &points); err != nil {
			continue
		}
		values := make(map[string]float64)
		for _, p := range points {
			if p == nil || p.ReportedValue.Raw == nil || p.AsOfDate == "" {
				continue
			}
			values[p.AsOfDate] = *p.ReportedValue.Raw
			if p.AsOfDate > latest {
				latest = p.AsOfDate
			}
		}
		byType[name] = values
	}

	stmt := &models.CashFlowStatement{Ticker: ticker}
	if latest == "" {
		return stmt, nil
	}
	stmt.PeriodEnd, _ = time.Parse(models.DateLayout, latest)
	if v, ok := byType[seriesSBC][latest]; ok {
		stmt.StockBasedCompensation = models.Float(v)
	}
	if v, ok := byType[seriesFCF][latest]; ok {
		stmt.FreeCashFlow = models.Float(v)
	}

	return stmt, nil
}

type quoteSummaryResponse struct {
	QuoteSummary struct {
		Result []struct {
			FinancialData struct {
				TotalDebt rawValue `json:"totalDebt"`
				TotalCash rawValue `json:"totalCash"`
				EBITDA    rawValue `json:"ebitda"`
			} `json:"financialData"`
		} `json:"result"`
		Error *yahooError `json:"error"`
	} `json:"quoteSummary"`
}

// GetSummary retrieves total debt, total cash and EBITDA from the
// financialData module.
func (c *Client) GetSummary(ctx context.Context, ticker string) (*models.SummaryInfo, error) {
	path := "/v10/finance/quoteSummary/" + url.PathEscape(ticker)

	params := url.Values{}
	params.Set("modules", "financialData")

	var resp quoteSummaryResponse
	if err := c.get(ctx, path, params, true, &resp); err != nil {
		return nil, err
	}
	if err := resp.QuoteSummary.Error.err(path); err != nil {
		return nil, err
	}

	info := &models.SummaryInfo{Ticker: ticker}
	if len(resp.QuoteSummary.Result) == 0 {
		return info, nil
	}
	fd := resp.QuoteSummary.Result[0].FinancialData
	info.TotalDebt = models.FloatPtr(fd.TotalDebt.Raw)
	info.TotalCash = models.FloatPtr(fd.TotalCash.Raw)
	info.EBITDA = models.FloatPtr(fd.EBITDA.Raw)

	return info, nil
}
