package yahoo

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, routes map[string]string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/test/getcrumb", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("test-crumb"))
	})
	for path, body := range routes {
		body := body
		mux.HandleFunc(path, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(body))
		})
	}
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestClient(srv *httptest.Server) *Client {
	return NewClient(WithBaseURL(srv.URL), WithCookieURL(""), WithRateLimit(100))
}

func TestGetPriceHistory_SkipsBarsWithoutAdjustedClose(t *testing.T) {
	body := `{"chart":{"result":[{
		"timestamp":[1672664400,1672750800,1672837200],
		"indicators":{
			"quote":[{"close":[101.0,102.0,103.0]}],
			"adjclose":[{"adjclose":[100.0,null]}]
		}
	}],"error":null}}`

	mux := http.NewServeMux()
	mux.HandleFunc("/v8/finance/chart/AAA", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(body))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	from := time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC)
	series, err := newTestClient(srv).GetPriceHistory(context.Background(), "AAA", from, from.AddDate(0, 0, 5))
	require.NoError(t, err)
	require.Len(t, series.Bars, 1, "unadjusted closes must not fill gaps")
	assert.Equal(t, 100.0, series.Bars[0].AdjClose)
}

func TestGetPriceHistory(t *testing.T) {
	from := time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC)

	body := `{"chart":{"result":[{
		"timestamp":[1672664400,1672750800,1704229200],
		"events":{"dividends":{"1688000000":{"amount":2.0,"date":1688000000},"1500000000":{"amount":9.0,"date":1500000000}}},
		"indicators":{
			"quote":[{"close":[101.0,null,125.0]}],
			"adjclose":[{"adjclose":[100.0,null,124.0]}]
		}
	}],"error":null}}`

	var gotQuery string
	mux := http.NewServeMux()
	mux.HandleFunc("/v8/finance/chart/AAA", func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		assert.NotEmpty(t, r.Header.Get("User-Agent"))
		w.Write([]byte(body))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	series, err := newTestClient(srv).GetPriceHistory(context.Background(), "AAA", from, to)
	require.NoError(t, err)

	assert.Contains(t, gotQuery, "events=div")
	assert.Contains(t, gotQuery, "period1=1672617600")
	require.Len(t, series.Bars, 2, "null quote must be skipped")
	assert.Equal(t, 100.0, series.Bars[0].AdjClose)
	assert.Equal(t, 124.0, series.Bars[1].AdjClose)
	require.Len(t, series.Dividends, 1, "dividend outside range must be dropped")
	assert.Equal(t, 2.0, series.DividendTotal())
}

func TestGetPriceHistory_EnvelopeError(t *testing.T) {
	srv := newTestServer(t, map[string]string{
		"/v8/finance/chart/BAD": `{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found, symbol may be delisted"}}}`,
	})

	_, err := newTestClient(srv).GetPriceHistory(context.Background(), "BAD", time.Now().AddDate(-1, 0, 0), time.Now())
	require.Error(t, err)
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Contains(t, apiErr.Message, "Not Found")
}

func TestGetPriceHistory_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "too many requests", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := newTestClient(srv).GetPriceHistory(context.Background(), "AAA", time.Now().AddDate(-1, 0, 0), time.Now())
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusTooManyRequests, apiErr.StatusCode)
}

func TestGetCashFlow_LatestPeriod(t *testing.T) {
	body := `{"timeseries":{"result":[
		{"meta":{"symbol":["AAA"],"type":["annualStockBasedCompensation"]},
		 "annualStockBasedCompensation":[
			{"asOfDate":"2022-12-31","reportedValue":{"raw":4.0}},
			{"asOfDate":"2023-12-31","reportedValue":{"raw":5.0}}]},
		{"meta":{"symbol":["AAA"],"type":["annualFreeCashFlow"]},
		 "annualFreeCashFlow":[
			{"asOfDate":"2022-12-31","reportedValue":{"raw":40.0}},
			null,
			{"asOfDate":"2023-12-31","reportedValue":{"raw":50.0}}]}
	],"error":null}}`

	var crumb string
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/test/getcrumb", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("abc123"))
	})
	mux.HandleFunc("/ws/fundamentals-timeseries/v1/finance/timeseries/AAA", func(w http.ResponseWriter, r *http.Request) {
		crumb = r.URL.Query().Get("crumb")
		w.Write([]byte(body))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	stmt, err := newTestClient(srv).GetCashFlow(context.Background(), "AAA")
	require.NoError(t, err)
	assert.Equal(t, "abc123", crumb)
	assert.Equal(t, "2023-12-31", stmt.PeriodEnd.Format("2006-01-02"))
	assert.Equal(t, 5.0, stmt.StockBasedCompensation.Value)
	assert.Equal(t, 50.0, stmt.FreeCashFlow.Value)
}

func TestGetCashFlow_MissingSeriesIsNull(t *testing.T) {
	srv := newTestServer(t, map[string]string{
		"/ws/fundamentals-timeseries/v1/finance/timeseries/AAA": `{"timeseries":{"result":[
			{"meta":{"type":["annualFreeCashFlow"]},
			 "annualFreeCashFlow":[{"asOfDate":"2023-12-31","reportedValue":{"raw":50.0}}]},
			{"meta":{"type":["annualStockBasedCompensation"]}}
		],"error":null}}`,
	})

	stmt, err := newTestClient(srv).GetCashFlow(context.Background(), "AAA")
	require.NoError(t, err)
	assert.True(t, stmt.StockBasedCompensation.IsNull())
	assert.False(t, stmt.FreeCashFlow.IsNull())
}

func TestGetSummary(t *testing.T) {
	srv := newTestServer(t, map[string]string{
		"/v10/finance/quoteSummary/AAA": `{"quoteSummary":{"result":[{"financialData":{
			"totalDebt":{"raw":300.0,"fmt":"300"},
			"totalCash":{"raw":100.0,"fmt":"100"},
			"ebitda":{}
		}}],"error":null}}`,
	})

	info, err := newTestClient(srv).GetSummary(context.Background(), "AAA")
	require.NoError(t, err)
	assert.Equal(t, 300.0, info.TotalDebt.Value)
	assert.Equal(t, 100.0, info.TotalCash.Value)
	assert.True(t, info.EBITDA.IsNull())
}

func TestEnsureCrumb_FailureIsTolerated(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/test/getcrumb", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	})
	mux.HandleFunc("/v10/finance/quoteSummary/AAA", func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.URL.Query().Get("crumb"))
		w.Write([]byte(`{"quoteSummary":{"result":[],"error":null}}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	info, err := newTestClient(srv).GetSummary(context.Background(), "AAA")
	require.NoError(t, err)
	assert.True(t, info.TotalDebt.IsNull())
}

func TestEnsureCrumb_RetriesAfterFailure(t *testing.T) {
	var crumbCalls int32
	var sent []string
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/test/getcrumb", func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&crumbCalls, 1) == 1 {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		w.Write([]byte("second-try"))
	})
	mux.HandleFunc("/v10/finance/quoteSummary/AAA", func(w http.ResponseWriter, r *http.Request) {
		sent = append(sent, r.URL.Query().Get("crumb"))
		w.Write([]byte(`{"quoteSummary":{"result":[],"error":null}}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	client := newTestClient(srv)
	for i := 0; i < 3; i++ {
		_, err := client.GetSummary(context.Background(), "AAA")
		require.NoError(t, err)
	}

	assert.Equal(t, []string{"", "second-try", "second-try"}, sent)
	assert.Equal(t, int32(2), atomic.LoadInt32(&crumbCalls), "crumb is cached once issued")
}
