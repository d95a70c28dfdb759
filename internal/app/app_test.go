package app

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/scorecard/internal/common"
	"github.com/bobmcallan/scorecard/internal/models"
)

var testNow = time.Date(2024, 3, 5, 22, 0, 0, 0, time.Local)

// fakeMarket serves a rising price series for every ticker and logs each
// call to its logger.
type fakeMarket struct {
	logger *common.Logger
	block  chan struct{}

	mu    sync.Mutex
	calls int
}

func (f *fakeMarket) GetPriceHistory(_ context.Context, ticker string, from, to time.Time) (*models.PriceSeries, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.block != nil {
		<-f.block
	}
	if f.logger != nil {
		f.logger.Info().Str("ticker", ticker).Msg("price history")
	}
	return &models.PriceSeries{
		Ticker: ticker,
		Bars: []models.PriceBar{
			{Date: from, AdjClose: 100},
			{Date: from.AddDate(0, 6, 0), AdjClose: 110},
			{Date: to.AddDate(0, 0, -1), AdjClose: 124},
		},
		Dividends: []models.Dividend{{Date: from.AddDate(0, 3, 0), Amount: 2}},
	}, nil
}

func (f *fakeMarket) GetCashFlow(_ context.Context, ticker string) (*models.CashFlowStatement, error) {
	return &models.CashFlowStatement{
		Ticker:                 ticker,
		StockBasedCompensation: models.Float(5),
		FreeCashFlow:           models.Float(50),
	}, nil
}

func (f *fakeMarket) GetSummary(_ context.Context, ticker string) (*models.SummaryInfo, error) {
	return &models.SummaryInfo{
		Ticker:    ticker,
		TotalDebt: models.Float(100),
		TotalCash: models.Float(50),
		EBITDA:    models.Float(100),
	}, nil
}

// fakeMetrics fails for the tickers in fail
type fakeMetrics struct {
	fail map[string]bool
}

func (f *fakeMetrics) GetGrowthMetrics(_ context.Context, ticker string) (*models.GrowthMetrics, error) {
	if f.fail[ticker] {
		return nil, errors.New("dial tcp: connection refused")
	}
	return &models.GrowthMetrics{
		RevenueGrowth5Y:       models.Float(12.345),
		RevenueGrowthLastYear: models.Float(8),
		FreeCashFlowCAGR5Y:    models.Float(15),
		EPSGrowth5Y:           models.Float(20),
		EPSGrowth3Y:           models.Float(9),
		ROIC5Y:                models.Float(22),
		ROIAnnual:             models.Float(18),
		GrossMargin5Y:         models.Float(65),
		GrossMarginAnnual:     models.Float(62),
	}, nil
}

func newTestApp(t *testing.T, market *fakeMarket, metrics *fakeMetrics, opts ...Option) *App {
	t.Helper()
	config := common.NewDefaultConfig()
	config.History.Path = t.TempDir()
	config.Tickers = []string{"AAA", "BBB"}

	opts = append([]Option{WithClock(func() time.Time { return testNow })}, opts...)
	return New(config, common.NewSilentLogger(), market, metrics, opts...)
}

func counterValue(t *testing.T, a *App, name, label, value string) float64 {
	t.Helper()
	families, err := a.Telemetry.Registry().Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			for _, lp := range m.GetLabel() {
				if lp.GetName() == label && lp.GetValue() == value {
					return m.GetCounter().GetValue()
				}
			}
		}
	}
	return 0
}

func TestRun_OneAggregatorFailureStillWritesBothTables(t *testing.T) {
	a := newTestApp(t, &fakeMarket{}, &fakeMetrics{fail: map[string]bool{"CCC": true}})
	tickers := []string{"AAA", "BBB", "CCC", "DDD", "EEE"}

	result, err := a.Run(context.Background(), tickers)
	require.NoError(t, err)

	require.Len(t, result.Metrics, 5)
	for _, rec := range result.Metrics {
		if rec.Ticker == "CCC" {
			assert.True(t, rec.RevenueGrowth5Y.IsNull())
			assert.True(t, rec.GrossMarginAnnual.IsNull())
		} else {
			assert.Equal(t, models.Float(12.35), rec.RevenueGrowth5Y, rec.Ticker)
		}
		assert.Equal(t, models.Float(10), rec.SBCPercentOfFCF, rec.Ticker)
		assert.Equal(t, models.Float(0.5), rec.NetDebtToEBITDA, rec.Ticker)
		assert.False(t, rec.AvgAnnualReturn10Y.IsNull(), rec.Ticker)
	}
	assert.Equal(t, 1, result.Failures["metrics"])
	assert.Equal(t, "CCC", result.Scores[len(result.Scores)-1].Ticker, "lowest normalised score ranks last")
	assert.NotEmpty(t, result.RunID)
	assert.Equal(t, testNow, result.At)

	metrics, err := a.Store.LoadMetrics(context.Background())
	require.NoError(t, err)
	assert.Len(t, metrics, 5)
	for _, r := range metrics {
		assert.Equal(t, "2024-03-05", r.Date)
		assert.Equal(t, "2024-03-05 22:00:00", r.Timestamp)
	}

	scores, err := a.Store.LoadScores(context.Background())
	require.NoError(t, err)
	assert.Len(t, scores, 5)

	assert.Equal(t, 1.0, counterValue(t, a, "scorecard_runs_total", "result", "success"))
	assert.Equal(t, 1.0, counterValue(t, a, "scorecard_fetch_failures_total", "source", "metrics"))
}

func TestRun_TwiceSameDayIsIdempotent(t *testing.T) {
	a := newTestApp(t, &fakeMarket{}, &fakeMetrics{})

	_, err := a.Run(context.Background(), nil)
	require.NoError(t, err)
	first, err := os.ReadFile(a.Config.History.ScoresPath())
	require.NoError(t, err)

	_, err = a.Run(context.Background(), nil)
	require.NoError(t, err)
	second, err := os.ReadFile(a.Config.History.ScoresPath())
	require.NoError(t, err)

	assert.Equal(t, string(first), string(second))
	assert.Equal(t, 3, strings.Count(string(second), "\n"), "header plus one row per configured ticker")
}

func TestRun_NilMetricsClient(t *testing.T) {
	config := common.NewDefaultConfig()
	config.History.Path = t.TempDir()
	a := New(config, common.NewSilentLogger(), &fakeMarket{}, nil, WithClock(func() time.Time { return testNow }))

	result, err := a.Run(context.Background(), []string{"AAA"})
	require.NoError(t, err)
	assert.True(t, result.Metrics[0].ROIC5Y.IsNull())
	assert.Empty(t, result.Failures)
}

func TestRun_InvalidTickerListIsFatal(t *testing.T) {
	a := newTestApp(t, &fakeMarket{}, &fakeMetrics{})

	_, err := a.Run(context.Background(), []string{"AAA", " "})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to assemble metrics")

	_, statErr := os.Stat(a.Config.History.MetricsPath())
	assert.True(t, os.IsNotExist(statErr), "nothing may be written")
	assert.Equal(t, 1.0, counterValue(t, a, "scorecard_runs_total", "result", "error"))
}

func TestRun_OnAssembledBeforeHistoryWrite(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "blocker")
	require.NoError(t, os.WriteFile(blocker, nil, 0644))

	config := common.NewDefaultConfig()
	config.History.Path = blocker
	a := New(config, common.NewSilentLogger(), &fakeMarket{}, &fakeMetrics{}, WithClock(func() time.Time { return testNow }))

	var seen []models.TickerMetricRecord
	_, err := a.Run(context.Background(), []string{"AAA", "BBB"}, OnAssembled(func(records []models.TickerMetricRecord) {
		seen = records
	}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to write metrics history")
	require.Len(t, seen, 2, "metric table is delivered even when the write fails")
	assert.Equal(t, "AAA", seen[0].Ticker)
}

func TestRun_QuietsClientLoggerAndRestores(t *testing.T) {
	var buf bytes.Buffer
	clientLogger := common.NewLoggerWithOutput("debug", &buf)
	a := newTestApp(t, &fakeMarket{logger: clientLogger}, &fakeMetrics{}, WithClientLogger(clientLogger))
	a.Config.Logging.QuietClients = true

	_, err := a.Run(context.Background(), []string{"AAA"})
	require.NoError(t, err)
	assert.Empty(t, buf.String(), "client diagnostics must be silenced during a run")

	clientLogger.Info().Msg("after run")
	assert.Contains(t, buf.String(), "after run")
}

func TestRun_VerboseClientsWhenNotQuiet(t *testing.T) {
	var buf bytes.Buffer
	clientLogger := common.NewLoggerWithOutput("debug", &buf)
	a := newTestApp(t, &fakeMarket{logger: clientLogger}, &fakeMetrics{}, WithClientLogger(clientLogger))
	a.Config.Logging.QuietClients = false

	_, err := a.Run(context.Background(), []string{"AAA"})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "price history")
}

func TestRun_ConcurrentRunsSerialised(t *testing.T) {
	market := &fakeMarket{block: make(chan struct{})}
	a := newTestApp(t, market, &fakeMetrics{})

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := a.Run(context.Background(), []string{"AAA"})
			assert.NoError(t, err)
		}()
	}

	// Only the first run may reach the market client while it is blocked
	time.Sleep(50 * time.Millisecond)
	market.mu.Lock()
	assert.Equal(t, 1, market.calls)
	market.mu.Unlock()

	close(market.block)
	wg.Wait()
}

func TestNew_DefaultStoreUsesConfiguredPaths(t *testing.T) {
	a := newTestApp(t, &fakeMarket{}, &fakeMetrics{})
	require.NotNil(t, a.Store)
	require.NotNil(t, a.Reports)
	require.NotNil(t, a.Assembler)

	_, err := a.Run(context.Background(), nil)
	require.NoError(t, err)

	_, err = os.Stat(a.Config.History.MetricsPath())
	assert.NoError(t, err)
	_, err = os.Stat(a.Config.History.ScoresPath())
	assert.NoError(t, err)
}

func TestNewMarketClient_EODHDRequiresKey(t *testing.T) {
	t.Setenv("EODHD_API_KEY", "")
	t.Setenv("SCORECARD_EODHD_API_KEY", "")
	config := common.NewDefaultConfig()
	config.Market.Provider = "eodhd"

	_, err := newMarketClient(config, common.NewSilentLogger())
	require.Error(t, err)

	t.Setenv("EODHD_API_KEY", "demo")
	client, err := newMarketClient(config, common.NewSilentLogger())
	require.NoError(t, err)
	assert.NotNil(t, client)
}

func TestNewMetricsClient_MissingKeyIsNil(t *testing.T) {
	t.Setenv("FINNHUB_API_KEY", "")
	t.Setenv("SCORECARD_FINNHUB_API_KEY", "")
	config := common.NewDefaultConfig()

	assert.Nil(t, newMetricsClient(config, common.NewSilentLogger(), common.NewSilentLogger()))

	t.Setenv("FINNHUB_API_KEY", "k")
	assert.NotNil(t, newMetricsClient(config, common.NewSilentLogger(), common.NewSilentLogger()))
}
