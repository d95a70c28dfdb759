// Package performance computes trailing returns and trend linearity from
// adjusted price history.
package performance

import (
	"context"
	"math"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/bobmcallan/scorecard/internal/common"
	"github.com/bobmcallan/scorecard/internal/interfaces"
	"github.com/bobmcallan/scorecard/internal/models"
)

const daysPerYear = 365.25

// FailureFunc is notified when a data-source call fails
type FailureFunc func(source string)

// Analyzer implements interfaces.PerformanceAnalyzer
type Analyzer struct {
	market    interfaces.MarketDataClient
	logger    *common.Logger
	now       func() time.Time
	onFailure FailureFunc
}

// Option configures the Analyzer
type Option func(*Analyzer)

// WithClock overrides the source of "today"
func WithClock(now func() time.Time) Option {
	return func(a *Analyzer) {
		a.now = now
	}
}

// WithFailureHook registers a callback for fetch failures
func WithFailureHook(fn FailureFunc) Option {
	return func(a *Analyzer) {
		a.onFailure = fn
	}
}

// NewAnalyzer creates a new Analyzer
func NewAnalyzer(market interfaces.MarketDataClient, logger *common.Logger, opts ...Option) *Analyzer {
	a := &Analyzer{
		market:    market,
		logger:    logger,
		now:       time.Now,
		onFailure: func(string) {},
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// LookbackStart shifts today back by whole calendar years. When that date
// does not exist (29 February in a non-leap year) it falls back to
// 365*years days.
func LookbackStart(today time.Time, years int) time.Time {
	y, m, d := today.Date()
	start := time.Date(y-years, m, d, 0, 0, 0, 0, today.Location())
	if start.Day() != d {
		return today.AddDate(0, 0, -365*years)
	}
	return start
}

// Analyze fetches [start, today+1) and computes the window's total return,
// annualized return and trend R². Every field degrades to null on failure.
func (a *Analyzer) Analyze(ctx context.Context, ticker string, years int) models.Performance {
	now := a.now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	from := LookbackStart(today, years)
	to := today.AddDate(0, 0, 1)

	series, err := a.market.GetPriceHistory(ctx, ticker, from, to)
	if err != nil {
		a.onFailure("market")
		a.logger.Debug().Err(err).Str("ticker", ticker).Int("years", years).Msg("Price history unavailable")
		return models.Performance{}
	}

	return Compute(series)
}

// Compute derives performance from an already fetched series.
func Compute(series *models.PriceSeries) models.Performance {
	if series == nil || len(series.Bars) < 2 {
		return models.Performance{}
	}

	bars := series.Bars
	first, last := bars[0], bars[len(bars)-1]
	if first.AdjClose == 0 {
		return models.Performance{}
	}

	factor := (last.AdjClose-first.AdjClose+series.DividendTotal())/first.AdjClose + 1

	perf := models.Performance{
		TotalReturnPct: models.Float((factor - 1) * 100).Round(2),
		TrendR2:        TrendR2(bars),
	}

	if factor > 0 {
		yearsCovered := float64(daysBetween(first.Date, last.Date)) / daysPerYear
		if yearsCovered > 0 {
			perf.AnnualizedReturnPct = models.Float((math.Pow(factor, 1/yearsCovered) - 1) * 100).Round(2)
		}
	}

	return perf
}

// daysBetween counts whole calendar days from a to b, ignoring the time of
// day so that a DST change cannot shift the count.
func daysBetween(a, b time.Time) int {
	da := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	db := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(db.Sub(da).Hours() / 24)
}

// TrendR2 fits adjusted close against observation index by ordinary least
// squares and returns the coefficient of determination rounded to 4 places.
// A flat series has no defined R² and yields null.
func TrendR2(bars []models.PriceBar) models.NullFloat {
	if len(bars) < 2 {
		return models.Null()
	}

	xs := make([]float64, len(bars))
	ys := make([]float64, len(bars))
	flat := true
	for i, b := range bars {
		xs[i] = float64(i)
		ys[i] = b.AdjClose
		if b.AdjClose != bars[0].AdjClose {
			flat = false
		}
	}
	if flat {
		return models.Null()
	}

	alpha, beta := stat.LinearRegression(xs, ys, nil, false)
	return models.Float(stat.RSquared(xs, ys, nil, alpha, beta)).Round(4)
}

// Ensure Analyzer implements PerformanceAnalyzer
var _ interfaces.PerformanceAnalyzer = (*Analyzer)(nil)
