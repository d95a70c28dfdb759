// Package interfaces defines service contracts for scorecard
package interfaces

import (
	"context"
	"time"

	"github.com/bobmcallan/scorecard/internal/models"
)

// MarketDataClient provides prices, dividends and financial statements for
// a ticker. Implemented by the Yahoo and EODHD clients.
type MarketDataClient interface {
	// GetPriceHistory retrieves adjusted daily closes and dividends in [from, to)
	GetPriceHistory(ctx context.Context, ticker string, from, to time.Time) (*models.PriceSeries, error)

	// GetCashFlow retrieves the most recent annual cash-flow statement
	GetCashFlow(ctx context.Context, ticker string) (*models.CashFlowStatement, error)

	// GetSummary retrieves total debt, total cash and EBITDA
	GetSummary(ctx context.Context, ticker string) (*models.SummaryInfo, error)
}

// MetricsClient provides pre-computed growth and profitability metrics
type MetricsClient interface {
	GetGrowthMetrics(ctx context.Context, ticker string) (*models.GrowthMetrics, error)
}
