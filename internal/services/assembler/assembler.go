// Package assembler joins per-ticker performance and fundamentals into one
// wide metric record per ticker.
package assembler

import (
	"context"
	"fmt"
	"strings"

	"github.com/bobmcallan/scorecard/internal/common"
	"github.com/bobmcallan/scorecard/internal/interfaces"
	"github.com/bobmcallan/scorecard/internal/models"
)

// Look-back windows in years
const (
	LongWindow  = 10
	ShortWindow = 5
)

// Assembler builds TickerMetricRecords
type Assembler struct {
	analyzer     interfaces.PerformanceAnalyzer
	fundamentals interfaces.FundamentalsFetcher
	logger       *common.Logger
}

// NewAssembler creates a new Assembler
func NewAssembler(analyzer interfaces.PerformanceAnalyzer, fundamentals interfaces.FundamentalsFetcher, logger *common.Logger) *Assembler {
	return &Assembler{
		analyzer:     analyzer,
		fundamentals: fundamentals,
		logger:       logger,
	}
}

// NormalizeTickers trims and de-duplicates the list, keeping first
// occurrence. A blank entry or an empty list is an error.
func NormalizeTickers(tickers []string) ([]string, error) {
	if len(tickers) == 0 {
		return nil, fmt.Errorf("ticker list is empty")
	}
	seen := make(map[string]bool, len(tickers))
	out := make([]string, 0, len(tickers))
	for i, t := range tickers {
		t = strings.TrimSpace(t)
		if t == "" {
			return nil, fmt.Errorf("ticker at position %d is blank", i)
		}
		if seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out, nil
}

// Assemble produces one record per ticker in input order. Tickers whose data
// sources fail still get a record, with the affected fields null.
func (a *Assembler) Assemble(ctx context.Context, tickers []string) ([]models.TickerMetricRecord, error) {
	list, err := NormalizeTickers(tickers)
	if err != nil {
		return nil, err
	}

	records := make([]models.TickerMetricRecord, 0, len(list))
	for _, ticker := range list {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("assemble cancelled at %s: %w", ticker, err)
		}
		records = append(records, a.AssembleOne(ctx, ticker))
	}
	return records, nil
}

// AssembleOne gathers every metric for a single ticker.
func (a *Assembler) AssembleOne(ctx context.Context, ticker string) models.TickerMetricRecord {
	long := a.analyzer.Analyze(ctx, ticker, LongWindow)
	short := a.analyzer.Analyze(ctx, ticker, ShortWindow)

	rec := models.TickerMetricRecord{
		Ticker:             ticker,
		AvgAnnualReturn10Y: long.AnnualizedReturnPct,
		TrendR2_10Y:        long.TrendR2,
		AvgAnnualReturn5Y:  short.AnnualizedReturnPct,
		SBCPercentOfFCF:    a.fundamentals.SBCPercentOfFCF(ctx, ticker),
		NetDebtToEBITDA:    a.fundamentals.NetDebtToEBITDA(ctx, ticker),
	}
	rec.SetGrowth(a.fundamentals.GrowthMetrics(ctx, ticker))

	a.logger.Debug().
		Str("ticker", ticker).
		Str("return_10y", rec.AvgAnnualReturn10Y.String()).
		Str("r2_10y", rec.TrendR2_10Y.String()).
		Str("return_5y", rec.AvgAnnualReturn5Y.String()).
		Msg("Assembled ticker metrics")

	return rec
}
