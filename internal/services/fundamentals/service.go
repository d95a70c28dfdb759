// Package fundamentals derives balance-sheet and dilution ratios and
// collects aggregator growth metrics. Every operation is fault isolated:
// failures become null values, never errors.
package fundamentals

import (
	"context"

	"github.com/bobmcallan/scorecard/internal/common"
	"github.com/bobmcallan/scorecard/internal/interfaces"
	"github.com/bobmcallan/scorecard/internal/models"
)

// Failure sources reported to the failure hook
const (
	SourceCashFlow = "cashflow"
	SourceSummary  = "summary"
	SourceMetrics  = "metrics"
)

// Service implements interfaces.FundamentalsFetcher
type Service struct {
	market    interfaces.MarketDataClient
	metrics   interfaces.MetricsClient
	logger    *common.Logger
	onFailure func(source string)
}

// NewService creates a new fundamentals service. onFailure may be nil.
func NewService(market interfaces.MarketDataClient, metrics interfaces.MetricsClient, logger *common.Logger, onFailure func(source string)) *Service {
	if onFailure == nil {
		onFailure = func(string) {}
	}
	return &Service{
		market:    market,
		metrics:   metrics,
		logger:    logger,
		onFailure: onFailure,
	}
}

// SBCPercentOfFCF returns stock-based compensation as a percentage of free
// cash flow for the latest annual period, rounded to 2 places.
func (s *Service) SBCPercentOfFCF(ctx context.Context, ticker string) models.NullFloat {
	stmt, err := s.market.GetCashFlow(ctx, ticker)
	if err != nil {
		s.onFailure(SourceCashFlow)
		s.logger.Debug().Err(err).Str("ticker", ticker).Msg("Cash flow unavailable")
		return models.Null()
	}
	return SBCRatio(stmt.StockBasedCompensation, stmt.FreeCashFlow)
}

// SBCRatio computes sbc/fcf*100 rounded to 2 places; null when either input
// is unknown or fcf is zero.
func SBCRatio(sbc, fcf models.NullFloat) models.NullFloat {
	if sbc.IsNull() || fcf.IsNull() || fcf.Value == 0 {
		return models.Null()
	}
	return models.Float(sbc.Value / fcf.Value * 100).Round(2)
}

// NetDebtToEBITDA returns (total debt - total cash) / EBITDA, unrounded.
func (s *Service) NetDebtToEBITDA(ctx context.Context, ticker string) models.NullFloat {
	info, err := s.market.GetSummary(ctx, ticker)
	if err != nil {
		s.onFailure(SourceSummary)
		s.logger.Debug().Err(err).Str("ticker", ticker).Msg("Summary unavailable")
		return models.Null()
	}
	return NetDebtRatio(info.TotalDebt, info.TotalCash, info.EBITDA)
}

// NetDebtRatio is null when any input is unknown or EBITDA is zero.
func NetDebtRatio(debt, cash, ebitda models.NullFloat) models.NullFloat {
	if debt.IsNull() || cash.IsNull() || ebitda.IsNull() || ebitda.Value == 0 {
		return models.Null()
	}
	return models.Float((debt.Value - cash.Value) / ebitda.Value)
}

// GrowthMetrics returns the aggregator metrics rounded to 2 places, or an
// all-null set when the aggregator cannot be reached or knows nothing about
// the ticker. Both cases count as a metrics failure.
func (s *Service) GrowthMetrics(ctx context.Context, ticker string) models.GrowthMetrics {
	if s.metrics == nil {
		return models.EmptyGrowthMetrics()
	}
	m, err := s.metrics.GetGrowthMetrics(ctx, ticker)
	if err != nil || m == nil {
		s.onFailure(SourceMetrics)
		s.logger.Debug().Err(err).Str("ticker", ticker).Msg("Growth metrics unavailable")
		return models.EmptyGrowthMetrics()
	}
	if m.Empty() {
		// unknown symbols come back as an empty metric map
		s.onFailure(SourceMetrics)
		s.logger.Debug().Str("ticker", ticker).Msg("Growth metrics empty")
		return models.EmptyGrowthMetrics()
	}
	return m.Rounded(2)
}

// Ensure Service implements FundamentalsFetcher
var _ interfaces.FundamentalsFetcher = (*Service)(nil)
