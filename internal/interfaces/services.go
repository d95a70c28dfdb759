package interfaces

import (
	"context"

	"github.com/bobmcallan/scorecard/internal/models"
)

// PerformanceAnalyzer computes trailing return and trend quality
type PerformanceAnalyzer interface {
	Analyze(ctx context.Context, ticker string, years int) models.Performance
}

// FundamentalsFetcher derives fundamental ratios. Every method degrades to
// null (or an empty metric set) instead of returning an error.
type FundamentalsFetcher interface {
	SBCPercentOfFCF(ctx context.Context, ticker string) models.NullFloat
	NetDebtToEBITDA(ctx context.Context, ticker string) models.NullFloat
	GrowthMetrics(ctx context.Context, ticker string) models.GrowthMetrics
}
