package fundamentals

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/bobmcallan/scorecard/internal/common"
	"github.com/bobmcallan/scorecard/internal/models"
)

type fakeMarket struct {
	cashFlow    *models.CashFlowStatement
	cashFlowErr error
	summary     *models.SummaryInfo
	summaryErr  error
}

func (f *fakeMarket) GetPriceHistory(context.Context, string, time.Time, time.Time) (*models.PriceSeries, error) {
	return nil, errors.New("not used")
}

func (f *fakeMarket) GetCashFlow(context.Context, string) (*models.CashFlowStatement, error) {
	return f.cashFlow, f.cashFlowErr
}

func (f *fakeMarket) GetSummary(context.Context, string) (*models.SummaryInfo, error) {
	return f.summary, f.summaryErr
}

type fakeMetrics struct {
	metrics *models.GrowthMetrics
	err     error
}

func (f *fakeMetrics) GetGrowthMetrics(context.Context, string) (*models.GrowthMetrics, error) {
	return f.metrics, f.err
}

func TestSBCRatio(t *testing.T) {
	f := models.Float
	tests := []struct {
		name     string
		sbc, fcf models.NullFloat
		want     models.NullFloat
	}{
		{"five_of_fifty", f(5), f(50), f(10)},
		{"rounded", f(1), f(3), f(33.33)},
		{"below_tie", f(1999), f(20000), f(9.99)},
		{"negative_fcf", f(5), f(-50), f(-10)},
		{"zero_fcf", f(5), f(0), models.Null()},
		{"missing_sbc", models.Null(), f(50), models.Null()},
		{"missing_fcf", f(5), models.Null(), models.Null()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SBCRatio(tt.sbc, tt.fcf))
		})
	}
}

func TestNetDebtRatio(t *testing.T) {
	f := models.Float
	assert.Equal(t, f(2), NetDebtRatio(f(300), f(100), f(100)))
	assert.Equal(t, f(-1.5), NetDebtRatio(f(50), f(200), f(100)))
	assert.True(t, NetDebtRatio(f(300), f(100), f(0)).IsNull())
	assert.True(t, NetDebtRatio(models.Null(), f(100), f(100)).IsNull())
	assert.True(t, NetDebtRatio(f(300), models.Null(), f(100)).IsNull())
	assert.True(t, NetDebtRatio(f(300), f(100), models.Null()).IsNull())
	// Not rounded
	assert.Equal(t, f(1.0/3.0), NetDebtRatio(f(2), f(1), f(3)))
}

func TestService_FailuresDegradeToNull(t *testing.T) {
	var failures []string
	svc := NewService(
		&fakeMarket{cashFlowErr: errors.New("boom"), summaryErr: errors.New("boom")},
		&fakeMetrics{err: errors.New("timeout")},
		common.NewSilentLogger(),
		func(s string) { failures = append(failures, s) },
	)
	ctx := context.Background()

	assert.True(t, svc.SBCPercentOfFCF(ctx, "AAA").IsNull())
	assert.True(t, svc.NetDebtToEBITDA(ctx, "AAA").IsNull())
	assert.Equal(t, models.GrowthMetrics{}, svc.GrowthMetrics(ctx, "AAA"))
	assert.Equal(t, []string{SourceCashFlow, SourceSummary, SourceMetrics}, failures)
}

func TestService_EmptyGrowthMetricsCountAsFailure(t *testing.T) {
	var failures []string
	svc := NewService(
		&fakeMarket{},
		&fakeMetrics{metrics: &models.GrowthMetrics{}},
		common.NewSilentLogger(),
		func(s string) { failures = append(failures, s) },
	)

	g := svc.GrowthMetrics(context.Background(), "NOPE")
	assert.True(t, g.Empty())
	assert.Equal(t, []string{SourceMetrics}, failures)
}

func TestService_HappyPath(t *testing.T) {
	svc := NewService(
		&fakeMarket{
			cashFlow: &models.CashFlowStatement{StockBasedCompensation: models.Float(5), FreeCashFlow: models.Float(50)},
			summary:  &models.SummaryInfo{TotalDebt: models.Float(300), TotalCash: models.Float(100), EBITDA: models.Float(200)},
		},
		&fakeMetrics{metrics: &models.GrowthMetrics{RevenueGrowth5Y: models.Float(9.876), ROIAnnual: models.Float(15)}},
		common.NewSilentLogger(),
		nil,
	)
	ctx := context.Background()

	assert.Equal(t, models.Float(10), svc.SBCPercentOfFCF(ctx, "AAA"))
	assert.Equal(t, models.Float(1), svc.NetDebtToEBITDA(ctx, "AAA"))

	g := svc.GrowthMetrics(ctx, "AAA")
	assert.Equal(t, models.Float(9.88), g.RevenueGrowth5Y)
	assert.Equal(t, models.Float(15), g.ROIAnnual)
	assert.True(t, g.EPSGrowth3Y.IsNull())
}
