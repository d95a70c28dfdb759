package models

import (
	"time"
)

// PriceBar is a single day's dividend/split adjusted close
type PriceBar struct {
	Date     time.Time `json:"date"`
	AdjClose float64   `json:"adjusted_close"`
}

// Dividend is a cash distribution paid on Date
type Dividend struct {
	Date   time.Time `json:"date"`
	Amount float64   `json:"amount"`
}

// PriceSeries holds chronologically ordered bars and the dividends paid over
// the same range.
type PriceSeries struct {
	Ticker    string     `json:"ticker"`
	Bars      []PriceBar `json:"bars"`
	Dividends []Dividend `json:"dividends,omitempty"`
}

// DividendTotal sums every dividend in the series.
func (s *PriceSeries) DividendTotal() float64 {
	var total float64
	for _, d := range s.Dividends {
		total += d.Amount
	}
	return total
}

// CashFlowStatement holds the most recent annual cash-flow figures needed for
// dilution scoring.
type CashFlowStatement struct {
	Ticker                 string    `json:"ticker"`
	PeriodEnd              time.Time `json:"period_end"`
	StockBasedCompensation NullFloat `json:"stock_based_compensation"`
	FreeCashFlow           NullFloat `json:"free_cash_flow"`
}

// SummaryInfo holds balance-sheet summary fields
type SummaryInfo struct {
	Ticker    string    `json:"ticker"`
	TotalDebt NullFloat `json:"total_debt"`
	TotalCash NullFloat `json:"total_cash"`
	EBITDA    NullFloat `json:"ebitda"`
}

// GrowthMetrics are the pre-computed growth and profitability figures taken
// from the metrics aggregator. All values are percentages.
type GrowthMetrics struct {
	RevenueGrowth5Y       NullFloat `json:"revenue_growth_5y"`
	RevenueGrowthLastYear NullFloat `json:"revenue_growth_last_year"`
	FreeCashFlowCAGR5Y    NullFloat `json:"free_cash_flow_cagr_5y"`
	EPSGrowth5Y           NullFloat `json:"eps_growth_5y"`
	EPSGrowth3Y           NullFloat `json:"eps_growth_3y"`
	ROIC5Y                NullFloat `json:"roic_5y"`
	ROIAnnual             NullFloat `json:"roi_annual"`
	GrossMargin5Y         NullFloat `json:"gross_margin_5y"`
	GrossMarginAnnual     NullFloat `json:"gross_margin_annual"`
}

// EmptyGrowthMetrics returns a set with every metric unknown.
func EmptyGrowthMetrics() GrowthMetrics {
	return GrowthMetrics{}
}

// Empty reports whether no metric is known.
func (g GrowthMetrics) Empty() bool {
	return g == EmptyGrowthMetrics()
}

// Rounded returns a copy with every known value rounded to places.
func (g GrowthMetrics) Rounded(places int) GrowthMetrics {
	return GrowthMetrics{
		RevenueGrowth5Y:       g.RevenueGrowth5Y.Round(places),
		RevenueGrowthLastYear: g.RevenueGrowthLastYear.Round(places),
		FreeCashFlowCAGR5Y:    g.FreeCashFlowCAGR5Y.Round(places),
		EPSGrowth5Y:           g.EPSGrowth5Y.Round(places),
		EPSGrowth3Y:           g.EPSGrowth3Y.Round(places),
		ROIC5Y:                g.ROIC5Y.Round(places),
		ROIAnnual:             g.ROIAnnual.Round(places),
		GrossMargin5Y:         g.GrossMargin5Y.Round(places),
		GrossMarginAnnual:     g.GrossMarginAnnual.Round(places),
	}
}

// Performance is the result of analysing one look-back window.
type Performance struct {
	TotalReturnPct      NullFloat `json:"total_return_pct"`
	AnnualizedReturnPct NullFloat `json:"annualized_return_pct"`
	TrendR2             NullFloat `json:"trend_r2"`
}
