package models

// Metric column names as they appear in the metrics history table.
const (
	ColTicker                = "ticker"
	ColAvgAnnualReturn10Y    = "10y_avg_annual_return_%"
	ColTrendR2_10Y           = "10y_R2"
	ColAvgAnnualReturn5Y     = "5y_avg_annual_return_%"
	ColSBCPercentOfFCF       = "SBC_as_%_of_FCF"
	ColNetDebtToEBITDA       = "net_debt_to_ebitda"
	ColRevenueGrowth5Y       = "Revenue_Growth_5Y"
	ColRevenueGrowthLastYear = "Revenue_Growth_LastYear_%"
	ColFreeCashFlow5Y        = "FreeCashFlow5Y"
	ColEPSGrowth5Y           = "EPS_Growth_5Y"
	ColEPSGrowth3Y           = "EPS_Growth_3Y"
	ColROIC5Y                = "ROIC_5Y"
	ColROIAnnual             = "ROI_ANNUAL"
	ColGrossMargin5Y         = "Gross_Margin_5Y"
	ColGrossMarginAnnual     = "Gross_Margin_Annual"
	ColDate                  = "date"
	ColTimestamp             = "horodatage"
)

// MetricColumns lists the numeric metric columns in output order.
var MetricColumns = []string{
	ColAvgAnnualReturn10Y,
	ColTrendR2_10Y,
	ColAvgAnnualReturn5Y,
	ColSBCPercentOfFCF,
	ColNetDebtToEBITDA,
	ColRevenueGrowth5Y,
	ColRevenueGrowthLastYear,
	ColFreeCashFlow5Y,
	ColEPSGrowth5Y,
	ColEPSGrowth3Y,
	ColROIC5Y,
	ColROIAnnual,
	ColGrossMargin5Y,
	ColGrossMarginAnnual,
}

// TickerMetricRecord is the wide per-ticker row produced by one run.
type TickerMetricRecord struct {
	Ticker             string    `csv:"ticker" json:"ticker"`
	AvgAnnualReturn10Y NullFloat `csv:"10y_avg_annual_return_%" json:"avg_annual_return_10y"`
	TrendR2_10Y        NullFloat `csv:"10y_R2" json:"trend_r2_10y"`
	AvgAnnualReturn5Y  NullFloat `csv:"5y_avg_annual_return_%" json:"avg_annual_return_5y"`
	SBCPercentOfFCF    NullFloat `csv:"SBC_as_%_of_FCF" json:"sbc_percent_of_fcf"`
	NetDebtToEBITDA    NullFloat `csv:"net_debt_to_ebitda" json:"net_debt_to_ebitda"`

	RevenueGrowth5Y       NullFloat `csv:"Revenue_Growth_5Y" json:"revenue_growth_5y"`
	RevenueGrowthLastYear NullFloat `csv:"Revenue_Growth_LastYear_%" json:"revenue_growth_last_year"`
	FreeCashFlowCAGR5Y    NullFloat `csv:"FreeCashFlow5Y" json:"free_cash_flow_cagr_5y"`
	EPSGrowth5Y           NullFloat `csv:"EPS_Growth_5Y" json:"eps_growth_5y"`
	EPSGrowth3Y           NullFloat `csv:"EPS_Growth_3Y" json:"eps_growth_3y"`
	ROIC5Y                NullFloat `csv:"ROIC_5Y" json:"roic_5y"`
	ROIAnnual             NullFloat `csv:"ROI_ANNUAL" json:"roi_annual"`
	GrossMargin5Y         NullFloat `csv:"Gross_Margin_5Y" json:"gross_margin_5y"`
	GrossMarginAnnual     NullFloat `csv:"Gross_Margin_Annual" json:"gross_margin_annual"`
}

// SetGrowth copies the aggregator metrics onto the record.
func (r *TickerMetricRecord) SetGrowth(g GrowthMetrics) {
	r.RevenueGrowth5Y = g.RevenueGrowth5Y
	r.RevenueGrowthLastYear = g.RevenueGrowthLastYear
	r.FreeCashFlowCAGR5Y = g.FreeCashFlowCAGR5Y
	r.EPSGrowth5Y = g.EPSGrowth5Y
	r.EPSGrowth3Y = g.EPSGrowth3Y
	r.ROIC5Y = g.ROIC5Y
	r.ROIAnnual = g.ROIAnnual
	r.GrossMargin5Y = g.GrossMargin5Y
	r.GrossMarginAnnual = g.GrossMarginAnnual
}

// Value returns the metric stored under a history column name. Unknown
// columns yield null.
func (r *TickerMetricRecord) Value(column string) NullFloat {
	switch column {
	case ColAvgAnnualReturn10Y:
		return r.AvgAnnualReturn10Y
	case ColTrendR2_10Y:
		return r.TrendR2_10Y
	case ColAvgAnnualReturn5Y:
		return r.AvgAnnualReturn5Y
	case ColSBCPercentOfFCF:
		return r.SBCPercentOfFCF
	case ColNetDebtToEBITDA:
		return r.NetDebtToEBITDA
	case ColRevenueGrowth5Y:
		return r.RevenueGrowth5Y
	case ColRevenueGrowthLastYear:
		return r.RevenueGrowthLastYear
	case ColFreeCashFlow5Y:
		return r.FreeCashFlowCAGR5Y
	case ColEPSGrowth5Y:
		return r.EPSGrowth5Y
	case ColEPSGrowth3Y:
		return r.EPSGrowth3Y
	case ColROIC5Y:
		return r.ROIC5Y
	case ColROIAnnual:
		return r.ROIAnnual
	case ColGrossMargin5Y:
		return r.GrossMargin5Y
	case ColGrossMarginAnnual:
		return r.GrossMarginAnnual
	}
	return Null()
}
