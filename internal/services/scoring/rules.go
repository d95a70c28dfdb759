// Package scoring maps metrics onto 0 / 0.5 / 1 criterion scores and
// aggregates them into a composite score out of 20.
package scoring

import "github.com/bobmcallan/scorecard/internal/models"

// Score values
const (
	Fail    = 0.0
	Partial = 0.5
	Pass    = 1.0
)

// Rule scores one metric column against two thresholds.
//
// Higher-is-better rules award Pass at v >= High and Partial at v >= Mid.
// Lower-is-better rules award Pass at v < High and Partial at v < Mid, so
// for them High is the smaller threshold.
type Rule struct {
	Name          string
	Column        string
	High          float64
	Mid           float64
	LowerIsBetter bool
}

// Score applies the rule. Unknown input yields an unknown score.
func (r Rule) Score(v models.NullFloat) models.NullFloat {
	if v.IsNull() {
		return models.Null()
	}
	x := v.Value
	if r.LowerIsBetter {
		switch {
		case x < r.High:
			return models.Float(Pass)
		case x < r.Mid:
			return models.Float(Partial)
		default:
			return models.Float(Fail)
		}
	}
	switch {
	case x >= r.High:
		return models.Float(Pass)
	case x >= r.Mid:
		return models.Float(Partial)
	default:
		return models.Float(Fail)
	}
}

// DefaultRules are the fourteen scoring criteria in output order.
var DefaultRules = []Rule{
	{Name: "Score_Linearite_Perf10y", Column: models.ColTrendR2_10Y, High: 0.8, Mid: 0.6},
	{Name: "Score_Performance_5y", Column: models.ColAvgAnnualReturn5Y, High: 12, Mid: 8},
	{Name: "Score_Performance_10y", Column: models.ColAvgAnnualReturn10Y, High: 12, Mid: 8},
	{Name: "Score_RevenueGrowth_5y", Column: models.ColRevenueGrowth5Y, High: 8, Mid: 5},
	{Name: "Score_SBCofFCF", Column: models.ColSBCPercentOfFCF, High: 10, Mid: 20, LowerIsBetter: true},
	{Name: "Score_RevenueGrowth_LastYear", Column: models.ColRevenueGrowthLastYear, High: 8, Mid: 5},
	{Name: "Score_FreeCashFlow5ans", Column: models.ColFreeCashFlow5Y, High: 14, Mid: 10},
	{Name: "Score_EPS5ans", Column: models.ColEPSGrowth5Y, High: 12, Mid: 8},
	{Name: "Score_EPS3ans", Column: models.ColEPSGrowth3Y, High: 12, Mid: 8},
	{Name: "Score_ROI5ans", Column: models.ColROIC5Y, High: 15, Mid: 10},
	{Name: "Score_ROIANNUAL", Column: models.ColROIAnnual, High: 15, Mid: 10},
	{Name: "Score_GrossMargin5y", Column: models.ColGrossMargin5Y, High: 20, Mid: 10},
	{Name: "Score_GrossMarginAnnual", Column: models.ColGrossMarginAnnual, High: 20, Mid: 10},
	{Name: "Score_Net_Debt_to_EBITDA", Column: models.ColNetDebtToEBITDA, High: 1, Mid: 3, LowerIsBetter: true},
}
