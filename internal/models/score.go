package models

// Score history column names.
const (
	ColTotalScore   = "Total_Score"
	ColScoreOutOf20 = "Score_sur_20"
)

// CriterionScore is the outcome of one threshold rule: 0, 0.5, 1 or null.
type CriterionScore struct {
	Name  string    `json:"name"`
	Value NullFloat `json:"value"`
}

// ScoreRecord holds the per-criterion scores and the aggregate for a ticker.
type ScoreRecord struct {
	Ticker              string           `json:"ticker"`
	Criteria            []CriterionScore `json:"criteria"`
	TotalScore          float64          `json:"total_score"`
	ValidCriteriaCount  int              `json:"valid_criteria_count"`
	MaxTheoreticalScore int              `json:"max_theoretical_score"`
	ScoreOutOf20        NullFloat        `json:"score_out_of_20"`
}

