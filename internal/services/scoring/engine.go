package scoring

import (
	"sort"

	"github.com/bobmcallan/scorecard/internal/models"
)

// Engine applies a rule set to metric records
type Engine struct {
	rules []Rule
}

// NewEngine creates an engine using DefaultRules
func NewEngine() *Engine {
	return &Engine{rules: DefaultRules}
}

// Score evaluates every rule against the record and aggregates. Unknown
// criteria are excluded from both the total and the maximum.
func (e *Engine) Score(rec models.TickerMetricRecord) models.ScoreRecord {
	out := models.ScoreRecord{
		Ticker:   rec.Ticker,
		Criteria: make([]models.CriterionScore, 0, len(e.rules)),
	}
	for _, r := range e.rules {
		s := r.Score(rec.Value(r.Column))
		out.Criteria = append(out.Criteria, models.CriterionScore{Name: r.Name, Value: s})
		if s.Valid {
			out.TotalScore += s.Value
			out.ValidCriteriaCount++
		}
	}
	out.MaxTheoreticalScore = out.ValidCriteriaCount
	out.ScoreOutOf20 = Normalize(out.TotalScore, out.MaxTheoreticalScore)
	return out
}

// Normalize scales total/max onto 0..20, rounded to 2 places. Null when no
// criterion could be evaluated.
func Normalize(total float64, max int) models.NullFloat {
	if max <= 0 {
		return models.Null()
	}
	return models.Float(total / float64(max) * 20).Round(2)
}

// ScoreAll scores every record, preserving input order.
func (e *Engine) ScoreAll(records []models.TickerMetricRecord) []models.ScoreRecord {
	out := make([]models.ScoreRecord, 0, len(records))
	for _, rec := range records {
		out = append(out, e.Score(rec))
	}
	return out
}

// Rank returns a copy ordered by ScoreOutOf20 descending. Ties keep input
// order and null scores sort last.
func Rank(scores []models.ScoreRecord) []models.ScoreRecord {
	ranked := append([]models.ScoreRecord(nil), scores...)
	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i].ScoreOutOf20, ranked[j].ScoreOutOf20
		if a.Valid != b.Valid {
			return a.Valid
		}
		return a.Valid && a.Value > b.Value
	})
	return ranked
}
