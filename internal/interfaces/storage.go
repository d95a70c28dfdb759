package interfaces

import (
	"context"

	"github.com/bobmcallan/scorecard/internal/models"
)

// HistoryStore persists metric and score rows with per-(ticker, date)
// upsert semantics.
type HistoryStore interface {
	AppendMetrics(ctx context.Context, rows []models.MetricHistoryRow) error
	AppendScores(ctx context.Context, rows []models.ScoreHistoryRow) error
	LoadMetrics(ctx context.Context) ([]models.MetricHistoryRow, error)
	LoadScores(ctx context.Context) ([]models.ScoreHistoryRow, error)
}
