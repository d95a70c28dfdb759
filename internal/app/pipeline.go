package app

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/bobmcallan/scorecard/internal/models"
	"github.com/bobmcallan/scorecard/internal/services/scoring"
)

// RunOption customises a single Run.
type RunOption func(*runOptions)

type runOptions struct {
	onAssembled func([]models.TickerMetricRecord)
}

// OnAssembled registers fn to receive the metric table once it is assembled,
// before scoring and before anything is written to history.
func OnAssembled(fn func([]models.TickerMetricRecord)) RunOption {
	return func(o *runOptions) {
		o.onAssembled = fn
	}
}

// Run executes one pipeline run: assemble the metric table, score and rank
// it, then merge both tables into history. An empty tickers list uses the
// configured watch list. Runs on the same App never overlap.
func (a *App) Run(ctx context.Context, tickers []string, opts ...RunOption) (*models.RunResult, error) {
	var ro runOptions
	for _, opt := range opts {
		opt(&ro)
	}

	a.runMu.Lock()
	defer a.runMu.Unlock()

	if len(tickers) == 0 {
		tickers = a.Config.Tickers
	}

	start := time.Now()
	a.runAt = a.now()
	runID := uuid.NewString()
	logger := a.Logger.With().Str("run_id", runID).Logger()

	if a.Config.Logging.QuietClients && a.ClientLogger != nil {
		restore := a.ClientLogger.Quiet()
		defer restore()
	}

	a.takeFailures()

	logger.Info().Int("tickers", len(tickers)).Msg("Run started")

	result, err := a.run(ctx, runID, tickers, ro)
	var scores []models.ScoreRecord
	if result != nil {
		scores = result.Scores
	}
	a.Telemetry.observeRun(time.Since(start), a.runAt, scores, err)

	if err != nil {
		logger.Error().Err(err).Dur("elapsed", time.Since(start)).Msg("Run failed")
		return nil, err
	}

	logger.Info().
		Int("tickers", len(result.Metrics)).
		Interface("failures", result.Failures).
		Dur("elapsed", time.Since(start)).
		Msg("Run complete")

	return result, nil
}

func (a *App) run(ctx context.Context, runID string, tickers []string, ro runOptions) (*models.RunResult, error) {
	records, err := a.Assembler.Assemble(ctx, tickers)
	if err != nil {
		return nil, fmt.Errorf("failed to assemble metrics: %w", err)
	}
	if ro.onAssembled != nil {
		ro.onAssembled(records)
	}

	ranked := scoring.Rank(a.Scoring.ScoreAll(records))

	stamp := models.NewStamp(a.runAt)
	if err := a.Store.AppendMetrics(ctx, stamp.MetricRows(records)); err != nil {
		return nil, fmt.Errorf("failed to write metrics history: %w", err)
	}
	if err := a.Store.AppendScores(ctx, stamp.ScoreRows(ranked)); err != nil {
		return nil, fmt.Errorf("failed to write score history: %w", err)
	}

	return &models.RunResult{
		RunID:    runID,
		At:       a.runAt,
		Metrics:  records,
		Scores:   ranked,
		Failures: a.takeFailures(),
	}, nil
}
