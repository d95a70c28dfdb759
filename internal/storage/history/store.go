// Package history persists metric and score rows as CSV tables with
// per-(ticker, date) upsert semantics.
package history

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/gocarina/gocsv"

	"github.com/bobmcallan/scorecard/internal/common"
	"github.com/bobmcallan/scorecard/internal/interfaces"
	"github.com/bobmcallan/scorecard/internal/models"
)

// pathLocks serialises writers of the same file within the process.
// Separate processes are not coordinated; the last rename wins.
var pathLocks sync.Map

func lockFor(path string) *sync.Mutex {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	mu, _ := pathLocks.LoadOrStore(path, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

// Store implements interfaces.HistoryStore over two CSV files
type Store struct {
	metricsPath string
	scoresPath  string
	logger      *common.Logger
}

// NewStore creates a store writing to the given metrics and scores files
func NewStore(metricsPath, scoresPath string, logger *common.Logger) *Store {
	return &Store{
		metricsPath: metricsPath,
		scoresPath:  scoresPath,
		logger:      logger,
	}
}

// MetricsPath returns the metrics history file path
func (s *Store) MetricsPath() string { return s.metricsPath }

// ScoresPath returns the score history file path
func (s *Store) ScoresPath() string { return s.scoresPath }

// AppendMetrics merges rows into the metrics history file
func (s *Store) AppendMetrics(ctx context.Context, rows []models.MetricHistoryRow) error {
	n, err := appendRows(ctx, s.metricsPath, rows)
	if err != nil {
		return err
	}
	s.logger.Info().Str("path", s.metricsPath).Int("new", len(rows)).Int("total", n).Msg("Metrics history written")
	return nil
}

// AppendScores merges rows into the score history file
func (s *Store) AppendScores(ctx context.Context, rows []models.ScoreHistoryRow) error {
	n, err := appendRows(ctx, s.scoresPath, rows)
	if err != nil {
		return err
	}
	s.logger.Info().Str("path", s.scoresPath).Int("new", len(rows)).Int("total", n).Msg("Score history written")
	return nil
}

// LoadMetrics reads the metrics history; a missing file is an empty table
func (s *Store) LoadMetrics(ctx context.Context) ([]models.MetricHistoryRow, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return loadRows[models.MetricHistoryRow](s.metricsPath)
}

// LoadScores reads the score history; a missing file is an empty table
func (s *Store) LoadScores(ctx context.Context) ([]models.ScoreHistoryRow, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return loadRows[models.ScoreHistoryRow](s.scoresPath)
}

// appendRows loads the table, merges and atomically replaces the file.
// It returns the number of rows written.
func appendRows[T models.HistoryRow](ctx context.Context, path string, rows []T) (int, error) {
	mu := lockFor(path)
	mu.Lock()
	defer mu.Unlock()

	existing, err := loadRows[T](path)
	if err != nil {
		return 0, err
	}

	merged := Merge(existing, rows)

	if err := ctx.Err(); err != nil {
		return 0, fmt.Errorf("history write to %s aborted: %w", path, err)
	}

	if err := writeAtomic(path, func(w io.Writer) error {
		return gocsv.Marshal(merged, w)
	}); err != nil {
		return 0, err
	}
	return len(merged), nil
}

func loadRows[T any](path string) ([]T, error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open history %s: %w", path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat history %s: %w", path, err)
	}
	if info.Size() == 0 {
		return nil, nil
	}

	var rows []T
	if err := gocsv.Unmarshal(f, &rows); err != nil {
		return nil, fmt.Errorf("failed to parse history %s: %w", path, err)
	}
	return rows, nil
}

// writeAtomic writes to a temp file in the target directory and renames it
// over the target, so readers see either the old or the new table.
func writeAtomic(target string, write func(io.Writer) error) error {
	dir := filepath.Dir(target)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create history directory: %w", err)
	}

	tmpFile, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	if err := tmpFile.Chmod(0644); err != nil {
		tmpFile.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to chmod temp file: %w", err)
	}
	if err := write(tmpFile); err != nil {
		tmpFile.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		tmpFile.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, target); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}

// Ensure Store implements HistoryStore
var _ interfaces.HistoryStore = (*Store)(nil)
