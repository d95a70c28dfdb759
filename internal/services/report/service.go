// Package report provides read-only views over the history tables
package report

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/bobmcallan/scorecard/internal/common"
	"github.com/bobmcallan/scorecard/internal/interfaces"
	"github.com/bobmcallan/scorecard/internal/models"
)

// Point is one observation of a metric
type Point struct {
	At    time.Time
	Value float64
}

// SnapshotRow is one ticker's value on the snapshot date
type SnapshotRow struct {
	Ticker string           `json:"ticker"`
	Value  models.NullFloat `json:"value"`
}

// Service answers history queries
type Service struct {
	store  interfaces.HistoryStore
	logger *common.Logger
}

// NewService creates a new report service
func NewService(store interfaces.HistoryStore, logger *common.Logger) *Service {
	return &Service{
		store:  store,
		logger: logger,
	}
}

// IsScoreColumn reports whether metric lives in the score history table
func IsScoreColumn(metric string) bool {
	return metric == models.ColTotalScore || metric == models.ColScoreOutOf20
}

// KnownMetric reports whether metric names a numeric history column
func KnownMetric(metric string) bool {
	if IsScoreColumn(metric) {
		return true
	}
	for _, c := range models.MetricColumns {
		if c == metric {
			return true
		}
	}
	return false
}

// observation is a history row reduced to what the views need
type observation struct {
	ticker    string
	date      string
	timestamp string
	value     models.NullFloat
}

func (s *Service) observations(ctx context.Context, metric string) ([]observation, error) {
	if !KnownMetric(metric) {
		return nil, fmt.Errorf("unknown metric %q", metric)
	}

	var out []observation
	if IsScoreColumn(metric) {
		rows, err := s.store.LoadScores(ctx)
		if err != nil {
			return nil, err
		}
		for _, r := range rows {
			v := r.ScoreOutOf20
			if metric == models.ColTotalScore {
				v = r.TotalScore
			}
			out = append(out, observation{r.Ticker, r.Date, r.Timestamp, v})
		}
		return out, nil
	}

	rows, err := s.store.LoadMetrics(ctx)
	if err != nil {
		return nil, err
	}
	for _, r := range rows {
		out = append(out, observation{r.Ticker, r.Date, r.Timestamp, r.Value(metric)})
	}
	return out, nil
}

// MetricSeries returns, per ticker, the known values of metric ordered by
// timestamp. An empty tickers list selects every ticker.
func (s *Service) MetricSeries(ctx context.Context, metric string, tickers []string) (map[string][]Point, error) {
	obs, err := s.observations(ctx, metric)
	if err != nil {
		return nil, err
	}

	want := make(map[string]bool, len(tickers))
	for _, t := range tickers {
		want[t] = true
	}

	series := make(map[string][]Point)
	for _, o := range obs {
		if len(want) > 0 && !want[o.ticker] {
			continue
		}
		if o.value.IsNull() {
			continue
		}
		at, err := time.ParseInLocation(models.TimestampLayout, o.timestamp, time.Local)
		if err != nil {
			s.logger.Debug().Str("ticker", o.ticker).Str("horodatage", o.timestamp).Msg("Skipping row with bad timestamp")
			continue
		}
		series[o.ticker] = append(series[o.ticker], Point{At: at, Value: o.value.Value})
	}
	for t := range series {
		pts := series[t]
		sort.SliceStable(pts, func(i, j int) bool { return pts[i].At.Before(pts[j].At) })
	}
	return series, nil
}

// Snapshot returns every ticker's value on the most recent date in the
// table, highest first with unknown values last.
func (s *Service) Snapshot(ctx context.Context, metric string) (string, []SnapshotRow, error) {
	obs, err := s.observations(ctx, metric)
	if err != nil {
		return "", nil, err
	}

	latest := ""
	for _, o := range obs {
		if o.date > latest {
			latest = o.date
		}
	}

	var rows []SnapshotRow
	for _, o := range obs {
		if o.date == latest {
			rows = append(rows, SnapshotRow{Ticker: o.ticker, Value: o.value})
		}
	}
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i].Value, rows[j].Value
		if a.Valid != b.Valid {
			return a.Valid
		}
		return a.Valid && a.Value > b.Value
	})
	return latest, rows, nil
}

// ScoreHistory returns the ticker's score rows, newest date first
func (s *Service) ScoreHistory(ctx context.Context, ticker string) ([]models.ScoreHistoryRow, error) {
	rows, err := s.store.LoadScores(ctx)
	if err != nil {
		return nil, err
	}
	var out []models.ScoreHistoryRow
	for _, r := range rows {
		if r.Ticker == ticker {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date > out[j].Date })
	return out, nil
}

// LatestMetrics returns the most recently written metrics row for ticker,
// or nil when the ticker has no history.
func (s *Service) LatestMetrics(ctx context.Context, ticker string) (*models.MetricHistoryRow, error) {
	rows, err := s.store.LoadMetrics(ctx)
	if err != nil {
		return nil, err
	}
	var latest *models.MetricHistoryRow
	for i := range rows {
		if rows[i].Ticker != ticker {
			continue
		}
		if latest == nil || rows[i].Timestamp >= latest.Timestamp {
			latest = &rows[i]
		}
	}
	return latest, nil
}
