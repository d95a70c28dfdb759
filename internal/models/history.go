package models

import "time"

// Date and timestamp layouts used by the history tables.
const (
	DateLayout      = "2006-01-02"
	TimestampLayout = "2006-01-02 15:04:05"
)

// HistoryRow is any row kept in a history table. Rows are unique per
// (ticker, date); among rows sharing a key the latest timestamp wins.
type HistoryRow interface {
	HistoryKey() (ticker, date string)
	HistoryTimestamp() string
}

// MetricHistoryRow is one row of the metrics history table.
type MetricHistoryRow struct {
	TickerMetricRecord
	Date      string `csv:"date" json:"date"`
	Timestamp string `csv:"horodatage" json:"horodatage"`
}

func (r MetricHistoryRow) HistoryKey() (string, string) { return r.Ticker, r.Date }
func (r MetricHistoryRow) HistoryTimestamp() string     { return r.Timestamp }

// ScoreHistoryRow is one row of the score history table.
type ScoreHistoryRow struct {
	Ticker       string    `csv:"ticker" json:"ticker"`
	TotalScore   NullFloat `csv:"Total_Score" json:"total_score"`
	ScoreOutOf20 NullFloat `csv:"Score_sur_20" json:"score_sur_20"`
	Date         string    `csv:"date" json:"date"`
	Timestamp    string    `csv:"horodatage" json:"horodatage"`
}

func (r ScoreHistoryRow) HistoryKey() (string, string) { return r.Ticker, r.Date }
func (r ScoreHistoryRow) HistoryTimestamp() string     { return r.Timestamp }

// Stamp carries the logical day and wall-clock timestamp shared by every row
// written in one run.
type Stamp struct {
	Date      string
	Timestamp string
}

// NewStamp derives a Stamp from a single instant.
func NewStamp(now time.Time) Stamp {
	return Stamp{
		Date:      now.Format(DateLayout),
		Timestamp: now.Format(TimestampLayout),
	}
}

// MetricRows tags each record with the stamp.
func (s Stamp) MetricRows(records []TickerMetricRecord) []MetricHistoryRow {
	rows := make([]MetricHistoryRow, 0, len(records))
	for _, r := range records {
		rows = append(rows, MetricHistoryRow{TickerMetricRecord: r, Date: s.Date, Timestamp: s.Timestamp})
	}
	return rows
}

// ScoreRows tags each score with the stamp.
func (s Stamp) ScoreRows(scores []ScoreRecord) []ScoreHistoryRow {
	rows := make([]ScoreHistoryRow, 0, len(scores))
	for _, sc := range scores {
		rows = append(rows, ScoreHistoryRow{
			Ticker:       sc.Ticker,
			TotalScore:   Float(sc.TotalScore),
			ScoreOutOf20: sc.ScoreOutOf20,
			Date:         s.Date,
			Timestamp:    s.Timestamp,
		})
	}
	return rows
}

// RunResult summarises one pipeline run.
type RunResult struct {
	RunID    string               `json:"run_id"`
	At       time.Time            `json:"at"`
	Metrics  []TickerMetricRecord `json:"metrics"`
	Scores   []ScoreRecord        `json:"scores"`
	Failures map[string]int       `json:"failures,omitempty"`
}
