package report

import (
	"fmt"
	"strings"

	"github.com/bobmcallan/scorecard/internal/models"
)

// cell renders a value for a table, with unknown values as "-"
func cell(v models.NullFloat) string {
	if v.IsNull() {
		return "-"
	}
	return v.String()
}

func writeRow(sb *strings.Builder, cells []string) {
	sb.WriteString("| ")
	sb.WriteString(strings.Join(cells, " | "))
	sb.WriteString(" |\n")
}

func writeHeader(sb *strings.Builder, headers []string) {
	writeRow(sb, headers)
	sep := make([]string, len(headers))
	for i := range sep {
		sep[i] = "---"
	}
	writeRow(sb, sep)
}

// FormatMetricsTable renders the assembled metric records as a markdown table
func FormatMetricsTable(records []models.TickerMetricRecord) string {
	var sb strings.Builder

	headers := append([]string{models.ColTicker}, models.MetricColumns...)
	writeHeader(&sb, headers)

	for i := range records {
		r := &records[i]
		cells := make([]string, 0, len(headers))
		cells = append(cells, r.Ticker)
		for _, col := range models.MetricColumns {
			cells = append(cells, cell(r.Value(col)))
		}
		writeRow(&sb, cells)
	}

	return sb.String()
}

// FormatScoresTable renders ranked score records, best first
func FormatScoresTable(scores []models.ScoreRecord) string {
	var sb strings.Builder

	writeHeader(&sb, []string{"#", models.ColTicker, models.ColTotalScore, "Valid", models.ColScoreOutOf20})
	for i, s := range scores {
		writeRow(&sb, []string{
			fmt.Sprintf("%d", i+1),
			s.Ticker,
			models.Float(s.TotalScore).String(),
			fmt.Sprintf("%d/%d", s.ValidCriteriaCount, s.MaxTheoreticalScore),
			cell(s.ScoreOutOf20),
		})
	}

	return sb.String()
}

// FormatSnapshot renders one metric across tickers for a single date
func FormatSnapshot(metric, date string, rows []SnapshotRow) string {
	var sb strings.Builder

	if date == "" {
		return "No history recorded yet.\n"
	}

	sb.WriteString(fmt.Sprintf("## %s on %s\n\n", metric, date))
	writeHeader(&sb, []string{models.ColTicker, metric})
	for _, r := range rows {
		writeRow(&sb, []string{r.Ticker, cell(r.Value)})
	}

	return sb.String()
}

// FormatScoreHistory renders a ticker's score rows
func FormatScoreHistory(ticker string, rows []models.ScoreHistoryRow) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("## %s score history\n\n", ticker))
	if len(rows) == 0 {
		sb.WriteString("No scores recorded.\n")
		return sb.String()
	}

	writeHeader(&sb, []string{models.ColDate, models.ColTotalScore, models.ColScoreOutOf20})
	for _, r := range rows {
		writeRow(&sb, []string{r.Date, cell(r.TotalScore), cell(r.ScoreOutOf20)})
	}

	return sb.String()
}
