package history

import (
	"bufio"
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/scorecard/internal/common"
	"github.com/bobmcallan/scorecard/internal/models"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()
	return NewStore(
		filepath.Join(dir, "historique_df.csv"),
		filepath.Join(dir, "historique_scores.csv"),
		common.NewSilentLogger(),
	)
}

func scoreRow(ticker, date, ts string, total, out20 float64) models.ScoreHistoryRow {
	return models.ScoreHistoryRow{
		Ticker:       ticker,
		TotalScore:   models.Float(total),
		ScoreOutOf20: models.Float(out20),
		Date:         date,
		Timestamp:    ts,
	}
}

func headerOf(t *testing.T, path string) string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	sc := bufio.NewScanner(f)
	require.True(t, sc.Scan())
	return sc.Text()
}

func TestAppendScores_CreatesFileWithColumnContract(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.AppendScores(ctx, []models.ScoreHistoryRow{
		scoreRow("AAA", "2024-03-05", "2024-03-05 10:00:00", 7.5, 15),
	}))

	assert.Equal(t, "ticker,Total_Score,Score_sur_20,date,horodatage", headerOf(t, s.ScoresPath()))

	rows, err := s.LoadScores(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, models.Float(15), rows[0].ScoreOutOf20)
}

func TestAppendMetrics_ColumnContractAndNulls(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	rec := models.TickerMetricRecord{Ticker: "AAA", AvgAnnualReturn10Y: models.Float(14.2), TrendR2_10Y: models.Float(0.9123)}
	stamp := models.Stamp{Date: "2024-03-05", Timestamp: "2024-03-05 10:00:00"}
	require.NoError(t, s.AppendMetrics(ctx, stamp.MetricRows([]models.TickerMetricRecord{rec})))

	want := "ticker," + strings.Join(models.MetricColumns, ",") + ",date,horodatage"
	assert.Equal(t, want, headerOf(t, s.MetricsPath()))

	data, err := os.ReadFile(s.MetricsPath())
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "AAA,14.2,0.9123,,,,,,,,,,,,,2024-03-05,2024-03-05 10:00:00", lines[1])

	rows, err := s.LoadMetrics(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, models.Float(0.9123), rows[0].TrendR2_10Y)
	assert.True(t, rows[0].SBCPercentOfFCF.IsNull())
}

func TestAppendScores_IdempotentDoubleWrite(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	rows := []models.ScoreHistoryRow{
		scoreRow("AAA", "2024-03-05", "2024-03-05 10:00:00", 7.5, 15),
		scoreRow("BBB", "2024-03-05", "2024-03-05 10:00:00", 3, 6),
	}

	require.NoError(t, s.AppendScores(ctx, rows))
	first, err := os.ReadFile(s.ScoresPath())
	require.NoError(t, err)

	require.NoError(t, s.AppendScores(ctx, rows))
	second, err := os.ReadFile(s.ScoresPath())
	require.NoError(t, err)

	assert.Equal(t, string(first), string(second))
}

func TestAppendScores_LaterTimestampWins(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.AppendScores(ctx, []models.ScoreHistoryRow{
		scoreRow("AAA", "2024-03-05", "2024-03-05 10:00:00", 7.5, 15),
		scoreRow("AAA", "2024-03-04", "2024-03-04 10:00:00", 5, 10),
	}))
	require.NoError(t, s.AppendScores(ctx, []models.ScoreHistoryRow{
		scoreRow("AAA", "2024-03-05", "2024-03-05 18:30:00", 8, 16),
	}))

	rows, err := s.LoadScores(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "2024-03-04", rows[0].Date)
	assert.Equal(t, "2024-03-05 18:30:00", rows[1].Timestamp)
	assert.Equal(t, models.Float(16), rows[1].ScoreOutOf20)
}

func TestAppendScores_LegacyFileWithNaN(t *testing.T) {
	s := newTestStore(t)
	legacy := "ticker,Total_Score,Score_sur_20,date,horodatage\n" +
		"IONQ,0.0,,2024-01-02,2024-01-02 09:00:00\n" +
		"AAPL,9.5,15.83,2024-01-02,2024-01-02 09:00:00\n"
	require.NoError(t, os.WriteFile(s.ScoresPath(), []byte(legacy), 0644))

	require.NoError(t, s.AppendScores(context.Background(), []models.ScoreHistoryRow{
		scoreRow("AAPL", "2024-01-03", "2024-01-03 09:00:00", 10, 16.67),
	}))

	rows, err := s.LoadScores(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.True(t, rows[0].ScoreOutOf20.IsNull())
	assert.Equal(t, "AAPL", rows[2].Ticker)
}

func TestAppendScores_CorruptFileIsFatal(t *testing.T) {
	s := newTestStore(t)
	bad := "ticker,Total_Score,Score_sur_20,date,horodatage\nAAA,notanumber,1,2024-01-02,2024-01-02 09:00:00\n"
	require.NoError(t, os.WriteFile(s.ScoresPath(), []byte(bad), 0644))

	err := s.AppendScores(context.Background(), []models.ScoreHistoryRow{
		scoreRow("AAA", "2024-01-03", "2024-01-03 09:00:00", 1, 1),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), s.ScoresPath())

	data, _ := os.ReadFile(s.ScoresPath())
	assert.Equal(t, bad, string(data), "existing file must be untouched")
}

func TestAppendScores_NoTempFilesLeft(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.AppendScores(context.Background(), []models.ScoreHistoryRow{
		scoreRow("AAA", "2024-03-05", "2024-03-05 10:00:00", 1, 2),
	}))

	entries, err := os.ReadDir(filepath.Dir(s.ScoresPath()))
	require.NoError(t, err)
	for _, e := range entries {
		assert.False(t, strings.HasPrefix(e.Name(), ".tmp-"), "leftover temp file %s", e.Name())
	}
}

func TestAppendScores_ConcurrentWritersSerialised(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	tickers := []string{"A", "B", "C", "D", "E", "F", "G", "H"}
	for _, tk := range tickers {
		wg.Add(1)
		go func(tk string) {
			defer wg.Done()
			assert.NoError(t, s.AppendScores(ctx, []models.ScoreHistoryRow{
				scoreRow(tk, "2024-03-05", "2024-03-05 10:00:00", 1, 2),
			}))
		}(tk)
	}
	wg.Wait()

	rows, err := s.LoadScores(ctx)
	require.NoError(t, err)
	assert.Len(t, rows, len(tickers), "no update may be lost")
}

func TestLoad_MissingFileIsEmpty(t *testing.T) {
	s := newTestStore(t)
	rows, err := s.LoadMetrics(context.Background())
	require.NoError(t, err)
	assert.Empty(t, rows)
}
