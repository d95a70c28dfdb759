package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bobmcallan/scorecard/internal/models"
	"github.com/bobmcallan/scorecard/internal/services/report"
)

var (
	chartTicker string
	chartMetric string
	chartOut    string
)

// chartCmd renders a metric's history for one ticker
var chartCmd = &cobra.Command{
	Use:   "chart",
	Short: "Render a PNG chart of one metric over time",
	Long: `Render a line chart of a metric (or Score_sur_20) from the history
files for one ticker.

Examples:
  scorecard chart --ticker AAPL
  scorecard chart --ticker AAPL --metric 10y_R2 --out aapl_r2.png`,
	RunE: runChart,
}

func init() {
	rootCmd.AddCommand(chartCmd)
	chartCmd.Flags().StringVar(&chartTicker, "ticker", "", "Ticker to chart (required)")
	chartCmd.Flags().StringVar(&chartMetric, "metric", models.ColScoreOutOf20, "History column to chart")
	chartCmd.Flags().StringVar(&chartOut, "out", "", "Output file (default: <ticker>_<metric>.png)")
	chartCmd.MarkFlagRequired("ticker")
}

var fileNameReplacer = strings.NewReplacer("%", "pct", "/", "_", " ", "_")

func runChart(cmd *cobra.Command, args []string) error {
	if !report.KnownMetric(chartMetric) {
		return fmt.Errorf("unknown metric %q", chartMetric)
	}

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	series, err := a.Reports.MetricSeries(context.Background(), chartMetric, []string{chartTicker})
	if err != nil {
		return err
	}

	png, err := report.RenderMetricChart(chartTicker+" "+chartMetric, series)
	if err != nil {
		return fmt.Errorf("%s: %w", chartTicker, err)
	}

	out := chartOut
	if out == "" {
		out = fileNameReplacer.Replace(chartTicker + "_" + chartMetric + ".png")
	}
	if err := os.WriteFile(out, png, 0644); err != nil {
		return fmt.Errorf("failed to write chart: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Chart written to %s\n", out)
	return nil
}
