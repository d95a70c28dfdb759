package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bobmcallan/scorecard/internal/models"
	"github.com/bobmcallan/scorecard/internal/services/report"
)

var (
	latestMetric string
	latestTicker string
)

// latestCmd prints the most recent snapshot from history
var latestCmd = &cobra.Command{
	Use:   "latest",
	Short: "Show the latest recorded values of a metric",
	Long: `Print the most recent date's values of a metric across tickers, highest
first. With --ticker, print that ticker's score history instead.

Examples:
  scorecard latest
  scorecard latest --metric ROIC_5Y
  scorecard latest --ticker MSFT`,
	RunE: runLatest,
}

func init() {
	rootCmd.AddCommand(latestCmd)
	latestCmd.Flags().StringVar(&latestMetric, "metric", models.ColScoreOutOf20, "History column to show")
	latestCmd.Flags().StringVar(&latestTicker, "ticker", "", "Show one ticker's score history")
}

func runLatest(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := context.Background()
	out := cmd.OutOrStdout()

	if latestTicker != "" {
		rows, err := a.Reports.ScoreHistory(ctx, latestTicker)
		if err != nil {
			return err
		}
		fmt.Fprint(out, report.FormatScoreHistory(latestTicker, rows))
		return nil
	}

	date, rows, err := a.Reports.Snapshot(ctx, latestMetric)
	if err != nil {
		return err
	}
	fmt.Fprint(out, report.FormatSnapshot(latestMetric, date, rows))
	return nil
}
