package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/bobmcallan/scorecard/internal/app"
	"github.com/bobmcallan/scorecard/internal/common"
	"github.com/bobmcallan/scorecard/internal/models"
	"github.com/bobmcallan/scorecard/internal/services/report"
)

var runTickers string

// runCmd performs a single pipeline run
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Fetch, score and record the watch list once",
	Long: `Fetch metrics for every ticker, score and rank them, print both tables
and merge them into the history files.

Examples:
  scorecard run
  scorecard run --tickers AAPL,MSFT
  scorecard run --config prod.toml`,
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().StringVar(&runTickers, "tickers", "", "Comma separated tickers (default: configured watch list)")
}

func runRun(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	common.PrintBanner(a.Config, a.Logger, "run")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	out := cmd.OutOrStdout()
	printMetrics := app.OnAssembled(func(records []models.TickerMetricRecord) {
		fmt.Fprintln(out, report.FormatMetricsTable(records))
	})

	result, err := a.Run(ctx, common.SplitTickers(runTickers), printMetrics)
	if err != nil {
		return err
	}

	fmt.Fprintln(out, report.FormatScoresTable(result.Scores))
	fmt.Fprintln(out, "History written.")
	return nil
}
