package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/bobmcallan/scorecard/internal/app"
)

var configPath string

// rootCmd is the base command for the scorecard CLI
var rootCmd = &cobra.Command{
	Use:   "scorecard",
	Short: "Fundamental scoring pipeline for a watch list of equities",
	Long: `scorecard fetches price history and fundamentals for a watch list,
scores each ticker against fourteen threshold criteria and keeps a dated
history of both the metrics and the scores.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file (default: $SCORECARD_CONFIG, then scorecard.toml)")
}

// newApp builds the App from the --config flag
func newApp() (*app.App, error) {
	a, err := app.NewApp(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize app: %w", err)
	}
	return a, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
