package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/bobmcallan/scorecard/internal/app"
	"github.com/bobmcallan/scorecard/internal/common"
	"github.com/bobmcallan/scorecard/internal/server"
)

var scheduleRunNow bool

// scheduleCmd runs the pipeline on the configured cron schedule
var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Run the pipeline on a cron schedule and serve metrics",
	Long: `Run the pipeline on schedule.cron and serve /metrics, /api/health and
read-only history endpoints on schedule.listen until interrupted.

Examples:
  scorecard schedule
  scorecard schedule --now`,
	RunE: runSchedule,
}

func init() {
	rootCmd.AddCommand(scheduleCmd)
	scheduleCmd.Flags().BoolVar(&scheduleRunNow, "now", false, "Run once immediately before waiting for the schedule")
}

func runSchedule(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	common.PrintBanner(a.Config, a.Logger, "schedule")

	scheduler, err := app.NewScheduler(a)
	if err != nil {
		return err
	}
	srv := server.NewServer(a, scheduler)

	serveErr := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	scheduler.Start()
	if scheduleRunNow {
		go scheduler.RunNow()
	}

	a.Logger.Info().
		Str("listen", a.Config.Schedule.Listen).
		Time("next_run", scheduler.Next()).
		Msg("Scheduler ready")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sigChan:
		a.Logger.Info().Msg("Shutdown signal received")
	case err = <-serveErr:
		a.Logger.Error().Err(err).Msg("Metrics server failed")
	}

	common.PrintShutdownBanner(a.Logger)

	scheduler.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if shutdownErr := srv.Shutdown(ctx); shutdownErr != nil {
		a.Logger.Error().Err(shutdownErr).Msg("Metrics server shutdown failed")
	}

	a.Logger.Info().Msg("Scheduler stopped")
	return err
}
