package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/bobmcallan/scorecard/internal/common"
)

// cronLogger adapts common.Logger to cron.Logger
type cronLogger struct {
	logger *common.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug().Fields(keysAndValues).Msg("cron: " + msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error().Err(err).Fields(keysAndValues).Msg("cron: " + msg)
}

// Scheduler triggers pipeline runs on a cron schedule. A tick that fires
// while the previous run is still going is skipped.
type Scheduler struct {
	app    *App
	cron   *cron.Cron
	logger *common.Logger

	mu      sync.Mutex
	baseCtx context.Context
	cancel  context.CancelFunc
	lastRun time.Time
	lastErr error
}

// NewScheduler registers the configured cron expression
func NewScheduler(a *App) (*Scheduler, error) {
	logger := &common.Logger{Logger: a.Logger.With().Str("component", "scheduler").Logger()}
	cl := cronLogger{logger: logger}

	s := &Scheduler{
		app:    a,
		logger: logger,
		cron: cron.New(cron.WithChain(
			cron.Recover(cl),
			cron.SkipIfStillRunning(cl),
		), cron.WithLogger(cl)),
	}
	s.baseCtx, s.cancel = context.WithCancel(context.Background())

	if _, err := s.cron.AddFunc(a.Config.Schedule.Cron, s.tick); err != nil {
		return nil, fmt.Errorf("invalid schedule %q: %w", a.Config.Schedule.Cron, err)
	}

	logger.Info().Str("schedule", a.Config.Schedule.Cron).Msg("Run registered")
	return s, nil
}

// tick performs one scheduled run with the configured deadline
func (s *Scheduler) tick() {
	ctx, cancel := context.WithTimeout(s.baseCtx, s.app.Config.Schedule.GetRunTimeout())
	defer cancel()

	_, err := s.app.Run(ctx, nil)

	s.mu.Lock()
	s.lastRun = time.Now()
	s.lastErr = err
	s.mu.Unlock()
}

// RunNow executes a run immediately, outside the schedule
func (s *Scheduler) RunNow() {
	s.logger.Info().Msg("Running immediately")
	s.tick()
}

// Start starts the cron loop
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info().Msg("Scheduler started")
}

// Stop cancels an in-flight run and waits for it to return
func (s *Scheduler) Stop() {
	s.cancel()
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info().Msg("Scheduler stopped")
}

// Next returns the next scheduled run time, or zero before Start
func (s *Scheduler) Next() time.Time {
	entries := s.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	return entries[0].Next
}

// LastRun returns when the last scheduled run finished and its error
func (s *Scheduler) LastRun() (time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastRun, s.lastErr
}
