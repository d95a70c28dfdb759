package app

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/scorecard/internal/common"
)

func TestNewScheduler_InvalidCron(t *testing.T) {
	a := newTestApp(t, &fakeMarket{}, &fakeMetrics{})
	a.Config.Schedule.Cron = "not a cron"

	_, err := NewScheduler(a)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid schedule")
}

func TestScheduler_NextAndRunNow(t *testing.T) {
	a := newTestApp(t, &fakeMarket{}, &fakeMetrics{})

	s, err := NewScheduler(a)
	require.NoError(t, err)

	s.Start()
	defer s.Stop()

	assert.False(t, s.Next().IsZero())

	last, _ := s.LastRun()
	assert.True(t, last.IsZero())

	s.RunNow()
	last, runErr := s.LastRun()
	assert.False(t, last.IsZero())
	assert.NoError(t, runErr)

	rows, err := a.Store.LoadScores(context.Background())
	require.NoError(t, err)
	assert.Len(t, rows, len(a.Config.Tickers))
}

func TestScheduler_StopCancelsInFlightRun(t *testing.T) {
	market := &fakeMarket{block: make(chan struct{})}
	a := newTestApp(t, market, &fakeMetrics{})

	s, err := NewScheduler(a)
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		s.RunNow()
		close(done)
	}()

	time.Sleep(20 * time.Millisecond)
	s.Stop()
	close(market.block)

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("run did not return after Stop")
	}

	_, runErr := s.LastRun()
	require.Error(t, runErr)
	assert.ErrorIs(t, runErr, context.Canceled)
}

func TestSkipIfStillRunning_DropsOverlappingTick(t *testing.T) {
	cl := cronLogger{logger: common.NewSilentLogger()}
	release := make(chan struct{})

	var mu sync.Mutex
	runs := 0
	job := cron.NewChain(cron.SkipIfStillRunning(cl)).Then(cron.FuncJob(func() {
		mu.Lock()
		runs++
		mu.Unlock()
		<-release
	}))

	go job.Run()
	time.Sleep(20 * time.Millisecond)
	job.Run() // skipped: the first invocation still holds the slot

	close(release)
	time.Sleep(20 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, runs)
}
