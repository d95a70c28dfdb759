package app

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/bobmcallan/scorecard/internal/models"
)

// Telemetry holds the Prometheus collectors for pipeline runs
type Telemetry struct {
	registry *prometheus.Registry

	Runs          *prometheus.CounterVec
	RunDuration   prometheus.Histogram
	FetchFailures *prometheus.CounterVec
	LastSuccess   prometheus.Gauge
	TickerScore   *prometheus.GaugeVec
}

// NewTelemetry creates the collectors on a private registry
func NewTelemetry() *Telemetry {
	t := &Telemetry{
		registry: prometheus.NewRegistry(),

		Runs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scorecard_runs_total",
				Help: "Total number of pipeline runs by result",
			},
			[]string{"result"},
		),

		RunDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "scorecard_run_duration_seconds",
				Help:    "Duration of a full pipeline run in seconds",
				Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600, 1200},
			},
		),

		FetchFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scorecard_fetch_failures_total",
				Help: "Total number of degraded fetches by source",
			},
			[]string{"source"},
		),

		LastSuccess: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "scorecard_last_success_timestamp_seconds",
				Help: "Unix time of the last successful run",
			},
		),

		TickerScore: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "scorecard_ticker_score",
				Help: "Latest normalised score out of 20 per ticker",
			},
			[]string{"ticker"},
		),
	}

	t.registry.MustRegister(t.Runs, t.RunDuration, t.FetchFailures, t.LastSuccess, t.TickerScore)
	return t
}

// Registry exposes the underlying registry
func (t *Telemetry) Registry() *prometheus.Registry {
	return t.registry
}

// Handler serves the registry in the Prometheus exposition format
func (t *Telemetry) Handler() http.Handler {
	return promhttp.HandlerFor(t.registry, promhttp.HandlerOpts{})
}

// observeRun records the outcome of a run
func (t *Telemetry) observeRun(elapsed time.Duration, at time.Time, scores []models.ScoreRecord, err error) {
	t.RunDuration.Observe(elapsed.Seconds())
	if err != nil {
		t.Runs.WithLabelValues("error").Inc()
		return
	}
	t.Runs.WithLabelValues("success").Inc()
	t.LastSuccess.Set(float64(at.Unix()))

	for _, s := range scores {
		if s.ScoreOutOf20.IsNull() {
			t.TickerScore.DeleteLabelValues(s.Ticker)
			continue
		}
		t.TickerScore.WithLabelValues(s.Ticker).Set(s.ScoreOutOf20.Value)
	}
}
