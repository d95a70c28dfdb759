package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/bobmcallan/scorecard/internal/common"
	"github.com/bobmcallan/scorecard/internal/models"
	"github.com/bobmcallan/scorecard/internal/services/report"
)

// registerRoutes sets up all routes on the mux.
func (s *Server) registerRoutes(mux *http.ServeMux) {
	// System
	mux.HandleFunc("/api/health", s.handleHealth)
	mux.HandleFunc("/api/version", s.handleVersion)
	mux.HandleFunc("/api/schedule", s.handleSchedule)
	mux.Handle("/metrics", s.app.Telemetry.Handler())

	// History
	mux.HandleFunc("/api/latest", s.handleLatest)
	mux.HandleFunc("/api/tickers/", s.routeTickers)
}

// routeTickers dispatches /api/tickers/{ticker}/{scores|metrics|chart}
func (s *Server) routeTickers(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/tickers/")
	ticker, sub, _ := strings.Cut(rest, "/")
	if ticker == "" {
		WriteError(w, http.StatusNotFound, "Not found")
		return
	}

	switch sub {
	case "scores":
		s.handleTickerScores(w, r, ticker)
	case "metrics":
		s.handleTickerMetrics(w, r, ticker)
	case "chart":
		s.handleTickerChart(w, r, ticker)
	default:
		WriteError(w, http.StatusNotFound, "Not found")
	}
}

// --- System handlers ---

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet, http.MethodHead) {
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet, http.MethodHead) {
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{
		"version": common.GetVersion(),
		"build":   common.GetBuild(),
		"commit":  common.GetGitCommit(),
	})
}

func (s *Server) handleSchedule(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	resp := map[string]interface{}{
		"cron":    s.app.Config.Schedule.Cron,
		"tickers": s.app.Config.Tickers,
		"uptime":  time.Since(s.app.StartupTime).Round(time.Second).String(),
	}
	if s.scheduler != nil {
		if next := s.scheduler.Next(); !next.IsZero() {
			resp["next_run"] = next.Format(time.RFC3339)
		}
		if last, err := s.scheduler.LastRun(); !last.IsZero() {
			resp["last_run"] = last.Format(time.RFC3339)
			if err != nil {
				resp["last_error"] = err.Error()
			}
		}
	}
	if b, ok := s.app.MetricsClient.(interface{ BreakerState() string }); ok {
		resp["metrics_breaker"] = b.BreakerState()
	}
	WriteJSON(w, http.StatusOK, resp)
}

// --- History handlers ---

// handleLatest handles GET /api/latest?metric=M (default Score_sur_20).
func (s *Server) handleLatest(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	metric := metricParam(r)
	if !report.KnownMetric(metric) {
		WriteError(w, http.StatusBadRequest, "Unknown metric: "+metric)
		return
	}

	date, rows, err := s.app.Reports.Snapshot(r.Context(), metric)
	if err != nil {
		s.logger.Error().Err(err).Str("metric", metric).Msg("Snapshot failed")
		WriteError(w, http.StatusInternalServerError, "Failed to read history")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"metric": metric,
		"date":   date,
		"rows":   rows,
	})
}

func (s *Server) handleTickerScores(w http.ResponseWriter, r *http.Request, ticker string) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	rows, err := s.app.Reports.ScoreHistory(r.Context(), ticker)
	if err != nil {
		s.logger.Error().Err(err).Str("ticker", ticker).Msg("Score history failed")
		WriteError(w, http.StatusInternalServerError, "Failed to read history")
		return
	}
	if rows == nil {
		rows = []models.ScoreHistoryRow{}
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"ticker": ticker,
		"scores": rows,
	})
}

func (s *Server) handleTickerMetrics(w http.ResponseWriter, r *http.Request, ticker string) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	row, err := s.app.Reports.LatestMetrics(r.Context(), ticker)
	if err != nil {
		s.logger.Error().Err(err).Str("ticker", ticker).Msg("Latest metrics failed")
		WriteError(w, http.StatusInternalServerError, "Failed to read history")
		return
	}
	if row == nil {
		WriteError(w, http.StatusNotFound, "No history for ticker: "+ticker)
		return
	}

	WriteJSON(w, http.StatusOK, row)
}

func (s *Server) handleTickerChart(w http.ResponseWriter, r *http.Request, ticker string) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	metric := metricParam(r)
	if !report.KnownMetric(metric) {
		WriteError(w, http.StatusBadRequest, "Unknown metric: "+metric)
		return
	}

	series, err := s.app.Reports.MetricSeries(r.Context(), metric, []string{ticker})
	if err != nil {
		s.logger.Error().Err(err).Str("ticker", ticker).Msg("Metric series failed")
		WriteError(w, http.StatusInternalServerError, "Failed to read history")
		return
	}

	png, err := report.RenderMetricChart(ticker+" "+metric, series)
	if err != nil {
		WriteError(w, http.StatusNotFound, err.Error())
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	w.Write(png)
}

func metricParam(r *http.Request) string {
	if m := r.URL.Query().Get("metric"); m != "" {
		return m
	}
	return models.ColScoreOutOf20
}
