// Package server exposes health, Prometheus metrics and read-only history
// views over HTTP while the scheduler is running.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/bobmcallan/scorecard/internal/app"
	"github.com/bobmcallan/scorecard/internal/common"
)

// Server wraps the HTTP server and application reference.
type Server struct {
	app       *app.App
	scheduler *app.Scheduler
	server    *http.Server
	logger    *common.Logger
}

// NewServer creates the HTTP server. scheduler may be nil.
func NewServer(a *app.App, scheduler *app.Scheduler) *Server {
	s := &Server{
		app:       a,
		scheduler: scheduler,
		logger:    a.Logger,
	}

	mux := http.NewServeMux()
	s.registerRoutes(mux)

	s.server = &http.Server{
		Addr:         a.Config.Schedule.Listen,
		Handler:      applyMiddleware(mux, a.Logger),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Handler returns the HTTP handler for testing.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Start starts the HTTP server (blocking).
func (s *Server) Start() error {
	s.logger.Info().
		Str("addr", s.server.Addr).
		Msg("Starting metrics server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
