package app

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/bobmcallan/scorecard/internal/clients/eodhd"
	"github.com/bobmcallan/scorecard/internal/clients/finnhub"
	"github.com/bobmcallan/scorecard/internal/clients/yahoo"
	"github.com/bobmcallan/scorecard/internal/common"
	"github.com/bobmcallan/scorecard/internal/interfaces"
	"github.com/bobmcallan/scorecard/internal/services/assembler"
	"github.com/bobmcallan/scorecard/internal/services/fundamentals"
	"github.com/bobmcallan/scorecard/internal/services/performance"
	"github.com/bobmcallan/scorecard/internal/services/report"
	"github.com/bobmcallan/scorecard/internal/services/scoring"
	"github.com/bobmcallan/scorecard/internal/storage/history"
)

// App holds the configured clients, services and history store.
// It is shared by every scorecard command.
type App struct {
	Config        *common.Config
	Logger        *common.Logger
	ClientLogger  *common.Logger
	MarketClient  interfaces.MarketDataClient
	MetricsClient interfaces.MetricsClient
	Assembler     *assembler.Assembler
	Scoring       *scoring.Engine
	Store         interfaces.HistoryStore
	Reports       *report.Service
	Telemetry     *Telemetry
	StartupTime   time.Time

	now      func() time.Time
	closeLog func() error

	// runMu serialises runs; runAt is the instant shared by one run.
	runMu sync.Mutex
	runAt time.Time

	failMu   sync.Mutex
	failures map[string]int
}

// Option configures an App built with New
type Option func(*App)

// WithClock overrides the source of the run instant
func WithClock(now func() time.Time) Option {
	return func(a *App) {
		a.now = now
	}
}

// WithClientLogger sets the logger silenced while a run is in progress
func WithClientLogger(logger *common.Logger) Option {
	return func(a *App) {
		a.ClientLogger = logger
	}
}

// getBinaryDir returns the directory containing the executable.
func getBinaryDir() string {
	exe, err := os.Executable()
	if err != nil {
		return "."
	}
	return filepath.Dir(exe)
}

// resolveConfigPath picks the config file: the given path, SCORECARD_CONFIG,
// scorecard.toml next to the binary, then config/scorecard.toml.
func resolveConfigPath(configPath string) string {
	if configPath == "" {
		configPath = os.Getenv("SCORECARD_CONFIG")
	}
	if configPath == "" {
		configPath = filepath.Join(getBinaryDir(), "scorecard.toml")
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			configPath = "config/scorecard.toml"
		}
	}
	return configPath
}

// NewApp loads configuration and builds the clients and services.
// configPath may be empty, in which case the default resolution logic is used.
func NewApp(configPath string) (*App, error) {
	common.LoadVersionFromFile()

	config, err := common.LoadConfig(resolveConfigPath(configPath))
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger, closeLog, err := common.NewLoggerFromConfig(config.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	// Clients get their own logger so a run can silence them alone
	clientLogger := &common.Logger{Logger: logger.With().Str("component", "client").Logger()}

	market, err := newMarketClient(config, clientLogger)
	if err != nil {
		closeLog()
		return nil, err
	}
	metrics := newMetricsClient(config, clientLogger, logger)

	a := New(config, logger, market, metrics, WithClientLogger(clientLogger))
	a.closeLog = closeLog
	return a, nil
}

// newMarketClient builds the configured market-data provider
func newMarketClient(config *common.Config, logger *common.Logger) (interfaces.MarketDataClient, error) {
	switch config.Market.Provider {
	case "eodhd":
		key, err := common.ResolveAPIKey("eodhd_api_key", config.Clients.EODHD.APIKey)
		if err != nil {
			return nil, fmt.Errorf("eodhd provider selected: %w", err)
		}
		cfg := config.Clients.EODHD
		return eodhd.NewClient(key,
			eodhd.WithBaseURL(cfg.BaseURL),
			eodhd.WithLogger(logger),
			eodhd.WithRateLimit(cfg.RateLimit),
			eodhd.WithTimeout(cfg.GetTimeout()),
		), nil
	default:
		cfg := config.Clients.Yahoo
		return yahoo.NewClient(
			yahoo.WithBaseURL(cfg.BaseURL),
			yahoo.WithCookieURL(cfg.CookieURL),
			yahoo.WithLogger(logger),
			yahoo.WithRateLimit(cfg.RateLimit),
			yahoo.WithTimeout(cfg.GetTimeout()),
		), nil
	}
}

// newMetricsClient builds the growth-metrics client. Without an API key it
// returns nil and the growth columns stay null.
func newMetricsClient(config *common.Config, clientLogger, logger *common.Logger) interfaces.MetricsClient {
	cfg := config.Clients.Finnhub
	key, err := common.ResolveAPIKey("finnhub_api_key", cfg.APIKey)
	if err != nil {
		logger.Warn().Msg("Finnhub API key not configured - growth metrics will be empty")
		return nil
	}
	return finnhub.NewClient(key,
		finnhub.WithBaseURL(cfg.BaseURL),
		finnhub.WithLogger(clientLogger),
		finnhub.WithRateLimit(cfg.RateLimit),
		finnhub.WithTimeout(cfg.GetTimeout()),
		finnhub.WithBreaker(cfg.BreakerFailures, cfg.GetBreakerCooldown()),
	)
}

// New wires the services around already constructed clients. metrics may
// be nil.
func New(config *common.Config, logger *common.Logger, market interfaces.MarketDataClient, metrics interfaces.MetricsClient, opts ...Option) *App {
	a := &App{
		Config:        config,
		Logger:        logger,
		MarketClient:  market,
		MetricsClient: metrics,
		Scoring:       scoring.NewEngine(),
		Telemetry:     NewTelemetry(),
		StartupTime:   time.Now(),
		now:           time.Now,
		failures:      make(map[string]int),
	}
	for _, opt := range opts {
		opt(a)
	}
	a.Store = history.NewStore(config.History.MetricsPath(), config.History.ScoresPath(), logger)

	analyzer := performance.NewAnalyzer(market, logger,
		performance.WithClock(func() time.Time { return a.runAt }),
		performance.WithFailureHook(a.recordFailure),
	)
	fetcher := fundamentals.NewService(market, metrics, logger, a.recordFailure)
	a.Assembler = assembler.NewAssembler(analyzer, fetcher, logger)
	a.Reports = report.NewService(a.Store, logger)

	return a
}

// recordFailure counts a degraded fetch for the current run
func (a *App) recordFailure(source string) {
	a.failMu.Lock()
	a.failures[source]++
	a.failMu.Unlock()
	a.Telemetry.FetchFailures.WithLabelValues(source).Inc()
}

// takeFailures returns and clears the failure counts
func (a *App) takeFailures() map[string]int {
	a.failMu.Lock()
	defer a.failMu.Unlock()
	out := a.failures
	a.failures = make(map[string]int)
	return out
}

// Close releases resources held by the App.
func (a *App) Close() {
	if a.closeLog != nil {
		a.closeLog()
		a.closeLog = nil
	}
}
