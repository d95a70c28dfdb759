// Package common provides shared utilities for scorecard
package common

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	toml "github.com/pelletier/go-toml/v2"
)

// Config holds all configuration for scorecard
type Config struct {
	Environment string         `toml:"environment"`
	Tickers     []string       `toml:"tickers"`
	History     HistoryConfig  `toml:"history"`
	Market      MarketConfig   `toml:"market"`
	Clients     ClientsConfig  `toml:"clients"`
	Schedule    ScheduleConfig `toml:"schedule"`
	Logging     LoggingConfig  `toml:"logging"`
}

// HistoryConfig locates the two history tables
type HistoryConfig struct {
	Path        string `toml:"path"`
	MetricsFile string `toml:"metrics_file"`
	ScoresFile  string `toml:"scores_file"`
}

// MetricsPath returns the full path of the metrics history file.
func (c *HistoryConfig) MetricsPath() string {
	return filepath.Join(c.Path, c.MetricsFile)
}

// ScoresPath returns the full path of the score history file.
func (c *HistoryConfig) ScoresPath() string {
	return filepath.Join(c.Path, c.ScoresFile)
}

// MarketConfig selects the market-data provider ("yahoo" or "eodhd")
type MarketConfig struct {
	Provider string `toml:"provider"`
}

// ClientsConfig holds API client configurations
type ClientsConfig struct {
	Yahoo   YahooConfig   `toml:"yahoo"`
	EODHD   EODHDConfig   `toml:"eodhd"`
	Finnhub FinnhubConfig `toml:"finnhub"`
}

// YahooConfig holds Yahoo Finance configuration
type YahooConfig struct {
	BaseURL   string `toml:"base_url"`
	CookieURL string `toml:"cookie_url"` // visited for the session cookie; empty skips it
	RateLimit int    `toml:"rate_limit"`
	Timeout   string `toml:"timeout"`
}

// GetTimeout parses and returns the timeout duration
func (c *YahooConfig) GetTimeout() time.Duration {
	return parseDuration(c.Timeout, 30*time.Second)
}

// EODHDConfig holds EODHD API configuration
type EODHDConfig struct {
	BaseURL   string `toml:"base_url"`
	APIKey    string `toml:"api_key"`
	RateLimit int    `toml:"rate_limit"`
	Timeout   string `toml:"timeout"`
}

// GetTimeout parses and returns the timeout duration
func (c *EODHDConfig) GetTimeout() time.Duration {
	return parseDuration(c.Timeout, 30*time.Second)
}

// FinnhubConfig holds Finnhub API configuration
type FinnhubConfig struct {
	BaseURL         string `toml:"base_url"`
	APIKey          string `toml:"api_key"`
	RateLimit       int    `toml:"rate_limit"`
	Timeout         string `toml:"timeout"`
	BreakerFailures int    `toml:"breaker_failures"` // consecutive failures before the breaker opens
	BreakerCooldown string `toml:"breaker_cooldown"`
}

// GetTimeout parses and returns the timeout duration
func (c *FinnhubConfig) GetTimeout() time.Duration {
	return parseDuration(c.Timeout, 10*time.Second)
}

// GetBreakerCooldown parses and returns how long the breaker stays open
func (c *FinnhubConfig) GetBreakerCooldown() time.Duration {
	return parseDuration(c.BreakerCooldown, time.Minute)
}

// ScheduleConfig holds settings for the schedule command
type ScheduleConfig struct {
	Cron       string `toml:"cron"`
	Listen     string `toml:"listen"`
	RunTimeout string `toml:"run_timeout"`
}

// GetRunTimeout parses and returns the per-run deadline
func (c *ScheduleConfig) GetRunTimeout() time.Duration {
	return parseDuration(c.RunTimeout, 30*time.Minute)
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level        string `toml:"level"`
	Format       string `toml:"format"` // "console" or "json"
	FilePath     string `toml:"file_path"`
	QuietClients bool   `toml:"quiet_clients"` // silence client diagnostics during a run
}

// DefaultTickers is the watch list used when none is configured.
var DefaultTickers = []string{
	"AMZN", "ASML", "NVDA", "GOOG", "BKNG", "NEM.HA", "CRM", "INTU", "MA",
	"MSFT", "SPGI", "V", "SNY", "IONQ", "AAPL", "TSLA", "JNJ",
}

// NewDefaultConfig returns a Config with sensible defaults
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Tickers:     append([]string(nil), DefaultTickers...),
		History: HistoryConfig{
			Path:        "data",
			MetricsFile: "historique_df.csv",
			ScoresFile:  "historique_scores.csv",
		},
		Market: MarketConfig{
			Provider: "yahoo",
		},
		Clients: ClientsConfig{
			Yahoo: YahooConfig{
				BaseURL:   "https://query2.finance.yahoo.com",
				CookieURL: "https://fc.yahoo.com",
				RateLimit: 5,
				Timeout:   "30s",
			},
			EODHD: EODHDConfig{
				BaseURL:   "https://eodhd.com/api",
				RateLimit: 10,
				Timeout:   "30s",
			},
			Finnhub: FinnhubConfig{
				BaseURL:         "https://finnhub.io/api/v1",
				RateLimit:       1,
				Timeout:         "10s",
				BreakerFailures: 5,
				BreakerCooldown: "1m",
			},
		},
		Schedule: ScheduleConfig{
			Cron:       "0 22 * * 1-5",
			Listen:     "127.0.0.1:9464",
			RunTimeout: "30m",
		},
		Logging: LoggingConfig{
			Level:        "info",
			Format:       "console",
			QuietClients: true,
		},
	}
}

// LoadConfig loads configuration from files with environment overrides.
// A .env file in the working directory, if present, is loaded into the
// process environment first; variables already set take precedence.
func LoadConfig(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	_ = godotenv.Load()

	// Load and merge each config file in order (later files override earlier)
	for _, path := range paths {
		if path == "" {
			continue
		}

		if _, err := os.Stat(path); os.IsNotExist(err) {
			continue // Skip missing files
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(config)

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("SCORECARD_ENV"); env != "" {
		config.Environment = env
	}

	if level := os.Getenv("SCORECARD_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}

	if path := os.Getenv("SCORECARD_DATA_PATH"); path != "" {
		config.History.Path = path
	}

	if tickers := os.Getenv("SCORECARD_TICKERS"); tickers != "" {
		config.Tickers = SplitTickers(tickers)
	}

	if provider := os.Getenv("SCORECARD_MARKET_PROVIDER"); provider != "" {
		config.Market.Provider = strings.ToLower(provider)
	}

	if cron := os.Getenv("SCORECARD_SCHEDULE_CRON"); cron != "" {
		config.Schedule.Cron = cron
	}
}

// Validate checks the settings a run cannot proceed without.
func (c *Config) Validate() error {
	switch c.Market.Provider {
	case "yahoo", "eodhd":
	default:
		return fmt.Errorf("unknown market provider %q (want yahoo or eodhd)", c.Market.Provider)
	}
	if c.History.MetricsFile == "" || c.History.ScoresFile == "" {
		return fmt.Errorf("history file names must not be empty")
	}
	return nil
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	env := strings.ToLower(strings.TrimSpace(c.Environment))
	return env == "production" || env == "prod"
}

// SplitTickers parses a comma separated ticker list, trimming blanks.
func SplitTickers(s string) []string {
	var out []string
	for _, t := range strings.Split(s, ",") {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// ResolveAPIKey resolves an API key from environment or fallback
func ResolveAPIKey(name string, fallback string) (string, error) {
	keyToEnvMapping := map[string][]string{
		"finnhub_api_key": {"FINNHUB_API_KEY", "SCORECARD_FINNHUB_API_KEY"},
		"eodhd_api_key":   {"EODHD_API_KEY", "SCORECARD_EODHD_API_KEY"},
	}

	if envVarNames, ok := keyToEnvMapping[name]; ok {
		for _, envVarName := range envVarNames {
			if envValue := os.Getenv(envVarName); envValue != "" {
				return envValue, nil
			}
		}
	}

	if fallback != "" {
		return fallback, nil
	}

	return "", fmt.Errorf("API key '%s' not found in environment or config", name)
}

func parseDuration(s string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return def
	}
	return d
}
