package common

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ternarybob/banner"
)

// PrintBanner displays the application startup banner to stderr. Production
// environments get the structured log line only.
func PrintBanner(config *Config, logger *Logger, command string) {
	writeBanner(os.Stderr, config, logger, command)
}

func writeBanner(w io.Writer, config *Config, logger *Logger, command string) {
	version := GetVersion()
	build := GetBuild()
	commit := GetGitCommit()

	defer logger.Info().
		Str("version", version).
		Str("build", build).
		Str("commit", commit).
		Str("environment", config.Environment).
		Str("command", command).
		Int("tickers", len(config.Tickers)).
		Str("market_provider", config.Market.Provider).
		Str("history_path", config.History.Path).
		Msg("Application started")

	if config.IsProduction() {
		return
	}

	lineColor := banner.ColorCyan
	textColor := banner.ColorBold + banner.ColorWhite
	width := 70
	hr := lineColor + strings.Repeat("═", width) + banner.ColorReset

	art := []string{
		`  ___  ___ ___  _ __ ___  ___ __ _ _ __ __| |`,
		` / __|/ __/ _ \| '__/ _ \/ __/ _' | '__/ _' |`,
		` \__ \ (_| (_) | | |  __/ (_| (_| | | | (_| |`,
		` |___/\___\___/|_|  \___|\___\__,_|_|  \__,_|`,
	}

	fmt.Fprintf(w, "\n")
	fmt.Fprintf(w, "%s\n", hr)
	fmt.Fprintf(w, "\n")
	for _, line := range art {
		fmt.Fprintf(w, "%s%s%s\n", textColor, line, banner.ColorReset)
	}
	fmt.Fprintf(w, "\n")
	fmt.Fprintf(w, "%s  Fundamental Scoring & History%s\n", textColor, banner.ColorReset)
	fmt.Fprintf(w, "\n")
	fmt.Fprintf(w, "%s\n", hr)
	fmt.Fprintf(w, "\n")

	kvPad := 16
	kvLines := [][2]string{
		{"Version", version},
		{"Build", build},
		{"Commit", commit},
		{"Environment", config.Environment},
		{"Command", command},
		{"Tickers", fmt.Sprintf("%d", len(config.Tickers))},
		{"Market data", config.Market.Provider},
		{"History", config.History.Path},
	}
	for _, kv := range kvLines {
		fmt.Fprintf(w, "%s  %-*s %s%s\n", textColor, kvPad, kv[0], kv[1], banner.ColorReset)
	}

	fmt.Fprintf(w, "\n")
	fmt.Fprintf(w, "%s\n", hr)
	fmt.Fprintf(w, "\n")
}

// PrintShutdownBanner displays the application shutdown banner to stderr.
func PrintShutdownBanner(logger *Logger) {
	lineColor := banner.ColorCyan
	textColor := banner.ColorBold + banner.ColorWhite
	width := 42
	hr := lineColor + strings.Repeat("═", width) + banner.ColorReset

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "%s\n", hr)
	fmt.Fprintf(os.Stderr, "%s  SCORECARD - SHUTTING DOWN%s\n", textColor, banner.ColorReset)
	fmt.Fprintf(os.Stderr, "%s\n", hr)
	fmt.Fprintf(os.Stderr, "\n")

	logger.Info().Msg("Application shutting down")
}
