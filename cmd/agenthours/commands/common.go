// Package commands implements the agenthours CLI subcommands.
package commands

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/agenthours/internal/config"
)

// ErrInvalidTimeFormat indicates an unparseable --since value.
var ErrInvalidTimeFormat = errors.New("cannot parse time")

// loadConfig reads the config honoring the persistent --config flag.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")

	return config.LoadConfig(path)
}

// setupLogger installs a text slog handler, debug level when verbose and
// errors only when quiet.
func setupLogger(cmd *cobra.Command) *slog.Logger {
	verbose, _ := cmd.Flags().GetBool("verbose")
	quiet, _ := cmd.Flags().GetBool("quiet")

	level := slog.LevelWarn

	switch {
	case verbose:
		level = slog.LevelDebug
	case quiet:
		level = slog.LevelError
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	return logger
}

// parseSince accepts a date, an RFC 3339 timestamp, or a duration back from
// now. An empty value yields the zero time.
func parseSince(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}

	if ts, err := time.Parse(time.DateOnly, value); err == nil {
		return ts, nil
	}

	if ts, err := time.Parse(time.RFC3339, value); err == nil {
		return ts, nil
	}

	if d, err := time.ParseDuration(value); err == nil {
		return time.Now().UTC().Add(-d), nil
	}

	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidTimeFormat, value)
}
