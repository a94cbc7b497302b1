package commands

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/Sumatoshi-tech/agenthours/internal/logsource"
	"github.com/Sumatoshi-tech/agenthours/internal/report"
	"github.com/Sumatoshi-tech/agenthours/internal/segment"
)

// ErrUnknownFormat indicates an unsupported --format value.
var ErrUnknownFormat = errors.New("unknown format: use table, yaml, or csv")

// SessionsCommand holds the configuration for the sessions command.
type SessionsCommand struct {
	format   string
	since    string
	sittings bool
}

// NewSessionsCommand creates and configures the sessions command.
func NewSessionsCommand() *cobra.Command {
	sc := &SessionsCommand{}

	cobraCmd := &cobra.Command{
		Use:   "sessions",
		Short: "Reconstruct work sessions from assistant logs",
		Long: `Sessions reads the assistant logs and reconstructs per-project work
sessions by gap clustering, without touching any git repository.`,
		RunE: sc.run,
	}

	cobraCmd.Flags().StringVarP(&sc.format, "format", "f", "table", "Output format (table, yaml, csv)")
	cobraCmd.Flags().StringVar(&sc.since, "since", "", "Only include sessions ending after this time")
	cobraCmd.Flags().BoolVar(&sc.sittings, "sittings", false, "Report machine-wide sittings instead of per-project sessions")

	return cobraCmd
}

func (sc *SessionsCommand) run(cmd *cobra.Command, _ []string) error {
	logger := setupLogger(cmd)

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	since, err := parseSince(sc.since)
	if err != nil {
		return err
	}

	events, err := logsource.Collect(logsource.Options{
		ClaudeDir: cfg.Logs.ClaudeDir,
		CodexDir:  cfg.Logs.CodexDir,
		Bundle:    cfg.Logs.Bundle,
		Logger:    logger,
	})
	if err != nil {
		return err
	}

	var intervals []segment.Interval

	if sc.sittings {
		intervals = segment.Sittings(events, cfg.Segment.SittingGap, cfg.Segment.LeadIn)
	} else {
		intervals = segment.Sessions(events, cfg.Segment.SessionGap, cfg.Segment.LeadIn)
	}

	if !since.IsZero() {
		kept := intervals[:0]

		for _, iv := range intervals {
			if !iv.End.Before(since) {
				kept = append(kept, iv)
			}
		}

		intervals = kept
	}

	switch sc.format {
	case "table":
		report.WriteSessionsTable(os.Stdout, intervals)

		return nil
	case "csv":
		return report.WriteSessionsCSV(os.Stdout, intervals)
	case "yaml":
		return writeSessionsYAML(intervals)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, sc.format)
	}
}

// sessionYAML is the serialized form of one interval.
type sessionYAML struct {
	Start   string  `yaml:"start"`
	End     string  `yaml:"end"`
	Hours   float64 `yaml:"hours"`
	Events  int     `yaml:"events"`
	Project string  `yaml:"project,omitempty"`
}

func writeSessionsYAML(intervals []segment.Interval) error {
	out := make([]sessionYAML, len(intervals))

	for i, iv := range intervals {
		out[i] = sessionYAML{
			Start:   iv.Start.Format(time.RFC3339),
			End:     iv.End.Format(time.RFC3339),
			Hours:   iv.Duration().Hours(),
			Events:  iv.Events,
			Project: iv.Project,
		}
	}

	enc := yaml.NewEncoder(os.Stdout)
	defer enc.Close()

	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("encode sessions yaml: %w", err)
	}

	return nil
}
