package commands

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/agenthours/internal/aggregate"
	"github.com/Sumatoshi-tech/agenthours/internal/pipeline"
	"github.com/Sumatoshi-tech/agenthours/internal/report"
)

// ErrAuthorRequired indicates neither --author nor the config set an author.
var ErrAuthorRequired = errors.New("author is required: pass --author or set it in the config")

// CompareCommand holds the configuration for the compare command.
type CompareCommand struct {
	author      string
	since       string
	hubSince    string
	csvPath     string
	plotPath    string
	projectsCSV string
	history     bool
	combined    bool
}

// NewCompareCommand creates and configures the compare command.
func NewCompareCommand() *cobra.Command {
	cc := &CompareCommand{}

	cobraCmd := &cobra.Command{
		Use:   "compare",
		Short: "Compare commit rates across tracking configurations",
		Long: `Compare reconstructs work sessions from assistant logs, attributes
commits to the tracking configuration in force when each session started,
and reports commit and line-churn rates per configuration, raw and with
outlier commits excluded.`,
		RunE: cc.run,
	}

	cobraCmd.Flags().StringVar(&cc.author, "author", "", "Author name or email pattern (required unless set in config)")
	cobraCmd.Flags().StringVar(&cc.since, "since", "", "Restrict analysis to work after this time (date, RFC3339, or duration)")
	cobraCmd.Flags().StringVar(&cc.hubSince, "hub-since", "", "Override the hub start date (YYYY-MM-DD)")
	cobraCmd.Flags().StringVar(&cc.csvPath, "csv", "", "Write the per-configuration rollup to this CSV file")
	cobraCmd.Flags().StringVar(&cc.projectsCSV, "projects-csv", "", "Write the labeled per-repository sessions to this CSV file")
	cobraCmd.Flags().StringVar(&cc.plotPath, "plot", "", "Write an HTML comparison page to this file")
	cobraCmd.Flags().BoolVar(&cc.history, "history", false, "Also print the per-day-and-configuration breakdown")
	cobraCmd.Flags().BoolVar(&cc.combined, "combined", false, "Also print the per-day rollup across configurations")

	return cobraCmd
}

func (cc *CompareCommand) run(cmd *cobra.Command, _ []string) error {
	logger := setupLogger(cmd)

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	if cc.author != "" {
		cfg.Author = cc.author
	}

	if cfg.Author == "" {
		return ErrAuthorRequired
	}

	if cc.hubSince != "" {
		if _, parseErr := time.Parse(time.DateOnly, cc.hubSince); parseErr != nil {
			return fmt.Errorf("%w: %q", ErrInvalidTimeFormat, cc.hubSince)
		}

		cfg.Tracking.HubStart = cc.hubSince
	}

	since, err := parseSince(cc.since)
	if err != nil {
		return err
	}

	result, err := pipeline.New(cfg, pipeline.LibGit{}, logger).Run(since)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stdout, "Effective start: %s\n\n", result.EffectiveStart.Format(time.DateOnly))
	report.WriteSummaryTable(os.Stdout, result.ByConfig)

	if cc.combined {
		fmt.Fprintln(os.Stdout, "\nPer day:")
		report.WriteSummaryTable(os.Stdout, result.ByDay)
	}

	if cc.history {
		fmt.Fprintln(os.Stdout, "\nPer day and configuration:")
		report.WriteSummaryTable(os.Stdout, result.ByDayConfig)
	}

	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		printCounters(result.Counters)
	}

	if cc.csvPath != "" {
		if writeErr := writeCSVFile(cc.csvPath, result); writeErr != nil {
			return writeErr
		}
	}

	if cc.projectsCSV != "" {
		if writeErr := writeProjectsCSV(cc.projectsCSV, result.Sessions); writeErr != nil {
			return writeErr
		}
	}

	if cc.plotPath != "" {
		if plotErr := writePlotFile(cc.plotPath, result); plotErr != nil {
			return plotErr
		}
	}

	return nil
}

func printCounters(c pipeline.Counters) {
	warn := color.New(color.FgYellow).FprintfFunc()

	fmt.Fprintf(os.Stderr, "\nevents: %d\n", c.Events)
	fmt.Fprintf(os.Stderr, "sessions: %d\n", c.Sessions)
	fmt.Fprintf(os.Stderr, "repos: %d\n", c.Repos)
	fmt.Fprintf(os.Stderr, "commits: %d (outliers: %d)\n", c.Commits, c.Outliers)

	if c.SessionsSkippedNoRepo > 0 {
		warn(os.Stderr, "sessions_skipped_no_repo: %d\n", c.SessionsSkippedNoRepo)
	}

	if c.SessionsSkippedIgnored > 0 {
		fmt.Fprintf(os.Stderr, "sessions_skipped_ignored: %d\n", c.SessionsSkippedIgnored)
	}

	if c.SessionsSkippedBeforeStart > 0 {
		fmt.Fprintf(os.Stderr, "sessions_skipped_before_start: %d\n", c.SessionsSkippedBeforeStart)
	}

	if c.CommitsUnknown > 0 {
		warn(os.Stderr, "commits_unknown: %d\n", c.CommitsUnknown)
	}
}

func writeCSVFile(path string, result *pipeline.Result) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv file: %w", err)
	}
	defer f.Close()

	rows := make([]aggregate.SummaryRow, 0, len(result.ByConfig)+len(result.ByDayConfig))
	rows = append(rows, result.ByConfig...)
	rows = append(rows, result.ByDayConfig...)

	return report.WriteSummaryCSV(f, rows)
}

func writeProjectsCSV(path string, sessions []pipeline.LabeledSession) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create projects csv file: %w", err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)

	if writeErr := cw.Write([]string{"repo", "config", "start", "end", "hours", "events"}); writeErr != nil {
		return fmt.Errorf("write csv header: %w", writeErr)
	}

	for _, s := range sessions {
		record := []string{
			s.Repo,
			string(s.Label),
			s.Interval.Start.Format(time.RFC3339),
			s.Interval.End.Format(time.RFC3339),
			strconv.FormatFloat(s.Interval.Duration().Hours(), 'f', 4, 64),
			strconv.Itoa(s.Interval.Events),
		}

		if writeErr := cw.Write(record); writeErr != nil {
			return fmt.Errorf("write csv row: %w", writeErr)
		}
	}

	cw.Flush()

	return cw.Error()
}

func writePlotFile(path string, result *pipeline.Result) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create plot file: %w", err)
	}
	defer f.Close()

	return report.WriteComparisonPage(f, result.ByConfig, result.ByDay)
}
