package commands

import (
	"encoding/csv"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/agenthours/internal/config"
	"github.com/Sumatoshi-tech/agenthours/internal/gitio"
	"github.com/Sumatoshi-tech/agenthours/internal/gitmetrics"
)

// GitStatsCommand holds the configuration for the gitstats command.
type GitStatsCommand struct {
	author  string
	since   string
	csvPath string
}

// NewGitStatsCommand creates and configures the gitstats command.
func NewGitStatsCommand() *cobra.Command {
	gc := &GitStatsCommand{}

	cobraCmd := &cobra.Command{
		Use:   "gitstats [repository]",
		Short: "Per-day commit statistics for one repository",
		Long: `Gitstats walks one repository's history and reports per-day commit
counts, line churn, and hour estimates derived from commit spacing.`,
		Args: cobra.MaximumNArgs(1),
		RunE: gc.run,
	}

	cobraCmd.Flags().StringVar(&gc.author, "author", "", "Author name or email pattern")
	cobraCmd.Flags().StringVar(&gc.since, "since", "", "Only include commits after this time")
	cobraCmd.Flags().StringVar(&gc.csvPath, "csv", "", "Write the per-day metrics to this CSV file")

	return cobraCmd
}

func (gc *GitStatsCommand) run(cmd *cobra.Command, args []string) error {
	setupLogger(cmd)

	start := "."
	if len(args) == 1 {
		start = args[0]
	}

	root, err := gitio.DiscoverRoot(start)
	if err != nil {
		return err
	}

	since, err := parseSince(gc.since)
	if err != nil {
		return err
	}

	opts := gitio.ListOptions{Since: since}

	if gc.author != "" {
		re, reErr := regexp.Compile(gc.author)
		if reErr != nil {
			return fmt.Errorf("author pattern: %w", reErr)
		}

		opts.Author = re
	}

	repo, err := gitio.Open(root)
	if err != nil {
		return err
	}
	defer repo.Free()

	commits, err := repo.ListCommits(opts)
	if err != nil {
		return err
	}

	prep := gitmetrics.PrepSeconds(commits)
	days := gitmetrics.DailyRollup(commits, prep)
	flags := gitmetrics.FlagOutliers(commits, config.DefaultOutlierZ)

	writeDailyTable(days)
	writeGitSummary(commits, flags, prep)

	if gc.csvPath != "" {
		return writeDailyCSV(gc.csvPath, days)
	}

	return nil
}

func writeDailyCSV(path string, days []gitmetrics.DayStats) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv file: %w", err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)

	header := []string{"date", "commits", "insertions", "deletions", "span_hours", "estimated_hours", "estimated_hours_strict"}
	if writeErr := cw.Write(header); writeErr != nil {
		return fmt.Errorf("write csv header: %w", writeErr)
	}

	for _, d := range days {
		strict := ""
		if d.HasStrictEstimate() {
			strict = strconv.FormatFloat(d.EstimatedHoursStrict, 'f', 4, 64)
		}

		record := []string{
			d.Date.Format(time.DateOnly),
			strconv.Itoa(d.Commits),
			strconv.Itoa(d.Insertions),
			strconv.Itoa(d.Deletions),
			strconv.FormatFloat(d.SpanHours, 'f', 4, 64),
			strconv.FormatFloat(d.EstimatedHours, 'f', 4, 64),
			strict,
		}

		if writeErr := cw.Write(record); writeErr != nil {
			return fmt.Errorf("write csv row: %w", writeErr)
		}
	}

	cw.Flush()

	return cw.Error()
}

func writeDailyTable(days []gitmetrics.DayStats) {
	tbl := table.NewWriter()
	tbl.SetOutputMirror(os.Stdout)
	tbl.SetStyle(table.StyleLight)
	tbl.Style().Options.SeparateRows = false

	tbl.AppendHeader(table.Row{"Date", "Commits", "+", "-", "Span h", "Est h", "Est h strict"})

	for _, d := range days {
		strict := "-"
		if d.HasStrictEstimate() {
			strict = fmt.Sprintf("%.2f", d.EstimatedHoursStrict)
		}

		tbl.AppendRow(table.Row{
			d.Date.Format(time.DateOnly),
			d.Commits,
			humanize.Comma(int64(d.Insertions)),
			humanize.Comma(int64(d.Deletions)),
			fmt.Sprintf("%.2f", d.SpanHours),
			fmt.Sprintf("%.2f", d.EstimatedHours),
			strict,
		})
	}

	tbl.Render()
}

func writeGitSummary(commits []gitio.Commit, flags []bool, prepSeconds float64) {
	summary := gitmetrics.Summarize(commits)

	outliers := 0
	for _, f := range flags {
		if f {
			outliers++
		}
	}

	fmt.Fprintf(os.Stdout, "\ncommits: %d, total delta: %s, median delta: %.0f, p90 delta: %.0f, max delta: %.0f\n",
		summary.Commits,
		humanize.Comma(int64(summary.TotalDelta)),
		summary.MedianDelta,
		summary.P90Delta,
		summary.MaxDelta,
	)
	fmt.Fprintf(os.Stdout, "prep allowance: %s, outlier commits: %d\n",
		(time.Duration(prepSeconds) * time.Second).String(),
		outliers,
	)
}
