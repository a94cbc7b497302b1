package commands

import (
	"bufio"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/agenthours/internal/logsource"
)

// NewTrackerCommand creates and configures the tracker command.
func NewTrackerCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "tracker [repos...]",
		Short: "Inspect assistant log sources and tracked-directory footprints",
		Long: `Tracker without arguments reports where assistant logs are read from,
how large they are on disk, and how many interaction events each source
yields. With repository paths it reports the on-disk footprint of each
repo's tracked directory instead.`,
		RunE: runTracker,
	}
}

func runTracker(cmd *cobra.Command, args []string) error {
	setupLogger(cmd)

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	if len(args) > 0 {
		return trackRepos(args, cfg.Tracking.Dir)
	}

	return trackSources(cfg.Logs.ClaudeDir, cfg.Logs.CodexDir)
}

func trackSources(claudeDir, codexDir string) error {
	tbl := newTrackerTable()
	tbl.AppendHeader(table.Row{"Source", "Path", "Size", "Files", "Events"})

	claudeEvents, err := logsource.ReadClaude(claudeDir)
	if err != nil {
		return err
	}

	codexEvents, err := logsource.ReadCodex(codexDir)
	if err != nil {
		return err
	}

	appendSourceRow(tbl, "claude", claudeDir, len(claudeEvents))
	appendSourceRow(tbl, "codex", codexDir, len(codexEvents))
	tbl.Render()

	if len(claudeEvents) == 0 && len(codexEvents) == 0 {
		color.New(color.FgYellow).Fprintln(os.Stderr, "no interaction events found in any source")
	}

	return nil
}

func trackRepos(repos []string, trackedDir string) error {
	tbl := newTrackerTable()
	tbl.AppendHeader(table.Row{"Repo", "Tracked size", "DB", "JSONL", "JSONL lines"})

	missing := 0

	for _, repo := range repos {
		dir := filepath.Join(repo, trackedDir)

		fp, ok := trackedFootprint(dir)
		if !ok {
			missing++

			tbl.AppendRow(table.Row{repo, "-", "-", "-", "-"})

			continue
		}

		tbl.AppendRow(table.Row{
			repo,
			humanize.Bytes(uint64(fp.total)),
			humanize.Bytes(uint64(fp.dbBytes)),
			humanize.Bytes(uint64(fp.jsonlBytes)),
			humanize.Comma(int64(fp.jsonlLines)),
		})
	}

	tbl.Render()

	if missing > 0 {
		color.New(color.FgYellow).Fprintf(os.Stderr, "%d repos have no %s directory\n", missing, trackedDir)
	}

	return nil
}

func newTrackerTable() table.Writer {
	tbl := table.NewWriter()
	tbl.SetOutputMirror(os.Stdout)
	tbl.SetStyle(table.StyleLight)
	tbl.Style().Options.SeparateRows = false

	return tbl
}

func appendSourceRow(tbl table.Writer, source, dir string, events int) {
	size, files := dirUsage(dir)

	tbl.AppendRow(table.Row{
		source,
		dir,
		humanize.Bytes(uint64(size)),
		files,
		humanize.Comma(int64(events)),
	})
}

// dirUsage totals the size and count of log files under dir.
func dirUsage(dir string) (int64, int) {
	var (
		size  int64
		files int
	)

	_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || !strings.HasSuffix(path, ".jsonl") {
			return nil
		}

		info, infoErr := d.Info()
		if infoErr != nil {
			return nil
		}

		size += info.Size()
		files++

		return nil
	})

	return size, files
}

type footprint struct {
	total      int64
	dbBytes    int64
	jsonlBytes int64
	jsonlLines int
}

// trackedFootprint sizes up a tracked directory, breaking out database and
// JSONL files. ok is false when the directory does not exist.
func trackedFootprint(dir string) (footprint, bool) {
	if _, err := os.Stat(dir); err != nil {
		return footprint{}, false
	}

	var fp footprint

	_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}

		info, infoErr := d.Info()
		if infoErr != nil {
			return nil
		}

		fp.total += info.Size()

		switch filepath.Ext(path) {
		case ".db", ".sqlite", ".sqlite3":
			fp.dbBytes += info.Size()
		case ".jsonl":
			fp.jsonlBytes += info.Size()
			fp.jsonlLines += countLines(path)
		}

		return nil
	})

	return fp, true
}

func countLines(path string) int {
	f, err := os.Open(path)
	if err != nil {
		return 0
	}
	defer f.Close()

	lines := 0

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 8*1024*1024)

	for scanner.Scan() {
		lines++
	}

	return lines
}
