package logsource

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"
)

// Options selects which log directories to read.
type Options struct {
	ClaudeDir string
	CodexDir  string
	// Bundle is a directory of per-machine snapshots, each containing
	// claude/ and codex/ subdirectories. When set it supersedes the
	// single-machine directories.
	Bundle string
	// Logger receives warnings about configured sources that yield no
	// events. Nil disables logging.
	Logger *slog.Logger
}

// Collect reads all providers into one stream sorted by timestamp.
// In bundle mode duplicate events (the same log synced from several
// machines) are collapsed.
func Collect(opts Options) ([]InteractionEvent, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	var (
		events []InteractionEvent
		err    error
	)

	if opts.Bundle != "" {
		events, err = collectBundle(opts.Bundle, logger)
	} else {
		events, err = collectMachine(opts.ClaudeDir, opts.CodexDir, logger)
	}

	if err != nil {
		return nil, err
	}

	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Timestamp.Before(events[j].Timestamp)
	})

	return events, nil
}

func collectMachine(claudeDir, codexDir string, logger *slog.Logger) ([]InteractionEvent, error) {
	var events []InteractionEvent

	if claudeDir != "" {
		claudeEvents, err := ReadClaude(claudeDir)
		if err != nil {
			return nil, fmt.Errorf("collect claude: %w", err)
		}

		if len(claudeEvents) == 0 {
			logger.Warn("log source yielded no events",
				slog.String("source", string(SourceClaude)),
				slog.String("dir", claudeDir))
		}

		events = append(events, claudeEvents...)
	}

	if codexDir != "" {
		codexEvents, err := ReadCodex(codexDir)
		if err != nil {
			return nil, fmt.Errorf("collect codex: %w", err)
		}

		if len(codexEvents) == 0 {
			logger.Warn("log source yielded no events",
				slog.String("source", string(SourceCodex)),
				slog.String("dir", codexDir))
		}

		events = append(events, codexEvents...)
	}

	return events, nil
}

func collectBundle(bundle string, logger *slog.Logger) ([]InteractionEvent, error) {
	entries, err := os.ReadDir(bundle)
	if err != nil {
		return nil, fmt.Errorf("read bundle dir: %w", err)
	}

	seen := make(map[InteractionEvent]struct{})

	var events []InteractionEvent

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		machineDir := filepath.Join(bundle, entry.Name())

		machineEvents, machineErr := collectMachine(
			filepath.Join(machineDir, "claude"),
			filepath.Join(machineDir, "codex"),
			logger.With(slog.String("machine", entry.Name())),
		)
		if machineErr != nil {
			return nil, fmt.Errorf("bundle machine %s: %w", entry.Name(), machineErr)
		}

		for _, ev := range machineEvents {
			if _, dup := seen[ev]; dup {
				continue
			}

			seen[ev] = struct{}{}
			events = append(events, ev)
		}
	}

	return events, nil
}

// EffectiveStart returns the first day for which both providers have data,
// as the later of each source's earliest event date. With a single source
// present its own earliest date is returned; with no events the zero time.
// Comparing dates instead of instants avoids penalizing a source that
// simply started later in the day.
func EffectiveStart(events []InteractionEvent) time.Time {
	earliest := make(map[Source]time.Time)

	for _, ev := range events {
		day := ev.Timestamp.Truncate(24 * time.Hour)

		cur, ok := earliest[ev.Source]
		if !ok || day.Before(cur) {
			earliest[ev.Source] = day
		}
	}

	var start time.Time

	for _, day := range earliest {
		if day.After(start) {
			start = day
		}
	}

	return start
}
