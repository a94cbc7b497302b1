package logsource

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// claudeScanBuffer bounds a single log line; tool results can be large.
const claudeScanBuffer = 8 * 1024 * 1024

// claudeRecord is the subset of a Claude Code log line we care about.
type claudeRecord struct {
	Type      string   `json:"type"`
	Timestamp flexTime `json:"timestamp"`
	CWD       string   `json:"cwd"`
	IsMeta    bool     `json:"isMeta"`
}

// ReadClaude reads all interaction events from a Claude Code state directory.
// Logs live under <dir>/projects/<encoded-path>/*.jsonl. Malformed lines and
// unreadable files are skipped; a missing projects directory yields no events.
func ReadClaude(dir string) ([]InteractionEvent, error) {
	projectsDir := filepath.Join(dir, "projects")

	entries, err := os.ReadDir(projectsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}

		return nil, fmt.Errorf("read claude projects dir: %w", err)
	}

	var events []InteractionEvent

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		projectDir := filepath.Join(projectsDir, entry.Name())
		fallback := decodeClaudeProjectName(entry.Name())

		files, globErr := filepath.Glob(filepath.Join(projectDir, "*.jsonl"))
		if globErr != nil {
			continue
		}

		for _, file := range files {
			events = append(events, readClaudeFile(file, fallback)...)
		}
	}

	return events, nil
}

func readClaudeFile(path, fallbackProject string) []InteractionEvent {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()

	var events []InteractionEvent

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), claudeScanBuffer)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var rec claudeRecord
		if json.Unmarshal(line, &rec) != nil {
			continue
		}

		if rec.IsMeta || rec.Timestamp.IsZero() {
			continue
		}

		var kind Kind

		switch rec.Type {
		case "user":
			kind = KindUser
		case "assistant":
			kind = KindAssistant
		default:
			continue
		}

		project := rec.CWD
		if project == "" {
			project = fallbackProject
		}

		events = append(events, InteractionEvent{
			Timestamp: rec.Timestamp.Time,
			Project:   project,
			Kind:      kind,
			Source:    SourceClaude,
		})
	}

	return events
}

// decodeClaudeProjectName recovers an absolute path from an encoded project
// directory name, where path separators were replaced with dashes. The
// decoding is lossy for paths containing literal dashes; it is only a
// fallback for records missing a cwd field.
func decodeClaudeProjectName(name string) string {
	return strings.ReplaceAll(name, "-", "/")
}
