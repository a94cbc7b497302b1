package logsource

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// codexRecord is the envelope of a Codex session log line.
type codexRecord struct {
	Type      string          `json:"type"`
	Timestamp flexTime        `json:"timestamp"`
	Payload   json.RawMessage `json:"payload"`
}

// codexMetaPayload carries the session working directory.
type codexMetaPayload struct {
	CWD string `json:"cwd"`
}

// codexItemPayload describes a response item or event message.
type codexItemPayload struct {
	Type string `json:"type"`
	Role string `json:"role"`
}

// ReadCodex reads all interaction events from a Codex state directory.
// Sessions live under <dir>/sessions/YYYY/MM/DD/*.jsonl. Each file opens
// with a session_meta record naming the cwd; events in a file before the
// meta record (or in files without one) are dropped since they cannot be
// attributed to a project.
func ReadCodex(dir string) ([]InteractionEvent, error) {
	sessionsDir := filepath.Join(dir, "sessions")

	if _, err := os.Stat(sessionsDir); os.IsNotExist(err) {
		return nil, nil
	}

	var events []InteractionEvent

	walkErr := filepath.WalkDir(sessionsDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() || !strings.HasSuffix(path, ".jsonl") {
			return nil
		}

		events = append(events, readCodexFile(path)...)

		return nil
	})
	if walkErr != nil {
		return nil, fmt.Errorf("walk codex sessions: %w", walkErr)
	}

	return events, nil
}

func readCodexFile(path string) []InteractionEvent {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()

	var (
		events []InteractionEvent
		cwd    string
	)

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), claudeScanBuffer)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var rec codexRecord
		if json.Unmarshal(line, &rec) != nil {
			continue
		}

		if rec.Type == "session_meta" {
			var meta codexMetaPayload
			if json.Unmarshal(rec.Payload, &meta) == nil && meta.CWD != "" {
				cwd = meta.CWD
			}

			continue
		}

		if cwd == "" || rec.Timestamp.IsZero() {
			continue
		}

		kind, ok := codexEventKind(rec)
		if !ok {
			continue
		}

		events = append(events, InteractionEvent{
			Timestamp: rec.Timestamp.Time,
			Project:   cwd,
			Kind:      kind,
			Source:    SourceCodex,
		})
	}

	return events
}

func codexEventKind(rec codexRecord) (Kind, bool) {
	var payload codexItemPayload
	if json.Unmarshal(rec.Payload, &payload) != nil {
		return "", false
	}

	switch rec.Type {
	case "response_item":
		switch payload.Type {
		case "message":
			if payload.Role == "user" {
				return KindUser, true
			}

			return KindAssistant, true
		case "function_call", "function_call_output", "reasoning":
			return KindAssistant, true
		}
	case "event_msg":
		if payload.Type == "user_message" {
			return KindUser, true
		}
	}

	return "", false
}
