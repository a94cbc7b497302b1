// Package logsource reads AI assistant interaction logs and normalizes them
// into a single event stream. Two providers are supported: Claude Code state
// directories and Codex session archives. Events carry the raw working
// directory they were recorded in; resolution to repositories happens later.
package logsource

import (
	"bytes"
	"fmt"
	"strconv"
	"time"
)

// Source identifies the provider an event came from.
type Source string

const (
	// SourceClaude marks events read from a Claude Code state directory.
	SourceClaude Source = "claude"
	// SourceCodex marks events read from a Codex session archive.
	SourceCodex Source = "codex"
)

// Kind distinguishes who produced an event.
type Kind string

const (
	// KindUser marks a human prompt.
	KindUser Kind = "user"
	// KindAssistant marks a model response.
	KindAssistant Kind = "assistant"
)

// InteractionEvent is one timestamped log entry attributed to a project path.
type InteractionEvent struct {
	Timestamp time.Time
	// Project is the raw working directory recorded in the log.
	Project string
	Kind    Kind
	Source  Source
}

// epochMillisThreshold separates epoch seconds from epoch milliseconds: any
// value above it is far beyond year 30000 when read as seconds.
const epochMillisThreshold = 1e12

// flexTime accepts an RFC 3339 string or an epoch number in seconds or
// milliseconds. All three appear in the wild across provider log versions.
type flexTime struct {
	time.Time
}

func (t *flexTime) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}

	if data[0] == '"' {
		s := string(data[1 : len(data)-1])

		parsed, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return fmt.Errorf("parse timestamp %q: %w", s, err)
		}

		t.Time = parsed.UTC()

		return nil
	}

	epoch, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		return fmt.Errorf("parse timestamp %q: %w", data, err)
	}

	if epoch > epochMillisThreshold {
		t.Time = time.UnixMilli(int64(epoch)).UTC()
	} else {
		t.Time = time.Unix(int64(epoch), 0).UTC()
	}

	return nil
}
