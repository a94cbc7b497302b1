package attribution

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/agenthours/internal/confstate"
	"github.com/Sumatoshi-tech/agenthours/internal/gitio"
	"github.com/Sumatoshi-tech/agenthours/internal/segment"
)

func at(t *testing.T, clock string) time.Time {
	t.Helper()

	ts, err := time.Parse(time.RFC3339, "2025-08-01T"+clock+":00Z")
	require.NoError(t, err)

	return ts
}

func TestAttributeStickyAtSessionStart(t *testing.T) {
	t.Parallel()

	// Session runs 09:00 to 09:30, adoption lands mid-session at 09:15.
	// A commit at 09:20 is after adoption, but the session started under
	// the old configuration, so the commit keeps the old label.
	sessions := []segment.Interval{
		{Start: at(t, "09:00"), End: at(t, "09:30"), Project: "/repo"},
	}

	timeline := confstate.Timeline{
		Repo: "/repo",
		Changes: []confstate.Change{
			{At: at(t, "09:15"), Label: confstate.LabelTrackedOnly},
		},
	}

	commits := []gitio.Commit{
		{Hash: "aaa", When: at(t, "09:05")},
		{Hash: "bbb", When: at(t, "09:20")},
	}

	got := Attribute("/repo", commits, sessions, timeline)
	require.Len(t, got, 2)

	assert.Equal(t, confstate.LabelNone, got[0].Label)
	assert.Equal(t, confstate.LabelNone, got[1].Label)
}

func TestAttributeSessionStartAfterChange(t *testing.T) {
	t.Parallel()

	sessions := []segment.Interval{
		{Start: at(t, "10:00"), End: at(t, "10:30"), Project: "/repo"},
	}

	timeline := confstate.Timeline{
		Repo: "/repo",
		Changes: []confstate.Change{
			{At: at(t, "09:15"), Label: confstate.LabelTrackedOnly},
		},
	}

	got := Attribute("/repo", []gitio.Commit{{Hash: "ccc", When: at(t, "10:10")}}, sessions, timeline)
	require.Len(t, got, 1)
	assert.Equal(t, confstate.LabelTrackedOnly, got[0].Label)
}

func TestAttributeInclusiveBounds(t *testing.T) {
	t.Parallel()

	sessions := []segment.Interval{
		{Start: at(t, "09:00"), End: at(t, "09:30")},
	}

	tests := []struct {
		name     string
		when     string
		expected confstate.Label
	}{
		{name: "at_start", when: "09:00", expected: confstate.LabelNone},
		{name: "at_end", when: "09:30", expected: confstate.LabelNone},
		{name: "before_start", when: "08:59", expected: LabelUnknown},
		{name: "after_end", when: "09:31", expected: LabelUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := Attribute("/repo", []gitio.Commit{{When: at(t, tt.when)}}, sessions, confstate.Timeline{})
			require.Len(t, got, 1)
			assert.Equal(t, tt.expected, got[0].Label)
		})
	}
}

func TestAttributeOverlapTakesEarlierSession(t *testing.T) {
	t.Parallel()

	// Overlapping sessions can arise when lead-in backdating crosses a
	// previous session's end.
	sessions := []segment.Interval{
		{Start: at(t, "09:10"), End: at(t, "09:40")},
		{Start: at(t, "09:00"), End: at(t, "09:20")},
	}

	timeline := confstate.Timeline{
		Changes: []confstate.Change{
			{At: at(t, "09:05"), Label: confstate.LabelTrackedOnly},
		},
	}

	got := Attribute("/repo", []gitio.Commit{{When: at(t, "09:15")}}, sessions, timeline)
	require.Len(t, got, 1)

	// The 09:00 session wins, and it started before the change.
	assert.Equal(t, confstate.LabelNone, got[0].Label)
}

func TestAttributeEmptySessions(t *testing.T) {
	t.Parallel()

	got := Attribute("/repo", []gitio.Commit{{When: at(t, "09:00")}}, nil, confstate.Timeline{})
	require.Len(t, got, 1)
	assert.Equal(t, LabelUnknown, got[0].Label)
}
