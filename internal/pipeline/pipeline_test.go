package pipeline

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/agenthours/internal/config"
	"github.com/Sumatoshi-tech/agenthours/internal/confstate"
	"github.com/Sumatoshi-tech/agenthours/internal/gitio"
	"github.com/Sumatoshi-tech/agenthours/internal/repomap"
)

// fakeGit serves canned repositories keyed by working tree root.
type fakeGit struct {
	roots    []string
	adoption map[string]time.Time
	commits  map[string][]gitio.Commit
	files    map[string]bool
}

func (f *fakeGit) DiscoverRoot(p string) (string, error) {
	for _, root := range f.roots {
		if p == root || strings.HasPrefix(p, root+"/") {
			return root, nil
		}
	}

	return "", repomap.ErrUnresolvedPath
}

func (f *fakeGit) AdoptionTime(root, _ string) (time.Time, error) {
	at, ok := f.adoption[root]
	if !ok {
		return time.Time{}, gitio.ErrNeverAdopted
	}

	return at, nil
}

func (f *fakeGit) ListCommits(root string, opts gitio.ListOptions) ([]gitio.Commit, error) {
	var out []gitio.Commit

	for _, c := range f.commits[root] {
		if !opts.Since.IsZero() && c.When.Before(opts.Since) {
			continue
		}

		out = append(out, c)
	}

	return out, nil
}

func (f *fakeGit) HasFile(root, name string) bool {
	return f.files[root+"/"+name]
}

func writeClaudeLog(t *testing.T, claudeDir, project string, lines []string) {
	t.Helper()

	dir := filepath.Join(claudeDir, "projects", strings.ReplaceAll(project, "/", "-"))
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(
		filepath.Join(dir, "session.jsonl"),
		[]byte(strings.Join(lines, "\n")+"\n"),
		0o644,
	))
}

func testConfig(claudeDir string) *config.Config {
	return &config.Config{
		Author: "alice",
		Logs:   config.LogsConfig{ClaudeDir: claudeDir},
		Segment: config.SegmentConfig{
			SessionGap: config.DefaultSessionGap,
			SittingGap: config.DefaultSittingGap,
			LeadIn:     config.DefaultLeadIn,
		},
		Tracking: config.TrackingConfig{
			Dir:          ".beads",
			HubName:      "beadhub",
			HubMarker:    ".beadhub",
			HubStart:     "2025-07-01",
			HubDelayDays: 14,
		},
		Outliers: config.OutlierConfig{Method: "mad-log-delta", Z: 3.5},
	}
}

func TestPipelineRun(t *testing.T) {
	t.Parallel()

	claudeDir := t.TempDir()

	// One session 09:00 to 09:05 in /work/app, plus one session in an
	// unresolvable path.
	writeClaudeLog(t, claudeDir, "/work/app", []string{
		`{"type":"user","timestamp":"2025-08-01T09:00:00Z","cwd":"/work/app"}`,
		`{"type":"assistant","timestamp":"2025-08-01T09:02:00Z","cwd":"/work/app"}`,
		`{"type":"user","timestamp":"2025-08-01T09:05:00Z","cwd":"/work/app"}`,
	})
	writeClaudeLog(t, claudeDir, "/gone/elsewhere", []string{
		`{"type":"user","timestamp":"2025-08-01T12:00:00Z","cwd":"/gone/elsewhere"}`,
	})

	git := &fakeGit{
		roots:    []string{"/work/app"},
		adoption: map[string]time.Time{"/work/app": time.Date(2025, 7, 20, 0, 0, 0, 0, time.UTC)},
		commits: map[string][]gitio.Commit{
			"/work/app": {
				{Hash: "aaa", When: time.Date(2025, 8, 1, 9, 5, 0, 0, time.UTC), Insertions: 100},
				{Hash: "bbb", When: time.Date(2025, 8, 1, 15, 0, 0, 0, time.UTC), Insertions: 50},
			},
		},
	}

	p := New(testConfig(claudeDir), git, nil)

	result, err := p.Run(time.Time{})
	require.NoError(t, err)

	assert.Equal(t, 4, result.Counters.Events)
	assert.Equal(t, 2, result.Counters.Sessions)
	assert.Equal(t, 1, result.Counters.SessionsSkippedNoRepo)
	assert.Equal(t, 1, result.Counters.Repos)
	assert.Equal(t, 2, result.Counters.Commits)
	assert.Equal(t, 1, result.Counters.CommitsUnknown)

	require.Len(t, result.Sessions, 1)
	assert.Equal(t, "/work/app", result.Sessions[0].Repo)
	assert.Equal(t, confstate.LabelTrackedOnly, result.Sessions[0].Label)

	// Commit aaa falls inside the session; commit bbb has no session.
	require.Len(t, result.Commits, 2)

	labels := map[string]string{}
	for _, c := range result.Commits {
		labels[c.Commit.Hash] = string(c.Label)
	}

	assert.Equal(t, "tracked-only", labels["aaa"])
	assert.Equal(t, "unknown", labels["bbb"])

	// Rollup excludes the unknown commit.
	require.Len(t, result.ByConfig, 1)
	assert.Equal(t, confstate.LabelTrackedOnly, result.ByConfig[0].Label)
	assert.Equal(t, 1, result.ByConfig[0].Commits)
	assert.Equal(t, 100, result.ByConfig[0].Delta)
	assert.Equal(t, 1, result.ByConfig[0].Sessions)
}

func TestPipelineHubTimeline(t *testing.T) {
	t.Parallel()

	claudeDir := t.TempDir()
	writeClaudeLog(t, claudeDir, "/work/beadhub", []string{
		`{"type":"user","timestamp":"2025-08-01T09:00:00Z","cwd":"/work/beadhub"}`,
		`{"type":"user","timestamp":"2025-08-01T09:04:00Z","cwd":"/work/beadhub"}`,
	})

	git := &fakeGit{
		roots:    []string{"/work/beadhub"},
		adoption: map[string]time.Time{"/work/beadhub": time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)},
	}

	p := New(testConfig(claudeDir), git, nil)

	result, err := p.Run(time.Time{})
	require.NoError(t, err)

	// The hub repo is hub-managed from the hub start date, which is after
	// its adoption, so sessions in August see tracked+hub.
	require.Len(t, result.Sessions, 1)
	assert.Equal(t, confstate.LabelTrackedHub, result.Sessions[0].Label)
}

func TestPipelineMarkerDelay(t *testing.T) {
	t.Parallel()

	claudeDir := t.TempDir()
	writeClaudeLog(t, claudeDir, "/work/app", []string{
		`{"type":"user","timestamp":"2025-07-10T09:00:00Z","cwd":"/work/app"}`,
		`{"type":"user","timestamp":"2025-07-10T09:04:00Z","cwd":"/work/app"}`,
	})

	git := &fakeGit{
		roots:    []string{"/work/app"},
		adoption: map[string]time.Time{"/work/app": time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)},
		files:    map[string]bool{"/work/app/.beadhub": true},
	}

	p := New(testConfig(claudeDir), git, nil)

	result, err := p.Run(time.Time{})
	require.NoError(t, err)

	// Marker repos become hub-managed 14 days after the hub start
	// (2025-07-15), so a July 10 session is still tracked-only.
	require.Len(t, result.Sessions, 1)
	assert.Equal(t, confstate.LabelTrackedOnly, result.Sessions[0].Label)
}

func TestPipelineDeterministicRepoOrder(t *testing.T) {
	t.Parallel()

	claudeDir := t.TempDir()

	for _, project := range []string{"/work/zebra", "/work/alpha", "/work/mango"} {
		writeClaudeLog(t, claudeDir, project, []string{
			`{"type":"user","timestamp":"2025-08-01T09:00:00Z","cwd":"` + project + `"}`,
			`{"type":"user","timestamp":"2025-08-01T09:04:00Z","cwd":"` + project + `"}`,
		})
	}

	git := &fakeGit{
		roots: []string{"/work/zebra", "/work/alpha", "/work/mango"},
		commits: map[string][]gitio.Commit{
			"/work/zebra": {{Hash: "z1", When: time.Date(2025, 8, 1, 9, 1, 0, 0, time.UTC), Insertions: 1}},
			"/work/alpha": {{Hash: "a1", When: time.Date(2025, 8, 1, 9, 1, 0, 0, time.UTC), Insertions: 1}},
			"/work/mango": {{Hash: "m1", When: time.Date(2025, 8, 1, 9, 1, 0, 0, time.UTC), Insertions: 1}},
		},
	}

	var first []string

	for range 5 {
		result, err := New(testConfig(claudeDir), git, nil).Run(time.Time{})
		require.NoError(t, err)

		repos := make([]string, len(result.Commits))
		for i, c := range result.Commits {
			repos[i] = c.Repo
		}

		if first == nil {
			first = repos

			assert.Equal(t, []string{"/work/alpha", "/work/mango", "/work/zebra"}, repos)

			continue
		}

		assert.Equal(t, first, repos)
	}
}

func TestPipelineNoEvents(t *testing.T) {
	t.Parallel()

	p := New(testConfig(t.TempDir()), &fakeGit{}, nil)

	_, err := p.Run(time.Time{})
	assert.ErrorIs(t, err, ErrNoEvents)
}

func TestPipelineSinceSkipsSessions(t *testing.T) {
	t.Parallel()

	claudeDir := t.TempDir()
	writeClaudeLog(t, claudeDir, "/work/app", []string{
		`{"type":"user","timestamp":"2025-08-01T09:00:00Z","cwd":"/work/app"}`,
		`{"type":"user","timestamp":"2025-08-05T09:00:00Z","cwd":"/work/app"}`,
	})

	git := &fakeGit{roots: []string{"/work/app"}}

	p := New(testConfig(claudeDir), git, nil)

	result, err := p.Run(time.Date(2025, 8, 3, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	assert.Equal(t, 1, result.Counters.SessionsSkippedBeforeStart)
	require.Len(t, result.Sessions, 1)
	assert.Equal(t, confstate.LabelNone, result.Sessions[0].Label)
}
