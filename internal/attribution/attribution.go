// Package attribution assigns each commit the tracking configuration that
// was in force while its work happened. The work is located by finding the
// session containing the commit time, and the label is read at the session
// START: a configuration change mid-session does not relabel work already
// under way.
package attribution

import (
	"sort"

	"github.com/Sumatoshi-tech/agenthours/internal/confstate"
	"github.com/Sumatoshi-tech/agenthours/internal/gitio"
	"github.com/Sumatoshi-tech/agenthours/internal/segment"
)

// LabelUnknown marks commits no session contains. They were made outside
// assistant-logged work and cannot be attributed to a configuration.
const LabelUnknown confstate.Label = "unknown"

// AttributedCommit pairs a commit with its configuration label.
type AttributedCommit struct {
	Commit gitio.Commit
	Repo   string
	Label  confstate.Label
}

// Attribute labels each commit of one repository. sessions must belong to
// the same repository; interval bounds are inclusive on both ends, and a
// commit falling into overlapping sessions takes the one that started
// earlier.
func Attribute(repo string, commits []gitio.Commit, sessions []segment.Interval, timeline confstate.Timeline) []AttributedCommit {
	ordered := make([]segment.Interval, len(sessions))
	copy(ordered, sessions)

	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].Start.Before(ordered[j].Start)
	})

	out := make([]AttributedCommit, 0, len(commits))

	for _, commit := range commits {
		label := LabelUnknown

		for _, session := range ordered {
			if session.Start.After(commit.When) {
				break
			}

			if !commit.When.After(session.End) {
				label = timeline.StateAt(session.Start)

				break
			}
		}

		out = append(out, AttributedCommit{
			Commit: commit,
			Repo:   repo,
			Label:  label,
		})
	}

	return out
}
