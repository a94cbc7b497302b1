// Package confstate models how a repository's tracking configuration evolves
// over time. Each repository gets a timeline of labeled state changes;
// looking up the state at an instant is a binary search over the changes.
package confstate

import (
	"sort"
	"time"
)

// Label names a tracking configuration state.
type Label string

const (
	// LabelNone means no tracking is configured.
	LabelNone Label = "none"
	// LabelTrackedOnly means the tracked directory exists but the repo is
	// not hub-managed.
	LabelTrackedOnly Label = "tracked-only"
	// LabelTrackedHub means the tracked directory exists and the repo is
	// hub-managed.
	LabelTrackedHub Label = "tracked+hub"
)

// Change is one transition in a repository's configuration.
type Change struct {
	At    time.Time
	Label Label
}

// Timeline is the configuration history of one repository. Changes are
// ascending in time; before the first change the state is LabelNone.
type Timeline struct {
	Repo    string
	Changes []Change
}

// StateAt returns the configuration label in effect at ts. Changes take
// effect at their own instant.
func (t Timeline) StateAt(ts time.Time) Label {
	// First change strictly after ts; the one before it governs.
	idx := sort.Search(len(t.Changes), func(i int) bool {
		return t.Changes[i].At.After(ts)
	})

	if idx == 0 {
		return LabelNone
	}

	return t.Changes[idx-1].Label
}

// Inputs describes what repository history and working tree revealed about
// tracking adoption.
type Inputs struct {
	// Adoption is when the tracked directory first appeared in history,
	// zero when it never did.
	Adoption time.Time
	// HubManaged reports whether the repo is hub-managed at all (it is the
	// hub itself or carries the hub marker file).
	HubManaged bool
	// HubFrom is when hub management begins. Ignored unless HubManaged.
	HubFrom time.Time
}

// Build derives a repository timeline from adoption facts.
// A repo that never adopted tracking stays at LabelNone regardless of hub
// status: hub management presupposes the tracked directory.
func Build(repo string, in Inputs) Timeline {
	t := Timeline{Repo: repo}

	if in.Adoption.IsZero() {
		return t
	}

	if !in.HubManaged {
		t.Changes = []Change{{At: in.Adoption, Label: LabelTrackedOnly}}

		return t
	}

	if !in.HubFrom.After(in.Adoption) {
		t.Changes = []Change{{At: in.Adoption, Label: LabelTrackedHub}}

		return t
	}

	t.Changes = []Change{
		{At: in.Adoption, Label: LabelTrackedOnly},
		{At: in.HubFrom, Label: LabelTrackedHub},
	}

	return t
}
