// Package aggregate rolls labeled sessions and commits up into comparison
// rows: hours worked, commits landed, and lines churned per configuration
// and per day, with commit rates reported both raw and with outlier commits
// excluded. Work labeled unknown is left out of every rollup since it
// cannot be credited to a configuration.
package aggregate

import (
	"sort"
	"time"

	"github.com/Sumatoshi-tech/agenthours/internal/attribution"
	"github.com/Sumatoshi-tech/agenthours/internal/confstate"
)

// SessionMetric is one labeled session's contribution to the rollup.
type SessionMetric struct {
	Start time.Time
	Hours float64
	Label confstate.Label
}

// CommitMetric is one labeled commit's contribution to the rollup.
type CommitMetric struct {
	When    time.Time
	Delta   int
	Label   confstate.Label
	Outlier bool
}

// SummaryRow is one rollup row. Label is empty for day-only grouping and
// Date is zero for configuration-only grouping.
type SummaryRow struct {
	Label confstate.Label
	Date  time.Time

	Hours    float64
	Sessions int

	Commits int
	Delta   int

	CommitsPerHour float64
	DeltaPerHour   float64

	// Ex-outlier variants sit beside the raw numbers so a reader can see
	// how much of a rate one oversized commit is responsible for.
	CommitsEx        int
	DeltaEx          int
	CommitsPerHourEx float64
	DeltaPerHourEx   float64
}

// labelOrder fixes row ordering in configuration rollups.
var labelOrder = map[confstate.Label]int{
	confstate.LabelNone:        0,
	confstate.LabelTrackedOnly: 1,
	confstate.LabelTrackedHub:  2,
}

type groupKey struct {
	label confstate.Label
	date  time.Time
}

// ByConfiguration rolls work up per configuration label.
func ByConfiguration(sessions []SessionMetric, commits []CommitMetric) []SummaryRow {
	return rollup(sessions, commits,
		func(s SessionMetric) groupKey { return groupKey{label: s.Label} },
		func(c CommitMetric) groupKey { return groupKey{label: c.Label} },
	)
}

// ByDay rolls work up per UTC day across all configurations.
func ByDay(sessions []SessionMetric, commits []CommitMetric) []SummaryRow {
	return rollup(sessions, commits,
		func(s SessionMetric) groupKey { return groupKey{date: dayOf(s.Start)} },
		func(c CommitMetric) groupKey { return groupKey{date: dayOf(c.When)} },
	)
}

// ByDayAndConfiguration rolls work up per day and label.
func ByDayAndConfiguration(sessions []SessionMetric, commits []CommitMetric) []SummaryRow {
	return rollup(sessions, commits,
		func(s SessionMetric) groupKey { return groupKey{label: s.Label, date: dayOf(s.Start)} },
		func(c CommitMetric) groupKey { return groupKey{label: c.Label, date: dayOf(c.When)} },
	)
}

func dayOf(ts time.Time) time.Time {
	return ts.UTC().Truncate(24 * time.Hour)
}

func rollup(
	sessions []SessionMetric,
	commits []CommitMetric,
	sessionKey func(SessionMetric) groupKey,
	commitKey func(CommitMetric) groupKey,
) []SummaryRow {
	rows := make(map[groupKey]*SummaryRow)

	row := func(key groupKey) *SummaryRow {
		r, ok := rows[key]
		if !ok {
			r = &SummaryRow{Label: key.label, Date: key.date}
			rows[key] = r
		}

		return r
	}

	for _, s := range sessions {
		if s.Label == attribution.LabelUnknown {
			continue
		}

		r := row(sessionKey(s))
		r.Hours += s.Hours
		r.Sessions++
	}

	for _, c := range commits {
		if c.Label == attribution.LabelUnknown {
			continue
		}

		r := row(commitKey(c))
		r.Commits++
		r.Delta += c.Delta

		if !c.Outlier {
			r.CommitsEx++
			r.DeltaEx += c.Delta
		}
	}

	out := make([]SummaryRow, 0, len(rows))

	for _, r := range rows {
		r.CommitsPerHour = rate(float64(r.Commits), r.Hours)
		r.DeltaPerHour = rate(float64(r.Delta), r.Hours)
		r.CommitsPerHourEx = rate(float64(r.CommitsEx), r.Hours)
		r.DeltaPerHourEx = rate(float64(r.DeltaEx), r.Hours)

		out = append(out, *r)
	}

	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}

		return labelOrder[out[i].Label] < labelOrder[out[j].Label]
	})

	return out
}

// rate divides guarding against zero hours: a configuration that saw
// commits but no logged sessions reports a zero rate instead of Inf.
func rate(numerator, hours float64) float64 {
	if hours <= 0 {
		return 0
	}

	return numerator / hours
}
