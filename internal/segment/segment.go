// Package segment groups interaction events into contiguous work intervals
// by gap clustering: a new interval starts whenever the silence since the
// previous event exceeds a threshold. The same clustering runs at two
// granularities, per-project sessions with a short gap and machine-wide
// sittings with a long one.
package segment

import (
	"sort"
	"time"

	"github.com/Sumatoshi-tech/agenthours/internal/logsource"
)

// Interval is one contiguous stretch of work.
type Interval struct {
	// Start is the first event time minus the lead-in allowance.
	Start time.Time
	// End is the last event time.
	End time.Time
	// Project is the grouping key, empty for machine-wide sittings.
	Project string
	// Events counts the log events inside the interval.
	Events int
}

// Duration returns the interval length including the lead-in.
func (iv Interval) Duration() time.Duration {
	return iv.End.Sub(iv.Start)
}

// Sessions clusters events per project. Events from different projects never
// share a session even when interleaved in time.
func Sessions(events []logsource.InteractionEvent, gap, leadIn time.Duration) []Interval {
	return segmentBy(events, gap, leadIn, func(ev logsource.InteractionEvent) string {
		return ev.Project
	})
}

// Sittings clusters events across all projects into machine-wide stretches.
func Sittings(events []logsource.InteractionEvent, gap, leadIn time.Duration) []Interval {
	return segmentBy(events, gap, leadIn, func(logsource.InteractionEvent) string {
		return ""
	})
}

func segmentBy(events []logsource.InteractionEvent, gap, leadIn time.Duration, key func(logsource.InteractionEvent) string) []Interval {
	groups := make(map[string][]time.Time)

	for _, ev := range events {
		k := key(ev)
		groups[k] = append(groups[k], ev.Timestamp)
	}

	var intervals []Interval

	for k, times := range groups {
		sort.Slice(times, func(i, j int) bool { return times[i].Before(times[j]) })

		intervals = append(intervals, cluster(times, gap, leadIn, k)...)
	}

	sort.Slice(intervals, func(i, j int) bool {
		if intervals[i].Start.Equal(intervals[j].Start) {
			return intervals[i].Project < intervals[j].Project
		}

		return intervals[i].Start.Before(intervals[j].Start)
	})

	return intervals
}

// cluster splits an ascending time series wherever consecutive events are
// gap or more apart. times must be sorted.
func cluster(times []time.Time, gap, leadIn time.Duration, project string) []Interval {
	if len(times) == 0 {
		return nil
	}

	var intervals []Interval

	first := times[0]
	last := times[0]
	count := 1

	flush := func() {
		intervals = append(intervals, Interval{
			Start:   first.Add(-leadIn),
			End:     last,
			Project: project,
			Events:  count,
		})
	}

	for _, t := range times[1:] {
		if t.Sub(last) >= gap {
			flush()

			first = t
			count = 0
		}

		last = t
		count++
	}

	flush()

	return intervals
}

// TotalHours sums interval durations in hours.
func TotalHours(intervals []Interval) float64 {
	var total time.Duration

	for _, iv := range intervals {
		total += iv.Duration()
	}

	return total.Hours()
}
