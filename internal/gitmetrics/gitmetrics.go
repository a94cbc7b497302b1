// Package gitmetrics derives per-day activity measures and robust outlier
// flags from a commit series. Commit sizes are heavy-tailed: a vendored
// dependency or generated file can dwarf months of real work, so the outlier
// filter operates on log-transformed deltas with MAD-based z-scores.
package gitmetrics

import (
	"math"
	"sort"
	"time"

	"github.com/Sumatoshi-tech/agenthours/internal/gitio"
	"github.com/Sumatoshi-tech/agenthours/pkg/alg/stats"
)

// DayStats aggregates one author day of commit activity.
type DayStats struct {
	// Date is the UTC midnight of the day.
	Date       time.Time
	Commits    int
	Insertions int
	Deletions  int
	// SpanHours is the stretch from first to last commit of the day.
	SpanHours float64
	// EstimatedHours adds a prep allowance before the first commit.
	EstimatedHours float64
	// EstimatedHoursStrict is EstimatedHours on multi-commit days and zero
	// otherwise: a single commit's span is zero, so the estimate would be
	// pure allowance.
	EstimatedHoursStrict float64
}

// Delta returns the total line churn of the day.
func (d DayStats) Delta() int {
	return d.Insertions + d.Deletions
}

// HasStrictEstimate reports whether EstimatedHoursStrict is defined for the
// day. Single-commit days have no strict estimate at all, which renderers
// must keep distinguishable from an estimate of zero hours.
func (d DayStats) HasStrictEstimate() bool {
	return d.Commits > 1
}

// PrepSeconds derives a default prep allowance from the series itself: the
// median interval between consecutive same-day commits. Returns 0 when no
// day has two commits.
func PrepSeconds(commits []gitio.Commit) float64 {
	byDay := groupByDay(commits)

	var intervals []float64

	for _, day := range byDay {
		for i := 1; i < len(day); i++ {
			intervals = append(intervals, day[i].When.Sub(day[i-1].When).Seconds())
		}
	}

	return stats.Median(intervals)
}

// DailyRollup groups commits by UTC day and computes activity measures.
// Days are returned in ascending order.
func DailyRollup(commits []gitio.Commit, prepSeconds float64) []DayStats {
	byDay := groupByDay(commits)

	days := make([]time.Time, 0, len(byDay))
	for day := range byDay {
		days = append(days, day)
	}

	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })

	out := make([]DayStats, 0, len(days))

	for _, day := range days {
		dayCommits := byDay[day]

		entry := DayStats{Date: day, Commits: len(dayCommits)}

		for _, c := range dayCommits {
			entry.Insertions += c.Insertions
			entry.Deletions += c.Deletions
		}

		span := dayCommits[len(dayCommits)-1].When.Sub(dayCommits[0].When)
		entry.SpanHours = span.Hours()
		entry.EstimatedHours = (span.Seconds() + prepSeconds) / 3600

		if entry.Commits > 1 {
			entry.EstimatedHoursStrict = entry.EstimatedHours
		}

		out = append(out, entry)
	}

	return out
}

// groupByDay buckets commits by UTC day, each bucket ascending in time.
func groupByDay(commits []gitio.Commit) map[time.Time][]gitio.Commit {
	byDay := make(map[time.Time][]gitio.Commit)

	for _, c := range commits {
		day := c.When.UTC().Truncate(24 * time.Hour)
		byDay[day] = append(byDay[day], c)
	}

	for day := range byDay {
		sort.Slice(byDay[day], func(i, j int) bool {
			return byDay[day][i].When.Before(byDay[day][j].When)
		})
	}

	return byDay
}

// FlagOutliers flags commits whose log-transformed delta is a robust
// outlier, returning a slice parallel to commits. Fewer than two commits
// can never be flagged, and a series with zero MAD flags nothing.
func FlagOutliers(commits []gitio.Commit, z float64) []bool {
	flags := make([]bool, len(commits))
	if len(commits) < 2 {
		return flags
	}

	logs := make([]float64, len(commits))
	for i, c := range commits {
		logs[i] = math.Log1p(float64(c.Delta()))
	}

	for i, score := range stats.RobustZScores(logs) {
		flags[i] = math.Abs(score) > z
	}

	return flags
}

// SeriesSummary condenses a commit series for reporting.
type SeriesSummary struct {
	Commits     int
	TotalDelta  int
	MedianDelta float64
	P90Delta    float64
	MaxDelta    float64
}

// Summarize computes the series summary of commits.
func Summarize(commits []gitio.Commit) SeriesSummary {
	deltas := make([]float64, len(commits))
	total := 0

	for i, c := range commits {
		deltas[i] = float64(c.Delta())
		total += c.Delta()
	}

	return SeriesSummary{
		Commits:     len(commits),
		TotalDelta:  total,
		MedianDelta: stats.Median(deltas),
		P90Delta:    stats.Percentile(deltas, stats.PercentileP90),
		MaxDelta:    stats.Max(deltas),
	}
}
