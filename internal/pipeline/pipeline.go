// Package pipeline wires the full reconstruction flow: collect assistant
// log events, segment them into sessions, resolve sessions to repositories,
// build per-repo configuration timelines, attribute commits, and roll the
// results up per configuration and per day.
package pipeline

import (
	"errors"
	"fmt"
	"log/slog"
	"path"
	"regexp"
	"sort"
	"time"

	"github.com/Sumatoshi-tech/agenthours/internal/aggregate"
	"github.com/Sumatoshi-tech/agenthours/internal/attribution"
	"github.com/Sumatoshi-tech/agenthours/internal/config"
	"github.com/Sumatoshi-tech/agenthours/internal/confstate"
	"github.com/Sumatoshi-tech/agenthours/internal/gitio"
	"github.com/Sumatoshi-tech/agenthours/internal/gitmetrics"
	"github.com/Sumatoshi-tech/agenthours/internal/logsource"
	"github.com/Sumatoshi-tech/agenthours/internal/repomap"
	"github.com/Sumatoshi-tech/agenthours/internal/segment"
)

// ErrNoEvents indicates no log source yielded a single interaction event.
var ErrNoEvents = errors.New("no interaction events found in any log source")

// Gitter abstracts the per-repository git queries the pipeline issues, so
// the flow can be exercised without real repositories.
type Gitter interface {
	// DiscoverRoot finds the working tree root containing path.
	DiscoverRoot(path string) (string, error)
	// AdoptionTime returns when dir first appeared in the repo's history.
	AdoptionTime(root, dir string) (time.Time, error)
	// ListCommits lists matching commits of the repo in ascending order.
	ListCommits(root string, opts gitio.ListOptions) ([]gitio.Commit, error)
	// HasFile reports whether name exists in the repo's working tree root.
	HasFile(root, name string) bool
}

// LibGit is the production Gitter backed by libgit2.
type LibGit struct{}

// DiscoverRoot implements Gitter.
func (LibGit) DiscoverRoot(p string) (string, error) {
	return gitio.DiscoverRoot(p)
}

// AdoptionTime implements Gitter.
func (LibGit) AdoptionTime(root, dir string) (time.Time, error) {
	repo, err := gitio.Open(root)
	if err != nil {
		return time.Time{}, err
	}
	defer repo.Free()

	return repo.AdoptionTime(dir)
}

// ListCommits implements Gitter.
func (LibGit) ListCommits(root string, opts gitio.ListOptions) ([]gitio.Commit, error) {
	repo, err := gitio.Open(root)
	if err != nil {
		return nil, err
	}
	defer repo.Free()

	return repo.ListCommits(opts)
}

// HasFile implements Gitter.
func (LibGit) HasFile(root, name string) bool {
	repo, err := gitio.Open(root)
	if err != nil {
		return false
	}
	defer repo.Free()

	return repo.HasWorkdirFile(name)
}

// Counters reports how much input each stage kept or dropped.
type Counters struct {
	Events                     int
	Sessions                   int
	SessionsSkippedNoRepo      int
	SessionsSkippedIgnored     int
	SessionsSkippedBeforeStart int
	Repos                      int
	Commits                    int
	CommitsUnknown             int
	Outliers                   int
}

// LabeledSession is a session resolved to a repository and labeled with the
// configuration at its start.
type LabeledSession struct {
	Interval segment.Interval
	Repo     string
	Label    confstate.Label
}

// Result is the full pipeline output.
type Result struct {
	EffectiveStart time.Time
	Sessions       []LabeledSession
	Sittings       []segment.Interval
	Commits        []attribution.AttributedCommit
	OutlierFlags   []bool
	ByConfig       []aggregate.SummaryRow
	ByDay          []aggregate.SummaryRow
	ByDayConfig    []aggregate.SummaryRow
	Counters       Counters
}

// Pipeline runs the reconstruction flow for one author.
type Pipeline struct {
	cfg *config.Config
	git Gitter
	log *slog.Logger
}

// New builds a Pipeline. A nil logger disables logging.
func New(cfg *config.Config, git Gitter, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Pipeline{cfg: cfg, git: git, log: logger}
}

// Run executes the whole flow. since, when non-zero, further restricts the
// analysis window beyond the effective start derived from the logs.
func (p *Pipeline) Run(since time.Time) (*Result, error) {
	events, err := logsource.Collect(logsource.Options{
		ClaudeDir: p.cfg.Logs.ClaudeDir,
		CodexDir:  p.cfg.Logs.CodexDir,
		Bundle:    p.cfg.Logs.Bundle,
		Logger:    p.log,
	})
	if err != nil {
		return nil, fmt.Errorf("collect events: %w", err)
	}

	if len(events) == 0 {
		return nil, ErrNoEvents
	}

	result := &Result{EffectiveStart: logsource.EffectiveStart(events)}
	result.Counters.Events = len(events)

	if !since.After(result.EffectiveStart) {
		since = result.EffectiveStart
	}

	p.log.Debug("collected events",
		slog.Int("events", len(events)),
		slog.Time("effective_start", result.EffectiveStart))

	sessions := segment.Sessions(events, p.cfg.Segment.SessionGap, p.cfg.Segment.LeadIn)
	result.Sittings = segment.Sittings(events, p.cfg.Segment.SittingGap, p.cfg.Segment.LeadIn)
	result.Counters.Sessions = len(sessions)

	byRepo := p.resolveSessions(sessions, since, result)

	if runErr := p.analyzeRepos(byRepo, since, result); runErr != nil {
		return nil, runErr
	}

	p.rollup(result)

	return result, nil
}

// resolveSessions maps sessions onto repository roots, dropping the ones the
// rules ignore, the ones before the analysis window, and the ones whose cwd
// no repository contains.
func (p *Pipeline) resolveSessions(sessions []segment.Interval, since time.Time, result *Result) map[string][]segment.Interval {
	resolver := repomap.NewResolver(repomap.Rules{
		Remap:          p.cfg.Paths.Remap,
		Ignore:         p.cfg.Paths.Ignore,
		IgnoreProjects: p.cfg.Paths.IgnoreProjects,
	}, func(cwd string) (string, error) {
		root, err := p.git.DiscoverRoot(cwd)
		if err != nil {
			return "", fmt.Errorf("%w: %s", repomap.ErrUnresolvedPath, cwd)
		}

		return root, nil
	})

	byRepo := make(map[string][]segment.Interval)

	for _, session := range sessions {
		if session.End.Before(since) {
			result.Counters.SessionsSkippedBeforeStart++

			continue
		}

		root, err := resolver.Resolve(session.Project)
		if err != nil {
			if errors.Is(err, repomap.ErrIgnoredPath) {
				result.Counters.SessionsSkippedIgnored++
			} else {
				result.Counters.SessionsSkippedNoRepo++
				p.log.Debug("session skipped, no repository",
					slog.String("project", session.Project))
			}

			continue
		}

		byRepo[root] = append(byRepo[root], session)
	}

	result.Counters.Repos = len(byRepo)

	return byRepo
}

func (p *Pipeline) analyzeRepos(byRepo map[string][]segment.Interval, since time.Time, result *Result) error {
	var authorRe *regexp.Regexp

	if p.cfg.Author != "" {
		re, err := regexp.Compile(p.cfg.Author)
		if err != nil {
			return fmt.Errorf("author pattern: %w", err)
		}

		authorRe = re
	}

	// Stable output order regardless of map iteration.
	roots := make([]string, 0, len(byRepo))
	for root := range byRepo {
		roots = append(roots, root)
	}

	sort.Strings(roots)

	for _, root := range roots {
		sessions := byRepo[root]
		timeline := p.buildTimeline(root)

		commits, err := p.git.ListCommits(root, gitio.ListOptions{
			Author: authorRe,
			Since:  since,
		})
		if err != nil {
			return fmt.Errorf("list commits in %s: %w", root, err)
		}

		flags := gitmetrics.FlagOutliers(commits, p.cfg.Outliers.Z)
		if p.cfg.Outliers.Method == "none" {
			flags = make([]bool, len(commits))
		}

		attributed := attribution.Attribute(root, commits, sessions, timeline)

		result.Commits = append(result.Commits, attributed...)
		result.OutlierFlags = append(result.OutlierFlags, flags...)

		for _, session := range sessions {
			result.Sessions = append(result.Sessions, LabeledSession{
				Interval: session,
				Repo:     root,
				Label:    timeline.StateAt(session.Start),
			})
		}

		p.log.Debug("analyzed repository",
			slog.String("repo", root),
			slog.Int("sessions", len(sessions)),
			slog.Int("commits", len(commits)))
	}

	return nil
}

// buildTimeline derives the configuration timeline of one repository from
// its history and working tree.
func (p *Pipeline) buildTimeline(root string) confstate.Timeline {
	in := confstate.Inputs{}

	adoption, err := p.git.AdoptionTime(root, p.cfg.Tracking.Dir)
	if err == nil {
		in.Adoption = adoption
	}

	hubStart := p.cfg.HubStartTime()

	switch {
	case path.Base(root) == p.cfg.Tracking.HubName:
		in.HubManaged = true
		in.HubFrom = hubStart
	case p.git.HasFile(root, p.cfg.Tracking.HubMarker):
		in.HubManaged = true
		in.HubFrom = hubStart.AddDate(0, 0, p.cfg.Tracking.HubDelayDays)
	}

	return confstate.Build(root, in)
}

func (p *Pipeline) rollup(result *Result) {
	sessionMetrics := make([]aggregate.SessionMetric, 0, len(result.Sessions))
	for _, s := range result.Sessions {
		sessionMetrics = append(sessionMetrics, aggregate.SessionMetric{
			Start: s.Interval.Start,
			Hours: s.Interval.Duration().Hours(),
			Label: s.Label,
		})
	}

	commitMetrics := make([]aggregate.CommitMetric, 0, len(result.Commits))

	for i, c := range result.Commits {
		outlier := i < len(result.OutlierFlags) && result.OutlierFlags[i]
		if outlier {
			result.Counters.Outliers++
		}

		if c.Label == attribution.LabelUnknown {
			result.Counters.CommitsUnknown++
		}

		commitMetrics = append(commitMetrics, aggregate.CommitMetric{
			When:    c.Commit.When,
			Delta:   c.Commit.Delta(),
			Label:   c.Label,
			Outlier: outlier,
		})
	}

	result.Counters.Commits = len(result.Commits)

	result.ByConfig = aggregate.ByConfiguration(sessionMetrics, commitMetrics)
	result.ByDay = aggregate.ByDay(sessionMetrics, commitMetrics)
	result.ByDayConfig = aggregate.ByDayAndConfiguration(sessionMetrics, commitMetrics)
}
