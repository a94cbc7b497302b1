// Package repomap resolves the raw working directories recorded in assistant
// logs to git repository roots. Logs routinely reference paths from other
// machines or deleted checkouts, so resolution is rule-driven: prefixes can
// be remapped to local paths and noisy locations ignored outright.
package repomap

import (
	"errors"
	"path"
	"sort"
	"strings"
)

// Sentinel resolution errors. Callers use errors.Is to separate
// deliberately skipped paths from genuinely unresolved ones.
var (
	// ErrIgnoredPath marks a cwd excluded by an ignore rule.
	ErrIgnoredPath = errors.New("path is ignored")
	// ErrUnresolvedPath marks a cwd no repository could be found for.
	ErrUnresolvedPath = errors.New("no repository found for path")
)

// Rules configures path rewriting ahead of repository discovery.
type Rules struct {
	// Remap substitutes path prefixes, longest prefix first.
	Remap map[string]string
	// Ignore drops any path equal to or under one of these prefixes.
	Ignore []string
	// IgnoreProjects drops paths whose basename matches.
	IgnoreProjects []string
}

// DiscoverFunc finds the repository root containing path.
// It returns ErrUnresolvedPath (possibly wrapped) when there is none.
type DiscoverFunc func(path string) (string, error)

type cacheEntry struct {
	root string
	err  error
}

// Resolver maps working directories to repository roots, memoizing results.
// Not safe for concurrent use.
type Resolver struct {
	rules         Rules
	remapPrefixes []string
	discover      DiscoverFunc
	cache         map[string]cacheEntry
}

// NewResolver builds a Resolver around the given rules and discovery function.
func NewResolver(rules Rules, discover DiscoverFunc) *Resolver {
	prefixes := make([]string, 0, len(rules.Remap))
	for prefix := range rules.Remap {
		prefixes = append(prefixes, prefix)
	}

	// Longest prefix wins when rules nest.
	sort.Slice(prefixes, func(i, j int) bool {
		return len(prefixes[i]) > len(prefixes[j])
	})

	return &Resolver{
		rules:         rules,
		remapPrefixes: prefixes,
		discover:      discover,
		cache:         make(map[string]cacheEntry),
	}
}

// Resolve returns the repository root for cwd after applying remap and
// ignore rules.
func (r *Resolver) Resolve(cwd string) (string, error) {
	if entry, ok := r.cache[cwd]; ok {
		return entry.root, entry.err
	}

	root, err := r.resolve(cwd)
	r.cache[cwd] = cacheEntry{root: root, err: err}

	return root, err
}

func (r *Resolver) resolve(cwd string) (string, error) {
	mapped := r.remap(cwd)

	for _, ignored := range r.rules.Ignore {
		if underPrefix(mapped, ignored) {
			return "", ErrIgnoredPath
		}
	}

	base := path.Base(mapped)
	for _, project := range r.rules.IgnoreProjects {
		if base == project {
			return "", ErrIgnoredPath
		}
	}

	root, err := r.discover(mapped)
	if err != nil {
		return "", err
	}

	return root, nil
}

func (r *Resolver) remap(cwd string) string {
	for _, prefix := range r.remapPrefixes {
		if underPrefix(cwd, prefix) {
			return r.rules.Remap[prefix] + cwd[len(prefix):]
		}
	}

	return cwd
}

// underPrefix reports whether p equals prefix or lies beneath it as a path.
func underPrefix(p, prefix string) bool {
	if p == prefix {
		return true
	}

	return strings.HasPrefix(p, strings.TrimSuffix(prefix, "/")+"/")
}
