package gitio

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	git2go "github.com/libgit2/git2go/v34"
)

// ErrNeverAdopted indicates no commit ever added files under the tracked path.
var ErrNeverAdopted = errors.New("tracked path never appears in history")

// Commit is one commit with its first-parent diff stats.
type Commit struct {
	Hash         string
	When         time.Time
	AuthorName   string
	AuthorEmail  string
	Insertions   int
	Deletions    int
	FilesChanged int
	IsMerge      bool
}

// Delta returns the total line churn of the commit.
func (c Commit) Delta() int {
	return c.Insertions + c.Deletions
}

// ListOptions filters the commit listing.
type ListOptions struct {
	// Author keeps only commits whose author name or email matches.
	Author *regexp.Regexp
	// Since drops commits strictly before this time when non-zero.
	Since time.Time
	// Until drops commits after this time when non-zero.
	Until time.Time
	// IncludeMerges keeps merge commits; they are dropped by default since
	// their first-parent diff double-counts work merged from branches.
	IncludeMerges bool
}

// ListCommits walks history from HEAD and returns matching commits in
// ascending time order, each with diff stats against its first parent.
func (r *Repository) ListCommits(opts ListOptions) ([]Commit, error) {
	walk, err := r.repo.Walk()
	if err != nil {
		return nil, fmt.Errorf("create revwalk: %w", err)
	}
	defer walk.Free()

	pushErr := walk.PushHead()
	if pushErr != nil {
		return nil, fmt.Errorf("push HEAD to revwalk: %w", pushErr)
	}

	walk.Sorting(git2go.SortTime | git2go.SortReverse)

	var (
		commits []Commit
		iterErr error
	)

	err = walk.Iterate(func(commit *git2go.Commit) bool {
		defer commit.Free()

		entry, keep, statErr := r.examine(commit, opts)
		if statErr != nil {
			iterErr = statErr

			return false
		}

		if keep {
			commits = append(commits, entry)
		}

		return true
	})
	if err != nil {
		return nil, fmt.Errorf("walk commits: %w", err)
	}

	if iterErr != nil {
		return nil, iterErr
	}

	return commits, nil
}

func (r *Repository) examine(commit *git2go.Commit, opts ListOptions) (Commit, bool, error) {
	isMerge := commit.ParentCount() > 1
	if isMerge && !opts.IncludeMerges {
		return Commit{}, false, nil
	}

	author := commit.Author()
	when := author.When.UTC()

	if !opts.Since.IsZero() && when.Before(opts.Since) {
		return Commit{}, false, nil
	}

	if !opts.Until.IsZero() && when.After(opts.Until) {
		return Commit{}, false, nil
	}

	if opts.Author != nil &&
		!opts.Author.MatchString(author.Name) &&
		!opts.Author.MatchString(author.Email) {
		return Commit{}, false, nil
	}

	insertions, deletions, files, err := r.commitStats(commit)
	if err != nil {
		return Commit{}, false, err
	}

	return Commit{
		Hash:         commit.Id().String(),
		When:         when,
		AuthorName:   author.Name,
		AuthorEmail:  author.Email,
		Insertions:   insertions,
		Deletions:    deletions,
		FilesChanged: files,
		IsMerge:      isMerge,
	}, true, nil
}

func (r *Repository) commitStats(commit *git2go.Commit) (int, int, int, error) {
	diff, err := r.firstParentDiff(commit)
	if err != nil {
		return 0, 0, 0, err
	}
	defer diff.Free()

	stats, err := diff.Stats()
	if err != nil {
		return 0, 0, 0, fmt.Errorf("diff stats: %w", err)
	}
	defer stats.Free()

	return stats.Insertions(), stats.Deletions(), stats.FilesChanged(), nil
}

func (r *Repository) firstParentDiff(commit *git2go.Commit) (*git2go.Diff, error) {
	newTree, err := commit.Tree()
	if err != nil {
		return nil, fmt.Errorf("commit tree: %w", err)
	}
	defer newTree.Free()

	var oldTree *git2go.Tree

	if commit.ParentCount() > 0 {
		parent := commit.Parent(0)
		defer parent.Free()

		oldTree, err = parent.Tree()
		if err != nil {
			return nil, fmt.Errorf("parent tree: %w", err)
		}
		defer oldTree.Free()
	}

	opts, err := git2go.DefaultDiffOptions()
	if err != nil {
		return nil, fmt.Errorf("get diff options: %w", err)
	}

	diff, err := r.repo.DiffTreeToTree(oldTree, newTree, &opts)
	if err != nil {
		return nil, fmt.Errorf("diff trees: %w", err)
	}

	return diff, nil
}

// AdoptionTime returns the author time of the earliest commit that added a
// file under dir (for example ".beads"). Returns ErrNeverAdopted when no
// commit ever did.
func (r *Repository) AdoptionTime(dir string) (time.Time, error) {
	walk, err := r.repo.Walk()
	if err != nil {
		return time.Time{}, fmt.Errorf("create revwalk: %w", err)
	}
	defer walk.Free()

	pushErr := walk.PushHead()
	if pushErr != nil {
		return time.Time{}, fmt.Errorf("push HEAD to revwalk: %w", pushErr)
	}

	walk.Sorting(git2go.SortTime | git2go.SortReverse)

	var (
		adopted time.Time
		iterErr error
	)

	err = walk.Iterate(func(commit *git2go.Commit) bool {
		defer commit.Free()

		added, addErr := r.addsUnder(commit, dir)
		if addErr != nil {
			iterErr = addErr

			return false
		}

		if added {
			adopted = commit.Author().When.UTC()

			return false
		}

		return true
	})
	if err != nil {
		return time.Time{}, fmt.Errorf("walk commits: %w", err)
	}

	if iterErr != nil {
		return time.Time{}, iterErr
	}

	if adopted.IsZero() {
		return time.Time{}, ErrNeverAdopted
	}

	return adopted, nil
}

func (r *Repository) addsUnder(commit *git2go.Commit, dir string) (bool, error) {
	diff, err := r.firstParentDiff(commit)
	if err != nil {
		return false, err
	}
	defer diff.Free()

	numDeltas, err := diff.NumDeltas()
	if err != nil {
		return false, fmt.Errorf("diff deltas: %w", err)
	}

	prefix := strings.TrimSuffix(dir, "/") + "/"

	for i := range numDeltas {
		delta, deltaErr := diff.Delta(i)
		if deltaErr != nil {
			return false, fmt.Errorf("diff delta: %w", deltaErr)
		}

		if delta.Status != git2go.DeltaAdded {
			continue
		}

		if strings.HasPrefix(delta.NewFile.Path, prefix) {
			return true, nil
		}
	}

	return false, nil
}
