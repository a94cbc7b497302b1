// Package gitio wraps libgit2 with the narrow read-only surface the
// attribution pipeline needs: repository discovery, commit listing with
// per-commit diff stats, and first-appearance lookup for tracked paths.
package gitio

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	git2go "github.com/libgit2/git2go/v34"
)

// ErrNoRepository indicates no git repository contains the given path.
var ErrNoRepository = errors.New("no git repository found")

// Repository wraps a libgit2 repository opened at its working tree root.
type Repository struct {
	repo *git2go.Repository
	root string
}

// DiscoverRoot finds the working tree root of the repository containing
// start, without keeping the repository open.
func DiscoverRoot(start string) (string, error) {
	gitDir, err := git2go.Discover(start, false, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrNoRepository, start)
	}

	repo, err := git2go.OpenRepository(gitDir)
	if err != nil {
		return "", fmt.Errorf("open repository: %w", err)
	}
	defer repo.Free()

	workdir := repo.Workdir()
	if workdir == "" {
		return "", fmt.Errorf("%w: bare repository at %s", ErrNoRepository, gitDir)
	}

	return filepath.Clean(workdir), nil
}

// Open opens the repository whose working tree root is root.
func Open(root string) (*Repository, error) {
	repo, err := git2go.OpenRepository(root)
	if err != nil {
		return nil, fmt.Errorf("open repository: %w", err)
	}

	return &Repository{repo: repo, root: root}, nil
}

// Root returns the working tree root.
func (r *Repository) Root() string {
	return r.root
}

// Free releases the repository resources.
func (r *Repository) Free() {
	if r.repo != nil {
		r.repo.Free()
		r.repo = nil
	}
}

// HasWorkdirFile reports whether name exists in the working tree root.
func (r *Repository) HasWorkdirFile(name string) bool {
	_, err := os.Stat(filepath.Join(r.root, name))

	return err == nil
}
