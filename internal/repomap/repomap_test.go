package repomap

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// prefixDiscover resolves any path under a known root to that root.
func prefixDiscover(roots ...string) DiscoverFunc {
	return func(p string) (string, error) {
		for _, root := range roots {
			if p == root || strings.HasPrefix(p, root+"/") {
				return root, nil
			}
		}

		return "", ErrUnresolvedPath
	}
}

func TestResolve(t *testing.T) {
	t.Parallel()

	rules := Rules{
		Remap: map[string]string{
			"/mnt/sync/code": "/home/alice/code",
			"/mnt/sync":      "/home/alice",
		},
		Ignore:         []string{"/tmp"},
		IgnoreProjects: []string{"scratch"},
	}

	discover := prefixDiscover("/home/alice/code/widget", "/home/alice/notes")

	tests := []struct {
		name     string
		cwd      string
		expected string
		wantErr  error
	}{
		{name: "direct_hit", cwd: "/home/alice/code/widget/src", expected: "/home/alice/code/widget"},
		{name: "longest_remap_prefix_wins", cwd: "/mnt/sync/code/widget/src", expected: "/home/alice/code/widget"},
		{name: "shorter_remap_prefix", cwd: "/mnt/sync/notes", expected: "/home/alice/notes"},
		{name: "ignored_prefix", cwd: "/tmp/build", wantErr: ErrIgnoredPath},
		{name: "ignored_prefix_exact", cwd: "/tmp", wantErr: ErrIgnoredPath},
		{name: "ignored_project_basename", cwd: "/home/alice/code/scratch", wantErr: ErrIgnoredPath},
		{name: "unresolved", cwd: "/opt/elsewhere", wantErr: ErrUnresolvedPath},
		{name: "prefix_requires_separator", cwd: "/tmpfs/build", wantErr: ErrUnresolvedPath},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			resolver := NewResolver(rules, discover)

			root, err := resolver.Resolve(tt.cwd)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.expected, root)
		})
	}
}

func TestResolveCaches(t *testing.T) {
	t.Parallel()

	calls := 0
	discover := func(p string) (string, error) {
		calls++

		return "/repo", nil
	}

	resolver := NewResolver(Rules{}, discover)

	for range 3 {
		root, err := resolver.Resolve("/repo/sub")
		require.NoError(t, err)
		assert.Equal(t, "/repo", root)
	}

	assert.Equal(t, 1, calls)
}

func TestResolveCachesErrors(t *testing.T) {
	t.Parallel()

	calls := 0
	discover := func(p string) (string, error) {
		calls++

		return "", ErrUnresolvedPath
	}

	resolver := NewResolver(Rules{}, discover)

	for range 3 {
		_, err := resolver.Resolve("/gone")
		assert.ErrorIs(t, err, ErrUnresolvedPath)
	}

	assert.Equal(t, 1, calls)
}
