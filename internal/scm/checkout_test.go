package scm

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/require"
)

// newSourceRepo initializes a local repository with one commit so clone
// operations have something to fetch.
func newSourceRepo(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "README"), []byte("demo\n"), 0o600))

	wt, err := repo.Worktree()
	require.NoError(t, err)
	_, err = wt.Add("README")
	require.NoError(t, err)
	_, err = wt.Commit("initial", &git.CommitOptions{
		Author: &object.Signature{Name: "tester", Email: "tester@example.com"},
	})
	require.NoError(t, err)

	return dir
}

func TestCloneIntoEmptyDestination(t *testing.T) {
	t.Parallel()

	src := newSourceRepo(t)
	dest := filepath.Join(t.TempDir(), "checkout")

	require.NoError(t, Clone(context.Background(), Options{URL: src, Destination: dest}))
	require.FileExists(t, filepath.Join(dest, "README"))
}

func TestCloneIntoExistingEmptyDirectory(t *testing.T) {
	t.Parallel()

	src := newSourceRepo(t)
	dest := t.TempDir()

	require.NoError(t, Clone(context.Background(), Options{URL: src, Destination: dest}))
	require.FileExists(t, filepath.Join(dest, "README"))
}

func TestCloneExistingMatchingRepoIsNoop(t *testing.T) {
	t.Parallel()

	src := newSourceRepo(t)
	dest := filepath.Join(t.TempDir(), "checkout")

	require.NoError(t, Clone(context.Background(), Options{URL: src, Destination: dest}))
	require.NoError(t, Clone(context.Background(), Options{URL: src, Destination: dest}))
}

func TestCloneExistingMismatchedRemote(t *testing.T) {
	t.Parallel()

	src := newSourceRepo(t)
	other := newSourceRepo(t)
	dest := filepath.Join(t.TempDir(), "checkout")

	require.NoError(t, Clone(context.Background(), Options{URL: src, Destination: dest}))

	err := Clone(context.Background(), Options{URL: other, Destination: dest})
	require.Error(t, err)
	require.Contains(t, err.Error(), "already tracks")
}

func TestCloneDestinationHoldsNonRepoContent(t *testing.T) {
	t.Parallel()

	src := newSourceRepo(t)
	dest := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dest, "stray"), []byte("x"), 0o600))

	err := Clone(context.Background(), Options{URL: src, Destination: dest})
	require.Error(t, err)
	require.Contains(t, err.Error(), "not a git repository")
}

func TestCloneValidatesOptions(t *testing.T) {
	t.Parallel()

	require.Error(t, Clone(context.Background(), Options{Destination: "x"}))
	require.Error(t, Clone(context.Background(), Options{URL: "https://example.com/x.git"}))
}
