package git_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/byte4ever/gitops_commit/gitops/commit"
	"github.com/byte4ever/gitops_commit/gitops/git"
)

func TestWorktree_ListChanges_matches_git(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	initGitRepo(t, dir)
	seedChanges(t, dir)

	wt, err := git.OpenWorktree(dir)
	require.NoError(t, err)

	paths, err := wt.ListChanges(context.Background())
	require.NoError(t, err)

	assert.Equal(
		t,
		[]string{"gone.txt", "sub/new.txt", "tracked.txt"},
		paths,
	)
}

func TestWorktree_ListChanges_clean(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	initGitRepo(t, dir)

	wt, err := git.OpenWorktree(dir)
	require.NoError(t, err)

	paths, err := wt.ListChanges(context.Background())

	require.NoError(t, err)
	assert.Empty(t, paths)
}

func TestWorktree_ListChanges_cancelled(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	initGitRepo(t, dir)

	wt, err := git.OpenWorktree(dir)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = wt.ListChanges(ctx)

	assert.ErrorIs(t, err, commit.ErrListing)
}

func TestOpenWorktree_not_a_repo(t *testing.T) {
	t.Parallel()

	_, err := git.OpenWorktree(t.TempDir())

	assert.ErrorIs(t, err, commit.ErrListing)
}
