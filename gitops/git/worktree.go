package git

import (
	"context"
	"fmt"
	"sort"

	gogit "github.com/go-git/go-git/v5"

	"github.com/byte4ever/gitops_commit/gitops/commit"
)

// Worktree lists changes with go-git, without a git
// binary.
type Worktree struct {
	wt *gogit.Worktree
}

// OpenWorktree opens the repository containing dir.
func OpenWorktree(dir string) (*Worktree, error) {
	const errCtx = "opening worktree"

	repo, err := gogit.PlainOpenWithOptions(
		dir,
		&gogit.PlainOpenOptions{DetectDotGit: true},
	)
	if err != nil {
		return nil, fmt.Errorf(
			"%s: %w: %w", errCtx, commit.ErrListing, err,
		)
	}

	wt, err := repo.Worktree()
	if err != nil {
		return nil, fmt.Errorf(
			"%s: %w: %w", errCtx, commit.ErrListing, err,
		)
	}

	return &Worktree{wt: wt}, nil
}

// Root returns the worktree directory.
func (w *Worktree) Root() string {
	return w.wt.Filesystem.Root()
}

// ListChanges returns the worktree paths that are
// modified, deleted or untracked, sorted. Ignored files
// are left out.
func (w *Worktree) ListChanges(
	ctx context.Context,
) ([]string, error) {
	const errCtx = "listing worktree status"

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf(
			"%s: %w: %w", errCtx, commit.ErrListing, err,
		)
	}

	status, err := w.wt.Status()
	if err != nil {
		return nil, fmt.Errorf(
			"%s: %w: %w", errCtx, commit.ErrListing, err,
		)
	}

	var paths []string

	for p, st := range status {
		switch st.Worktree {
		case gogit.Modified, gogit.Deleted, gogit.Untracked:
			paths = append(paths, p)
		default:
			continue
		}
	}

	sort.Strings(paths)

	return paths, nil
}
