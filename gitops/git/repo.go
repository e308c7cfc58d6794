package git

import (
	"context"
	"fmt"
	"strings"

	"github.com/byte4ever/gitops_commit/gitops/commit"
	"github.com/byte4ever/gitops_commit/gitops/exec"
)

// Repo is a local git checkout queried through the git
// binary.
type Repo struct {
	// Dir is the top-level directory of the checkout.
	Dir string
}

// Open returns the Repo containing dir. Pass empty dir
// to use the current working directory.
func Open(ctx context.Context, dir string) (*Repo, error) {
	const errCtx = "opening repository"

	out, err := exec.Ex(
		ctx, dir, "git", "rev-parse", "--show-toplevel",
	)
	if err != nil {
		return nil, fmt.Errorf(
			"%s: %w: %w", errCtx, commit.ErrListing, err,
		)
	}

	return &Repo{Dir: strings.TrimSpace(out.Stdout)}, nil
}

// Root returns the checkout directory.
func (r *Repo) Root() string {
	return r.Dir
}

// ListChanges runs "git ls-files -z -om --exclude-standard"
// and returns the listed paths unquoted. Anything
// written to stderr fails the listing.
func (r *Repo) ListChanges(
	ctx context.Context,
) ([]string, error) {
	const errCtx = "listing working tree changes"

	out, err := exec.Ex(
		ctx, r.Dir,
		"git", "ls-files", "-z", "-om", "--exclude-standard",
	)
	if err != nil {
		return nil, fmt.Errorf(
			"%s: %w: %w: %s",
			errCtx, commit.ErrListing, err,
			strings.TrimSpace(out.Stderr),
		)
	}

	if out.Stderr != "" {
		return nil, fmt.Errorf(
			"%s: %w: git stderr: %s",
			errCtx, commit.ErrListing,
			strings.TrimSpace(out.Stderr),
		)
	}

	if out.Stdout == "" {
		return nil, nil
	}

	return strings.Split(
		strings.TrimSuffix(out.Stdout, "\x00"), "\x00",
	), nil
}
