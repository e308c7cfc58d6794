package autocommit

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"golang.org/x/sync/errgroup"

	"github.com/byte4ever/gitops_commit/gitops/changeset"
	"github.com/byte4ever/gitops_commit/gitops/commit"
	"github.com/byte4ever/gitops_commit/gitops/commitmsg"
	"github.com/byte4ever/gitops_commit/gitops/git"
)

// Config holds all settings and collaborators of a
// commit run.
type Config struct {
	// Token is the platform credential. Required.
	Token string

	// Branch is the target branch.
	Branch commit.Branch

	// Message is the commit message template. Empty
	// means commit.DefaultMessage.
	Message string

	// Vars are extra commitmsg template variables.
	Vars map[string]any

	// DryRun stops the run before submission.
	DryRun bool

	// Lister reports the changed paths.
	Lister git.Lister

	// FS reads changed files. Defaults to the
	// lister root on disk.
	FS billy.Basic

	// NewProvider builds the platform client from
	// Token. It is only called when there is
	// something to commit.
	NewProvider func(token string) (git.Provider, error)
}

// Run executes one commit run. A clean working tree
// yields a Result with Changed false and no remote
// call. Every failure wraps one of the commit.Err*
// sentinels and nothing is committed.
func Run(ctx context.Context, cfg Config) (commit.Result, error) {
	const errCtx = "running commit"

	if err := validate(cfg); err != nil {
		return commit.Result{}, fmt.Errorf(
			"%s: %w", errCtx, err,
		)
	}

	// Step 1: List changed paths.
	lines, err := cfg.Lister.ListChanges(ctx)
	if err != nil {
		return commit.Result{}, fmt.Errorf(
			"%s: %w", errCtx, err,
		)
	}

	paths := changeset.Normalize(lines)
	if len(paths) == 0 {
		slog.Info("no changes to commit")

		return commit.Result{}, nil
	}

	slog.Debug("changed paths", "paths", paths)

	provider, err := cfg.NewProvider(cfg.Token)
	if err != nil {
		return commit.Result{}, fmt.Errorf(
			"%s: create provider: %w", errCtx, err,
		)
	}

	fsys := cfg.FS
	if fsys == nil {
		fsys = osfs.New(cfg.Lister.Root())
	}

	// Step 2: Classify changes and resolve the head.
	// Both are independent reads.
	var (
		changes commit.ChangeSet
		head    string
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var cerr error

		changes, cerr = changeset.Classify(gctx, fsys, paths)

		return cerr
	})

	g.Go(func() error {
		var rerr error

		head, rerr = provider.ResolveHead(gctx, cfg.Branch)

		return rerr
	})

	if err := g.Wait(); err != nil {
		return commit.Result{}, fmt.Errorf(
			"%s: %w", errCtx, err,
		)
	}

	// Step 3: Build the request.
	req, err := commit.Build(
		cfg.Branch,
		renderMessage(cfg, changes),
		head,
		changes,
	)
	if err != nil {
		return commit.Result{}, fmt.Errorf(
			"%s: %w", errCtx, err,
		)
	}

	slog.Info(
		"committing changes",
		"branch", req.Branch.Name,
		"repository", req.Branch.NameWithOwner(),
		"expected_head", req.ExpectedHeadOID,
		"additions", len(changes.Additions),
		"deletions", len(changes.Deletions),
	)

	if cfg.DryRun {
		slog.Info(
			"dry run: skipping commit",
			"paths", changes.Paths(),
		)

		return commit.Result{
			Changed:   true,
			DryRun:    true,
			ParentOID: head,
			Additions: len(changes.Additions),
			Deletions: len(changes.Deletions),
		}, nil
	}

	// Step 4: Submit. A conflict is final for this
	// run.
	res, err := provider.CreateCommit(ctx, req)
	if err != nil {
		return commit.Result{}, fmt.Errorf(
			"%s: %w", errCtx, err,
		)
	}

	return res, nil
}

func validate(cfg Config) error {
	if cfg.Token == "" {
		return fmt.Errorf(
			"%w: token not found", commit.ErrConfig,
		)
	}

	if cfg.Branch.Owner == "" ||
		cfg.Branch.Repo == "" ||
		cfg.Branch.Name == "" {
		return fmt.Errorf(
			"%w: branch owner, repo and name must be set",
			commit.ErrConfig,
		)
	}

	if cfg.Lister == nil {
		return fmt.Errorf(
			"%w: lister must be set", commit.ErrConfig,
		)
	}

	if cfg.NewProvider == nil {
		return fmt.Errorf(
			"%w: provider factory must be set",
			commit.ErrConfig,
		)
	}

	return nil
}

// renderMessage expands the message template with the
// run variables and the change counts.
func renderMessage(cfg Config, changes commit.ChangeSet) string {
	vars := make(map[string]any, len(cfg.Vars)+4)

	for k, v := range cfg.Vars {
		vars[k] = v
	}

	vars[commitmsg.VarBranch] = cfg.Branch.Name
	vars[commitmsg.VarRepository] = cfg.Branch.NameWithOwner()
	vars[commitmsg.VarAdditions] = len(changes.Additions)
	vars[commitmsg.VarDeletions] = len(changes.Deletions)

	return commitmsg.Render(cfg.Message, vars)
}
