package git

import (
	"context"
	"fmt"

	"github.com/byte4ever/gitops_commit/gitops/commit"
)

// Pattern: Strategy -- swap git platform without
// changing the commit pipeline.

// HeadResolver reads the latest commit identifier of a
// branch.
type HeadResolver interface {
	ResolveHead(
		ctx context.Context,
		branch commit.Branch,
	) (string, error)
}

// CommitCreator applies a commit atomically, rejecting
// it when the branch head differs from
// req.ExpectedHeadOID.
type CommitCreator interface {
	CreateCommit(
		ctx context.Context,
		req commit.Request,
	) (commit.Result, error)
}

// Provider is a git hosting platform able to resolve
// heads and create commits.
type Provider interface {
	HeadResolver
	CommitCreator
}

// ProviderFuncs adapts plain functions to the Provider
// interface. A nil function fails with
// commit.ErrTransport.
type ProviderFuncs struct {
	Resolve func(
		ctx context.Context,
		branch commit.Branch,
	) (string, error)
	Create func(
		ctx context.Context,
		req commit.Request,
	) (commit.Result, error)
}

// ResolveHead delegates to Resolve.
func (f ProviderFuncs) ResolveHead(
	ctx context.Context,
	branch commit.Branch,
) (string, error) {
	if f.Resolve == nil {
		return "", fmt.Errorf(
			"%w: resolve not implemented",
			commit.ErrTransport,
		)
	}

	return f.Resolve(ctx, branch)
}

// CreateCommit delegates to Create.
func (f ProviderFuncs) CreateCommit(
	ctx context.Context,
	req commit.Request,
) (commit.Result, error) {
	if f.Create == nil {
		return commit.Result{}, fmt.Errorf(
			"%w: create not implemented",
			commit.ErrTransport,
		)
	}

	return f.Create(ctx, req)
}
