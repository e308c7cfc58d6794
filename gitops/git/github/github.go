package github

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	gh "github.com/google/go-github/v68/github"

	"github.com/byte4ever/gitops_commit/gitops/commit"
	"github.com/byte4ever/gitops_commit/gitops/commitmsg"
)

// Config holds the settings needed to create a GitHub
// commit provider.
type Config struct {
	// AccessToken is a personal access token or
	// GitHub App token used for authentication.
	AccessToken string
	// EnterpriseHost is an optional GitHub Enterprise
	// hostname (e.g. "git.corp.example.com"). Leave
	// empty for github.com.
	EnterpriseHost string
	// APIURL overrides the REST API base URL (the
	// GITHUB_API_URL of a workflow run). Takes
	// precedence over EnterpriseHost.
	APIURL string
	// GraphQLURL overrides the GraphQL endpoint (the
	// GITHUB_GRAPHQL_URL of a workflow run).
	GraphQLURL string
}

// Provider resolves branch heads and creates commits
// on GitHub.
//
// Pattern: Strategy -- implements git.Provider.
type Provider struct {
	client   *gh.Client
	endpoint string
}

// NewProvider validates cfg and returns a Provider
// ready to create commits.
func NewProvider(cfg Config) (*Provider, error) {
	const errCtx = "creating github provider"

	if cfg.AccessToken == "" {
		return nil, fmt.Errorf(
			"%s: %w: access token must be set",
			errCtx, commit.ErrConfig,
		)
	}

	client := gh.NewClient(nil).
		WithAuthToken(cfg.AccessToken)

	endpoint := "graphql"

	switch {
	case cfg.APIURL != "":
		base, err := url.Parse(
			strings.TrimSuffix(cfg.APIURL, "/") + "/",
		)
		if err != nil {
			return nil, fmt.Errorf(
				"%s: %w: api url: %w",
				errCtx, commit.ErrConfig, err,
			)
		}

		client.BaseURL = base

	case cfg.EnterpriseHost != "":
		baseURL := "https://" +
			cfg.EnterpriseHost + "/api/v3/"
		uploadURL := "https://" +
			cfg.EnterpriseHost + "/api/uploads/"

		var err error

		client, err = client.WithEnterpriseURLs(
			baseURL, uploadURL,
		)
		if err != nil {
			return nil, fmt.Errorf(
				"%s: %w: enterprise urls: %w",
				errCtx, commit.ErrConfig, err,
			)
		}

		endpoint = "https://" +
			cfg.EnterpriseHost + "/api/graphql"
	}

	if cfg.GraphQLURL != "" {
		endpoint = cfg.GraphQLURL
	}

	return &Provider{
		client:   client,
		endpoint: endpoint,
	}, nil
}

// ResolveHead returns the oid of the latest commit on
// branch. A missing branch or an empty history is a
// commit.ErrResolution.
func (p *Provider) ResolveHead(
	ctx context.Context,
	branch commit.Branch,
) (string, error) {
	const errCtx = "resolving github branch head"

	var resp headResponse

	err := p.do(ctx, headQuery, map[string]any{
		"owner":         branch.Owner,
		"name":          branch.Repo,
		"qualifiedName": qualifiedRef(branch.Name),
	}, &resp)
	if err != nil {
		return "", fmt.Errorf("%s: %w", errCtx, err)
	}

	if len(resp.Errors) > 0 {
		if resp.Errors.notFound() {
			return "", fmt.Errorf(
				"%s: %w: %w",
				errCtx, commit.ErrResolution, resp.Errors,
			)
		}

		return "", fmt.Errorf(
			"%s: %w: %w",
			errCtx, commit.ErrTransport, resp.Errors,
		)
	}

	repo := resp.Data.Repository
	if repo == nil {
		return "", fmt.Errorf(
			"%s: %w: repository %s not found",
			errCtx, commit.ErrResolution,
			branch.NameWithOwner(),
		)
	}

	if repo.Ref == nil {
		return "", fmt.Errorf(
			"%s: %w: branch %q not found",
			errCtx, commit.ErrResolution, branch.Name,
		)
	}

	nodes := repo.Ref.Target.History.Nodes
	if len(nodes) == 0 || nodes[0].OID == "" {
		return "", fmt.Errorf(
			"%s: %w: branch %q has no history",
			errCtx, commit.ErrResolution, branch.Name,
		)
	}

	slog.Debug(
		"resolved branch head",
		"branch", branch.Name,
		"oid", nodes[0].OID,
	)

	return nodes[0].OID, nil
}

// CreateCommit submits req with createCommitOnBranch.
// When the branch moved past req.ExpectedHeadOID the
// error wraps commit.ErrConflict. No retry is made.
func (p *Provider) CreateCommit(
	ctx context.Context,
	req commit.Request,
) (commit.Result, error) {
	const errCtx = "creating github commit"

	var resp createCommitResponse

	err := p.do(ctx, createCommitMutation, map[string]any{
		"input": newCommitInput(req),
	}, &resp)
	if err != nil {
		return commit.Result{}, fmt.Errorf(
			"%s: %w", errCtx, err,
		)
	}

	if len(resp.Errors) > 0 {
		if resp.Errors.stale() {
			return commit.Result{}, fmt.Errorf(
				"%s: %w: branch %q moved past %s: %w",
				errCtx, commit.ErrConflict,
				req.Branch.Name, req.ExpectedHeadOID,
				resp.Errors,
			)
		}

		return commit.Result{}, fmt.Errorf(
			"%s: %w: %w",
			errCtx, commit.ErrTransport, resp.Errors,
		)
	}

	created := resp.Data.CreateCommitOnBranch
	if created == nil || created.Commit.OID == "" {
		return commit.Result{}, fmt.Errorf(
			"%s: %w: response carries no commit",
			errCtx, commit.ErrTransport,
		)
	}

	slog.Info(
		"created commit",
		"oid", created.Commit.OID,
		"url", created.Commit.URL,
	)

	return commit.Result{
		Changed:   true,
		OID:       created.Commit.OID,
		URL:       created.Commit.URL,
		ParentOID: req.ExpectedHeadOID,
		Additions: len(req.Changes.Additions),
		Deletions: len(req.Changes.Deletions),
	}, nil
}

// do posts one GraphQL document. HTTP level failures
// wrap commit.ErrTransport; GraphQL errors are left in
// out for the caller to classify.
func (p *Provider) do(
	ctx context.Context,
	query string,
	variables map[string]any,
	out any,
) error {
	req, err := p.client.NewRequest(
		"POST",
		p.endpoint,
		graphQLRequest{Query: query, Variables: variables},
	)
	if err != nil {
		return fmt.Errorf(
			"%w: new request: %w", commit.ErrTransport, err,
		)
	}

	if _, err := p.client.Do(ctx, req, out); err != nil {
		var ghErr *gh.ErrorResponse
		if errors.As(err, &ghErr) {
			slog.Warn(
				"github response",
				"status", ghErr.Response.StatusCode,
				"message", ghErr.Message,
				"documentation_url", ghErr.DocumentationURL,
			)
		}

		return fmt.Errorf("%w: %w", commit.ErrTransport, err)
	}

	return nil
}

func newCommitInput(req commit.Request) commitInput {
	headline, body := commitmsg.Split(req.Message)

	in := commitInput{
		Branch: branchInput{
			RepositoryNameWithOwner: req.Branch.NameWithOwner(),
			BranchName:              strings.TrimPrefix(req.Branch.Name, "refs/heads/"),
		},
		Message: messageInput{
			Headline: headline,
			Body:     body,
		},
		FileChanges: fileChanges{
			Additions: make(
				[]fileAddition, 0, len(req.Changes.Additions),
			),
			Deletions: make(
				[]fileDeletion, 0, len(req.Changes.Deletions),
			),
		},
		ExpectedHeadOID: req.ExpectedHeadOID,
	}

	for _, a := range req.Changes.Additions {
		in.FileChanges.Additions = append(
			in.FileChanges.Additions,
			fileAddition{Path: a.Path, Contents: a.Contents},
		)
	}

	for _, d := range req.Changes.Deletions {
		in.FileChanges.Deletions = append(
			in.FileChanges.Deletions,
			fileDeletion{Path: d.Path},
		)
	}

	return in
}

// qualifiedRef turns a short branch name into a fully
// qualified ref. Names already starting with "refs/"
// are kept.
func qualifiedRef(branch string) string {
	if strings.HasPrefix(branch, "refs/") {
		return branch
	}

	return "refs/heads/" + branch
}
