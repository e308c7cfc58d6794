package gitlab

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	gl "gitlab.com/gitlab-org/api/client-go"

	"github.com/byte4ever/gitops_commit/gitops/commit"
)

// Config holds the settings needed to create a GitLab
// commit provider.
type Config struct {
	// Host is the base URL of the GitLab instance
	// (e.g. "https://gitlab.com").
	Host string
	// AccessToken is a personal or project access
	// token used for authentication.
	AccessToken string
}

// Provider resolves branch heads and creates commits
// on GitLab.
//
// Pattern: Strategy -- implements git.Provider.
type Provider struct {
	client *gl.Client
}

// NewProvider validates cfg and returns a Provider
// ready to create commits.
func NewProvider(cfg Config) (*Provider, error) {
	const errCtx = "creating gitlab provider"

	if cfg.AccessToken == "" {
		return nil, fmt.Errorf(
			"%s: %w: access token must be set",
			errCtx, commit.ErrConfig,
		)
	}

	host := cfg.Host
	if host == "" {
		host = "https://gitlab.com"
	}

	client, err := gl.NewClient(
		cfg.AccessToken,
		gl.WithBaseURL(host),
	)
	if err != nil {
		return nil, fmt.Errorf(
			"%s: %w: new client: %w",
			errCtx, commit.ErrConfig, err,
		)
	}

	return &Provider{client: client}, nil
}

// ResolveHead returns the id of the commit branch
// points at.
func (p *Provider) ResolveHead(
	ctx context.Context,
	branch commit.Branch,
) (string, error) {
	const errCtx = "resolving gitlab branch head"

	br, resp, err := p.client.Branches.GetBranch(
		branch.NameWithOwner(),
		branch.Name,
		gl.WithContext(ctx),
	)
	if err != nil {
		if statusOf(resp) == http.StatusNotFound {
			return "", fmt.Errorf(
				"%s: %w: branch %q not found in %s",
				errCtx, commit.ErrResolution,
				branch.Name, branch.NameWithOwner(),
			)
		}

		return "", fmt.Errorf(
			"%s: %w: %w", errCtx, commit.ErrTransport, err,
		)
	}

	if br.Commit == nil || br.Commit.ID == "" {
		return "", fmt.Errorf(
			"%s: %w: branch %q has no commit",
			errCtx, commit.ErrResolution, branch.Name,
		)
	}

	slog.Debug(
		"resolved branch head",
		"branch", branch.Name,
		"oid", br.Commit.ID,
	)

	return br.Commit.ID, nil
}

// CreateCommit applies req as a single commit. Files
// already present at the expected head are updated,
// others created. A file changed since the expected
// head or a concurrent create yields
// commit.ErrConflict. GitLab has no branch-level head
// check, so the reported parent is the one GitLab
// committed on.
func (p *Provider) CreateCommit(
	ctx context.Context,
	req commit.Request,
) (commit.Result, error) {
	const errCtx = "creating gitlab commit"

	project := req.Branch.NameWithOwner()

	actions, err := p.buildActions(ctx, project, req)
	if err != nil {
		return commit.Result{}, fmt.Errorf(
			"%s: %w", errCtx, err,
		)
	}

	created, resp, err := p.client.Commits.CreateCommit(
		project,
		&gl.CreateCommitOptions{
			Branch:        gl.Ptr(req.Branch.Name),
			CommitMessage: gl.Ptr(req.Message),
			Actions:       actions,
		},
		gl.WithContext(ctx),
	)
	if err != nil {
		if isConflict(resp, err) {
			return commit.Result{}, fmt.Errorf(
				"%s: %w: branch %q moved past %s: %w",
				errCtx, commit.ErrConflict,
				req.Branch.Name, req.ExpectedHeadOID, err,
			)
		}

		return commit.Result{}, fmt.Errorf(
			"%s: %w: %w", errCtx, commit.ErrTransport, err,
		)
	}

	parent := req.ExpectedHeadOID
	if len(created.ParentIDs) > 0 {
		parent = created.ParentIDs[0]
	}

	if parent != req.ExpectedHeadOID {
		slog.Warn(
			"commit parent differs from expected head",
			"parent", parent,
			"expected", req.ExpectedHeadOID,
		)
	}

	slog.Info(
		"created commit",
		"oid", created.ID,
		"url", created.WebURL,
	)

	return commit.Result{
		Changed:   true,
		OID:       created.ID,
		URL:       created.WebURL,
		ParentOID: parent,
		Additions: len(req.Changes.Additions),
		Deletions: len(req.Changes.Deletions),
	}, nil
}

// buildActions maps the change-set to commit actions.
// Every path is looked up at the expected head: an
// addition of a present file becomes an update, and
// updates and deletions carry the last commit that
// touched the file so GitLab rejects them once it has
// changed.
func (p *Provider) buildActions(
	ctx context.Context,
	project string,
	req commit.Request,
) ([]*gl.CommitActionOptions, error) {
	actions := make(
		[]*gl.CommitActionOptions,
		0,
		len(req.Changes.Additions)+len(req.Changes.Deletions),
	)

	for _, a := range req.Changes.Additions {
		last, exists, err := p.lastCommit(
			ctx, project, a.Path, req.ExpectedHeadOID,
		)
		if err != nil {
			return nil, err
		}

		action := &gl.CommitActionOptions{
			Action:   gl.Ptr(gl.FileCreate),
			FilePath: gl.Ptr(a.Path),
			Content:  gl.Ptr(a.Contents),
			Encoding: gl.Ptr("base64"),
		}

		if exists {
			action.Action = gl.Ptr(gl.FileUpdate)
			action.LastCommitID = optional(last)
		}

		actions = append(actions, action)
	}

	for _, d := range req.Changes.Deletions {
		last, _, err := p.lastCommit(
			ctx, project, d.Path, req.ExpectedHeadOID,
		)
		if err != nil {
			return nil, err
		}

		actions = append(actions, &gl.CommitActionOptions{
			Action:       gl.Ptr(gl.FileDelete),
			FilePath:     gl.Ptr(d.Path),
			LastCommitID: optional(last),
		})
	}

	return actions, nil
}

// lastCommit returns the id of the last commit that
// touched path as of ref, and whether path exists
// there.
func (p *Provider) lastCommit(
	ctx context.Context,
	project string,
	path string,
	ref string,
) (string, bool, error) {
	file, resp, err := p.client.RepositoryFiles.GetFileMetaData(
		project,
		path,
		&gl.GetFileMetaDataOptions{Ref: gl.Ptr(ref)},
		gl.WithContext(ctx),
	)
	if err == nil {
		return file.LastCommitID, true, nil
	}

	if statusOf(resp) == http.StatusNotFound {
		return "", false, nil
	}

	return "", false, fmt.Errorf(
		"%w: lookup %s: %w", commit.ErrTransport, path, err,
	)
}

func optional(v string) *string {
	if v == "" {
		return nil
	}

	return gl.Ptr(v)
}

// isConflict recognises the GitLab answers to a commit
// racing with another one.
func isConflict(resp *gl.Response, err error) bool {
	switch statusOf(resp) {
	case http.StatusConflict:
		return true
	case http.StatusBadRequest:
	default:
		return false
	}

	msg := err.Error()

	var glErr *gl.ErrorResponse
	if errors.As(err, &glErr) {
		msg = glErr.Message
	}

	msg = strings.ToLower(msg)

	return strings.Contains(msg, "has changed since") ||
		strings.Contains(msg, "already exists") ||
		strings.Contains(msg, "doesn't exist")
}

func statusOf(resp *gl.Response) int {
	if resp == nil || resp.Response == nil {
		return 0
	}

	return resp.StatusCode
}
