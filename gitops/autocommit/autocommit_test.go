package autocommit_test

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/byte4ever/gitops_commit/gitops/autocommit"
	"github.com/byte4ever/gitops_commit/gitops/commit"
	"github.com/byte4ever/gitops_commit/gitops/git"
)

var testBranch = commit.Branch{
	Owner: "org",
	Repo:  "repo",
	Name:  "feature/x",
}

type fakeLister struct {
	lines []string
	err   error
	calls atomic.Int32
}

func (l *fakeLister) ListChanges(context.Context) ([]string, error) {
	l.calls.Add(1)

	return l.lines, l.err
}

func (l *fakeLister) Root() string { return "/" }

// fakeRemote is an in-memory branch enforcing the
// expected head on commit.
type fakeRemote struct {
	mu         sync.Mutex
	head       string
	resolveErr error
	// racer, when set, moves the head right after it
	// was resolved.
	racer     bool
	factories atomic.Int32
	resolves  atomic.Int32
	creates   atomic.Int32
	requests  []commit.Request
}

func (r *fakeRemote) factory(token string) (git.Provider, error) {
	r.factories.Add(1)

	if token != "tok" {
		return nil, fmt.Errorf("%w: bad token", commit.ErrTransport)
	}

	return git.ProviderFuncs{
		Resolve: r.resolve,
		Create:  r.create,
	}, nil
}

func (r *fakeRemote) resolve(
	_ context.Context,
	_ commit.Branch,
) (string, error) {
	r.resolves.Add(1)

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.resolveErr != nil {
		return "", r.resolveErr
	}

	head := r.head
	if r.racer {
		r.head = "concurrent"
	}

	return head, nil
}

func (r *fakeRemote) create(
	_ context.Context,
	req commit.Request,
) (commit.Result, error) {
	r.creates.Add(1)

	r.mu.Lock()
	defer r.mu.Unlock()

	r.requests = append(r.requests, req)

	if req.ExpectedHeadOID != r.head {
		return commit.Result{}, fmt.Errorf(
			"%w: expected %s, head is %s",
			commit.ErrConflict, req.ExpectedHeadOID, r.head,
		)
	}

	parent := r.head
	r.head = "new-" + parent

	return commit.Result{
		Changed:   true,
		OID:       r.head,
		ParentOID: parent,
		Additions: len(req.Changes.Additions),
		Deletions: len(req.Changes.Deletions),
	}, nil
}

func (r *fakeRemote) lastRequest(t *testing.T) commit.Request {
	t.Helper()

	r.mu.Lock()
	defer r.mu.Unlock()

	require.NotEmpty(t, r.requests)

	return r.requests[len(r.requests)-1]
}

func newFS(t *testing.T, files map[string]string) billy.Filesystem {
	t.Helper()

	fsys := memfs.New()
	for name, content := range files {
		require.NoError(t, util.WriteFile(fsys, name, []byte(content), 0o644))
	}

	return fsys
}

func newConfig(
	lister git.Lister,
	fsys billy.Basic,
	remote *fakeRemote,
) autocommit.Config {
	return autocommit.Config{
		Token:       "tok",
		Branch:      testBranch,
		Lister:      lister,
		FS:          fsys,
		NewProvider: remote.factory,
	}
}

func b64(s string) string {
	return base64.StdEncoding.EncodeToString([]byte(s))
}

func TestRun_commits_changes(t *testing.T) {
	t.Parallel()

	remote := &fakeRemote{head: "abc"}
	lister := &fakeLister{lines: []string{"a.txt", "", " b.txt ", "", "removed.txt"}}
	fsys := newFS(t, map[string]string{"a.txt": "A", "b.txt": "B"})

	cfg := newConfig(lister, fsys, remote)
	cfg.Message = "sync {{BRANCH}}: +{{ADDITIONS}} -{{DELETIONS}}"

	res, err := autocommit.Run(context.Background(), cfg)

	require.NoError(t, err)
	assert.Equal(t, commit.Result{
		Changed:   true,
		OID:       "new-abc",
		ParentOID: "abc",
		Additions: 2,
		Deletions: 1,
	}, res)

	req := remote.lastRequest(t)
	assert.Equal(t, testBranch, req.Branch)
	assert.Equal(t, "abc", req.ExpectedHeadOID)
	assert.Equal(t, "sync feature/x: +2 -1", req.Message)
	assert.Equal(t, []commit.FileAddition{
		{Path: "a.txt", Contents: b64("A")},
		{Path: "b.txt", Contents: b64("B")},
	}, req.Changes.Additions)
	assert.Equal(t, []commit.FileDeletion{
		{Path: "removed.txt"},
	}, req.Changes.Deletions)
	assert.Equal(t, int32(1), remote.creates.Load())
}

func TestRun_default_message(t *testing.T) {
	t.Parallel()

	remote := &fakeRemote{head: "abc"}
	lister := &fakeLister{lines: []string{"removed.txt"}}

	_, err := autocommit.Run(
		context.Background(),
		newConfig(lister, memfs.New(), remote),
	)

	require.NoError(t, err)
	assert.Equal(
		t, "Default commit message", remote.lastRequest(t).Message,
	)
}

func TestRun_no_changes_is_noop(t *testing.T) {
	t.Parallel()

	for _, lines := range [][]string{nil, {""}, {"", "  ", "\t"}} {
		remote := &fakeRemote{head: "abc"}
		lister := &fakeLister{lines: lines}

		res, err := autocommit.Run(
			context.Background(),
			newConfig(lister, memfs.New(), remote),
		)

		require.NoError(t, err)
		assert.False(t, res.Changed)
		assert.Equal(t, int32(0), remote.factories.Load())
		assert.Equal(t, int32(0), remote.resolves.Load())
		assert.Equal(t, int32(0), remote.creates.Load())
	}
}

func TestRun_missing_token(t *testing.T) {
	t.Parallel()

	remote := &fakeRemote{head: "abc"}
	lister := &fakeLister{lines: []string{"a.txt"}}

	cfg := newConfig(lister, memfs.New(), remote)
	cfg.Token = ""

	_, err := autocommit.Run(context.Background(), cfg)

	assert.ErrorIs(t, err, commit.ErrConfig)
	assert.Equal(t, int32(0), lister.calls.Load())
	assert.Equal(t, int32(0), remote.factories.Load())
}

func TestRun_invalid_config(t *testing.T) {
	t.Parallel()

	remote := &fakeRemote{head: "abc"}
	lister := &fakeLister{lines: []string{"a.txt"}}

	tests := []struct {
		name   string
		mutate func(*autocommit.Config)
	}{
		{
			name:   "no branch name",
			mutate: func(c *autocommit.Config) { c.Branch.Name = "" },
		},
		{
			name:   "no lister",
			mutate: func(c *autocommit.Config) { c.Lister = nil },
		},
		{
			name:   "no provider factory",
			mutate: func(c *autocommit.Config) { c.NewProvider = nil },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := newConfig(lister, memfs.New(), remote)
			tt.mutate(&cfg)

			_, err := autocommit.Run(context.Background(), cfg)

			assert.ErrorIs(t, err, commit.ErrConfig)
			assert.Equal(t, int32(0), lister.calls.Load())
		})
	}
}

func TestRun_failures_commit_nothing(t *testing.T) {
	t.Parallel()

	dir := memfs.New()
	require.NoError(t, dir.MkdirAll("adir", 0o755))

	tests := []struct {
		name    string
		lister  *fakeLister
		fsys    billy.Basic
		remote  *fakeRemote
		wantErr error
	}{
		{
			name: "listing error",
			lister: &fakeLister{
				err: fmt.Errorf("%w: git stderr: boom", commit.ErrListing),
			},
			fsys:    memfs.New(),
			remote:  &fakeRemote{head: "abc"},
			wantErr: commit.ErrListing,
		},
		{
			name:    "read error",
			lister:  &fakeLister{lines: []string{"adir"}},
			fsys:    dir,
			remote:  &fakeRemote{head: "abc"},
			wantErr: commit.ErrRead,
		},
		{
			name:   "resolution error",
			lister: &fakeLister{lines: []string{"x"}},
			fsys:   memfs.New(),
			remote: &fakeRemote{
				resolveErr: fmt.Errorf("%w: branch not found", commit.ErrResolution),
			},
			wantErr: commit.ErrResolution,
		},
		{
			name:    "empty head",
			lister:  &fakeLister{lines: []string{"x"}},
			fsys:    memfs.New(),
			remote:  &fakeRemote{},
			wantErr: commit.ErrResolution,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := autocommit.Run(
				context.Background(),
				newConfig(tt.lister, tt.fsys, tt.remote),
			)

			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, int32(0), tt.remote.creates.Load())
		})
	}
}

func TestRun_provider_factory_error(t *testing.T) {
	t.Parallel()

	remote := &fakeRemote{head: "abc"}
	lister := &fakeLister{lines: []string{"a.txt"}}

	cfg := newConfig(lister, memfs.New(), remote)
	cfg.Token = "other"

	_, err := autocommit.Run(context.Background(), cfg)

	assert.ErrorIs(t, err, commit.ErrTransport)
	assert.Equal(t, int32(0), remote.resolves.Load())
}

func TestRun_conflict_is_not_retried(t *testing.T) {
	t.Parallel()

	remote := &fakeRemote{head: "abc", racer: true}
	lister := &fakeLister{lines: []string{"removed.txt"}}

	_, err := autocommit.Run(
		context.Background(),
		newConfig(lister, memfs.New(), remote),
	)

	require.ErrorIs(t, err, commit.ErrConflict)
	assert.Equal(t, int32(1), remote.resolves.Load())
	assert.Equal(t, int32(1), remote.creates.Load())
	assert.Equal(t, "abc", remote.lastRequest(t).ExpectedHeadOID)
}

func TestRun_dry_run(t *testing.T) {
	t.Parallel()

	remote := &fakeRemote{head: "abc"}
	lister := &fakeLister{lines: []string{"a.txt", "gone.txt"}}
	fsys := newFS(t, map[string]string{"a.txt": "A"})

	cfg := newConfig(lister, fsys, remote)
	cfg.DryRun = true

	res, err := autocommit.Run(context.Background(), cfg)

	require.NoError(t, err)
	assert.Equal(t, commit.Result{
		Changed:   true,
		DryRun:    true,
		ParentOID: "abc",
		Additions: 1,
		Deletions: 1,
	}, res)
	assert.Equal(t, int32(0), remote.creates.Load())
}

func TestRun_cancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	remote := &fakeRemote{head: "abc"}
	lister := &fakeLister{lines: []string{"a.txt"}}
	fsys := newFS(t, map[string]string{"a.txt": "A"})

	_, err := autocommit.Run(ctx, newConfig(lister, fsys, remote))

	assert.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, int32(0), remote.creates.Load())
}
