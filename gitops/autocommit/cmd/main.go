// Command commit_changes commits the working-tree
// changes of a CI checkout to a remote branch through
// the hosting platform API, guarded by the branch head
// read at the start of the run.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/byte4ever/gitops_commit/config"
	"github.com/byte4ever/gitops_commit/gitops/actions"
	"github.com/byte4ever/gitops_commit/gitops/autocommit"
	"github.com/byte4ever/gitops_commit/gitops/commit"
	"github.com/byte4ever/gitops_commit/gitops/commitmsg"
	"github.com/byte4ever/gitops_commit/gitops/git"
	"github.com/byte4ever/gitops_commit/gitops/git/github"
	"github.com/byte4ever/gitops_commit/gitops/git/gitlab"
)

func main() {
	if err := newRootCmd(os.Getenv).Execute(); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

// newRootCmd builds the command. getenv is the only
// access to the process environment.
func newRootCmd(getenv func(string) string) *cobra.Command {
	var (
		configFile string
		flags      config.Settings
		dryRun     bool
		verbose    bool
	)

	cmd := &cobra.Command{
		Use:   "commit_changes",
		Short: "Commit working-tree changes to a remote branch",
		Long: `Lists the changed files of the current checkout, encodes them and
creates a single commit on the target branch through the GitHub or GitLab API.
The commit is only applied while the branch still points at the head read at
the start of the run; a concurrent commit makes the run fail.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Flags().Changed("dry-run") {
				flags.DryRun = &dryRun
			}

			if cmd.Flags().Changed("verbose") {
				flags.Verbose = &verbose
			}

			return run(
				cmd.Context(),
				cmd.ErrOrStderr(),
				getenv,
				configFile,
				flags,
			)
		},
	}

	fl := cmd.Flags()

	fl.StringVar(
		&configFile, "config", "",
		"YAML settings file",
	)
	fl.StringVar(
		&flags.Provider, "provider", "",
		"Hosting platform: github or gitlab",
	)
	fl.StringVar(
		&flags.Token, "token", "",
		"Platform access token (default $INPUT_GITHUB-TOKEN)",
	)
	fl.StringVarP(
		&flags.Message, "message", "m", "",
		"Commit message, may use {{BRANCH}} style variables",
	)
	fl.StringVarP(
		&flags.Branch, "branch", "b", "",
		"Target branch (default $GITHUB_HEAD_REF or master)",
	)
	fl.StringVar(
		&flags.Repository, "repository", "",
		"Target repository as owner/repo (default $GITHUB_REPOSITORY)",
	)
	fl.StringVar(
		&flags.APIURL, "api-url", "",
		"GitHub REST API base URL",
	)
	fl.StringVar(
		&flags.GraphQLURL, "graphql-url", "",
		"GitHub GraphQL endpoint",
	)
	fl.StringVar(
		&flags.EnterpriseHost, "github-enterprise-host", "",
		"GitHub Enterprise hostname",
	)
	fl.StringVar(
		&flags.GitLabHost, "gitlab-host", "",
		"GitLab instance URL",
	)
	fl.StringVarP(
		&flags.WorkDir, "workdir", "C", "",
		"Directory of the checkout (default current directory)",
	)
	fl.StringVar(
		&flags.Lister, "lister", "",
		"Change lister: git or go-git",
	)
	fl.StringVar(
		&flags.ResultFile, "result-file", "",
		"Write the run result as JSON to this file",
	)
	fl.BoolVar(
		&dryRun, "dry-run", false,
		"Resolve and build the commit without submitting it",
	)
	fl.BoolVarP(
		&verbose, "verbose", "v", false,
		"Enable debug logging",
	)

	return cmd
}

func run(
	ctx context.Context,
	stderr io.Writer,
	getenv func(string) string,
	configFile string,
	flags config.Settings,
) error {
	const errCtx = "running commit_changes"

	var file config.Settings

	if configFile != "" {
		var err error

		file, err = config.LoadFile(configFile)
		if err != nil {
			return fmt.Errorf("%s: %w", errCtx, err)
		}
	}

	s := config.Resolve(file, config.FromEnv(getenv), flags)

	setupLogger(
		stderr, s.IsVerbose(), getenv("GITHUB_ACTIONS") == "true",
	)

	if err := s.Validate(); err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	target, err := s.Target()
	if err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	lister, err := newLister(ctx, s)
	if err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	res, err := autocommit.Run(ctx, autocommit.Config{
		Token:   s.Token,
		Branch:  target,
		Message: s.Message,
		Vars: map[string]any{
			commitmsg.VarSHA:   s.SHA,
			commitmsg.VarRunID: s.RunID,
		},
		DryRun:      s.IsDryRun(),
		Lister:      lister,
		NewProvider: providerFactory(s),
	})
	if err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	if err := report(s, res); err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	return nil
}

// setupLogger installs the default slog logger. On a
// GitHub Actions runner records become workflow
// commands.
func setupLogger(w io.Writer, verbose bool, onRunner bool) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}

	var h slog.Handler = slog.NewTextHandler(
		w, &slog.HandlerOptions{Level: level},
	)

	if onRunner {
		h = actions.NewHandler(w, level)
	}

	slog.SetDefault(slog.New(h))
}

// newLister creates the change lister selected in s.
// Pattern: Factory -- selects implementation at
// runtime.
func newLister(
	ctx context.Context,
	s config.Settings,
) (git.Lister, error) {
	switch s.Lister {
	case config.ListerGoGit:
		dir := s.WorkDir
		if dir == "" {
			dir = "."
		}

		wt, err := git.OpenWorktree(dir)
		if err != nil {
			return nil, err
		}

		return wt, nil
	default:
		repo, err := git.Open(ctx, s.WorkDir)
		if err != nil {
			return nil, err
		}

		return repo, nil
	}
}

// providerFactory returns the constructor of the
// platform selected in s.
func providerFactory(
	s config.Settings,
) func(token string) (git.Provider, error) {
	return func(token string) (git.Provider, error) {
		if s.Provider == config.ProviderGitLab {
			p, err := gitlab.NewProvider(gitlab.Config{
				Host:        s.GitLabHost,
				AccessToken: token,
			})
			if err != nil {
				return nil, err
			}

			return p, nil
		}

		p, err := github.NewProvider(github.Config{
			AccessToken:    token,
			EnterpriseHost: s.EnterpriseHost,
			APIURL:         s.APIURL,
			GraphQLURL:     s.GraphQLURL,
		})
		if err != nil {
			return nil, err
		}

		return p, nil
	}
}

// report publishes the run result as step outputs and,
// when requested, as a JSON file.
func report(s config.Settings, res commit.Result) error {
	const errCtx = "reporting result"

	if err := actions.WriteOutputs(
		s.OutputFile,
		map[string]string{
			"changed":    fmt.Sprint(res.Changed),
			"commit-oid": res.OID,
			"commit-url": res.URL,
		},
	); err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	if s.ResultFile == "" {
		return nil
	}

	data, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	//nolint:gosec // path from CLI flag
	if err := os.WriteFile(
		s.ResultFile, append(data, '\n'), 0o644,
	); err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	return nil
}
