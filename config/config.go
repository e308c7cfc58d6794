package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/goccy/go-yaml"

	"github.com/byte4ever/gitops_commit/gitops/commit"
)

// Defaults applied when no source sets a value.
const (
	DefaultBranch   = "master"
	DefaultProvider = ProviderGitHub
	DefaultLister   = ListerGit
)

// Supported providers.
const (
	ProviderGitHub = "github"
	ProviderGitLab = "gitlab"
)

// Supported listers.
const (
	ListerGit   = "git"
	ListerGoGit = "go-git"
)

// Settings holds every option of a commit run.
type Settings struct {
	// Provider selects the hosting platform.
	Provider string `yaml:"provider"`
	// Token authenticates against the platform. Never
	// read from the YAML file.
	Token string `yaml:"-"`
	// Message is the commit message template.
	Message string `yaml:"message"`
	// Branch is the target branch.
	Branch string `yaml:"branch"`
	// Repository is "owner/repo".
	Repository string `yaml:"repository"`
	// APIURL overrides the REST API base URL.
	APIURL string `yaml:"api_url"`
	// GraphQLURL overrides the GitHub GraphQL endpoint.
	GraphQLURL string `yaml:"graphql_url"`
	// EnterpriseHost is a GitHub Enterprise hostname.
	EnterpriseHost string `yaml:"enterprise_host"`
	// GitLabHost is the GitLab instance URL.
	GitLabHost string `yaml:"gitlab_host"`
	// WorkDir is the directory changes are listed in.
	WorkDir string `yaml:"workdir"`
	// Lister selects how changes are listed.
	Lister string `yaml:"lister"`
	// ResultFile receives the JSON run result.
	ResultFile string `yaml:"result_file"`
	// OutputFile receives step outputs.
	OutputFile string `yaml:"-"`
	// SHA is the commit the run was triggered for.
	SHA string `yaml:"-"`
	// RunID identifies the workflow run.
	RunID string `yaml:"-"`
	// DryRun skips submission. Nil means unset.
	DryRun *bool `yaml:"dry_run"`
	// Verbose enables debug logging. Nil means unset.
	Verbose *bool `yaml:"verbose"`
}

// IsDryRun reports whether submission is skipped.
func (s Settings) IsDryRun() bool {
	return s.DryRun != nil && *s.DryRun
}

// IsVerbose reports whether debug logging is on.
func (s Settings) IsVerbose() bool {
	return s.Verbose != nil && *s.Verbose
}

// Defaults returns the built-in settings.
func Defaults() Settings {
	return Settings{
		Provider: DefaultProvider,
		Message:  commit.DefaultMessage,
		Branch:   DefaultBranch,
		Lister:   DefaultLister,
	}
}

// LoadFile reads settings from a YAML file.
func LoadFile(path string) (Settings, error) {
	const errCtx = "loading config file"

	data, err := os.ReadFile(path) //nolint:gosec // path from CLI flag
	if err != nil {
		return Settings{}, fmt.Errorf(
			"%s: %w: %w", errCtx, commit.ErrConfig, err,
		)
	}

	var s Settings
	if err := yaml.UnmarshalWithOptions(
		data, &s, yaml.Strict(),
	); err != nil {
		return Settings{}, fmt.Errorf(
			"%s: %w: %s: %w", errCtx, commit.ErrConfig, path, err,
		)
	}

	return s, nil
}

// FromEnv reads the settings a GitHub Actions runner
// exposes. Inputs keep their dashes, as the runner
// only upper-cases them.
func FromEnv(getenv func(string) string) Settings {
	s := Settings{
		Token:      getenv("INPUT_GITHUB-TOKEN"),
		Message:    getenv("INPUT_MESSAGE"),
		Branch:     getenv("GITHUB_HEAD_REF"),
		Repository: getenv("GITHUB_REPOSITORY"),
		APIURL:     getenv("GITHUB_API_URL"),
		GraphQLURL: getenv("GITHUB_GRAPHQL_URL"),
		WorkDir:    getenv("GITHUB_WORKSPACE"),
		OutputFile: getenv("GITHUB_OUTPUT"),
		SHA:        getenv("GITHUB_SHA"),
		RunID:      getenv("GITHUB_RUN_ID"),
	}

	if s.Token == "" {
		s.Token = getenv("GITHUB_TOKEN")
	}

	if getenv("RUNNER_DEBUG") == "1" {
		verbose := true
		s.Verbose = &verbose
	}

	return s
}

// Merge returns base with every set field of over
// applied on top. Booleans count as set when non-nil,
// so over may switch them off.
func Merge(base Settings, over Settings) Settings {
	pick := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}

	pick(&base.Provider, over.Provider)
	pick(&base.Token, over.Token)
	pick(&base.Message, over.Message)
	pick(&base.Branch, over.Branch)
	pick(&base.Repository, over.Repository)
	pick(&base.APIURL, over.APIURL)
	pick(&base.GraphQLURL, over.GraphQLURL)
	pick(&base.EnterpriseHost, over.EnterpriseHost)
	pick(&base.GitLabHost, over.GitLabHost)
	pick(&base.WorkDir, over.WorkDir)
	pick(&base.Lister, over.Lister)
	pick(&base.ResultFile, over.ResultFile)
	pick(&base.OutputFile, over.OutputFile)
	pick(&base.SHA, over.SHA)
	pick(&base.RunID, over.RunID)

	if over.DryRun != nil {
		base.DryRun = over.DryRun
	}

	if over.Verbose != nil {
		base.Verbose = over.Verbose
	}

	return base
}

// Resolve layers defaults, file, environment and
// flags, in that order.
func Resolve(file, env, flags Settings) Settings {
	return Merge(Merge(Merge(Defaults(), file), env), flags)
}

// Target splits Repository and returns the target
// branch coordinates.
func (s Settings) Target() (commit.Branch, error) {
	owner, repo, ok := strings.Cut(s.Repository, "/")
	if !ok || owner == "" || repo == "" {
		return commit.Branch{}, fmt.Errorf(
			"%w: repository %q must be owner/repo",
			commit.ErrConfig, s.Repository,
		)
	}

	return commit.Branch{
		Owner: owner,
		Repo:  repo,
		Name:  s.Branch,
	}, nil
}

// Validate checks the settings needed before any
// command or remote call is made.
func (s Settings) Validate() error {
	const errCtx = "validating settings"

	if s.Token == "" {
		return fmt.Errorf(
			"%s: %w: token not found", errCtx, commit.ErrConfig,
		)
	}

	if _, err := s.Target(); err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	if s.Branch == "" {
		return fmt.Errorf(
			"%s: %w: branch must be set", errCtx, commit.ErrConfig,
		)
	}

	switch s.Provider {
	case ProviderGitHub, ProviderGitLab:
	default:
		return fmt.Errorf(
			"%s: %w: unknown provider %q",
			errCtx, commit.ErrConfig, s.Provider,
		)
	}

	switch s.Lister {
	case ListerGit, ListerGoGit:
	default:
		return fmt.Errorf(
			"%s: %w: unknown lister %q",
			errCtx, commit.ErrConfig, s.Lister,
		)
	}

	return nil
}
