// Package git lists working-tree changes and defines the strategy interfaces
// used to commit them on a git hosting platform.
//
// Lister abstracts the status query. Repo shells out to the git binary
// ("git ls-files -om --exclude-standard"); Worktree computes the same set in
// pure Go with go-git.
//
// Provider abstracts the remote side: HeadResolver reads the current head of a
// branch and CommitCreator applies a commit conditioned on that head.
// Implementations for GitHub and GitLab live in sub-packages. ProviderFuncs
// lets plain functions satisfy Provider.
package git
