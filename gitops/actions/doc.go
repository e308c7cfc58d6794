// Package actions integrates with the GitHub Actions runner. Handler is a
// slog.Handler writing records as workflow commands (::debug::, ::warning::,
// ::error::) so they are surfaced as annotations. WriteOutputs appends step
// outputs to the file named by GITHUB_OUTPUT.
package actions
