package git_test

import (
	"context"
	"os"
	oe "os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// initGitRepo creates a git repository with one
// initial commit. Git hooks are disabled to avoid
// interference from pre-commit hooks.
func initGitRepo(tb testing.TB, dir string) {
	tb.Helper()

	cmds := [][]string{
		{"init", "-b", "main"},
		{
			"config",
			"user.email", "test@test.com",
		},
		{"config", "user.name", "Test"},
		{
			"config", "core.hooksPath",
			"/dev/null",
		},
		{
			"commit", "--allow-empty",
			"-m", "initial",
		},
	}

	for _, args := range cmds {
		gitCmd(tb, dir, args...)
	}
}

// seedChanges commits tracked.txt, gone.txt and a
// .gitignore, then modifies, deletes, adds and ignores
// files so every kind of change is present.
func seedChanges(tb testing.TB, dir string) {
	tb.Helper()

	writeFile(tb, dir, "tracked.txt", "v1\n")
	writeFile(tb, dir, "gone.txt", "bye\n")
	writeFile(tb, dir, ".gitignore", "*.log\n")

	gitCmd(tb, dir, "add", ".")
	gitCmd(tb, dir, "commit", "-m", "seed")

	writeFile(tb, dir, "tracked.txt", "v2\n")
	require.NoError(tb, os.Remove(filepath.Join(dir, "gone.txt")))
	writeFile(tb, dir, "sub/new.txt", "new\n")
	writeFile(tb, dir, "debug.log", "ignored\n")
}

func writeFile(tb testing.TB, dir, name, content string) {
	tb.Helper()

	fp := filepath.Join(dir, name)
	require.NoError(tb, os.MkdirAll(filepath.Dir(fp), 0o750))

	//nolint:gosec // test file
	require.NoError(tb, os.WriteFile(fp, []byte(content), 0o600))
}

// gitCmd runs a git command in the given directory.
func gitCmd(
	tb testing.TB,
	dir string,
	args ...string,
) {
	tb.Helper()

	//nolint:gosec // test helper
	cmd := oe.CommandContext(
		context.Background(), "git", args...,
	)
	cmd.Dir = dir

	out, err := cmd.CombinedOutput()
	if err != nil {
		tb.Fatalf(
			"git %v failed: %s: %v",
			args, string(out), err,
		)
	}
}
