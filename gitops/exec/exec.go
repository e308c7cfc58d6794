// Package exec provides shell command execution helpers.
package exec

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
)

// Output holds the separated streams of a finished
// command.
type Output struct {
	Stdout string
	Stderr string
}

// Ex executes the named command in the given directory
// and returns its stdout and stderr separately. Pass
// empty dir to use the current working directory.
func Ex(
	ctx context.Context,
	dir string,
	name string,
	arg ...string,
) (Output, error) {
	const errCtx = "executing command"

	slog.Debug(
		"executing",
		"cmd", name,
		"args", strings.Join(arg, " "),
	)

	var stdout, stderr bytes.Buffer

	cmd := exec.CommandContext(ctx, name, arg...)
	if dir != "" {
		cmd.Dir = dir
	}

	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()

	out := Output{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}

	slog.Debug(
		"output",
		"stdout", out.Stdout,
		"stderr", out.Stderr,
	)

	if err != nil {
		return out, fmt.Errorf(
			"%s: %s %s: %w",
			errCtx, name, strings.Join(arg, " "), err,
		)
	}

	return out, nil
}
