package actions

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/google/uuid"
)

// WriteOutputs appends outputs to the step output file
// at path, keys sorted. Multi-line values use the
// heredoc form with a random delimiter. An empty path
// is a no-op.
func WriteOutputs(path string, outputs map[string]string) error {
	const errCtx = "writing step outputs"

	if path == "" {
		return nil
	}

	keys := make([]string, 0, len(outputs))
	for k := range outputs {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	var sb strings.Builder

	for _, k := range keys {
		v := outputs[k]

		if !strings.ContainsAny(v, "\r\n") {
			fmt.Fprintf(&sb, "%s=%s\n", k, v)

			continue
		}

		delim := "ghadelimiter_" + uuid.NewString()
		fmt.Fprintf(&sb, "%s<<%s\n%s\n%s\n", k, delim, v, delim)
	}

	//nolint:gosec // path is provided by the runner
	f, err := os.OpenFile(
		path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644,
	)
	if err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	if _, err := f.WriteString(sb.String()); err != nil {
		_ = f.Close()

		return fmt.Errorf("%s: %w", errCtx, err)
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	return nil
}
