package commit

import (
	"fmt"
	"strings"
)

// DefaultMessage is used when no commit message is
// supplied.
const DefaultMessage = "Default commit message"

// Build assembles a Request. It fails when the
// change-set is empty, when a path is both added and
// deleted, or when the branch coordinates or expected
// head are missing.
func Build(
	branch Branch,
	message string,
	expectedHeadOID string,
	changes ChangeSet,
) (Request, error) {
	const errCtx = "building commit request"

	if changes.Empty() {
		return Request{}, fmt.Errorf(
			"%s: %w", errCtx, ErrEmptyChangeSet,
		)
	}

	if branch.Owner == "" || branch.Repo == "" {
		return Request{}, fmt.Errorf(
			"%s: %w: repository owner and name must be set",
			errCtx, ErrConfig,
		)
	}

	if branch.Name == "" {
		return Request{}, fmt.Errorf(
			"%s: %w: branch name must be set",
			errCtx, ErrConfig,
		)
	}

	if expectedHeadOID == "" {
		return Request{}, fmt.Errorf(
			"%s: %w: expected head must be set",
			errCtx, ErrResolution,
		)
	}

	added := make(map[string]struct{}, len(changes.Additions))
	for _, a := range changes.Additions {
		added[a.Path] = struct{}{}
	}

	for _, d := range changes.Deletions {
		if _, ok := added[d.Path]; ok {
			return Request{}, fmt.Errorf(
				"%s: %w: %q is both added and deleted",
				errCtx, ErrInvalidChangeSet, d.Path,
			)
		}
	}

	if strings.TrimSpace(message) == "" {
		message = DefaultMessage
	}

	return Request{
		Branch:          branch,
		Message:         message,
		ExpectedHeadOID: expectedHeadOID,
		Changes:         changes,
	}, nil
}
