package commit

import "errors"

// Failure classes. Stages wrap their errors with one of
// these so the caller can branch on errors.Is.
var (
	// ErrConfig reports a missing or invalid setting.
	ErrConfig = errors.New("configuration error")
	// ErrListing reports a failed working-tree status
	// query.
	ErrListing = errors.New("listing error")
	// ErrRead reports a changed file that could not be
	// read.
	ErrRead = errors.New("read error")
	// ErrResolution reports a branch head that could
	// not be resolved.
	ErrResolution = errors.New("resolution error")
	// ErrConflict reports that the branch head moved
	// away from the expected head before the commit
	// was applied.
	ErrConflict = errors.New("conflict")
	// ErrTransport reports any other remote API
	// failure.
	ErrTransport = errors.New("transport error")
	// ErrEmptyChangeSet reports a change-set with
	// neither additions nor deletions.
	ErrEmptyChangeSet = errors.New("empty change set")
	// ErrInvalidChangeSet reports a change-set whose
	// additions and deletions overlap.
	ErrInvalidChangeSet = errors.New("invalid change set")
)
