// Package gitlab implements a git.Provider backed by the GitLab REST API. The
// head is read from the branch endpoint and the change-set is applied as one
// multi-action commit. Update and delete actions carry the expected head as
// last_commit_id, so GitLab refuses the commit when one of those files changed
// after the head was read.
package gitlab
