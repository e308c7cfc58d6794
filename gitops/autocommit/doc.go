// Package autocommit commits the changes of a local working tree to a remote
// branch in one atomic operation. It lists changed paths, classifies them into
// additions and deletions, resolves the current branch head, builds the commit
// request and submits it conditioned on that head, so a branch that moved in
// the meantime makes the run fail instead of being overwritten.
//
// The main entry point is Run, which accepts a Config struct with all
// parameters and collaborators of the run.
package autocommit
