// Package github implements a git.Provider backed by the GitHub GraphQL API
// (cloud or enterprise). The branch head is read through the ref history and
// commits are created with the createCommitOnBranch mutation, which GitHub
// applies atomically and only while the branch still points at the expected
// head.
//
// Query documents are constants; every value is sent as a typed GraphQL
// variable. The go-github client carries authentication, base URLs and error
// decoding.
package github
