// Package commit holds the data model shared by every stage of the
// change-to-commit pipeline: the change-set, the request submitted to the
// hosting platform, its result, and the sentinel errors classifying each
// failure.
//
// Build assembles a Request from a ChangeSet and the resolved head. It does no
// I/O and refuses an empty change-set.
package commit
