// Package changeset classifies the paths reported by a working-tree status
// query into commit additions and deletions. A path present on disk becomes an
// addition carrying its base64 contents, read once at classification time; an
// absent path becomes a deletion.
package changeset
