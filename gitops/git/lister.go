package git

import "context"

// Lister reports the paths of changed working-tree
// files: tracked files modified or deleted, plus
// untracked files not ignored. Lines may be blank.
type Lister interface {
	ListChanges(ctx context.Context) ([]string, error)
	// Root is the directory the returned paths are
	// relative to.
	Root() string
}
