package commit

// Branch addresses one branch of a hosted repository.
type Branch struct {
	// Owner is the user, organisation or group owning
	// the repository.
	Owner string
	// Repo is the repository name without owner.
	Repo string
	// Name is the short branch name (e.g. "main").
	Name string
}

// NameWithOwner returns "owner/repo".
func (b Branch) NameWithOwner() string {
	return b.Owner + "/" + b.Repo
}

// FileAddition carries the full contents of an added
// or modified file, base64 encoded.
type FileAddition struct {
	Path     string `json:"path"`
	Contents string `json:"contents"`
}

// FileDeletion names a removed file.
type FileDeletion struct {
	Path string `json:"path"`
}

// ChangeSet bundles the file changes of one commit. A
// path appears in at most one of the two lists.
type ChangeSet struct {
	Additions []FileAddition
	Deletions []FileDeletion
}

// Empty reports whether the change-set carries no
// change at all.
func (c ChangeSet) Empty() bool {
	return len(c.Additions) == 0 && len(c.Deletions) == 0
}

// Paths returns every path of the change-set,
// additions first, in input order.
func (c ChangeSet) Paths() []string {
	paths := make(
		[]string, 0, len(c.Additions)+len(c.Deletions),
	)

	for _, a := range c.Additions {
		paths = append(paths, a.Path)
	}

	for _, d := range c.Deletions {
		paths = append(paths, d.Path)
	}

	return paths
}

// Request is a single atomic commit to submit.
// ExpectedHeadOID is the optimistic concurrency token:
// the platform must reject the commit when the branch
// head no longer matches it.
type Request struct {
	Branch          Branch
	Message         string
	ExpectedHeadOID string
	Changes         ChangeSet
}

// Result is the observable outcome of a run.
type Result struct {
	// Changed is false when the working tree had
	// nothing to commit.
	Changed bool `json:"changed"`
	// DryRun is true when submission was skipped.
	DryRun bool `json:"dry_run,omitempty"`
	// OID is the new branch head.
	OID string `json:"oid,omitempty"`
	// URL points at the new commit when the platform
	// reports one.
	URL string `json:"url,omitempty"`
	// ParentOID is the head the commit was built on.
	ParentOID string `json:"parent_oid,omitempty"`
	Additions int    `json:"additions"`
	Deletions int    `json:"deletions"`
}
