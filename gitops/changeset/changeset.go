package changeset

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
	"golang.org/x/sync/errgroup"

	"github.com/byte4ever/gitops_commit/gitops/commit"
)

// readParallelism bounds concurrent file reads.
const readParallelism = 8

// Normalize trims every reported line, drops blank
// ones and keeps the first occurrence of duplicated
// paths. Input order is preserved.
func Normalize(lines []string) []string {
	seen := make(map[string]struct{}, len(lines))
	paths := make([]string, 0, len(lines))

	for _, line := range lines {
		p := strings.TrimSpace(line)
		if p == "" {
			continue
		}

		if _, ok := seen[p]; ok {
			continue
		}

		seen[p] = struct{}{}
		paths = append(paths, p)
	}

	return paths
}

// Classify turns paths into a ChangeSet using fsys to
// stat and read them. Blank entries are skipped. Any
// read failure aborts the whole classification.
func Classify(
	ctx context.Context,
	fsys billy.Basic,
	paths []string,
) (commit.ChangeSet, error) {
	const errCtx = "classifying changes"

	paths = Normalize(paths)

	// One slot per path so concurrent reads keep the
	// reported order.
	type slot struct {
		addition *commit.FileAddition
		deletion *commit.FileDeletion
	}

	slots := make([]slot, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(readParallelism)

	for i, p := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			add, del, err := classifyPath(fsys, p)
			if err != nil {
				return err
			}

			slots[i] = slot{addition: add, deletion: del}

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return commit.ChangeSet{}, fmt.Errorf(
			"%s: %w", errCtx, err,
		)
	}

	var cs commit.ChangeSet

	for _, s := range slots {
		switch {
		case s.addition != nil:
			cs.Additions = append(cs.Additions, *s.addition)
		case s.deletion != nil:
			cs.Deletions = append(cs.Deletions, *s.deletion)
		}
	}

	slog.Debug(
		"classified changes",
		"additions", len(cs.Additions),
		"deletions", len(cs.Deletions),
	)

	return cs, nil
}

// classifyPath returns exactly one of an addition or
// a deletion for p.
func classifyPath(
	fsys billy.Basic,
	p string,
) (*commit.FileAddition, *commit.FileDeletion, error) {
	if _, err := fsys.Stat(p); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			slog.Debug("file removed", "path", p)

			return nil, &commit.FileDeletion{Path: p}, nil
		}

		return nil, nil, fmt.Errorf(
			"%w: stat %s: %w", commit.ErrRead, p, err,
		)
	}

	data, err := util.ReadFile(fsys, p)
	if err != nil {
		return nil, nil, fmt.Errorf(
			"%w: read %s: %w", commit.ErrRead, p, err,
		)
	}

	return &commit.FileAddition{
		Path:     p,
		Contents: base64.StdEncoding.EncodeToString(data),
	}, nil, nil
}
