package workspace

import (
	"context"
	"fmt"
	"strings"

	"github.com/festy23/codeshelf/internal/gitcli"
)

// MergeStatus is the outcome of Merge.
type MergeStatus string

// Merge outcomes.
const (
	MergeClean           MergeStatus = "MERGED"
	MergeAlreadyUpToDate MergeStatus = "ALREADY_UP_TO_DATE"
	MergeConflicting     MergeStatus = "CONFLICTING"
)

// Merge merges ref into the current branch without committing and without
// fast-forwarding. Conflicts are left in the working tree with standard
// two-way markers.
func (w *Workspace) Merge(ctx context.Context, ref string) (MergeStatus, error) {
	_, err := w.run(ctx,
		"-c", "merge.conflictStyle=merge",
		"merge", "--no-ff", "--no-commit", "--no-edit", ref,
	)
	if err != nil {
		// exit status 1 with unmerged paths means conflicts, anything else is a failure
		if gitcli.ExitCode(err) == 1 {
			paths, pathsErr := w.ConflictedPaths(ctx)
			if pathsErr == nil && len(paths) > 0 {
				return MergeConflicting, nil
			}
		}
		return "", fmt.Errorf("merge %s: %w", ref, err)
	}
	if !w.MergeInProgress(ctx) {
		return MergeAlreadyUpToDate, nil
	}
	return MergeClean, nil
}

// MergeInProgress reports whether MERGE_HEAD is set.
func (w *Workspace) MergeInProgress(ctx context.Context) bool {
	return w.refExists(ctx, "MERGE_HEAD")
}

// ConflictedPaths lists unmerged paths.
func (w *Workspace) ConflictedPaths(ctx context.Context) ([]string, error) {
	out, err := w.run(ctx, "diff", "--name-only", "-z", "--diff-filter=U")
	if err != nil {
		return nil, fmt.Errorf("list conflicts: %w", err)
	}
	var paths []string
	for _, p := range strings.Split(string(out), "\x00") {
		if p != "" {
			paths = append(paths, p)
		}
	}
	return paths, nil
}
