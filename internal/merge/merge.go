// Package merge commits pull request merges and conflict resolutions back
// into bare repositories.
package merge

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/festy23/codeshelf/internal/conflict"
	"github.com/festy23/codeshelf/internal/metrics"
	"github.com/festy23/codeshelf/internal/vcs"
	"github.com/festy23/codeshelf/internal/workspace"
)

var (
	// ErrUnresolvedConflicts is returned when a resolution leaves a conflicted path out.
	ErrUnresolvedConflicts = errors.New("conflicted files missing from resolution")
	// ErrMarkersRemain is returned when resolved content still carries conflict markers.
	ErrMarkersRemain = errors.New("resolved content still contains conflict markers")
	// ErrNothingToResolve is returned when source merges into target without conflicts.
	ErrNothingToResolve = errors.New("branches merge without conflicts")
)

// Result describes a merge attempt.
type Result struct {
	Merged    bool                  `json:"merged"`
	Status    workspace.MergeStatus `json:"status"`
	CommitID  string                `json:"commitId,omitempty"`
	Source    string                `json:"sourceBranch"`
	Target    string                `json:"targetBranch"`
	Conflicts []conflict.Record     `json:"conflictFiles,omitempty"`
}

// ResolvedFile is the final content of one conflicted file.
type ResolvedFile struct {
	FileName        string `json:"fileName"`
	ResolvedContent string `json:"resolvedContent"`
}

// Executor runs merges and resolutions in throwaway workspaces.
type Executor struct {
	workspaces *workspace.Manager
	metrics    *metrics.Metrics
	logger     *zap.SugaredLogger
}

// NewExecutor creates an Executor.
func NewExecutor(workspaces *workspace.Manager, m *metrics.Metrics, logger *zap.SugaredLogger) *Executor {
	return &Executor{
		workspaces: workspaces,
		metrics:    m,
		logger:     logger,
	}
}

// MergeMessage is the commit message of a pull request merge.
func MergeMessage(source, target string) string {
	return fmt.Sprintf("Merged branch %s into %s", source, target)
}

// ResolveMessage is the commit message of a conflict resolution.
func ResolveMessage(source string) string {
	return "Resolved conflicts from branch " + source
}

// Merge merges origin/<source> into target without fast-forwarding,
// commits and pushes target. On conflicts nothing is pushed and the result
// lists the conflicted files.
func (e *Executor) Merge(ctx context.Context, repoPath, source, target string) (*Result, error) {
	result := &Result{Source: source, Target: target}

	err := e.workspaces.With(ctx, repoPath, func(ws *workspace.Workspace) error {
		if err := ws.Fetch(ctx); err != nil {
			return err
		}
		status, err := conflict.Trial(ctx, ws, source, target)
		if err != nil {
			return err
		}
		result.Status = status

		if status == workspace.MergeConflicting {
			records, err := conflict.Collect(ctx, ws, source, target)
			if err != nil {
				return err
			}
			result.Conflicts = records
			return nil
		}

		hash, err := ws.Commit(ctx, MergeMessage(source, target))
		if err != nil {
			return err
		}
		if err := ws.Push(ctx, target); err != nil {
			return err
		}
		result.Merged = true
		result.CommitID = vcs.ShortID(hash)
		return nil
	})
	switch {
	case err != nil:
		e.metrics.ObserveMerge(metrics.MergeError)
		return nil, err
	case result.Merged:
		e.metrics.ObserveMerge(metrics.MergeMerged)
		e.logger.Infow("branch merged", "source", source, "target", target, "commit", result.CommitID)
	default:
		e.metrics.ObserveMerge(metrics.MergeConflict)
		e.logger.Infow("merge stopped on conflicts", "source", source, "target", target, "conflicts", len(result.Conflicts))
	}
	return result, nil
}

// Resolve redoes the trial merge of origin/<source> into target, requires
// every conflicted path to be covered by files, writes and stages them,
// commits and pushes target. It returns the short commit id. A pair that
// merges cleanly fails with ErrNothingToResolve and pushes nothing.
func (e *Executor) Resolve(ctx context.Context, repoPath, source, target string, files []ResolvedFile) (string, error) {
	for _, f := range files {
		if conflict.HasMarkers(f.ResolvedContent) {
			return "", fmt.Errorf("%w: %s", ErrMarkersRemain, f.FileName)
		}
	}

	var commitID string
	err := e.workspaces.With(ctx, repoPath, func(ws *workspace.Workspace) error {
		status, err := conflict.Trial(ctx, ws, source, target)
		if err != nil {
			return err
		}
		if status != workspace.MergeConflicting {
			return fmt.Errorf("%w: %s into %s is %s", ErrNothingToResolve, source, target, status)
		}
		conflicted, err := ws.ConflictedPaths(ctx)
		if err != nil {
			return err
		}
		if missing := missingPaths(conflicted, files); len(missing) > 0 {
			return fmt.Errorf("%w: %s", ErrUnresolvedConflicts, strings.Join(missing, ", "))
		}

		paths := make([]string, 0, len(files))
		for _, f := range files {
			if err := ws.WriteFile(f.FileName, []byte(f.ResolvedContent)); err != nil {
				return err
			}
			paths = append(paths, f.FileName)
		}
		if err := ws.Add(ctx, paths...); err != nil {
			return err
		}

		hash, err := ws.Commit(ctx, ResolveMessage(source))
		if err != nil {
			return err
		}
		if err := ws.Push(ctx, target+":"+target); err != nil {
			return err
		}
		commitID = vcs.ShortID(hash)
		return nil
	})
	if err != nil {
		return "", err
	}

	e.logger.Infow("conflicts resolved",
		"source", source,
		"target", target,
		"files", len(files),
		"commit", commitID,
	)
	return commitID, nil
}

func missingPaths(conflicted []string, files []ResolvedFile) []string {
	supplied := make(map[string]struct{}, len(files))
	for _, f := range files {
		supplied[strings.TrimPrefix(f.FileName, "./")] = struct{}{}
	}
	var missing []string
	for _, p := range conflicted {
		if _, ok := supplied[p]; !ok {
			missing = append(missing, p)
		}
	}
	sort.Strings(missing)
	return missing
}
