package conflict

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/festy23/codeshelf/internal/vcs"
	"github.com/festy23/codeshelf/internal/workspace"
)

// annotateWorkers bounds the per-file annotation fan-out.
const annotateWorkers = 4

// Messages reported alongside an Outcome.
const (
	MessageConflicting = "Conflict occurs. Resolve conflict changes to merge this PR request."
	MessageClean       = "No conflict found. Ready to merge."
)

// Tree is the part of a workspace Collect reads from.
type Tree interface {
	ConflictedPaths(ctx context.Context) ([]string, error)
	ReadFile(rel string) ([]byte, error)
}

// Outcome is the result of a trial merge.
type Outcome struct {
	Status  workspace.MergeStatus `json:"status"`
	Message string                `json:"message"`
	Records []Record              `json:"conflictFiles,omitempty"`
}

// Conflicting reports whether the trial merge stopped on conflicts.
func (o *Outcome) Conflicting() bool {
	return o.Status == workspace.MergeConflicting
}

// Collect builds one annotated record per conflicted path in tree, ordered
// by path. A conflicted path absent from the tree yields an empty record.
func Collect(ctx context.Context, tree Tree, source, target string) ([]Record, error) {
	paths, err := tree.ConflictedPaths(ctx)
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)

	records := make([]Record, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(annotateWorkers)
	for i, path := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			data, err := tree.ReadFile(path)
			if errors.Is(err, os.ErrNotExist) {
				// deleted on both sides or renamed away; there is nothing to annotate
				records[i] = Record{FilePath: path, MarkerRanges: []Range{}}
				return nil
			}
			if err != nil {
				return fmt.Errorf("read conflicted file %s: %w", path, err)
			}
			lines, ranges := ExtractRanges(string(data))
			records[i] = Record{
				FilePath:         path,
				MarkerRanges:     ranges,
				AnnotatedContent: Annotate(lines, ranges, target, source),
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return records, nil
}

// Detector performs trial merges in throwaway workspaces.
type Detector struct {
	workspaces *workspace.Manager
	logger     *zap.SugaredLogger
}

// NewDetector creates a Detector.
func NewDetector(workspaces *workspace.Manager, logger *zap.SugaredLogger) *Detector {
	return &Detector{
		workspaces: workspaces,
		logger:     logger,
	}
}

// TryMerge merges origin/<source> into target in a fresh clone of repoPath
// without committing, collects conflicts and discards the clone. The bare
// repository is never modified.
func (d *Detector) TryMerge(ctx context.Context, repoPath, source, target string) (*Outcome, error) {
	var outcome *Outcome
	err := d.workspaces.With(ctx, repoPath, func(ws *workspace.Workspace) error {
		status, err := Trial(ctx, ws, source, target)
		if err != nil {
			return err
		}
		outcome = &Outcome{Status: status, Message: MessageClean}
		if status != workspace.MergeConflicting {
			return nil
		}
		records, err := Collect(ctx, ws, source, target)
		if err != nil {
			return err
		}
		outcome.Message = MessageConflicting
		outcome.Records = records
		return nil
	})
	if err != nil {
		return nil, err
	}

	d.logger.Debugw("trial merge finished",
		"source", source,
		"target", target,
		"status", outcome.Status,
		"conflicts", len(outcome.Records),
	)
	return outcome, nil
}

// Trial checks out target in ws and merges origin/<source> into it without
// committing.
func Trial(ctx context.Context, ws *workspace.Workspace, source, target string) (workspace.MergeStatus, error) {
	if err := ws.Checkout(ctx, target); err != nil {
		return "", err
	}
	if !ws.RemoteBranchExists(ctx, source) {
		return "", fmt.Errorf("%w: %s", vcs.ErrBranchNotFound, source)
	}
	return ws.Merge(ctx, "origin/"+source)
}
