package vcs

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	fdiff "github.com/go-git/go-git/v5/plumbing/format/diff"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/utils/merkletrie"
)

// ChangeType classifies a diff entry.
type ChangeType string

// Change types.
const (
	ChangeAdd    ChangeType = "ADD"
	ChangeModify ChangeType = "MODIFY"
	ChangeDelete ChangeType = "DELETE"
	ChangeRename ChangeType = "RENAME"
)

// DiffEntry is one changed path.
type DiffEntry struct {
	// Path is the path on the new side, or the old path for deletions.
	Path       string     `json:"path"`
	OldPath    string     `json:"oldPath,omitempty"`
	ChangeType ChangeType `json:"changeType"`
	Rendered   string     `json:"changes"`
}

// DiffRecord is the tree diff between two branch tips.
type DiffRecord struct {
	Source       string      `json:"sourceBranch"`
	Target       string      `json:"targetBranch"`
	SourceCommit string      `json:"sourceCommit"`
	TargetCommit string      `json:"targetCommit"`
	Entries      []DiffEntry `json:"entries"`
}

// ChangesCount is the number of changed paths, not lines.
func (d DiffRecord) ChangesCount() int {
	return len(d.Entries)
}

// Diff compares target (old side) to source (new side) with rename
// detection. The same commit pair always yields the same record.
func (s *Store) Diff(ctx context.Context, name, source, target string) (DiffRecord, error) {
	repo, err := s.Open(name)
	if err != nil {
		return DiffRecord{}, err
	}
	sourceHash, err := resolve(repo, source)
	if err != nil {
		return DiffRecord{}, err
	}
	targetHash, err := resolve(repo, target)
	if err != nil {
		return DiffRecord{}, err
	}

	oldTree, err := treeOf(repo, targetHash)
	if err != nil {
		return DiffRecord{}, err
	}
	newTree, err := treeOf(repo, sourceHash)
	if err != nil {
		return DiffRecord{}, err
	}

	changes, err := object.DiffTreeWithOptions(ctx, oldTree, newTree, object.DefaultDiffTreeOptions)
	if err != nil {
		return DiffRecord{}, fmt.Errorf("diff %s..%s in %s: %w", target, source, name, err)
	}

	entries := make([]DiffEntry, 0, len(changes))
	for _, change := range changes {
		entry, err := diffEntry(ctx, change)
		if err != nil {
			return DiffRecord{}, fmt.Errorf("diff %s..%s in %s: %w", target, source, name, err)
		}
		entries = append(entries, entry)
	}
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].Path < entries[j].Path })

	return DiffRecord{
		Source:       source,
		Target:       target,
		SourceCommit: sourceHash.String(),
		TargetCommit: targetHash.String(),
		Entries:      entries,
	}, nil
}

func treeOf(repo *git.Repository, hash plumbing.Hash) (*object.Tree, error) {
	commit, err := repo.CommitObject(hash)
	if err != nil {
		return nil, fmt.Errorf("read commit %s: %w", hash, err)
	}
	tree, err := commit.Tree()
	if err != nil {
		return nil, fmt.Errorf("read tree of %s: %w", hash, err)
	}
	return tree, nil
}

func diffEntry(ctx context.Context, change *object.Change) (DiffEntry, error) {
	action, err := change.Action()
	if err != nil {
		return DiffEntry{}, err
	}

	var entry DiffEntry
	switch {
	case action == merkletrie.Insert:
		entry = DiffEntry{Path: change.To.Name, ChangeType: ChangeAdd}
	case action == merkletrie.Delete:
		entry = DiffEntry{Path: change.From.Name, ChangeType: ChangeDelete}
	case change.From.Name != change.To.Name:
		entry = DiffEntry{Path: change.To.Name, OldPath: change.From.Name, ChangeType: ChangeRename}
	default:
		entry = DiffEntry{Path: change.To.Name, ChangeType: ChangeModify}
	}

	patch, err := change.PatchContext(ctx)
	if err != nil {
		return DiffEntry{}, err
	}
	entry.Rendered = RenderPatch(patch.FilePatches())
	return entry, nil
}

// RenderPatch flattens file patches into the display form: added lines
// become "++ <line>", removed lines "-- <line>", unchanged context and
// headers are dropped, every line is indented by four spaces and the
// result is trimmed.
func RenderPatch(patches []fdiff.FilePatch) string {
	var b strings.Builder
	for _, fp := range patches {
		for _, chunk := range fp.Chunks() {
			var prefix string
			switch chunk.Type() {
			case fdiff.Add:
				prefix = "++ "
			case fdiff.Delete:
				prefix = "-- "
			default:
				continue
			}
			for _, line := range splitLines(chunk.Content()) {
				b.WriteString("    ")
				b.WriteString(prefix)
				b.WriteString(line)
				b.WriteByte('\n')
			}
		}
	}
	return strings.TrimSpace(b.String())
}

func splitLines(content string) []string {
	if content == "" {
		return nil
	}
	return strings.Split(strings.TrimSuffix(content, "\n"), "\n")
}

// DisplayLocator builds the cosmetic file locator shown next to a modified
// file. It is not a usable path.
func DisplayLocator(label, repoName, path string) string {
	return fmt.Sprintf("%s/%s/%s", label, repoName, path)
}
