package workspace

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

// Status is the consolidated working tree status captured before a commit.
type Status struct {
	Untracked        []string `json:"untracked"`
	UntrackedFolders []string `json:"untrackedFolders"`
	Added            []string `json:"added"`
	Changed          []string `json:"changed"`
	Missing          []string `json:"missing"`
	Modified         []string `json:"modified"`
	Removed          []string `json:"removed"`
}

// IsClean reports whether every set is empty.
func (s Status) IsClean() bool {
	return len(s.Untracked)+len(s.UntrackedFolders)+len(s.Added)+len(s.Changed)+
		len(s.Missing)+len(s.Modified)+len(s.Removed) == 0
}

// Status reads `git status --porcelain=v1 -z`.
func (w *Workspace) Status(ctx context.Context) (Status, error) {
	out, err := w.run(ctx, "status", "--porcelain=v1", "-z", "--untracked-files=normal")
	if err != nil {
		return Status{}, fmt.Errorf("status: %w", err)
	}
	return ParseStatus(string(out)), nil
}

type pathSet map[string]struct{}

func (p pathSet) add(path string) { p[path] = struct{}{} }

func (p pathSet) sorted() []string {
	out := make([]string, 0, len(p))
	for k := range p {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// ParseStatus maps porcelain v1 -z records onto Status. Unmerged entries
// are ignored. Each set is deduplicated and sorted.
func ParseStatus(raw string) Status {
	var (
		untracked        = pathSet{}
		untrackedFolders = pathSet{}
		added            = pathSet{}
		changed          = pathSet{}
		missing          = pathSet{}
		modified         = pathSet{}
		removed          = pathSet{}
	)

	fields := strings.Split(raw, "\x00")
	for i := 0; i < len(fields); i++ {
		rec := fields[i]
		if len(rec) < 4 {
			continue
		}
		x, y, path := rec[0], rec[1], rec[3:]

		if x == '?' && y == '?' {
			if strings.HasSuffix(path, "/") {
				untrackedFolders.add(strings.TrimSuffix(path, "/"))
			} else {
				untracked.add(path)
			}
			continue
		}
		if x == '!' || isUnmerged(x, y) {
			continue
		}

		switch x {
		case 'A', 'C':
			added.add(path)
		case 'M', 'T':
			changed.add(path)
		case 'D':
			removed.add(path)
		case 'R':
			added.add(path)
		}
		if x == 'R' || x == 'C' {
			// the source path follows as its own field
			i++
			if x == 'R' && i < len(fields) && fields[i] != "" {
				removed.add(fields[i])
			}
		}

		switch y {
		case 'M', 'T':
			modified.add(path)
		case 'D':
			missing.add(path)
		}
	}

	return Status{
		Untracked:        untracked.sorted(),
		UntrackedFolders: untrackedFolders.sorted(),
		Added:            added.sorted(),
		Changed:          changed.sorted(),
		Missing:          missing.sorted(),
		Modified:         modified.sorted(),
		Removed:          removed.sorted(),
	}
}

func isUnmerged(x, y byte) bool {
	return x == 'U' || y == 'U' || (x == 'A' && y == 'A') || (x == 'D' && y == 'D')
}
