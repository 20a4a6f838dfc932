package vcs

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
)

// ShortIDLength is the number of hex characters shown for commit ids.
const ShortIDLength = 7

// ShortID abbreviates a full commit hash.
func ShortID(hash string) string {
	if len(hash) <= ShortIDLength {
		return hash
	}
	return hash[:ShortIDLength]
}

// Branch is a branch name with its tip.
type Branch struct {
	Name     string `json:"name"`
	Ref      string `json:"ref"`
	CommitID string `json:"commitId"`
}

// ValidateBranchName rejects names git would refuse as refs/heads/<name>.
func ValidateBranchName(branch string) error {
	invalid := branch == "" ||
		strings.HasPrefix(branch, "-") ||
		strings.HasPrefix(branch, "/") ||
		strings.HasSuffix(branch, "/") ||
		strings.HasSuffix(branch, ".") ||
		strings.HasSuffix(branch, ".lock") ||
		strings.Contains(branch, "..") ||
		strings.Contains(branch, "//") ||
		strings.Contains(branch, "@{") ||
		strings.ContainsAny(branch, " ~^:?*[\\\x7f")
	if !invalid {
		for _, r := range branch {
			if r < 0x20 {
				invalid = true
				break
			}
		}
	}
	if invalid {
		return fmt.Errorf("%w: branch name %q", ErrInvalidName, branch)
	}
	return nil
}

// BranchExists reports whether any local or remote-tracking ref names the
// branch. Refs are matched on their trailing path so refs/heads/x and
// refs/remotes/origin/x both count.
func (s *Store) BranchExists(name, branch string) (bool, error) {
	repo, err := s.Open(name)
	if err != nil {
		return false, err
	}
	return branchExists(repo, branch)
}

func branchExists(repo *git.Repository, branch string) (bool, error) {
	refs, err := repo.References()
	if err != nil {
		return false, fmt.Errorf("list references: %w", err)
	}
	defer refs.Close()

	suffix := "/" + branch
	found := false
	err = refs.ForEach(func(ref *plumbing.Reference) error {
		n := ref.Name()
		if (n.IsBranch() || n.IsRemote()) && strings.HasSuffix(n.String(), suffix) {
			found = true
			return errStop
		}
		return nil
	})
	if err != nil && !errors.Is(err, errStop) {
		return false, fmt.Errorf("list references: %w", err)
	}
	return found, nil
}

var errStop = errors.New("stop")

// Resolve returns the commit at the tip of branch, looking at refs/heads
// first and refs/remotes/origin second.
func (s *Store) Resolve(name, branch string) (plumbing.Hash, error) {
	repo, err := s.Open(name)
	if err != nil {
		return plumbing.ZeroHash, err
	}
	return resolve(repo, branch)
}

func resolve(repo *git.Repository, branch string) (plumbing.Hash, error) {
	candidates := []plumbing.ReferenceName{
		plumbing.NewBranchReferenceName(branch),
		plumbing.NewRemoteReferenceName("origin", branch),
	}
	for _, refName := range candidates {
		ref, err := repo.Reference(refName, true)
		if errors.Is(err, plumbing.ErrReferenceNotFound) {
			continue
		}
		if err != nil {
			return plumbing.ZeroHash, fmt.Errorf("resolve %s: %w", refName, err)
		}
		if _, err := repo.CommitObject(ref.Hash()); err != nil {
			return plumbing.ZeroHash, fmt.Errorf("%w: %s", ErrUnresolvedRef, branch)
		}
		return ref.Hash(), nil
	}
	return plumbing.ZeroHash, fmt.Errorf("%w: %s", ErrUnresolvedRef, branch)
}

// Branches lists local branches sorted by name.
func (s *Store) Branches(name string) ([]Branch, error) {
	repo, err := s.Open(name)
	if err != nil {
		return nil, err
	}
	iter, err := repo.Branches()
	if err != nil {
		return nil, fmt.Errorf("list branches of %s: %w", name, err)
	}
	defer iter.Close()

	var branches []Branch
	err = iter.ForEach(func(ref *plumbing.Reference) error {
		branches = append(branches, Branch{
			Name:     ref.Name().Short(),
			Ref:      ref.Name().String(),
			CommitID: ShortID(ref.Hash().String()),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list branches of %s: %w", name, err)
	}
	sort.Slice(branches, func(i, j int) bool { return branches[i].Name < branches[j].Name })
	return branches, nil
}

// CreateBranch creates refs/heads/<branch> at the repository HEAD.
func (s *Store) CreateBranch(name, branch string) (Branch, error) {
	if err := ValidateBranchName(branch); err != nil {
		return Branch{}, err
	}
	repo, err := s.Open(name)
	if err != nil {
		return Branch{}, err
	}

	exists, err := branchExists(repo, branch)
	if err != nil {
		return Branch{}, err
	}
	if exists {
		return Branch{}, fmt.Errorf("%w: %s", ErrBranchExists, branch)
	}

	head, err := repo.Head()
	if err != nil {
		return Branch{}, fmt.Errorf("%w: HEAD of %s", ErrUnresolvedRef, name)
	}

	ref := plumbing.NewHashReference(plumbing.NewBranchReferenceName(branch), head.Hash())
	if err := repo.Storer.SetReference(ref); err != nil {
		return Branch{}, fmt.Errorf("create branch %s in %s: %w", branch, name, err)
	}
	return Branch{
		Name:     branch,
		Ref:      ref.Name().String(),
		CommitID: ShortID(head.Hash().String()),
	}, nil
}
