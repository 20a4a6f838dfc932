// Package vcs gives read access to the bare repositories on disk through
// go-git: branch resolution, commit history, trees and tree-to-tree diffs.
// Mutations go through internal/workspace instead.
package vcs

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
)

const repoSuffix = ".git"

// Store maps repository names to bare repositories under a base directory.
type Store struct {
	baseDir       string
	defaultBranch string
}

// NewStore creates a store rooted at baseDir, creating the directory if needed.
func NewStore(baseDir, defaultBranch string) (*Store, error) {
	abs, err := filepath.Abs(baseDir)
	if err != nil {
		return nil, fmt.Errorf("resolve base dir %s: %w", baseDir, err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("create base dir %s: %w", abs, err)
	}
	return &Store{baseDir: abs, defaultBranch: defaultBranch}, nil
}

// DefaultBranch returns the branch new repositories start on.
func (s *Store) DefaultBranch() string {
	return s.defaultBranch
}

// Normalize strips a trailing .git suffix and validates the result.
func Normalize(name string) (string, error) {
	name = strings.TrimSuffix(strings.TrimSpace(name), repoSuffix)
	switch {
	case name == "", name == ".", name == "..":
		return "", fmt.Errorf("%w: repository name %q", ErrInvalidName, name)
	case strings.ContainsAny(name, `/\:`+"\x00"):
		return "", fmt.Errorf("%w: repository name %q contains a path separator", ErrInvalidName, name)
	case strings.HasPrefix(name, "-"), strings.HasPrefix(name, "."):
		return "", fmt.Errorf("%w: repository name %q", ErrInvalidName, name)
	}
	return name, nil
}

// Path returns <base>/<name>.git.
func (s *Store) Path(name string) (string, error) {
	name, err := Normalize(name)
	if err != nil {
		return "", err
	}
	return filepath.Join(s.baseDir, name+repoSuffix), nil
}

// Exists reports whether the repository directory exists.
func (s *Store) Exists(name string) (bool, error) {
	path, err := s.Path(name)
	if err != nil {
		return false, err
	}
	info, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("stat repository %s: %w", name, err)
	}
	return info.IsDir(), nil
}

// URL returns a file:// URL usable as a clone source.
func (s *Store) URL(name string) (string, error) {
	path, err := s.existingPath(name)
	if err != nil {
		return "", err
	}
	return "file://" + filepath.ToSlash(path), nil
}

// List returns the names of all repositories, sorted.
func (s *Store) List() ([]string, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		return nil, fmt.Errorf("list repositories: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() && strings.HasSuffix(e.Name(), repoSuffix) {
			names = append(names, strings.TrimSuffix(e.Name(), repoSuffix))
		}
	}
	sort.Strings(names)
	return names, nil
}

// Init creates an empty bare repository whose HEAD points at the default branch.
func (s *Store) Init(name string) (string, error) {
	path, err := s.Path(name)
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(path); err == nil {
		return "", fmt.Errorf("%w: %s", ErrRepositoryExists, name)
	}

	_, err = git.PlainInitWithOptions(path, &git.PlainInitOptions{
		Bare: true,
		InitOptions: git.InitOptions{
			DefaultBranch: plumbing.NewBranchReferenceName(s.defaultBranch),
		},
	})
	if err != nil {
		_ = os.RemoveAll(path)
		return "", fmt.Errorf("init repository %s: %w", name, err)
	}
	return path, nil
}

// Locate returns the on-disk path of an existing repository.
func (s *Store) Locate(name string) (string, error) {
	return s.existingPath(name)
}

// Open opens the bare repository for reading.
func (s *Store) Open(name string) (*git.Repository, error) {
	path, err := s.existingPath(name)
	if err != nil {
		return nil, err
	}
	repo, err := git.PlainOpen(path)
	if err != nil {
		return nil, fmt.Errorf("open repository %s: %w", name, err)
	}
	return repo, nil
}

func (s *Store) existingPath(name string) (string, error) {
	ok, err := s.Exists(name)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrRepositoryNotFound, name)
	}
	return s.Path(name)
}
