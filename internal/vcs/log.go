package vcs

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// Commit is one entry of a branch history.
type Commit struct {
	ID      string    `json:"commitId"`
	Author  string    `json:"author"`
	Email   string    `json:"email"`
	Date    time.Time `json:"date"`
	Message string    `json:"message"`
}

// File is a blob at a branch tip.
type File struct {
	Path    string `json:"path"`
	Content string `json:"content"`
	Binary  bool   `json:"binary"`
}

// Log returns the history reachable from branch, newest first.
func (s *Store) Log(name, branch string) ([]Commit, error) {
	repo, err := s.Open(name)
	if err != nil {
		return nil, err
	}
	hash, err := resolve(repo, branch)
	if err != nil {
		return nil, err
	}

	iter, err := repo.Log(&git.LogOptions{From: hash})
	if err != nil {
		return nil, fmt.Errorf("log %s@%s: %w", name, branch, err)
	}
	defer iter.Close()

	var commits []Commit
	err = iter.ForEach(func(c *object.Commit) error {
		commits = append(commits, Commit{
			ID:      ShortID(c.Hash.String()),
			Author:  c.Author.Name,
			Email:   c.Author.Email,
			Date:    c.Author.When,
			Message: c.Message,
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("log %s@%s: %w", name, branch, err)
	}
	return commits, nil
}

// CommitCount counts every commit reachable from refs/heads/<branch>.
// This is the full history, not the commits ahead of some other branch.
func (s *Store) CommitCount(name, branch string) (int, error) {
	repo, err := s.Open(name)
	if err != nil {
		return 0, err
	}
	ref, err := repo.Reference(plumbing.NewBranchReferenceName(branch), true)
	if err != nil {
		return 0, fmt.Errorf("%w: %s", ErrUnresolvedRef, branch)
	}

	iter, err := repo.Log(&git.LogOptions{From: ref.Hash()})
	if err != nil {
		return 0, fmt.Errorf("count commits %s@%s: %w", name, branch, err)
	}
	defer iter.Close()

	count := 0
	for {
		_, err := iter.Next()
		if errors.Is(err, io.EOF) {
			return count, nil
		}
		if err != nil {
			return 0, fmt.Errorf("count commits %s@%s: %w", name, branch, err)
		}
		count++
	}
}

// Files returns every blob at the tip of branch in tree order.
func (s *Store) Files(name, branch string) ([]File, error) {
	repo, err := s.Open(name)
	if err != nil {
		return nil, err
	}
	hash, err := resolve(repo, branch)
	if err != nil {
		return nil, err
	}
	commit, err := repo.CommitObject(hash)
	if err != nil {
		return nil, fmt.Errorf("read commit %s: %w", hash, err)
	}

	iter, err := commit.Files()
	if err != nil {
		return nil, fmt.Errorf("read tree of %s@%s: %w", name, branch, err)
	}
	defer iter.Close()

	var files []File
	err = iter.ForEach(func(f *object.File) error {
		binary, err := f.IsBinary()
		if err != nil {
			return err
		}
		file := File{Path: f.Name, Binary: binary}
		if !binary {
			if file.Content, err = f.Contents(); err != nil {
				return err
			}
		}
		files = append(files, file)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("read tree of %s@%s: %w", name, branch, err)
	}
	return files, nil
}
