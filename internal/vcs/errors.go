package vcs

import "errors"

var (
	// ErrInvalidName is returned for repository or branch names that cannot be stored.
	ErrInvalidName = errors.New("invalid name")
	// ErrRepositoryNotFound is returned when the bare repository does not exist.
	ErrRepositoryNotFound = errors.New("repository does not exist")
	// ErrRepositoryExists is returned when creating a repository that already exists.
	ErrRepositoryExists = errors.New("repository already exists")
	// ErrBranchNotFound is returned when a branch is missing locally and on origin.
	ErrBranchNotFound = errors.New("branch does not exist")
	// ErrBranchExists is returned when creating a branch that already exists.
	ErrBranchExists = errors.New("branch already exists")
	// ErrUnresolvedRef is returned when a branch has no commits or does not exist.
	ErrUnresolvedRef = errors.New("branch name(s) with zero commits")
)
