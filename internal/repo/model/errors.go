package model

import "errors"

var (
	// ErrInvalidRepoName indicates an empty or unstorable repository name.
	ErrInvalidRepoName = errors.New("invalid repository name")
	// ErrInvalidBranchName indicates an empty or malformed branch name.
	ErrInvalidBranchName = errors.New("invalid branch name")
	// ErrInvalidCommitMessage indicates an empty commit message.
	ErrInvalidCommitMessage = errors.New("commit message is required")
	// ErrNoFiles indicates an add request carrying neither inline content nor uploads.
	ErrNoFiles = errors.New("no files to add")
)
