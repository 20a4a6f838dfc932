package model

import "errors"

var (
	// ErrPullRequestNotFound indicates that the requested pull request does not exist.
	ErrPullRequestNotFound = errors.New("pull request not found")
	// ErrPullRequestMerged indicates that the pull request is already merged.
	ErrPullRequestMerged = errors.New("pull request is already merged")
	// ErrSameBranch indicates identical source and target branches.
	ErrSameBranch = errors.New("source branch and target branch must be different")
	// ErrInvalidTitle indicates an empty title.
	ErrInvalidTitle = errors.New("title is required")
	// ErrInvalidRepoName indicates an empty repository name.
	ErrInvalidRepoName = errors.New("repoName is required")
	// ErrInvalidBranchName indicates an empty source or target branch.
	ErrInvalidBranchName = errors.New("sourceBranch and targetBranch are required")
	// ErrInvalidPullRequestID indicates a non-positive id.
	ErrInvalidPullRequestID = errors.New("invalid pull request id")
)
