// Package model provides data transfer objects and domain models for the pullrequest module.
package model

import (
	"time"

	"github.com/festy23/codeshelf/internal/conflict"
	"github.com/festy23/codeshelf/internal/merge"
)

// CreatePullRequestRequest represents the request to create a pull request.
type CreatePullRequestRequest struct {
	RepoName     string `json:"repoName"`
	Title        string `json:"title"`
	Description  string `json:"description"`
	SourceBranch string `json:"sourceBranch"`
	TargetBranch string `json:"targetBranch"`
}

// CreatePullRequestResponse is the creation report.
type CreatePullRequestResponse struct {
	PullRequest *PullRequest `json:"pullRequest"`
	// ConflictingFiles lists MODIFY and DELETE entries. It is a heuristic,
	// not the result of a trial merge.
	ConflictingFiles    []string `json:"conflictingFiles"`
	CommitCount         int      `json:"commitCount"`
	OverallChangesCount int      `json:"overallChangesCount"`
	Summary             string   `json:"summary"`
}

// PullRequestSummary is one row of the pull request listing.
type PullRequestSummary struct {
	ID              int64  `json:"id"`
	PullRequestLink string `json:"pullRequestLink"`
	Title           string `json:"title"`
	AuthorName      string `json:"authorName"`
	RepoName        string `json:"repoName"`
	SourceBranch    string `json:"sourceBranch"`
	TargetBranch    string `json:"targetBranch"`
	Status          string `json:"status"`
	CreatedHours    string `json:"createdHours"`
}

// ListPullRequestsResponse is the listing with its aggregate counters.
type ListPullRequestsResponse struct {
	PullRequests       []PullRequestSummary `json:"pullRequests"`
	OverallPRCount     int64                `json:"overallPRCount"`
	OverallOpenCount   int64                `json:"overallOpenCount"`
	OverallClosedCount int64                `json:"overallClosedCount"`
}

// MergePullRequestRequest represents the request to merge a pull request.
type MergePullRequestRequest struct {
	ID int64 `json:"id"`
}

// MergePullRequestResponse is the merge report.
type MergePullRequestResponse struct {
	ID           int64             `json:"id"`
	Merged       bool              `json:"merged"`
	Status       string            `json:"status"`
	CommitID     string            `json:"commitId,omitempty"`
	SourceBranch string            `json:"sourceBranch"`
	TargetBranch string            `json:"targetBranch"`
	Message      string            `json:"message"`
	Conflicts    []conflict.Record `json:"conflictFiles,omitempty"`
	UpdatedAt    *time.Time        `json:"updatedAt,omitempty"`
}

// BranchPair selects the two sides of a comparison.
type BranchPair struct {
	RepoName     string `form:"repoName"     json:"repoName"`
	SourceBranch string `form:"sourceBranch" json:"sourceBranch"`
	TargetBranch string `form:"targetBranch" json:"targetBranch"`
}

// ConflictsResponse is the trial merge report.
type ConflictsResponse struct {
	Message       string            `json:"message"`
	Status        string            `json:"status"`
	ConflictFiles []conflict.Record `json:"conflictFiles"`
}

// ResolveRequest carries the resolved content of every conflicted file.
type ResolveRequest struct {
	BranchPair
	ResolvedFiles []merge.ResolvedFile `json:"resolvedFiles"`
}

// ResolveResponse reports the resolution commit.
type ResolveResponse struct {
	Message  string `json:"message"`
	CommitID string `json:"commitId"`
}
