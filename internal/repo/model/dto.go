// Package model contains request and response types of the repository module.
package model

import (
	"io"
)

// CreateRepositoryRequest represents request body for POST /git/create.
type CreateRepositoryRequest struct {
	RepoName    string `json:"repoName"`
	Description string `json:"description"`
}

// CreateRepositoryResponse represents a freshly created repository.
type CreateRepositoryResponse struct {
	RepoName      string `json:"repoName"`
	DefaultBranch string `json:"defaultBranch"`
	CommitID      string `json:"commitId"`
	URL           string `json:"url"`
	Message       string `json:"message"`
}

// Upload is one file of a multipart add request.
type Upload struct {
	// Name is the path of the file inside the repository.
	Name    string
	Content io.Reader
}

// AddFilesRequest describes one add-and-commit operation.
type AddFilesRequest struct {
	RepoName   string
	BranchName string
	// FileName and FileContent describe an optional inline file.
	FileName      string
	FileContent   string
	Files         []Upload
	CommitMessage string
}

// CreateBranchRequest represents request body for POST /git/branch.
type CreateBranchRequest struct {
	RepoName   string `json:"repoName"`
	BranchName string `json:"branchName"`
}

// URLResponse represents response for GET /git/url.
type URLResponse struct {
	RepoName string `json:"repoName"`
	URL      string `json:"url"`
}
