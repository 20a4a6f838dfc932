// Package model provides data transfer objects for statistics module.
package model

// RepositoryStatistics represents pull request counters of one repository.
type RepositoryStatistics struct {
	RepoName         string `json:"repo_name"`
	PullRequestCount int    `json:"pull_request_count"`
	OpenCount        int    `json:"open_count"`
	MergedCount      int    `json:"merged_count"`
}

// RepositoriesStatisticsResponse represents response for repositories statistics.
type RepositoriesStatisticsResponse struct {
	Repositories []RepositoryStatistics `json:"repositories"`
	Total        int                    `json:"total"`
}

// PullRequestStatistics represents statistics for pull requests.
type PullRequestStatistics struct {
	TotalPRs             int     `json:"total_prs"`
	LinkedPRs            int     `json:"linked_prs"`
	OpenPRs              int     `json:"open_prs"`
	MergedPRs            int     `json:"merged_prs"`
	ClosedPRs            int     `json:"closed_prs"`
	AverageModifiedFiles float64 `json:"average_modified_files"`
	PRsWithoutChanges    int     `json:"prs_without_changes"`
}

// PullRequestStatisticsResponse represents response for pull request statistics.
type PullRequestStatisticsResponse struct {
	Statistics PullRequestStatistics `json:"statistics"`
}
