package model

import (
	"time"
)

// Pull request statuses. Closed is never entered by this service.
const (
	StatusOpen   = "Open"
	StatusMerged = "Merged"
	StatusClosed = "Closed"
)

// PullRequest represents a pull request entity in the system.
// Matches the pull_requests table schema.
type PullRequest struct {
	ID              int64          `gorm:"primaryKey;column:id;autoIncrement"                         json:"id"`
	Title           string         `gorm:"column:title;type:varchar(255);not null"                    json:"title"`
	Description     string         `gorm:"column:description;type:text;not null;default:''"           json:"description"`
	AuthorName      string         `gorm:"column:author_name;type:varchar(255);not null"              json:"authorName"`
	RepoName        string         `gorm:"column:repo_name;type:varchar(255);not null;index"          json:"repoName"`
	SourceBranch    string         `gorm:"column:source_branch;type:varchar(255);not null"            json:"sourceBranch"`
	TargetBranch    string         `gorm:"column:target_branch;type:varchar(255);not null"            json:"targetBranch"`
	Status          string         `gorm:"column:status;type:varchar(16);not null;default:'Open';index" json:"status"`
	PullRequestLink *string        `gorm:"column:pull_request_link;type:text"                         json:"pullRequestLink,omitempty"`
	CreatedAt       time.Time      `gorm:"column:created_at;not null"                                 json:"createdAt"`
	UpdatedAt       time.Time      `gorm:"column:updated_at;not null"                                 json:"updatedAt"`
	ModifiedFiles   []ModifiedFile `gorm:"foreignKey:PullRequestID;constraint:OnDelete:CASCADE"        json:"modifiedFiles"`
}

// TableName specifies the table name for GORM.
func (PullRequest) TableName() string {
	return "pull_requests"
}

// IsMerged reports whether the pull request reached the Merged state.
func (p *PullRequest) IsMerged() bool {
	return p.Status == StatusMerged
}

// ModifiedFile is one diff entry recorded at pull request creation.
// Matches the modified_files table schema.
type ModifiedFile struct {
	ID            int64  `gorm:"primaryKey;column:id;autoIncrement"      json:"-"`
	PullRequestID int64  `gorm:"column:pull_request_id;not null;index"   json:"-"`
	Position      int    `gorm:"column:position;not null;default:0"      json:"-"`
	FileName      string `gorm:"column:file_name;type:text;not null"     json:"fileName"`
	Changes       string `gorm:"column:changes;type:text;not null"       json:"changes"`
	FileURL       string `gorm:"column:file_url;type:text;not null"      json:"fileUrl"`
}

// TableName specifies the table name for GORM.
func (ModifiedFile) TableName() string {
	return "modified_files"
}
