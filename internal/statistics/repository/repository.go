// Package repository provides data access layer for statistics module.
package repository

import (
	"context"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/festy23/codeshelf/internal/statistics/model"
)

// Repository defines the interface for statistics data access operations.
type Repository interface {
	// GetRepositoriesStatistics returns pull request counters per repository.
	GetRepositoriesStatistics(ctx context.Context) ([]model.RepositoryStatistics, error)

	// GetPullRequestStatistics returns statistics for pull requests.
	GetPullRequestStatistics(ctx context.Context) (*model.PullRequestStatistics, error)
}

type repository struct {
	db     *gorm.DB
	logger *zap.SugaredLogger
}

// New creates a new statistics repository instance.
func New(db *gorm.DB, logger *zap.SugaredLogger) Repository {
	return &repository{
		db:     db,
		logger: logger,
	}
}

// GetRepositoriesStatistics returns pull request counters per repository,
// busiest first.
func (r *repository) GetRepositoriesStatistics(ctx context.Context) ([]model.RepositoryStatistics, error) {
	r.logger.Debugw("GetRepositoriesStatistics called")

	var stats []model.RepositoryStatistics

	err := r.db.WithContext(ctx).
		Table("pull_requests").
		Select(`
			repo_name,
			COUNT(*) as pull_request_count,
			COALESCE(SUM(CASE WHEN status = 'Open' THEN 1 ELSE 0 END), 0) as open_count,
			COALESCE(SUM(CASE WHEN status = 'Merged' THEN 1 ELSE 0 END), 0) as merged_count
		`).
		Group("repo_name").
		Order("pull_request_count DESC, repo_name ASC").
		Scan(&stats).Error

	if err != nil {
		r.logger.Errorw("GetRepositoriesStatistics database error", "error", err)
		return nil, err
	}

	if stats == nil {
		stats = []model.RepositoryStatistics{}
	}

	r.logger.Debugw("GetRepositoriesStatistics completed", "count", len(stats))
	return stats, nil
}

// GetPullRequestStatistics returns statistics for pull requests.
func (r *repository) GetPullRequestStatistics(ctx context.Context) (*model.PullRequestStatistics, error) {
	r.logger.Debugw("GetPullRequestStatistics called")

	var result struct {
		TotalPRs             int64   `gorm:"column:total_prs"`
		LinkedPRs            int64   `gorm:"column:linked_prs"`
		OpenPRs              int64   `gorm:"column:open_prs"`
		MergedPRs            int64   `gorm:"column:merged_prs"`
		ClosedPRs            int64   `gorm:"column:closed_prs"`
		AverageModifiedFiles float64 `gorm:"column:avg_files"`
		PRsWithoutChanges    int64   `gorm:"column:prs_without_changes"`
	}

	err := r.db.WithContext(ctx).
		Table("pull_requests").
		Select(`
			COUNT(*) as total_prs,
			COALESCE(SUM(CASE WHEN pull_request_link IS NOT NULL THEN 1 ELSE 0 END), 0) as linked_prs,
			COALESCE(SUM(CASE WHEN status = 'Open' THEN 1 ELSE 0 END), 0) as open_prs,
			COALESCE(SUM(CASE WHEN status = 'Merged' THEN 1 ELSE 0 END), 0) as merged_prs,
			COALESCE(SUM(CASE WHEN status = 'Closed' THEN 1 ELSE 0 END), 0) as closed_prs,
			COALESCE(AVG(COALESCE(file_counts.file_count, 0)), 0) as avg_files,
			COALESCE(SUM(CASE WHEN COALESCE(file_counts.file_count, 0) = 0 THEN 1 ELSE 0 END), 0) as prs_without_changes
		`).
		Joins(`
			LEFT JOIN (
				SELECT pull_request_id, CAST(COUNT(*) AS REAL) as file_count
				FROM modified_files
				GROUP BY pull_request_id
			) file_counts ON pull_requests.id = file_counts.pull_request_id
		`).
		Scan(&result).Error

	if err != nil {
		r.logger.Errorw("GetPullRequestStatistics database error", "error", err)
		return nil, err
	}

	stats := &model.PullRequestStatistics{
		TotalPRs:             int(result.TotalPRs),
		LinkedPRs:            int(result.LinkedPRs),
		OpenPRs:              int(result.OpenPRs),
		MergedPRs:            int(result.MergedPRs),
		ClosedPRs:            int(result.ClosedPRs),
		AverageModifiedFiles: result.AverageModifiedFiles,
		PRsWithoutChanges:    int(result.PRsWithoutChanges),
	}

	r.logger.Debugw("GetPullRequestStatistics completed", "total_prs", stats.TotalPRs)
	return stats, nil
}
