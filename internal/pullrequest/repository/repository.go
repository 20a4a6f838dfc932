// Package repository provides data access layer for pullrequest module.
package repository

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	pullrequestModel "github.com/festy23/codeshelf/internal/pullrequest/model"
)

// Repository defines the interface for pullrequest data access operations.
type Repository interface {
	// Create inserts a pull request together with its modified files.
	Create(ctx context.Context, pr *pullrequestModel.PullRequest) error

	// SetLink stores the derived pull request link without touching updated_at.
	SetLink(ctx context.Context, id int64, link string) error

	// GetByID finds a pull request with its modified files in position order.
	GetByID(ctx context.Context, id int64) (*pullrequestModel.PullRequest, error)

	// List returns every pull request ordered by id.
	List(ctx context.Context) ([]pullrequestModel.PullRequest, error)

	// UpdateStatus sets status and updated_at.
	UpdateStatus(ctx context.Context, id int64, status string, updatedAt time.Time) error

	// CountWithLink counts pull requests whose link is set.
	CountWithLink(ctx context.Context) (int64, error)

	// CountByStatus counts pull requests in status.
	CountByStatus(ctx context.Context, status string) (int64, error)
}

type repository struct {
	db     *gorm.DB
	logger *zap.SugaredLogger
}

// New creates a new pullrequest repository instance.
func New(db *gorm.DB, logger *zap.SugaredLogger) Repository {
	return &repository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a pull request together with its modified files.
func (r *repository) Create(ctx context.Context, pr *pullrequestModel.PullRequest) error {
	for i := range pr.ModifiedFiles {
		pr.ModifiedFiles[i].Position = i
	}
	if err := r.db.WithContext(ctx).Create(pr).Error; err != nil {
		r.logger.Errorw("failed to insert pull request", "repo", pr.RepoName, "error", err)
		return err
	}
	return nil
}

// SetLink stores the derived pull request link.
func (r *repository) SetLink(ctx context.Context, id int64, link string) error {
	result := r.db.WithContext(ctx).
		Model(&pullrequestModel.PullRequest{}).
		Where("id = ?", id).
		UpdateColumn("pull_request_link", link)

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pullrequestModel.ErrPullRequestNotFound
	}
	return nil
}

// GetByID finds a pull request by id.
func (r *repository) GetByID(ctx context.Context, id int64) (*pullrequestModel.PullRequest, error) {
	var pr pullrequestModel.PullRequest
	err := r.db.WithContext(ctx).
		Preload("ModifiedFiles", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Where("id = ?", id).
		First(&pr).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pullrequestModel.ErrPullRequestNotFound
		}
		return nil, err
	}

	return &pr, nil
}

// List returns every pull request ordered by id.
func (r *repository) List(ctx context.Context) ([]pullrequestModel.PullRequest, error) {
	var prs []pullrequestModel.PullRequest
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&prs).Error; err != nil {
		return nil, err
	}
	if prs == nil {
		prs = []pullrequestModel.PullRequest{}
	}
	return prs, nil
}

// UpdateStatus sets status and updated_at.
func (r *repository) UpdateStatus(ctx context.Context, id int64, status string, updatedAt time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&pullrequestModel.PullRequest{}).
		Where("id = ?", id).
		UpdateColumns(map[string]interface{}{
			"status":     status,
			"updated_at": updatedAt,
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pullrequestModel.ErrPullRequestNotFound
	}
	return nil
}

// CountWithLink counts pull requests whose link is set.
func (r *repository) CountWithLink(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&pullrequestModel.PullRequest{}).
		Where("pull_request_link IS NOT NULL").
		Count(&count).Error
	return count, err
}

// CountByStatus counts pull requests in status.
func (r *repository) CountByStatus(ctx context.Context, status string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&pullrequestModel.PullRequest{}).
		Where("status = ?", status).
		Count(&count).Error
	return count, err
}
