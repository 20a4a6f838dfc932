// Package service provides business logic layer for statistics module.
package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/festy23/codeshelf/internal/statistics/model"
	"github.com/festy23/codeshelf/internal/statistics/repository"
)

// queryTimeout caps a single aggregation.
const queryTimeout = 10 * time.Second

// Service defines the interface for statistics business logic operations.
type Service interface {
	// GetRepositoriesStatistics returns pull request counters per repository.
	GetRepositoriesStatistics(ctx context.Context) (*model.RepositoriesStatisticsResponse, error)

	// GetPullRequestStatistics returns statistics for pull requests.
	GetPullRequestStatistics(ctx context.Context) (*model.PullRequestStatisticsResponse, error)
}

type service struct {
	repo   repository.Repository
	logger *zap.SugaredLogger
}

// New creates a new statistics service instance.
func New(repo repository.Repository, logger *zap.SugaredLogger) Service {
	return &service{
		repo:   repo,
		logger: logger,
	}
}

// GetRepositoriesStatistics returns pull request counters per repository.
func (s *service) GetRepositoriesStatistics(ctx context.Context) (*model.RepositoriesStatisticsResponse, error) {
	s.logger.Debugw("GetRepositoriesStatistics called")
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	repos, err := s.repo.GetRepositoriesStatistics(ctx)
	if err != nil {
		s.logger.Errorw("GetRepositoriesStatistics failed", "error", err)
		return nil, err
	}

	if repos == nil {
		repos = []model.RepositoryStatistics{}
	}

	s.logger.Infow("GetRepositoriesStatistics completed", "count", len(repos))
	return &model.RepositoriesStatisticsResponse{
		Repositories: repos,
		Total:        len(repos),
	}, nil
}

// GetPullRequestStatistics returns statistics for pull requests.
func (s *service) GetPullRequestStatistics(ctx context.Context) (*model.PullRequestStatisticsResponse, error) {
	s.logger.Debugw("GetPullRequestStatistics called")
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	stats, err := s.repo.GetPullRequestStatistics(ctx)
	if err != nil {
		s.logger.Errorw("GetPullRequestStatistics failed", "error", err)
		return nil, err
	}

	s.logger.Infow("GetPullRequestStatistics completed", "total_prs", stats.TotalPRs)
	return &model.PullRequestStatisticsResponse{
		Statistics: *stats,
	}, nil
}
