//go:build unit

package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	pullrequestModel "github.com/festy23/codeshelf/internal/pullrequest/model"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(&pullrequestModel.PullRequest{}, &pullrequestModel.ModifiedFile{}))
	return db
}

func insertPR(t *testing.T, db *gorm.DB, repo, status string, linked bool, files ...string) {
	t.Helper()
	pr := &pullrequestModel.PullRequest{
		Title:        "pr",
		AuthorName:   "Anonymous",
		RepoName:     repo,
		SourceBranch: "feature",
		TargetBranch: "master",
		Status:       status,
	}
	if linked {
		link := "https://codeshelf.com/project-GIT/" + repo + "/pull_request/x"
		pr.PullRequestLink = &link
	}
	for _, f := range files {
		pr.ModifiedFiles = append(pr.ModifiedFiles, pullrequestModel.ModifiedFile{FileName: f})
	}
	require.NoError(t, db.Create(pr).Error)
}

func TestGetRepositoriesStatistics(t *testing.T) {
	db := setupTestDB(t)
	logger := zap.NewNop().Sugar()
	repo := New(db, logger)
	ctx := context.Background()

	t.Run("empty database", func(t *testing.T) {
		stats, err := repo.GetRepositoriesStatistics(ctx)
		require.NoError(t, err)
		assert.NotNil(t, stats)
		assert.Empty(t, stats)
	})

	t.Run("grouped by repository", func(t *testing.T) {
		insertPR(t, db, "beta", pullrequestModel.StatusOpen, true)
		insertPR(t, db, "alpha", pullrequestModel.StatusOpen, true)
		insertPR(t, db, "alpha", pullrequestModel.StatusMerged, true)

		stats, err := repo.GetRepositoriesStatistics(ctx)
		require.NoError(t, err)
		require.Len(t, stats, 2)

		assert.Equal(t, "alpha", stats[0].RepoName)
		assert.Equal(t, 2, stats[0].PullRequestCount)
		assert.Equal(t, 1, stats[0].OpenCount)
		assert.Equal(t, 1, stats[0].MergedCount)
		assert.Equal(t, "beta", stats[1].RepoName)
	})
}

func TestGetPullRequestStatistics(t *testing.T) {
	db := setupTestDB(t)
	logger := zap.NewNop().Sugar()
	repo := New(db, logger)
	ctx := context.Background()

	t.Run("empty database", func(t *testing.T) {
		stats, err := repo.GetPullRequestStatistics(ctx)
		require.NoError(t, err)
		assert.NotNil(t, stats)
		assert.Equal(t, 0, stats.TotalPRs)
		assert.Equal(t, 0, stats.OpenPRs)
		assert.Zero(t, stats.AverageModifiedFiles)
	})

	t.Run("with PRs", func(t *testing.T) {
		insertPR(t, db, "demo", pullrequestModel.StatusOpen, true, "a.txt", "b.txt")
		insertPR(t, db, "demo", pullrequestModel.StatusMerged, true, "c.txt")
		insertPR(t, db, "demo", pullrequestModel.StatusClosed, false)

		stats, err := repo.GetPullRequestStatistics(ctx)
		require.NoError(t, err)
		assert.Equal(t, 3, stats.TotalPRs)
		assert.Equal(t, 2, stats.LinkedPRs)
		assert.Equal(t, 1, stats.OpenPRs)
		assert.Equal(t, 1, stats.MergedPRs)
		assert.Equal(t, 1, stats.ClosedPRs)
		assert.InDelta(t, 1.0, stats.AverageModifiedFiles, 0.001)
		assert.Equal(t, 1, stats.PRsWithoutChanges)
	})
}
