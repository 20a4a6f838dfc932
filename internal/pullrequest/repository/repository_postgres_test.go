//go:build integration

package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
	postgresDriver "gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/festy23/codeshelf/internal/database/migrate"
	pullrequestModel "github.com/festy23/codeshelf/internal/pullrequest/model"
	"github.com/festy23/codeshelf/migrations"
)

func setupPostgres(t *testing.T) *gorm.DB {
	t.Helper()
	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("codeshelf"),
		postgres.WithUsername("codeshelf"),
		postgres.WithPassword("codeshelf"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err, "failed to start PostgreSQL container")
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := gorm.Open(postgresDriver.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, migrate.Migrate(db, migrations.FS))
	// applying twice is a no-op
	require.NoError(t, migrate.Migrate(db, migrations.FS))
	return db
}

func TestRepository_Postgres(t *testing.T) {
	ctx := context.Background()
	db := setupPostgres(t)
	repo := New(db, zap.NewNop().Sugar())

	pr := newPR("demo", "b.txt", "a.txt")
	require.NoError(t, repo.Create(ctx, pr))
	require.NoError(t, repo.SetLink(ctx, pr.ID, "https://codeshelf.com/project-GIT/demo/pull_request/1"))

	got, err := repo.GetByID(ctx, pr.ID)
	require.NoError(t, err)
	require.Len(t, got.ModifiedFiles, 2)
	assert.Equal(t, "b.txt", got.ModifiedFiles[0].FileName)
	assert.Equal(t, "a.txt", got.ModifiedFiles[1].FileName)
	require.NotNil(t, got.PullRequestLink)

	require.NoError(t, repo.UpdateStatus(ctx, pr.ID, pullrequestModel.StatusMerged, time.Now().UTC()))
	merged, err := repo.CountByStatus(ctx, pullrequestModel.StatusMerged)
	require.NoError(t, err)
	assert.Equal(t, int64(1), merged)

	err = repo.UpdateStatus(ctx, pr.ID, "Bogus", time.Now().UTC())
	assert.Error(t, err, "status check constraint")

	require.NoError(t, db.Exec("DELETE FROM pull_requests WHERE id = ?", pr.ID).Error)
	var files int64
	require.NoError(t, db.Model(&pullrequestModel.ModifiedFile{}).Count(&files).Error)
	assert.Equal(t, int64(0), files, "modified files cascade")
}
