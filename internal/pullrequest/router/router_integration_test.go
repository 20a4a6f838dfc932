package router

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/festy23/codeshelf/internal/config"
	"github.com/festy23/codeshelf/internal/conflict"
	"github.com/festy23/codeshelf/internal/gitcli"
	"github.com/festy23/codeshelf/internal/lock"
	"github.com/festy23/codeshelf/internal/merge"
	pullrequestModel "github.com/festy23/codeshelf/internal/pullrequest/model"
	"github.com/festy23/codeshelf/internal/testutil"
	"github.com/festy23/codeshelf/internal/vcs"
	"github.com/festy23/codeshelf/internal/workspace"
)

// ErrorResponse represents error response structure.
type ErrorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func setupIntegrationDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(&pullrequestModel.PullRequest{}, &pullrequestModel.ModifiedFile{}))
	return db
}

func setupIntegrationRouter(t *testing.T) (*gin.Engine, string) {
	t.Helper()
	testutil.RequireGit(t)
	gin.SetMode(gin.TestMode)

	log := zap.NewNop().Sugar()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	locks := lock.New(rdb, config.LockConfig{
		TTL:           30 * time.Second,
		WaitTimeout:   time.Second,
		RetryInterval: 10 * time.Millisecond,
		Prefix:        "lock:",
	}, nil, log)

	baseDir := t.TempDir()
	store, err := vcs.NewStore(baseDir, "master")
	require.NoError(t, err)

	runner := gitcli.New(config.StorageConfig{
		GitBinary:      "git",
		CommandTimeout: time.Minute,
		AuthorName:     "codeshelf",
		AuthorEmail:    "codeshelf@localhost",
	}, log)
	workspaces := workspace.NewManager(runner, t.TempDir(), nil, log)

	r := gin.New()
	RegisterRoutes(r, setupIntegrationDB(t), store,
		conflict.NewDetector(workspaces, log),
		merge.NewExecutor(workspaces, nil, log),
		locks,
		config.DisplayConfig{ProjectLabel: "project-GIT", PublicBaseURL: "https://codeshelf.com", DefaultAuthor: "Anonymous"},
		log,
	)
	return r, baseDir
}

func request(t *testing.T, r http.Handler, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestPullRequestLifecycle(t *testing.T) {
	r, baseDir := setupIntegrationRouter(t)

	bare := testutil.NewBareRepo(t, baseDir, "demo", "master", map[string]string{"a.txt": "alpha\n"})
	testutil.Commit(t, bare, testutil.Change{
		Branch: "feature",
		Base:   "master",
		Files:  map[string]string{"b.txt": "beta\n"},
	})

	w := request(t, r, http.MethodGet, "/git/fileChanges?repoName=demo&sourceBranch=feature&targetBranch=master", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"fileName":"b.txt"`)

	w = request(t, r, http.MethodPost, "/git/pullRequest", pullrequestModel.CreatePullRequestRequest{
		RepoName: "demo", Title: "Add beta", SourceBranch: "feature", TargetBranch: "master",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created pullrequestModel.CreatePullRequestResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	id := created.PullRequest.ID
	require.NotZero(t, id)

	w = request(t, r, http.MethodGet, "/git/pullRequest/urls", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list pullrequestModel.ListPullRequestsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Equal(t, int64(1), list.OverallOpenCount)

	w = request(t, r, http.MethodGet, "/git/conflictContent?repoName=demo&sourceBranch=feature&targetBranch=master", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), conflict.MessageClean)

	w = request(t, r, http.MethodPost, "/git/merge", pullrequestModel.MergePullRequestRequest{ID: id})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var merged pullrequestModel.MergePullRequestResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &merged))
	assert.True(t, merged.Merged)
	assert.Equal(t, pullrequestModel.StatusMerged, merged.Status)
	assert.Equal(t, "beta\n", testutil.ReadBranchFile(t, bare, "master", "b.txt"))

	w = request(t, r, http.MethodGet, "/git/pullRequest/1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"Merged"`)

	w = request(t, r, http.MethodPost, "/git/merge", pullrequestModel.MergePullRequestRequest{ID: id})
	assert.Equal(t, http.StatusConflict, w.Code)
	var errResp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &errResp))
	assert.Equal(t, "PR_MERGED", errResp.Error.Code)
}

func TestPullRequestConflictResolution(t *testing.T) {
	r, baseDir := setupIntegrationRouter(t)

	bare := testutil.NewBareRepo(t, baseDir, "demo", "master", map[string]string{"a.txt": "alpha\n"})
	testutil.Commit(t, bare, testutil.Change{Branch: "feature", Base: "master", Files: map[string]string{"a.txt": "feature\n"}})
	testutil.Commit(t, bare, testutil.Change{Branch: "master", Files: map[string]string{"a.txt": "master\n"}})

	w := request(t, r, http.MethodGet, "/git/conflictContent?repoName=demo&sourceBranch=feature&targetBranch=master", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var conflicts pullrequestModel.ConflictsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &conflicts))
	assert.Equal(t, conflict.MessageConflicting, conflicts.Message)
	require.Len(t, conflicts.ConflictFiles, 1)

	w = request(t, r, http.MethodPost, "/git/resolvedChanges/commits", map[string]any{
		"repoName":      "demo",
		"sourceBranch":  "feature",
		"targetBranch":  "master",
		"resolvedFiles": []map[string]string{{"fileName": "a.txt", "resolvedContent": "<<<<<<< master\n"}},
	})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = request(t, r, http.MethodPost, "/git/resolvedChanges/commits", map[string]any{
		"repoName":      "demo",
		"sourceBranch":  "feature",
		"targetBranch":  "master",
		"resolvedFiles": []map[string]string{{"fileName": "a.txt", "resolvedContent": "both\n"}},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "both\n", testutil.ReadBranchFile(t, bare, "master", "a.txt"))

	w = request(t, r, http.MethodGet, "/git/pullRequest/abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = request(t, r, http.MethodGet, "/git/pullRequest/99", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
