package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/festy23/codeshelf/internal/statistics/model"
	"github.com/festy23/codeshelf/internal/statistics/service"
)

// mockService is a mock implementation of service.Service for unit tests.
type mockService struct {
	mock.Mock
}

func (m *mockService) GetRepositoriesStatistics(ctx context.Context) (*model.RepositoriesStatisticsResponse, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.RepositoriesStatisticsResponse), args.Error(1)
}

func (m *mockService) GetPullRequestStatistics(ctx context.Context) (*model.PullRequestStatisticsResponse, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.PullRequestStatisticsResponse), args.Error(1)
}

var _ service.Service = (*mockService)(nil)

func setupRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	return gin.New()
}

func TestHandler_GetRepositoriesStatistics(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		mockSvc := new(mockService)
		handler := New(mockSvc, zap.NewNop().Sugar())
		router := setupRouter()
		router.GET("/statistics/repositories", handler.GetRepositoriesStatistics)

		mockSvc.On("GetRepositoriesStatistics", mock.Anything).Return(&model.RepositoriesStatisticsResponse{
			Repositories: []model.RepositoryStatistics{
				{RepoName: "demo", PullRequestCount: 3, OpenCount: 1, MergedCount: 2},
			},
			Total: 1,
		}, nil)

		req := httptest.NewRequest(http.MethodGet, "/statistics/repositories", nil)
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{
			"repositories": [{"repo_name": "demo", "pull_request_count": 3, "open_count": 1, "merged_count": 2}],
			"total": 1
		}`, w.Body.String())
		mockSvc.AssertExpectations(t)
	})

	t.Run("service error", func(t *testing.T) {
		mockSvc := new(mockService)
		handler := New(mockSvc, zap.NewNop().Sugar())
		router := setupRouter()
		router.GET("/statistics/repositories", handler.GetRepositoriesStatistics)

		mockSvc.On("GetRepositoriesStatistics", mock.Anything).Return(nil, errors.New("database error"))

		req := httptest.NewRequest(http.MethodGet, "/statistics/repositories", nil)
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		var errorResp ErrorResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &errorResp))
		assert.Equal(t, "INTERNAL_ERROR", errorResp.Error.Code)
		assert.Equal(t, "internal server error", errorResp.Error.Message)
	})
}

func TestHandler_GetPullRequestStatistics(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		mockSvc := new(mockService)
		handler := New(mockSvc, zap.NewNop().Sugar())
		router := setupRouter()
		router.GET("/statistics/pullrequests", handler.GetPullRequestStatistics)

		mockSvc.On("GetPullRequestStatistics", mock.Anything).Return(&model.PullRequestStatisticsResponse{
			Statistics: model.PullRequestStatistics{
				TotalPRs:             10,
				LinkedPRs:            10,
				OpenPRs:              7,
				MergedPRs:            2,
				ClosedPRs:            1,
				AverageModifiedFiles: 1.5,
				PRsWithoutChanges:    2,
			},
		}, nil)

		req := httptest.NewRequest(http.MethodGet, "/statistics/pullrequests", nil)
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		var resp model.PullRequestStatisticsResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, 10, resp.Statistics.TotalPRs)
		assert.Equal(t, 7, resp.Statistics.OpenPRs)
		assert.Equal(t, 1, resp.Statistics.ClosedPRs)
		assert.Equal(t, 1.5, resp.Statistics.AverageModifiedFiles)
		mockSvc.AssertExpectations(t)
	})

	t.Run("service error", func(t *testing.T) {
		mockSvc := new(mockService)
		handler := New(mockSvc, zap.NewNop().Sugar())
		router := setupRouter()
		router.GET("/statistics/pullrequests", handler.GetPullRequestStatistics)

		mockSvc.On("GetPullRequestStatistics", mock.Anything).Return(nil, errors.New("database error"))

		req := httptest.NewRequest(http.MethodGet, "/statistics/pullrequests", nil)
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		mockSvc.AssertExpectations(t)
	})

	t.Run("aggregation timeout", func(t *testing.T) {
		mockSvc := new(mockService)
		handler := New(mockSvc, zap.NewNop().Sugar())
		router := setupRouter()
		router.GET("/statistics/pullrequests", handler.GetPullRequestStatistics)

		mockSvc.On("GetPullRequestStatistics", mock.Anything).
			Return(nil, fmt.Errorf("count pull requests: %w", context.DeadlineExceeded))

		req := httptest.NewRequest(http.MethodGet, "/statistics/pullrequests", nil)
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		var errorResp ErrorResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &errorResp))
		assert.Equal(t, "UNAVAILABLE", errorResp.Error.Code)
		mockSvc.AssertExpectations(t)
	})
}
