// Package handler provides HTTP handlers for statistics endpoints.
package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/festy23/codeshelf/internal/statistics/service"
)

// ErrorResponse is the error envelope of the statistics endpoints.
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// ErrorBody is a machine readable code with a message.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Handler handles HTTP requests for statistics endpoints.
type Handler struct {
	service service.Service
	logger  *zap.SugaredLogger
}

// New creates a new statistics handler instance.
func New(svc service.Service, logger *zap.SugaredLogger) *Handler {
	return &Handler{service: svc, logger: logger}
}

// GetRepositoriesStatistics handles GET /statistics/repositories request.
// @Summary Get pull request counters per repository
// @Tags Statistics
// @Produce json
// @Success 200 {object} model.RepositoriesStatisticsResponse
// @Failure 500 {object} ErrorResponse
// @Failure 503 {object} ErrorResponse "aggregation timed out"
// @Router /statistics/repositories [get] //nolint:godot // Swagger annotation should not end with period
func (h *Handler) GetRepositoriesStatistics(c *gin.Context) {
	resp, err := h.service.GetRepositoriesStatistics(c.Request.Context())
	if err != nil {
		h.fail(c, "getting repositories statistics", err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// GetPullRequestStatistics handles GET /statistics/pullrequests request.
// @Summary Get statistics for pull requests
// @Tags Statistics
// @Produce json
// @Success 200 {object} model.PullRequestStatisticsResponse
// @Failure 500 {object} ErrorResponse
// @Failure 503 {object} ErrorResponse "aggregation timed out"
// @Router /statistics/pullrequests [get] //nolint:godot // Swagger annotation should not end with period
func (h *Handler) GetPullRequestStatistics(c *gin.Context) {
	resp, err := h.service.GetPullRequestStatistics(c.Request.Context())
	if err != nil {
		h.fail(c, "getting pull request statistics", err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// fail writes the error envelope. Aggregations that ran out of time are
// reported as 503 so callers may retry.
func (h *Handler) fail(c *gin.Context, op string, err error) {
	if errors.Is(err, context.DeadlineExceeded) {
		h.logger.Warnw("timed out "+op, "error", err)
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: ErrorBody{
			Code:    "UNAVAILABLE",
			Message: "statistics are taking too long, try again later",
		}})
		return
	}

	h.logger.Errorw("error "+op, "error", err)
	c.JSON(http.StatusInternalServerError, ErrorResponse{Error: ErrorBody{
		Code:    "INTERNAL_ERROR",
		Message: "internal server error",
	}})
}
