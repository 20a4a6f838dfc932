// Package handler provides HTTP handlers for pullrequest endpoints.
package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	pullrequestModel "github.com/festy23/codeshelf/internal/pullrequest/model"
	"github.com/festy23/codeshelf/internal/pullrequest/service"
)

// Handler handles HTTP requests for pullrequest endpoints.
type Handler struct {
	service service.Service
	logger  *zap.SugaredLogger
}

// New creates a new pullrequest handler instance.
func New(svc service.Service, logger *zap.SugaredLogger) *Handler {
	return &Handler{service: svc, logger: logger}
}

// CreatePullRequest handles POST /git/pullRequest request.
// @Summary Open a pull request between two branches
// @Tags PullRequests
// @Accept json
// @Produce json
// @Param request body pullrequestModel.CreatePullRequestRequest true "Request"
// @Success 201 {object} pullrequestModel.CreatePullRequestResponse
// @Failure 400 {object} ErrorResponse "INVALID_REQUEST"
// @Failure 404 {object} ErrorResponse "Repository or branch not found"
// @Failure 500 {object} ErrorResponse "Internal server error"
// @Router /git/pullRequest [post] //nolint:godot // Swagger annotation should not end with period
func (h *Handler) CreatePullRequest(c *gin.Context) {
	var req pullrequestModel.CreatePullRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, "INVALID_REQUEST", "invalid request body", http.StatusBadRequest)
		return
	}

	resp, err := h.service.Create(c.Request.Context(), &req)
	if err != nil {
		respondError(c, h.logger, "creating pull request", err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// ListPullRequests handles GET /git/pullRequest/urls request.
// @Summary List pull requests with aggregate counters
// @Tags PullRequests
// @Produce json
// @Success 200 {object} pullrequestModel.ListPullRequestsResponse
// @Failure 500 {object} ErrorResponse "Internal server error"
// @Router /git/pullRequest/urls [get] //nolint:godot // Swagger annotation should not end with period
func (h *Handler) ListPullRequests(c *gin.Context) {
	resp, err := h.service.List(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, "listing pull requests", err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// GetPullRequest handles GET /git/pullRequest/:id request.
// @Summary Get one pull request with its modified files
// @Tags PullRequests
// @Produce json
// @Param id path int true "Pull request id"
// @Success 200 {object} pullrequestModel.PullRequest
// @Failure 400 {object} ErrorResponse "INVALID_REQUEST"
// @Failure 404 {object} ErrorResponse "NOT_FOUND"
// @Router /git/pullRequest/{id} [get] //nolint:godot // Swagger annotation should not end with period
func (h *Handler) GetPullRequest(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		errorResponse(c, "INVALID_REQUEST", "id must be an integer", http.StatusBadRequest)
		return
	}

	pr, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, "getting pull request", err)
		return
	}

	c.JSON(http.StatusOK, pr)
}

// MergePullRequest handles POST /git/merge request.
// @Summary Merge an open pull request into its target branch
// @Tags PullRequests
// @Accept json
// @Produce json
// @Param request body pullrequestModel.MergePullRequestRequest true "Request"
// @Success 200 {object} pullrequestModel.MergePullRequestResponse "Merged, or stopped on conflicts"
// @Failure 400 {object} ErrorResponse "INVALID_REQUEST"
// @Failure 404 {object} ErrorResponse "NOT_FOUND"
// @Failure 409 {object} ErrorResponse "PR_MERGED"
// @Failure 423 {object} ErrorResponse "LOCK_TIMEOUT"
// @Router /git/merge [post] //nolint:godot // Swagger annotation should not end with period
func (h *Handler) MergePullRequest(c *gin.Context) {
	var req pullrequestModel.MergePullRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, "INVALID_REQUEST", "invalid request body", http.StatusBadRequest)
		return
	}

	resp, err := h.service.Merge(c.Request.Context(), &req)
	if err != nil {
		respondError(c, h.logger, "merging pull request", err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// ConflictContent handles GET /git/conflictContent request.
// @Summary Trial-merge two branches and report annotated conflicts
// @Tags PullRequests
// @Produce json
// @Param repoName query string true "Repository"
// @Param sourceBranch query string true "Source branch"
// @Param targetBranch query string true "Target branch"
// @Success 200 {object} pullrequestModel.ConflictsResponse
// @Failure 400 {object} ErrorResponse "INVALID_REQUEST"
// @Failure 404 {object} ErrorResponse "NOT_FOUND"
// @Router /git/conflictContent [get] //nolint:godot // Swagger annotation should not end with period
func (h *Handler) ConflictContent(c *gin.Context) {
	var pair pullrequestModel.BranchPair
	if err := c.ShouldBindQuery(&pair); err != nil {
		errorResponse(c, "INVALID_REQUEST", "invalid query", http.StatusBadRequest)
		return
	}

	resp, err := h.service.Conflicts(c.Request.Context(), &pair)
	if err != nil {
		respondError(c, h.logger, "detecting conflicts", err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// ResolveConflicts handles POST /git/resolvedChanges/commits request.
// @Summary Commit resolved conflict content onto the target branch
// @Tags PullRequests
// @Accept json
// @Produce json
// @Param request body pullrequestModel.ResolveRequest true "Request"
// @Success 200 {object} pullrequestModel.ResolveResponse
// @Failure 400 {object} ErrorResponse "INVALID_REQUEST"
// @Failure 409 {object} ErrorResponse "MERGE_CONFLICT or NO_CONFLICTS"
// @Failure 423 {object} ErrorResponse "LOCK_TIMEOUT"
// @Router /git/resolvedChanges/commits [post] //nolint:godot // Swagger annotation should not end with period
func (h *Handler) ResolveConflicts(c *gin.Context) {
	var req pullrequestModel.ResolveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, "INVALID_REQUEST", "invalid request body", http.StatusBadRequest)
		return
	}

	resp, err := h.service.Resolve(c.Request.Context(), &req)
	if err != nil {
		respondError(c, h.logger, "resolving conflicts", err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// FileChanges handles GET /git/fileChanges request.
// @Summary Diff two branches without opening a pull request
// @Tags PullRequests
// @Produce json
// @Param repoName query string true "Repository"
// @Param sourceBranch query string true "Source branch"
// @Param targetBranch query string true "Target branch"
// @Success 200 {array} pullrequestModel.ModifiedFile
// @Failure 400 {object} ErrorResponse "INVALID_REQUEST"
// @Failure 404 {object} ErrorResponse "NOT_FOUND"
// @Router /git/fileChanges [get] //nolint:godot // Swagger annotation should not end with period
func (h *Handler) FileChanges(c *gin.Context) {
	var pair pullrequestModel.BranchPair
	if err := c.ShouldBindQuery(&pair); err != nil {
		errorResponse(c, "INVALID_REQUEST", "invalid query", http.StatusBadRequest)
		return
	}

	files, err := h.service.FileChanges(c.Request.Context(), &pair)
	if err != nil {
		respondError(c, h.logger, "diffing branches", err)
		return
	}

	c.JSON(http.StatusOK, files)
}
