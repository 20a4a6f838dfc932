// Package handler provides HTTP handlers for repository endpoints.
package handler

import (
	"errors"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	repoModel "github.com/festy23/codeshelf/internal/repo/model"
	"github.com/festy23/codeshelf/internal/repo/service"
)

// Handler handles HTTP requests for repository endpoints.
type Handler struct {
	service service.Service
	logger  *zap.SugaredLogger
}

// New creates a new repository handler instance.
func New(svc service.Service, logger *zap.SugaredLogger) *Handler {
	return &Handler{service: svc, logger: logger}
}

// CreateRepository handles POST /git/create request.
// @Summary Create a bare repository seeded with a README
// @Tags Repositories
// @Accept json
// @Produce json
// @Param request body repoModel.CreateRepositoryRequest true "Request"
// @Success 201 {object} repoModel.CreateRepositoryResponse
// @Failure 400 {object} ErrorResponse "INVALID_REQUEST"
// @Failure 409 {object} ErrorResponse "REPO_EXISTS"
// @Failure 423 {object} ErrorResponse "LOCK_TIMEOUT"
// @Router /git/create [post] //nolint:godot // Swagger annotation should not end with period
func (h *Handler) CreateRepository(c *gin.Context) {
	var req repoModel.CreateRepositoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, "INVALID_REQUEST", "invalid request body", http.StatusBadRequest)
		return
	}

	resp, err := h.service.Create(c.Request.Context(), &req)
	if err != nil {
		respondError(c, h.logger, "creating repository", err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// AddFiles handles POST /git/add request.
// @Summary Commit an inline file and/or uploads onto a branch
// @Tags Repositories
// @Accept multipart/form-data
// @Produce json
// @Param repoName formData string true "Repository"
// @Param branchName formData string true "Branch"
// @Param fileName formData string false "Inline file path"
// @Param fileContent formData string false "Inline file content"
// @Param files formData file false "Uploaded files"
// @Param commitMessage formData string true "Commit message"
// @Success 200 {object} workspace.Status
// @Failure 400 {object} ErrorResponse "INVALID_REQUEST"
// @Failure 404 {object} ErrorResponse "NOT_FOUND"
// @Failure 423 {object} ErrorResponse "LOCK_TIMEOUT"
// @Router /git/add [post] //nolint:godot // Swagger annotation should not end with period
func (h *Handler) AddFiles(c *gin.Context) {
	// parse the body before PostForm so an oversized upload is reported
	form, err := c.MultipartForm()
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		errorResponse(c, "INVALID_REQUEST", "upload too large", http.StatusRequestEntityTooLarge)
		return
	}

	req := repoModel.AddFilesRequest{
		RepoName:      c.PostForm("repoName"),
		BranchName:    c.PostForm("branchName"),
		FileName:      c.PostForm("fileName"),
		FileContent:   c.PostForm("fileContent"),
		CommitMessage: c.PostForm("commitMessage"),
	}

	if err == nil {
		headers := form.File["files"]
		files, err := openUploads(headers)
		defer closeAll(files)
		if err != nil {
			errorResponse(c, "INVALID_REQUEST", "unreadable upload", http.StatusBadRequest)
			return
		}
		for i, fh := range headers {
			req.Files = append(req.Files, repoModel.Upload{Name: fh.Filename, Content: files[i]})
		}
	}

	status, err := h.service.AddFiles(c.Request.Context(), &req)
	if err != nil {
		respondError(c, h.logger, "adding files", err)
		return
	}

	c.JSON(http.StatusOK, status)
}

func openUploads(headers []*multipart.FileHeader) ([]multipart.File, error) {
	files := make([]multipart.File, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			return files, err
		}
		files = append(files, f)
	}
	return files, nil
}

func closeAll(files []multipart.File) {
	for _, f := range files {
		_ = f.Close()
	}
}

// CommitLog handles GET /git/commit/log request.
// @Summary Branch history, newest first
// @Tags Repositories
// @Produce json
// @Param repoName query string true "Repository"
// @Param branchName query string true "Branch"
// @Success 200 {array} vcs.Commit
// @Failure 404 {object} ErrorResponse "NOT_FOUND"
// @Router /git/commit/log [get] //nolint:godot // Swagger annotation should not end with period
func (h *Handler) CommitLog(c *gin.Context) {
	commits, err := h.service.CommitLog(c.Request.Context(), c.Query("repoName"), c.Query("branchName"))
	if err != nil {
		respondError(c, h.logger, "reading commit log", err)
		return
	}

	c.JSON(http.StatusOK, commits)
}

// CreateBranch handles POST /git/branch request.
// @Summary Create a branch at HEAD
// @Tags Repositories
// @Accept json
// @Produce json
// @Param request body repoModel.CreateBranchRequest true "Request"
// @Success 201 {object} vcs.Branch
// @Failure 409 {object} ErrorResponse "BRANCH_EXISTS"
// @Router /git/branch [post] //nolint:godot // Swagger annotation should not end with period
func (h *Handler) CreateBranch(c *gin.Context) {
	var req repoModel.CreateBranchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, "INVALID_REQUEST", "invalid request body", http.StatusBadRequest)
		return
	}

	branch, err := h.service.CreateBranch(c.Request.Context(), &req)
	if err != nil {
		respondError(c, h.logger, "creating branch", err)
		return
	}

	c.JSON(http.StatusCreated, branch)
}

// Branches handles GET /git/branches request.
func (h *Handler) Branches(c *gin.Context) {
	branches, err := h.service.Branches(c.Request.Context(), c.Query("repoName"))
	if err != nil {
		respondError(c, h.logger, "listing branches", err)
		return
	}

	c.JSON(http.StatusOK, branches)
}

// Repositories handles GET /git/allRepository request.
func (h *Handler) Repositories(c *gin.Context) {
	names, err := h.service.Repositories(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, "listing repositories", err)
		return
	}

	c.JSON(http.StatusOK, names)
}

// URL handles GET /git/url request.
func (h *Handler) URL(c *gin.Context) {
	resp, err := h.service.URL(c.Request.Context(), c.Query("repoName"))
	if err != nil {
		respondError(c, h.logger, "resolving repository url", err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// Files handles GET /git/files request.
func (h *Handler) Files(c *gin.Context) {
	files, err := h.service.Files(c.Request.Context(), c.Query("repoName"), c.Query("branchName"))
	if err != nil {
		respondError(c, h.logger, "reading files", err)
		return
	}

	c.JSON(http.StatusOK, files)
}
