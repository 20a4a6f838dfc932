package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/festy23/codeshelf/internal/lock"
	repoModel "github.com/festy23/codeshelf/internal/repo/model"
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

func errorResponse(c *gin.Context, code string, message string, statusCode int) {
	resp := ErrorResponse{}
	resp.Error.Code = code
	resp.Error.Message = message
	c.JSON(statusCode, resp)
}

// respondError maps domain errors onto the error envelope. Unknown errors
// are logged and hidden behind INTERNAL_ERROR.
func respondError(c *gin.Context, logger *zap.SugaredLogger, op string, err error) {
	switch {
	case errors.Is(err, repoModel.ErrInvalidRepoName),
		errors.Is(err, repoModel.ErrInvalidBranchName),
		errors.Is(err, repoModel.ErrInvalidCommitMessage),
		errors.Is(err, repoModel.ErrNoFiles),
		errors.Is(err, vcs.ErrInvalidName),
		errors.Is(err, workspace.ErrPathOutsideWorkspace):
		errorResponse(c, "INVALID_REQUEST", err.Error(), http.StatusBadRequest)
	case errors.Is(err, vcs.ErrRepositoryNotFound),
		errors.Is(err, vcs.ErrBranchNotFound),
		errors.Is(err, vcs.ErrUnresolvedRef):
		errorResponse(c, "NOT_FOUND", err.Error(), http.StatusNotFound)
	case errors.Is(err, vcs.ErrRepositoryExists):
		errorResponse(c, "REPO_EXISTS", err.Error(), http.StatusConflict)
	case errors.Is(err, vcs.ErrBranchExists):
		errorResponse(c, "BRANCH_EXISTS", err.Error(), http.StatusConflict)
	case errors.Is(err, workspace.ErrPushRejected):
		errorResponse(c, "CONFLICT", "branch moved while the change was prepared, retry", http.StatusConflict)
	case errors.Is(err, lock.ErrLockTimeout):
		errorResponse(c, "LOCK_TIMEOUT", "repository is busy, try again later", http.StatusLocked)
	default:
		logger.Errorw("error "+op, "error", err)
		errorResponse(c, "INTERNAL_ERROR", "internal server error", http.StatusInternalServerError)
	}
}
