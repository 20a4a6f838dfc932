// Package router provides pullrequest module routes registration.
package router

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/festy23/codeshelf/internal/config"
	"github.com/festy23/codeshelf/internal/lock"
	"github.com/festy23/codeshelf/internal/pullrequest/handler"
	"github.com/festy23/codeshelf/internal/pullrequest/repository"
	"github.com/festy23/codeshelf/internal/pullrequest/service"
	"github.com/festy23/codeshelf/internal/vcs"
)

// RegisterRoutes registers pullrequest module routes.
func RegisterRoutes(
	r gin.IRouter,
	db *gorm.DB,
	store *vcs.Store,
	detector service.ConflictDetector,
	merger service.Merger,
	locker lock.Locker,
	display config.DisplayConfig,
	logger *zap.SugaredLogger,
) {
	repo := repository.New(db, logger)
	svc := service.New(repo, db, store, detector, merger, locker, display, logger)
	h := handler.New(svc, logger)

	g := r.Group("/git")
	g.POST("/pullRequest", h.CreatePullRequest)
	g.GET("/pullRequest/urls", h.ListPullRequests)
	g.GET("/pullRequest/:id", h.GetPullRequest)
	g.POST("/merge", h.MergePullRequest)
	g.GET("/conflictContent", h.ConflictContent)
	g.POST("/resolvedChanges/commits", h.ResolveConflicts)
	g.GET("/fileChanges", h.FileChanges)
}
