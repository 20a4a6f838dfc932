// Package router provides repository module routes registration.
package router

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/festy23/codeshelf/internal/lock"
	"github.com/festy23/codeshelf/internal/repo/handler"
	"github.com/festy23/codeshelf/internal/repo/service"
	"github.com/festy23/codeshelf/internal/vcs"
	"github.com/festy23/codeshelf/internal/workspace"
)

// RegisterRoutes registers repository module routes.
func RegisterRoutes(r gin.IRouter, store *vcs.Store, workspaces *workspace.Manager, locker lock.Locker, logger *zap.SugaredLogger) {
	svc := service.New(store, workspaces, locker, logger)
	h := handler.New(svc, logger)

	g := r.Group("/git")
	g.POST("/create", h.CreateRepository)
	g.POST("/add", h.AddFiles)
	g.GET("/commit/log", h.CommitLog)
	g.POST("/branch", h.CreateBranch)
	g.GET("/branches", h.Branches)
	g.GET("/allRepository", h.Repositories)
	g.GET("/url", h.URL)
	g.GET("/files", h.Files)
}
