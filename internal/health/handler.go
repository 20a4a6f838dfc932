// Package health provides health check endpoint handler.
package health

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/festy23/codeshelf/internal/database/database"
)

// Handler handles health check requests.
type Handler struct {
	db     *gorm.DB
	redis  redis.UniversalClient
	logger *zap.SugaredLogger
}

// New creates a new health handler instance. redisClient may be nil.
func New(db *gorm.DB, redisClient redis.UniversalClient, logger *zap.SugaredLogger) *Handler {
	return &Handler{
		db:     db,
		redis:  redisClient,
		logger: logger,
	}
}

// Response represents health check response.
type Response struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// Check handles GET /health request.
func (h *Handler) Check(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	resp := Response{Status: "ok", Checks: map[string]string{}}

	if err := database.HealthCheck(ctx, h.db); err != nil {
		h.logger.Warnw("health check failed", "dependency", "database", "error", err)
		resp.Status = "unhealthy"
		resp.Checks["database"] = "down"
	} else {
		resp.Checks["database"] = "up"
	}

	if h.redis != nil {
		if err := h.redis.Ping(ctx).Err(); err != nil {
			h.logger.Warnw("health check failed", "dependency", "redis", "error", err)
			resp.Status = "unhealthy"
			resp.Checks["redis"] = "down"
		} else {
			resp.Checks["redis"] = "up"
		}
	}

	status := http.StatusOK
	if resp.Status != "ok" {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, resp)
}
