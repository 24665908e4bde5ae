package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/tedlabs/identity/internal/constants"
	"github.com/tedlabs/identity/pkg/redis"
)

type HealthHandler struct {
	db    *gorm.DB
	cache *redis.Client
}

func NewHealthHandler(db *gorm.DB, cache *redis.Client) *HealthHandler {
	return &HealthHandler{
		db:    db,
		cache: cache,
	}
}

// Health reports service and dependency status. A failing database makes the
// whole check fail; a failing cache only degrades.
func (h *HealthHandler) Health(c *gin.Context) {
	status := http.StatusOK
	checks := gin.H{
		"database": "ok",
		"cache":    "ok",
	}

	sqlDB, err := h.db.DB()
	if err != nil || sqlDB.PingContext(c.Request.Context()) != nil {
		checks["database"] = "unavailable"
		status = http.StatusServiceUnavailable
	}

	if !h.cache.IsEnabled() {
		checks["cache"] = "disabled"
	} else if err := h.cache.Ping(c.Request.Context()); err != nil {
		checks["cache"] = "unavailable"
	}

	c.JSON(status, gin.H{
		"service": constants.AppName,
		"version": constants.AppVersion,
		"checks":  checks,
	})
}
