package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"linkpulse/internal/dto"
)

// CacheStatus 见 cache.Breaker
type CacheStatus interface {
	Tripped() bool
}

type HealthHandler struct {
	db          *gorm.DB
	cache       CacheStatus
	cacheDriver string
}

func NewHealthHandler(db *gorm.DB, cache CacheStatus, cacheDriver string) *HealthHandler {
	return &HealthHandler{db: db, cache: cache, cacheDriver: cacheDriver}
}

// Check GET /healthz。数据库不可用时返回 503；缓存降级不影响可用性。
func (h *HealthHandler) Check(c *gin.Context) {
	resp := dto.HealthResponse{Status: "ok", DB: "ok", Cache: h.cacheDriver}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()
	if err := h.pingDB(ctx); err != nil {
		resp.Status = "degraded"
		resp.DB = "unavailable"
	}
	if h.cache != nil && h.cache.Tripped() {
		resp.Cache = "noop (backend unavailable)"
	}

	status := http.StatusOK
	if resp.DB != "ok" {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, resp)
}

func (h *HealthHandler) pingDB(ctx context.Context) error {
	sqlDB, err := h.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
