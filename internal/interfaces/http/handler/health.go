package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/billsync/backend/internal/infrastructure/logger"
	"github.com/billsync/backend/internal/interfaces/http/dto"
)

// Pinger checks database connectivity
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler reports service liveness based on a database ping
type HealthHandler struct {
	db      Pinger
	timeout time.Duration
	now     func() time.Time
}

// NewHealthHandler creates a new HealthHandler
func NewHealthHandler(db Pinger) *HealthHandler {
	return &HealthHandler{
		db:      db,
		timeout: 2 * time.Second,
		now:     time.Now,
	}
}

// RegisterRoutes registers GET /health on the root of r
func (h *HealthHandler) RegisterRoutes(r gin.IRoutes) {
	r.GET("/health", h.Check)
}

// Check handles GET /health
func (h *HealthHandler) Check(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	resp := dto.HealthResponse{
		Status:   dto.HealthStatusHealthy,
		Time:     h.now().Format(time.RFC3339),
		Database: "ok",
	}
	if err := h.db.Ping(ctx); err != nil {
		logger.GetGinLogger(c).Warn("Health check failed", zap.Error(err))
		resp.Status = dto.HealthStatusUnhealthy
		resp.Database = "error"
		c.JSON(http.StatusServiceUnavailable, resp)
		return
	}
	c.JSON(http.StatusOK, resp)
}
