package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/billsync/backend/internal/application/reconciliation"
	"github.com/billsync/backend/internal/infrastructure/logger"
)

// SyncRunner runs one periodic poll across all active tenants
type SyncRunner interface {
	Run(ctx context.Context) (*reconciliation.SyncReport, error)
}

// SyncHandler lets an external scheduler trigger the periodic poll
type SyncHandler struct {
	BaseHandler
	runner SyncRunner
}

// NewSyncHandler creates a new SyncHandler
func NewSyncHandler(runner SyncRunner) *SyncHandler {
	return &SyncHandler{runner: runner}
}

// RegisterRoutes registers the sync trigger under rg for both GET and POST
func (h *SyncHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/sync/overdue", h.Run)
	rg.POST("/sync/overdue", h.Run)
}

// Run executes one sync and returns its report. Only a registry failure
// fails the request; per-tenant failures are in the report details.
func (h *SyncHandler) Run(c *gin.Context) {
	report, err := h.runner.Run(c.Request.Context())
	if err != nil {
		logger.GetGinLogger(c).Error("periodic sync failed", zap.Error(err))
		_ = c.Error(err)
		h.InternalError(c, err.Error())
		return
	}

	c.JSON(http.StatusOK, report)
}
