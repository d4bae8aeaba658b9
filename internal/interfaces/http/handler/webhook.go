package handler

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/billsync/backend/internal/application/reconciliation"
	"github.com/billsync/backend/internal/infrastructure/logger"
	"github.com/billsync/backend/internal/interfaces/http/middleware"
)

// WebhookProcessor handles one raw webhook delivery for a tenant
type WebhookProcessor interface {
	Handle(ctx context.Context, tenantID string, body []byte) (*reconciliation.WebhookResult, error)
}

// WebhookHandler receives payment gateway webhooks
type WebhookHandler struct {
	BaseHandler
	processor       WebhookProcessor
	maxPayloadBytes int64
}

// NewWebhookHandler creates a new WebhookHandler. Bodies above
// maxPayloadBytes are refused with 413; zero disables the limit.
func NewWebhookHandler(processor WebhookProcessor, maxPayloadBytes int64) *WebhookHandler {
	return &WebhookHandler{
		processor:       processor,
		maxPayloadBytes: maxPayloadBytes,
	}
}

// RegisterRoutes registers the webhook endpoint under rg
func (h *WebhookHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/webhooks/payments", middleware.BodyLimit(h.maxPayloadBytes), h.Receive)
}

// Receive handles POST /webhooks/payments?company_id=<id>.
// Acknowledged deliveries, including rejected and unmappable ones, get 200.
// Validation and processing failures get 400 with the error message.
func (h *WebhookHandler) Receive(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.Error(c, http.StatusRequestEntityTooLarge, middleware.MsgRequestTooLarge)
			return
		}
		h.BadRequest(c, "Failed to read request body")
		return
	}

	result, err := h.processor.Handle(c.Request.Context(), c.Query(middleware.TenantQueryParam), body)
	if err != nil {
		var validationErr *reconciliation.ValidationError
		if errors.As(err, &validationErr) {
			h.BadRequest(c, validationErr.Message)
			return
		}
		logger.GetGinLogger(c).Error("webhook processing failed", zap.Error(err))
		_ = c.Error(err)
		h.BadRequest(c, err.Error())
		return
	}

	c.JSON(http.StatusOK, result)
}
