// Package handler exposes the reconciliation services over HTTP.
package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/billsync/backend/internal/interfaces/http/dto"
	"github.com/billsync/backend/internal/interfaces/http/middleware"
)

// BaseHandler provides common handler utilities
type BaseHandler struct{}

// Error sends an error response with the given status code
func (h *BaseHandler) Error(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, dto.NewErrorResponseWithRequestID(message, middleware.GetRequestID(c)))
}

// BadRequest sends a 400 bad request response
func (h *BaseHandler) BadRequest(c *gin.Context, message string) {
	h.Error(c, http.StatusBadRequest, message)
}

// InternalError sends a 500 internal server error response
func (h *BaseHandler) InternalError(c *gin.Context, message string) {
	h.Error(c, http.StatusInternalServerError, message)
}

// MethodNotAllowed answers requests whose path exists under another method
func MethodNotAllowed(c *gin.Context) {
	c.JSON(http.StatusMethodNotAllowed,
		dto.NewErrorResponseWithRequestID("Method not allowed", middleware.GetRequestID(c)))
}

// NotFound answers requests for unknown paths
func NotFound(c *gin.Context) {
	c.JSON(http.StatusNotFound,
		dto.NewErrorResponseWithRequestID("Not found", middleware.GetRequestID(c)))
}
