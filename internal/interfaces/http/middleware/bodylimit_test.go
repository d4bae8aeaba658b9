package middleware

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

// echoLength reads the whole body and reports its length, or 413 when the
// reader refuses to go past the limit.
func echoLength(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.String(http.StatusRequestEntityTooLarge, "streamed too large")
			return
		}
		c.String(http.StatusBadRequest, err.Error())
		return
	}
	c.String(http.StatusOK, "%d", len(body))
}

func TestBodyLimit(t *testing.T) {
	tests := []struct {
		name          string
		limit         int64
		method        string
		body          string
		contentLength int64 // -1 simulates a chunked upload
		wantStatus    int
		wantBody      string
	}{
		{"within limit", 1024, http.MethodPost, `{"event":"PAYMENT_OVERDUE"}`, 27, http.StatusOK, "27"},
		{"declared length over limit", 100, http.MethodPost, strings.Repeat("x", 200), 200, http.StatusRequestEntityTooLarge, ""},
		{"streamed body over limit", 50, http.MethodPost, strings.Repeat("x", 100), -1, http.StatusRequestEntityTooLarge, "streamed too large"},
		{"zero limit disables the check", 0, http.MethodPost, strings.Repeat("x", 4096), 4096, http.StatusOK, "4096"},
		{"bodiless GET", 10, http.MethodGet, "", 0, http.StatusOK, "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := gin.New()
			router.Use(BodyLimit(tt.limit))
			router.Handle(tt.method, "/api/v1/webhooks/payments", echoLength)

			req := httptest.NewRequest(tt.method, "/api/v1/webhooks/payments", strings.NewReader(tt.body))
			req.ContentLength = tt.contentLength
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantBody != "" {
				assert.Equal(t, tt.wantBody, w.Body.String())
			}
		})
	}
}

func TestBodyLimit_RejectionBody(t *testing.T) {
	router := gin.New()
	router.Use(BodyLimit(8))
	router.POST("/api/v1/webhooks/payments", echoLength)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/payments", strings.NewReader("0123456789"))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.JSONEq(t, `{"error":"`+MsgRequestTooLarge+`"}`, w.Body.String())
}
