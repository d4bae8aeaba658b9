package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serveWithRequestID(t *testing.T, header string) (*httptest.ResponseRecorder, string) {
	t.Helper()
	var seen string
	router := gin.New()
	router.Use(RequestID())
	router.GET("/test", func(c *gin.Context) {
		seen = GetRequestID(c)
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	if header != "" {
		req.Header.Set(RequestIDHeader, header)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w, seen
}

func TestRequestID(t *testing.T) {
	t.Run("propagates incoming header", func(t *testing.T) {
		w, seen := serveWithRequestID(t, "req-123")

		assert.Equal(t, "req-123", seen)
		assert.Equal(t, "req-123", w.Header().Get(RequestIDHeader))
	})

	t.Run("generates uuid when missing", func(t *testing.T) {
		w, seen := serveWithRequestID(t, "")

		_, err := uuid.Parse(seen)
		require.NoError(t, err)
		assert.Equal(t, seen, w.Header().Get(RequestIDHeader))
	})

	t.Run("replaces oversized header", func(t *testing.T) {
		long := strings.Repeat("a", MaxRequestIDLength+1)
		_, seen := serveWithRequestID(t, long)

		assert.NotEqual(t, long, seen)
		_, err := uuid.Parse(seen)
		assert.NoError(t, err)
	})
}

func TestGetRequestID_Unset(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	assert.Empty(t, GetRequestID(c))
}
