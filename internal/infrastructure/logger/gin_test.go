package logger

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func newObservedRouter(t *testing.T, level zapcore.Level) (*gin.Engine, *observer.ObservedLogs) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	core, recorded := observer.New(level)
	router := gin.New()
	router.Use(GinMiddleware(zap.New(core)))
	return router, recorded
}

func requestLog(t *testing.T, recorded *observer.ObservedLogs) observer.LoggedEntry {
	t.Helper()
	logs := recorded.FilterMessage("http request").All()
	require.Len(t, logs, 1)
	return logs[0]
}

func TestGinMiddleware(t *testing.T) {
	t.Run("logs the route template for parameterized order routes", func(t *testing.T) {
		router, recorded := newObservedRouter(t, zapcore.InfoLevel)
		router.POST("/api/v1/orders/:id/returns", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"success": true})
		})

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/api/v1/orders/0b5fca13-1111-2222-3333-444455556666/returns", nil)
		router.ServeHTTP(w, req)

		entry := requestLog(t, recorded)
		assert.Equal(t, zapcore.InfoLevel, entry.Level)

		fields := entry.ContextMap()
		assert.Equal(t, "/api/v1/orders/:id/returns", fields["route"])
		assert.Equal(t, "0b5fca13-1111-2222-3333-444455556666", fields["order_id"])
		assert.Contains(t, fields, "latency")
		assert.Contains(t, fields, "client_ip")
		assert.Contains(t, fields, "bytes_out")
	})

	t.Run("carries the request id set by upstream middleware", func(t *testing.T) {
		gin.SetMode(gin.TestMode)
		core, recorded := observer.New(zapcore.InfoLevel)
		router := gin.New()
		router.Use(func(c *gin.Context) {
			c.Set("request_id", "req-7f3a")
			c.Next()
		})
		router.Use(GinMiddleware(zap.New(core)))
		router.GET("/api/v1/orders", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"success": true})
		})

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/api/v1/orders", nil)
		router.ServeHTTP(w, req)

		entry := requestLog(t, recorded)
		assert.Equal(t, "req-7f3a", entry.ContextMap()["request_id"])
	})

	t.Run("records the caller's idempotency key", func(t *testing.T) {
		router, recorded := newObservedRouter(t, zapcore.InfoLevel)
		router.POST("/api/v1/orders", func(c *gin.Context) {
			c.JSON(http.StatusCreated, gin.H{"success": true})
		})

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/api/v1/orders", nil)
		req.Header.Set("Idempotency-Key", "delivery-SO-20260201-001")
		router.ServeHTTP(w, req)

		entry := requestLog(t, recorded)
		assert.Equal(t, "delivery-SO-20260201-001", entry.ContextMap()["idempotency_key"])
	})

	t.Run("keeps the query string", func(t *testing.T) {
		router, recorded := newObservedRouter(t, zapcore.InfoLevel)
		router.GET("/api/v1/orders", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"success": true})
		})

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/api/v1/orders?locked=true&page=2", nil)
		router.ServeHTTP(w, req)

		entry := requestLog(t, recorded)
		assert.Contains(t, entry.ContextMap()["query"], "locked=true")
	})

	t.Run("rejections log at warn", func(t *testing.T) {
		router, recorded := newObservedRouter(t, zapcore.WarnLevel)
		router.POST("/api/v1/orders/:id/lock", func(c *gin.Context) {
			c.JSON(http.StatusConflict, gin.H{"success": false})
		})

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/api/v1/orders/abc/lock", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, zapcore.WarnLevel, requestLog(t, recorded).Level)
	})

	t.Run("server failures log at error", func(t *testing.T) {
		router, recorded := newObservedRouter(t, zapcore.ErrorLevel)
		router.GET("/api/v1/orders/:id", func(c *gin.Context) {
			c.JSON(http.StatusInternalServerError, gin.H{"success": false})
		})

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/api/v1/orders/abc", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, zapcore.ErrorLevel, requestLog(t, recorded).Level)
	})
}

func TestRecovery(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, recorded := observer.New(zapcore.ErrorLevel)

	router := gin.New()
	router.Use(Recovery(zap.New(core)))
	router.POST("/api/v1/orders/:id/returns", func(c *gin.Context) {
		panic("ledger derivation blew up")
	})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/api/v1/orders/abc/returns", nil)
	assert.NotPanics(t, func() {
		router.ServeHTTP(w, req)
	})

	assert.Equal(t, http.StatusInternalServerError, w.Code)

	// The response uses the standard error envelope
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, false, body["success"])
	errInfo, ok := body["error"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "INTERNAL_ERROR", errInfo["code"])

	logs := recorded.FilterMessage("panic recovered").All()
	require.Len(t, logs, 1)
	assert.Equal(t, "ledger derivation blew up", logs[0].ContextMap()["panic"])
}

func TestGetGinLogger(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, _ := observer.New(zapcore.InfoLevel)

	t.Run("returns the request-scoped logger", func(t *testing.T) {
		var got *zap.Logger
		router := gin.New()
		router.Use(GinMiddleware(zap.New(core)))
		router.GET("/api/v1/orders", func(c *gin.Context) {
			got = GetGinLogger(c)
			c.Status(http.StatusOK)
		})

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/api/v1/orders", nil)
		router.ServeHTTP(w, req)

		assert.NotNil(t, got)
	})

	t.Run("falls back to a no-op logger without the middleware", func(t *testing.T) {
		var got *zap.Logger
		router := gin.New()
		router.GET("/api/v1/orders", func(c *gin.Context) {
			got = GetGinLogger(c)
			c.Status(http.StatusOK)
		})

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/api/v1/orders", nil)
		router.ServeHTTP(w, req)

		require.NotNil(t, got)
		assert.NotPanics(t, func() {
			got.Info("safe")
		})
	})
}
