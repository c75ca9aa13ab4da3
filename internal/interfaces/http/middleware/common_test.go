package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// newOrdersRouter wires a middleware in front of a stand-in orders route
func newOrdersRouter(mw gin.HandlerFunc) *gin.Engine {
	router := gin.New()
	router.Use(mw)
	router.GET("/api/v1/orders", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})
	return router
}

func getOrders(router *gin.Engine, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest("GET", "/api/v1/orders", nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestCORS(t *testing.T) {
	router := newOrdersRouter(CORS())

	t.Run("default empty whitelist sets no CORS headers", func(t *testing.T) {
		w := getOrders(router, map[string]string{"Origin": "http://unknown-console.example.com"})

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("same-origin requests pass through", func(t *testing.T) {
		w := getOrders(router, nil)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("preflight answers 204 even for unknown origins", func(t *testing.T) {
		req := httptest.NewRequest("OPTIONS", "/api/v1/orders", nil)
		req.Header.Set("Origin", "http://unknown-console.example.com")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
	})
}

func TestCORSWithConfig(t *testing.T) {
	opsConsole := "https://ops.example.com"

	t.Run("whitelisted console origin is mirrored back", func(t *testing.T) {
		router := newOrdersRouter(CORSWithConfig(CORSConfig{
			AllowOrigins:     []string{opsConsole, "https://staging-ops.example.com"},
			AllowMethods:     []string{"GET", "POST"},
			AllowHeaders:     []string{"Content-Type", "Idempotency-Key"},
			AllowCredentials: true,
		}))

		w := getOrders(router, map[string]string{"Origin": opsConsole})
		assert.Equal(t, opsConsole, w.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))

		w = getOrders(router, map[string]string{"Origin": "https://staging-ops.example.com"})
		assert.Equal(t, "https://staging-ops.example.com", w.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("unlisted origin gets no headers", func(t *testing.T) {
		router := newOrdersRouter(CORSWithConfig(CORSConfig{
			AllowOrigins: []string{opsConsole},
		}))

		w := getOrders(router, map[string]string{"Origin": "https://elsewhere.example.com"})
		assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("wildcard origin never grants credentials", func(t *testing.T) {
		router := newOrdersRouter(CORSWithConfig(CORSConfig{
			AllowOrigins:     []string{"*"},
			AllowMethods:     []string{"GET"},
			AllowCredentials: true,
		}))

		w := getOrders(router, map[string]string{"Origin": opsConsole})
		assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
		assert.Empty(t, w.Header().Get("Access-Control-Allow-Credentials"))
	})

	t.Run("max age is whole seconds", func(t *testing.T) {
		router := newOrdersRouter(CORSWithConfig(CORSConfig{
			AllowOrigins: []string{opsConsole},
			AllowMethods: []string{"GET"},
			MaxAge:       12 * time.Hour,
		}))

		w := getOrders(router, map[string]string{"Origin": opsConsole})
		assert.Equal(t, "43200", w.Header().Get("Access-Control-Max-Age"))
	})

	t.Run("expose headers are joined", func(t *testing.T) {
		router := newOrdersRouter(CORSWithConfig(CORSConfig{
			AllowOrigins:  []string{opsConsole},
			AllowMethods:  []string{"GET"},
			ExposeHeaders: []string{"X-Request-ID", "X-RateLimit-Remaining"},
		}))

		w := getOrders(router, map[string]string{"Origin": opsConsole})
		assert.Equal(t, "X-Request-ID, X-RateLimit-Remaining", w.Header().Get("Access-Control-Expose-Headers"))
	})

	t.Run("preflight advertises allowed methods and headers", func(t *testing.T) {
		router := newOrdersRouter(CORSWithConfig(CORSConfig{
			AllowOrigins: []string{opsConsole},
			AllowMethods: []string{"GET", "POST"},
			AllowHeaders: []string{"Content-Type", "Idempotency-Key"},
		}))

		req := httptest.NewRequest("OPTIONS", "/api/v1/orders", nil)
		req.Header.Set("Origin", opsConsole)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Equal(t, "GET, POST", w.Header().Get("Access-Control-Allow-Methods"))
		assert.Equal(t, "Content-Type, Idempotency-Key", w.Header().Get("Access-Control-Allow-Headers"))
	})
}

func TestDefaultCORSConfig(t *testing.T) {
	cfg := DefaultCORSConfig()

	assert.Empty(t, cfg.AllowOrigins, "cross-origin access is opt-in")
	assert.Contains(t, cfg.AllowMethods, "GET")
	assert.Contains(t, cfg.AllowMethods, "POST")
	assert.Contains(t, cfg.AllowHeaders, "Content-Type")
	assert.Contains(t, cfg.AllowHeaders, "Idempotency-Key")
	assert.True(t, cfg.AllowCredentials)
	assert.Equal(t, 12*time.Hour, cfg.MaxAge)
}

func TestRequestID(t *testing.T) {
	router := gin.New()
	router.Use(RequestID())
	router.GET("/api/v1/orders", func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString("request_id"))
	})

	t.Run("generates an id when the caller sends none", func(t *testing.T) {
		w := getOrders(router, nil)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
		assert.Equal(t, w.Header().Get("X-Request-ID"), w.Body.String())
	})

	t.Run("keeps the caller's id for cross-service correlation", func(t *testing.T) {
		w := getOrders(router, map[string]string{"X-Request-ID": "fulfillment-7f3a"})

		assert.Equal(t, "fulfillment-7f3a", w.Header().Get("X-Request-ID"))
		assert.Equal(t, "fulfillment-7f3a", w.Body.String())
	})

	t.Run("generated ids are unique", func(t *testing.T) {
		id1 := generateRequestID()
		id2 := generateRequestID()

		assert.NotEqual(t, id1, id2)
		assert.Len(t, id1, 32)
	})
}

func TestSecure(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		w := getOrders(newOrdersRouter(Secure()), nil)

		assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
		assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
		assert.Equal(t, "strict-origin-when-cross-origin", w.Header().Get("Referrer-Policy"))

		// The API serves JSON only, so the default CSP locks everything down
		csp := w.Header().Get("Content-Security-Policy")
		assert.Contains(t, csp, "default-src 'self'")
		assert.Contains(t, csp, "frame-ancestors 'none'")

		// HSTS needs verified HTTPS termination first
		assert.Empty(t, w.Header().Get("Strict-Transport-Security"))
		assert.Contains(t, w.Header().Get("Permissions-Policy"), "camera=()")
	})
}

func TestSecureWithConfig(t *testing.T) {
	t.Run("hsts directives follow the flags", func(t *testing.T) {
		w := getOrders(newOrdersRouter(SecureWithConfig(SecurityConfig{
			HSTSEnabled:           true,
			HSTSMaxAge:            63072000,
			HSTSIncludeSubdomains: true,
			HSTSPreload:           true,
		})), nil)
		assert.Equal(t, "max-age=63072000; includeSubDomains; preload", w.Header().Get("Strict-Transport-Security"))

		w = getOrders(newOrdersRouter(SecureWithConfig(SecurityConfig{
			HSTSEnabled: true,
			HSTSMaxAge:  31536000,
		})), nil)
		assert.Equal(t, "max-age=31536000", w.Header().Get("Strict-Transport-Security"))
	})

	t.Run("optional headers can be disabled", func(t *testing.T) {
		w := getOrders(newOrdersRouter(SecureWithConfig(SecurityConfig{})), nil)

		// The always-on headers stay
		assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
		assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))

		assert.Empty(t, w.Header().Get("Content-Security-Policy"))
		assert.Empty(t, w.Header().Get("Strict-Transport-Security"))
		assert.Empty(t, w.Header().Get("Permissions-Policy"))
	})

	t.Run("custom directives pass through", func(t *testing.T) {
		w := getOrders(newOrdersRouter(SecureWithConfig(SecurityConfig{
			CSPEnabled:                 true,
			CSPDirective:               "default-src 'none'",
			PermissionsPolicyEnabled:   true,
			PermissionsPolicyDirective: "geolocation=(self)",
		})), nil)

		assert.Equal(t, "default-src 'none'", w.Header().Get("Content-Security-Policy"))
		assert.Equal(t, "geolocation=(self)", w.Header().Get("Permissions-Policy"))
	})
}

func TestDefaultSecurityConfig(t *testing.T) {
	cfg := DefaultSecurityConfig()

	assert.False(t, cfg.HSTSEnabled)
	assert.Equal(t, 31536000, cfg.HSTSMaxAge)
	assert.True(t, cfg.CSPEnabled)
	assert.Contains(t, cfg.CSPDirective, "default-src 'self'")
	assert.True(t, cfg.PermissionsPolicyEnabled)
	assert.Contains(t, cfg.PermissionsPolicyDirective, "camera=()")
}

func TestTimeout(t *testing.T) {
	w := getOrders(newOrdersRouter(Timeout(30*time.Second)), nil)
	assert.Equal(t, "30s", w.Header().Get("X-Request-Timeout"))
}
