package ratelimit

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newLimitedRouter(rl *RateLimiter) *gin.Engine {
	router := gin.New()
	router.Use(rl.IPRateLimitMiddleware("/health"))
	router.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })
	router.GET("/api/synergy", func(c *gin.Context) { c.Status(http.StatusOK) })
	router.GET("/api/canvas/stream", rl.EndpointRateLimitMiddleware("stream", 1), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	router.GET("/ratelimit/status", rl.HandleRateLimitStatus())
	router.DELETE("/ratelimit/ip/:ip", rl.HandleInvalidateIP())
	return router
}

func doRequest(router http.Handler, method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, nil)
	req.RemoteAddr = "192.0.2.1:1234"
	router.ServeHTTP(w, req)
	return w
}

func TestIPRateLimitMiddleware(t *testing.T) {
	limiter, metrics := newTestLimiter(t, Config{IPLimit: 2})
	router := newLimitedRouter(limiter)

	for i := 0; i < 2; i++ {
		w := doRequest(router, http.MethodGet, "/api/synergy")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "2", w.Header().Get("X-RateLimit-Limit"))
		assert.NotEmpty(t, w.Header().Get("X-RateLimit-Reset"))
	}

	w := doRequest(router, http.MethodGet, "/api/synergy")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))
	assert.NotEmpty(t, w.Header().Get("Retry-After"))

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "rate limit exceeded for IP", body["error"])
	assert.Contains(t, body, "retry_after")

	assert.Equal(t, int64(1), metrics.GetRateLimitStats()["ip_blocks"])
}

func TestIPRateLimitMiddlewareSkipsPaths(t *testing.T) {
	limiter, _ := newTestLimiter(t, Config{IPLimit: 1})
	router := newLimitedRouter(limiter)

	for i := 0; i < 5; i++ {
		w := doRequest(router, http.MethodGet, "/health")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, w.Header().Get("X-RateLimit-Limit"))
	}
}

func TestEndpointRateLimitMiddleware(t *testing.T) {
	limiter, _ := newTestLimiter(t, Config{IPLimit: 100})
	router := newLimitedRouter(limiter)

	w := doRequest(router, http.MethodGet, "/api/canvas/stream")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "1", w.Header().Get("X-RateLimit-Endpoint-Limit"))

	w = doRequest(router, http.MethodGet, "/api/canvas/stream")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "rate limit exceeded for endpoint: stream", body["error"])

	w = doRequest(router, http.MethodGet, "/api/synergy")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRateLimitHandlers(t *testing.T) {
	limiter, _ := newTestLimiter(t, Config{IPLimit: 1})
	router := newLimitedRouter(limiter)

	w := doRequest(router, http.MethodGet, "/ratelimit/status")
	require.Equal(t, http.StatusOK, w.Code)

	var status map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
	assert.Equal(t, "192.0.2.1", status["ip"])
	assert.Contains(t, status, "limits")
	assert.Equal(t, float64(1), status["total_keys"])

	w = doRequest(router, http.MethodGet, "/ratelimit/status")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)

	// the invalidate route is itself behind the limiter, so clear directly
	w = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodDelete, "/ratelimit/ip/192.0.2.1", nil)
	req.RemoteAddr = "198.51.100.7:80"
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var inv map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &inv))
	assert.Equal(t, "192.0.2.1", inv["ip"])
	assert.Equal(t, float64(1), inv["removed"])

	w = doRequest(router, http.MethodGet, "/ratelimit/status")
	assert.Equal(t, http.StatusOK, w.Code)
}
