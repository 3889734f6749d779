package cache

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingMetrics struct {
	hits, misses int64
}

func (m *countingMetrics) IncrementCacheHit()  { atomic.AddInt64(&m.hits, 1) }
func (m *countingMetrics) IncrementCacheMiss() { atomic.AddInt64(&m.misses, 1) }

func TestGenerateKey(t *testing.T) {
	a := GenerateKey(http.MethodPost, "/api/synergy", []byte(`{"subject":1}`))
	b := GenerateKey(http.MethodPost, "/api/synergy", []byte(`{"subject":1}`))
	c := GenerateKey(http.MethodPost, "/api/synergy", []byte(`{"subject":0}`))
	d := GenerateKey(http.MethodPost, "/api/prompts", []byte(`{"subject":1}`))

	assert.Len(t, a, 32)
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.NotEqual(t, a, d)
}

func TestCacheStoreAndClear(t *testing.T) {
	c := NewCache(time.Minute)

	_, ok := c.get("missing")
	assert.False(t, ok)

	c.set("k", cachedResponse{ContentType: "application/json", Body: []byte("v")})
	got, ok := c.get("k")
	require.True(t, ok)
	assert.Equal(t, []byte("v"), got.Body)
	assert.Equal(t, 1, c.Size())

	c.set("a", cachedResponse{Body: []byte("1")})
	c.Clear()
	assert.Zero(t, c.Size())
	_, ok = c.get("k")
	assert.False(t, ok)
}

func TestCacheExpiry(t *testing.T) {
	c := NewCache(20 * time.Millisecond)
	c.set("k", cachedResponse{Body: []byte("v")})

	time.Sleep(40 * time.Millisecond)
	_, ok := c.get("k")
	assert.False(t, ok)

	stats := c.Stats()
	assert.Equal(t, 0, stats["active_items"])
}

func TestCacheMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	metrics := &countingMetrics{}
	c := NewCache(time.Minute, "/api/synergy")

	var calls int64
	r := gin.New()
	r.Use(c.Middleware(metrics))
	r.POST("/api/synergy", func(ctx *gin.Context) {
		atomic.AddInt64(&calls, 1)
		ctx.JSON(http.StatusOK, gin.H{"score": 7.0})
	})
	r.POST("/api/prompts", func(ctx *gin.Context) {
		atomic.AddInt64(&calls, 1)
		ctx.JSON(http.StatusOK, gin.H{"prompt": "x"})
	})

	send := func(path, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	first := send("/api/synergy", `{"subject":1}`)
	assert.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, "MISS", first.Header().Get(CacheHeader))

	second := send("/api/synergy", `{"subject":1}`)
	assert.Equal(t, http.StatusOK, second.Code)
	assert.Equal(t, "HIT", second.Header().Get(CacheHeader))
	assert.JSONEq(t, first.Body.String(), second.Body.String())
	assert.Contains(t, second.Header().Get("Content-Type"), "application/json")

	send("/api/synergy", `{"subject":0}`)
	assert.Equal(t, int64(2), atomic.LoadInt64(&calls))

	// not a cached route
	send("/api/prompts", `{"subject":1}`)
	send("/api/prompts", `{"subject":1}`)
	assert.Equal(t, int64(4), atomic.LoadInt64(&calls))

	assert.Equal(t, int64(1), metrics.hits)
	assert.Equal(t, int64(2), metrics.misses)
}

func TestCacheMiddlewareSkipsFailures(t *testing.T) {
	gin.SetMode(gin.TestMode)

	c := NewCache(time.Minute, "/api/synergy")
	r := gin.New()
	r.Use(c.Middleware(&countingMetrics{}))
	r.POST("/api/synergy", func(ctx *gin.Context) {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "bad"})
	})

	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/synergy", strings.NewReader(`{}`)))
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "MISS", w.Header().Get(CacheHeader))
	}
	assert.Zero(t, c.Size())
}
