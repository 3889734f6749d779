package cache

import (
	"bytes"
	"crypto/md5"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	gocache "github.com/patrickmn/go-cache"
)

// Metrics receives hit and miss counts
type Metrics interface {
	IncrementCacheHit()
	IncrementCacheMiss()
}

// CacheHeader reports HIT or MISS on cacheable routes
const CacheHeader = "X-Cache"

type cachedResponse struct {
	ContentType string
	Body        []byte
}

// Cache is a TTL response cache for deterministic endpoints
type Cache struct {
	store *gocache.Cache
	ttl   time.Duration
	paths map[string]struct{}
}

// NewCache creates a cache whose entries live for ttl. Only POST requests to
// the given paths are cached.
func NewCache(ttl time.Duration, paths ...string) *Cache {
	allowed := make(map[string]struct{}, len(paths))
	for _, p := range paths {
		allowed[p] = struct{}{}
	}
	return &Cache{
		store: gocache.New(ttl, 2*ttl),
		ttl:   ttl,
		paths: allowed,
	}
}

// GenerateKey hashes the request identity and body
func GenerateKey(method, path string, body []byte) string {
	h := md5.New()
	h.Write([]byte(method))
	h.Write([]byte{0})
	h.Write([]byte(path))
	h.Write([]byte{0})
	h.Write(body)
	return fmt.Sprintf("%x", h.Sum(nil))
}

func (c *Cache) get(key string) (cachedResponse, bool) {
	v, ok := c.store.Get(key)
	if !ok {
		return cachedResponse{}, false
	}
	resp, ok := v.(cachedResponse)
	return resp, ok
}

func (c *Cache) set(key string, resp cachedResponse) {
	c.store.Set(key, resp, gocache.DefaultExpiration)
}

// Clear removes all items from the cache
func (c *Cache) Clear() {
	c.store.Flush()
}

// Size returns the number of items, including expired ones not yet evicted
func (c *Cache) Size() int {
	return c.store.ItemCount()
}

// Stats returns cache statistics
func (c *Cache) Stats() map[string]interface{} {
	active := len(c.store.Items())
	total := c.store.ItemCount()
	paths := make([]string, 0, len(c.paths))
	for p := range c.paths {
		paths = append(paths, p)
	}
	return map[string]interface{}{
		"total_items":   total,
		"expired_items": total - active,
		"active_items":  active,
		"ttl_seconds":   c.ttl.Seconds(),
		"cached_paths":  paths,
	}
}

// Middleware serves cached responses for configured POST routes and stores
// successful fresh ones
func (c *Cache) Middleware(metrics Metrics) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if ctx.Request.Method != http.MethodPost {
			ctx.Next()
			return
		}
		if _, ok := c.paths[ctx.Request.URL.Path]; !ok {
			ctx.Next()
			return
		}

		body, err := io.ReadAll(ctx.Request.Body)
		if err != nil {
			ctx.Next()
			return
		}
		ctx.Request.Body = io.NopCloser(bytes.NewBuffer(body))

		cacheKey := GenerateKey(ctx.Request.Method, ctx.Request.URL.Path, body)
		ctx.Set("cache_key", cacheKey)

		if cached, found := c.get(cacheKey); found {
			slog.Debug("Cache hit", "key", cacheKey[:8]+"...")
			metrics.IncrementCacheHit()
			ctx.Set("cache_hit", true)
			ctx.Header(CacheHeader, "HIT")
			ctx.Data(http.StatusOK, cached.ContentType, cached.Body)
			ctx.Abort()
			return
		}

		slog.Debug("Cache miss", "key", cacheKey[:8]+"...")
		metrics.IncrementCacheMiss()
		ctx.Header(CacheHeader, "MISS")

		wrapper := &responseWriter{ResponseWriter: ctx.Writer, body: &bytes.Buffer{}}
		ctx.Writer = wrapper
		ctx.Next()

		if wrapper.Status() == http.StatusOK && len(ctx.Errors) == 0 {
			c.set(cacheKey, cachedResponse{
				ContentType: wrapper.Header().Get("Content-Type"),
				Body:        wrapper.body.Bytes(),
			})
		}
	}
}

// responseWriter wraps gin.ResponseWriter to capture response body
type responseWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w *responseWriter) Write(data []byte) (int, error) {
	w.body.Write(data)
	return w.ResponseWriter.Write(data)
}

func (w *responseWriter) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}
