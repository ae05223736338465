package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// CacheConfig holds configuration for the response cache middleware
type CacheConfig struct {
	Enabled         bool
	DefaultDuration time.Duration
	PrefixKey       string
	CachedPrefixes  []string
}

// RedisCache creates middleware for caching market-data GET responses in
// Redis. This sits in front of the in-process data cache and only covers
// read-only routes; watchlist, image and admin routes are never cached.
func RedisCache(redisClient *redis.Client, config CacheConfig, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Skip if caching is disabled or request method is not GET
		if !config.Enabled || c.Request.Method != http.MethodGet {
			c.Next()
			return
		}

		// Only cache the configured route prefixes
		cacheable := false
		for _, prefix := range config.CachedPrefixes {
			if strings.HasPrefix(c.Request.URL.Path, prefix) {
				cacheable = true
				break
			}
		}
		if !cacheable {
			c.Next()
			return
		}

		// Generate cache key
		cacheKey := generateCacheKey(c, config.PrefixKey)

		// Try to get from cache
		ctx := context.Background()
		cachedResponse, err := redisClient.Get(ctx, cacheKey).Bytes()
		if err == nil {
			// Cache hit
			logger.Debug("Response cache hit",
				zap.String("path", c.Request.URL.Path),
				zap.String("cache_key", cacheKey))

			c.Writer.Header().Set("Content-Type", "application/json")
			c.Writer.Header().Set("X-Cache", "HIT")
			c.Writer.WriteHeader(http.StatusOK)
			c.Writer.Write(cachedResponse)
			c.Abort()
			return
		}

		// Create a custom writer to capture the response
		writer := &responseWriter{
			ResponseWriter: c.Writer,
			body:           &bytes.Buffer{},
		}
		c.Writer = writer

		// Process request
		c.Next()

		// Only cache successful responses
		if c.Writer.Status() == http.StatusOK {
			responseBody := writer.body.Bytes()

			err := redisClient.Set(ctx, cacheKey, responseBody, config.DefaultDuration).Err()
			if err != nil {
				logger.Error("Failed to set response cache",
					zap.Error(err),
					zap.String("cache_key", cacheKey))
			} else {
				logger.Debug("Response cache set",
					zap.String("path", c.Request.URL.Path),
					zap.String("cache_key", cacheKey),
					zap.Duration("duration", config.DefaultDuration))
			}
		}
	}
}

// responseWriter captures the response body for caching
type responseWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w *responseWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *responseWriter) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// generateCacheKey hashes the request path and query into a stable key.
func generateCacheKey(c *gin.Context, prefix string) string {
	raw := c.Request.URL.Path + "?" + c.Request.URL.RawQuery
	sum := sha256.Sum256([]byte(raw))
	return fmt.Sprintf("%s:%s", prefix, hex.EncodeToString(sum[:]))
}
