package middleware

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"share-analytics-service/internal/cache"
	"share-analytics-service/internal/logger"
	"share-analytics-service/internal/sharing"
)

// RedisRateLimitMiddleware creates a distributed fixed-window rate limiter
// on the injected store. It keys on the hashed client IP, never the raw one.
// On limiter store errors the request is rejected; a broken limiter that
// waves everything through opens the write path to abuse.
func RedisRateLimitMiddleware(store *cache.RedisClient, maxRequests int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if store == nil {
			// No store, no limiter; the handlers answer 503 themselves
			c.Next()
			return
		}

		clientID := sharing.HashClientIP(c.ClientIP())
		key := fmt.Sprintf("rate_limit:%s", clientID)

		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		count, err := store.IncrBy(ctx, key, 1)
		if err != nil {
			logger.Log.Error("rate limit check failed, rejecting request",
				zap.String("client", clientID),
				zap.Error(err),
			)
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Service temporarily unavailable"})
			c.Abort()
			return
		}

		// First request of this window starts the clock
		if count == 1 {
			if err := store.Expire(ctx, key, window); err != nil {
				logger.Log.Warn("failed to set rate limit expiration",
					zap.String("client", clientID),
					zap.Error(err),
				)
			}
		}

		if count > int64(maxRequests) {
			logger.Log.Warn("rate limit exceeded",
				zap.String("client", clientID),
				zap.Int64("requests", count),
				zap.Int("max_requests", maxRequests),
			)
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":       "rate limit exceeded",
				"retry_after": window.Seconds(),
			})
			c.Abort()
			return
		}

		c.Next()
	}
}
