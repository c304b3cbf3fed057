package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"share-analytics-service/internal/cache"
)

// Health reports service liveness and store connectivity. The endpoint stays
// 200 even when Redis is down so load balancers don't kill the process over
// a store outage; the body carries the degraded status.
func Health(store *cache.RedisClient) gin.HandlerFunc {
	return func(c *gin.Context) {
		status := "ok"
		redisStatus := "not_configured"

		if store != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()

			if err := store.Ping(ctx); err != nil {
				status = "degraded"
				redisStatus = "unavailable"
			} else {
				redisStatus = "ok"
			}
		} else {
			status = "degraded"
		}

		c.JSON(http.StatusOK, gin.H{
			"status":    status,
			"service":   "share-analytics-service",
			"redis":     redisStatus,
			"timestamp": time.Now().UTC(),
		})
	}
}
