package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"share-analytics-service/internal/logger"
	"share-analytics-service/internal/metrics"
	"share-analytics-service/internal/sharing"
)

// ShareHandlers serves the share analytics API. svc is nil when no store was
// configured; every endpoint then answers 503 without touching anything.
type ShareHandlers struct {
	svc          *sharing.Service
	storeTimeout time.Duration
}

// NewShareHandlers creates the handler set around an (optional) service
func NewShareHandlers(svc *sharing.Service, storeTimeout time.Duration) *ShareHandlers {
	if storeTimeout <= 0 {
		storeTimeout = 3 * time.Second
	}
	return &ShareHandlers{svc: svc, storeTimeout: storeTimeout}
}

type trackRequest struct {
	Slug      string `json:"slug"`
	URL       string `json:"url"`
	Platform  string `json:"platform"`
	Title     string `json:"title"`
	Timestamp string `json:"timestamp"`
}

// contentKey unifies the slug and url namespaces into one string identity,
// preferring the slug when both are present
func (r *trackRequest) contentKey() string {
	if r.Slug != "" {
		return r.Slug
	}
	return r.URL
}

// TrackShare handles POST /api/shares: validate, dedup, count, respond with
// the fresh stats. Write-path store failures are fatal to the request so a
// client is never told an uncounted event was counted.
func (h *ShareHandlers) TrackShare(c *gin.Context) {
	if h.svc == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Redis not configured"})
		return
	}

	var req trackRequest
	// Field validation below covers malformed bodies too
	_ = c.ShouldBindJSON(&req)

	if req.contentKey() == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing slug or url parameter"})
		return
	}
	if req.Platform == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing platform parameter"})
		return
	}

	ts := h.svc.Now()
	if req.Timestamp != "" {
		if parsed, err := time.Parse(time.RFC3339, req.Timestamp); err == nil {
			ts = parsed
		}
	}

	event := sharing.NewShareEvent(
		req.contentKey(),
		req.Platform,
		req.Title,
		c.ClientIP(),
		c.Request.UserAgent(),
		c.Request.Referer(),
		ts,
	)

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.storeTimeout)
	defer cancel()

	isNew, stats, err := h.svc.TrackShare(ctx, event)
	if err != nil {
		logger.Log.Error("share tracking failed",
			logger.WithContentKey(event.ContentKey),
			logger.WithPlatform(event.Platform),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	if isNew {
		metrics.Get().SharesTrackedTotal.WithLabelValues(event.Platform).Inc()
	} else {
		metrics.Get().SharesDuplicatesTotal.Inc()
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"stats":      stats,
		"event":      event,
		"isNewShare": isNew,
	})
}

// GetShareStats handles GET /api/shares. Without a slug/url it returns the
// global summary; with one it returns per-key stats, optionally with recent
// events. Reads never fail the request, they degrade to empty values.
func (h *ShareHandlers) GetShareStats(c *gin.Context) {
	if h.svc == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Redis not configured"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.storeTimeout)
	defer cancel()

	contentKey := c.Query("slug")
	if contentKey == "" {
		contentKey = c.Query("url")
	}

	if contentKey == "" {
		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"summary": h.svc.GetGlobalStats(ctx),
		})
		return
	}

	stats := h.svc.GetStats(ctx, contentKey)
	filterPeriod(stats, c.DefaultQuery("period", "all"))

	response := gin.H{
		"success": true,
		"stats":   stats,
	}

	if c.Query("includeEvents") == "true" {
		limit := 100
		if raw := c.Query("limit"); raw != "" {
			if n, err := strconv.Atoi(raw); err == nil && n > 0 {
				limit = n
			}
		}
		events, err := h.svc.ReadEvents(ctx, contentKey, limit)
		if err != nil {
			logger.Log.Warn("event read degraded to empty",
				logger.WithContentKey(contentKey),
				zap.Error(err),
			)
			events = []sharing.ShareEvent{}
		}
		response["events"] = events
	}

	c.JSON(http.StatusOK, response)
}

// DeleteShares handles DELETE /api/shares: clearAll=true wipes the whole
// namespace, otherwise one content key's data is removed.
func (h *ShareHandlers) DeleteShares(c *gin.Context) {
	if h.svc == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Redis not configured"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.storeTimeout)
	defer cancel()

	if c.Query("clearAll") == "true" {
		count, err := h.svc.DeleteAll(ctx)
		if err != nil {
			logger.Log.Error("namespace purge failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"success":          true,
			"message":          "All share data cleared",
			"deletedKeysCount": count,
		})
		return
	}

	contentKey := c.Query("slug")
	if contentKey == "" {
		contentKey = c.Query("url")
	}
	if contentKey == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing slug or url parameter"})
		return
	}

	deleted, count, err := h.svc.DeleteContent(ctx, contentKey)
	if err != nil {
		logger.Log.Error("content delete failed",
			logger.WithContentKey(contentKey),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"deleted":     deleted,
		"deletedKeys": count,
	})
}

// filterPeriod narrows the stats breakdown to one granularity when the
// period query asks for it; "all" (and anything unknown) keeps everything
func filterPeriod(stats *sharing.ShareStats, period string) {
	switch period {
	case "daily":
		stats.WeeklyStats = map[string]int64{}
		stats.MonthlyStats = map[string]int64{}
	case "weekly":
		stats.DailyStats = map[string]int64{}
		stats.MonthlyStats = map[string]int64{}
	case "monthly":
		stats.DailyStats = map[string]int64{}
		stats.WeeklyStats = map[string]int64{}
	}
}
