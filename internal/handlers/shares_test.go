package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"share-analytics-service/internal/cache"
	"share-analytics-service/internal/logger"
	"share-analytics-service/internal/sharing"
)

func newTestRouter(t *testing.T) (*gin.Engine, *sharing.Service, *miniredis.Miniredis) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	if logger.Log == nil {
		require.NoError(t, logger.Initialize("error", ""))
	}

	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	svc := sharing.NewService(cache.NewRedisClientFromExisting(client))
	h := NewShareHandlers(svc, 3*time.Second)

	r := gin.New()
	r.POST("/api/shares", h.TrackShare)
	r.GET("/api/shares", h.GetShareStats)
	r.DELETE("/api/shares", h.DeleteShares)
	return r, svc, mr
}

func doRequest(r *gin.Engine, method, target, body, remoteAddr string) *httptest.ResponseRecorder {
	var reader *strings.Reader
	if body != "" {
		reader = strings.NewReader(body)
	} else {
		reader = strings.NewReader("")
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if remoteAddr != "" {
		req.RemoteAddr = remoteAddr
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func parseBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestTrackShareScenario(t *testing.T) {
	r, _, _ := newTestRouter(t)

	// First share from client X is new
	w := doRequest(r, http.MethodPost, "/api/shares",
		`{"slug":"hello-world","platform":"twitter"}`, "198.51.100.1:4000")
	require.Equal(t, http.StatusOK, w.Code)
	body := parseBody(t, w)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, true, body["isNewShare"])
	stats := body["stats"].(map[string]interface{})
	assert.Equal(t, float64(1), stats["total"])
	event := body["event"].(map[string]interface{})
	assert.Equal(t, "hello-world", event["contentKey"])
	assert.Equal(t, "twitter", event["platform"])
	assert.NotContains(t, event["clientIpHash"], "198.51.100.1")

	// Immediate repeat from the same client is deduplicated
	w = doRequest(r, http.MethodPost, "/api/shares",
		`{"slug":"hello-world","platform":"twitter"}`, "198.51.100.1:4001")
	require.Equal(t, http.StatusOK, w.Code)
	body = parseBody(t, w)
	assert.Equal(t, false, body["isNewShare"])
	stats = body["stats"].(map[string]interface{})
	assert.Equal(t, float64(1), stats["total"])

	// A different client counts
	w = doRequest(r, http.MethodPost, "/api/shares",
		`{"slug":"hello-world","platform":"twitter"}`, "198.51.100.2:4000")
	require.Equal(t, http.StatusOK, w.Code)
	body = parseBody(t, w)
	assert.Equal(t, true, body["isNewShare"])
	stats = body["stats"].(map[string]interface{})
	assert.Equal(t, float64(2), stats["total"])
}

func TestTrackShareValidation(t *testing.T) {
	r, svc, _ := newTestRouter(t)

	// Neither slug nor url
	w := doRequest(r, http.MethodPost, "/api/shares", `{"platform":"twitter"}`, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"Missing slug or url parameter"}`, w.Body.String())

	// Missing platform
	w = doRequest(r, http.MethodPost, "/api/shares", `{"slug":"hello-world"}`, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"Missing platform parameter"}`, w.Body.String())

	// Malformed body counts as missing identity
	w = doRequest(r, http.MethodPost, "/api/shares", `{broken`, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// No counters changed anywhere
	stats := svc.GetStats(context.Background(), "hello-world")
	assert.Equal(t, int64(0), stats.Total)
	global := svc.GetGlobalStats(context.Background())
	assert.Equal(t, int64(0), global.TotalShares)
}

func TestTrackShareAcceptsURLIdentity(t *testing.T) {
	r, _, _ := newTestRouter(t)

	w := doRequest(r, http.MethodPost, "/api/shares",
		`{"url":"https://example.com/post","platform":"copy"}`, "")
	require.Equal(t, http.StatusOK, w.Code)
	body := parseBody(t, w)
	event := body["event"].(map[string]interface{})
	assert.Equal(t, "https://example.com/post", event["contentKey"])

	// Slug wins when both are present
	w = doRequest(r, http.MethodPost, "/api/shares",
		`{"slug":"a-slug","url":"https://example.com/post","platform":"copy"}`, "198.51.100.9:1")
	require.Equal(t, http.StatusOK, w.Code)
	body = parseBody(t, w)
	event = body["event"].(map[string]interface{})
	assert.Equal(t, "a-slug", event["contentKey"])
}

func TestGetStatsBeforeAnyShare(t *testing.T) {
	r, _, _ := newTestRouter(t)

	w := doRequest(r, http.MethodGet, "/api/shares?slug=hello-world", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	body := parseBody(t, w)
	assert.Equal(t, true, body["success"])
	stats := body["stats"].(map[string]interface{})
	assert.Equal(t, float64(0), stats["total"])
	assert.Empty(t, stats["platforms"])
}

func TestGetStatsWithEvents(t *testing.T) {
	r, _, _ := newTestRouter(t)

	doRequest(r, http.MethodPost, "/api/shares",
		`{"slug":"hello-world","platform":"twitter","title":"Hello"}`, "198.51.100.1:1")

	w := doRequest(r, http.MethodGet, "/api/shares?slug=hello-world&includeEvents=true&limit=5", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	body := parseBody(t, w)
	events := body["events"].([]interface{})
	require.Len(t, events, 1)
	ev := events[0].(map[string]interface{})
	assert.Equal(t, "Hello", ev["title"])

	// Without the flag, no events field at all
	w = doRequest(r, http.MethodGet, "/api/shares?slug=hello-world", "", "")
	body = parseBody(t, w)
	_, present := body["events"]
	assert.False(t, present)
}

func TestGetStatsPeriodFilter(t *testing.T) {
	r, _, _ := newTestRouter(t)

	doRequest(r, http.MethodPost, "/api/shares",
		`{"slug":"hello-world","platform":"twitter"}`, "198.51.100.1:1")

	w := doRequest(r, http.MethodGet, "/api/shares?slug=hello-world&period=daily", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	body := parseBody(t, w)
	stats := body["stats"].(map[string]interface{})
	assert.Len(t, stats["dailyStats"], 1)
	assert.Empty(t, stats["weeklyStats"])
	assert.Empty(t, stats["monthlyStats"])
}

func TestGetGlobalSummary(t *testing.T) {
	r, _, _ := newTestRouter(t)

	doRequest(r, http.MethodPost, "/api/shares",
		`{"slug":"post-a","platform":"twitter"}`, "198.51.100.1:1")
	doRequest(r, http.MethodPost, "/api/shares",
		`{"slug":"post-b","platform":"weibo"}`, "198.51.100.2:1")

	w := doRequest(r, http.MethodGet, "/api/shares", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	body := parseBody(t, w)
	assert.Equal(t, true, body["success"])
	summary := body["summary"].(map[string]interface{})
	assert.Equal(t, float64(2), summary["totalShares"])
	assert.Equal(t, float64(2), summary["totalContent"])
	assert.Len(t, summary["topContent"], 2)
	assert.Len(t, summary["topPlatforms"], 2)
}

func TestDeleteShareData(t *testing.T) {
	r, _, _ := newTestRouter(t)

	doRequest(r, http.MethodPost, "/api/shares",
		`{"slug":"hello-world","platform":"twitter"}`, "198.51.100.1:1")

	w := doRequest(r, http.MethodDelete, "/api/shares?slug=hello-world", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	body := parseBody(t, w)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, true, body["deleted"])
	assert.Greater(t, body["deletedKeys"], float64(0))

	// Stats read back as zero after the delete
	w = doRequest(r, http.MethodGet, "/api/shares?slug=hello-world", "", "")
	stats := parseBody(t, w)["stats"].(map[string]interface{})
	assert.Equal(t, float64(0), stats["total"])
}

func TestDeleteRequiresIdentity(t *testing.T) {
	r, _, _ := newTestRouter(t)

	w := doRequest(r, http.MethodDelete, "/api/shares", "", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"Missing slug or url parameter"}`, w.Body.String())
}

func TestDeleteClearAll(t *testing.T) {
	r, _, _ := newTestRouter(t)

	doRequest(r, http.MethodPost, "/api/shares",
		`{"slug":"post-a","platform":"twitter"}`, "198.51.100.1:1")
	doRequest(r, http.MethodPost, "/api/shares",
		`{"slug":"post-b","platform":"weibo"}`, "198.51.100.2:1")

	w := doRequest(r, http.MethodDelete, "/api/shares?clearAll=true", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	body := parseBody(t, w)
	assert.Equal(t, true, body["success"])
	assert.NotEmpty(t, body["message"])
	assert.Greater(t, body["deletedKeysCount"], float64(0))

	w = doRequest(r, http.MethodGet, "/api/shares", "", "")
	summary := parseBody(t, w)["summary"].(map[string]interface{})
	assert.Equal(t, float64(0), summary["totalShares"])
}

func TestEndpointsWithoutConfiguredStore(t *testing.T) {
	gin.SetMode(gin.TestMode)
	if logger.Log == nil {
		require.NoError(t, logger.Initialize("error", ""))
	}

	h := NewShareHandlers(nil, 0)
	r := gin.New()
	r.POST("/api/shares", h.TrackShare)
	r.GET("/api/shares", h.GetShareStats)
	r.DELETE("/api/shares", h.DeleteShares)

	for _, method := range []string{http.MethodPost, http.MethodGet, http.MethodDelete} {
		w := doRequest(r, method, "/api/shares", "", "")
		assert.Equal(t, http.StatusServiceUnavailable, w.Code, method)
		assert.JSONEq(t, `{"error":"Redis not configured"}`, w.Body.String(), method)
	}
}

func TestTrackShareStoreFailureIsInternalError(t *testing.T) {
	r, _, mr := newTestRouter(t)

	mr.Close()

	w := doRequest(r, http.MethodPost, "/api/shares",
		`{"slug":"hello-world","platform":"twitter"}`, "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"Internal server error"}`, w.Body.String())
}

func TestGetStatsDegradesWhenStoreDown(t *testing.T) {
	r, _, mr := newTestRouter(t)

	mr.Close()

	w := doRequest(r, http.MethodGet, "/api/shares?slug=hello-world", "", "")
	require.Equal(t, http.StatusOK, w.Code, "reads degrade instead of failing")
	stats := parseBody(t, w)["stats"].(map[string]interface{})
	assert.Equal(t, float64(0), stats["total"])
}
