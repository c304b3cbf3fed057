package sharing

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"share-analytics-service/internal/logger"
	"share-analytics-service/internal/metrics"
)

// PlatformCount is one entry of a platform ranking
type PlatformCount struct {
	Platform string `json:"platform"`
	Count    int64  `json:"count"`
}

// ContentCount is one entry of the content leaderboard
type ContentCount struct {
	ContentKey string `json:"contentKey"`
	Count      int64  `json:"count"`
}

// ShareStats is the per-content-key statistics view. Bucket maps carry only
// non-zero entries; missing counters read as zero.
type ShareStats struct {
	Total        int64            `json:"total"`
	Platforms    map[string]int64 `json:"platforms"`
	DailyStats   map[string]int64 `json:"dailyStats"`
	WeeklyStats  map[string]int64 `json:"weeklyStats"`
	MonthlyStats map[string]int64 `json:"monthlyStats"`
	LastShared   string           `json:"lastShared,omitempty"`
	TopPlatforms []PlatformCount  `json:"topPlatforms"`
}

// GlobalStats is the site-wide summary: no time buckets, just totals and
// rankings.
type GlobalStats struct {
	TotalShares  int64           `json:"totalShares"`
	TotalContent int64           `json:"totalContent"`
	TopContent   []ContentCount  `json:"topContent"`
	TopPlatforms []PlatformCount `json:"topPlatforms"`
}

func emptyStats() *ShareStats {
	return &ShareStats{
		Platforms:    map[string]int64{},
		DailyStats:   map[string]int64{},
		WeeklyStats:  map[string]int64{},
		MonthlyStats: map[string]int64{},
		TopPlatforms: []PlatformCount{},
	}
}

// GetStats assembles the ShareStats view for one content key. The last 7
// daily, 4 weekly and 12 monthly buckets are reconstructed from the current
// clock, not from data presence, so expired buckets simply drop out.
//
// Reads are best-effort by contract: any store failure degrades to an
// all-zero view instead of propagating.
func (s *Service) GetStats(ctx context.Context, contentKey string) *ShareStats {
	stats := emptyStats()
	now := s.Now()

	days := lastDayLabels(now, DailyBuckets)
	weeks := lastWeekLabels(now, WeeklyBuckets)
	months := lastMonthLabels(now, MonthlyBuckets)

	pipe := s.store.Pipeline()
	totalCmd := pipe.Get(ctx, totalKey(contentKey))
	lastCmd := pipe.Get(ctx, lastSharedKey(contentKey))

	platformCmds := make(map[string]*redis.StringCmd, len(Platforms))
	for _, p := range Platforms {
		platformCmds[p] = pipe.Get(ctx, platformKey(contentKey, p))
	}
	dayCmds := make(map[string]*redis.StringCmd, len(days))
	for _, d := range days {
		dayCmds[d] = pipe.Get(ctx, dailyKey(contentKey, d))
	}
	weekCmds := make(map[string]*redis.StringCmd, len(weeks))
	for _, w := range weeks {
		weekCmds[w] = pipe.Get(ctx, weeklyKey(contentKey, w))
	}
	monthCmds := make(map[string]*redis.StringCmd, len(months))
	for _, m := range months {
		monthCmds[m] = pipe.Get(ctx, monthlyKey(contentKey, m))
	}

	start := time.Now()
	_, err := pipe.Exec(ctx)
	// redis.Nil just means some counters don't exist yet
	if err != nil && !errors.Is(err, redis.Nil) {
		metrics.RecordRedisOperation("stats_read", time.Since(start).Seconds(), err)
		logger.Log.Warn("stats read degraded to zero",
			logger.WithContentKey(contentKey),
			zap.Error(err),
		)
		return stats
	}
	metrics.RecordRedisOperation("stats_read", time.Since(start).Seconds(), nil)

	stats.Total, _ = totalCmd.Int64()
	if last, err := lastCmd.Result(); err == nil {
		stats.LastShared = last
	}
	for p, cmd := range platformCmds {
		if n, _ := cmd.Int64(); n > 0 {
			stats.Platforms[p] = n
		}
	}
	for d, cmd := range dayCmds {
		if n, _ := cmd.Int64(); n > 0 {
			stats.DailyStats[d] = n
		}
	}
	for w, cmd := range weekCmds {
		if n, _ := cmd.Int64(); n > 0 {
			stats.WeeklyStats[w] = n
		}
	}
	for m, cmd := range monthCmds {
		if n, _ := cmd.Int64(); n > 0 {
			stats.MonthlyStats[m] = n
		}
	}

	stats.TopPlatforms = rankPlatforms(stats.Platforms, 10)
	return stats
}

// GetGlobalStats assembles the site-wide summary: global total, leaderboard
// top 10 and the full platform histogram. Each read degrades independently.
func (s *Service) GetGlobalStats(ctx context.Context) *GlobalStats {
	global := &GlobalStats{
		TopContent:   []ContentCount{},
		TopPlatforms: []PlatformCount{},
	}

	if total, err := s.store.GetInt(ctx, globalTotalKey()); err == nil {
		global.TotalShares = total
	} else {
		logger.Log.Warn("global total read failed", zap.Error(err))
	}

	if count, err := s.store.ZCard(ctx, leaderboardKey()); err == nil {
		global.TotalContent = count
	} else {
		logger.Log.Warn("leaderboard cardinality read failed", zap.Error(err))
	}

	if top, err := s.TopContent(ctx, 10); err == nil {
		global.TopContent = top
	} else {
		logger.Log.Warn("leaderboard read failed", zap.Error(err))
	}

	if histogram, err := s.store.HGetAll(ctx, platformHistogramKey()); err == nil {
		counts := make(map[string]int64, len(histogram))
		for platform, raw := range histogram {
			n, err := strconv.ParseInt(raw, 10, 64)
			if err != nil {
				// Per-record isolation: one bad field doesn't void the histogram
				logger.Log.Warn("skipping malformed histogram entry",
					logger.WithPlatform(platform),
					zap.Error(err),
				)
				continue
			}
			counts[platform] = n
		}
		global.TopPlatforms = rankPlatforms(counts, len(counts))
	} else {
		logger.Log.Warn("platform histogram read failed", zap.Error(err))
	}

	return global
}

// rankPlatforms sorts a platform count map descending and caps the result.
// Ties break on name so output stays deterministic.
func rankPlatforms(counts map[string]int64, limit int) []PlatformCount {
	ranked := make([]PlatformCount, 0, len(counts))
	for platform, count := range counts {
		ranked = append(ranked, PlatformCount{Platform: platform, Count: count})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Count != ranked[j].Count {
			return ranked[i].Count > ranked[j].Count
		}
		return ranked[i].Platform < ranked[j].Platform
	})
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}
