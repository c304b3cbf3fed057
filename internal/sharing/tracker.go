package sharing

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"share-analytics-service/internal/metrics"
)

// applyEvent issues the full fan-out of counter mutations for one accepted
// event as a single MULTI/EXEC batch: per-platform counter, content total,
// day/week/month buckets, global total, last-shared timestamp, leaderboard
// score and platform histogram. A concurrent reader sees either all of an
// event's effects or none of them.
//
// Bucket TTLs are queued in the same batch, after the increments, so each
// bucket expires relative to its last write rather than its creation.
func (s *Service) applyEvent(ctx context.Context, ev *ShareEvent) error {
	ts := ev.Timestamp
	day := dayLabel(ts)
	week := weekLabel(ts)
	month := monthLabel(ts)

	dKey := dailyKey(ev.ContentKey, day)
	wKey := weeklyKey(ev.ContentKey, week)
	mKey := monthlyKey(ev.ContentKey, month)

	start := time.Now()
	err := s.store.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, platformKey(ev.ContentKey, ev.Platform))
		pipe.Incr(ctx, totalKey(ev.ContentKey))
		pipe.Incr(ctx, dKey)
		pipe.Incr(ctx, wKey)
		pipe.Incr(ctx, mKey)
		pipe.Incr(ctx, globalTotalKey())
		pipe.Set(ctx, lastSharedKey(ev.ContentKey), ts.Format(time.RFC3339), 0)
		pipe.ZIncrBy(ctx, leaderboardKey(), 1, ev.ContentKey)
		pipe.HIncrBy(ctx, platformHistogramKey(), ev.Platform, 1)
		pipe.Expire(ctx, dKey, DailyTTL)
		pipe.Expire(ctx, wKey, WeeklyTTL)
		pipe.Expire(ctx, mKey, MonthlyTTL)
		return nil
	})
	metrics.RecordRedisOperation("track_batch", time.Since(start).Seconds(), err)
	return err
}
