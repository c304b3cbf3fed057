package sharing

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"share-analytics-service/internal/logger"
	"share-analytics-service/internal/metrics"
)

// appendEvent pushes the serialized event onto the head of the per-key log,
// trims the log to the most recent EventLogCap entries and refreshes its TTL.
// Called only after the counter batch committed.
func (s *Service) appendEvent(ctx context.Context, ev *ShareEvent) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}

	key := eventLogKey(ev.ContentKey)
	start := time.Now()
	err = s.store.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.LPush(ctx, key, payload)
		pipe.LTrim(ctx, key, 0, EventLogCap-1)
		pipe.Expire(ctx, key, EventLogTTL)
		return nil
	})
	metrics.RecordRedisOperation("event_append", time.Since(start).Seconds(), err)
	return err
}

// ReadEvents returns up to limit recent events for a content key, most
// recent first. Entries that fail to parse are skipped so one corrupt record
// can't poison the whole read.
func (s *Service) ReadEvents(ctx context.Context, contentKey string, limit int) ([]ShareEvent, error) {
	if limit <= 0 {
		limit = 100
	}

	raw, err := s.store.LRange(ctx, eventLogKey(contentKey), 0, int64(limit)-1)
	if err != nil {
		return nil, err
	}

	events := make([]ShareEvent, 0, len(raw))
	for _, entry := range raw {
		var ev ShareEvent
		if err := json.Unmarshal([]byte(entry), &ev); err != nil {
			logger.Log.Warn("skipping malformed event log entry",
				logger.WithContentKey(contentKey),
				zap.Error(err),
			)
			continue
		}
		events = append(events, ev)
	}
	return events, nil
}
