// Package sharing implements the engagement analytics counter service: it
// records share events for content items, deduplicates repeats within a
// rolling window, aggregates counts across day/week/month buckets and serves
// per-item and global statistics. All shared state lives in Redis; handlers
// stay stateless and correctness rests on the store's atomic primitives
// (SETNX for the dedup gate, MULTI/EXEC for counter batches).
package sharing

import (
	"context"
	"time"

	"go.uber.org/zap"

	"share-analytics-service/internal/cache"
	"share-analytics-service/internal/logger"
)

// Service coordinates the dedup gate, counter updates, event log and
// reporting. The store client is injected; the service holds no other state.
type Service struct {
	store *cache.RedisClient

	// Now is the clock used for bucket labels and server-assigned
	// timestamps. Overridable in tests.
	Now func() time.Time
}

// NewService creates a share tracking service on top of an injected store
func NewService(store *cache.RedisClient) *Service {
	return &Service{
		store: store,
		Now:   time.Now,
	}
}

// TrackShare runs the full write path for one inbound event: dedup gate,
// atomic counter batch, then event log append (log-after-commit). It returns
// whether the event was novel plus the freshly recomputed stats.
//
// Failure semantics are asymmetric on purpose: any store failure before the
// counter batch commits fails the whole call (an event that cannot be durably
// counted must not be reported as counted), while a failed log append after a
// committed batch only logs a warning.
func (s *Service) TrackShare(ctx context.Context, ev *ShareEvent) (bool, *ShareStats, error) {
	accepted, err := s.tryAcceptEvent(ctx, ev.ClientIPHash, ev.ContentKey, ev.Platform)
	if err != nil {
		return false, nil, err
	}

	if !accepted {
		// Duplicate within the dedup window: counters untouched,
		// current stats echoed back
		return false, s.GetStats(ctx, ev.ContentKey), nil
	}

	if err := s.applyEvent(ctx, ev); err != nil {
		return false, nil, err
	}

	if err := s.appendEvent(ctx, ev); err != nil {
		// The batch is already committed; losing one audit log entry is
		// acceptable, losing the count would not be
		logger.Log.Warn("event log append failed",
			logger.WithContentKey(ev.ContentKey),
			zap.Error(err),
		)
	}

	return true, s.GetStats(ctx, ev.ContentKey), nil
}
