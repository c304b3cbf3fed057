package sharing

import (
	"context"
	"time"

	"share-analytics-service/internal/metrics"
)

// tryAcceptEvent is the idempotency gate: a single SETNX-with-expiry decides
// whether this (client, content, platform) triple has been counted within the
// dedup window. Two concurrent callers for the same triple get exactly one
// true, the store's atomicity does the mutual exclusion.
//
// A store error fails the request rather than letting the event through;
// an open gate would admit uncontrolled duplicate counting.
func (s *Service) tryAcceptEvent(ctx context.Context, clientIPHash, contentKey, platform string) (bool, error) {
	start := time.Now()
	created, err := s.store.SetNX(ctx, dedupKey(clientIPHash, contentKey, platform), 1, DedupWindow)
	metrics.RecordRedisOperation("setnx", time.Since(start).Seconds(), err)
	if err != nil {
		return false, err
	}
	return created, nil
}
