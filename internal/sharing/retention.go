package sharing

import (
	"context"

	"go.uber.org/zap"

	"share-analytics-service/internal/logger"
)

// DeleteContent removes one content key's data: total, last-shared, event
// log, every known per-platform counter, and its leaderboard entry. Dedup
// tokens and time buckets are left to expire on their own TTLs.
// Returns whether anything existed plus the number of keys removed.
func (s *Service) DeleteContent(ctx context.Context, contentKey string) (bool, int64, error) {
	keys := []string{
		totalKey(contentKey),
		lastSharedKey(contentKey),
		eventLogKey(contentKey),
	}
	for _, p := range Platforms {
		keys = append(keys, platformKey(contentKey, p))
	}

	removed, err := s.store.Del(ctx, keys...)
	if err != nil {
		return false, 0, err
	}

	unranked, err := s.store.ZRem(ctx, leaderboardKey(), contentKey)
	if err != nil {
		return false, 0, err
	}

	logger.Log.Info("content share data deleted",
		logger.WithContentKey(contentKey),
		zap.Int64("keys_removed", removed),
	)
	return removed > 0 || unranked > 0, removed, nil
}

// DeleteAll wipes every key under the subsystem namespace via SCAN, for
// operational resets only. Returns the number of keys removed.
func (s *Service) DeleteAll(ctx context.Context) (int64, error) {
	var removed int64
	err := s.store.Scan(ctx, NamespacePattern(), func(keys []string) error {
		n, err := s.store.Del(ctx, keys...)
		removed += n
		return err
	})
	if err != nil {
		return removed, err
	}

	logger.Log.Warn("share namespace purged",
		zap.Int64("keys_removed", removed),
	)
	return removed, nil
}
