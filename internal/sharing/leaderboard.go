package sharing

import (
	"context"
)

// TopContent returns the n highest-scored content keys from the global
// leaderboard, best first. Scores track each key's total share count because
// both are incremented in the same transaction.
func (s *Service) TopContent(ctx context.Context, n int) ([]ContentCount, error) {
	if n <= 0 {
		return []ContentCount{}, nil
	}

	entries, err := s.store.ZRevRangeWithScores(ctx, leaderboardKey(), 0, int64(n)-1)
	if err != nil {
		return nil, err
	}

	top := make([]ContentCount, 0, len(entries))
	for _, entry := range entries {
		key, ok := entry.Member.(string)
		if !ok {
			continue
		}
		top = append(top, ContentCount{ContentKey: key, Count: int64(entry.Score)})
	}
	return top, nil
}
