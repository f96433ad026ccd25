package redis

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
)

const leaderboardKey = "leaderboard:coins"

// Leaderboard ranks accounts by coin balance in a Redis sorted set.
// Scores mirror the Postgres balances; Postgres stays authoritative and
// the set is rebuilt lazily as accounts earn or lose coins.
type Leaderboard struct {
	rdb *goredis.Client
}

func NewLeaderboard(rdb *goredis.Client) *Leaderboard {
	return &Leaderboard{rdb: rdb}
}

func (l *Leaderboard) SetScore(ctx context.Context, accountID uuid.UUID, coins int) error {
	err := l.rdb.ZAdd(ctx, leaderboardKey, goredis.Z{
		Score:  float64(coins),
		Member: accountID.String(),
	}).Err()
	if err != nil {
		return fmt.Errorf("failed to set leaderboard score: %w", err)
	}
	return nil
}

// Top returns the n highest balances, best first. Members that are not
// valid UUIDs are skipped rather than failing the whole read.
func (l *Leaderboard) Top(ctx context.Context, n int) ([]uuid.UUID, []int, error) {
	if n <= 0 {
		return []uuid.UUID{}, []int{}, nil
	}

	entries, err := l.rdb.ZRevRangeWithScores(ctx, leaderboardKey, 0, int64(n-1)).Result()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read leaderboard: %w", err)
	}

	ids := make([]uuid.UUID, 0, len(entries))
	scores := make([]int, 0, len(entries))
	for _, entry := range entries {
		member, ok := entry.Member.(string)
		if !ok {
			continue
		}
		id, err := uuid.Parse(member)
		if err != nil {
			continue
		}
		ids = append(ids, id)
		scores = append(scores, int(entry.Score))
	}
	return ids, scores, nil
}

func (l *Leaderboard) Remove(ctx context.Context, accountID uuid.UUID) error {
	if err := l.rdb.ZRem(ctx, leaderboardKey, accountID.String()).Err(); err != nil {
		return fmt.Errorf("failed to remove leaderboard entry: %w", err)
	}
	return nil
}
