package scores

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"

	"github.com/gravitas-games/haxagon/internal/board"
)

// recordRetries bounds optimistic retries when another client touches the
// same leaderboard mid-update.
const recordRetries = 5

// Redis keeps one sorted set per mode.
type Redis struct {
	client    *redis.Client
	keyPrefix string
}

// NewRedis creates a Redis-backed store.
func NewRedis(client *redis.Client, keyPrefix string) *Redis {
	if client == nil {
		panic("scores: redis client cannot be nil")
	}
	if keyPrefix == "" {
		keyPrefix = "haxagon:"
	}
	return &Redis{client: client, keyPrefix: keyPrefix}
}

func (r *Redis) leaderboardKey(mode board.ModeKey) string {
	return fmt.Sprintf("%sscores:%s", r.keyPrefix, mode)
}

func (r *Redis) Record(ctx context.Context, player string, mode board.ModeKey, score int) (Result, error) {
	if err := checkMode(mode); err != nil {
		return Result{}, err
	}
	if err := checkPlayer(player); err != nil {
		return Result{}, err
	}

	key := r.leaderboardKey(mode)
	var res Result
	update := func(tx *redis.Tx) error {
		prev, err := tx.ZScore(ctx, key, player).Result()
		had := true
		if errors.Is(err, redis.Nil) {
			had = false
		} else if err != nil {
			return err
		}
		res = merge(int(prev), had, score)
		if had && res.Best == res.Previous {
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.ZAdd(ctx, key, &redis.Z{Score: float64(res.Best), Member: player})
			return nil
		})
		return err
	}

	for attempt := 0; attempt < recordRetries; attempt++ {
		err := r.client.Watch(ctx, update, key)
		if err == nil {
			return res, nil
		}
		if !errors.Is(err, redis.TxFailedErr) {
			return Result{}, fmt.Errorf("redis: record score for %s in %s: %w", player, key, err)
		}
		logrus.WithFields(logrus.Fields{"player": player, "mode": mode}).Debug("score update raced, retrying")
	}
	return Result{}, fmt.Errorf("redis: record score for %s in %s: %w", player, key, redis.TxFailedErr)
}

func (r *Redis) Best(ctx context.Context, player string, mode board.ModeKey) (int, error) {
	key := r.leaderboardKey(mode)
	score, err := r.client.ZScore(ctx, key, player).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, ErrNotFound
		}
		return 0, fmt.Errorf("redis: best score for %s in %s: %w", player, key, err)
	}
	return int(score), nil
}

func (r *Redis) Top(ctx context.Context, mode board.ModeKey, n int) ([]Entry, error) {
	if n <= 0 {
		return []Entry{}, nil
	}
	key := r.leaderboardKey(mode)
	zs, err := r.client.ZRevRangeWithScores(ctx, key, 0, int64(n-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("redis: leaderboard %s: %w", key, err)
	}
	entries := make([]Entry, 0, len(zs))
	for _, z := range zs {
		player, _ := z.Member.(string)
		entries = append(entries, Entry{Player: player, Score: int(z.Score)})
	}
	return entries, nil
}
