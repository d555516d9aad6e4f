package records

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/vancomm/minesweeper-engine/internal/config"
)

// Redis keeps every best time as a member of one sorted set, scored by
// seconds.
type Redis struct {
	client *redis.Client
	key    string
}

func OpenRedis(ctx context.Context, c config.RedisConfig) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         c.Addr,
		Password:     c.Password,
		DB:           c.DB,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("unable to ping redis: %w", err)
	}
	return NewRedis(client, c.Key), nil
}

func NewRedis(client *redis.Client, key string) *Redis {
	return &Redis{client: client, key: key}
}

func (r *Redis) GetBest(ctx context.Context, key string) (int, bool, error) {
	score, err := r.client.ZScore(ctx, r.key, key).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	} else if err != nil {
		return 0, false, err
	}
	return int(score), true, nil
}

// SetBestIfBetter relies on ZADD LT, which only lowers an existing score, and
// CH, which counts updated members as changed.
func (r *Redis) SetBestIfBetter(ctx context.Context, key string, seconds int) (bool, error) {
	if err := checkTime(seconds); err != nil {
		return false, err
	}
	changed, err := r.client.ZAddArgs(ctx, r.key, redis.ZAddArgs{
		LT: true,
		Ch: true,
		Members: []redis.Z{
			{Score: float64(seconds), Member: key},
		},
	}).Result()
	if err != nil {
		return false, err
	}
	return changed == 1, nil
}

func (r *Redis) Close() error {
	return r.client.Close()
}
