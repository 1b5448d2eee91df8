package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis is a sliding-window limiter backed by a Redis sorted set per key,
// scored by request timestamp. State survives restarts and is shared across
// instances.
type Redis struct {
	client *redis.Client
	limit  int
	window time.Duration
	prefix string
	now    func() time.Time
}

// NewRedis connects to the given Redis URL and verifies the connection.
func NewRedis(redisURL string, limit int, window time.Duration) (*Redis, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return &Redis{
		client: client,
		limit:  limit,
		window: window,
		prefix: "ratelimit:",
		now:    time.Now,
	}, nil
}

// NewRedisWithClient creates a limiter from an existing Redis client.
func NewRedisWithClient(client *redis.Client, limit int, window time.Duration) *Redis {
	return &Redis{
		client: client,
		limit:  limit,
		window: window,
		prefix: "ratelimit:",
		now:    time.Now,
	}
}

func (r *Redis) key(id string) string {
	return r.prefix + id
}

func (r *Redis) Allow(ctx context.Context, id string) (bool, error) {
	key := r.key(id)
	now := r.now()
	cutoff := now.Add(-r.window).UnixNano()

	if err := r.client.ZRemRangeByScore(ctx, key, "-inf", strconv.FormatInt(cutoff, 10)).Err(); err != nil {
		return false, fmt.Errorf("prune window: %w", err)
	}

	count, err := r.client.ZCard(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("count window: %w", err)
	}
	if count >= int64(r.limit) {
		return false, nil
	}

	member := strconv.FormatInt(now.UnixNano(), 10)
	if err := r.client.ZAdd(ctx, key, redis.Z{
		Score:  float64(now.UnixNano()),
		Member: member,
	}).Err(); err != nil {
		return false, fmt.Errorf("record request: %w", err)
	}

	if err := r.client.Expire(ctx, key, r.window).Err(); err != nil {
		return false, fmt.Errorf("set window expiry: %w", err)
	}

	return true, nil
}

// Close closes the Redis connection.
func (r *Redis) Close() error {
	return r.client.Close()
}
