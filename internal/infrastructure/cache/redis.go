package cache

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Open connects to Redis from a redis:// URL and verifies the connection.
// An empty URL returns (nil, nil): Redis is optional and callers degrade
// (the expiration sweep then runs without a cross-instance lock).
func Open(ctx context.Context, url string) (*redis.Client, error) {
	if url == "" {
		return nil, nil
	}
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}
	rdb := redis.NewClient(opt)
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return rdb, nil
}
