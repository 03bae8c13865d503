package database

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/collabwave/collabwave/internal/config"
)

// NewRedis creates the client used for sessions and the activity summary
// cache, waiting until the server answers a ping.
func NewRedis(cfg config.RedisConfig) (*redis.Client, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parsing redis URL: %w", err)
	}

	client := redis.NewClient(opts)
	if err := waitReady("redis", func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	}); err != nil {
		_ = client.Close()
		return nil, err
	}
	return client, nil
}
