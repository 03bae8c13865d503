package activity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// summaryKey is the Redis key holding the cached dashboard summary.
const summaryKey = "activity:summary"

// SummaryCache stores the dashboard summary between requests. A miss is
// reported as (nil, nil).
type SummaryCache interface {
	Get(ctx context.Context) (*Summary, error)
	Set(ctx context.Context, s *Summary) error
	Invalidate(ctx context.Context) error
}

// redisSummaryCache implements SummaryCache with a single JSON value and a
// fixed TTL.
type redisSummaryCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisSummaryCache creates a summary cache on the given client.
func NewRedisSummaryCache(client *redis.Client, ttl time.Duration) SummaryCache {
	return &redisSummaryCache{client: client, ttl: ttl}
}

func (c *redisSummaryCache) Get(ctx context.Context) (*Summary, error) {
	data, err := c.client.Get(ctx, summaryKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading cached summary: %w", err)
	}

	var s Summary
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decoding cached summary: %w", err)
	}
	return &s, nil
}

func (c *redisSummaryCache) Set(ctx context.Context, s *Summary) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encoding summary: %w", err)
	}
	if err := c.client.Set(ctx, summaryKey, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("caching summary: %w", err)
	}
	return nil
}

func (c *redisSummaryCache) Invalidate(ctx context.Context) error {
	if err := c.client.Del(ctx, summaryKey).Err(); err != nil {
		return fmt.Errorf("invalidating cached summary: %w", err)
	}
	return nil
}
