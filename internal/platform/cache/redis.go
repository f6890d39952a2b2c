package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// PingTimeout bounds the startup connectivity check.
const PingTimeout = 5 * time.Second

// Open creates a Redis client for addr. An empty addr returns a nil client,
// which callers treat as "caching disabled". A failed ping is returned together
// with the client so the process can start degraded and recover once Redis is back.
func Open(ctx context.Context, addr string) (*redis.Client, error) {
	if addr == "" {
		return nil, nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  time.Second,
		WriteTimeout: time.Second,
	})

	ctx, cancel := context.WithTimeout(ctx, PingTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return client, fmt.Errorf("platform/cache: ping: %w", err)
	}
	return client, nil
}
