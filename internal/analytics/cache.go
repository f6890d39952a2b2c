package analytics

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

const (
	cacheVersionKey = "shopledger:reports:version"
	bumpChannel     = "shopledger.ledger.bump"
)

// Cache stores report payloads in Redis under a global version number.
// Bumping the version orphans every cached report at once.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
	fills  singleflight.Group
}

// NewCache instantiates the cache helper. A nil client disables caching.
func NewCache(client *redis.Client, ttl time.Duration, logger *slog.Logger) *Cache {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cache{client: client, ttl: ttl, logger: logger}
}

func (c *Cache) enabled() bool {
	return c != nil && c.client != nil
}

// Version returns the current cache version, initialising when missing.
func (c *Cache) Version(ctx context.Context) (int64, error) {
	if !c.enabled() {
		return 0, nil
	}
	ver, err := c.client.Get(ctx, cacheVersionKey).Int64()
	if errors.Is(err, redis.Nil) || (err == nil && ver <= 0) {
		// SETNX so two first readers agree on the starting version.
		if err := c.client.SetNX(ctx, cacheVersionKey, 1, 0).Err(); err != nil {
			return 0, err
		}
		return c.client.Get(ctx, cacheVersionKey).Int64()
	}
	return ver, err
}

// BuildKey composes the cache key with the current version.
func (c *Cache) BuildKey(ctx context.Context, parts ...string) (string, error) {
	joined := strings.Join(append([]string{"shopledger", "reports"}, parts...), ":")
	if !c.enabled() {
		return joined, nil
	}
	ver, err := c.Version(ctx)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s:v%d", joined, ver), nil
}

// FetchJSON decodes the cached value at key into dest, running loader on a miss.
// Concurrent misses for one key share a single loader call. Redis failures
// are logged and the loader result is served uncached.
func (c *Cache) FetchJSON(ctx context.Context, key string, dest any, loader func(context.Context) (any, error)) error {
	if loader == nil {
		return errors.New("analytics: cache loader required")
	}
	if !c.enabled() {
		return load(ctx, dest, loader)
	}
	payload, err := c.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		return json.Unmarshal(payload, dest)
	case !errors.Is(err, redis.Nil):
		c.logger.Warn("report cache read failed", slog.String("key", key), slog.Any("error", err))
		return load(ctx, dest, loader)
	}

	raw, err, _ := c.fills.Do(key, func() (any, error) {
		value, err := loader(ctx)
		if err != nil {
			return nil, err
		}
		raw, err := json.Marshal(value)
		if err != nil {
			return nil, err
		}
		if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
			c.logger.Warn("report cache write failed", slog.String("key", key), slog.Any("error", err))
		}
		return raw, nil
	})
	if err != nil {
		return err
	}
	return json.Unmarshal(raw.([]byte), dest)
}

func load(ctx context.Context, dest any, loader func(context.Context) (any, error)) error {
	value, err := loader(ctx)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, dest)
}

// Bump invalidates every cached report and announces the new version.
func (c *Cache) Bump(ctx context.Context) (int64, error) {
	if !c.enabled() {
		return 0, nil
	}
	ver, err := c.client.Incr(ctx, cacheVersionKey).Result()
	if err != nil {
		return 0, err
	}
	return ver, c.client.Publish(ctx, bumpChannel, strconv.FormatInt(ver, 10)).Err()
}
