package cache

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"survivor-pool-go/logging"
)

// PageCache holds rendered page fragments in Redis so dashboard and
// pool pages don't hit the database on every request. Writes to picks,
// memberships, and results invalidate the affected keys. A nil
// *PageCache is valid and disables caching entirely.
type PageCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *logging.Logger
}

// Connect opens a Redis connection and verifies it with a ping
func Connect(addr string, ttl time.Duration) (*PageCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, err
	}

	return &PageCache{
		client: client,
		ttl:    ttl,
		logger: logging.WithPrefix("PageCache"),
	}, nil
}

// DashboardKey returns the cache key for a user's dashboard
func DashboardKey(userID int) string {
	return "page:dashboard:" + strconv.Itoa(userID)
}

// PoolKey returns the cache key for one user's view of a pool detail
// page. The page includes the viewer's pick form and history, so it
// cannot be shared across users.
func PoolKey(poolID string, userID int) string {
	return "page:pool:" + poolID + ":" + strconv.Itoa(userID)
}

// Get returns the cached fragment for key, or "" on miss or error.
// Cache errors degrade to a miss; they never fail the request.
func (c *PageCache) Get(ctx context.Context, key string) string {
	if c == nil {
		return ""
	}

	value, err := c.client.Get(ctx, key).Result()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warnf("Get %s failed: %v", key, err)
		}
		return ""
	}
	return value
}

// Set stores a fragment under key with the configured TTL
func (c *PageCache) Set(ctx context.Context, key, value string) {
	if c == nil {
		return
	}

	if err := c.client.Set(ctx, key, value, c.ttl).Err(); err != nil {
		c.logger.Warnf("Set %s failed: %v", key, err)
	}
}

// Invalidate removes the given keys so the next read rebuilds them
func (c *PageCache) Invalidate(ctx context.Context, keys ...string) {
	if c == nil || len(keys) == 0 {
		return
	}

	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		c.logger.Warnf("Invalidate %v failed: %v", keys, err)
	}
}

// InvalidatePool removes every user's cached view of a pool page
func (c *PageCache) InvalidatePool(ctx context.Context, poolID string) {
	if c == nil {
		return
	}

	pattern := "page:pool:" + poolID + ":*"
	iter := c.client.Scan(ctx, 0, pattern, 0).Iterator()
	keys := make([]string, 0)
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		c.logger.Warnf("Scan %s failed: %v", pattern, err)
		return
	}
	c.Invalidate(ctx, keys...)
}

// InvalidateDashboards removes the dashboard entries of all given users
func (c *PageCache) InvalidateDashboards(ctx context.Context, userIDs []int) {
	if c == nil {
		return
	}

	keys := make([]string, 0, len(userIDs))
	for _, userID := range userIDs {
		keys = append(keys, DashboardKey(userID))
	}
	c.Invalidate(ctx, keys...)
}

// Close releases the Redis connection
func (c *PageCache) Close() error {
	if c == nil {
		return nil
	}
	return c.client.Close()
}
