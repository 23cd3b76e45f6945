// Package cache stores rendered property listing responses in Redis.
//
// Entry keys embed a generation counter. A write bumps the counter before
// its response is sent, so later reads look up keys no earlier read could
// have filled. Entries from old generations are unreachable and are dropped
// by Purge or their TTL. The view counter is not a write and cached pages
// may show older counts until the TTL passes.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/dcode-github/real_estate_listing/logger"
	"github.com/dcode-github/real_estate_listing/metrics"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	keyPrefix = "property:"
	scanCount = 100

	// generationKey sits outside the keyPrefix pattern so Purge never removes it.
	generationKey = "property-generation"
)

type PropertyCache struct {
	client *redis.Client
	ttl    time.Duration
}

// New returns a cache over client. A nil client yields a cache that always misses.
func New(client *redis.Client, ttl time.Duration) *PropertyCache {
	return &PropertyCache{client: client, ttl: ttl}
}

func (c *PropertyCache) Enabled() bool {
	return c != nil && c.client != nil
}

// Key derives a stable key from a generation, a scope and the request query,
// independent of parameter order.
func Key(gen int64, scope string, query url.Values) string {
	keys := make([]string, 0, len(query))
	for k := range query {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	sb.WriteString(scope)
	sb.WriteString(":")
	for _, key := range keys {
		values := append([]string(nil), query[key]...)
		sort.Strings(values)
		for _, val := range values {
			sb.WriteString(key)
			sb.WriteString("=")
			sb.WriteString(val)
			sb.WriteString("&")
		}
	}
	rawKey := strings.TrimSuffix(sb.String(), "&")

	sum := sha256.Sum256([]byte(rawKey))
	return generationPrefix(gen) + hex.EncodeToString(sum[:])
}

func generationPrefix(gen int64) string {
	return keyPrefix + strconv.FormatInt(gen, 10) + ":"
}

// keyGeneration extracts the generation from an entry key. Keys without one
// sort before every generation.
func keyGeneration(key string) int64 {
	rest := strings.TrimPrefix(key, keyPrefix)
	i := strings.Index(rest, ":")
	if i < 0 {
		return -1
	}
	gen, err := strconv.ParseInt(rest[:i], 10, 64)
	if err != nil {
		return -1
	}
	return gen
}

// Generation returns the current cache generation. A missing counter is generation 0.
func (c *PropertyCache) Generation(ctx context.Context) (int64, error) {
	if !c.Enabled() {
		return 0, nil
	}
	gen, err := c.client.Get(ctx, generationKey).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return gen, err
}

// KeyFor returns the key for scope and query under the current generation.
// It reports false when the cache is disabled or the generation is unreadable,
// and the caller should then bypass the cache.
func (c *PropertyCache) KeyFor(ctx context.Context, scope string, query url.Values) (string, bool) {
	if !c.Enabled() {
		return "", false
	}
	gen, err := c.Generation(ctx)
	if err != nil {
		logger.FromContext(ctx).Warn("Failed to read cache generation", zap.Error(err))
		return "", false
	}
	return Key(gen, scope, query), true
}

func (c *PropertyCache) Get(ctx context.Context, key string) ([]byte, bool) {
	if !c.Enabled() {
		return nil, false
	}
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			logger.FromContext(ctx).Warn("Redis GET failed", zap.String("key", key), zap.Error(err))
		}
		metrics.CacheLookups.WithLabelValues("miss").Inc()
		return nil, false
	}
	metrics.CacheLookups.WithLabelValues("hit").Inc()
	return data, true
}

func (c *PropertyCache) Set(ctx context.Context, key string, data []byte) {
	if !c.Enabled() {
		return
	}
	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		logger.FromContext(ctx).Warn("Failed to cache response", zap.String("key", key), zap.Error(err))
	}
}

// Invalidate moves the cache to a new generation, making every existing entry
// unreachable. It returns the new generation.
func (c *PropertyCache) Invalidate(ctx context.Context) (int64, error) {
	if !c.Enabled() {
		return 0, nil
	}
	return c.client.Incr(ctx, generationKey).Result()
}

// Purge deletes entries that belong to generations older than the current one.
// It returns the number of keys removed.
func (c *PropertyCache) Purge(ctx context.Context) (int, error) {
	if !c.Enabled() {
		return 0, nil
	}
	gen, err := c.Generation(ctx)
	if err != nil {
		return 0, err
	}

	var keysToDelete []string
	var cursor uint64
	for {
		keys, next, err := c.client.Scan(ctx, cursor, keyPrefix+"*", scanCount).Result()
		if err != nil {
			return 0, err
		}
		for _, key := range keys {
			if keyGeneration(key) < gen {
				keysToDelete = append(keysToDelete, key)
			}
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}
	if len(keysToDelete) == 0 {
		return 0, nil
	}

	pipe := c.client.Pipeline()
	for _, key := range keysToDelete {
		pipe.Del(ctx, key)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}
	return len(keysToDelete), nil
}
