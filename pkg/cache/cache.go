// Package cache provides an optional Redis-backed cache for API response
// pages. The upstream service sends no cache-validation headers, so entries
// simply live for a fixed TTL; Redis evicts them on its own.
package cache

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/zeebo/xxh3"
)

var (
	// ErrCacheMiss indicates the requested key was not found in cache.
	ErrCacheMiss = errors.New("cache miss")
)

// Key identifies one cached response page by the request that produced it.
// Session credentials are deliberately not part of the key.
type Key struct {
	// Endpoint is the API endpoint path (e.g. "/posts.json").
	Endpoint string

	// Query are the request's query parameters.
	Query url.Values
}

// String generates a deterministic Redis key. The query is canonicalized
// (sorted, encoded) and hashed so that key length stays bounded no matter how
// long the tag list gets.
//
// Format: booru:page:<endpoint>:<xxh3 of canonical query>
func (k Key) String() string {
	names := make([]string, 0, len(k.Query))
	for name := range k.Query {
		names = append(names, name)
	}
	sort.Strings(names)

	var canonical strings.Builder
	for _, name := range names {
		for _, value := range k.Query[name] {
			canonical.WriteString(name)
			canonical.WriteByte('=')
			canonical.WriteString(value)
			canonical.WriteByte('&')
		}
	}

	return fmt.Sprintf("booru:page:%s:%s",
		strings.Trim(k.Endpoint, "/"),
		strconv.FormatUint(xxh3.HashString(canonical.String()), 16))
}

// Manager handles cache operations with a Redis backend.
type Manager struct {
	redis *redis.Client
	ttl   time.Duration
}

// NewManager creates a cache manager storing entries for the given TTL.
func NewManager(redisClient *redis.Client, ttl time.Duration) *Manager {
	if redisClient == nil {
		panic("redis client cannot be nil")
	}
	if ttl <= 0 {
		panic("cache TTL must be positive")
	}
	return &Manager{
		redis: redisClient,
		ttl:   ttl,
	}
}

// Get retrieves a cached response body. Returns ErrCacheMiss when the key is
// absent or already evicted.
func (m *Manager) Get(ctx context.Context, key Key) ([]byte, error) {
	data, err := m.redis.Get(ctx, key.String()).Bytes()
	if err != nil {
		if err == redis.Nil {
			cacheMisses.Inc()
			return nil, ErrCacheMiss
		}
		cacheErrors.WithLabelValues("get").Inc()
		return nil, fmt.Errorf("redis get: %w", err)
	}

	cacheHits.Inc()
	return data, nil
}

// Set stores a response body under the manager's TTL.
func (m *Manager) Set(ctx context.Context, key Key, body []byte) error {
	if err := m.redis.Set(ctx, key.String(), body, m.ttl).Err(); err != nil {
		cacheErrors.WithLabelValues("set").Inc()
		return fmt.Errorf("redis set: %w", err)
	}
	cacheStores.Inc()
	return nil
}

// Delete removes a cached response body.
func (m *Manager) Delete(ctx context.Context, key Key) error {
	if err := m.redis.Del(ctx, key.String()).Err(); err != nil {
		cacheErrors.WithLabelValues("delete").Inc()
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}
