package webhook

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// ReplayGuard remembers delivered webhook signatures for a bounded time.
// Implementations must be safe for concurrent use.
type ReplayGuard interface {
	// Claim records key and reports whether this is its first delivery.
	Claim(ctx context.Context, key string) (bool, error)
	// Release forgets key so a failed delivery can be retried.
	Release(ctx context.Context, key string) error
}

// RedisReplayGuard stores claimed keys in Redis with SET NX so every API
// instance shares the same view.
type RedisReplayGuard struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisReplayGuard creates a Redis-backed replay guard.
func NewRedisReplayGuard(client *redis.Client, ttl time.Duration) *RedisReplayGuard {
	return &RedisReplayGuard{
		client: client,
		prefix: "webhook:seen:",
		ttl:    ttl,
	}
}

// Claim sets the key only if it does not already exist.
func (g *RedisReplayGuard) Claim(ctx context.Context, key string) (bool, error) {
	ok, err := g.client.SetNX(ctx, g.prefix+key, 1, g.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("claim webhook key: %w", err)
	}
	return ok, nil
}

// Release deletes the key.
func (g *RedisReplayGuard) Release(ctx context.Context, key string) error {
	if err := g.client.Del(ctx, g.prefix+key).Err(); err != nil {
		return fmt.Errorf("release webhook key: %w", err)
	}
	return nil
}

// MemoryReplayGuard is an in-memory ReplayGuard for development and
// single-instance deployments. Entries expire after the configured TTL.
type MemoryReplayGuard struct {
	mu      sync.Mutex
	entries map[string]time.Time
	ttl     time.Duration
	now     func() time.Time
}

// NewMemoryReplayGuard creates an in-memory replay guard. Expired entries
// are removed lazily on access.
func NewMemoryReplayGuard(ttl time.Duration) *MemoryReplayGuard {
	return &MemoryReplayGuard{
		entries: make(map[string]time.Time),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Claim records key unless an unexpired entry already exists.
func (g *MemoryReplayGuard) Claim(_ context.Context, key string) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	if ts, exists := g.entries[key]; exists && now.Sub(ts) <= g.ttl {
		return false, nil
	}
	g.entries[key] = now
	g.evictExpired(now)
	return true, nil
}

// Release removes key.
func (g *MemoryReplayGuard) Release(_ context.Context, key string) error {
	g.mu.Lock()
	delete(g.entries, key)
	g.mu.Unlock()
	return nil
}

// Len returns the number of entries, including expired ones not yet evicted.
func (g *MemoryReplayGuard) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.entries)
}

func (g *MemoryReplayGuard) evictExpired(now time.Time) {
	for k, ts := range g.entries {
		if now.Sub(ts) > g.ttl {
			delete(g.entries, k)
		}
	}
}
