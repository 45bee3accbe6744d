package cache

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/carelink/mission-service/internal/ports"
	"github.com/google/uuid"
)

// ErrMiss is returned by MemoryCache.Get for absent or expired keys.
var ErrMiss = errors.New("cache miss")

type memoryEntry struct {
	value     string
	expiresAt time.Time
}

func (e memoryEntry) live(now time.Time) bool {
	return e.expiresAt.IsZero() || now.Before(e.expiresAt)
}

// MemoryCache is the single-process stand-in used when no Redis URL is
// configured. Locks taken through it only exclude goroutines of this process.
type MemoryCache struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: map[string]memoryEntry{}, now: time.Now}
}

func (c *MemoryCache) Get(_ context.Context, key string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok || !e.live(c.now()) {
		delete(c.entries, key)
		return "", ErrMiss
	}
	return e.value, nil
}

func (c *MemoryCache) Set(_ context.Context, key, value string, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = memoryEntry{value: value, expiresAt: c.expiry(ttl)}
	return nil
}

func (c *MemoryCache) Delete(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.entries, k)
	}
	return nil
}

func (c *MemoryCache) IncrWithTTL(_ context.Context, key string, ttl time.Duration) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var n int64
	if e, ok := c.entries[key]; ok && e.live(c.now()) {
		parsed, err := strconv.ParseInt(e.value, 10, 64)
		if err != nil {
			return 0, err
		}
		n = parsed
	}
	n++
	c.entries[key] = memoryEntry{value: strconv.FormatInt(n, 10), expiresAt: c.expiry(ttl)}
	return n, nil
}

func (c *MemoryCache) TryLock(_ context.Context, key string, ttl time.Duration) (string, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	lockKey := "lock-owner:" + key
	if e, ok := c.entries[lockKey]; ok && e.live(c.now()) {
		return "", false, nil
	}
	token := uuid.NewString()
	c.entries[lockKey] = memoryEntry{value: token, expiresAt: c.expiry(ttl)}
	return token, true, nil
}

func (c *MemoryCache) Unlock(_ context.Context, key, token string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	lockKey := "lock-owner:" + key
	if e, ok := c.entries[lockKey]; ok && e.value == token {
		delete(c.entries, lockKey)
	}
	return nil
}

func (c *MemoryCache) expiry(ttl time.Duration) time.Time {
	if ttl <= 0 {
		return time.Time{}
	}
	return c.now().Add(ttl)
}

var (
	_ ports.Cache  = (*MemoryCache)(nil)
	_ ports.Locker = (*MemoryCache)(nil)
)
