package cache

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

// IndexPagePrefix keys cached index responses.
const IndexPagePrefix = "index_page"

// Pages is the page-level response cache. Entries expire by TTL;
// mutating handlers do not invalidate them, so readers inside the
// window observe a stale but consistent snapshot. InvalidatePrefix
// exists for operators and tests that need freshness immediately.
type Pages interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration)
	InvalidatePrefix(prefix string)
}

type RedisPages struct {
	redisClient *redis.Client
}

func NewRedisPages(redisClient *redis.Client) *RedisPages {
	return &RedisPages{redisClient: redisClient}
}

func (c *RedisPages) Get(key string) ([]byte, bool) {
	value, err := c.redisClient.Get(context.Background(), key).Bytes()
	if err != nil {
		return nil, false
	}
	return value, true
}

func (c *RedisPages) Set(key string, value []byte, ttl time.Duration) {
	err := c.redisClient.Set(context.Background(), key, value, ttl).Err()
	if err != nil {
		log.Errorf("Error caching page '%s': %v", key, err)
	}
}

func (c *RedisPages) InvalidatePrefix(prefix string) {
	ctx := context.Background()
	iter := c.redisClient.Scan(ctx, 0, prefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		c.redisClient.Del(ctx, iter.Val())
	}
	if err := iter.Err(); err != nil {
		log.Errorf("Error invalidating pages '%s*': %v", prefix, err)
	}
}

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

// MemoryPages is a process-local Pages implementation. Tests inject
// Now to control expiry.
type MemoryPages struct {
	mu      sync.Mutex
	entries map[string]memoryEntry

	Now func() time.Time
}

func NewMemoryPages() *MemoryPages {
	return &MemoryPages{
		entries: make(map[string]memoryEntry),
		Now:     time.Now,
	}
}

func (c *MemoryPages) Get(key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if c.Now().After(entry.expiresAt) {
		delete(c.entries, key)
		return nil, false
	}
	return entry.value, true
}

func (c *MemoryPages) Set(key string, value []byte, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = memoryEntry{
		value:     value,
		expiresAt: c.Now().Add(ttl),
	}
}

func (c *MemoryPages) InvalidatePrefix(prefix string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for key := range c.entries {
		if strings.HasPrefix(key, prefix) {
			delete(c.entries, key)
		}
	}
}
