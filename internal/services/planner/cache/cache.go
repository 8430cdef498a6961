// Package cache holds calculation results with TTL expiry and bounded,
// creation-order eviction. Mutations write through to the planner store so
// a restart recovers surviving entries.
package cache

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Swappnil85/Drishti-V2-sub003/internal/services/planner/domain"
	"github.com/Swappnil85/Drishti-V2-sub003/internal/services/planner/storage"
)

// Cache is a TTL and capacity bounded result cache.
type Cache struct {
	mu         sync.Mutex
	entries    map[string]domain.CacheEntry
	store      storage.CacheStore
	clock      func() time.Time
	maxEntries int
	defaultTTL time.Duration
}

// Option customizes a Cache.
type Option func(*Cache)

// WithClock overrides the time source.
func WithClock(clock func() time.Time) Option {
	return func(c *Cache) {
		if clock != nil {
			c.clock = clock
		}
	}
}

// WithMaxEntries bounds the cache size.
func WithMaxEntries(n int) Option {
	return func(c *Cache) {
		if n > 0 {
			c.maxEntries = n
		}
	}
}

// WithDefaultTTL sets the lifetime applied when Set receives no TTL.
func WithDefaultTTL(ttl time.Duration) Option {
	return func(c *Cache) {
		if ttl > 0 {
			c.defaultTTL = ttl
		}
	}
}

// New creates a cache. A nil store keeps the cache memory-only.
func New(store storage.CacheStore, opts ...Option) *Cache {
	c := &Cache{
		entries:    make(map[string]domain.CacheEntry),
		store:      store,
		clock:      time.Now,
		maxEntries: domain.DefaultMaxEntries,
		defaultTTL: domain.DefaultTTL,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Load warm-starts the cache from the store, dropping entries that expired
// while the process was down.
func (c *Cache) Load(ctx context.Context) error {
	if c == nil || c.store == nil {
		return nil
	}
	records, err := c.store.ListCacheEntries(ctx)
	if err != nil {
		return fmt.Errorf("load cache entries: %w", err)
	}

	now := c.clock()
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, record := range records {
		entry := domain.CacheEntry{
			Key:       record.Key,
			ValueJSON: record.ValueJSON,
			CreatedAt: record.CreatedAt,
			ExpiresAt: record.ExpiresAt,
		}
		if entry.Expired(now) {
			if err := c.store.DeleteCacheEntry(ctx, entry.Key); err != nil {
				log.Printf("drop expired cache entry %q: %v", entry.Key, err)
			}
			continue
		}
		c.entries[entry.Key] = entry
	}
	c.evictOverCapacityLocked(ctx)
	return nil
}

// Get returns the cached value for key if present and unexpired. An expired
// entry is evicted as part of the read.
func (c *Cache) Get(ctx context.Context, key string) (string, bool) {
	if c == nil {
		return "", false
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		return "", false
	}
	if entry.Expired(c.clock()) {
		delete(c.entries, key)
		if c.store != nil {
			if err := c.store.DeleteCacheEntry(ctx, key); err != nil {
				log.Printf("evict expired cache entry %q: %v", key, err)
			}
		}
		return "", false
	}
	return entry.ValueJSON, true
}

// Set inserts or overwrites the value for key. The entry is persisted
// before the in-memory cache acknowledges it; if the cache overflows, the
// oldest entries by creation time are evicted until back under the limit.
func (c *Cache) Set(ctx context.Context, key, valueJSON string, ttl time.Duration) error {
	if c == nil {
		return fmt.Errorf("cache is not configured")
	}
	if strings.TrimSpace(key) == "" {
		return fmt.Errorf("cache key is required")
	}
	if ttl <= 0 {
		ttl = c.defaultTTL
	}

	now := c.clock()
	entry := domain.CacheEntry{
		Key:       key,
		ValueJSON: valueJSON,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.store != nil {
		record := storage.CacheEntryRecord{
			Key:       entry.Key,
			ValueJSON: entry.ValueJSON,
			CreatedAt: entry.CreatedAt,
			ExpiresAt: entry.ExpiresAt,
		}
		if err := c.store.UpsertCacheEntry(ctx, record); err != nil {
			return fmt.Errorf("persist cache entry: %w", err)
		}
	}
	c.entries[key] = entry
	c.evictOverCapacityLocked(ctx)
	return nil
}

// Clear removes every entry whose key starts with prefix. An empty prefix
// clears the whole cache.
func (c *Cache) Clear(ctx context.Context, prefix string) error {
	if c == nil {
		return fmt.Errorf("cache is not configured")
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.store != nil {
		if err := c.store.DeleteCacheEntriesByPrefix(ctx, prefix); err != nil {
			return fmt.Errorf("clear cache entries: %w", err)
		}
	}
	if prefix == "" {
		c.entries = make(map[string]domain.CacheEntry)
		return nil
	}
	for key := range c.entries {
		if strings.HasPrefix(key, prefix) {
			delete(c.entries, key)
		}
	}
	return nil
}

// Size returns the number of live entries.
func (c *Cache) Size() int {
	if c == nil {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// evictOverCapacityLocked removes oldest-by-creation entries until the
// cache is back under its limit. Callers hold c.mu.
func (c *Cache) evictOverCapacityLocked(ctx context.Context) {
	surplus := len(c.entries) - c.maxEntries
	if surplus <= 0 {
		return
	}

	candidates := make([]domain.CacheEntry, 0, len(c.entries))
	for _, entry := range c.entries {
		candidates = append(candidates, entry)
	}
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].CreatedAt.Equal(candidates[j].CreatedAt) {
			return candidates[i].Key < candidates[j].Key
		}
		return candidates[i].CreatedAt.Before(candidates[j].CreatedAt)
	})

	for _, entry := range candidates[:surplus] {
		delete(c.entries, entry.Key)
		if c.store != nil {
			if err := c.store.DeleteCacheEntry(ctx, entry.Key); err != nil {
				log.Printf("evict cache entry %q: %v", entry.Key, err)
			}
		}
	}
}
