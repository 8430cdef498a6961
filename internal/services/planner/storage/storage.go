// Package storage defines the persistence boundary for the planner service.
package storage

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound indicates a queue item or cache entry was not found.
var ErrNotFound = errors.New("planner record not found")

// QueueItemRecord is the persisted form of one queued calculation.
type QueueItemRecord struct {
	ID         string
	Kind       string
	ParamsJSON string
	Priority   string
	Sequence   uint64
	EnqueuedAt time.Time
	RetryCount int
	MaxRetries int
}

// CacheEntryRecord is the persisted form of one cached result.
type CacheEntryRecord struct {
	Key       string
	ValueJSON string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// QueueStore persists queued calculations. Every queue mutation is written
// through before the in-memory structure acknowledges it.
type QueueStore interface {
	UpsertQueueItem(ctx context.Context, item QueueItemRecord) error
	DeleteQueueItem(ctx context.Context, id string) error
	ListQueueItems(ctx context.Context) ([]QueueItemRecord, error)
	MaxQueueSequence(ctx context.Context) (uint64, error)
}

// CacheStore persists cached results for warm starts.
type CacheStore interface {
	UpsertCacheEntry(ctx context.Context, entry CacheEntryRecord) error
	DeleteCacheEntry(ctx context.Context, key string) error
	DeleteCacheEntriesByPrefix(ctx context.Context, prefix string) error
	ListCacheEntries(ctx context.Context) ([]CacheEntryRecord, error)
}

// Store is the full planner persistence surface.
type Store interface {
	QueueStore
	CacheStore
}
