// Package sqlite implements planner storage over a SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/Swappnil85/Drishti-V2-sub003/internal/platform/storage/sqlitemigrate"
	plannerstorage "github.com/Swappnil85/Drishti-V2-sub003/internal/services/planner/storage"
	"github.com/Swappnil85/Drishti-V2-sub003/internal/services/planner/storage/sqlite/migrations"
)

// Store persists planner queue items and cache entries in SQLite.
type Store struct {
	sqlDB *sql.DB
}

// Open opens the planner database at path and applies migrations.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}

	cleanPath := filepath.Clean(path)
	dsn := cleanPath + "?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := sqlitemigrate.Apply(sqlDB, migrations.FS); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("apply planner migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// UpsertQueueItem inserts or overwrites one queued calculation.
func (s *Store) UpsertQueueItem(ctx context.Context, item plannerstorage.QueueItemRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	item.ID = strings.TrimSpace(item.ID)
	if item.ID == "" {
		return fmt.Errorf("queue item id is required")
	}
	if strings.TrimSpace(item.Kind) == "" {
		return fmt.Errorf("queue item kind is required")
	}
	if item.EnqueuedAt.IsZero() {
		item.EnqueuedAt = time.Now().UTC()
	}

	_, err := s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO calc_queue_items (
		    id, kind, params_json, priority, sequence, enqueued_at, retry_count, max_retries
		 ) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		    kind = excluded.kind,
		    params_json = excluded.params_json,
		    priority = excluded.priority,
		    sequence = excluded.sequence,
		    enqueued_at = excluded.enqueued_at,
		    retry_count = excluded.retry_count,
		    max_retries = excluded.max_retries`,
		item.ID,
		item.Kind,
		item.ParamsJSON,
		item.Priority,
		int64(item.Sequence),
		toMillis(item.EnqueuedAt),
		item.RetryCount,
		item.MaxRetries,
	)
	if err != nil {
		return fmt.Errorf("upsert queue item: %w", err)
	}
	return nil
}

// DeleteQueueItem removes one queued calculation by id.
func (s *Store) DeleteQueueItem(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return fmt.Errorf("queue item id is required")
	}

	result, err := s.sqlDB.ExecContext(ctx, `DELETE FROM calc_queue_items WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete queue item: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete queue item: %w", err)
	}
	if affected == 0 {
		return plannerstorage.ErrNotFound
	}
	return nil
}

// ListQueueItems loads every queued calculation ordered by sequence.
func (s *Store) ListQueueItems(ctx context.Context) ([]plannerstorage.QueueItemRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}

	rows, err := s.sqlDB.QueryContext(
		ctx,
		`SELECT id, kind, params_json, priority, sequence, enqueued_at, retry_count, max_retries
		 FROM calc_queue_items
		 ORDER BY sequence ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("list queue items: %w", err)
	}
	defer rows.Close()

	var items []plannerstorage.QueueItemRecord
	for rows.Next() {
		var item plannerstorage.QueueItemRecord
		var sequence int64
		var enqueuedAt int64
		if err := rows.Scan(
			&item.ID,
			&item.Kind,
			&item.ParamsJSON,
			&item.Priority,
			&sequence,
			&enqueuedAt,
			&item.RetryCount,
			&item.MaxRetries,
		); err != nil {
			return nil, fmt.Errorf("scan queue item: %w", err)
		}
		item.Sequence = uint64(sequence)
		item.EnqueuedAt = fromMillis(enqueuedAt)
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list queue items: %w", err)
	}
	return items, nil
}

// MaxQueueSequence returns the largest persisted sequence, or zero when the
// queue is empty. The queue seeds its counter from this on startup.
func (s *Store) MaxQueueSequence(ctx context.Context) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if s == nil || s.sqlDB == nil {
		return 0, fmt.Errorf("storage is not configured")
	}

	var max sql.NullInt64
	row := s.sqlDB.QueryRowContext(ctx, `SELECT MAX(sequence) FROM calc_queue_items`)
	if err := row.Scan(&max); err != nil {
		return 0, fmt.Errorf("max queue sequence: %w", err)
	}
	if !max.Valid || max.Int64 < 0 {
		return 0, nil
	}
	return uint64(max.Int64), nil
}

// UpsertCacheEntry inserts or overwrites one cached result.
func (s *Store) UpsertCacheEntry(ctx context.Context, entry plannerstorage.CacheEntryRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	entry.Key = strings.TrimSpace(entry.Key)
	if entry.Key == "" {
		return fmt.Errorf("cache entry key is required")
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	_, err := s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO calc_cache_entries (key, value_json, created_at, expires_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET
		    value_json = excluded.value_json,
		    created_at = excluded.created_at,
		    expires_at = excluded.expires_at`,
		entry.Key,
		entry.ValueJSON,
		toMillis(entry.CreatedAt),
		toMillis(entry.ExpiresAt),
	)
	if err != nil {
		return fmt.Errorf("upsert cache entry: %w", err)
	}
	return nil
}

// DeleteCacheEntry removes one cached result by key.
func (s *Store) DeleteCacheEntry(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return fmt.Errorf("cache entry key is required")
	}

	if _, err := s.sqlDB.ExecContext(ctx, `DELETE FROM calc_cache_entries WHERE key = ?`, key); err != nil {
		return fmt.Errorf("delete cache entry: %w", err)
	}
	return nil
}

// DeleteCacheEntriesByPrefix removes every cached result whose key starts
// with prefix. An empty prefix clears the table.
func (s *Store) DeleteCacheEntriesByPrefix(ctx context.Context, prefix string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}

	if prefix == "" {
		if _, err := s.sqlDB.ExecContext(ctx, `DELETE FROM calc_cache_entries`); err != nil {
			return fmt.Errorf("clear cache entries: %w", err)
		}
		return nil
	}

	pattern := escapeLike(prefix) + "%"
	if _, err := s.sqlDB.ExecContext(
		ctx,
		`DELETE FROM calc_cache_entries WHERE key LIKE ? ESCAPE '\'`,
		pattern,
	); err != nil {
		return fmt.Errorf("delete cache entries by prefix: %w", err)
	}
	return nil
}

// ListCacheEntries loads every cached result ordered by creation time.
func (s *Store) ListCacheEntries(ctx context.Context) ([]plannerstorage.CacheEntryRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}

	rows, err := s.sqlDB.QueryContext(
		ctx,
		`SELECT key, value_json, created_at, expires_at
		 FROM calc_cache_entries
		 ORDER BY created_at ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("list cache entries: %w", err)
	}
	defer rows.Close()

	var entries []plannerstorage.CacheEntryRecord
	for rows.Next() {
		var entry plannerstorage.CacheEntryRecord
		var createdAt int64
		var expiresAt int64
		if err := rows.Scan(&entry.Key, &entry.ValueJSON, &createdAt, &expiresAt); err != nil {
			return nil, fmt.Errorf("scan cache entry: %w", err)
		}
		entry.CreatedAt = fromMillis(createdAt)
		entry.ExpiresAt = fromMillis(expiresAt)
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list cache entries: %w", err)
	}
	return entries, nil
}

func escapeLike(value string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return replacer.Replace(value)
}

func toMillis(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UTC().UnixMilli()
}

func fromMillis(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}
