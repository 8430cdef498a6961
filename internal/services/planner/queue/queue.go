// Package queue is the planner's durable priority queue of pending
// calculations. Dequeue order is a strict total order: priority rank
// descending, then sequence ascending, so equal-priority items stay FIFO.
package queue

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Swappnil85/Drishti-V2-sub003/internal/calculation"
	platformerrors "github.com/Swappnil85/Drishti-V2-sub003/internal/platform/errors"
	"github.com/Swappnil85/Drishti-V2-sub003/internal/platform/id"
	"github.com/Swappnil85/Drishti-V2-sub003/internal/services/planner/domain"
	"github.com/Swappnil85/Drishti-V2-sub003/internal/services/planner/storage"
)

// Queue orders pending calculations and persists every mutation before
// acknowledging it.
type Queue struct {
	mu         sync.Mutex
	items      []domain.QueuedCalculation
	sequence   uint64
	store      storage.QueueStore
	clock      func() time.Time
	newID      func() (string, error)
	maxRetries int
}

// Option customizes a Queue.
type Option func(*Queue)

// WithClock overrides the time source.
func WithClock(clock func() time.Time) Option {
	return func(q *Queue) {
		if clock != nil {
			q.clock = clock
		}
	}
}

// WithIDGenerator overrides the request id generator.
func WithIDGenerator(newID func() (string, error)) Option {
	return func(q *Queue) {
		if newID != nil {
			q.newID = newID
		}
	}
}

// WithMaxRetries sets the retry budget assigned to new items.
func WithMaxRetries(n int) Option {
	return func(q *Queue) {
		if n >= 0 {
			q.maxRetries = n
		}
	}
}

// New creates a queue. A nil store keeps the queue memory-only.
func New(store storage.QueueStore, opts ...Option) *Queue {
	q := &Queue{
		store:      store,
		clock:      time.Now,
		newID:      id.NewID,
		maxRetries: domain.DefaultMaxRetries,
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// Load warm-starts the queue from the store and seeds the sequence counter
// from the largest persisted value so restarts never reuse a sequence.
func (q *Queue) Load(ctx context.Context) error {
	if q == nil || q.store == nil {
		return nil
	}
	records, err := q.store.ListQueueItems(ctx)
	if err != nil {
		return fmt.Errorf("load queue items: %w", err)
	}
	maxSequence, err := q.store.MaxQueueSequence(ctx)
	if err != nil {
		return fmt.Errorf("seed queue sequence: %w", err)
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = q.items[:0]
	for _, record := range records {
		q.items = append(q.items, domain.QueuedCalculation{
			ID:         record.ID,
			Kind:       calculation.Kind(record.Kind),
			ParamsJSON: record.ParamsJSON,
			Priority:   calculation.Priority(record.Priority),
			Sequence:   record.Sequence,
			EnqueuedAt: record.EnqueuedAt,
			RetryCount: record.RetryCount,
			MaxRetries: record.MaxRetries,
		})
	}
	q.sortLocked()
	if maxSequence > q.sequence {
		q.sequence = maxSequence
	}
	return nil
}

// Enqueue adds one pending calculation and persists it before returning.
// Params are canonicalized so the item's cache key is stable.
func (q *Queue) Enqueue(ctx context.Context, kind calculation.Kind, paramsJSON string, priority calculation.Priority) (domain.QueuedCalculation, error) {
	if q == nil {
		return domain.QueuedCalculation{}, fmt.Errorf("queue is not configured")
	}
	if strings.TrimSpace(string(kind)) == "" {
		return domain.QueuedCalculation{}, platformerrors.New(platformerrors.CodeValidation, "calculation kind is required")
	}
	if priority == "" {
		priority = calculation.PriorityNormal
	}
	if !priority.Valid() {
		return domain.QueuedCalculation{}, platformerrors.WithMetadata(
			platformerrors.CodeValidation,
			"unknown calculation priority",
			map[string]string{"priority": string(priority)},
		)
	}
	canonical, err := calculation.CanonicalParams([]byte(paramsJSON))
	if err != nil {
		return domain.QueuedCalculation{}, platformerrors.Wrap(platformerrors.CodeValidation, "calculation params are not valid JSON", err)
	}

	requestID, err := q.newID()
	if err != nil {
		return domain.QueuedCalculation{}, fmt.Errorf("generate request id: %w", err)
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	q.sequence++
	item := domain.QueuedCalculation{
		ID:         requestID,
		Kind:       kind,
		ParamsJSON: canonical,
		Priority:   priority,
		Sequence:   q.sequence,
		EnqueuedAt: q.clock().UTC(),
		MaxRetries: q.maxRetries,
	}
	if err := q.persistLocked(ctx, item); err != nil {
		q.sequence--
		return domain.QueuedCalculation{}, err
	}
	q.insertLocked(item)
	return item, nil
}

// Next returns the highest-priority pending item without removing it.
func (q *Queue) Next() (domain.QueuedCalculation, bool) {
	if q == nil {
		return domain.QueuedCalculation{}, false
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return domain.QueuedCalculation{}, false
	}
	return q.items[0], true
}

// Remove deletes the item by id, in the store first.
func (q *Queue) Remove(ctx context.Context, itemID string) error {
	if q == nil {
		return fmt.Errorf("queue is not configured")
	}
	q.mu.Lock()
	defer q.mu.Unlock()

	idx := q.indexLocked(itemID)
	if idx < 0 {
		return storage.ErrNotFound
	}
	if q.store != nil {
		if err := q.store.DeleteQueueItem(ctx, itemID); err != nil && !errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("delete queue item: %w", err)
		}
	}
	q.items = append(q.items[:idx], q.items[idx+1:]...)
	return nil
}

// Requeue re-appends a failed item at the tail of its priority class with
// an incremented retry count and a fresh sequence. The mutation persists
// before the in-memory order changes.
func (q *Queue) Requeue(ctx context.Context, itemID string) (domain.QueuedCalculation, error) {
	if q == nil {
		return domain.QueuedCalculation{}, fmt.Errorf("queue is not configured")
	}
	q.mu.Lock()
	defer q.mu.Unlock()

	idx := q.indexLocked(itemID)
	if idx < 0 {
		return domain.QueuedCalculation{}, storage.ErrNotFound
	}

	item := q.items[idx]
	item.RetryCount++
	q.sequence++
	item.Sequence = q.sequence
	if err := q.persistLocked(ctx, item); err != nil {
		q.sequence--
		return domain.QueuedCalculation{}, err
	}
	q.items = append(q.items[:idx], q.items[idx+1:]...)
	q.insertLocked(item)
	return item, nil
}

// Len returns the number of pending items.
func (q *Queue) Len() int {
	if q == nil {
		return 0
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Items returns a snapshot of the pending items in dequeue order.
func (q *Queue) Items() []domain.QueuedCalculation {
	if q == nil {
		return nil
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]domain.QueuedCalculation, len(q.items))
	copy(out, q.items)
	return out
}

func (q *Queue) persistLocked(ctx context.Context, item domain.QueuedCalculation) error {
	if q.store == nil {
		return nil
	}
	record := storage.QueueItemRecord{
		ID:         item.ID,
		Kind:       string(item.Kind),
		ParamsJSON: item.ParamsJSON,
		Priority:   string(item.Priority),
		Sequence:   item.Sequence,
		EnqueuedAt: item.EnqueuedAt,
		RetryCount: item.RetryCount,
		MaxRetries: item.MaxRetries,
	}
	if err := q.store.UpsertQueueItem(ctx, record); err != nil {
		return fmt.Errorf("persist queue item: %w", err)
	}
	return nil
}

func (q *Queue) indexLocked(itemID string) int {
	for idx, item := range q.items {
		if item.ID == itemID {
			return idx
		}
	}
	return -1
}

func before(a, b domain.QueuedCalculation) bool {
	ra, rb := a.Priority.Rank(), b.Priority.Rank()
	if ra != rb {
		return ra > rb
	}
	return a.Sequence < b.Sequence
}

func (q *Queue) insertLocked(item domain.QueuedCalculation) {
	idx := sort.Search(len(q.items), func(i int) bool {
		return before(item, q.items[i])
	})
	q.items = append(q.items, domain.QueuedCalculation{})
	copy(q.items[idx+1:], q.items[idx:])
	q.items[idx] = item
}

func (q *Queue) sortLocked() {
	sort.Slice(q.items, func(i, j int) bool {
		return before(q.items[i], q.items[j])
	})
}
