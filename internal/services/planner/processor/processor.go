// Package processor drains the planner queue: it dispatches pending
// calculations to the compute collaborator, caches successes, and converts
// failures into retry-or-terminal decisions. A per-item failure never
// escapes the drain loop.
package processor

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync/atomic"
	"time"

	"github.com/Swappnil85/Drishti-V2-sub003/internal/calculation"
	platformerrors "github.com/Swappnil85/Drishti-V2-sub003/internal/platform/errors"
	"github.com/Swappnil85/Drishti-V2-sub003/internal/services/planner/cache"
	"github.com/Swappnil85/Drishti-V2-sub003/internal/services/planner/domain"
	"github.com/Swappnil85/Drishti-V2-sub003/internal/services/planner/hub"
	"github.com/Swappnil85/Drishti-V2-sub003/internal/services/planner/queue"
)

// Computer dispatches one calculation. The calc compute registry and the
// Lua adapter both satisfy this.
type Computer interface {
	Compute(ctx context.Context, kind calculation.Kind, params json.RawMessage) (json.RawMessage, error)
}

// DefaultPollInterval is the fixed drain cadence when the caller sets none.
const DefaultPollInterval = 2 * time.Second

// Drain states. Transitions are atomic so overlapping triggers collapse
// into one drain instead of interleaving.
const (
	stateIdle int32 = iota
	stateDraining
)

// Processor owns the queue drain loop.
type Processor struct {
	queue    *queue.Queue
	cache    *cache.Cache
	hub      *hub.Hub
	computer Computer

	pollInterval time.Duration
	cacheTTL     time.Duration
	retryDelay   RetryPolicy

	state   atomic.Int32
	trigger chan struct{}
}

// Option customizes a Processor.
type Option func(*Processor)

// WithPollInterval sets the fixed drain cadence.
func WithPollInterval(interval time.Duration) Option {
	return func(p *Processor) {
		if interval > 0 {
			p.pollInterval = interval
		}
	}
}

// WithCacheTTL sets the lifetime applied to cached results.
func WithCacheTTL(ttl time.Duration) Option {
	return func(p *Processor) {
		if ttl > 0 {
			p.cacheTTL = ttl
		}
	}
}

// WithRetryPolicy sets the inter-attempt delay policy.
func WithRetryPolicy(policy RetryPolicy) Option {
	return func(p *Processor) {
		if policy != nil {
			p.retryDelay = policy
		}
	}
}

// New creates a processor over the planner collaborators.
func New(q *queue.Queue, c *cache.Cache, h *hub.Hub, computer Computer, opts ...Option) (*Processor, error) {
	if q == nil {
		return nil, fmt.Errorf("queue is required")
	}
	if c == nil {
		return nil, fmt.Errorf("cache is required")
	}
	if h == nil {
		return nil, fmt.Errorf("hub is required")
	}
	if computer == nil {
		return nil, fmt.Errorf("computer is required")
	}
	p := &Processor{
		queue:        q,
		cache:        c,
		hub:          h,
		computer:     computer,
		pollInterval: DefaultPollInterval,
		cacheTTL:     domain.DefaultTTL,
		retryDelay:   NoDelay(),
		trigger:      make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Request resolves one calculation: a cache hit answers immediately, a miss
// enqueues the request and nudges the drain loop. The returned outcome for
// a miss arrives later through the hub under the returned request id.
func (p *Processor) Request(ctx context.Context, kind calculation.Kind, paramsJSON string, priority calculation.Priority) (cached *domain.Outcome, requestID string, err error) {
	if p == nil {
		return nil, "", fmt.Errorf("processor is not configured")
	}
	key, err := calculation.CacheKey(kind, []byte(paramsJSON))
	if err != nil {
		return nil, "", platformerrors.Wrap(platformerrors.CodeValidation, "calculation params are not valid JSON", err)
	}
	if value, ok := p.cache.Get(ctx, key); ok {
		return &domain.Outcome{
			Kind:       kind,
			CacheKey:   key,
			Status:     domain.OutcomeSucceeded,
			ResultJSON: value,
		}, "", nil
	}

	item, err := p.queue.Enqueue(ctx, kind, paramsJSON, priority)
	if err != nil {
		return nil, "", err
	}
	p.Trigger()
	return nil, item.ID, nil
}

// Trigger nudges the drain loop without waiting for the next tick.
func (p *Processor) Trigger() {
	if p == nil {
		return
	}
	select {
	case p.trigger <- struct{}{}:
	default:
	}
}

// Run drains on a fixed interval and on explicit triggers until ctx is
// canceled.
func (p *Processor) Run(ctx context.Context) error {
	if p == nil {
		return fmt.Errorf("processor is not configured")
	}
	ticker := time.NewTicker(p.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		case <-p.trigger:
		}
		p.Drain(ctx)
	}
}

// Drain processes queued items until the queue is empty or ctx is
// canceled. Overlapping calls collapse: if a drain is already running the
// call returns immediately.
func (p *Processor) Drain(ctx context.Context) {
	if p == nil {
		return
	}
	if !p.state.CompareAndSwap(stateIdle, stateDraining) {
		return
	}
	defer p.state.Store(stateIdle)

	for {
		if ctx.Err() != nil {
			return
		}
		item, ok := p.queue.Next()
		if !ok {
			return
		}
		p.processItem(ctx, item)
	}
}

// processItem runs one dispatch attempt and converts its result into a
// cache write, a requeue, or a terminal broadcast.
func (p *Processor) processItem(ctx context.Context, item domain.QueuedCalculation) {
	result, err := p.dispatch(ctx, item)
	if err == nil {
		p.succeed(ctx, item, result)
		return
	}

	// Attempt k runs with RetryCount k-1; an item with MaxRetries n fails
	// terminally on its n-th consecutive failure.
	retryable := platformerrors.IsTransient(err)
	if retryable && item.RetryCount+1 < item.MaxRetries {
		requeued, requeueErr := p.queue.Requeue(ctx, item.ID)
		if requeueErr != nil {
			log.Printf("requeue calculation %s: %v", item.ID, requeueErr)
			p.fail(ctx, item, err)
			return
		}
		if delay := p.retryDelay(requeued.RetryCount); delay > 0 {
			select {
			case <-ctx.Done():
			case <-time.After(delay):
			}
		}
		return
	}
	p.fail(ctx, item, err)
}

// dispatch invokes the computer, converting a panic into an error so the
// drain loop survives misbehaving calculation code.
func (p *Processor) dispatch(ctx context.Context, item domain.QueuedCalculation) (result json.RawMessage, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = platformerrors.Wrap(
				platformerrors.CodeUnknown,
				"calculation dispatch panicked",
				fmt.Errorf("%v", rec),
			)
		}
	}()
	return p.computer.Compute(ctx, item.Kind, json.RawMessage(item.ParamsJSON))
}

func (p *Processor) succeed(ctx context.Context, item domain.QueuedCalculation, result json.RawMessage) {
	key, err := calculation.CacheKey(item.Kind, json.RawMessage(item.ParamsJSON))
	if err != nil {
		// Params were canonicalized at enqueue; a failure here means the
		// stored row is corrupt. Treat as terminal.
		p.fail(ctx, item, platformerrors.Wrap(platformerrors.CodeUnknown, "derive cache key", err))
		return
	}
	if err := p.cache.Set(ctx, key, string(result), p.cacheTTL); err != nil {
		log.Printf("cache calculation %s: %v", item.ID, err)
	}
	if err := p.queue.Remove(ctx, item.ID); err != nil {
		log.Printf("remove calculation %s: %v", item.ID, err)
	}
	p.hub.Broadcast(domain.Outcome{
		RequestID:  item.ID,
		Kind:       item.Kind,
		CacheKey:   key,
		Status:     domain.OutcomeSucceeded,
		ResultJSON: string(result),
		Attempts:   item.RetryCount + 1,
	})
}

// fail removes the item and broadcasts its terminal failure exactly once.
func (p *Processor) fail(ctx context.Context, item domain.QueuedCalculation, cause error) {
	if err := p.queue.Remove(ctx, item.ID); err != nil {
		log.Printf("remove calculation %s: %v", item.ID, err)
	}
	p.hub.Broadcast(domain.Outcome{
		RequestID: item.ID,
		Kind:      item.Kind,
		Status:    domain.OutcomeFailed,
		ErrorCode: platformerrors.CodeOf(cause),
		ErrorMsg:  cause.Error(),
		Attempts:  item.RetryCount + 1,
	})
}
