// Package batch runs bounded batches of resource operations with a
// concurrency cap, optional fail-fast admission, and an aggregate timeout
// that returns partial results without abandoning in-flight work.
package batch

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	platformerrors "github.com/Swappnil85/Drishti-V2-sub003/internal/platform/errors"
	"github.com/Swappnil85/Drishti-V2-sub003/internal/services/calc/domain"
)

// Applier executes one operation. The resource service satisfies this.
type Applier interface {
	Apply(ctx context.Context, userID string, op domain.Operation) (json.RawMessage, error)
}

// Outcome is the caller-facing view of one batch run. When Status is
// StatusTimedOut the results are a snapshot and Done reports when the
// dangling operations actually finish.
type Outcome struct {
	Status  domain.Status
	Results []domain.OperationResult
	Summary domain.Summary

	// Done is closed once every admitted operation has returned,
	// including work still running past an aggregate timeout.
	Done <-chan struct{}
}

// Runner admits batch operations against a shared concurrency budget.
type Runner struct {
	apply      Applier
	aggregator *Aggregator
	clock      func() time.Time
	tracer     trace.Tracer
}

// RunnerOption customizes a Runner.
type RunnerOption func(*Runner)

// WithAggregator attaches post-settle side effects. The aggregator fires
// exactly once per batch, when the batch settles for the caller.
func WithAggregator(a *Aggregator) RunnerOption {
	return func(r *Runner) {
		r.aggregator = a
	}
}

// WithClock overrides the time source.
func WithClock(clock func() time.Time) RunnerOption {
	return func(r *Runner) {
		if clock != nil {
			r.clock = clock
		}
	}
}

// NewRunner creates a batch runner over apply.
func NewRunner(apply Applier, opts ...RunnerOption) (*Runner, error) {
	if apply == nil {
		return nil, fmt.Errorf("applier is required")
	}
	r := &Runner{
		apply:  apply,
		clock:  time.Now,
		tracer: otel.Tracer("calc/batch"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// board collects per-operation results keyed by input index so response
// order always matches request order.
type board struct {
	mu      sync.Mutex
	results []domain.OperationResult
	settled []bool
}

func newBoard(n int) *board {
	return &board{
		results: make([]domain.OperationResult, n),
		settled: make([]bool, n),
	}
}

func (b *board) set(i int, r domain.OperationResult) {
	b.mu.Lock()
	b.results[i] = r
	b.settled[i] = true
	b.mu.Unlock()
}

// snapshot copies the board, filling unsettled slots for ops via fill.
func (b *board) snapshot(ops []domain.Operation, fill func(op domain.Operation) domain.OperationResult) []domain.OperationResult {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]domain.OperationResult, len(b.results))
	copy(out, b.results)
	for i := range out {
		if !b.settled[i] {
			out[i] = fill(ops[i])
		}
	}
	return out
}

func failureResult(op domain.Operation, err error) domain.OperationResult {
	return domain.OperationResult{
		ID:      op.ID,
		Success: false,
		Error: &domain.OperationError{
			Code:    platformerrors.CodeOf(err),
			Message: err.Error(),
		},
	}
}

func skippedResult(op domain.Operation) domain.OperationResult {
	return domain.OperationResult{
		ID:      op.ID,
		Success: false,
		Error: &domain.OperationError{
			Code:    platformerrors.CodeOperationSkipped,
			Message: "operation skipped after an earlier failure",
		},
	}
}

func timedOutResult(op domain.Operation) domain.OperationResult {
	return domain.OperationResult{
		ID:      op.ID,
		Success: false,
		Error: &domain.OperationError{
			Code:    platformerrors.CodeBatchTimeout,
			Message: "batch timeout elapsed before the operation settled",
		},
	}
}

// Run executes ops for userID. Batch-level validation failures return an
// error before any operation runs. Otherwise Run always returns an Outcome
// whose Results align index-for-index with ops.
func (r *Runner) Run(ctx context.Context, userID string, ops []domain.Operation, opts domain.Options) (*Outcome, error) {
	if r == nil || r.apply == nil {
		return nil, platformerrors.New(platformerrors.CodeUnknown, "batch runner not initialized")
	}
	if err := domain.ValidateOperations(ops); err != nil {
		return nil, err
	}
	opts = opts.Normalized()

	ctx, span := r.tracer.Start(ctx, "batch.Run", trace.WithAttributes(
		attribute.Int("batch.operations", len(ops)),
		attribute.Int("batch.max_concurrency", opts.MaxConcurrency),
		attribute.Bool("batch.continue_on_error", opts.ContinueOnError),
	))
	defer span.End()

	started := r.clock()
	results := newBoard(len(ops))
	done := make(chan struct{})

	// Work outlives an aggregate timeout, so it runs on a context that
	// survives the caller while keeping trace propagation intact.
	workCtx := context.WithoutCancel(ctx)

	var stopped atomic.Bool
	go func() {
		defer close(done)
		group := &errgroup.Group{}
		group.SetLimit(opts.MaxConcurrency)
		for i, op := range ops {
			if stopped.Load() {
				results.set(i, skippedResult(op))
				continue
			}
			group.Go(func() error {
				if stopped.Load() {
					results.set(i, skippedResult(op))
					return nil
				}
				data, err := r.apply.Apply(workCtx, userID, op)
				if err != nil {
					if !opts.ContinueOnError {
						stopped.Store(true)
					}
					results.set(i, failureResult(op, err))
					return nil
				}
				results.set(i, domain.OperationResult{ID: op.ID, Success: true, Data: data})
				return nil
			})
		}
		_ = group.Wait()
	}()

	status := domain.StatusCompleted
	timer := time.NewTimer(opts.Timeout)
	defer timer.Stop()
	select {
	case <-done:
	case <-timer.C:
		status = domain.StatusTimedOut
	}

	snapshot := results.snapshot(ops, timedOutResult)
	outcome := &Outcome{
		Status:  status,
		Results: snapshot,
		Summary: Summarize(snapshot, r.clock().Sub(started)),
		Done:    done,
	}
	span.SetAttributes(
		attribute.String("batch.status", string(status)),
		attribute.Int("batch.failed", outcome.Summary.Failed),
	)

	if r.aggregator != nil {
		r.aggregator.Settle(workCtx, userID, ops, outcome)
	}
	return outcome, nil
}

// Summarize folds per-operation results into batch totals.
func Summarize(results []domain.OperationResult, duration time.Duration) domain.Summary {
	summary := domain.Summary{Total: len(results), Duration: duration}
	for _, res := range results {
		if res.Success {
			summary.Successful++
		} else {
			summary.Failed++
		}
	}
	return summary
}
