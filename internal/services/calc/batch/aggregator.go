package batch

import (
	"context"
	"log"

	"github.com/Swappnil85/Drishti-V2-sub003/internal/services/calc/domain"
)

// Invalidator clears cached calculation results that depend on a resource
// kind. Implementations must tolerate repeated calls; the aggregator calls
// each touched kind exactly once per settled batch.
type Invalidator interface {
	InvalidateKind(ctx context.Context, kind domain.ResourceKind)
}

// Notifier delivers the batch-settled notification to the submitting user.
type Notifier interface {
	BatchSettled(ctx context.Context, userID string, summary domain.Summary, status domain.Status)
}

// Aggregator fires the post-settle side effects of one batch: one
// cache-invalidation round over the resource kinds the batch touched, then
// one notification. Either collaborator may be nil.
type Aggregator struct {
	invalidator Invalidator
	notifier    Notifier
}

// NewAggregator creates an aggregator over the given collaborators.
func NewAggregator(invalidator Invalidator, notifier Notifier) *Aggregator {
	return &Aggregator{invalidator: invalidator, notifier: notifier}
}

// Settle runs the side effects for a settled batch. The runner calls it
// once per batch, when the result snapshot is fixed for the caller. A
// panicking collaborator is contained so it cannot poison the response.
func (a *Aggregator) Settle(ctx context.Context, userID string, ops []domain.Operation, outcome *Outcome) {
	if a == nil || outcome == nil {
		return
	}
	defer func() {
		if rec := recover(); rec != nil {
			log.Printf("batch aggregator panic: %v", rec)
		}
	}()

	if a.invalidator != nil {
		for _, kind := range domain.ResourceKinds(ops) {
			a.invalidator.InvalidateKind(ctx, kind)
		}
	}
	if a.notifier != nil {
		a.notifier.BatchSettled(ctx, userID, outcome.Summary, outcome.Status)
	}
}
