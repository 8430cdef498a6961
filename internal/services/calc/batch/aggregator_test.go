package batch

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	platformerrors "github.com/Swappnil85/Drishti-V2-sub003/internal/platform/errors"
	"github.com/Swappnil85/Drishti-V2-sub003/internal/services/calc/domain"
)

type recordingInvalidator struct {
	mu    sync.Mutex
	kinds []domain.ResourceKind
}

func (r *recordingInvalidator) InvalidateKind(_ context.Context, kind domain.ResourceKind) {
	r.mu.Lock()
	r.kinds = append(r.kinds, kind)
	r.mu.Unlock()
}

type recordingNotifier struct {
	mu      sync.Mutex
	calls   int
	userID  string
	summary domain.Summary
	status  domain.Status
}

func (r *recordingNotifier) BatchSettled(_ context.Context, userID string, summary domain.Summary, status domain.Status) {
	r.mu.Lock()
	r.calls++
	r.userID = userID
	r.summary = summary
	r.status = status
	r.mu.Unlock()
}

func TestSettleInvalidatesEachTouchedKindOnce(t *testing.T) {
	invalidator := &recordingInvalidator{}
	notifier := &recordingNotifier{}
	agg := NewAggregator(invalidator, notifier)

	ops := []domain.Operation{
		{ID: "a", Type: domain.OpUpdate, Resource: domain.ResourceAccount, ResourceID: "1", Data: json.RawMessage(`{}`)},
		{ID: "b", Type: domain.OpUpdate, Resource: domain.ResourceGoal, ResourceID: "2", Data: json.RawMessage(`{}`)},
		{ID: "c", Type: domain.OpUpdate, Resource: domain.ResourceAccount, ResourceID: "3", Data: json.RawMessage(`{}`)},
	}
	agg.Settle(context.Background(), "user-1", ops, &Outcome{
		Status:  domain.StatusCompleted,
		Summary: domain.Summary{Total: 3, Successful: 3},
	})

	want := []domain.ResourceKind{domain.ResourceAccount, domain.ResourceGoal}
	if len(invalidator.kinds) != len(want) {
		t.Fatalf("invalidations = %v, want %v", invalidator.kinds, want)
	}
	for i, kind := range want {
		if invalidator.kinds[i] != kind {
			t.Fatalf("invalidations = %v, want %v", invalidator.kinds, want)
		}
	}
	if notifier.calls != 1 {
		t.Fatalf("notifier calls = %d, want 1", notifier.calls)
	}
	if notifier.userID != "user-1" || notifier.status != domain.StatusCompleted {
		t.Fatalf("notifier got user %q status %s", notifier.userID, notifier.status)
	}
}

func TestRunFiresAggregatorOncePerBatch(t *testing.T) {
	invalidator := &recordingInvalidator{}
	notifier := &recordingNotifier{}
	runner, err := NewRunner(
		applierFunc(func(context.Context, string, domain.Operation) (json.RawMessage, error) {
			return json.RawMessage(`{}`), nil
		}),
		WithAggregator(NewAggregator(invalidator, notifier)),
	)
	if err != nil {
		t.Fatalf("new runner: %v", err)
	}

	outcome, err := runner.Run(context.Background(), "user-1", makeOps(3), domain.Options{})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	<-outcome.Done

	if notifier.calls != 1 {
		t.Fatalf("notifier calls = %d, want 1", notifier.calls)
	}
	if len(invalidator.kinds) != 1 || invalidator.kinds[0] != domain.ResourceAccount {
		t.Fatalf("invalidations = %v", invalidator.kinds)
	}
	if notifier.summary.Total != 3 {
		t.Fatalf("summary = %+v", notifier.summary)
	}
}

func TestRunFiresAggregatorOnTimeoutSettle(t *testing.T) {
	notifier := &recordingNotifier{}
	release := make(chan struct{})
	runner, err := NewRunner(
		applierFunc(func(context.Context, string, domain.Operation) (json.RawMessage, error) {
			<-release
			return json.RawMessage(`{}`), nil
		}),
		WithAggregator(NewAggregator(nil, notifier)),
	)
	if err != nil {
		t.Fatalf("new runner: %v", err)
	}

	outcome, err := runner.Run(context.Background(), "user-1", makeOps(2), domain.Options{
		Timeout: 30 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if notifier.calls != 1 {
		t.Fatalf("notifier calls = %d, want 1 at timeout settle", notifier.calls)
	}
	if notifier.status != domain.StatusTimedOut {
		t.Fatalf("status = %s", notifier.status)
	}

	close(release)
	select {
	case <-outcome.Done:
	case <-time.After(time.Second):
		t.Fatal("dangling work never settled")
	}
	// No second round after the dangling work finishes.
	notifier.mu.Lock()
	calls := notifier.calls
	notifier.mu.Unlock()
	if calls != 1 {
		t.Fatalf("notifier calls = %d after dangling settle, want 1", calls)
	}
}

func TestSettleContainsPanickingNotifier(t *testing.T) {
	agg := NewAggregator(nil, panicNotifier{})
	agg.Settle(context.Background(), "user-1", makeOps(1), &Outcome{
		Status:  domain.StatusCompleted,
		Summary: domain.Summary{Total: 1, Successful: 1},
	})
}

type panicNotifier struct{}

func (panicNotifier) BatchSettled(context.Context, string, domain.Summary, domain.Status) {
	panic("notifier exploded")
}

func TestSummaryCountsSkippedAsFailed(t *testing.T) {
	results := []domain.OperationResult{
		{ID: "a", Success: true},
		{ID: "b", Error: &domain.OperationError{Code: platformerrors.CodeOperationSkipped}},
	}
	summary := Summarize(results, time.Millisecond)
	if summary.Failed != 1 {
		t.Fatalf("failed = %d", summary.Failed)
	}
}
