package batch

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	platformerrors "github.com/Swappnil85/Drishti-V2-sub003/internal/platform/errors"
	"github.com/Swappnil85/Drishti-V2-sub003/internal/services/calc/domain"
)

type applierFunc func(ctx context.Context, userID string, op domain.Operation) (json.RawMessage, error)

func (f applierFunc) Apply(ctx context.Context, userID string, op domain.Operation) (json.RawMessage, error) {
	return f(ctx, userID, op)
}

func makeOps(n int) []domain.Operation {
	ops := make([]domain.Operation, n)
	for i := range ops {
		ops[i] = domain.Operation{
			ID:         fmt.Sprintf("op-%d", i),
			Type:       domain.OpRead,
			Resource:   domain.ResourceAccount,
			ResourceID: fmt.Sprintf("res-%d", i),
		}
	}
	return ops
}

func TestRunRejectsEmptyBatch(t *testing.T) {
	var calls atomic.Int64
	runner, err := NewRunner(applierFunc(func(context.Context, string, domain.Operation) (json.RawMessage, error) {
		calls.Add(1)
		return nil, nil
	}))
	if err != nil {
		t.Fatalf("new runner: %v", err)
	}

	_, err = runner.Run(context.Background(), "user-1", nil, domain.Options{})
	if got := platformerrors.CodeOf(err); got != platformerrors.CodeBatchEmpty {
		t.Fatalf("code = %s, want %s", got, platformerrors.CodeBatchEmpty)
	}
	if calls.Load() != 0 {
		t.Fatalf("applier called %d times for rejected batch", calls.Load())
	}
}

func TestRunRejectsOversizedBatchWithoutSideEffects(t *testing.T) {
	var calls atomic.Int64
	runner, err := NewRunner(applierFunc(func(context.Context, string, domain.Operation) (json.RawMessage, error) {
		calls.Add(1)
		return nil, nil
	}))
	if err != nil {
		t.Fatalf("new runner: %v", err)
	}

	_, err = runner.Run(context.Background(), "user-1", makeOps(domain.MaxOperations+1), domain.Options{})
	if got := platformerrors.CodeOf(err); got != platformerrors.CodeBatchTooLarge {
		t.Fatalf("code = %s, want %s", got, platformerrors.CodeBatchTooLarge)
	}
	if calls.Load() != 0 {
		t.Fatalf("applier called %d times for rejected batch", calls.Load())
	}
}

func TestRunKeepsResultOrderUnderRandomLatency(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	var mu sync.Mutex
	runner, err := NewRunner(applierFunc(func(_ context.Context, _ string, op domain.Operation) (json.RawMessage, error) {
		mu.Lock()
		delay := time.Duration(rng.Intn(10)) * time.Millisecond
		mu.Unlock()
		time.Sleep(delay)
		return json.RawMessage(fmt.Sprintf(`{"op":%q}`, op.ID)), nil
	}))
	if err != nil {
		t.Fatalf("new runner: %v", err)
	}

	ops := makeOps(20)
	outcome, err := runner.Run(context.Background(), "user-1", ops, domain.Options{MaxConcurrency: 8})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(outcome.Results) != len(ops) {
		t.Fatalf("results = %d, want %d", len(outcome.Results), len(ops))
	}
	for i, res := range outcome.Results {
		if res.ID != ops[i].ID {
			t.Fatalf("results[%d].ID = %q, want %q", i, res.ID, ops[i].ID)
		}
		if !res.Success {
			t.Fatalf("results[%d] failed: %+v", i, res.Error)
		}
	}
	if outcome.Status != domain.StatusCompleted {
		t.Fatalf("status = %s", outcome.Status)
	}
}

func TestRunNeverExceedsConcurrencyCap(t *testing.T) {
	var inflight, peak atomic.Int64
	runner, err := NewRunner(applierFunc(func(context.Context, string, domain.Operation) (json.RawMessage, error) {
		n := inflight.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(20 * time.Millisecond)
		inflight.Add(-1)
		return nil, nil
	}))
	if err != nil {
		t.Fatalf("new runner: %v", err)
	}

	outcome, err := runner.Run(context.Background(), "user-1", makeOps(10), domain.Options{MaxConcurrency: 3})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if outcome.Summary.Successful != 10 {
		t.Fatalf("successful = %d", outcome.Summary.Successful)
	}
	if got := peak.Load(); got > 3 {
		t.Fatalf("peak concurrency = %d, cap 3", got)
	}
}

func TestRunContinueOnError(t *testing.T) {
	runner, err := NewRunner(applierFunc(func(_ context.Context, _ string, op domain.Operation) (json.RawMessage, error) {
		if op.ID == "op-1" || op.ID == "op-3" {
			return nil, platformerrors.New(platformerrors.CodeResourceNotFound, "resource not found")
		}
		return json.RawMessage(`{}`), nil
	}))
	if err != nil {
		t.Fatalf("new runner: %v", err)
	}

	outcome, err := runner.Run(context.Background(), "user-1", makeOps(5), domain.Options{ContinueOnError: true})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if outcome.Summary.Total != 5 || outcome.Summary.Successful != 3 || outcome.Summary.Failed != 2 {
		t.Fatalf("summary = %+v", outcome.Summary)
	}
	if outcome.Results[1].Error == nil || outcome.Results[1].Error.Code != platformerrors.CodeResourceNotFound {
		t.Fatalf("results[1] = %+v", outcome.Results[1])
	}
	if outcome.Status != domain.StatusCompleted {
		t.Fatalf("status = %s", outcome.Status)
	}
}

func TestRunFailFastSkipsRemainingOps(t *testing.T) {
	runner, err := NewRunner(applierFunc(func(_ context.Context, _ string, op domain.Operation) (json.RawMessage, error) {
		if op.ID == "op-0" {
			return nil, platformerrors.New(platformerrors.CodeValidation, "bad payload")
		}
		time.Sleep(5 * time.Millisecond)
		return json.RawMessage(`{}`), nil
	}))
	if err != nil {
		t.Fatalf("new runner: %v", err)
	}

	ops := makeOps(20)
	outcome, err := runner.Run(context.Background(), "user-1", ops, domain.Options{MaxConcurrency: 1})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(outcome.Results) != len(ops) {
		t.Fatalf("results = %d, want %d", len(outcome.Results), len(ops))
	}
	if outcome.Results[0].Error == nil || outcome.Results[0].Error.Code != platformerrors.CodeValidation {
		t.Fatalf("results[0] = %+v", outcome.Results[0])
	}
	skipped := 0
	for _, res := range outcome.Results[1:] {
		if res.Error != nil && res.Error.Code == platformerrors.CodeOperationSkipped {
			skipped++
		}
	}
	if skipped == 0 {
		t.Fatal("expected skipped results after fail-fast failure")
	}
	if outcome.Summary.Failed != outcome.Summary.Total-outcome.Summary.Successful {
		t.Fatalf("summary inconsistent: %+v", outcome.Summary)
	}
}

func TestRunTimeoutReturnsPartialResults(t *testing.T) {
	release := make(chan struct{})
	runner, err := NewRunner(applierFunc(func(_ context.Context, _ string, op domain.Operation) (json.RawMessage, error) {
		if op.ID == "op-0" {
			return json.RawMessage(`{}`), nil
		}
		<-release
		return json.RawMessage(`{}`), nil
	}))
	if err != nil {
		t.Fatalf("new runner: %v", err)
	}

	outcome, err := runner.Run(context.Background(), "user-1", makeOps(3), domain.Options{
		MaxConcurrency: 3,
		Timeout:        50 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if outcome.Status != domain.StatusTimedOut {
		t.Fatalf("status = %s, want %s", outcome.Status, domain.StatusTimedOut)
	}
	if !outcome.Results[0].Success {
		t.Fatalf("results[0] = %+v", outcome.Results[0])
	}
	for i := 1; i < 3; i++ {
		if outcome.Results[i].Error == nil || outcome.Results[i].Error.Code != platformerrors.CodeBatchTimeout {
			t.Fatalf("results[%d] = %+v", i, outcome.Results[i])
		}
	}
	if outcome.Summary.Successful != 1 || outcome.Summary.Failed != 2 {
		t.Fatalf("summary = %+v", outcome.Summary)
	}

	// Dangling work settles once released.
	close(release)
	select {
	case <-outcome.Done:
	case <-time.After(time.Second):
		t.Fatal("dangling work never settled")
	}
}

func TestSummarize(t *testing.T) {
	results := []domain.OperationResult{
		{ID: "a", Success: true},
		{ID: "b", Success: false, Error: &domain.OperationError{Code: platformerrors.CodeValidation}},
		{ID: "c", Success: true},
	}
	summary := Summarize(results, 250*time.Millisecond)
	if summary.Total != 3 || summary.Successful != 2 || summary.Failed != 1 {
		t.Fatalf("summary = %+v", summary)
	}
	if summary.Duration != 250*time.Millisecond {
		t.Fatalf("duration = %v", summary.Duration)
	}
}
