package domain

import (
	"encoding/json"
	"testing"
	"time"

	platformerrors "github.com/Swappnil85/Drishti-V2-sub003/internal/platform/errors"
	"github.com/Swappnil85/Drishti-V2-sub003/internal/platform/timeouts"
)

func TestValidateOperationsBounds(t *testing.T) {
	if err := ValidateOperations(nil); platformerrors.CodeOf(err) != platformerrors.CodeBatchEmpty {
		t.Fatalf("empty batch: %v", err)
	}

	ops := make([]Operation, MaxOperations+1)
	for i := range ops {
		ops[i] = Operation{ID: "op", Type: OpRead, Resource: ResourceAccount, ResourceID: "a"}
	}
	if err := ValidateOperations(ops); platformerrors.CodeOf(err) != platformerrors.CodeBatchTooLarge {
		t.Fatalf("oversized batch: %v", err)
	}

	if err := ValidateOperations(ops[:MaxOperations]); err != nil {
		t.Fatalf("batch at limit should validate: %v", err)
	}
	if err := ValidateOperations(ops[:1]); err != nil {
		t.Fatalf("single-op batch should validate: %v", err)
	}
}

func TestValidateOperation(t *testing.T) {
	data := json.RawMessage(`{"name":"Emergency fund"}`)
	tests := []struct {
		name string
		op   Operation
		code platformerrors.Code
	}{
		{"valid create", Operation{ID: "1", Type: OpCreate, Resource: ResourceGoal, Data: data}, ""},
		{"valid read", Operation{ID: "2", Type: OpRead, Resource: ResourceAccount, ResourceID: "a1"}, ""},
		{"missing id", Operation{Type: OpCreate, Resource: ResourceGoal, Data: data}, platformerrors.CodeOperationIDMissing},
		{"unknown type", Operation{ID: "3", Type: "upsert", Resource: ResourceGoal, Data: data}, platformerrors.CodeUnsupportedOperation},
		{"create without data", Operation{ID: "4", Type: OpCreate, Resource: ResourceGoal}, platformerrors.CodeOperationDataMissing},
		{"update without resource id", Operation{ID: "5", Type: OpUpdate, Resource: ResourceGoal, Data: data}, platformerrors.CodeResourceIDMissing},
		{"update without data", Operation{ID: "6", Type: OpUpdate, Resource: ResourceGoal, ResourceID: "g1"}, platformerrors.CodeOperationDataMissing},
		{"delete without resource id", Operation{ID: "7", Type: OpDelete, Resource: ResourceGoal}, platformerrors.CodeResourceIDMissing},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateOperation(tt.op)
			if tt.code == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if platformerrors.CodeOf(err) != tt.code {
				t.Fatalf("code = %v, want %v", platformerrors.CodeOf(err), tt.code)
			}
		})
	}
}

func TestOptionsNormalized(t *testing.T) {
	defaults := Options{}.Normalized()
	if defaults.MaxConcurrency != DefaultMaxConcurrency {
		t.Fatalf("default concurrency = %d", defaults.MaxConcurrency)
	}
	if defaults.Timeout != timeouts.BatchDefault {
		t.Fatalf("default timeout = %v", defaults.Timeout)
	}

	capped := Options{MaxConcurrency: 50, Timeout: time.Hour}.Normalized()
	if capped.MaxConcurrency != MaxConcurrencyCap {
		t.Fatalf("capped concurrency = %d", capped.MaxConcurrency)
	}
	if capped.Timeout != timeouts.BatchMax {
		t.Fatalf("capped timeout = %v", capped.Timeout)
	}

	explicit := Options{MaxConcurrency: 3, Timeout: 10 * time.Second, ContinueOnError: true}.Normalized()
	if explicit.MaxConcurrency != 3 || explicit.Timeout != 10*time.Second || !explicit.ContinueOnError {
		t.Fatalf("explicit options changed: %+v", explicit)
	}
}

func TestResourceKindsDistinctFirstSeen(t *testing.T) {
	ops := []Operation{
		{Resource: ResourceGoal},
		{Resource: ResourceAccount},
		{Resource: ResourceGoal},
		{Resource: ResourceScenario},
		{Resource: ResourceAccount},
	}
	kinds := ResourceKinds(ops)
	want := []ResourceKind{ResourceGoal, ResourceAccount, ResourceScenario}
	if len(kinds) != len(want) {
		t.Fatalf("kinds = %v", kinds)
	}
	for i := range want {
		if kinds[i] != want[i] {
			t.Fatalf("kinds[%d] = %v, want %v", i, kinds[i], want[i])
		}
	}
}
