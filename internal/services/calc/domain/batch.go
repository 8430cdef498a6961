// Package domain defines the batch execution model for the calc service.
package domain

import (
	"encoding/json"
	"strings"
	"time"

	platformerrors "github.com/Swappnil85/Drishti-V2-sub003/internal/platform/errors"
	"github.com/Swappnil85/Drishti-V2-sub003/internal/platform/timeouts"
)

// Batch sizing and admission defaults, surfaced verbatim by the limits
// endpoint so clients can self-throttle.
const (
	// MaxOperations bounds how many operations one batch may carry.
	MaxOperations = 100
	// DefaultMaxConcurrency is the admission cap applied when the caller
	// does not request one.
	DefaultMaxConcurrency = 5
	// MaxConcurrencyCap bounds the admission cap a caller may request.
	MaxConcurrencyCap = 10
)

// OpType identifies what a batch operation does to its resource.
type OpType string

const (
	OpCreate OpType = "create"
	OpUpdate OpType = "update"
	OpDelete OpType = "delete"
	OpRead   OpType = "read"
)

// Valid reports whether the operation type is one of the four CRUD verbs.
func (t OpType) Valid() bool {
	switch t {
	case OpCreate, OpUpdate, OpDelete, OpRead:
		return true
	}
	return false
}

// ResourceKind tags which resource collection an operation targets.
type ResourceKind string

const (
	ResourceAccount  ResourceKind = "account"
	ResourceGoal     ResourceKind = "goal"
	ResourceScenario ResourceKind = "scenario"
)

// Operation is one entry in a batch request.
type Operation struct {
	ID         string          `json:"id"`
	Type       OpType          `json:"type"`
	Resource   ResourceKind    `json:"resource"`
	Data       json.RawMessage `json:"data,omitempty"`
	ResourceID string          `json:"resource_id,omitempty"`
}

// OperationError is the caller-facing error payload for one failed operation.
type OperationError struct {
	Code    platformerrors.Code `json:"code"`
	Message string              `json:"message"`
}

// OperationResult is the outcome of one operation. Results keep index
// correspondence with the request operations regardless of completion order.
type OperationResult struct {
	ID      string          `json:"id"`
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   *OperationError `json:"error,omitempty"`
}

// Summary aggregates one batch run.
type Summary struct {
	Total      int           `json:"total"`
	Successful int           `json:"successful"`
	Failed     int           `json:"failed"`
	Duration   time.Duration `json:"duration_ms"`
}

// Status distinguishes a fully settled batch from one cut off by the
// aggregate timeout.
type Status string

const (
	StatusCompleted Status = "completed"
	StatusTimedOut  Status = "timed_out"
)

// Options tunes one batch run.
type Options struct {
	ContinueOnError bool
	MaxConcurrency  int
	Timeout         time.Duration
}

// Normalized returns options with defaults applied and caps enforced.
func (o Options) Normalized() Options {
	if o.MaxConcurrency <= 0 {
		o.MaxConcurrency = DefaultMaxConcurrency
	}
	if o.MaxConcurrency > MaxConcurrencyCap {
		o.MaxConcurrency = MaxConcurrencyCap
	}
	if o.Timeout <= 0 {
		o.Timeout = timeouts.BatchDefault
	}
	if o.Timeout > timeouts.BatchMax {
		o.Timeout = timeouts.BatchMax
	}
	return o
}

// ValidateOperations rejects a batch outside the 1..MaxOperations bound
// before any operation runs. Per-operation shape problems are not checked
// here; they surface as individual operation failures.
func ValidateOperations(ops []Operation) error {
	if len(ops) == 0 {
		return platformerrors.New(platformerrors.CodeBatchEmpty, "batch requires at least one operation")
	}
	if len(ops) > MaxOperations {
		return platformerrors.WithMetadata(
			platformerrors.CodeBatchTooLarge,
			"batch exceeds the operation limit",
			map[string]string{"limit": "100"},
		)
	}
	return nil
}

// ValidateOperation checks one operation's shape before it touches storage.
func ValidateOperation(op Operation) error {
	if strings.TrimSpace(op.ID) == "" {
		return platformerrors.New(platformerrors.CodeOperationIDMissing, "operation id is required")
	}
	if !op.Type.Valid() {
		return platformerrors.WithMetadata(
			platformerrors.CodeUnsupportedOperation,
			"unknown operation type",
			map[string]string{"type": string(op.Type)},
		)
	}
	switch op.Type {
	case OpCreate:
		if len(op.Data) == 0 {
			return platformerrors.New(platformerrors.CodeOperationDataMissing, "create requires a data payload")
		}
	case OpUpdate:
		if strings.TrimSpace(op.ResourceID) == "" {
			return platformerrors.New(platformerrors.CodeResourceIDMissing, "update requires a resource id")
		}
		if len(op.Data) == 0 {
			return platformerrors.New(platformerrors.CodeOperationDataMissing, "update requires a data payload")
		}
	case OpDelete, OpRead:
		if strings.TrimSpace(op.ResourceID) == "" {
			return platformerrors.New(platformerrors.CodeResourceIDMissing, "operation requires a resource id")
		}
	}
	return nil
}

// ResourceKinds returns the distinct resource kinds the operations touch,
// in first-seen order. The aggregator invalidates caches per kind exactly
// once per batch.
func ResourceKinds(ops []Operation) []ResourceKind {
	seen := make(map[ResourceKind]struct{}, len(ops))
	var kinds []ResourceKind
	for _, op := range ops {
		if _, ok := seen[op.Resource]; ok {
			continue
		}
		seen[op.Resource] = struct{}{}
		kinds = append(kinds, op.Resource)
	}
	return kinds
}
