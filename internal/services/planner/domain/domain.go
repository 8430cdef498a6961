// Package domain defines the planner's queue and cache model.
package domain

import (
	"time"

	"github.com/Swappnil85/Drishti-V2-sub003/internal/calculation"
	platformerrors "github.com/Swappnil85/Drishti-V2-sub003/internal/platform/errors"
)

// Queue and cache defaults. Callers override per deployment.
const (
	// DefaultMaxRetries bounds transient retries per queued item.
	DefaultMaxRetries = 3
	// DefaultTTL is the cache lifetime applied when the caller passes none.
	DefaultTTL = 5 * time.Minute
	// DefaultMaxEntries bounds the result cache.
	DefaultMaxEntries = 1000
)

// QueuedCalculation is one pending calculation request. Sequence is
// monotonic per planner instance and breaks priority ties FIFO.
type QueuedCalculation struct {
	ID         string
	Kind       calculation.Kind
	ParamsJSON string
	Priority   calculation.Priority
	Sequence   uint64
	EnqueuedAt time.Time
	RetryCount int
	MaxRetries int
}

// CacheEntry is one cached calculation result. An entry past ExpiresAt is
// never returned by a read.
type CacheEntry struct {
	Key       string
	ValueJSON string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Expired reports whether the entry is past its lifetime at now.
func (e CacheEntry) Expired(now time.Time) bool {
	return !e.ExpiresAt.After(now)
}

// OutcomeStatus tags a broadcast processing outcome.
type OutcomeStatus string

const (
	OutcomeSucceeded OutcomeStatus = "succeeded"
	OutcomeFailed    OutcomeStatus = "failed"
)

// Outcome is one terminal processing report delivered through the hub.
// Every queued item produces exactly one terminal outcome.
type Outcome struct {
	RequestID  string
	Kind       calculation.Kind
	CacheKey   string
	Status     OutcomeStatus
	ResultJSON string
	ErrorCode  platformerrors.Code
	ErrorMsg   string
	Attempts   int
}
