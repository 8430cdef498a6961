// Package calculation defines the shared calculation model: supported
// kinds, request priorities, and deterministic cache keys.
package calculation

import (
	"strings"

	platformerrors "github.com/Swappnil85/Drishti-V2-sub003/internal/platform/errors"
)

// Kind identifies one supported calculation.
type Kind string

// Well-known calculation kinds. The compute registry is the authority on
// which kinds a deployment actually supports.
const (
	KindFutureValue          Kind = "future_value"
	KindMonteCarlo           Kind = "monte_carlo"
	KindDebtPayoff           Kind = "debt_payoff"
	KindRetirementReadiness  Kind = "retirement_readiness"
	KindGoalProgress         Kind = "goal_progress"
	KindNetWorthProjection   Kind = "net_worth_projection"
	KindSavingsRateRequired  Kind = "savings_rate_required"
	KindEmergencyFundRunway  Kind = "emergency_fund_runway"
)

// ParseKind normalizes a wire value into a Kind.
func ParseKind(value string) (Kind, error) {
	kind := Kind(strings.TrimSpace(strings.ToLower(value)))
	if kind == "" {
		return "", platformerrors.New(platformerrors.CodeValidation, "calculation kind is required")
	}
	return kind, nil
}

// Priority orders queued calculations: realtime > high > normal > low.
type Priority string

const (
	PriorityRealtime Priority = "realtime"
	PriorityHigh     Priority = "high"
	PriorityNormal   Priority = "normal"
	PriorityLow      Priority = "low"
)

var priorityRanks = map[Priority]int{
	PriorityRealtime: 3,
	PriorityHigh:     2,
	PriorityNormal:   1,
	PriorityLow:      0,
}

// Rank returns the comparable weight of the priority; higher dequeues first.
// Unknown priorities rank below low so malformed rows never jump the queue.
func (p Priority) Rank() int {
	if rank, ok := priorityRanks[p]; ok {
		return rank
	}
	return -1
}

// Valid reports whether the priority is one of the four defined levels.
func (p Priority) Valid() bool {
	_, ok := priorityRanks[p]
	return ok
}

// ParsePriority normalizes a wire value into a Priority. An empty value
// defaults to normal.
func ParsePriority(value string) (Priority, error) {
	trimmed := strings.TrimSpace(strings.ToLower(value))
	if trimmed == "" {
		return PriorityNormal, nil
	}
	priority := Priority(trimmed)
	if !priority.Valid() {
		return "", platformerrors.WithMetadata(
			platformerrors.CodeValidation,
			"unknown calculation priority",
			map[string]string{"priority": trimmed},
		)
	}
	return priority, nil
}
