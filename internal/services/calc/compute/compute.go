// Package compute defines the pure-calculation collaborator contract.
//
// Calculation functions are black boxes to the scheduling subsystem: they
// take validated parameters and return a result or a typed error, with no
// side effects. The financial formulas themselves live behind this boundary.
package compute

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/Swappnil85/Drishti-V2-sub003/internal/calculation"
	platformerrors "github.com/Swappnil85/Drishti-V2-sub003/internal/platform/errors"
)

// Func is one pure calculation. Implementations must be deterministic and
// side-effect free for equal params.
type Func func(ctx context.Context, params json.RawMessage) (json.RawMessage, error)

// Computer dispatches a calculation request to its implementation.
type Computer interface {
	Compute(ctx context.Context, kind calculation.Kind, params json.RawMessage) (json.RawMessage, error)
}

// Registry is a Computer backed by a per-kind function table.
type Registry struct {
	mu    sync.RWMutex
	funcs map[calculation.Kind]Func
}

// NewRegistry creates an empty calculation registry.
func NewRegistry() *Registry {
	return &Registry{funcs: make(map[calculation.Kind]Func)}
}

// Register binds a calculation kind to its implementation, replacing any
// previous binding.
func (r *Registry) Register(kind calculation.Kind, fn Func) error {
	if r == nil {
		return fmt.Errorf("registry is not configured")
	}
	if kind == "" {
		return platformerrors.New(platformerrors.CodeValidation, "calculation kind is required")
	}
	if fn == nil {
		return fmt.Errorf("calculation func is required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.funcs[kind] = fn
	return nil
}

// Kinds lists the registered calculation kinds in stable order.
func (r *Registry) Kinds() []calculation.Kind {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	kinds := make([]calculation.Kind, 0, len(r.funcs))
	for kind := range r.funcs {
		kinds = append(kinds, kind)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}

// Compute runs the registered function for kind. An unregistered kind is an
// unsupported-calculation error; a panicking function is converted into an
// error so a misbehaving formula never takes down the caller's loop.
func (r *Registry) Compute(ctx context.Context, kind calculation.Kind, params json.RawMessage) (result json.RawMessage, err error) {
	if r == nil {
		return nil, fmt.Errorf("registry is not configured")
	}
	r.mu.RLock()
	fn, ok := r.funcs[kind]
	r.mu.RUnlock()
	if !ok {
		return nil, platformerrors.WithMetadata(
			platformerrors.CodeUnsupportedCalculation,
			"no calculation registered for kind",
			map[string]string{"kind": string(kind)},
		)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	defer func() {
		if recovered := recover(); recovered != nil {
			result = nil
			err = platformerrors.Wrap(
				platformerrors.CodeUnknown,
				"calculation panicked",
				fmt.Errorf("kind %s: %v", kind, recovered),
			)
		}
	}()
	return fn(ctx, params)
}
