// Package luacalc adapts a Lua script into the compute.Computer contract so
// deployments can supply calculation formulas without recompiling.
//
// The script must define a global function:
//
//	function compute(kind, params_json)
//	  -- return a JSON string, or nil for an unsupported kind
//	end
//
// Parameters arrive as canonical JSON text and results are returned as JSON
// text, which keeps the Go/Lua boundary to plain strings.
package luacalc

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/Shopify/go-lua"

	"github.com/Swappnil85/Drishti-V2-sub003/internal/calculation"
	platformerrors "github.com/Swappnil85/Drishti-V2-sub003/internal/platform/errors"
)

const entrypoint = "compute"

// Engine is a compute.Computer that evaluates a Lua script.
type Engine struct {
	mu    sync.Mutex
	state *lua.State
}

// LoadScript compiles script source and validates the compute entrypoint.
func LoadScript(source string) (*Engine, error) {
	state := lua.NewState()
	lua.OpenLibraries(state)

	if err := lua.DoString(state, source); err != nil {
		return nil, fmt.Errorf("load calculation script: %w", err)
	}
	state.Global(entrypoint)
	defined := state.IsFunction(-1)
	state.Pop(1)
	if !defined {
		return nil, fmt.Errorf("calculation script must define function %q", entrypoint)
	}
	return &Engine{state: state}, nil
}

// LoadFile compiles the script at path and validates the compute entrypoint.
func LoadFile(path string) (*Engine, error) {
	state := lua.NewState()
	lua.OpenLibraries(state)

	if err := lua.DoFile(state, path); err != nil {
		return nil, fmt.Errorf("load calculation script %s: %w", path, err)
	}
	state.Global(entrypoint)
	defined := state.IsFunction(-1)
	state.Pop(1)
	if !defined {
		return nil, fmt.Errorf("calculation script %s must define function %q", path, entrypoint)
	}
	return &Engine{state: state}, nil
}

// Compute invokes the script entrypoint for kind. A Lua state is not safe
// for concurrent use, so calls serialize on the engine mutex.
func (e *Engine) Compute(ctx context.Context, kind calculation.Kind, params json.RawMessage) (json.RawMessage, error) {
	if e == nil || e.state == nil {
		return nil, fmt.Errorf("lua engine is not configured")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	canonical, err := calculation.CanonicalParams(params)
	if err != nil {
		return nil, platformerrors.Wrap(platformerrors.CodeValidation, "invalid calculation params", err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.state.Global(entrypoint)
	e.state.PushString(string(kind))
	e.state.PushString(canonical)
	if err := e.state.ProtectedCall(2, 1, 0); err != nil {
		return nil, platformerrors.Wrap(
			platformerrors.CodeUnknown,
			"calculation script failed",
			fmt.Errorf("kind %s: %w", kind, err),
		)
	}
	defer e.state.Pop(1)

	if e.state.IsNil(-1) {
		return nil, platformerrors.WithMetadata(
			platformerrors.CodeUnsupportedCalculation,
			"calculation script does not support kind",
			map[string]string{"kind": string(kind)},
		)
	}
	encoded, ok := e.state.ToString(-1)
	if !ok {
		return nil, fmt.Errorf("calculation script returned a non-string result for kind %s", kind)
	}
	if !json.Valid([]byte(encoded)) {
		return nil, fmt.Errorf("calculation script returned invalid JSON for kind %s", kind)
	}
	return json.RawMessage(encoded), nil
}
