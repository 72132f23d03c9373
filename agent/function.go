package agent

import (
	"context"
	"errors"

	"github.com/hupe1980/flowmesh/core"
)

// Func is the signature wrapped by FunctionAgent: a unit of work receiving
// the flow context snapshot and producing a payload for downstream agents.
type Func func(ctx context.Context, snapshot *core.Snapshot) (map[string]any, error)

// FunctionAgent adapts an arbitrary Go function into a core.Agent. It is
// the simplest way to plug rule tables, in-process transformations, or
// bespoke collaborator calls into a flow.
type FunctionAgent struct {
	BaseAgent
	fn Func
}

// NewFunctionAgent wraps fn under the given identifier.
func NewFunctionAgent(name string, fn Func) *FunctionAgent {
	return &FunctionAgent{BaseAgent: NewBaseAgent(name), fn: fn}
}

// Invoke implements core.Agent by delegating to the wrapped function.
func (a *FunctionAgent) Invoke(ctx context.Context, snapshot *core.Snapshot) (map[string]any, error) {
	if a.fn == nil {
		return nil, errors.New("no function configured")
	}
	return a.fn(ctx, snapshot)
}
