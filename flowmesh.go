// Package flowmesh provides a high-level façade over the flow orchestrator
// and its supporting packages (graph validation, agent adapters & logging)
// enabling rapid construction of multi‑agent flows. Most applications
// interact with this package by:
//  1. Creating a FlowMesh via New() (optionally overriding policy and logger)
//  2. Registering agents together with their dependencies
//  3. Running the flow (Run) and inspecting the returned result
//
// The façade delegates scheduling to flow.Orchestrator while keeping setup
// ergonomics concise. Defaults are safe for local development and testing;
// production deployments typically supply a structured logger and a tuned
// failure policy.
package flowmesh

import (
	"context"

	"github.com/hupe1980/flowmesh/core"
	"github.com/hupe1980/flowmesh/flow"
	"github.com/hupe1980/flowmesh/graph"
	"github.com/hupe1980/flowmesh/logging"
)

// Options configures the FlowMesh instance.
type Options struct {
	// Config is the failure policy and resource limits (retries, critical
	// agents, escalation threshold, concurrency, timeouts).
	Config flow.Config

	// Logger (defaults to NoOp logger if nil)
	Logger logging.Logger

	// Observers receive lifecycle notifications (metrics, audit trails).
	Observers []flow.Observer
}

// FlowMesh is the high-level façade aggregating agent registration and
// orchestration. It is not safe for concurrent registration; register all
// agents before calling Run.
type FlowMesh struct {
	opts   Options
	agents map[string]core.Agent
	deps   map[string][]string
}

// New creates a new FlowMesh instance with optional overrides.
func New(optFns ...func(o *Options)) *FlowMesh {
	opts := Options{
		Config: flow.DefaultConfig,
		Logger: logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	return &FlowMesh{
		opts:   opts,
		agents: make(map[string]core.Agent),
		deps:   make(map[string][]string),
	}
}

// Register adds an agent and the IDs of the agents it depends on. A later
// registration under the same name replaces the earlier one.
func (m *FlowMesh) Register(a core.Agent, dependsOn ...string) {
	m.agents[a.Name()] = a
	m.deps[a.Name()] = dependsOn
}

// Run validates the dependency graph, builds the orchestrator and executes
// the flow to a terminal status. The seed populates the shared context
// before the first agent runs; pass nil for an empty seed.
func (m *FlowMesh) Run(ctx context.Context, seed map[string]any) (*core.Result, error) {
	g, err := graph.New(m.deps)
	if err != nil {
		return nil, err
	}

	orch, err := flow.New(g, m.agents, func(o *flow.Options) {
		o.Config = m.opts.Config
		o.Logger = m.opts.Logger
		o.Observers = m.opts.Observers
	})
	if err != nil {
		return nil, err
	}

	return orch.Run(ctx, seed)
}
