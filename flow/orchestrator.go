package flow

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hupe1980/flowmesh/core"
	"github.com/hupe1980/flowmesh/graph"
	"github.com/hupe1980/flowmesh/logging"
)

// Options configures an Orchestrator using the functional options pattern.
type Options struct {
	// Config is the failure policy and resource limits for the flow.
	// Defaults to DefaultConfig.
	Config Config

	// Logger receives structured scheduling events. Defaults to the NoOp
	// logger.
	Logger logging.Logger

	// Observers receive lifecycle notifications (metrics, auditing).
	Observers []Observer
}

// Orchestrator coordinates one bounded set of agents for a scenario run. It
// is immutable after construction; Run may be called multiple times, each
// call producing an independent flow context and result.
type Orchestrator struct {
	graph     *graph.Graph
	agents    map[string]core.Agent
	config    Config
	critical  map[string]bool
	logger    logging.Logger
	observers observers
}

// New wires a dependency graph to a registry of agent implementations.
//
// Every graph node must have a registered agent and every registered agent
// must be a graph node; mismatches are construction errors, consistent with
// the rule that a run either fails to start or always yields a complete
// result.
func New(g *graph.Graph, agents map[string]core.Agent, optFns ...func(o *Options)) (*Orchestrator, error) {
	if g == nil {
		return nil, ErrNilGraph
	}

	opts := Options{
		Config: DefaultConfig,
		Logger: logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Config.RetryCount < 0 {
		return nil, fmt.Errorf("%w: %d", ErrNegativeRetryCount, opts.Config.RetryCount)
	}

	for _, id := range g.AgentIDs() {
		if _, ok := agents[id]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrAgentNotRegistered, id)
		}
	}
	for id := range agents {
		if !g.Contains(id) {
			return nil, fmt.Errorf("%w: %s", ErrAgentNotInGraph, id)
		}
	}

	critical := make(map[string]bool, len(opts.Config.CriticalAgents))
	for _, id := range opts.Config.CriticalAgents {
		critical[id] = true
	}

	return &Orchestrator{
		graph:     g,
		agents:    agents,
		config:    opts.Config,
		critical:  critical,
		logger:    opts.Logger,
		observers: opts.Observers,
	}, nil
}

// Run executes the flow until every agent reaches a terminal state or an
// abort/escalation decision halts further dispatch. The seed populates the
// shared area of the flow context before any agent runs.
//
// Run never returns an error for agent-level failures; those are reflected
// in the Result's statuses. The returned Result is always complete.
func (o *Orchestrator) Run(ctx context.Context, seed map[string]any) (*core.Result, error) {
	runID := uuid.NewString()

	fc := core.NewFlowContext(seed)
	fc.SetShared(SharedRunIDKey, runID)

	statuses := make(map[string]core.AgentStatus, o.graph.Size())
	for _, id := range o.graph.AgentIDs() {
		statuses[id] = core.AgentPending
	}

	start := time.Now()
	o.logger.Info("flow.run.started", "run_id", runID, "agents", o.graph.Size())

	status := o.schedule(ctx, runID, fc, statuses)

	result := &core.Result{
		RunID:     runID,
		Status:    status,
		Outputs:   fc.Outputs(),
		Shared:    fc.SharedEntries(),
		Outcomes:  fc.Outcomes(),
		StartedAt: start,
		Duration:  time.Since(start),
	}

	o.logger.Info("flow.run.finished",
		"run_id", runID,
		"status", string(status),
		"duration_ms", result.Duration.Milliseconds(),
	)
	o.observers.flowEnd(result)

	return result, nil
}

// schedule drives the wave loop and returns the terminal flow status. The
// statuses map is owned exclusively by this goroutine; the flow context is
// the only state shared with dispatch goroutines.
func (o *Orchestrator) schedule(ctx context.Context, runID string, fc *core.FlowContext, statuses map[string]core.AgentStatus) core.FlowStatus {
	var sem chan struct{}
	if o.config.MaxConcurrency > 0 {
		sem = make(chan struct{}, o.config.MaxConcurrency)
	}

	for {
		o.propagateSkips(runID, fc, statuses)

		if o.escalated(statuses) {
			o.logger.Warn("flow.run.escalated", "run_id", runID, "threshold", o.config.EscalationThreshold)
			return core.FlowEscalated
		}

		if o.graph.IsTerminal(statuses) {
			return o.finalStatus(statuses)
		}

		if ctx.Err() != nil {
			o.logger.Warn("flow.run.cancelled", "run_id", runID, "error", ctx.Err().Error())
			return core.FlowAborted
		}

		ready := o.graph.Ready(statuses)
		if len(ready) == 0 {
			// Acyclic graph with non-terminal agents and nothing ready nor
			// skippable cannot happen; bail out rather than spin.
			return core.FlowAborted
		}

		if aborted := o.runWave(ctx, runID, fc, statuses, ready, sem); aborted {
			return core.FlowAborted
		}
	}
}

// runWave dispatches every ready agent concurrently, waits for all of them
// to reach a terminal state, and records outputs in completion order. It
// reports whether a critical agent failure aborted the run.
func (o *Orchestrator) runWave(ctx context.Context, runID string, fc *core.FlowContext, statuses map[string]core.AgentStatus, ready []string, sem chan struct{}) (aborted bool) {
	results := make(chan core.Output, len(ready))

	var wg sync.WaitGroup
	for _, id := range ready {
		statuses[id] = core.AgentRunning

		// Each agent gets its own snapshot taken at dispatch time; the
		// semaphore bounds how many invocations are in flight at once.
		if sem != nil {
			sem <- struct{}{}
		}

		wg.Add(1)
		go func(agent core.Agent, snapshot *core.Snapshot) {
			defer wg.Done()
			if sem != nil {
				defer func() { <-sem }()
			}

			results <- o.dispatch(ctx, agent, snapshot, runID)
		}(o.agents[id], fc.Snapshot())

		o.logger.Debug("flow.agent.dispatched", "run_id", runID, "agent", id)
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	for out := range results {
		fc.RecordOutput(out)
		statuses[out.AgentID] = out.Status
		o.observers.agentEnd(runID, out)

		o.logger.Info("flow.agent.finished",
			"run_id", runID,
			"agent", out.AgentID,
			"status", string(out.Status),
			"attempts", out.Attempts,
			"duration_ms", out.Duration.Milliseconds(),
		)

		if out.Status == core.AgentFailed && o.critical[out.AgentID] {
			o.logger.Error("flow.agent.critical_failure", "run_id", runID, "agent", out.AgentID)
			aborted = true
		}
	}

	return aborted
}

// propagateSkips transitions Pending agents with a failed, skipped or
// escalated ancestor to Skipped, recording a placeholder output for each.
// No agent code runs; the cascade repeats until a fixpoint.
func (o *Orchestrator) propagateSkips(runID string, fc *core.FlowContext, statuses map[string]core.AgentStatus) {
	for {
		skippable := o.graph.Skippable(statuses)
		if len(skippable) == 0 {
			return
		}

		for _, id := range skippable {
			statuses[id] = core.AgentSkipped

			out := core.Output{AgentID: id, Status: core.AgentSkipped}
			fc.RecordOutput(out)
			o.observers.agentEnd(runID, out)

			o.logger.Info("flow.agent.skipped", "run_id", runID, "agent", id)
		}
	}
}

// escalated reports whether the fraction of terminal non-succeeded agents
// exceeds the configured threshold.
func (o *Orchestrator) escalated(statuses map[string]core.AgentStatus) bool {
	if o.config.EscalationThreshold <= 0 {
		return false
	}

	unhealthy := 0
	for _, s := range statuses {
		if s.IsTerminal() && !s.IsSuccess() {
			unhealthy++
		}
	}

	return float64(unhealthy)/float64(len(statuses)) > o.config.EscalationThreshold
}

// finalStatus summarizes a fully terminal status map.
func (o *Orchestrator) finalStatus(statuses map[string]core.AgentStatus) core.FlowStatus {
	for _, s := range statuses {
		if !s.IsSuccess() {
			return core.FlowCompletedWithFailures
		}
	}
	return core.FlowCompleted
}
