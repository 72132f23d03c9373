package flow

import "github.com/hupe1980/flowmesh/core"

// Observer receives lifecycle notifications from the orchestrator. Observers
// hook cross-cutting concerns (structured logging, metrics collection,
// audit trails) into the scheduling loop without modifying it.
//
// Implementations must be fast and safe for concurrent use: agent-level
// notifications fire from dispatch goroutines. Observers cannot influence
// scheduling decisions.
type Observer interface {
	// OnAgentStart fires before each invocation attempt (1-indexed).
	OnAgentStart(runID, agentID string, attempt int)

	// OnAgentEnd fires once per agent when its output is recorded,
	// including placeholder outputs for skipped agents.
	OnAgentEnd(runID string, output core.Output)

	// OnFlowEnd fires exactly once when the run reaches a terminal status.
	OnFlowEnd(result *core.Result)
}

// NoOpObserver discards all notifications. Embed it to implement only a
// subset of Observer.
type NoOpObserver struct{}

// OnAgentStart discards the notification.
func (NoOpObserver) OnAgentStart(string, string, int) {}

// OnAgentEnd discards the notification.
func (NoOpObserver) OnAgentEnd(string, core.Output) {}

// OnFlowEnd discards the notification.
func (NoOpObserver) OnFlowEnd(*core.Result) {}

// observers fans a notification out to every registered observer in
// registration order.
type observers []Observer

func (os observers) agentStart(runID, agentID string, attempt int) {
	for _, o := range os {
		o.OnAgentStart(runID, agentID, attempt)
	}
}

func (os observers) agentEnd(runID string, out core.Output) {
	for _, o := range os {
		o.OnAgentEnd(runID, out)
	}
}

func (os observers) flowEnd(result *core.Result) {
	for _, o := range os {
		o.OnFlowEnd(result)
	}
}
