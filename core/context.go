package core

import (
	"maps"
	"sync"
)

// FlowContext is the single shared mutable resource of a flow run. It
// accumulates per-agent outputs, a shared key/value area any agent may use
// for cross-cutting data, and an ordered log of outcomes in completion
// order.
//
// A single mutex guards all three structures, so a snapshot always sees a
// consistent, fully materialized prior state: no reader ever observes a
// partially written Output. The orchestrator records each agent's output
// exactly once (enforced by the Running→terminal transition guard in the
// scheduling loop); RecordOutput itself is last-write-wins.
//
// The context lives for exactly one flow run.
type FlowContext struct {
	mu       sync.RWMutex
	outputs  map[string]Output
	shared   map[string]any
	outcomes []Output
}

// NewFlowContext constructs a flow context seeded with the given shared
// key/value entries. A nil seed yields an empty shared area.
func NewFlowContext(seed map[string]any) *FlowContext {
	shared := make(map[string]any, len(seed))
	maps.Copy(shared, seed)

	return &FlowContext{
		outputs: make(map[string]Output),
		shared:  shared,
	}
}

// RecordOutput stores the output for out.AgentID and appends it to the
// ordered outcome log. The last write for a given agent wins.
func (c *FlowContext) RecordOutput(out Output) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.outputs[out.AgentID] = out
	c.outcomes = append(c.outcomes, out)
}

// Output returns the recorded output for an agent, if any.
func (c *FlowContext) Output(agentID string) (Output, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out, ok := c.outputs[agentID]
	if !ok {
		return Output{}, false
	}
	return out.clone(), true
}

// SetShared stores a cross-cutting key/value entry not tied to any single
// agent's output (e.g. a run-scoped identifier).
func (c *FlowContext) SetShared(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.shared[key] = value
}

// Shared returns a shared entry by key.
func (c *FlowContext) Shared(key string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	v, ok := c.shared[key]
	return v, ok
}

// Outputs returns a copy of all recorded outputs keyed by agent identifier.
func (c *FlowContext) Outputs() map[string]Output {
	c.mu.RLock()
	defer c.mu.RUnlock()

	outputs := make(map[string]Output, len(c.outputs))
	for id, out := range c.outputs {
		outputs[id] = out.clone()
	}
	return outputs
}

// SharedEntries returns a copy of the shared key/value area.
func (c *FlowContext) SharedEntries() map[string]any {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return maps.Clone(c.shared)
}

// Outcomes returns a copy of the ordered outcome log (completion order).
func (c *FlowContext) Outcomes() []Output {
	c.mu.RLock()
	defer c.mu.RUnlock()

	log := make([]Output, len(c.outcomes))
	copy(log, c.outcomes)
	return log
}

// Snapshot returns an immutable copy of the current context state, safe to
// read while other agents concurrently record their own outputs.
func (c *FlowContext) Snapshot() *Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()

	outputs := make(map[string]Output, len(c.outputs))
	for id, out := range c.outputs {
		outputs[id] = out.clone()
	}

	return &Snapshot{
		outputs: outputs,
		shared:  maps.Clone(c.shared),
	}
}

// Snapshot is a read-only view of a FlowContext taken at dispatch time.
// Agents receive a Snapshot, never the live context, so concurrent writers
// cannot affect what a running agent observes.
type Snapshot struct {
	outputs map[string]Output
	shared  map[string]any
}

// Output returns the output recorded for an agent at snapshot time.
func (s *Snapshot) Output(agentID string) (Output, bool) {
	out, ok := s.outputs[agentID]
	return out, ok
}

// Value returns a single payload entry from an upstream agent's output.
func (s *Snapshot) Value(agentID, key string) (any, bool) {
	out, ok := s.outputs[agentID]
	if !ok {
		return nil, false
	}
	return out.Value(key)
}

// Shared returns a shared entry by key.
func (s *Snapshot) Shared(key string) (any, bool) {
	v, ok := s.shared[key]
	return v, ok
}

// State flattens the snapshot into a template-friendly map with the shared
// entries at the top level and per-agent payloads under "outputs".
func (s *Snapshot) State() map[string]any {
	state := make(map[string]any, len(s.shared)+1)
	maps.Copy(state, s.shared)

	outputs := make(map[string]any, len(s.outputs))
	for id, out := range s.outputs {
		outputs[id] = out.Payload
	}
	state["outputs"] = outputs

	return state
}
