package core

import (
	"maps"
	"time"
)

// Output is the recorded result of one agent's execution: the payload it
// produced for downstream consumers, its terminal status, timing, and an
// optional error description. Once recorded into a FlowContext an Output is
// owned by the context and never mutated again.
type Output struct {
	// AgentID is the agent that produced this output.
	AgentID string `json:"agent_id"`

	// Status is the terminal status the agent reached.
	Status AgentStatus `json:"status"`

	// Payload holds semantic key/value data for downstream agents. Empty for
	// skipped agents.
	Payload map[string]any `json:"payload,omitempty"`

	// Error describes the failure for Failed outputs; empty otherwise.
	Error string `json:"error,omitempty"`

	// Attempts is the number of invocations made, including retries. Zero
	// for agents that never ran.
	Attempts int `json:"attempts"`

	// Duration is the wall-clock time spent across all attempts.
	Duration time.Duration `json:"duration"`
}

// Succeeded reports whether the output represents a successful execution.
func (o Output) Succeeded() bool { return o.Status == AgentSucceeded }

// Value returns a payload entry by key.
func (o Output) Value(key string) (any, bool) {
	v, ok := o.Payload[key]
	return v, ok
}

// clone returns a deep-enough copy for handing out in snapshots: the payload
// map is copied so no reader can alias the recorded state.
func (o Output) clone() Output {
	c := o
	if o.Payload != nil {
		c.Payload = maps.Clone(o.Payload)
	}
	return c
}
