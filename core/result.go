package core

import "time"

// Result is the terminal summary of one flow run: the aggregate status, a
// full snapshot of the flow context, and the ordered log of per-agent
// outcomes. It is created once when the run ends and never mutated.
type Result struct {
	// RunID uniquely identifies the run.
	RunID string `json:"run_id"`

	// Status is the terminal flow status.
	Status FlowStatus `json:"status"`

	// Outputs maps every agent to its recorded output. Agents that never
	// reached a terminal state (possible only on an aborted or escalated
	// run) are absent.
	Outputs map[string]Output `json:"outputs"`

	// Shared is the final shared key/value area of the flow context.
	Shared map[string]any `json:"shared,omitempty"`

	// Outcomes is the per-agent outcome log in completion order.
	Outcomes []Output `json:"outcomes"`

	// StartedAt is the wall-clock start of the run.
	StartedAt time.Time `json:"started_at"`

	// Duration is the total run time.
	Duration time.Duration `json:"duration"`
}

// Output returns the recorded output for an agent, if any.
func (r *Result) Output(agentID string) (Output, bool) {
	out, ok := r.Outputs[agentID]
	return out, ok
}

// Failed returns the identifiers of all agents that finalized as Failed, in
// completion order.
func (r *Result) Failed() []string {
	var ids []string
	for _, out := range r.Outcomes {
		if out.Status == AgentFailed {
			ids = append(ids, out.AgentID)
		}
	}
	return ids
}

// Skipped returns the identifiers of all agents that were skipped, in
// completion order.
func (r *Result) Skipped() []string {
	var ids []string
	for _, out := range r.Outcomes {
		if out.Status == AgentSkipped {
			ids = append(ids, out.AgentID)
		}
	}
	return ids
}

// Counts returns the number of recorded outputs per agent status.
func (r *Result) Counts() map[AgentStatus]int {
	counts := make(map[AgentStatus]int, len(r.Outputs))
	for _, out := range r.Outputs {
		counts[out.Status]++
	}
	return counts
}
