package flow

import "time"

// SharedRunIDKey is the shared context key under which the orchestrator
// seeds the run identifier before the first agent is dispatched.
const SharedRunIDKey = "flow.run_id"

// Config defines the failure policy and resource limits for one flow.
//
// The zero value is a usable policy: no retries, no critical agents, no
// escalation threshold, unbounded concurrency within the ready set, and no
// per-agent timeout.
type Config struct {
	// RetryCount is the number of re-invocations after a failed attempt
	// before an agent finalizes as Failed. Retries use the snapshot taken
	// when the agent was dispatched and happen before any dependent is
	// skipped. Negative values are rejected at construction time.
	RetryCount int

	// CriticalAgents lists agents whose final failure aborts the run:
	// already-running agents finish their current attempt, but no new agent
	// is dispatched afterwards.
	CriticalAgents []string

	// EscalationThreshold halts the run for external decision once the
	// fraction of terminal non-succeeded agents exceeds it. Zero disables
	// escalation.
	EscalationThreshold float64

	// MaxConcurrency bounds the number of concurrently running agents.
	// Zero means unbounded within the current ready set.
	MaxConcurrency int

	// DefaultTimeout applies to every agent without an entry in
	// AgentTimeouts. Zero means no timeout.
	DefaultTimeout time.Duration

	// AgentTimeouts overrides DefaultTimeout per agent identifier.
	AgentTimeouts map[string]time.Duration
}

// DefaultConfig is the policy used when the caller supplies none.
var DefaultConfig = Config{
	RetryCount:     0,
	MaxConcurrency: 0,
	DefaultTimeout: 0,
}

// timeoutFor resolves the effective timeout for an agent.
func (c Config) timeoutFor(agentID string) time.Duration {
	if t, ok := c.AgentTimeouts[agentID]; ok {
		return t
	}
	return c.DefaultTimeout
}
