package core

// AgentStatus tracks a single agent through its lifecycle within one flow run.
//
// Lifecycle:
//
//	Pending → Running → Succeeded
//	                  ↘ Failed (after retry policy is exhausted)
//	Pending → Skipped   (a dependency finalized as non-success; agent never runs)
//
// Succeeded, Failed, Skipped and Escalated are terminal; an agent reaches
// exactly one of them per run.
type AgentStatus string

const (
	// AgentPending means the agent has not been dispatched yet.
	AgentPending AgentStatus = "PENDING"

	// AgentRunning means the agent has been dispatched and has not returned.
	AgentRunning AgentStatus = "RUNNING"

	// AgentSucceeded means the agent returned a payload without error.
	AgentSucceeded AgentStatus = "SUCCEEDED"

	// AgentFailed means the agent returned an error, timed out, or panicked,
	// and the retry policy was exhausted.
	AgentFailed AgentStatus = "FAILED"

	// AgentSkipped means an ancestor finalized as Failed, Skipped or
	// Escalated, so this agent was never dispatched.
	AgentSkipped AgentStatus = "SKIPPED"

	// AgentEscalated means the run was halted for external decision while
	// this agent was implicated; no automated recovery is attempted.
	AgentEscalated AgentStatus = "ESCALATED"
)

// IsTerminal reports whether the status is final for the run.
func (s AgentStatus) IsTerminal() bool {
	switch s {
	case AgentSucceeded, AgentFailed, AgentSkipped, AgentEscalated:
		return true
	default:
		return false
	}
}

// IsSuccess reports whether the status unblocks dependents.
func (s AgentStatus) IsSuccess() bool { return s == AgentSucceeded }

// FlowStatus is the aggregate state of one flow run.
//
// Lifecycle:
//
//	Running → Completed              (all agents terminal, none failed)
//	        → CompletedWithFailures  (some agents failed or were skipped)
//	        → Aborted                (critical agent failed or run cancelled)
//	        → Escalated              (failure fraction crossed the threshold)
type FlowStatus string

const (
	// FlowRunning means the orchestrator is still dispatching agents.
	FlowRunning FlowStatus = "RUNNING"

	// FlowCompleted means every agent succeeded.
	FlowCompleted FlowStatus = "COMPLETED"

	// FlowCompletedWithFailures means the run reached the end of the graph
	// but one or more agents failed or were skipped.
	FlowCompletedWithFailures FlowStatus = "COMPLETED_WITH_FAILURES"

	// FlowAborted means a critical agent failed (or the caller cancelled the
	// run) and no further agents were dispatched.
	FlowAborted FlowStatus = "ABORTED"

	// FlowEscalated means the run was halted pending an external decision.
	// Escalation is a first-class terminal state, not an error to recover
	// from automatically.
	FlowEscalated FlowStatus = "ESCALATED"
)

// IsTerminal reports whether the flow status is final.
func (s FlowStatus) IsTerminal() bool { return s != FlowRunning }
