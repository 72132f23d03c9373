package core

import "context"

// Agent is the capability interface every unit of work in a flow implements.
//
// Implementations wrap arbitrary collaborators such as rule engines,
// retrieval calls, external APIs and content generators. The orchestrator depends only on
// this signature; concrete agents are registered under their identifier at
// flow construction time.
//
// Invoke receives an immutable snapshot of the flow context taken at
// dispatch time and returns the payload to record for downstream consumers.
// The provided context carries the per-agent timeout; implementations must
// respect its cancellation. Returned errors (and panics, and timeouts) are
// converted into a Failed Output at the dispatch boundary and never
// interrupt the scheduling loop.
type Agent interface {
	// Name returns the agent's unique identifier within a flow.
	Name() string

	// Description returns a human-readable summary of the agent's purpose.
	Description() string

	// Invoke executes the unit of work against a read-only context snapshot.
	Invoke(ctx context.Context, snapshot *Snapshot) (map[string]any, error)
}
