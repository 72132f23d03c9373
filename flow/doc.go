// Package flow implements the FlowMesh orchestrator: the scheduler that
// walks a dependency graph, dispatches ready agents for concurrent
// execution, applies the configured failure policy, and aggregates one run
// into a final core.Result.
//
// The orchestrator runs in waves. Each iteration propagates skips for
// agents whose ancestors finalized without success, dispatches every ready
// agent concurrently (bounded by Config.MaxConcurrency), waits for all
// in-flight invocations of the wave to reach a terminal state, and then
// re-evaluates readiness against the updated statuses. Flow context writes
// are linearized by the context's own lock, so two agents in a dependency
// relation always observe strict happens-before ordering.
//
// Agent failures never unwind the scheduling loop: the dispatch boundary
// converts errors, timeouts and panics into Failed outputs. Only graph
// construction and registry wiring errors are returned synchronously; a
// caller otherwise always receives a complete Result.
package flow
