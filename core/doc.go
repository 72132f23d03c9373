// Package core contains the shared data model and contracts of FlowMesh:
// agent and flow statuses, agent outputs, the synchronized flow context,
// the Agent capability interface, and the final flow result.
//
// The core package has no scheduling logic of its own. The orchestrator in
// package flow drives agents through their status lifecycle and records
// their outputs into a FlowContext; core only guarantees that this shared
// state can be mutated and snapshotted safely from concurrent goroutines.
package core
