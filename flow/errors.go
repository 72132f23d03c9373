package flow

import "errors"

var (
	// ErrAgentNotRegistered indicates a graph node without a registered
	// agent implementation.
	ErrAgentNotRegistered = errors.New("no agent registered for graph node")

	// ErrAgentNotInGraph indicates a registered agent whose identifier is
	// not a node of the dependency graph.
	ErrAgentNotInGraph = errors.New("registered agent is not a graph node")

	// ErrNilGraph indicates construction without a dependency graph.
	ErrNilGraph = errors.New("dependency graph is required")

	// ErrNegativeRetryCount indicates a failure policy with a retry count
	// below zero.
	ErrNegativeRetryCount = errors.New("retry count must not be negative")
)
