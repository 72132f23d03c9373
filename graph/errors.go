package graph

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrCyclicDependency indicates a dependency cycle among agents.
	ErrCyclicDependency = errors.New("cyclic dependency detected")

	// ErrUnknownDependency indicates an agent depends on an identifier that
	// is not a node of the graph.
	ErrUnknownDependency = errors.New("depends on unknown agent")

	// ErrEmptyGraph indicates a graph definition with no agents.
	ErrEmptyGraph = errors.New("graph has no agents")

	// ErrEmptyAgentID indicates an agent with an empty identifier.
	ErrEmptyAgentID = errors.New("agent has empty identifier")
)

// CyclicDependencyError reports a dependency cycle, including one concrete
// cycle path for diagnostics.
type CyclicDependencyError struct {
	// Cycle lists the agent identifiers forming the cycle, in dependency
	// order, with the first identifier repeated at the end.
	Cycle []string
}

// Error implements the error interface.
func (e *CyclicDependencyError) Error() string {
	return fmt.Sprintf("cyclic dependency detected: %s", strings.Join(e.Cycle, " -> "))
}

// Unwrap returns ErrCyclicDependency so callers can match with errors.Is.
func (e *CyclicDependencyError) Unwrap() error { return ErrCyclicDependency }

// UnknownDependencyError reports a dependency reference to an identifier
// that is not present as a graph node.
type UnknownDependencyError struct {
	AgentID    string // agent declaring the dependency
	Dependency string // missing identifier
}

// Error implements the error interface.
func (e *UnknownDependencyError) Error() string {
	return fmt.Sprintf("agent %s depends on unknown agent %s", e.AgentID, e.Dependency)
}

// Unwrap returns ErrUnknownDependency so callers can match with errors.Is.
func (e *UnknownDependencyError) Unwrap() error { return ErrUnknownDependency }
