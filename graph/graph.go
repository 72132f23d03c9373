// Package graph implements the immutable dependency graph of a flow: a
// directed acyclic graph over agent identifiers describing which agents must
// complete before others may start.
//
// Construction validates the graph once, rejecting cyclic and unknown
// dependencies with typed errors, so the orchestrator never has to guard
// against a malformed graph at execution time. All query methods are pure
// functions over the immutable edge set.
package graph

import (
	"maps"
	"slices"

	"github.com/hupe1980/flowmesh/core"
)

// Graph is an immutable directed acyclic graph over agent identifiers.
type Graph struct {
	deps map[string][]string // agent id → its dependencies
	ids  []string            // all agent ids, sorted
}

// New builds a graph from a mapping of agent identifier to the identifiers
// it depends on. Agents without dependencies map to an empty (or nil) set.
//
// New fails with an UnknownDependencyError if a dependency references an
// identifier that is not a node, and with a CyclicDependencyError if the
// edges form a cycle.
func New(dependencies map[string][]string) (*Graph, error) {
	if len(dependencies) == 0 {
		return nil, ErrEmptyGraph
	}

	deps := make(map[string][]string, len(dependencies))
	for id, d := range dependencies {
		if id == "" {
			return nil, ErrEmptyAgentID
		}

		seen := make(map[string]bool, len(d))
		list := make([]string, 0, len(d))
		for _, dep := range d {
			if _, ok := dependencies[dep]; !ok {
				return nil, &UnknownDependencyError{AgentID: id, Dependency: dep}
			}
			if !seen[dep] {
				seen[dep] = true
				list = append(list, dep)
			}
		}
		slices.Sort(list)
		deps[id] = list
	}

	g := &Graph{
		deps: deps,
		ids:  slices.Sorted(maps.Keys(deps)),
	}

	if cycle := g.findCycle(); cycle != nil {
		return nil, &CyclicDependencyError{Cycle: cycle}
	}

	return g, nil
}

// findCycle runs a depth-first search with three-color marking and returns
// one concrete cycle path, or nil if the graph is acyclic.
func (g *Graph) findCycle() []string {
	const (
		white = 0 // unvisited
		gray  = 1 // on the current DFS path
		black = 2 // fully explored
	)

	color := make(map[string]int, len(g.ids))
	var path []string
	var cycle []string

	var visit func(id string) bool
	visit = func(id string) bool {
		color[id] = gray
		path = append(path, id)

		for _, dep := range g.deps[id] {
			switch color[dep] {
			case gray:
				// Found a back edge; slice the cycle out of the current path.
				start := slices.Index(path, dep)
				cycle = append(slices.Clone(path[start:]), dep)
				return true
			case white:
				if visit(dep) {
					return true
				}
			}
		}

		color[id] = black
		path = path[:len(path)-1]
		return false
	}

	for _, id := range g.ids {
		if color[id] == white && visit(id) {
			return cycle
		}
	}
	return nil
}

// Size returns the number of agents in the graph.
func (g *Graph) Size() int { return len(g.ids) }

// AgentIDs returns all agent identifiers in sorted order.
func (g *Graph) AgentIDs() []string { return slices.Clone(g.ids) }

// Contains reports whether the identifier is a node of the graph.
func (g *Graph) Contains(id string) bool {
	_, ok := g.deps[id]
	return ok
}

// Dependencies returns the dependency identifiers of an agent.
func (g *Graph) Dependencies(id string) []string { return slices.Clone(g.deps[id]) }

// Ready returns all Pending agents whose dependencies have all completed
// with status Succeeded, in sorted order. Agents with a dependency that
// finalized as Failed, Skipped or Escalated are never ready; they are
// reported by Skippable instead.
func (g *Graph) Ready(statuses map[string]core.AgentStatus) []string {
	var ready []string
	for _, id := range g.ids {
		if statuses[id] != core.AgentPending {
			continue
		}
		eligible := true
		for _, dep := range g.deps[id] {
			if !statuses[dep].IsSuccess() {
				eligible = false
				break
			}
		}
		if eligible {
			ready = append(ready, id)
		}
	}
	return ready
}

// Skippable returns all Pending agents that can never run because at least
// one dependency reached a terminal non-success state, in sorted order. The
// orchestrator marks these Skipped without dispatching them; the transition
// then cascades to their own dependents on the next evaluation.
func (g *Graph) Skippable(statuses map[string]core.AgentStatus) []string {
	var skippable []string
	for _, id := range g.ids {
		if statuses[id] != core.AgentPending {
			continue
		}
		for _, dep := range g.deps[id] {
			s := statuses[dep]
			if s.IsTerminal() && !s.IsSuccess() {
				skippable = append(skippable, id)
				break
			}
		}
	}
	return skippable
}

// IsTerminal reports whether every agent of the graph reached a terminal
// status.
func (g *Graph) IsTerminal(statuses map[string]core.AgentStatus) bool {
	for _, id := range g.ids {
		if !statuses[id].IsTerminal() {
			return false
		}
	}
	return true
}
