package agent

import "fmt"

// BaseAgent bundles the identity helpers shared by all concrete agent
// implementations. Embed it and supply an Invoke method to satisfy the
// core.Agent interface.
type BaseAgent struct {
	name        string // Unique identifier within a flow
	description string // Detailed description of the agent's purpose
}

// NewBaseAgent constructs a BaseAgent with a generated description
// (customizable via SetDescription).
func NewBaseAgent(name string) BaseAgent {
	return BaseAgent{
		name:        name,
		description: fmt.Sprintf("Agent %s", name),
	}
}

// Name returns the agent's unique identifier within a flow.
func (b *BaseAgent) Name() string { return b.name }

// Description returns a detailed description of this agent's purpose.
func (b *BaseAgent) Description() string { return b.description }

// SetDescription updates the agent's description.
func (b *BaseAgent) SetDescription(desc string) { b.description = desc }
