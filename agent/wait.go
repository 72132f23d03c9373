package agent

import (
	"context"
	"fmt"
	"time"

	"github.com/hupe1980/flowmesh/core"
)

// WaitAgent pauses for a fixed duration before succeeding with an empty
// payload. Useful for pacing downstream calls and for exercising timeout
// and concurrency behavior in tests and examples.
type WaitAgent struct {
	BaseAgent
	delay time.Duration
}

// NewWaitAgent constructs a WaitAgent with the given delay.
func NewWaitAgent(name string, delay time.Duration) *WaitAgent {
	a := &WaitAgent{BaseAgent: NewBaseAgent(name), delay: delay}
	a.SetDescription(fmt.Sprintf("Waits %s before completing", delay))
	return a
}

// Invoke implements core.Agent. It returns early with the context error if
// the flow is cancelled or the agent's timeout elapses first.
func (a *WaitAgent) Invoke(ctx context.Context, _ *core.Snapshot) (map[string]any, error) {
	timer := time.NewTimer(a.delay)
	defer timer.Stop()

	select {
	case <-timer.C:
		return map[string]any{"waited": a.delay.String()}, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
