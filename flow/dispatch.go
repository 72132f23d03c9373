package flow

import (
	"context"
	"fmt"
	"time"

	"github.com/hupe1980/flowmesh/core"
)

// invokeResult carries one attempt's outcome across the goroutine boundary.
type invokeResult struct {
	payload map[string]any
	err     error
}

// dispatch is the adapter boundary between the scheduling loop and agent
// implementations. It applies the retry policy, enforces the per-agent
// timeout, converts panics into errors, and always returns a terminal
// Output. Nothing an agent does can interrupt the orchestrator.
//
// Retries reuse the snapshot taken at dispatch time so retry semantics stay
// deterministic regardless of what sibling agents record in the meantime.
func (o *Orchestrator) dispatch(ctx context.Context, agent core.Agent, snapshot *core.Snapshot, runID string) core.Output {
	agentID := agent.Name()
	timeout := o.config.timeoutFor(agentID)
	maxAttempts := o.config.RetryCount + 1

	start := time.Now()

	var lastErr error
	attempts := 0
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		attempts = attempt
		o.observers.agentStart(runID, agentID, attempt)

		payload, err := invokeOnce(ctx, agent, snapshot, timeout)
		if err == nil {
			return core.Output{
				AgentID:  agentID,
				Status:   core.AgentSucceeded,
				Payload:  payload,
				Attempts: attempt,
				Duration: time.Since(start),
			}
		}

		lastErr = err
		o.logger.Warn("flow.agent.attempt_failed",
			"run_id", runID,
			"agent", agentID,
			"attempt", attempt,
			"max_attempts", maxAttempts,
			"error", err.Error(),
		)

		// A cancelled run is not worth retrying.
		if ctx.Err() != nil {
			break
		}
	}

	return core.Output{
		AgentID:  agentID,
		Status:   core.AgentFailed,
		Error:    lastErr.Error(),
		Attempts: attempts,
		Duration: time.Since(start),
	}
}

// invokeOnce performs a single invocation attempt. The agent runs in its own
// goroutine so the orchestrator never blocks past the declared timeout; on
// timeout the invocation context is cancelled and a timeout error returned
// immediately, while the straggling call is left to observe cancellation.
func invokeOnce(ctx context.Context, agent core.Agent, snapshot *core.Snapshot, timeout time.Duration) (map[string]any, error) {
	invokeCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		invokeCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	resultCh := make(chan invokeResult, 1)

	go func() {
		defer func() { // panic safety
			if r := recover(); r != nil {
				resultCh <- invokeResult{err: fmt.Errorf("agent %s panicked: %v", agent.Name(), r)}
			}
		}()

		payload, err := agent.Invoke(invokeCtx, snapshot)
		resultCh <- invokeResult{payload: payload, err: err}
	}()

	select {
	case res := <-resultCh:
		if res.err != nil {
			return nil, fmt.Errorf("agent %s: %w", agent.Name(), res.err)
		}
		return res.payload, nil
	case <-invokeCtx.Done():
		if timeout > 0 && ctx.Err() == nil {
			return nil, fmt.Errorf("agent %s timed out after %s", agent.Name(), timeout)
		}
		return nil, fmt.Errorf("agent %s cancelled: %w", agent.Name(), invokeCtx.Err())
	}
}
