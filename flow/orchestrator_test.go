package flow

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/flowmesh/core"
	"github.com/hupe1980/flowmesh/graph"
)

// stubAgent is a scriptable agent used throughout the orchestrator tests.
// It counts invocations and can fail, block, or inspect its snapshot.
type stubAgent struct {
	name    string
	invokes atomic.Int64
	fn      func(ctx context.Context, snapshot *core.Snapshot) (map[string]any, error)
}

func newStubAgent(name string, fn func(ctx context.Context, snapshot *core.Snapshot) (map[string]any, error)) *stubAgent {
	if fn == nil {
		fn = func(context.Context, *core.Snapshot) (map[string]any, error) {
			return map[string]any{"ok": true}, nil
		}
	}
	return &stubAgent{name: name, fn: fn}
}

func (a *stubAgent) Name() string        { return a.name }
func (a *stubAgent) Description() string { return "stub agent " + a.name }

func (a *stubAgent) Invoke(ctx context.Context, snapshot *core.Snapshot) (map[string]any, error) {
	a.invokes.Add(1)
	return a.fn(ctx, snapshot)
}

func failing(name, msg string) *stubAgent {
	return newStubAgent(name, func(context.Context, *core.Snapshot) (map[string]any, error) {
		return nil, errors.New(msg)
	})
}

func registry(agents ...*stubAgent) map[string]core.Agent {
	m := make(map[string]core.Agent, len(agents))
	for _, a := range agents {
		m[a.name] = a
	}
	return m
}

func mustGraph(t *testing.T, deps map[string][]string) *graph.Graph {
	t.Helper()
	g, err := graph.New(deps)
	require.NoError(t, err)
	return g
}

func TestNew_RegistryValidation(t *testing.T) {
	g := mustGraph(t, map[string][]string{"a": {}})

	_, err := New(g, registry())
	assert.ErrorIs(t, err, ErrAgentNotRegistered)

	_, err = New(g, registry(newStubAgent("a", nil), newStubAgent("intruder", nil)))
	assert.ErrorIs(t, err, ErrAgentNotInGraph)

	_, err = New(nil, registry())
	assert.ErrorIs(t, err, ErrNilGraph)
}

func TestNew_RejectsNegativeRetryCount(t *testing.T) {
	// A negative retry count would leave the dispatch loop without a single
	// attempt; it must fail construction, not a run.
	g := mustGraph(t, map[string][]string{"a": {}})

	_, err := New(g, registry(failing("a", "boom")), func(o *Options) {
		o.Config = Config{RetryCount: -1}
	})
	assert.ErrorIs(t, err, ErrNegativeRetryCount)
}

func TestRun_DiamondCompletes(t *testing.T) {
	// C depends on both A and B; C must only be dispatched after both
	// terminate, and the run ends Completed.
	g := mustGraph(t, map[string][]string{
		"a": {},
		"b": {},
		"c": {"a", "b"},
	})

	var mu sync.Mutex
	finished := map[string]time.Time{}
	mark := func(name string) {
		mu.Lock()
		finished[name] = time.Now()
		mu.Unlock()
	}

	a := newStubAgent("a", func(context.Context, *core.Snapshot) (map[string]any, error) {
		defer mark("a")
		return map[string]any{"from": "a"}, nil
	})
	b := newStubAgent("b", func(context.Context, *core.Snapshot) (map[string]any, error) {
		defer mark("b")
		return map[string]any{"from": "b"}, nil
	})

	var cStarted time.Time
	c := newStubAgent("c", func(_ context.Context, snap *core.Snapshot) (map[string]any, error) {
		cStarted = time.Now()

		// Upstream outputs must be fully materialized in the snapshot.
		av, ok := snap.Value("a", "from")
		require.True(t, ok)
		bv, ok := snap.Value("b", "from")
		require.True(t, ok)
		return map[string]any{"merged": av.(string) + bv.(string)}, nil
	})

	o, err := New(g, registry(a, b, c))
	require.NoError(t, err)

	result, err := o.Run(context.Background(), nil)
	require.NoError(t, err)

	assert.Equal(t, core.FlowCompleted, result.Status)
	assert.False(t, cStarted.Before(finished["a"]))
	assert.False(t, cStarted.Before(finished["b"]))

	out, ok := result.Output("c")
	require.True(t, ok)
	assert.Equal(t, "ab", out.Payload["merged"])

	// The run id is seeded into the shared context before dispatch.
	runID, ok := result.Shared[SharedRunIDKey]
	require.True(t, ok)
	assert.Equal(t, result.RunID, runID)
}

func TestRun_FailureSkipsDependents(t *testing.T) {
	g := mustGraph(t, map[string][]string{
		"a": {},
		"b": {"a"},
	})

	a := failing("a", "upstream broke")
	b := newStubAgent("b", nil)

	o, err := New(g, registry(a, b))
	require.NoError(t, err)

	result, err := o.Run(context.Background(), nil)
	require.NoError(t, err)

	assert.Equal(t, core.FlowCompletedWithFailures, result.Status)
	assert.Equal(t, int64(0), b.invokes.Load())

	aOut, _ := result.Output("a")
	assert.Equal(t, core.AgentFailed, aOut.Status)
	assert.Contains(t, aOut.Error, "upstream broke")

	bOut, _ := result.Output("b")
	assert.Equal(t, core.AgentSkipped, bOut.Status)
	assert.Empty(t, bOut.Payload)
	assert.Zero(t, bOut.Attempts)
}

func TestRun_SkipCascadesTransitively(t *testing.T) {
	g := mustGraph(t, map[string][]string{
		"a": {},
		"b": {"a"},
		"c": {"b"},
		"d": {"c"},
	})

	o, err := New(g, registry(
		failing("a", "boom"),
		newStubAgent("b", nil),
		newStubAgent("c", nil),
		newStubAgent("d", nil),
	))
	require.NoError(t, err)

	result, err := o.Run(context.Background(), nil)
	require.NoError(t, err)

	assert.Equal(t, core.FlowCompletedWithFailures, result.Status)
	assert.ElementsMatch(t, []string{"b", "c", "d"}, result.Skipped())
}

func TestRun_RetryLaw(t *testing.T) {
	// With RetryCount = N an always-failing agent is invoked exactly N+1
	// times before finalizing Failed.
	g := mustGraph(t, map[string][]string{"a": {}})
	a := failing("a", "always")

	o, err := New(g, registry(a), func(o *Options) {
		o.Config.RetryCount = 3
	})
	require.NoError(t, err)

	result, err := o.Run(context.Background(), nil)
	require.NoError(t, err)

	assert.Equal(t, int64(4), a.invokes.Load())
	out, _ := result.Output("a")
	assert.Equal(t, core.AgentFailed, out.Status)
	assert.Equal(t, 4, out.Attempts)
}

func TestRun_RetrySucceedsBeforeDependentsSkipped(t *testing.T) {
	g := mustGraph(t, map[string][]string{
		"a": {},
		"b": {"a"},
	})

	attempts := 0
	a := newStubAgent("a", func(context.Context, *core.Snapshot) (map[string]any, error) {
		attempts++
		if attempts < 3 {
			return nil, errors.New("transient")
		}
		return map[string]any{"ok": true}, nil
	})
	b := newStubAgent("b", nil)

	o, err := New(g, registry(a, b), func(o *Options) {
		o.Config.RetryCount = 2
	})
	require.NoError(t, err)

	result, err := o.Run(context.Background(), nil)
	require.NoError(t, err)

	assert.Equal(t, core.FlowCompleted, result.Status)
	assert.Equal(t, int64(1), b.invokes.Load())

	out, _ := result.Output("a")
	assert.Equal(t, 3, out.Attempts)
}

func TestRun_CriticalFailureAborts(t *testing.T) {
	g := mustGraph(t, map[string][]string{
		"a": {},
		"b": {"a"},
	})

	a := failing("a", "fatal")
	b := newStubAgent("b", nil)

	o, err := New(g, registry(a, b), func(o *Options) {
		o.Config.CriticalAgents = []string{"a"}
	})
	require.NoError(t, err)

	result, err := o.Run(context.Background(), nil)
	require.NoError(t, err)

	assert.Equal(t, core.FlowAborted, result.Status)
	// b was never dispatched: no invocation and no recorded output.
	assert.Equal(t, int64(0), b.invokes.Load())
	_, ok := result.Output("b")
	assert.False(t, ok)
}

func TestRun_NonCriticalFailureDoesNotAbort(t *testing.T) {
	g := mustGraph(t, map[string][]string{
		"a": {},
		"b": {},
	})

	o, err := New(g, registry(failing("a", "boom"), newStubAgent("b", nil)), func(o *Options) {
		o.Config.CriticalAgents = []string{"b"}
	})
	require.NoError(t, err)

	result, err := o.Run(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, core.FlowCompletedWithFailures, result.Status)
}

func TestRun_EscalationThreshold(t *testing.T) {
	// Four independent agents, three fail: 3/4 > 0.5 escalates the run.
	g := mustGraph(t, map[string][]string{
		"a": {}, "b": {}, "c": {}, "d": {},
	})

	o, err := New(g, registry(
		failing("a", "1"),
		failing("b", "2"),
		failing("c", "3"),
		newStubAgent("d", nil),
	), func(o *Options) {
		o.Config.EscalationThreshold = 0.5
	})
	require.NoError(t, err)

	result, err := o.Run(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, core.FlowEscalated, result.Status)
}

func TestRun_EscalationNotTriggeredAtThreshold(t *testing.T) {
	// The fraction must exceed the threshold, not merely reach it.
	g := mustGraph(t, map[string][]string{
		"a": {}, "b": {},
	})

	o, err := New(g, registry(failing("a", "1"), newStubAgent("b", nil)), func(o *Options) {
		o.Config.EscalationThreshold = 0.5
	})
	require.NoError(t, err)

	result, err := o.Run(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, core.FlowCompletedWithFailures, result.Status)
}

func TestRun_MaxConcurrencyBound(t *testing.T) {
	g := mustGraph(t, map[string][]string{
		"a": {}, "b": {}, "c": {}, "d": {}, "e": {},
	})

	var running, peak atomic.Int64
	mk := func(name string) *stubAgent {
		return newStubAgent(name, func(context.Context, *core.Snapshot) (map[string]any, error) {
			n := running.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			time.Sleep(20 * time.Millisecond)
			running.Add(-1)
			return nil, nil
		})
	}

	o, err := New(g, registry(mk("a"), mk("b"), mk("c"), mk("d"), mk("e")), func(o *Options) {
		o.Config.MaxConcurrency = 2
	})
	require.NoError(t, err)

	result, err := o.Run(context.Background(), nil)
	require.NoError(t, err)

	assert.Equal(t, core.FlowCompleted, result.Status)
	assert.LessOrEqual(t, peak.Load(), int64(2))
}

func TestRun_IndependentAgentsRunConcurrently(t *testing.T) {
	g := mustGraph(t, map[string][]string{"a": {}, "b": {}})

	gate := make(chan struct{})
	blocker := func(context.Context, *core.Snapshot) (map[string]any, error) {
		// Each agent waits for its sibling; sequential dispatch would
		// deadlock until the test timeout.
		select {
		case gate <- struct{}{}:
		case <-gate:
		}
		return nil, nil
	}

	o, err := New(g, registry(newStubAgent("a", blocker), newStubAgent("b", blocker)))
	require.NoError(t, err)

	done := make(chan *core.Result, 1)
	go func() {
		result, _ := o.Run(context.Background(), nil)
		done <- result
	}()

	select {
	case result := <-done:
		assert.Equal(t, core.FlowCompleted, result.Status)
	case <-time.After(2 * time.Second):
		t.Fatal("independent agents were not dispatched concurrently")
	}
}

func TestRun_AgentTimeout(t *testing.T) {
	g := mustGraph(t, map[string][]string{"a": {}})

	a := newStubAgent("a", func(ctx context.Context, _ *core.Snapshot) (map[string]any, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})

	o, err := New(g, registry(a), func(o *Options) {
		o.Config.AgentTimeouts = map[string]time.Duration{"a": 30 * time.Millisecond}
	})
	require.NoError(t, err)

	start := time.Now()
	result, err := o.Run(context.Background(), nil)
	require.NoError(t, err)

	out, _ := result.Output("a")
	assert.Equal(t, core.AgentFailed, out.Status)
	assert.Contains(t, out.Error, "timed out")
	assert.Less(t, time.Since(start), time.Second)
}

func TestRun_PanicContainedAtAdapterBoundary(t *testing.T) {
	g := mustGraph(t, map[string][]string{"a": {}, "b": {}})

	a := newStubAgent("a", func(context.Context, *core.Snapshot) (map[string]any, error) {
		panic("kaboom")
	})

	o, err := New(g, registry(a, newStubAgent("b", nil)))
	require.NoError(t, err)

	result, err := o.Run(context.Background(), nil)
	require.NoError(t, err)

	assert.Equal(t, core.FlowCompletedWithFailures, result.Status)
	out, _ := result.Output("a")
	assert.Equal(t, core.AgentFailed, out.Status)
	assert.Contains(t, out.Error, "panicked")

	bOut, _ := result.Output("b")
	assert.Equal(t, core.AgentSucceeded, bOut.Status)
}

func TestRun_CancellationAborts(t *testing.T) {
	g := mustGraph(t, map[string][]string{
		"a": {},
		"b": {"a"},
	})

	ctx, cancel := context.WithCancel(context.Background())

	a := newStubAgent("a", func(context.Context, *core.Snapshot) (map[string]any, error) {
		cancel()
		return map[string]any{"ok": true}, nil
	})
	b := newStubAgent("b", nil)

	o, err := New(g, registry(a, b))
	require.NoError(t, err)

	result, err := o.Run(ctx, nil)
	require.NoError(t, err)

	assert.Equal(t, core.FlowAborted, result.Status)
	assert.Equal(t, int64(0), b.invokes.Load())
}

func TestRun_SeedVisibleToAgents(t *testing.T) {
	g := mustGraph(t, map[string][]string{"a": {}})

	var seen any
	a := newStubAgent("a", func(_ context.Context, snap *core.Snapshot) (map[string]any, error) {
		seen, _ = snap.Shared("tenant")
		return nil, nil
	})

	o, err := New(g, registry(a))
	require.NoError(t, err)

	_, err = o.Run(context.Background(), map[string]any{"tenant": "acme"})
	require.NoError(t, err)
	assert.Equal(t, "acme", seen)
}

func TestRun_OutcomeLogInCompletionOrder(t *testing.T) {
	g := mustGraph(t, map[string][]string{
		"slow": {},
		"fast": {},
	})

	slow := newStubAgent("slow", func(context.Context, *core.Snapshot) (map[string]any, error) {
		time.Sleep(150 * time.Millisecond)
		return nil, nil
	})
	fast := newStubAgent("fast", nil)

	o, err := New(g, registry(slow, fast))
	require.NoError(t, err)

	result, err := o.Run(context.Background(), nil)
	require.NoError(t, err)

	require.Len(t, result.Outcomes, 2)
	assert.Equal(t, "fast", result.Outcomes[0].AgentID)
	assert.Equal(t, "slow", result.Outcomes[1].AgentID)
}

// recordingObserver captures notifications for assertion.
type recordingObserver struct {
	mu     sync.Mutex
	starts []string
	ends   []string
	flows  []core.FlowStatus
}

func (r *recordingObserver) OnAgentStart(_, agentID string, _ int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.starts = append(r.starts, agentID)
}

func (r *recordingObserver) OnAgentEnd(_ string, out core.Output) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ends = append(r.ends, out.AgentID)
}

func (r *recordingObserver) OnFlowEnd(result *core.Result) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.flows = append(r.flows, result.Status)
}

func TestRun_ObserverNotifications(t *testing.T) {
	g := mustGraph(t, map[string][]string{
		"a": {},
		"b": {"a"},
	})

	rec := &recordingObserver{}
	o, err := New(g, registry(failing("a", "boom"), newStubAgent("b", nil)), func(o *Options) {
		o.Observers = []Observer{rec}
	})
	require.NoError(t, err)

	_, err = o.Run(context.Background(), nil)
	require.NoError(t, err)

	// a was attempted; b only appears as a skipped end notification.
	assert.Equal(t, []string{"a"}, rec.starts)
	assert.ElementsMatch(t, []string{"a", "b"}, rec.ends)
	assert.Equal(t, []core.FlowStatus{core.FlowCompletedWithFailures}, rec.flows)
}

func TestRun_TerminatesOnWiderGraphs(t *testing.T) {
	// Layered graph: every pending agent eventually reaches a terminal
	// state and the flow status is terminal (no deadlock).
	g := mustGraph(t, map[string][]string{
		"a": {}, "b": {}, "c": {"a"}, "d": {"a", "b"}, "e": {"c", "d"}, "f": {"e"},
	})

	agents := registry(
		newStubAgent("a", nil), newStubAgent("b", nil), newStubAgent("c", nil),
		failing("d", "boom"), newStubAgent("e", nil), newStubAgent("f", nil),
	)

	o, err := New(g, agents)
	require.NoError(t, err)

	result, err := o.Run(context.Background(), nil)
	require.NoError(t, err)

	assert.True(t, result.Status.IsTerminal())
	for _, id := range g.AgentIDs() {
		out, ok := result.Output(id)
		require.True(t, ok, "agent %s has no recorded output", id)
		assert.True(t, out.Status.IsTerminal())
	}
	assert.ElementsMatch(t, []string{"e", "f"}, result.Skipped())
}
