package history

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/flowmesh/core"
	"github.com/hupe1980/flowmesh/flow"
	"github.com/hupe1980/flowmesh/graph"
)

// Interface compliance (compile-time assertions)
var (
	_ Store         = (*InMemoryStore)(nil)
	_ flow.Observer = (*Recorder)(nil)
)

func TestInMemoryStore_SaveAndGet(t *testing.T) {
	store := NewInMemoryStore()

	require.NoError(t, store.Save(&core.Result{RunID: "run-1", Status: core.FlowCompleted}))
	require.NoError(t, store.Save(&core.Result{RunID: "run-2", Status: core.FlowAborted}))

	got, err := store.Get("run-2")
	require.NoError(t, err)
	assert.Equal(t, core.FlowAborted, got.Status)

	ids, err := store.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"run-1", "run-2"}, ids)
}

func TestInMemoryStore_UnknownRun(t *testing.T) {
	store := NewInMemoryStore()

	_, err := store.Get("missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `no result for run "missing"`)
}

func TestInMemoryStore_RejectsEmptyRunID(t *testing.T) {
	store := NewInMemoryStore()

	assert.Error(t, store.Save(nil))
	assert.Error(t, store.Save(&core.Result{}))
}

func TestRecorder_CapturesFlowResult(t *testing.T) {
	store := NewInMemoryStore()
	rec := NewRecorder(store)

	rec.OnFlowEnd(&core.Result{RunID: "run-1", Status: core.FlowCompletedWithFailures})

	got, err := store.Get("run-1")
	require.NoError(t, err)
	assert.Equal(t, core.FlowCompletedWithFailures, got.Status)
}

type noopAgent struct{ name string }

func (a noopAgent) Name() string        { return a.name }
func (a noopAgent) Description() string { return "" }
func (a noopAgent) Invoke(context.Context, *core.Snapshot) (map[string]any, error) {
	return map[string]any{"ok": true}, nil
}

func newSingleAgentFlow(t *testing.T, observers ...flow.Observer) *flow.Orchestrator {
	t.Helper()

	g, err := graph.New(map[string][]string{"only": nil})
	require.NoError(t, err)

	orch, err := flow.New(g, map[string]core.Agent{"only": noopAgent{name: "only"}}, func(o *flow.Options) {
		o.Observers = observers
	})
	require.NoError(t, err)

	return orch
}

func TestRecorder_WiredIntoOrchestrator(t *testing.T) {
	store := NewInMemoryStore()

	orch := newSingleAgentFlow(t, NewRecorder(store))
	result, err := orch.Run(context.Background(), nil)
	require.NoError(t, err)

	got, err := store.Get(result.RunID)
	require.NoError(t, err)
	assert.Equal(t, core.FlowCompleted, got.Status)
}
