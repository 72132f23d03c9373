package history

import (
	"github.com/hupe1980/flowmesh/core"
	"github.com/hupe1980/flowmesh/flow"
)

// Recorder is a flow.Observer that saves every terminal result into a Store.
// Attach it via the orchestrator's Observers option to build up a queryable
// run history.
type Recorder struct {
	flow.NoOpObserver
	store Store
}

// NewRecorder wraps a Store as an observer.
func NewRecorder(store Store) *Recorder {
	return &Recorder{store: store}
}

// OnFlowEnd saves the result. Save errors are swallowed; observers cannot
// influence the run outcome.
func (r *Recorder) OnFlowEnd(result *core.Result) {
	_ = r.store.Save(result)
}
