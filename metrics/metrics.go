// Package metrics exposes Prometheus instrumentation for flow runs. The
// Collector implements flow.Observer, so it plugs into an orchestrator via
// the Observers option and records per-agent and per-flow metrics without
// touching the scheduling loop.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/hupe1980/flowmesh/core"
)

// Collector records agent and flow metrics from orchestrator notifications.
// It is safe for concurrent use; the underlying Prometheus vectors handle
// their own synchronization.
type Collector struct {
	agentAttempts *prometheus.CounterVec
	agentOutcomes *prometheus.CounterVec
	agentDuration *prometheus.HistogramVec
	flowRuns      *prometheus.CounterVec
	flowDuration  prometheus.Histogram
}

// NewCollector creates a Collector and registers its metrics with reg. It
// panics if a metric with the same name is already registered, matching the
// behavior of prometheus.MustRegister.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		agentAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "flowmesh_agent_attempts_total",
			Help: "Total agent invocation attempts, including retries.",
		}, []string{"agent"}),
		agentOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "flowmesh_agent_outcomes_total",
			Help: "Terminal agent outcomes by status.",
		}, []string{"agent", "status"}),
		agentDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "flowmesh_agent_duration_seconds",
			Help:    "Wall-clock duration of agent executions.",
			Buckets: prometheus.DefBuckets,
		}, []string{"agent"}),
		flowRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "flowmesh_flow_runs_total",
			Help: "Completed flow runs by terminal status.",
		}, []string{"status"}),
		flowDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "flowmesh_flow_duration_seconds",
			Help:    "Wall-clock duration of flow runs.",
			Buckets: prometheus.DefBuckets,
		}),
	}

	reg.MustRegister(c.agentAttempts, c.agentOutcomes, c.agentDuration, c.flowRuns, c.flowDuration)

	return c
}

// OnAgentStart counts every invocation attempt.
func (c *Collector) OnAgentStart(_, agentID string, _ int) {
	c.agentAttempts.WithLabelValues(agentID).Inc()
}

// OnAgentEnd records the terminal outcome and execution duration. Skipped
// agents carry a zero duration and are counted under the SKIPPED status.
func (c *Collector) OnAgentEnd(_ string, out core.Output) {
	c.agentOutcomes.WithLabelValues(out.AgentID, string(out.Status)).Inc()
	c.agentDuration.WithLabelValues(out.AgentID).Observe(out.Duration.Seconds())
}

// OnFlowEnd records the run outcome and total duration.
func (c *Collector) OnFlowEnd(result *core.Result) {
	c.flowRuns.WithLabelValues(string(result.Status)).Inc()
	c.flowDuration.Observe(result.Duration.Seconds())
}
