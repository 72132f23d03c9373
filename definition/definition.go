// Package definition loads declarative flow definitions from YAML and
// compiles them into runnable orchestrators. A definition names the agents,
// their dependencies, and the failure policy, so flows can be authored and
// versioned without writing Go.
package definition

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/hupe1980/flowmesh/agent"
	"github.com/hupe1980/flowmesh/core"
	"github.com/hupe1980/flowmesh/flow"
	"github.com/hupe1980/flowmesh/graph"
	"github.com/hupe1980/flowmesh/model"
)

// Duration wraps time.Duration so YAML values like "30s" parse directly.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := time.ParseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", value.Value, err)
	}
	*d = Duration(parsed)
	return nil
}

// AgentDefinition describes one agent of a flow.
type AgentDefinition struct {
	// ID is the unique agent identifier within the flow.
	ID string `yaml:"id"`

	// Type selects the agent implementation: "http", "wait" or "generator".
	Type string `yaml:"type"`

	// DependsOn lists the agent IDs this agent consumes.
	DependsOn []string `yaml:"depends_on"`

	// Description is optional human-readable documentation.
	Description string `yaml:"description"`

	// HTTP agent fields.
	URL     string            `yaml:"url"`
	Method  string            `yaml:"method"`
	Headers map[string]string `yaml:"headers"`
	Body    string            `yaml:"body"`

	// Wait agent fields.
	Delay Duration `yaml:"delay"`

	// Generator agent fields.
	Model        string `yaml:"model"`
	Prompt       string `yaml:"prompt"`
	Instructions string `yaml:"instructions"`
	OutputKey    string `yaml:"output_key"`
}

// PolicyDefinition mirrors flow.Config in YAML form.
type PolicyDefinition struct {
	RetryCount          int                 `yaml:"retry_count"`
	CriticalAgents      []string            `yaml:"critical_agents"`
	EscalationThreshold float64             `yaml:"escalation_threshold"`
	MaxConcurrency      int                 `yaml:"max_concurrency"`
	DefaultTimeout      Duration            `yaml:"default_timeout"`
	AgentTimeouts       map[string]Duration `yaml:"agent_timeouts"`
}

// FlowDefinition is the root document of a flow YAML file.
type FlowDefinition struct {
	// Name identifies the flow in logs and CLI output.
	Name string `yaml:"name"`

	// Shared seeds the flow context before the first agent runs.
	Shared map[string]any `yaml:"shared"`

	// Policy is the failure policy. Omitted fields keep their zero value.
	Policy PolicyDefinition `yaml:"policy"`

	// Agents lists the flow's agents.
	Agents []AgentDefinition `yaml:"agents"`
}

// Load reads and parses a flow definition from a YAML file.
func Load(path string) (*FlowDefinition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read definition: %w", err)
	}
	return Parse(data)
}

// Parse parses a flow definition from YAML bytes.
func Parse(data []byte) (*FlowDefinition, error) {
	var def FlowDefinition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("parse definition: %w", err)
	}
	if len(def.Agents) == 0 {
		return nil, fmt.Errorf("definition %q declares no agents", def.Name)
	}
	return &def, nil
}

// CompileOptions configure definition compilation.
type CompileOptions struct {
	// Models resolves generator agent model names. Definitions without
	// generator agents need none.
	Models map[string]model.Model

	// FlowOptions are forwarded to the orchestrator constructor, for
	// wiring loggers and observers.
	FlowOptions []func(o *flow.Options)
}

// Compile builds the dependency graph, instantiates the declared agents and
// returns a ready-to-run orchestrator. Graph validation errors (cycles,
// unknown dependencies) surface unchanged from graph.New.
func (d *FlowDefinition) Compile(optFns ...func(o *CompileOptions)) (*flow.Orchestrator, error) {
	opts := CompileOptions{}
	for _, fn := range optFns {
		fn(&opts)
	}

	deps := make(map[string][]string, len(d.Agents))
	agents := make(map[string]core.Agent, len(d.Agents))

	for _, def := range d.Agents {
		if _, ok := agents[def.ID]; ok {
			return nil, fmt.Errorf("duplicate agent id %q", def.ID)
		}

		a, err := buildAgent(def, opts.Models)
		if err != nil {
			return nil, err
		}

		deps[def.ID] = def.DependsOn
		agents[def.ID] = a
	}

	g, err := graph.New(deps)
	if err != nil {
		return nil, err
	}

	cfg := d.Policy.config()
	flowOpts := append([]func(o *flow.Options){func(o *flow.Options) {
		o.Config = cfg
	}}, opts.FlowOptions...)

	return flow.New(g, agents, flowOpts...)
}

func (p PolicyDefinition) config() flow.Config {
	cfg := flow.Config{
		RetryCount:          p.RetryCount,
		CriticalAgents:      p.CriticalAgents,
		EscalationThreshold: p.EscalationThreshold,
		MaxConcurrency:      p.MaxConcurrency,
		DefaultTimeout:      time.Duration(p.DefaultTimeout),
	}
	if len(p.AgentTimeouts) > 0 {
		cfg.AgentTimeouts = make(map[string]time.Duration, len(p.AgentTimeouts))
		for id, t := range p.AgentTimeouts {
			cfg.AgentTimeouts[id] = time.Duration(t)
		}
	}
	return cfg
}

func buildAgent(def AgentDefinition, models map[string]model.Model) (core.Agent, error) {
	switch def.Type {
	case "http":
		if def.URL == "" {
			return nil, fmt.Errorf("agent %q: http agents require a url", def.ID)
		}
		a := agent.NewHTTPAgent(def.ID, def.URL, func(o *agent.HTTPOptions) {
			if def.Method != "" {
				o.Method = def.Method
			}
			o.Headers = def.Headers
			o.Body = def.Body
		})
		if def.Description != "" {
			a.SetDescription(def.Description)
		}
		return a, nil
	case "wait":
		if def.Delay <= 0 {
			return nil, fmt.Errorf("agent %q: wait agents require a positive delay", def.ID)
		}
		return agent.NewWaitAgent(def.ID, time.Duration(def.Delay)), nil
	case "generator":
		m, ok := models[def.Model]
		if !ok {
			return nil, fmt.Errorf("agent %q: unknown model %q", def.ID, def.Model)
		}
		if def.Prompt == "" {
			return nil, fmt.Errorf("agent %q: generator agents require a prompt", def.ID)
		}
		a := agent.NewGeneratorAgent(def.ID, m, def.Prompt, func(o *agent.GeneratorOptions) {
			o.Instructions = def.Instructions
			if def.OutputKey != "" {
				o.OutputKey = def.OutputKey
			}
		})
		if def.Description != "" {
			a.SetDescription(def.Description)
		}
		return a, nil
	case "":
		return nil, fmt.Errorf("agent %q: missing type", def.ID)
	default:
		return nil, fmt.Errorf("agent %q: unknown type %q", def.ID, def.Type)
	}
}
