package agent

import (
	"context"
	"errors"
	"fmt"

	"github.com/hupe1980/flowmesh/core"
	"github.com/hupe1980/flowmesh/internal/util"
	"github.com/hupe1980/flowmesh/model"
)

// GeneratorOptions configure a GeneratorAgent.
type GeneratorOptions struct {
	// Instructions is the system-level guidance passed with every request.
	Instructions string

	// OutputKey is the payload key the completion is stored under.
	// Defaults to "content".
	OutputKey string
}

// GeneratorAgent wraps an LLM-backed content generator as a flow agent. The
// prompt is a Go template rendered against the snapshot state, so the
// generator can consume upstream payloads:
//
//	Summarize the following rows: {{ .outputs.extract.rows }}
//
// The completion is stored under OutputKey together with the finish reason
// and, when reported by the provider, token usage.
type GeneratorAgent struct {
	BaseAgent
	model          model.Model
	promptTemplate string
	opts           GeneratorOptions
}

// NewGeneratorAgent constructs a GeneratorAgent driving the given model.
func NewGeneratorAgent(name string, m model.Model, promptTemplate string, optFns ...func(o *GeneratorOptions)) *GeneratorAgent {
	opts := GeneratorOptions{OutputKey: "content"}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.OutputKey == "" {
		opts.OutputKey = "content"
	}

	a := &GeneratorAgent{
		BaseAgent:      NewBaseAgent(name),
		model:          m,
		promptTemplate: promptTemplate,
		opts:           opts,
	}
	if m != nil {
		a.SetDescription(fmt.Sprintf("Content generator backed by %s/%s", m.Info().Provider, m.Info().Name))
	}
	return a
}

// Invoke implements core.Agent.
func (a *GeneratorAgent) Invoke(ctx context.Context, snapshot *core.Snapshot) (map[string]any, error) {
	if a.model == nil {
		return nil, errors.New("no model configured")
	}

	prompt, err := util.RenderTemplate(a.promptTemplate, snapshot.State())
	if err != nil {
		return nil, fmt.Errorf("render prompt: %w", err)
	}

	resp, err := a.model.Generate(ctx, model.Request{
		Instructions: a.opts.Instructions,
		Prompt:       prompt,
	})
	if err != nil {
		return nil, fmt.Errorf("generate: %w", err)
	}

	payload := map[string]any{
		a.opts.OutputKey: resp.Content,
		"finish_reason":  resp.FinishReason,
	}
	if resp.Usage != nil {
		payload["total_tokens"] = resp.Usage.TotalTokens
	}
	return payload, nil
}
