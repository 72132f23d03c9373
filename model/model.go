// Package model defines the minimal generation boundary used by
// LLM-backed agents. FlowMesh treats content generators as external
// collaborators: the orchestrator never talks to a provider directly, it
// only invokes agents that drive a Model implementation.
//
// Adapters for the official Anthropic and OpenAI SDKs live in the
// subpackages model/anthropic and model/openai; MockModel serves tests and
// examples.
package model

import (
	"context"
	"fmt"
	"sync"
)

// Request captures the normalized generation input produced by agents.
type Request struct {
	// Instructions is the system-level guidance for the model.
	Instructions string `json:"instructions,omitempty"`

	// Prompt is the user-level input to complete.
	Prompt string `json:"prompt"`
}

// TokenUsage captures token usage statistics for a response.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Response is the completed generation for a Request.
type Response struct {
	Content      string      `json:"content"`
	FinishReason string      `json:"finish_reason"` // "stop", "length", etc.
	Usage        *TokenUsage `json:"usage,omitempty"`
}

// Info contains metadata about a model implementation.
type Info struct {
	Name     string `json:"name"`
	Provider string `json:"provider"` // "openai", "anthropic", "mock", etc.
}

// Model is the minimal interface required by agents to drive generation.
type Model interface {
	// Generate produces a completion for the request. Implementations must
	// respect context cancellation.
	Generate(ctx context.Context, req Request) (*Response, error)

	// Info returns information about the model implementation.
	Info() Info
}

// MockModel is a lightweight in-memory Model useful for tests & examples.
// It replays canned completions keyed by prompt and is safe for concurrent
// use.
type MockModel struct {
	mu        sync.RWMutex
	info      Info
	responses map[string]string
	fallback  string
}

// NewMockModel constructs a MockModel identified by name and provider.
func NewMockModel(name, provider string) *MockModel {
	return &MockModel{
		info:      Info{Name: name, Provider: provider},
		responses: make(map[string]string),
	}
}

// AddResponse registers a deterministic canned completion for a prompt.
func (m *MockModel) AddResponse(prompt, response string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses[prompt] = response
}

// SetFallback sets the completion returned for unregistered prompts.
func (m *MockModel) SetFallback(response string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fallback = response
}

// Generate implements Model.
func (m *MockModel) Generate(ctx context.Context, req Request) (*Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	if resp, ok := m.responses[req.Prompt]; ok {
		return &Response{Content: resp, FinishReason: "stop"}, nil
	}
	if m.fallback != "" {
		return &Response{Content: m.fallback, FinishReason: "stop"}, nil
	}
	return nil, fmt.Errorf("no canned response for prompt: %q", req.Prompt)
}

// Info implements Model.
func (m *MockModel) Info() Info { return m.info }
