// Package config provides the Model Registry (mapping model identifiers to
// context window sizes) and the YAML-backed tuning knob loader for a
// contextmgr.Manager.
package config

import (
	anthropic "github.com/anthropics/anthropic-sdk-go"
	openai "github.com/openai/openai-go"

	"contextwindow/pkg/contextmgr"
)

// ModelInfo is the registry entry for one known model: just enough for the
// Budget Oracle to do its job. Pricing and provider metadata are out of
// scope here — this registry exists solely to produce ModelDescriptors.
type ModelInfo struct {
	ContextWindow int
}

// KnownModels maps model identifier -> ModelInfo. Identifiers are sourced
// from the vendor SDKs' own typed model constants rather than hand-typed
// strings, so a rename upstream surfaces as a compile error here instead of
// a silent registry miss. Entries deliberately span all four Budget Oracle
// buckets (64k, 128k, 200k, and "other"/1M) so every branch of ComputeBudget
// has at least one real model exercising it.
var KnownModels = map[string]ModelInfo{
	string(anthropic.ModelClaudeSonnet4_5):        {ContextWindow: 200000},
	string(anthropic.ModelClaude3_7SonnetLatest):  {ContextWindow: 200000},
	string(anthropic.ModelClaudeOpus4_1_20250805): {ContextWindow: 200000},

	string(openai.ChatModelGPT4o):  {ContextWindow: 128000},
	string(openai.ChatModelO3Mini): {ContextWindow: 128000},
	string(openai.ChatModelO3):     {ContextWindow: 128000},

	string(openai.ChatModelGPT3_5Turbo): {ContextWindow: 64000},

	"gemini-2.5-pro": {ContextWindow: 1048576},
}

// Registry resolves model identifiers to contextmgr.ModelDescriptors,
// falling back to nil (the Budget Oracle's "unknown model" default) for
// anything found neither in KnownModels nor in the registry's overrides.
type Registry struct {
	models map[string]ModelInfo
}

// NewRegistry returns a Registry seeded from KnownModels, plus any
// caller-supplied overrides layered on top (a Config Loader typically wires
// its own YAML-sourced overrides here).
func NewRegistry(overrides map[string]ModelInfo) *Registry {
	merged := make(map[string]ModelInfo, len(KnownModels)+len(overrides))
	for k, v := range KnownModels {
		merged[k] = v
	}
	for k, v := range overrides {
		merged[k] = v
	}
	return &Registry{models: merged}
}

// Describe returns the ModelDescriptor for modelName, or nil if unknown.
func (r *Registry) Describe(modelName string) *contextmgr.ModelDescriptor {
	info, ok := r.models[modelName]
	if !ok {
		return nil
	}
	return &contextmgr.ModelDescriptor{ContextWindow: info.ContextWindow}
}
