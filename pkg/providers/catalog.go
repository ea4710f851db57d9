// PicoClaw - Ultra-lightweight personal AI agent
// License: MIT
//
// Copyright (c) 2026 PicoClaw contributors

// Package providers holds a small static catalog of known LLM provider
// identifiers, their default model, and the environment variable the
// orchestrator expects an API key under. It validates opts.Provider before
// the executor spawns a child, per SPEC_FULL §4.10; the model is not
// checked.
package providers

import "fmt"

// Entry describes one known provider.
type Entry struct {
	Name         string
	DefaultModel string
	APIKeyEnvVar string
}

// catalog is intentionally small and static: it only needs to recognize
// the providers the orchestrator's own configuration surface names
// (pkg/config), not to proxy requests to them — the executor only ever
// talks to the agent subprocess, never to a provider SDK directly.
var catalog = map[string]Entry{
	"anthropic": {Name: "anthropic", DefaultModel: "claude-sonnet-4-5", APIKeyEnvVar: "ANTHROPIC_API_KEY"},
	"openai":    {Name: "openai", DefaultModel: "gpt-5", APIKeyEnvVar: "OPENAI_API_KEY"},
}

// Lookup returns the catalog entry for name, or false if name is unknown.
func Lookup(name string) (Entry, bool) {
	e, ok := catalog[name]
	return e, ok
}

// Validate checks that provider (if non-empty) is a known provider. An
// empty provider is always valid — it means "let the agent binary decide".
func Validate(provider string) error {
	if provider == "" {
		return nil
	}
	if _, ok := catalog[provider]; !ok {
		return fmt.Errorf("unknown provider %q", provider)
	}
	return nil
}

// Names returns the known provider names in no particular order.
func Names() []string {
	names := make([]string, 0, len(catalog))
	for _, e := range catalog {
		names = append(names, e.Name)
	}
	return names
}
