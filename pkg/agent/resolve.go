// PicoClaw - Ultra-lightweight personal AI agent
// License: MIT
//
// Copyright (c) 2026 PicoClaw contributors

package agent

import "fmt"

// Registry indexes Config values by name, the storage shape spec §9
// recommends for both the resolver and the DAG builder: dependencies (here,
// Extends) are name references into the index, never owning pointers, so
// a cycle can only be a logical one the walker must detect, not a
// structural impossibility.
type Registry struct {
	byName map[string]*Config
}

// NewRegistry indexes configs by Name. Later entries with the same name
// overwrite earlier ones — callers needing project-over-user precedence
// should index user-scope first, then project-scope (see Discover).
func NewRegistry(configs []*Config) *Registry {
	r := &Registry{byName: make(map[string]*Config, len(configs))}
	for _, c := range configs {
		r.byName[c.Name] = c
	}
	return r
}

// Get returns the config registered under name, or nil.
func (r *Registry) Get(name string) *Config {
	return r.byName[name]
}

// ResolveInheritance resolves every agent's Extends chain in place,
// populating ResolvedTools/ResolvedModel/ResolvedThinking. Cycles are
// detected via a visiting set walked per §9's DFS-coloring convention;
// re-entering a name already on the current path fails with an error that
// names the agent at which the cycle was re-entered; the rest of the chain
// is not listed.
func (r *Registry) ResolveInheritance() error {
	resolved := make(map[string]bool, len(r.byName))
	for name := range r.byName {
		if resolved[name] {
			continue
		}
		if err := r.resolveOne(name, map[string]bool{}, resolved); err != nil {
			return err
		}
	}
	return nil
}

func (r *Registry) resolveOne(name string, visiting map[string]bool, resolved map[string]bool) error {
	if resolved[name] {
		return nil
	}
	if visiting[name] {
		return fmt.Errorf("circular inheritance detected at %q", name)
	}

	cfg, ok := r.byName[name]
	if !ok {
		return fmt.Errorf("base agent not found: %q", name)
	}

	if cfg.Extends == "" {
		cfg.ResolvedTools = append([]string(nil), cfg.Tools...)
		cfg.ResolvedModel = cfg.Model
		cfg.ResolvedThinking = cfg.Thinking
		resolved[name] = true
		return nil
	}

	visiting[name] = true
	if err := r.resolveOne(cfg.Extends, visiting, resolved); err != nil {
		return err
	}
	delete(visiting, name)

	base, ok := r.byName[cfg.Extends]
	if !ok {
		return fmt.Errorf("base agent not found: %q", cfg.Extends)
	}

	cfg.ResolvedTools = unionPreserveOrder(base.ResolvedTools, cfg.Tools)

	cfg.ResolvedModel = cfg.Model
	if cfg.ResolvedModel == "" {
		cfg.ResolvedModel = base.ResolvedModel
	}
	if cfg.ResolvedModel == "" {
		cfg.ResolvedModel = base.Model
	}

	cfg.ResolvedThinking = cfg.Thinking
	if cfg.ResolvedThinking == "" {
		cfg.ResolvedThinking = base.ResolvedThinking
	}
	if cfg.ResolvedThinking == "" {
		cfg.ResolvedThinking = base.Thinking
	}

	resolved[name] = true
	return nil
}

// unionPreserveOrder merges base then own, deduplicated, first-seen order
// preserved — §4.6's "union of base's resolvedTools with the agent's own
// tools".
func unionPreserveOrder(base, own []string) []string {
	seen := make(map[string]bool, len(base)+len(own))
	out := make([]string, 0, len(base)+len(own))
	for _, t := range base {
		if !seen[t] {
			seen[t] = true
			out = append(out, t)
		}
	}
	for _, t := range own {
		if !seen[t] {
			seen[t] = true
			out = append(out, t)
		}
	}
	return out
}

// Overrides carries the caller-supplied fields ResolveSettings merges over
// an agent's resolved config. A nil/empty field means "no override".
type Overrides struct {
	Model        string
	Tools        []string
	SystemPrompt string
	Thinking     string
}

// ResolveSettings merges overrides over the named agent's resolved fields,
// per §4.6. agentName may be "" (no agent selected), in which case the
// result is overrides verbatim.
func (r *Registry) ResolveSettings(agentName string, overrides Overrides) Settings {
	s := Settings{}
	if agentName != "" {
		if cfg := r.Get(agentName); cfg != nil {
			s.Model = cfg.ResolvedModel
			s.Tools = cfg.ResolvedTools
			s.SystemPrompt = cfg.SystemPrompt
			s.Thinking = cfg.ResolvedThinking
		}
	}

	if overrides.Model != "" {
		s.Model = overrides.Model
	}
	if len(overrides.Tools) > 0 {
		s.Tools = overrides.Tools
	}
	if overrides.SystemPrompt != "" {
		s.SystemPrompt = overrides.SystemPrompt
	}
	if overrides.Thinking != "" {
		s.Thinking = overrides.Thinking
	}
	return s
}
