// PicoClaw - Ultra-lightweight personal AI agent
// License: MIT
//
// Copyright (c) 2026 PicoClaw contributors

package agent

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveInheritance_NoExtendsResolvesDirectly(t *testing.T) {
	r := NewRegistry([]*Config{
		{Name: "base", Tools: []string{"read"}, Model: "claude-sonnet-4-5"},
	})
	require.NoError(t, r.ResolveInheritance())
	assert.Equal(t, []string{"read"}, r.Get("base").ResolvedTools)
	assert.Equal(t, "claude-sonnet-4-5", r.Get("base").ResolvedModel)
}

func TestResolveInheritance_UnionsToolsAndInheritsMissingFields(t *testing.T) {
	r := NewRegistry([]*Config{
		{Name: "base", Tools: []string{"read", "grep"}, Model: "base-model", Thinking: "low"},
		{Name: "child", Extends: "base", Tools: []string{"write"}},
	})
	require.NoError(t, r.ResolveInheritance())

	child := r.Get("child")
	assert.Equal(t, []string{"read", "grep", "write"}, child.ResolvedTools)
	assert.Equal(t, "base-model", child.ResolvedModel)
	assert.Equal(t, "low", child.ResolvedThinking)
}

func TestResolveInheritance_ChildOverridesWin(t *testing.T) {
	r := NewRegistry([]*Config{
		{Name: "base", Model: "base-model"},
		{Name: "child", Extends: "base", Model: "child-model"},
	})
	require.NoError(t, r.ResolveInheritance())
	assert.Equal(t, "child-model", r.Get("child").ResolvedModel)
}

func TestResolveInheritance_DeduplicatesInheritedTools(t *testing.T) {
	r := NewRegistry([]*Config{
		{Name: "base", Tools: []string{"read", "write"}},
		{Name: "child", Extends: "base", Tools: []string{"write", "grep"}},
	})
	require.NoError(t, r.ResolveInheritance())
	assert.Equal(t, []string{"read", "write", "grep"}, r.Get("child").ResolvedTools)
}

func TestResolveInheritance_DetectsCycle(t *testing.T) {
	r := NewRegistry([]*Config{
		{Name: "a", Extends: "b"},
		{Name: "b", Extends: "a"},
	})
	err := r.ResolveInheritance()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "circular inheritance")
}

func TestResolveInheritance_MissingBaseErrors(t *testing.T) {
	r := NewRegistry([]*Config{
		{Name: "child", Extends: "ghost"},
	})
	err := r.ResolveInheritance()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ghost")
}

func TestResolveInheritance_MultiLevelChain(t *testing.T) {
	r := NewRegistry([]*Config{
		{Name: "grandparent", Tools: []string{"a"}},
		{Name: "parent", Extends: "grandparent", Tools: []string{"b"}},
		{Name: "child", Extends: "parent", Tools: []string{"c"}},
	})
	require.NoError(t, r.ResolveInheritance())
	assert.Equal(t, []string{"a", "b", "c"}, r.Get("child").ResolvedTools)
}

func TestResolveSettings_NoAgentNameReturnsOverridesVerbatim(t *testing.T) {
	r := NewRegistry(nil)
	s := r.ResolveSettings("", Overrides{Model: "m", Tools: []string{"x"}})
	assert.Equal(t, "m", s.Model)
	assert.Equal(t, []string{"x"}, s.Tools)
}

func TestResolveSettings_OverridesWinOverAgentDefaults(t *testing.T) {
	r := NewRegistry([]*Config{
		{Name: "writer", Model: "agent-model", Tools: []string{"write"}, SystemPrompt: "be terse"},
	})
	require.NoError(t, r.ResolveInheritance())

	s := r.ResolveSettings("writer", Overrides{Model: "override-model"})
	assert.Equal(t, "override-model", s.Model)
	assert.Equal(t, []string{"write"}, s.Tools)
	assert.Equal(t, "be terse", s.SystemPrompt)
}

func TestResolveSettings_UnknownAgentNameYieldsOverridesOnly(t *testing.T) {
	r := NewRegistry(nil)
	s := r.ResolveSettings("no-such-agent", Overrides{Model: "m"})
	assert.Equal(t, "m", s.Model)
}
