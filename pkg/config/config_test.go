// PicoClaw - Ultra-lightweight personal AI agent
// License: MIT
//
// Copyright (c) 2026 PicoClaw contributors

package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig_FillsBaselineValues(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "~/.pi-orchestrator/workspace", cfg.Defaults.Workspace)
	assert.Equal(t, 10, cfg.Defaults.MaxToolIterations)
	assert.Equal(t, int64(1024), cfg.Limits.MaxMemoryMB)
	assert.True(t, cfg.Limits.EnforceLimits)
	assert.Equal(t, 30, cfg.RateLimit.MaxSpawnsPerMinute)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadConfig_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "does-not-exist.json"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().Defaults, cfg.Defaults)
}

func TestLoadConfig_FileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"defaults":{"model":"claude-opus-4-6"}}`), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "claude-opus-4-6", cfg.Defaults.Model)
	// unspecified fields still carry the baseline.
	assert.Equal(t, 10, cfg.Defaults.MaxToolIterations)
}

func TestLoadConfig_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"defaults":{"model":"from-file"}}`), 0644))
	t.Setenv("PI_ORCHESTRATOR_DEFAULTS_MODEL", "from-env")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Defaults.Model)
}

func TestLoadConfig_MalformedJSONErrors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{not json`), 0644))

	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestSaveConfig_RoundTripsThroughLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.json")
	cfg := DefaultConfig()
	cfg.Defaults.Model = "claude-sonnet-4-5"

	require.NoError(t, SaveConfig(path, cfg))

	reloaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "claude-sonnet-4-5", reloaded.Defaults.Model)
}

func TestWorkspacePath_ExpandsHome(t *testing.T) {
	t.Setenv("HOME", "/home/tester")
	cfg := DefaultConfig()
	assert.Equal(t, "/home/tester/.pi-orchestrator/workspace", cfg.WorkspacePath())
}

func TestAgentUserDir_ExpandsHome(t *testing.T) {
	t.Setenv("HOME", "/home/tester")
	cfg := DefaultConfig()
	assert.Equal(t, "/home/tester/.pi-orchestrator/agents", cfg.AgentUserDir())
}

func TestAgentProjectDir_EmptyStaysEmpty(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "", cfg.AgentProjectDir())
}

func TestFlexibleStringSlice_UnmarshalsStringArray(t *testing.T) {
	var f FlexibleStringSlice
	require.NoError(t, json.Unmarshal([]byte(`["read","write"]`), &f))
	assert.Equal(t, FlexibleStringSlice{"read", "write"}, f)
}

func TestFlexibleStringSlice_UnmarshalsNumberArray(t *testing.T) {
	var f FlexibleStringSlice
	require.NoError(t, json.Unmarshal([]byte(`[30, 60]`), &f))
	assert.Equal(t, FlexibleStringSlice{"30", "60"}, f)
}

func TestFlexibleStringSlice_UnmarshalsMixedArray(t *testing.T) {
	var f FlexibleStringSlice
	require.NoError(t, json.Unmarshal([]byte(`["read", 5]`), &f))
	assert.Equal(t, FlexibleStringSlice{"read", "5"}, f)
}
