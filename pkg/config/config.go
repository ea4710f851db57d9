// PicoClaw - Ultra-lightweight personal AI agent
// License: MIT
//
// Copyright (c) 2026 PicoClaw contributors

// Package config implements the orchestrator's on-disk configuration:
// JSON file with environment-variable overrides, defaults, and the
// runtime-path resolution the CLI needs before anything else runs.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/caarlos0/env/v11"
)

// FlexibleStringSlice accepts a JSON array of strings or numbers, so a
// hand-edited config can list tool names as either "30" or 30.
type FlexibleStringSlice []string

func (f *FlexibleStringSlice) UnmarshalJSON(data []byte) error {
	var ss []string
	if err := json.Unmarshal(data, &ss); err == nil {
		*f = ss
		return nil
	}

	var raw []interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	result := make([]string, 0, len(raw))
	for _, v := range raw {
		switch val := v.(type) {
		case string:
			result = append(result, val)
		case float64:
			result = append(result, fmt.Sprintf("%.0f", val))
		default:
			result = append(result, fmt.Sprintf("%v", val))
		}
	}
	*f = result
	return nil
}

// DefaultsConfig holds orchestrator-wide default values. Of these, only
// Workspace is read elsewhere (as the team workspace base directory); the
// model, provider, thinking, tools and tool-iteration fields are loaded but
// not applied to task or mode inputs.
type DefaultsConfig struct {
	Provider          string              `json:"provider" env:"PI_ORCHESTRATOR_DEFAULTS_PROVIDER"`
	Model             string              `json:"model" env:"PI_ORCHESTRATOR_DEFAULTS_MODEL"`
	Thinking          string              `json:"thinking" env:"PI_ORCHESTRATOR_DEFAULTS_THINKING"`
	Tools             FlexibleStringSlice `json:"tools"`
	Workspace         string              `json:"workspace" env:"PI_ORCHESTRATOR_DEFAULTS_WORKSPACE"`
	MaxToolIterations int                 `json:"max_tool_iterations" env:"PI_ORCHESTRATOR_DEFAULTS_MAX_TOOL_ITERATIONS"`
}

// ResourceLimitsConfig mirrors core.ResourceLimits for JSON/env configuration.
type ResourceLimitsConfig struct {
	MaxMemoryMB            int64 `json:"max_memory_mb" env:"PI_ORCHESTRATOR_LIMITS_MAX_MEMORY_MB"`
	MaxDurationMs          int64 `json:"max_duration_ms" env:"PI_ORCHESTRATOR_LIMITS_MAX_DURATION_MS"`
	MaxConcurrentToolCalls int   `json:"max_concurrent_tool_calls" env:"PI_ORCHESTRATOR_LIMITS_MAX_CONCURRENT_TOOL_CALLS"`
	EnforceLimits          bool  `json:"enforce_limits" env:"PI_ORCHESTRATOR_LIMITS_ENFORCE"`
}

// RetryConfig mirrors core.RetryConfig for JSON/env configuration.
type RetryConfig struct {
	MaxAttempts int                 `json:"max_attempts" env:"PI_ORCHESTRATOR_RETRY_MAX_ATTEMPTS"`
	BackoffMs   int64               `json:"backoff_ms" env:"PI_ORCHESTRATOR_RETRY_BACKOFF_MS"`
	RetryOn     FlexibleStringSlice `json:"retry_on"`
	SkipOn      FlexibleStringSlice `json:"skip_on"`
}

// RateLimitConfig governs spawn throttling (§4.9).
type RateLimitConfig struct {
	MaxSpawnsPerMinute int `json:"max_spawns_per_minute" env:"PI_ORCHESTRATOR_RATE_LIMIT_MAX_SPAWNS_PER_MINUTE"`
	Burst              int `json:"burst" env:"PI_ORCHESTRATOR_RATE_LIMIT_BURST"`
}

// LoggingConfig governs the ambient logger (§ pkg/logger).
type LoggingConfig struct {
	Level           string `json:"level" env:"PI_ORCHESTRATOR_LOG_LEVEL"`
	FileLoggingPath string `json:"file_logging_path" env:"PI_ORCHESTRATOR_LOG_FILE"`
	RedactSecrets   bool   `json:"redact_secrets" env:"PI_ORCHESTRATOR_LOG_REDACT"`
}

// AgentDiscoveryConfig points at the directories agent definition files are
// discovered from (§4.7).
type AgentDiscoveryConfig struct {
	UserDir    string `json:"user_dir" env:"PI_ORCHESTRATOR_AGENTS_USER_DIR"`
	ProjectDir string `json:"project_dir" env:"PI_ORCHESTRATOR_AGENTS_PROJECT_DIR"`
}

// ProviderOverride is the per-provider entry of Config.Providers. It is
// loaded and saved with the config; nothing reads it, and the built-in
// catalog in pkg/providers is not changed by it.
type ProviderOverride struct {
	DefaultModel string `json:"default_model"`
	APIKeyEnvVar string `json:"api_key_env_var"`
}

// Config is the orchestrator's full on-disk configuration shape.
type Config struct {
	Defaults  DefaultsConfig              `json:"defaults"`
	Limits    ResourceLimitsConfig        `json:"limits"`
	Retry     RetryConfig                 `json:"retry"`
	RateLimit RateLimitConfig             `json:"rate_limit"`
	Logging   LoggingConfig               `json:"logging"`
	Agents    AgentDiscoveryConfig        `json:"agents"`
	Providers map[string]ProviderOverride `json:"providers,omitempty"`

	mu sync.RWMutex
}

// DefaultConfig returns the built-in baseline, applied before any file or
// environment override.
func DefaultConfig() *Config {
	return &Config{
		Defaults: DefaultsConfig{
			Workspace:         "~/.pi-orchestrator/workspace",
			MaxToolIterations: 10,
		},
		Limits: ResourceLimitsConfig{
			MaxMemoryMB:            1024,
			MaxDurationMs:          300000,
			MaxConcurrentToolCalls: 5,
			EnforceLimits:          true,
		},
		Retry: RetryConfig{
			MaxAttempts: 1,
			BackoffMs:   1000,
		},
		RateLimit: RateLimitConfig{
			MaxSpawnsPerMinute: 30,
			Burst:              5,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		Agents: AgentDiscoveryConfig{
			UserDir: "~/.pi-orchestrator/agents",
		},
	}
}

// LoadConfig reads path (a JSON file), falling back to DefaultConfig if the
// file does not exist, then applies environment overrides on top.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, err
		}
	} else if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SaveConfig writes cfg to path as indented JSON, creating parent
// directories as needed.
func SaveConfig(path string, cfg *Config) error {
	cfg.mu.RLock()
	defer cfg.mu.RUnlock()
	return saveConfigLocked(path, cfg)
}

func saveConfigLocked(path string, cfg *Config) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}

func (c *Config) Lock()    { c.mu.Lock() }
func (c *Config) Unlock()  { c.mu.Unlock() }
func (c *Config) RLock()   { c.mu.RLock() }
func (c *Config) RUnlock() { c.mu.RUnlock() }

// WorkspacePath returns Defaults.Workspace with a leading "~" expanded.
func (c *Config) WorkspacePath() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return expandHome(c.Defaults.Workspace)
}

// AgentUserDir and AgentProjectDir return the discovery directories with
// "~" expanded.
func (c *Config) AgentUserDir() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return expandHome(c.Agents.UserDir)
}

func (c *Config) AgentProjectDir() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return expandHome(c.Agents.ProjectDir)
}

func expandHome(path string) string {
	if path == "" {
		return path
	}
	if path[0] == '~' {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		if len(path) > 1 && path[1] == '/' {
			return home + path[1:]
		}
		return home
	}
	return path
}
