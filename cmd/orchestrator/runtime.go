// PicoClaw - Ultra-lightweight personal AI agent
// License: MIT
//
// Copyright (c) 2026 PicoClaw contributors

package main

import (
	"fmt"
	"os"

	"github.com/sipeed/pi-orchestrator/pkg/agent"
	"github.com/sipeed/pi-orchestrator/pkg/config"
	"github.com/sipeed/pi-orchestrator/pkg/executor"
	"github.com/sipeed/pi-orchestrator/pkg/logger"
	"github.com/sipeed/pi-orchestrator/pkg/providers"
	"github.com/sipeed/pi-orchestrator/pkg/ratelimit"
	"github.com/sipeed/pi-orchestrator/pkg/redaction"
)

// cfg, registry and exec are populated once by setupRuntime and read by
// every mode subcommand's RunE.
var (
	cfg      *config.Config
	registry *agent.Registry
	exec     *executor.Executor
)

// setupRuntime loads configuration, configures the logger, runs agent
// discovery, and builds the shared executor — the bootstrap every
// subcommand needs before it can dispatch a mode.
func setupRuntime(configPath string) error {
	var paths config.RuntimePaths
	if configPath == "" {
		paths = config.ResolveRuntimePaths()
		configPath = paths.ConfigPath
	}

	loaded, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	cfg = loaded

	if cfg.Logging.Level != "" {
		if lvl, ok := parseLogLevel(cfg.Logging.Level); ok {
			logger.SetLevel(lvl)
		}
	}
	if cfg.Logging.FileLoggingPath != "" {
		if err := logger.EnableFileLogging(cfg.Logging.FileLoggingPath); err != nil {
			logger.WarnCF("cli", "could not enable file logging", map[string]any{"error": err.Error()})
		}
	}
	logger.SetRedactionEnabled(cfg.Logging.RedactSecrets)
	for _, name := range providers.Names() {
		entry, _ := providers.Lookup(name)
		if v := os.Getenv(entry.APIKeyEnvVar); v != "" {
			redaction.RegisterSecretValue(v)
		}
	}

	configs, err := agent.Discover(cfg.AgentUserDir(), cfg.AgentProjectDir())
	if err != nil {
		return fmt.Errorf("discovering agents: %w", err)
	}
	registry = agent.NewRegistry(configs)
	if err := registry.ResolveInheritance(); err != nil {
		return fmt.Errorf("resolving agent inheritance: %w", err)
	}

	limiter := ratelimit.New(cfg.RateLimit.MaxSpawnsPerMinute, cfg.RateLimit.Burst)
	exec = executor.New("pi", limiter)

	return nil
}

func parseLogLevel(level string) (logger.LogLevel, bool) {
	switch level {
	case "debug":
		return logger.DEBUG, true
	case "info":
		return logger.INFO, true
	case "warn", "warning":
		return logger.WARN, true
	case "error":
		return logger.ERROR, true
	}
	return logger.INFO, false
}
