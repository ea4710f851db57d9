// PicoClaw - Ultra-lightweight personal AI agent
// License: MIT
//
// Copyright (c) 2026 PicoClaw contributors

package config

import (
	"os"
	"path/filepath"
	"strings"
)

const (
	EnvOrchestratorConfig = "PI_ORCHESTRATOR_CONFIG"
	EnvOrchestratorHome   = "PI_ORCHESTRATOR_HOME"
)

// RuntimePaths are the filesystem locations resolved before config loading,
// since the config path itself can be overridden by environment variable.
type RuntimePaths struct {
	HomeDir    string
	ConfigPath string
}

// ResolveRuntimePaths follows EnvOrchestratorConfig if set, else
// EnvOrchestratorHome, else ~/.pi-orchestrator.
func ResolveRuntimePaths() RuntimePaths {
	if configPath := expandHome(strings.TrimSpace(os.Getenv(EnvOrchestratorConfig))); configPath != "" {
		return RuntimePaths{HomeDir: filepath.Dir(configPath), ConfigPath: configPath}
	}

	homeDir := expandHome(strings.TrimSpace(os.Getenv(EnvOrchestratorHome)))
	if homeDir == "" {
		homeDir = defaultHome()
	}
	return RuntimePaths{HomeDir: homeDir, ConfigPath: filepath.Join(homeDir, "config.json")}
}

func defaultHome() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return ".pi-orchestrator"
	}
	return filepath.Join(home, ".pi-orchestrator")
}
