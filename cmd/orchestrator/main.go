// PicoClaw - Ultra-lightweight personal AI agent
// License: MIT
//
// Copyright (c) 2026 PicoClaw contributors

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:           "orchestrator",
		Short:         "Run LLM agent processes under single/parallel/chain/race/team modes",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config.json (default: resolved from PI_ORCHESTRATOR_CONFIG/PI_ORCHESTRATOR_HOME)")
	cmd.PersistentPreRunE = func(*cobra.Command, []string) error {
		return setupRuntime(configPath)
	}

	cmd.AddCommand(
		newSingleCommand(),
		newParallelCommand(),
		newChainCommand(),
		newRaceCommand(),
		newTeamCommand(),
	)

	return cmd
}
