// PicoClaw - Ultra-lightweight personal AI agent
// License: MIT
//
// Copyright (c) 2026 PicoClaw contributors

package main

import (
	"github.com/spf13/cobra"

	"github.com/sipeed/pi-orchestrator/pkg/modes"
)

func newSingleCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "single <task>",
		Short: "Run one agent task",
		Args:  cobra.ExactArgs(1),
	}
	f := registerSharedFlags(cmd)

	cmd.RunE = func(c *cobra.Command, args []string) error {
		spec := f.buildSpec("single", args[0])

		out := modes.Dispatch(c.Context(), modes.SingleInput{Spec: spec}, modes.Deps{
			Registry: registry, Executor: exec, OnProgress: onProgress,
		})
		for _, r := range out.Results {
			printResult(r)
		}
		if out.Err != nil {
			return out.Err
		}
		return exitError(exitCodeForResults(out.Results))
	}
	return cmd
}
