// PicoClaw - Ultra-lightweight personal AI agent
// License: MIT
//
// Copyright (c) 2026 PicoClaw contributors

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sipeed/pi-orchestrator/pkg/modes"
)

func newChainCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chain <step> [step...]",
		Short: "Run agent tasks in sequence; use {previous} in a step to reference the prior step's output",
		Args:  cobra.MinimumNArgs(1),
	}
	f := registerSharedFlags(cmd)

	cmd.RunE = func(c *cobra.Command, args []string) error {
		specs := make([]modes.TaskSpec, len(args))
		for i, task := range args {
			specs[i] = f.buildSpec(fmt.Sprintf("chain-%d", i), task)
		}

		out := modes.Dispatch(c.Context(), modes.ChainInput{Specs: specs}, modes.Deps{
			Registry: registry, Executor: exec, OnProgress: onProgress,
		})
		for _, r := range out.Results {
			printResult(r)
		}
		if out.Aborted {
			fmt.Println("aborted: chain halted before completion")
		}
		return exitError(exitCodeForResults(out.Results))
	}
	return cmd
}
