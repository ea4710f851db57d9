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

func newParallelCommand() *cobra.Command {
	var concurrency int

	cmd := &cobra.Command{
		Use:   "parallel <task> [task...]",
		Short: "Run multiple agent tasks concurrently, bounded by --concurrency",
		Args:  cobra.MinimumNArgs(1),
	}
	f := registerSharedFlags(cmd)
	cmd.Flags().IntVar(&concurrency, "concurrency", 0, "max tasks in flight at once (0 = len(tasks))")

	cmd.RunE = func(c *cobra.Command, args []string) error {
		specs := make([]modes.TaskSpec, len(args))
		for i, task := range args {
			specs[i] = f.buildSpec(fmt.Sprintf("parallel-%d", i), task)
		}

		out := modes.Dispatch(c.Context(), modes.ParallelInput{Specs: specs, Concurrency: concurrency}, modes.Deps{
			Registry: registry, Executor: exec, OnProgress: onProgress,
		})
		for _, r := range out.Results {
			printResult(r)
		}
		if out.Aborted {
			fmt.Println("aborted: partial results above")
		}
		if out.Err != nil {
			return out.Err
		}
		return exitError(exitCodeForResults(out.Results))
	}
	return cmd
}
