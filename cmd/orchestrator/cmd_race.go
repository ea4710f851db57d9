// PicoClaw - Ultra-lightweight personal AI agent
// License: MIT
//
// Copyright (c) 2026 PicoClaw contributors

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sipeed/pi-orchestrator/pkg/core"
	"github.com/sipeed/pi-orchestrator/pkg/modes"
)

func newRaceCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "race <task> [task...]",
		Short: "Run the same or different tasks concurrently; the first success wins and the rest are cancelled",
		Args:  cobra.MinimumNArgs(1),
	}
	f := registerSharedFlags(cmd)

	cmd.RunE = func(c *cobra.Command, args []string) error {
		specs := make([]modes.TaskSpec, len(args))
		for i, task := range args {
			specs[i] = f.buildSpec(fmt.Sprintf("race-%d", i), task)
		}

		out := modes.Dispatch(c.Context(), modes.RaceInput{Specs: specs}, modes.Deps{
			Registry: registry, Executor: exec, OnProgress: onProgress,
		})
		if out.Aborted {
			fmt.Println("aborted before any task finished")
			return nil
		}
		if out.Err != nil {
			return out.Err
		}
		fmt.Printf("winner: %s\n", out.Winner)
		for _, r := range out.Results {
			printResult(r)
		}
		return exitError(exitCodeForResults([]core.TaskResult{out.Results[0]}))
	}
	return cmd
}
