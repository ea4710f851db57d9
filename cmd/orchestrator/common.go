// PicoClaw - Ultra-lightweight personal AI agent
// License: MIT
//
// Copyright (c) 2026 PicoClaw contributors

package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sipeed/pi-orchestrator/pkg/agent"
	"github.com/sipeed/pi-orchestrator/pkg/core"
	"github.com/sipeed/pi-orchestrator/pkg/modes"
)

// sharedFlags are the override flags every mode subcommand exposes, applied
// identically to every task it spawns.
type sharedFlags struct {
	agentName  string
	provider   string
	model      string
	tools      []string
	thinking   string
	cwd        string
	maxRetries int
	backoffMs  int64
	retryOn    []string
	skipOn     []string

	maxMemoryMB   int64
	maxDurationMs int64
	maxToolCalls  int
	enforceLimits bool
}

func registerSharedFlags(cmd *cobra.Command) *sharedFlags {
	f := &sharedFlags{}
	flags := cmd.Flags()
	flags.StringVar(&f.agentName, "agent", "", "named agent to resolve via discovery/inheritance")
	flags.StringVar(&f.provider, "provider", "", "LLM provider (e.g. anthropic, openai)")
	flags.StringVar(&f.model, "model", "", "model override")
	flags.StringSliceVar(&f.tools, "tools", nil, "comma-separated tool list override")
	flags.StringVar(&f.thinking, "thinking", "", "thinking budget: integer token count or low/medium/high")
	flags.StringVar(&f.cwd, "cwd", "", "working directory for the spawned agent")
	flags.IntVar(&f.maxRetries, "retry-max-attempts", 1, "maximum attempts (1 = no retry)")
	flags.Int64Var(&f.backoffMs, "retry-backoff-ms", 1000, "base backoff between retries, doubled each attempt")
	flags.StringSliceVar(&f.retryOn, "retry-on", nil, "substrings of a failure's error that are retryable")
	flags.StringSliceVar(&f.skipOn, "skip-on", nil, "substrings that should never be retried, even if retry-on matches")
	flags.Int64Var(&f.maxMemoryMB, "max-memory-mb", 0, "abort the task if orchestrator heap exceeds this many MB (0 = no limit)")
	flags.Int64Var(&f.maxDurationMs, "max-duration-ms", 0, "abort the task after this many milliseconds (0 = no limit)")
	flags.IntVar(&f.maxToolCalls, "max-concurrent-tool-calls", 0, "abort the task if more than this many tool calls are in flight (0 = no limit)")
	flags.BoolVar(&f.enforceLimits, "enforce-limits", false, "enforce max-memory-mb and max-concurrent-tool-calls (max-duration-ms always applies)")
	return f
}

func (f *sharedFlags) retryConfig() *core.RetryConfig {
	if f.maxRetries <= 1 {
		return nil
	}
	return &core.RetryConfig{
		MaxAttempts: f.maxRetries,
		BackoffMs:   f.backoffMs,
		RetryOn:     f.retryOn,
		SkipOn:      f.skipOn,
	}
}

func (f *sharedFlags) resourceLimits() core.ResourceLimits {
	return core.ResourceLimits{
		MaxMemoryMB:            f.maxMemoryMB,
		MaxDurationMs:          f.maxDurationMs,
		MaxConcurrentToolCalls: f.maxToolCalls,
		EnforceLimits:          f.enforceLimits,
	}
}

func (f *sharedFlags) buildSpec(id, task string) modes.TaskSpec {
	return modes.TaskSpec{
		ID:       id,
		Agent:    f.agentName,
		Task:     task,
		CWD:      f.cwd,
		Provider: f.provider,
		Overrides: agent.Overrides{
			Model:    f.model,
			Tools:    f.tools,
			Thinking: f.thinking,
		},
		ResourceLimits: f.resourceLimits(),
		Retry:          f.retryConfig(),
	}
}

func onProgress(p core.TaskProgress) {
	fmt.Printf("[%s] %s: %s\n", p.ID, p.Status, p.CurrentTool)
}

func printResult(r core.TaskResult) {
	status := "ok"
	if !r.Succeeded() {
		status = "FAILED"
	}
	fmt.Printf("task=%s status=%s exitCode=%d durationMs=%d\n", r.ID, status, r.ExitCode, r.DurationMs)
	if r.Error != "" {
		fmt.Printf("  error: %s\n", r.Error)
	}
	if strings.TrimSpace(r.Output) != "" {
		fmt.Printf("  output: %s\n", r.Output)
	}
}

func exitCodeForResults(results []core.TaskResult) int {
	for _, r := range results {
		if !r.Succeeded() && !r.Aborted {
			return 1
		}
	}
	return 0
}

// exitError turns a §6.6 exit code into the error RunE must return for
// main to set the process exit status — nil for 0, a reporting error
// otherwise. Task-level detail has already been printed by the caller.
func exitError(code int) error {
	if code == 0 {
		return nil
	}
	return fmt.Errorf("one or more tasks failed")
}
