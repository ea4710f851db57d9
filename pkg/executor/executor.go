// PicoClaw - Ultra-lightweight personal AI agent
// License: MIT
//
// Copyright (c) 2026 PicoClaw contributors

// Package executor implements the orchestrator's subprocess executor (C3):
// it spawns the agent binary, parses its event stream, accumulates usage
// and progress, enforces resource guards and retry, and truncates output.
package executor

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/sipeed/pi-orchestrator/pkg/core"
	"github.com/sipeed/pi-orchestrator/pkg/guard"
	"github.com/sipeed/pi-orchestrator/pkg/logger"
	"github.com/sipeed/pi-orchestrator/pkg/providers"
	"github.com/sipeed/pi-orchestrator/pkg/ratelimit"
	"github.com/sipeed/pi-orchestrator/pkg/retry"

	osexec "os/exec"
)

const killGrace = 5 * time.Second

// Options carries everything a single agent invocation needs, per §4.3.
type Options struct {
	ID    string
	Name  string
	Task  string
	CWD   string
	Step  *int

	Provider     string
	Model        string
	Tools        []string
	SystemPrompt string
	Context      string
	Thinking     string

	Retry          *core.RetryConfig
	ResourceLimits core.ResourceLimits

	OnProgress func(core.TaskProgress)
}

// Executor spawns the `pi` agent binary and runs the event-stream protocol
// against it. The zero value is not usable; construct with New.
type Executor struct {
	Command   string
	Limiter   *ratelimit.Limiter
	MaxBytes  int
	MaxLines  int
}

// New creates an Executor invoking the named binary (conventionally "pi"),
// gated by limiter (nil disables spawn rate limiting).
func New(command string, limiter *ratelimit.Limiter) *Executor {
	return &Executor{Command: command, Limiter: limiter}
}

// RunAgent implements §4.3's contract: it never panics out of this call,
// encoding every failure into the returned TaskResult. If opts.Retry is
// set, the whole attempt (spawn through termination) is retried per C1.
func (e *Executor) RunAgent(ctx context.Context, opts Options) core.TaskResult {
	if opts.Retry != nil {
		return retry.RunWithRetry(ctx, opts.Retry,
			func(r core.TaskResult) retry.Attempt {
				return retry.Attempt{ExitCode: r.ExitCode, Error: r.Error}
			},
			func(attempt int) core.TaskResult {
				return e.runOnce(ctx, opts)
			})
	}
	return e.runOnce(ctx, opts)
}

func (e *Executor) runOnce(ctx context.Context, opts Options) core.TaskResult {
	if err := providers.Validate(opts.Provider); err != nil {
		return earlyFailure(opts, err)
	}

	g := guard.New(ctx, opts.ResourceLimits)
	defer g.Stop()

	systemPromptPath, cleanup, err := writeSystemPrompt(opts.SystemPrompt)
	if err != nil {
		return earlyFailure(opts, fmt.Errorf("writing system prompt: %w", err))
	}
	defer cleanup()

	if e.Limiter != nil {
		if err := e.Limiter.Wait(g.Ctx); err != nil {
			return earlyFailure(opts, fmt.Errorf("spawn rate limit: %w", err))
		}
	}

	args := buildArgs(opts, systemPromptPath)

	cmd := osexec.CommandContext(g.Ctx, e.commandName(), args...)
	cmd.Dir = opts.CWD
	cmd.Stdin = nil
	cmd.Cancel = func() error {
		return cmd.Process.Signal(syscall.SIGTERM)
	}
	cmd.WaitDelay = killGrace

	var stderrBuf bytes.Buffer
	cmd.Stderr = &stderrBuf

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return earlyFailure(opts, fmt.Errorf("stdout pipe: %w", err))
	}

	progress := core.NewTaskProgress(opts.ID, opts.Task)
	progress.Name = opts.Name
	progress.Model = opts.Model
	progress.Status = core.StatusRunning

	var tracker *guard.ToolCallTracker
	if opts.ResourceLimits.EnforceLimits {
		tracker = guard.NewToolCallTracker(g, opts.ResourceLimits.MaxConcurrentToolCalls)
	}
	sp := NewStreamProcessor(progress, opts.OnProgress, tracker)

	start := time.Now()
	if err := cmd.Start(); err != nil {
		return earlyFailure(opts, fmt.Errorf("starting agent process: %w", err))
	}

	stdoutDone := make(chan struct{})
	go func() {
		sp.Consume(stdout)
		close(stdoutDone)
	}()

	waitErr := cmd.Wait()
	<-stdoutDone

	aborted := g.Ctx.Err() != nil
	if aborted {
		logger.WarnT(opts.ID, "executor", "agent task aborted", map[string]any{"reason": g.Reason()})
	}

	exitCode := 0
	if cmd.ProcessState != nil {
		exitCode = cmd.ProcessState.ExitCode()
		if exitCode < 0 {
			exitCode = 0
		}
	}

	output, truncated := TruncateOutput(sp.LastAssistantText(), e.MaxBytes, e.MaxLines)

	errStr := ""
	if exitCode != 0 && !aborted {
		if stderrBuf.Len() > 0 {
			errStr = strings.TrimSpace(stderrBuf.String())
		} else {
			errStr = fmt.Sprintf("Exit code: %d", exitCode)
		}
	}
	if aborted && errStr == "" {
		errStr = g.Reason()
	}
	if sp.APIError() != "" && errStr == "" {
		errStr = sp.APIError()
		exitCode = 1
	}
	if waitErr != nil && errStr == "" && exitCode == 0 && !aborted {
		errStr = waitErr.Error()
		exitCode = 1
	}

	finalStatus := core.StatusCompleted
	switch {
	case aborted:
		finalStatus = core.StatusAborted
	case exitCode != 0:
		finalStatus = core.StatusFailed
	}
	sp.EmitFinal(finalStatus)

	return core.TaskResult{
		ID:         opts.ID,
		Task:       opts.Task,
		Model:      opts.Model,
		ExitCode:   exitCode,
		Output:     output,
		Stderr:     stderrBuf.String(),
		Truncated:  truncated,
		DurationMs: time.Since(start).Milliseconds(),
		Usage:      sp.Usage(),
		Error:      errStr,
		Step:       opts.Step,
		Aborted:    aborted,
		ToolUsage:  sp.ToolUsage(),
	}
}

func (e *Executor) commandName() string {
	if e.Command == "" {
		return "pi"
	}
	return e.Command
}

// earlyFailure builds the TaskResult for a resource-acquisition failure
// that occurs before the child is spawned (§7): exitCode 1, the reason as
// Error, never retried past what RunWithRetry already governs.
func earlyFailure(opts Options, err error) core.TaskResult {
	return core.TaskResult{
		ID:       opts.ID,
		Task:     opts.Task,
		Model:    opts.Model,
		ExitCode: 1,
		Error:    err.Error(),
		Step:     opts.Step,
	}
}

func buildArgs(opts Options, systemPromptPath string) []string {
	args := []string{"--mode", "json", "-p", "--no-session"}
	if opts.Provider != "" {
		args = append(args, "--provider", opts.Provider)
	}
	if opts.Model != "" {
		args = append(args, "--model", opts.Model)
	}
	if len(opts.Tools) > 0 {
		args = append(args, "--tools", strings.Join(opts.Tools, ","))
	}
	if opts.Thinking != "" {
		args = append(args, "--thinking", opts.Thinking)
	}
	if systemPromptPath != "" {
		args = append(args, "--append-system-prompt", systemPromptPath)
	}
	args = append(args, composePrompt(opts))
	return args
}

func composePrompt(opts Options) string {
	prompt := "Task: " + opts.Task
	if strings.TrimSpace(opts.Context) != "" {
		prompt = opts.Context + "\n\n" + prompt
	}
	return prompt
}

// writeSystemPrompt writes a non-empty system prompt to a 0600 temp file
// inside a unique directory, returning a cleanup func that removes the
// whole directory. If systemPrompt is empty after trimming, it returns an
// empty path and a no-op cleanup.
func writeSystemPrompt(systemPrompt string) (path string, cleanup func(), err error) {
	if strings.TrimSpace(systemPrompt) == "" {
		return "", func() {}, nil
	}

	dir := filepath.Join(os.TempDir(), "pi-agent-"+uuid.New().String())
	if err := os.MkdirAll(dir, 0700); err != nil {
		return "", func() {}, err
	}
	cleanup = func() { os.RemoveAll(dir) }

	path = filepath.Join(dir, "system-prompt.txt")
	if err := os.WriteFile(path, []byte(systemPrompt), 0600); err != nil {
		cleanup()
		return "", func() {}, err
	}
	return path, cleanup, nil
}
