// PicoClaw - Ultra-lightweight personal AI agent
// License: MIT
//
// Copyright (c) 2026 PicoClaw contributors

package core

import "time"

// Status is the lifecycle state of a task, shared by TaskProgress and
// TaskResult.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusAborted   Status = "aborted"
)

const (
	recentToolsCap  = 10
	recentOutputCap = 5
	outputPreviewLen = 100
)

// ToolInvocation is one entry of the recentTools FIFO.
type ToolInvocation struct {
	Tool        string `json:"tool"`
	ArgsPreview string `json:"argsPreview"`
}

// TaskProgress is a live, mutable view of a running task. Callers only ever
// see shallow copies emitted through the onProgress callback (§6.5); the
// executor owns the only mutable instance.
type TaskProgress struct {
	ID     string `json:"id"`
	Name   string `json:"name,omitempty"`
	Status Status `json:"status"`
	Task   string `json:"task"`
	Model  string `json:"model,omitempty"`

	RecentTools  []ToolInvocation `json:"recentTools"`
	RecentOutput []string         `json:"recentOutput"`

	ToolCount       int    `json:"toolCount"`
	CurrentTool     string `json:"currentTool,omitempty"`
	CurrentToolArgs string `json:"currentToolArgs,omitempty"`

	DurationMs int64 `json:"durationMs"`

	startedAt time.Time
}

// NewTaskProgress creates a pending progress record for id/task, recording
// the current time as the start of its duration clock.
func NewTaskProgress(id, task string) *TaskProgress {
	return &TaskProgress{
		ID:        id,
		Task:      task,
		Status:    StatusPending,
		startedAt: time.Now(),
	}
}

// Touch refreshes DurationMs from the wall clock. Call before emitting a
// snapshot.
func (p *TaskProgress) Touch() {
	p.DurationMs = time.Since(p.startedAt).Milliseconds()
}

// Snapshot returns a shallow copy safe for a caller to retain: the FIFO
// slices are copied so further mutation of p does not alias the snapshot.
func (p *TaskProgress) Snapshot() TaskProgress {
	cp := *p
	cp.RecentTools = append([]ToolInvocation(nil), p.RecentTools...)
	cp.RecentOutput = append([]string(nil), p.RecentOutput...)
	return cp
}

// PushTool appends a tool invocation to the bounded FIFO, dropping the
// oldest entry once the cap (10) is exceeded.
func (p *TaskProgress) PushTool(tool, argsPreview string) {
	p.RecentTools = append(p.RecentTools, ToolInvocation{Tool: tool, ArgsPreview: argsPreview})
	if len(p.RecentTools) > recentToolsCap {
		p.RecentTools = p.RecentTools[len(p.RecentTools)-recentToolsCap:]
	}
}

// PushOutput appends an assistant text preview to the bounded FIFO (cap 5),
// truncating to outputPreviewLen characters with an ellipsis first.
func (p *TaskProgress) PushOutput(text string) {
	p.RecentOutput = append(p.RecentOutput, truncatePreview(text, outputPreviewLen))
	if len(p.RecentOutput) > recentOutputCap {
		p.RecentOutput = p.RecentOutput[len(p.RecentOutput)-recentOutputCap:]
	}
}

func truncatePreview(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}

// TaskResult is the immutable record returned once a task finishes (or is
// aborted). Unlike TaskProgress it is never mutated after RunAgent returns.
type TaskResult struct {
	ID    string `json:"id"`
	Task  string `json:"task"`
	Model string `json:"model,omitempty"`

	ExitCode  int    `json:"exitCode"`
	Output    string `json:"output"`
	Stderr    string `json:"stderr,omitempty"`
	Truncated bool   `json:"truncated"`

	DurationMs int64      `json:"durationMs"`
	Usage      UsageStats `json:"usage"`

	Error   string `json:"error,omitempty"`
	Step    *int   `json:"step,omitempty"`
	Aborted bool   `json:"aborted"`

	ToolUsage map[string]int `json:"toolUsage,omitempty"`
}

// Succeeded reports whether the result represents a clean, non-aborted run.
func (r TaskResult) Succeeded() bool {
	return !r.Aborted && r.ExitCode == 0 && r.Error == ""
}
