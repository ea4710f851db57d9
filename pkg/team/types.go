// PicoClaw - Ultra-lightweight personal AI agent
// License: MIT
//
// Copyright (c) 2026 PicoClaw contributors

// Package team implements the orchestrator's DAG engine (C5): team-mode
// graph validation, concurrency-bounded scheduling, review/approval loops,
// and cascade-skip of downstream nodes on failure.
package team

import (
	"sync"

	"github.com/sipeed/pi-orchestrator/pkg/core"
)

// NodeStatus is a DagNode's runtime status, per §3/§4.5's state machine.
type NodeStatus string

const (
	NodePending   NodeStatus = "pending"
	NodeReady     NodeStatus = "ready"
	NodeRunning   NodeStatus = "running"
	NodeCompleted NodeStatus = "completed"
	NodeFailed    NodeStatus = "failed"
	NodeSkipped   NodeStatus = "skipped"
)

// Member provides defaults for tasks assigned to Role.
type Member struct {
	Role           string
	Model          string
	Tools          []string
	SystemPrompt   string
	Thinking       string
	ResourceLimits core.ResourceLimits
	Retry          *core.RetryConfig
}

// ReviewSpec describes a review loop attached to a Task.
type ReviewSpec struct {
	Assignee      string
	MaxIterations int
	Task          string
}

// Task is one DAG input node (TeamTask, §3).
type Task struct {
	ID               string
	Task             string
	Assignee         string
	Depends          []string
	Review           *ReviewSpec
	RequiresApproval bool

	// Per-task overrides, applied over the assignee's Member defaults.
	Model          string
	Tools          []string
	ResourceLimits *core.ResourceLimits
	Retry          *core.RetryConfig
}

const defaultMaxIterations = 5

// DagNode is the runtime record for one Task.
type DagNode struct {
	mu sync.Mutex

	Task    Task
	Member  Member
	Depends []string

	Status    NodeStatus
	Iteration int
	Output    string
	ExitCode  int
	Error     string
	Usage     core.UsageStats
}

func (n *DagNode) setStatus(s NodeStatus) {
	n.mu.Lock()
	n.Status = s
	n.mu.Unlock()
}

func (n *DagNode) getStatus() NodeStatus {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.Status
}

// ApproveFunc is the human-approval gate callback (§4.5): given a task id
// and its produced plan/output, it returns whether to approve and, if not,
// feedback to fold into a re-run.
type ApproveFunc func(taskID, output string) (approved bool, feedback string)

// ApprovalPredicate decides, from a reviewer's raw output, whether the
// reviewed node is approved. The default checks for the literal substring
// "APPROVED", matching the convention documented as an Open Question in
// SPEC_FULL.md and exposed here as a parameter per that decision.
type ApprovalPredicate func(reviewerOutput string) bool

// DagExecutionResult is the per-node return value of ExecuteDag (§4.5).
type DagExecutionResult struct {
	Status    NodeStatus
	Output    string
	ExitCode  int
	Error     string
	Iteration int
	Usage     core.UsageStats
}

// Result is the overall ExecuteDag return value.
type Result struct {
	Nodes   map[string]DagExecutionResult
	Aborted bool
}
