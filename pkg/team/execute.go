// PicoClaw - Ultra-lightweight personal AI agent
// License: MIT
//
// Copyright (c) 2026 PicoClaw contributors

package team

import (
	"context"
	"fmt"
	"strings"

	"github.com/sipeed/pi-orchestrator/pkg/core"
	"github.com/sipeed/pi-orchestrator/pkg/executor"
	"github.com/sipeed/pi-orchestrator/pkg/logger"
	"github.com/sipeed/pi-orchestrator/pkg/workspace"
)

const defaultMaxConcurrency = 4
const hardMaxConcurrency = 8

// Config governs one ExecuteDag run.
type Config struct {
	MaxConcurrency int
	Workspace      *workspace.Workspace
	OnProgress     func(core.TaskProgress)

	// Approve is the human approval gate (§4.5). Nil means tasks with
	// RequiresApproval are auto-approved, since there is no one to ask.
	Approve ApproveFunc

	// ApprovalPredicate governs the reviewer loop; nil defaults to
	// checking for the literal substring "APPROVED" in the reviewer's
	// output.
	ApprovalPredicate ApprovalPredicate
}

func defaultPredicate(output string) bool {
	return strings.Contains(output, "APPROVED")
}

// ExecuteDag runs dag to completion: ready nodes are launched up to
// MaxConcurrency, a failed node cascades a skip to everything depending on
// it (without aborting the rest of the graph), and the call blocks on a
// completion channel between scheduling passes rather than polling.
func ExecuteDag(ctx context.Context, dag *Dag, exec *executor.Executor, cfg Config) (Result, error) {
	maxConc := cfg.MaxConcurrency
	if maxConc <= 0 {
		maxConc = defaultMaxConcurrency
	}
	if maxConc > hardMaxConcurrency {
		maxConc = hardMaxConcurrency
	}
	predicate := cfg.ApprovalPredicate
	if predicate == nil {
		predicate = defaultPredicate
	}

	doneCh := make(chan string, len(dag.nodes))
	running := 0
	aborted := false

	for {
		dag.cascadeSkip()

		allTerminal := true
		var ready []*DagNode
		for _, id := range dag.order {
			n := dag.nodes[id]
			switch n.getStatus() {
			case NodePending:
				allTerminal = false
				if dag.depsSatisfied(n) {
					ready = append(ready, n)
				}
			case NodeReady, NodeRunning:
				allTerminal = false
			}
		}

		if allTerminal && running == 0 {
			break
		}

		if ctx.Err() != nil {
			aborted = true
		}

		if aborted {
			if running == 0 {
				dag.markRemainingSkipped()
				break
			}
			<-doneCh
			running--
			continue
		}

		for _, n := range ready {
			if running >= maxConc {
				break
			}
			n.setStatus(NodeRunning)
			running++
			go runNode(ctx, dag, n, exec, cfg, predicate, doneCh)
		}

		if running == 0 {
			// No ready node and nothing running, yet not all terminal:
			// BuildDag's cycle check rules this out in practice.
			dag.markRemainingSkipped()
			break
		}

		<-doneCh
		running--
	}

	results := make(map[string]DagExecutionResult, len(dag.nodes))
	for id, n := range dag.nodes {
		results[id] = DagExecutionResult{
			Status:    n.getStatus(),
			Output:    n.Output,
			ExitCode:  n.ExitCode,
			Error:     n.Error,
			Iteration: n.Iteration,
			Usage:     n.Usage,
		}
	}
	return Result{Nodes: results, Aborted: aborted}, nil
}

func (d *Dag) depsSatisfied(n *DagNode) bool {
	for _, dep := range n.Depends {
		if d.nodes[dep].getStatus() != NodeCompleted {
			return false
		}
	}
	return true
}

// cascadeSkip propagates skip status from every currently failed or
// skipped node to its pending dependents, breadth-first over the
// dependency -> dependent adjacency built in BuildDag. It is idempotent
// and safe to call every scheduling pass.
func (d *Dag) cascadeSkip() {
	queue := make([]string, 0, len(d.order))
	for _, id := range d.order {
		switch d.nodes[id].getStatus() {
		case NodeFailed, NodeSkipped:
			queue = append(queue, id)
		}
	}

	visited := make(map[string]bool, len(d.order))
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		if visited[id] {
			continue
		}
		visited[id] = true

		for _, downID := range d.downstream[id] {
			dn := d.nodes[downID]
			if dn.getStatus() == NodePending {
				dn.setStatus(NodeSkipped)
				dn.Error = fmt.Sprintf("skipped: upstream dependency %q did not complete", id)
				queue = append(queue, downID)
			}
		}
	}
}

func (d *Dag) markRemainingSkipped() {
	for _, id := range d.order {
		n := d.nodes[id]
		switch n.getStatus() {
		case NodePending, NodeReady:
			n.setStatus(NodeSkipped)
			if n.Error == "" {
				n.Error = "skipped: orchestrator run aborted"
			}
		}
	}
}

type mergedSettings struct {
	model        string
	tools        []string
	systemPrompt string
	thinking     string
}

func mergeSettings(member Member, task Task) mergedSettings {
	s := mergedSettings{
		model:        member.Model,
		tools:        member.Tools,
		systemPrompt: member.SystemPrompt,
		thinking:     member.Thinking,
	}
	if task.Model != "" {
		s.model = task.Model
	}
	if len(task.Tools) > 0 {
		s.tools = task.Tools
	}
	return s
}

func resourceLimits(member Member, task Task) core.ResourceLimits {
	if task.ResourceLimits != nil {
		return *task.ResourceLimits
	}
	return member.ResourceLimits
}

func retryConfig(member Member, task Task) *core.RetryConfig {
	if task.Retry != nil {
		return task.Retry
	}
	return member.Retry
}

// runAttempt invokes the executor once for n under settings/limits/retryCfg,
// with taskText as the (possibly feedback-augmented) task. Shared by the
// primary/review loop and the approval-gate re-run loop below, since both
// are "re-invoke the same node with feedback appended" in shape.
func runAttempt(ctx context.Context, n *DagNode, exec *executor.Executor, cfg Config, settings mergedSettings, limits core.ResourceLimits, retryCfg *core.RetryConfig, depContext, taskText string) core.TaskResult {
	return exec.RunAgent(ctx, executor.Options{
		ID:             n.Task.ID,
		Name:           n.Task.Assignee,
		Task:           taskText,
		Context:        depContext,
		Model:          settings.model,
		Tools:          settings.tools,
		SystemPrompt:   settings.systemPrompt,
		Thinking:       settings.thinking,
		Retry:          retryCfg,
		ResourceLimits: limits,
		OnProgress:     cfg.OnProgress,
	})
}

// runNode drives one node's full lifecycle — dependency-context assembly,
// the primary/review iteration loop, and the trailing human approval gate
// — and always reports completion on done, even on panic-free internal
// failure, so the scheduler never blocks forever on this node.
func runNode(ctx context.Context, dag *Dag, n *DagNode, exec *executor.Executor, cfg Config, predicate ApprovalPredicate, done chan<- string) {
	defer func() { done <- n.Task.ID }()

	depContext := assembleContext(dag, n.Task.Depends)
	settings := mergeSettings(n.Member, n.Task)
	limits := resourceLimits(n.Member, n.Task)
	retryCfg := retryConfig(n.Member, n.Task)

	maxIter := defaultMaxIterations
	if n.Task.Review != nil && n.Task.Review.MaxIterations > 0 {
		maxIter = n.Task.Review.MaxIterations
	}

	taskText := n.Task.Task
	var last core.TaskResult
	reviewApproved := true

	for iteration := 1; iteration <= maxIter; iteration++ {
		n.Iteration = iteration

		last = runAttempt(ctx, n, exec, cfg, settings, limits, retryCfg, depContext, taskText)

		if !last.Succeeded() || n.Task.Review == nil {
			break
		}

		reviewResult := runReview(ctx, dag, n, exec, cfg, last.Output)
		reviewApproved = reviewResult.Succeeded() && predicate(reviewResult.Output)
		if reviewApproved {
			break
		}
		taskText = n.Task.Task + "\n\nReviewer feedback:\n" + reviewResult.Output
	}

	approvalApproved := true
	if last.Succeeded() && n.Task.RequiresApproval && cfg.Approve != nil {
		last, approvalApproved = runApprovalGate(ctx, n, exec, cfg, settings, limits, retryCfg, depContext, last)
	}

	finalize(dag, n, cfg, last, approvalApproved, ctx.Err() != nil)
}

// runApprovalGate calls cfg.Approve after every attempt; on rejection the
// node re-runs with the approver's feedback appended to its task text. The
// gate makes at most defaultMaxIterations approval checks, so a node is
// re-run at most defaultMaxIterations-1 times before it fails (§4.5 has no
// dedicated per-task budget for the approval gate, unlike the review
// loop's review.maxIterations).
func runApprovalGate(ctx context.Context, n *DagNode, exec *executor.Executor, cfg Config, settings mergedSettings, limits core.ResourceLimits, retryCfg *core.RetryConfig, depContext string, last core.TaskResult) (core.TaskResult, bool) {
	for attempt := 1; attempt <= defaultMaxIterations; attempt++ {
		ok, feedback := cfg.Approve(n.Task.ID, last.Output)
		if ok {
			return last, true
		}
		if attempt == defaultMaxIterations {
			return last, false
		}

		taskText := n.Task.Task + "\n\nApprover feedback:\n" + feedback
		n.Iteration++
		last = runAttempt(ctx, n, exec, cfg, settings, limits, retryCfg, depContext, taskText)
		if !last.Succeeded() {
			return last, false
		}
	}
	return last, false
}

func assembleContext(dag *Dag, depends []string) string {
	if len(depends) == 0 {
		return ""
	}
	parts := make([]string, 0, len(depends))
	for _, dep := range depends {
		depNode := dag.nodes[dep]
		parts = append(parts, fmt.Sprintf("=== %s ===\n%s", dep, depNode.Output))
	}
	return strings.Join(parts, "\n\n")
}

func runReview(ctx context.Context, dag *Dag, n *DagNode, exec *executor.Executor, cfg Config, output string) core.TaskResult {
	reviewer := dag.membersByRole[n.Task.Review.Assignee]
	reviewTask := fmt.Sprintf("Review the following output for task %q:\n\n%s\n\n%s",
		n.Task.ID, output, n.Task.Review.Task)

	return exec.RunAgent(ctx, executor.Options{
		ID:             n.Task.ID + "-review",
		Name:           n.Task.Review.Assignee,
		Task:           reviewTask,
		Model:          reviewer.Model,
		Tools:          reviewer.Tools,
		SystemPrompt:   reviewer.SystemPrompt,
		Thinking:       reviewer.Thinking,
		Retry:          reviewer.Retry,
		ResourceLimits: reviewer.ResourceLimits,
		OnProgress:     cfg.OnProgress,
	})
}

// finalize settles a node's terminal state. Review-loop exhaustion is not
// a failure: per §4.5, "on exhaustion, the node is still marked completed
// carrying its last output" — only an outright execution failure or an
// exhausted human approval gate ends the node as failed. A node whose run
// was aborted by external cancellation of the DAG ends as skipped.
func finalize(dag *Dag, n *DagNode, cfg Config, last core.TaskResult, approvalApproved, cancelled bool) {
	n.Output = last.Output
	n.ExitCode = last.ExitCode
	n.Usage = last.Usage

	switch {
	case cancelled && last.Aborted:
		n.Error = "skipped: orchestrator run aborted"
		n.setStatus(NodeSkipped)
	case !last.Succeeded():
		n.Error = last.Error
		n.setStatus(NodeFailed)
		logger.WarnT(n.Task.ID, "team", "node failed", map[string]any{"error": n.Error})
	case n.Task.RequiresApproval && !approvalApproved:
		n.Error = fmt.Sprintf("rejected by approval gate after %d iterations", n.Iteration)
		n.setStatus(NodeFailed)
		logger.WarnT(n.Task.ID, "team", "node rejected by approval gate", map[string]any{"iterations": n.Iteration})
	default:
		n.setStatus(NodeCompleted)
	}

	if cfg.Workspace != nil {
		_ = cfg.Workspace.WriteTaskResult(n.Task.ID, n.Output, string(n.getStatus()))
	}
}
