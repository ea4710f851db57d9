// PicoClaw - Ultra-lightweight personal AI agent
// License: MIT
//
// Copyright (c) 2026 PicoClaw contributors

package team

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sipeed/pi-orchestrator/pkg/executor"
)

// newFakeExecutor builds an *executor.Executor whose "pi" binary is a
// POSIX shell script: it fails (nonzero exit) whenever the prompt contains
// the marker "FAIL_TASK", answers "APPROVED" whenever the prompt looks like
// a review request, and otherwise reports a generic success. This lets the
// DAG engine's scheduling/review/cascade-skip logic be exercised against a
// real subprocess, exactly as the executor contract requires, without a
// real LLM-backed agent binary.
func newFakeExecutor(t *testing.T) *executor.Executor {
	t.Helper()
	dir := t.TempDir()
	script := filepath.Join(dir, "fake-pi.sh")

	content := `#!/bin/sh
for arg in "$@"; do
  last="$arg"
done

case "$last" in
  *FAIL_TASK*)
    echo "deliberate failure" 1>&2
    exit 1
    ;;
  *"Review the following output"*)
    echo '{"type":"message_end","message":{"role":"assistant","content":[{"type":"text","text":"APPROVED"}]}}'
    exit 0
    ;;
  *)
    echo '{"type":"message_end","message":{"role":"assistant","content":[{"type":"text","text":"ok"}]}}'
    exit 0
    ;;
esac
`
	require.NoError(t, os.WriteFile(script, []byte(content), 0755))
	return executor.New(script, nil)
}

func TestExecuteDag_SingleTaskSucceeds(t *testing.T) {
	dag, err := BuildDag([]Member{{Role: "writer"}}, []Task{{ID: "t1", Task: "write it", Assignee: "writer"}})
	require.NoError(t, err)

	result, err := ExecuteDag(context.Background(), dag, newFakeExecutor(t), Config{})
	require.NoError(t, err)
	assert.False(t, result.Aborted)
	require.Contains(t, result.Nodes, "t1")
	assert.Equal(t, NodeCompleted, result.Nodes["t1"].Status)
}

func TestExecuteDag_DependentRunsAfterDependency(t *testing.T) {
	dag, err := BuildDag([]Member{{Role: "writer"}}, []Task{
		{ID: "draft", Task: "write draft", Assignee: "writer"},
		{ID: "polish", Task: "polish it", Assignee: "writer", Depends: []string{"draft"}},
	})
	require.NoError(t, err)

	result, err := ExecuteDag(context.Background(), dag, newFakeExecutor(t), Config{})
	require.NoError(t, err)
	assert.Equal(t, NodeCompleted, result.Nodes["draft"].Status)
	assert.Equal(t, NodeCompleted, result.Nodes["polish"].Status)
}

func TestExecuteDag_CascadeSkipsDownstreamOnFailure(t *testing.T) {
	dag, err := BuildDag([]Member{{Role: "writer"}}, []Task{
		{ID: "broken", Task: "FAIL_TASK please", Assignee: "writer"},
		{ID: "downstream", Task: "use broken's output", Assignee: "writer", Depends: []string{"broken"}},
	})
	require.NoError(t, err)

	result, err := ExecuteDag(context.Background(), dag, newFakeExecutor(t), Config{})
	require.NoError(t, err)
	assert.False(t, result.Aborted, "a node-level failure must not abort the whole run")
	assert.Equal(t, NodeFailed, result.Nodes["broken"].Status)
	assert.Equal(t, NodeSkipped, result.Nodes["downstream"].Status)
	assert.Contains(t, result.Nodes["downstream"].Error, "upstream dependency")
}

func TestExecuteDag_IndependentSiblingOfFailedNodeStillRuns(t *testing.T) {
	dag, err := BuildDag([]Member{{Role: "writer"}}, []Task{
		{ID: "broken", Task: "FAIL_TASK", Assignee: "writer"},
		{ID: "independent", Task: "unrelated work", Assignee: "writer"},
	})
	require.NoError(t, err)

	result, err := ExecuteDag(context.Background(), dag, newFakeExecutor(t), Config{})
	require.NoError(t, err)
	assert.Equal(t, NodeCompleted, result.Nodes["independent"].Status)
}

func TestExecuteDag_ReviewLoopApprovesOnFirstPass(t *testing.T) {
	dag, err := BuildDag(
		[]Member{{Role: "writer"}, {Role: "reviewer"}},
		[]Task{{ID: "t1", Task: "write it", Assignee: "writer", Review: &ReviewSpec{Assignee: "reviewer", Task: "check it"}}},
	)
	require.NoError(t, err)

	result, err := ExecuteDag(context.Background(), dag, newFakeExecutor(t), Config{})
	require.NoError(t, err)
	assert.Equal(t, NodeCompleted, result.Nodes["t1"].Status)
	assert.Equal(t, 1, result.Nodes["t1"].Iteration)
}

func TestExecuteDag_HumanApprovalGateReRunsWithFeedbackThenExhausts(t *testing.T) {
	dag, err := BuildDag([]Member{{Role: "writer"}}, []Task{
		{ID: "t1", Task: "write it", Assignee: "writer", RequiresApproval: true},
	})
	require.NoError(t, err)

	var calls int
	result, err := ExecuteDag(context.Background(), dag, newFakeExecutor(t), Config{
		Approve: func(taskID, output string) (bool, string) {
			calls++
			return false, "needs more detail"
		},
	})
	require.NoError(t, err)
	assert.Equal(t, NodeFailed, result.Nodes["t1"].Status)
	assert.Contains(t, result.Nodes["t1"].Error, "rejected by approval gate after 5 iterations")

	// One approval check per attempt (the initial run plus every re-run),
	// capped at the global default of defaultMaxIterations.
	assert.Equal(t, defaultMaxIterations, calls)
	assert.Equal(t, defaultMaxIterations, result.Nodes["t1"].Iteration)
}

func TestExecuteDag_HumanApprovalGateReRunsWithFeedbackThenApproves(t *testing.T) {
	dag, err := BuildDag([]Member{{Role: "writer"}}, []Task{
		{ID: "t1", Task: "write it", Assignee: "writer", RequiresApproval: true},
	})
	require.NoError(t, err)

	var calls int
	result, err := ExecuteDag(context.Background(), dag, newFakeExecutor(t), Config{
		Approve: func(taskID, output string) (bool, string) {
			calls++
			if calls == 1 {
				return false, "needs more detail"
			}
			return true, ""
		},
	})
	require.NoError(t, err)
	assert.Equal(t, NodeCompleted, result.Nodes["t1"].Status)
	assert.Empty(t, result.Nodes["t1"].Error)
	assert.Equal(t, 2, calls)
	// The rejection re-ran the node once (appending feedback to its task),
	// so the node's iteration count advances past its initial run.
	assert.Equal(t, 2, result.Nodes["t1"].Iteration)
}

func TestExecuteDag_HumanApprovalGateCanApprove(t *testing.T) {
	dag, err := BuildDag([]Member{{Role: "writer"}}, []Task{
		{ID: "t1", Task: "write it", Assignee: "writer", RequiresApproval: true},
	})
	require.NoError(t, err)

	result, err := ExecuteDag(context.Background(), dag, newFakeExecutor(t), Config{
		Approve: func(taskID, output string) (bool, string) { return true, "" },
	})
	require.NoError(t, err)
	assert.Equal(t, NodeCompleted, result.Nodes["t1"].Status)
}

func TestExecuteDag_NoApproveFuncDefaultsToAutoApprove(t *testing.T) {
	dag, err := BuildDag([]Member{{Role: "writer"}}, []Task{
		{ID: "t1", Task: "write it", Assignee: "writer", RequiresApproval: true},
	})
	require.NoError(t, err)

	result, err := ExecuteDag(context.Background(), dag, newFakeExecutor(t), Config{})
	require.NoError(t, err)
	assert.Equal(t, NodeCompleted, result.Nodes["t1"].Status)
}

func TestExecuteDag_ContextCancelledBeforeStartAbortsEverything(t *testing.T) {
	dag, err := BuildDag([]Member{{Role: "writer"}}, []Task{{ID: "t1", Task: "write it", Assignee: "writer"}})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := ExecuteDag(ctx, dag, newFakeExecutor(t), Config{})
	require.NoError(t, err)
	assert.True(t, result.Aborted)
	assert.Equal(t, NodeSkipped, result.Nodes["t1"].Status)
}

func TestExecuteDag_ConcurrencyClampedToHardMax(t *testing.T) {
	dag, err := BuildDag([]Member{{Role: "writer"}}, []Task{{ID: "t1", Task: "write it", Assignee: "writer"}})
	require.NoError(t, err)

	start := time.Now()
	result, err := ExecuteDag(context.Background(), dag, newFakeExecutor(t), Config{MaxConcurrency: 1000})
	require.NoError(t, err)
	assert.Equal(t, NodeCompleted, result.Nodes["t1"].Status)
	assert.Less(t, time.Since(start), 5*time.Second)
}
