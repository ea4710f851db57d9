// PicoClaw - Ultra-lightweight personal AI agent
// License: MIT
//
// Copyright (c) 2026 PicoClaw contributors

// Package guard implements the orchestrator's resource guards (C2):
// composable cancellation signals derived from a task's duration, memory,
// and tool-concurrency limits.
package guard

import (
	"context"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/sipeed/pi-orchestrator/pkg/core"
)

const memoryPollInterval = 5 * time.Second

// Guard composes one or more cancellation signals into a single context.
// Any one signal firing cancels Ctx; Reason reports which one fired (empty
// until then). Stop must be called on every return path to tear down the
// duration timer and memory poller goroutine.
type Guard struct {
	Ctx    context.Context
	cancel context.CancelFunc
	reason atomic.Value // string

	stopPoll chan struct{}
	stopped  atomic.Bool
}

// New builds a Guard from parent (the caller's cancellation context) and
// limits. The memory poller and tool-call tracker are only wired when
// limits.EnforceLimits is true; the duration timer is wired whenever
// MaxDurationMs is set, enforced regardless of EnforceLimits per spec.
func New(parent context.Context, limits core.ResourceLimits) *Guard {
	ctx, cancel := context.WithCancel(parent)
	g := &Guard{Ctx: ctx, cancel: cancel, stopPoll: make(chan struct{})}

	if limits.MaxDurationMs > 0 {
		timer := time.AfterFunc(time.Duration(limits.MaxDurationMs)*time.Millisecond, func() {
			g.fire("duration limit exceeded")
		})
		go func() {
			<-ctx.Done()
			timer.Stop()
		}()
	}

	if limits.EnforceLimits && limits.MaxMemoryMB > 0 {
		go g.pollMemory(limits.MaxMemoryMB)
	}

	return g
}

func (g *Guard) pollMemory(maxMemoryMB int64) {
	ticker := time.NewTicker(memoryPollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-g.Ctx.Done():
			return
		case <-g.stopPoll:
			return
		case <-ticker.C:
			var stats runtime.MemStats
			runtime.ReadMemStats(&stats)
			usedMB := int64(stats.HeapAlloc / (1024 * 1024))
			if usedMB > maxMemoryMB {
				g.fire("memory limit exceeded")
				return
			}
		}
	}
}

func (g *Guard) fire(reason string) {
	g.reason.CompareAndSwap(nil, reason)
	g.cancel()
}

// Reason returns the cancellation reason, or "" if the guard has not fired.
func (g *Guard) Reason() string {
	v := g.reason.Load()
	if v == nil {
		return ""
	}
	return v.(string)
}

// Stop tears down the guard's background goroutines. Safe to call more
// than once and from any return path.
func (g *Guard) Stop() {
	if g.stopped.CompareAndSwap(false, true) {
		close(g.stopPoll)
	}
	g.cancel()
}

// ToolCallTracker enforces ResourceLimits.MaxConcurrentToolCalls by
// cancelling the guard when more tool calls are live than permitted. It is
// wired by the executor around tool_execution_start/tool_execution_end
// events, not by Guard itself, since only the executor observes those.
type ToolCallTracker struct {
	guard   *Guard
	max     int
	inFlight atomic.Int64
}

// NewToolCallTracker returns a tracker bound to guard. If max <= 0 or
// limits are not enforced, the tracker is a no-op.
func NewToolCallTracker(g *Guard, max int) *ToolCallTracker {
	return &ToolCallTracker{guard: g, max: max}
}

// Start records a tool call beginning, cancelling the guard with
// "concurrent tool call limit exceeded" if this exceeds max.
func (t *ToolCallTracker) Start() {
	if t.max <= 0 {
		return
	}
	n := t.inFlight.Add(1)
	if int(n) > t.max {
		t.guard.fire("concurrent tool call limit exceeded")
	}
}

// End records a tool call finishing.
func (t *ToolCallTracker) End() {
	if t.max <= 0 {
		return
	}
	t.inFlight.Add(-1)
}
