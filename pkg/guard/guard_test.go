// PicoClaw - Ultra-lightweight personal AI agent
// License: MIT
//
// Copyright (c) 2026 PicoClaw contributors

package guard

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sipeed/pi-orchestrator/pkg/core"
)

func TestNew_NoLimitsNeverFires(t *testing.T) {
	g := New(context.Background(), core.ResourceLimits{})
	defer g.Stop()

	select {
	case <-g.Ctx.Done():
		t.Fatal("guard fired with no limits configured")
	case <-time.After(20 * time.Millisecond):
	}
	assert.Equal(t, "", g.Reason())
}

func TestNew_DurationLimitFires(t *testing.T) {
	g := New(context.Background(), core.ResourceLimits{MaxDurationMs: 10})
	defer g.Stop()

	select {
	case <-g.Ctx.Done():
	case <-time.After(500 * time.Millisecond):
		t.Fatal("guard did not fire before the duration limit")
	}
	assert.Equal(t, "duration limit exceeded", g.Reason())
}

func TestNew_DurationLimitAppliesEvenWithoutEnforceLimits(t *testing.T) {
	g := New(context.Background(), core.ResourceLimits{MaxDurationMs: 10, EnforceLimits: false})
	defer g.Stop()

	select {
	case <-g.Ctx.Done():
	case <-time.After(500 * time.Millisecond):
		t.Fatal("duration limit must apply regardless of EnforceLimits")
	}
}

func TestGuard_ParentCancellationPropagates(t *testing.T) {
	parent, cancel := context.WithCancel(context.Background())
	g := New(parent, core.ResourceLimits{})
	defer g.Stop()

	cancel()

	select {
	case <-g.Ctx.Done():
	case <-time.After(200 * time.Millisecond):
		t.Fatal("guard context must be cancelled when parent is")
	}
}

func TestGuard_StopIsIdempotent(t *testing.T) {
	g := New(context.Background(), core.ResourceLimits{EnforceLimits: true, MaxMemoryMB: 1})
	require.NotPanics(t, func() {
		g.Stop()
		g.Stop()
	})
}

func TestToolCallTracker_NoopWhenMaxNotPositive(t *testing.T) {
	g := New(context.Background(), core.ResourceLimits{})
	defer g.Stop()

	tr := NewToolCallTracker(g, 0)
	tr.Start()
	tr.Start()
	tr.Start()

	select {
	case <-g.Ctx.Done():
		t.Fatal("tracker with max<=0 must never fire the guard")
	case <-time.After(20 * time.Millisecond):
	}
}

func TestToolCallTracker_FiresWhenExceeded(t *testing.T) {
	g := New(context.Background(), core.ResourceLimits{})
	defer g.Stop()

	tr := NewToolCallTracker(g, 2)
	tr.Start()
	tr.Start()
	tr.Start()

	select {
	case <-g.Ctx.Done():
	case <-time.After(200 * time.Millisecond):
		t.Fatal("tracker should have cancelled the guard on the 3rd concurrent call")
	}
	assert.Equal(t, "concurrent tool call limit exceeded", g.Reason())
}

func TestToolCallTracker_EndDecrements(t *testing.T) {
	g := New(context.Background(), core.ResourceLimits{})
	defer g.Stop()

	tr := NewToolCallTracker(g, 2)
	tr.Start()
	tr.Start()
	tr.End()
	tr.Start()

	select {
	case <-g.Ctx.Done():
		t.Fatal("tracker should not fire: End() freed a slot before the 3rd Start()")
	case <-time.After(20 * time.Millisecond):
	}
}
