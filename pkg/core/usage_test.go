// PicoClaw - Ultra-lightweight personal AI agent
// License: MIT
//
// Copyright (c) 2026 PicoClaw contributors

package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAddUsage_Accumulates(t *testing.T) {
	target := UsageStats{Input: 10, Output: 5, Cost: 0.5}

	AddUsage(&target, UsageStats{Input: 3, Output: 2, CacheRead: 1, Cost: 0.25, Turns: 1})

	assert.Equal(t, int64(13), target.Input)
	assert.Equal(t, int64(7), target.Output)
	assert.Equal(t, int64(1), target.CacheRead)
	assert.Equal(t, 0.75, target.Cost)
	assert.Equal(t, int64(1), target.Turns)
}

func TestAddUsage_ZeroPartialLeavesTargetUntouched(t *testing.T) {
	target := UsageStats{Input: 10, Output: 5, Cost: 0.5, Turns: 2}

	AddUsage(&target, UsageStats{})

	assert.Equal(t, UsageStats{Input: 10, Output: 5, Cost: 0.5, Turns: 2}, target)
}

func TestAddUsage_Monotonic(t *testing.T) {
	var target UsageStats
	for i := 0; i < 5; i++ {
		AddUsage(&target, UsageStats{Input: 1})
	}
	assert.Equal(t, int64(5), target.Input)
}
