// PicoClaw - Ultra-lightweight personal AI agent
// License: MIT
//
// Copyright (c) 2026 PicoClaw contributors

package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_ZeroOrNegativeIsUnlimited(t *testing.T) {
	for _, perMinute := range []int{0, -1} {
		l := New(perMinute, 5)
		start := time.Now()
		for i := 0; i < 100; i++ {
			require.NoError(t, l.Wait(context.Background()))
		}
		assert.Less(t, time.Since(start), 100*time.Millisecond)
	}
}

func TestNew_BurstAllowsImmediateSpawns(t *testing.T) {
	l := New(60, 3)
	start := time.Now()
	for i := 0; i < 3; i++ {
		require.NoError(t, l.Wait(context.Background()))
	}
	assert.Less(t, time.Since(start), 50*time.Millisecond)
}

func TestLimiter_WaitRespectsContextCancellation(t *testing.T) {
	l := New(1, 1)
	require.NoError(t, l.Wait(context.Background())) // drain the single burst token

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	err := l.Wait(ctx)
	assert.Error(t, err)
}

func TestLimiter_NilReceiverIsUnlimited(t *testing.T) {
	var l *Limiter
	assert.NoError(t, l.Wait(context.Background()))
}
