// PicoClaw - Ultra-lightweight personal AI agent
// License: MIT
//
// Copyright (c) 2026 PicoClaw contributors

// Package ratelimit bounds how often the orchestrator may spawn new agent
// subprocesses, independent of the per-task resource guards in pkg/guard.
package ratelimit

import (
	"context"

	"golang.org/x/time/rate"
)

// Limiter gates subprocess spawns with a token bucket. A Limiter configured
// with rate 0 never blocks, matching ResourceLimits' "0 = unlimited"
// convention used elsewhere in the config surface.
type Limiter struct {
	rl *rate.Limiter
}

// New builds a Limiter allowing up to perMinute spawns per minute with the
// given burst. perMinute <= 0 means unlimited.
func New(perMinute int, burst int) *Limiter {
	if perMinute <= 0 {
		return &Limiter{rl: nil}
	}
	if burst < 1 {
		burst = 1
	}
	return &Limiter{rl: rate.NewLimiter(rate.Limit(float64(perMinute)/60.0), burst)}
}

// Wait blocks until a spawn token is available or ctx is cancelled.
func (l *Limiter) Wait(ctx context.Context) error {
	if l == nil || l.rl == nil {
		return nil
	}
	return l.rl.Wait(ctx)
}
