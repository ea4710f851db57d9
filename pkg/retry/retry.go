// PicoClaw - Ultra-lightweight personal AI agent
// License: MIT
//
// Copyright (c) 2026 PicoClaw contributors

// Package retry implements the orchestrator's retry policy (C1): deciding
// whether a failed attempt is retryable and computing exponential backoff.
package retry

import (
	"context"
	"strings"
	"time"

	"github.com/sipeed/pi-orchestrator/pkg/core"
)

const maxBackoffMs = 60000

// ShouldRetry decides whether errMsg is retryable under cfg. skipOn always
// dominates retryOn: a skip match wins even if the same text also matches a
// retryOn pattern.
func ShouldRetry(errMsg string, cfg *core.RetryConfig) bool {
	if cfg == nil {
		return false
	}
	lower := strings.ToLower(errMsg)

	for _, pattern := range cfg.SkipOn {
		if pattern != "" && strings.Contains(lower, strings.ToLower(pattern)) {
			return false
		}
	}

	if len(cfg.RetryOn) == 0 {
		return true
	}

	for _, pattern := range cfg.RetryOn {
		if pattern != "" && strings.Contains(lower, strings.ToLower(pattern)) {
			return true
		}
	}
	return false
}

// CalculateBackoff returns the delay before attempt number attempt (1-based),
// doubling from baseMs and capped at 60 seconds. attempt 1 always yields
// baseMs.
func CalculateBackoff(baseMs int64, attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	ms := baseMs
	for i := 1; i < attempt; i++ {
		ms *= 2
		if ms > maxBackoffMs {
			ms = maxBackoffMs
			break
		}
	}
	if ms > maxBackoffMs {
		ms = maxBackoffMs
	}
	return time.Duration(ms) * time.Millisecond
}

// Attempt is the outcome of a single run, enough of core.TaskResult for the
// retry loop to decide on.
type Attempt struct {
	ExitCode int
	Error    string
}

// RunWithRetry invokes runOnce up to cfg.MaxAttempts times, returning as
// soon as an attempt has ExitCode == 0 or no Error, is non-retryable,
// or the attempt budget is exhausted. The returned value is always the most
// recent attempt verbatim — never a synthesized aggregate. If cfg is nil,
// runOnce is invoked exactly once.
func RunWithRetry[T any](ctx context.Context, cfg *core.RetryConfig, attemptOf func(T) Attempt, runOnce func(attempt int) T) T {
	if cfg == nil {
		return runOnce(1)
	}

	var last T
	maxAttempts := cfg.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		last = runOnce(attempt)
		a := attemptOf(last)
		if a.ExitCode == 0 || a.Error == "" {
			return last
		}
		if !ShouldRetry(a.Error, cfg) || attempt == maxAttempts {
			return last
		}

		delay := CalculateBackoff(cfg.BackoffMs, attempt)
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return last
		}
	}
	return last
}
