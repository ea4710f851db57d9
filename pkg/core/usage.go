// PicoClaw - Ultra-lightweight personal AI agent
// License: MIT
//
// Copyright (c) 2026 PicoClaw contributors

// Package core holds the data model shared by every component of the
// orchestrator: usage accounting, task progress/result snapshots, retry and
// resource-limit configuration.
package core

// UsageStats accumulates token and cost counters for a single task across
// its lifetime. Every field is monotonically non-decreasing: AddUsage only
// ever adds, it never resets or subtracts.
type UsageStats struct {
	Input         int64   `json:"input"`
	Output        int64   `json:"output"`
	CacheRead     int64   `json:"cacheRead"`
	CacheWrite    int64   `json:"cacheWrite"`
	Cost          float64 `json:"cost"`
	ContextTokens int64   `json:"contextTokens"`
	Turns         int64   `json:"turns"`
}

// AddUsage adds every present field of partial into target in place.
// A zero-value field in partial is treated as "not present" and leaves the
// corresponding target field untouched, matching the event stream's
// optional usage sub-fields (§6.2 of the orchestrator's external interface
// contract: missing sub-fields default to zero and must not clobber).
func AddUsage(target *UsageStats, partial UsageStats) {
	target.Input += partial.Input
	target.Output += partial.Output
	target.CacheRead += partial.CacheRead
	target.CacheWrite += partial.CacheWrite
	target.Cost += partial.Cost
	target.ContextTokens += partial.ContextTokens
	target.Turns += partial.Turns
}
