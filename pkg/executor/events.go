// PicoClaw - Ultra-lightweight personal AI agent
// License: MIT
//
// Copyright (c) 2026 PicoClaw contributors

package executor

import (
	"bufio"
	"encoding/json"
	"io"
	"sync"

	"github.com/sipeed/pi-orchestrator/pkg/core"
	"github.com/sipeed/pi-orchestrator/pkg/guard"
)

// ContentPart is one element of an event message's content array (§6.2).
type ContentPart struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

// eventUsage mirrors the wire shape of message.usage; missing sub-fields
// default to zero, matching §6.2.
type eventUsage struct {
	Input      float64 `json:"input"`
	Output     float64 `json:"output"`
	CacheRead  float64 `json:"cacheRead"`
	CacheWrite float64 `json:"cacheWrite"`
	Cost       struct {
		Total float64 `json:"total"`
	} `json:"cost"`
	TotalTokens float64 `json:"totalTokens"`
}

func (u *eventUsage) toUsageStats() core.UsageStats {
	return core.UsageStats{
		Input:         int64(u.Input),
		Output:        int64(u.Output),
		CacheRead:     int64(u.CacheRead),
		CacheWrite:    int64(u.CacheWrite),
		Cost:          u.Cost.Total,
		ContextTokens: int64(u.TotalTokens),
	}
}

// eventMessage is the message object carried by message_end / tool_result_end.
type eventMessage struct {
	Role         string        `json:"role"`
	Content      []ContentPart `json:"content"`
	Usage        *eventUsage   `json:"usage,omitempty"`
	StopReason   string        `json:"stopReason,omitempty"`
	ErrorMessage string        `json:"errorMessage,omitempty"`
}

// rawEvent is the discriminated wire event (§6.2).
type rawEvent struct {
	Type     string         `json:"type"`
	Message  *eventMessage  `json:"message,omitempty"`
	ToolName string         `json:"toolName,omitempty"`
	Args     map[string]any `json:"args,omitempty"`
}

// StreamProcessor consumes the child's newline-delimited JSON event stream,
// accumulating TaskProgress and UsageStats and tracking the final assistant
// output. It is not safe for concurrent use from more than one goroutine at
// a time; the executor owns exactly one per task and serializes callback
// invocation through it (§5, "progress callbacks ... non-reentrant per
// task").
type StreamProcessor struct {
	mu sync.Mutex

	progress  *core.TaskProgress
	usage     core.UsageStats
	toolUsage map[string]int

	lastAssistantText string
	apiError          string

	onProgress func(core.TaskProgress)
	tracker    *guard.ToolCallTracker
}

// NewStreamProcessor creates a processor seeded from progress, emitting
// snapshots to onProgress (which may be nil) and optionally tracking
// concurrent tool calls via tracker (which may be nil).
func NewStreamProcessor(progress *core.TaskProgress, onProgress func(core.TaskProgress), tracker *guard.ToolCallTracker) *StreamProcessor {
	return &StreamProcessor{
		progress:   progress,
		toolUsage:  make(map[string]int),
		onProgress: onProgress,
		tracker:    tracker,
	}
}

// Usage returns the accumulated usage stats so far.
func (p *StreamProcessor) Usage() core.UsageStats { return p.usage }

// ToolUsage returns the accumulated tool-name -> count map.
func (p *StreamProcessor) ToolUsage() map[string]int { return p.toolUsage }

// LastAssistantText returns the text of the most recent assistant message's
// final text content part, or "" if none was observed.
func (p *StreamProcessor) LastAssistantText() string { return p.lastAssistantText }

// APIError returns an API-level error observed via an assistant message
// whose stopReason was "error", or "" if none was observed.
func (p *StreamProcessor) APIError() string { return p.apiError }

// Consume reads newline-delimited JSON events from r until EOF, line-
// buffering across chunk boundaries (bufio.Scanner already does this for
// us), and processes each complete line as it arrives.
func (p *StreamProcessor) Consume(r io.Reader) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 10*1024*1024)
	for scanner.Scan() {
		p.processLine(scanner.Bytes())
	}
}

// processLine parses and dispatches one NDJSON line. Unparseable lines and
// unrecognized event types are silently discarded per §6.2.
func (p *StreamProcessor) processLine(line []byte) {
	var evt rawEvent
	if err := json.Unmarshal(line, &evt); err != nil {
		return
	}

	p.mu.Lock()
	recognized := p.apply(evt)
	if recognized {
		p.progress.Touch()
		snapshot := p.progress.Snapshot()
		cb := p.onProgress
		p.mu.Unlock()
		if cb != nil {
			cb(snapshot)
		}
		return
	}
	p.mu.Unlock()
}

// apply mutates p's accumulators for evt and reports whether evt was a
// recognized event type. Caller holds p.mu.
func (p *StreamProcessor) apply(evt rawEvent) bool {
	switch evt.Type {
	case "message_end":
		if evt.Message == nil {
			return false
		}
		if evt.Message.Role == "assistant" {
			p.usage.Turns++
			if evt.Message.Usage != nil {
				core.AddUsage(&p.usage, evt.Message.Usage.toUsageStats())
			}
			for _, part := range evt.Message.Content {
				if part.Type == "text" && part.Text != "" {
					p.lastAssistantText = part.Text
					p.progress.PushOutput(part.Text)
				}
			}
			if evt.Message.StopReason == "error" && evt.Message.ErrorMessage != "" {
				p.apiError = evt.Message.ErrorMessage
			}
		}
		return true
	case "tool_execution_start":
		p.progress.CurrentTool = evt.ToolName
		p.progress.CurrentToolArgs = ArgsPreview(evt.ToolName, evt.Args)
		if p.tracker != nil {
			p.tracker.Start()
		}
		return true
	case "tool_execution_end":
		p.progress.PushTool(p.progress.CurrentTool, p.progress.CurrentToolArgs)
		p.progress.ToolCount++
		p.toolUsage[p.progress.CurrentTool]++
		p.progress.CurrentTool = ""
		p.progress.CurrentToolArgs = ""
		if p.tracker != nil {
			p.tracker.End()
		}
		return true
	case "tool_result_end":
		return evt.Message != nil
	default:
		return false
	}
}

// EmitFinal forces a final snapshot at the given terminal status.
func (p *StreamProcessor) EmitFinal(status core.Status) {
	p.mu.Lock()
	p.progress.Status = status
	p.progress.Touch()
	snapshot := p.progress.Snapshot()
	cb := p.onProgress
	p.mu.Unlock()
	if cb != nil {
		cb(snapshot)
	}
}
