// PicoClaw - Ultra-lightweight personal AI agent
// License: MIT
//
// Copyright (c) 2026 PicoClaw contributors

package executor

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestArgsPreview_ReadWithRange(t *testing.T) {
	preview := ArgsPreview("read", map[string]any{"path": "/a/b/c.go", "offset": 10, "limit": 20})
	assert.Contains(t, preview, "c.go")
	assert.Contains(t, preview, "[10-30]")
}

func TestArgsPreview_BashShortCommandUnchanged(t *testing.T) {
	preview := ArgsPreview("bash", map[string]any{"command": "echo hello world"})
	assert.Equal(t, "echo hello world", preview)
}

func TestArgsPreview_UnknownToolFallsBackToKnownKeys(t *testing.T) {
	preview := ArgsPreview("mystery-tool", map[string]any{"query": "find the bug"})
	assert.Equal(t, "find the bug", preview)
}

func TestArgsPreview_NeverExceedsCap(t *testing.T) {
	longPath := ""
	for i := 0; i < 200; i++ {
		longPath += "a"
	}
	preview := ArgsPreview("write", map[string]any{"path": longPath, "content": "hello"})
	assert.LessOrEqual(t, len(preview), previewCap)
}

func TestArgsPreview_EmptyArgsDoesNotPanic(t *testing.T) {
	assert.NotPanics(t, func() {
		ArgsPreview("bash", nil)
	})
}
