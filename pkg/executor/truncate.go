// PicoClaw - Ultra-lightweight personal AI agent
// License: MIT
//
// Copyright (c) 2026 PicoClaw contributors

package executor

import "strings"

const (
	defaultMaxBytes = 50 * 1024
	defaultMaxLines = 2000
)

// TruncateOutput implements §4.3.1: retain the tail of output, since agent
// conclusions typically live at the end. First trims to the last maxLines
// lines, then repeatedly halves the remaining text until it fits within
// maxBytes. truncated is sticky once set by either step.
func TruncateOutput(output string, maxBytes, maxLines int) (result string, truncated bool) {
	if maxBytes <= 0 {
		maxBytes = defaultMaxBytes
	}
	if maxLines <= 0 {
		maxLines = defaultMaxLines
	}

	lines := strings.Split(output, "\n")
	if len(lines) > maxLines {
		lines = lines[len(lines)-maxLines:]
		truncated = true
	}
	result = strings.Join(lines, "\n")

	for len(result) > maxBytes && len(result) > 0 {
		result = result[len(result)/2:]
		truncated = true
	}

	return result, truncated
}
