// PicoClaw - Ultra-lightweight personal AI agent
// License: MIT
//
// Copyright (c) 2026 PicoClaw contributors

package executor

import (
	"fmt"
)

const previewCap = 60

// ArgsPreview implements §4.3.2: a display string no longer than 60
// characters summarizing a tool call's arguments, with per-tool rules and a
// generic fallback for unrecognized tools.
func ArgsPreview(tool string, args map[string]any) string {
	var preview string
	switch tool {
	case "read":
		preview = tailTruncate(str(args["path"]), 50, "...")
		if hasAny(args, "offset", "limit") {
			offset := intOr(args["offset"], 1)
			limit := intOr(args["limit"], 100)
			preview += fmt.Sprintf(" [%d-%d]", offset, offset+limit)
		}
	case "write":
		preview = tailTruncate(str(args["path"]), 40, "...")
		if content, ok := args["content"].(string); ok {
			preview += fmt.Sprintf(" (%d chars)", len(content))
		}
	case "edit":
		preview = tailTruncate(str(args["path"]), 50, "...")
	case "bash":
		preview = headTruncate(str(args["command"]), 60)
	case "grep", "rg":
		preview = str(args["pattern"])
		if path, ok := args["path"].(string); ok && path != "" {
			preview += " in " + path
		}
		preview = headTruncate(preview, 60)
	case "find":
		preview = str(args["path"])
		if name, ok := args["name"].(string); ok && name != "" {
			preview += fmt.Sprintf(" -name %q", name)
		}
		preview = headTruncate(preview, 60)
	case "mcp":
		for _, key := range []string{"tool", "search", "server"} {
			if v, ok := args[key]; ok {
				preview = fmt.Sprintf("%s: %v", key, v)
				break
			}
		}
	case "subagent":
		if task, ok := args["task"].(string); ok && task != "" {
			preview = headTruncate(task, 50)
		} else if agent, ok := args["agent"]; ok {
			preview = fmt.Sprintf("agent: %v", agent)
		}
	case "todo":
		preview = str(args["action"])
		if title, ok := args["title"].(string); ok && title != "" {
			preview += ": " + headTruncate(title, 40)
		} else if id, ok := args["id"]; ok {
			preview += fmt.Sprintf(": %v", id)
		}
	default:
		preview = fallbackPreview(args)
	}

	return capPreview(preview)
}

func fallbackPreview(args map[string]any) string {
	for _, key := range []string{"command", "path", "file", "pattern", "query", "url", "task", "prompt", "name", "action"} {
		if v, ok := args[key]; ok {
			if s, ok := v.(string); ok {
				return s
			}
			return fmt.Sprintf("%v", v)
		}
	}
	for k, v := range args {
		if s, ok := v.(string); ok {
			return fmt.Sprintf("%s: %s", k, s)
		}
	}
	return ""
}

func capPreview(s string) string {
	if len(s) <= previewCap {
		return s
	}
	return s[:previewCap-3] + "..."
}

func headTruncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}

func tailTruncate(s string, n int, prefix string) string {
	if len(s) <= n {
		return s
	}
	return prefix + s[len(s)-n+len(prefix):]
}

func str(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

func intOr(v any, def int) int {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	}
	return def
}

func hasAny(m map[string]any, keys ...string) bool {
	for _, k := range keys {
		if _, ok := m[k]; ok {
			return true
		}
	}
	return false
}
